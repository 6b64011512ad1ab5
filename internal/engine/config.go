// Package engine implements the discrete-time simulation loop (C5): the
// clock, the per-tick pipeline coupling propagation, contact prediction,
// routing, and delivery, and the control-API-facing simulation registry.
package engine

import (
	"time"

	"github.com/aurorasat/dtnsim/internal/apierr"
	"github.com/aurorasat/dtnsim/internal/contact"
	"github.com/aurorasat/dtnsim/internal/orbital"
)

// Algorithm names the routing strategy a simulation is configured with.
type Algorithm string

const (
	AlgorithmEpidemic     Algorithm = "epidemic"
	AlgorithmPRoPHET      Algorithm = "prophet"
	AlgorithmSprayAndWait Algorithm = "spray_and_wait"
)

// SatelliteSpec is one satellite's identity and orbital elements within a
// constellation configuration.
type SatelliteSpec struct {
	ID       string
	Elements orbital.Elements
}

// Config fully specifies one simulation run, matching the control API's
// createSimulation request body (§6).
type Config struct {
	ConstellationID string
	Satellites      []SatelliteSpec

	GroundStations []*contact.GroundStation
	SourceStation  string
	DestStation    string

	RoutingAlgorithm Algorithm
	DurationHours    float64
	BundleRate       float64 // bundles per virtual second
	BufferBytes      int64
	RFBand           string
	WeatherEnabled   bool

	Epoch time.Time
	Alpha float64 // virtual seconds per wall-clock second
	DeltaT time.Duration
	Seed   uint64

	SprayInitialCopies int
}

// defaultAlpha is §4.5's default acceleration factor and defaultDeltaT its
// batch-mode tick length.
const (
	defaultAlpha  = 3600.0
	defaultDeltaT = 5 * time.Minute
)

// Validate checks the invariants a simulation must satisfy before it can be
// created, and fills in defaults for optional fields.
func (c *Config) Validate() error {
	if c.ConstellationID == "" {
		return apierr.InvalidInput("constellation_id is required")
	}
	if len(c.Satellites) == 0 {
		return apierr.InvalidInput("constellation %q has no satellites", c.ConstellationID)
	}
	if c.SourceStation == "" || c.DestStation == "" {
		return apierr.InvalidInput("both a source and destination ground station are required")
	}
	found := map[string]bool{}
	for _, gs := range c.GroundStations {
		found[gs.ID] = true
	}
	if !found[c.SourceStation] {
		return apierr.InvalidInput("unknown source ground station %q", c.SourceStation)
	}
	if !found[c.DestStation] {
		return apierr.InvalidInput("unknown destination ground station %q", c.DestStation)
	}
	switch c.RoutingAlgorithm {
	case AlgorithmEpidemic, AlgorithmPRoPHET, AlgorithmSprayAndWait:
	default:
		return apierr.InvalidInput("unknown routing_algorithm %q", c.RoutingAlgorithm)
	}
	if c.DurationHours <= 0 {
		return apierr.InvalidInput("duration_hours must be positive, got %f", c.DurationHours)
	}
	if c.BundleRate < 0 {
		return apierr.InvalidInput("bundle_rate_per_second must be non-negative, got %f", c.BundleRate)
	}
	if c.BufferBytes <= 0 {
		return apierr.InvalidInput("buffer_bytes must be positive, got %d", c.BufferBytes)
	}
	if c.RFBand == "" {
		return apierr.InvalidInput("rf_band is required")
	}
	if c.Alpha <= 0 {
		c.Alpha = defaultAlpha
	}
	if c.DeltaT <= 0 {
		c.DeltaT = defaultDeltaT
	}
	if c.Epoch.IsZero() {
		c.Epoch = c.Satellites[0].Elements.Epoch
	}
	return nil
}

// Duration returns the simulation's configured run length as a duration.
func (c Config) Duration() time.Duration {
	return time.Duration(c.DurationHours * float64(time.Hour))
}
