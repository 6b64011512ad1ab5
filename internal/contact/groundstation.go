// Package contact implements visibility prediction and the RF link budget
// (C2): elevation/range geometry, per-band link budgets, ISL detection, and
// the open/close contact-window state machine.
package contact

import (
	"github.com/aurorasat/dtnsim/internal/apierr"
	"github.com/aurorasat/dtnsim/internal/orbital"
)

// GroundStation is an immutable ground endpoint: geodetic position, a
// minimum-elevation visibility mask, a maximum range, and antenna gain.
type GroundStation struct {
	ID               string
	Name             string
	LatDeg           float64
	LonDeg           float64
	AltKm            float64
	ElevationMaskDeg float64
	MaxRangeKm       float64
	AntennaGainDb    float64

	ecef orbital.Vector3
}

// NewGroundStation validates a ground station's geodetic position and caches
// its ECEF location, which never changes for the run.
func NewGroundStation(id, name string, latDeg, lonDeg, altKm, elevationMaskDeg, maxRangeKm, antennaGainDb float64) (*GroundStation, error) {
	if latDeg < -90 || latDeg > 90 {
		return nil, apierr.InvalidInput("ground station %q: latitude %.6f out of range [-90, 90]", id, latDeg)
	}
	if lonDeg < -180 || lonDeg > 180 {
		return nil, apierr.InvalidInput("ground station %q: longitude %.6f out of range [-180, 180]", id, lonDeg)
	}
	gs := &GroundStation{
		ID:               id,
		Name:             name,
		LatDeg:           latDeg,
		LonDeg:           lonDeg,
		AltKm:            altKm,
		ElevationMaskDeg: elevationMaskDeg,
		MaxRangeKm:       maxRangeKm,
		AntennaGainDb:    antennaGainDb,
	}
	gs.ecef = orbital.GeodeticToECEF(latDeg, lonDeg, altKm)
	return gs, nil
}

// ECEF returns the ground station's cached ECEF position.
func (gs *GroundStation) ECEF() orbital.Vector3 {
	return gs.ecef
}
