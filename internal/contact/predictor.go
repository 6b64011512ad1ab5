package contact

import (
	"fmt"
	"time"

	"github.com/aurorasat/dtnsim/internal/orbital"
)

// EventKind distinguishes a contact opening from a contact closing.
type EventKind int

const (
	EventOpen EventKind = iota
	EventClose
)

// Window is a contact window: a finite interval during which an endpoint
// pair has a positive link-budget data rate.
type Window struct {
	ID              string
	EndpointA       string
	EndpointB       string
	OpenTime        time.Time
	CloseTime       time.Time
	PeakElevation   float64
	PeakRateMbps    float64
	IsISL           bool
}

// Event reports a window opening or closing at a given tick.
type Event struct {
	Kind   EventKind
	Window Window
}

// Contact is an endpoint pair with a positive achievable rate as of the
// current tick.
type Contact struct {
	EndpointA    string
	EndpointB    string
	RateMbps     float64
	ElevationDeg float64
	RangeKm      float64
	IsISL        bool
}

// SatelliteState is the minimal per-satellite input the predictor needs: its
// id and its current ECI/ECEF position.
type SatelliteState struct {
	ID   string
	ECI  orbital.Vector3
	ECEF orbital.Vector3
}

// pairKey canonicalizes an unordered endpoint pair so A-B and B-A map to the
// same tracked window.
func pairKey(a, b string) string {
	if a < b {
		return a + "\x00" + b
	}
	return b + "\x00" + a
}

// Predictor tracks visibility and link budgets across ticks, emitting
// contact-open/close events and maintaining at most one open window per
// endpoint pair, per §4.2's contact-window state machine.
type Predictor struct {
	band             BandParams
	weatherEnabled   bool
	islThresholdKm   float64
	islModel         ISLRateModel
	groundStations   map[string]*GroundStation

	open   map[string]*Window
	seq    uint64
}

// Config configures a Predictor's link budget and ISL behavior.
type Config struct {
	Band            BandParams
	WeatherEnabled  bool
	ISLThresholdKm  float64
	ISLModel        ISLRateModel
	GroundStations  []*GroundStation
}

// NewPredictor builds a Predictor. ISLThresholdKm defaults to 5000 and
// ISLModel defaults to DefaultISLRateModel when left zero/nil.
func NewPredictor(cfg Config) *Predictor {
	threshold := cfg.ISLThresholdKm
	if threshold <= 0 {
		threshold = 5000
	}
	model := cfg.ISLModel
	if model == nil {
		model = NewDefaultISLRateModel()
	}
	stations := make(map[string]*GroundStation, len(cfg.GroundStations))
	for _, gs := range cfg.GroundStations {
		stations[gs.ID] = gs
	}
	return &Predictor{
		band:           cfg.Band,
		weatherEnabled: cfg.WeatherEnabled,
		islThresholdKm: threshold,
		islModel:       model,
		groundStations: stations,
		open:           make(map[string]*Window),
	}
}

// Tick evaluates every satellite-ground and satellite-satellite pair at the
// current simulation time, returning the currently active contacts and any
// window-open/close events since the previous call.
func (p *Predictor) Tick(now time.Time, satellites []SatelliteState) ([]Contact, []Event) {
	var contacts []Contact
	var events []Event
	seenPairs := make(map[string]bool)

	for _, sat := range satellites {
		for _, gs := range p.groundStations {
			key := pairKey(sat.ID, gs.ID)
			seenPairs[key] = true

			geom := ObserveFromGroundStation(gs, sat.ECEF)
			visible := geom.ElevationDeg >= gs.ElevationMaskDeg && geom.RangeKm <= gs.MaxRangeKm

			rate := 0.0
			if visible {
				result := EvaluateLinkBudget(p.band, geom.RangeKm, geom.ElevationDeg, p.weatherEnabled)
				rate = result.RateMbps
			}

			if ev, ok := p.advance(key, sat.ID, gs.ID, false, now, rate, geom.ElevationDeg); ok {
				events = append(events, ev)
			}
			if rate > 0 {
				contacts = append(contacts, Contact{
					EndpointA:    sat.ID,
					EndpointB:    gs.ID,
					RateMbps:     rate,
					ElevationDeg: geom.ElevationDeg,
					RangeKm:      geom.RangeKm,
				})
			}
		}
	}

	for i := 0; i < len(satellites); i++ {
		for j := i + 1; j < len(satellites); j++ {
			a, b := satellites[i], satellites[j]
			key := pairKey(a.ID, b.ID)
			seenPairs[key] = true

			rangeKm := Range(a.ECI, b.ECI)
			rate := 0.0
			if rangeKm < p.islThresholdKm {
				rate = p.islModel.Rate(rangeKm)
			}

			if ev, ok := p.advance(key, a.ID, b.ID, true, now, rate, 0); ok {
				events = append(events, ev)
			}
			if rate > 0 {
				contacts = append(contacts, Contact{
					EndpointA: a.ID,
					EndpointB: b.ID,
					RateMbps:  rate,
					RangeKm:   rangeKm,
					IsISL:     true,
				})
			}
		}
	}

	// Pairs no longer evaluated this tick (e.g. a satellite removed) close
	// out any window still open against them.
	for key, w := range p.open {
		if seenPairs[key] {
			continue
		}
		closed := *w
		closed.CloseTime = now
		delete(p.open, key)
		events = append(events, Event{Kind: EventClose, Window: closed})
	}

	return contacts, events
}

// advance applies the closed->open->closed state machine for one pair given
// this tick's rate. Exactly one window may be open per pair at a time.
func (p *Predictor) advance(key, a, b string, isISL bool, now time.Time, rate, elevationDeg float64) (Event, bool) {
	w, wasOpen := p.open[key]

	switch {
	case rate > 0 && !wasOpen:
		p.seq++
		p.open[key] = &Window{
			ID:            fmt.Sprintf("contact-%d", p.seq),
			EndpointA:     a,
			EndpointB:     b,
			OpenTime:      now,
			PeakElevation: elevationDeg,
			PeakRateMbps:  rate,
			IsISL:         isISL,
		}
		return Event{Kind: EventOpen, Window: *p.open[key]}, true

	case rate > 0 && wasOpen:
		if elevationDeg > w.PeakElevation {
			w.PeakElevation = elevationDeg
		}
		if rate > w.PeakRateMbps {
			w.PeakRateMbps = rate
		}
		return Event{}, false

	case rate <= 0 && wasOpen:
		closed := *w
		closed.CloseTime = now
		delete(p.open, key)
		return Event{Kind: EventClose, Window: closed}, true

	default:
		return Event{}, false
	}
}
