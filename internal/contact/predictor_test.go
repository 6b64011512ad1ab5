package contact_test

import (
	"testing"
	"time"

	"github.com/aurorasat/dtnsim/internal/contact"
	"github.com/aurorasat/dtnsim/internal/orbital"
)

func TestKaBandRateWithinSpecRange(t *testing.T) {
	band, err := contact.BandByName("ka-band")
	if err != nil {
		t.Fatalf("BandByName: %v", err)
	}

	result := contact.EvaluateLinkBudget(band, 500, 30, true)
	if result.RateMbps < 500 || result.RateMbps > 2000 {
		t.Errorf("ka-band rate at 500km/30deg = %.2f Mbps, want within [500, 2000]", result.RateMbps)
	}
}

func TestLinkBudgetZeroRateBelowThreshold(t *testing.T) {
	band, err := contact.BandByName("l-band")
	if err != nil {
		t.Fatalf("BandByName: %v", err)
	}
	// Extreme range collapses SNR well below the required threshold.
	result := contact.EvaluateLinkBudget(band, 500000, 5, true)
	if result.RateMbps != 0 {
		t.Errorf("expected zero rate at extreme range, got %.4f", result.RateMbps)
	}
}

func TestRangeMatchesVectorMagnitude(t *testing.T) {
	gs, err := contact.NewGroundStation("gs1", "Test Station", 34.05, -118.24, 0.1, 10, 3000, 30)
	if err != nil {
		t.Fatalf("NewGroundStation: %v", err)
	}

	satECEF := orbital.Vector3{X: gs.ECEF().X + 300, Y: gs.ECEF().Y + 400, Z: gs.ECEF().Z}
	geom := contact.ObserveFromGroundStation(gs, satECEF)

	want := satECEF.Distance(gs.ECEF())
	if diff := geom.RangeKm - want; diff > 1e-3 || diff < -1e-3 {
		t.Errorf("range %.6f does not match vector magnitude %.6f within 1e-3 km", geom.RangeKm, want)
	}
}

func TestMonotoneVisibilityEmitsOneOpenOneClose(t *testing.T) {
	gs, err := contact.NewGroundStation("gs1", "Destination", 35.68, 139.65, 0.04, 10, 4000, 30)
	if err != nil {
		t.Fatalf("NewGroundStation: %v", err)
	}

	band, err := contact.BandByName("ka-band")
	if err != nil {
		t.Fatalf("BandByName: %v", err)
	}

	// At this epoch GMST is about 359°, so the first descending pass crosses
	// latitude 35.7° near longitude 139.5°, over the station.
	epoch := time.Date(2026, 1, 1, 17, 10, 0, 0, time.UTC)
	el, err := orbital.NewElements(6921, 0, 53, 0, 0, 0, epoch)
	if err != nil {
		t.Fatalf("NewElements: %v", err)
	}

	predictor := contact.NewPredictor(contact.Config{
		Band:           band,
		WeatherEnabled: true,
		GroundStations: []*contact.GroundStation{gs},
	})

	var opens, closes int
	step := 30 * time.Second
	period := el.Period()

	for elapsed := time.Duration(0); elapsed < period+period/10; elapsed += step {
		now := epoch.Add(elapsed)
		state, err := orbital.Propagate(el, now)
		if err != nil {
			t.Fatalf("Propagate: %v", err)
		}
		_, events := predictor.Tick(now, []contact.SatelliteState{{ID: "sat1", ECI: state.ECI, ECEF: state.ECEF}})
		for _, ev := range events {
			switch ev.Kind {
			case contact.EventOpen:
				opens++
			case contact.EventClose:
				closes++
			}
		}
	}

	if opens == 0 {
		t.Fatal("expected at least one contact-open event over one orbital period")
	}
	if opens != closes {
		t.Errorf("expected a matching close for every open (one pass, no straddling the window end), got %d opens and %d closes", opens, closes)
	}
}
