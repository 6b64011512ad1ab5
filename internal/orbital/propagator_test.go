package orbital_test

import (
	"math"
	"testing"
	"time"

	"github.com/aurorasat/dtnsim/internal/orbital"
)

func mustElements(t *testing.T, a, e, inc, raan, argp, ma float64, epoch time.Time) orbital.Elements {
	t.Helper()
	el, err := orbital.NewElements(a, e, inc, raan, argp, ma, epoch)
	if err != nil {
		t.Fatalf("NewElements: %v", err)
	}
	return el
}

func TestCircularOrbitRadiusIsConstant(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	el := mustElements(t, 6921, 0, 53, 10, 0, 0, epoch)

	period := el.Period()
	samples := 40
	var minR, maxR float64 = math.MaxFloat64, 0

	for i := 0; i <= samples; i++ {
		frac := float64(i) / float64(samples)
		at := epoch.Add(time.Duration(frac * float64(period)))
		state, err := orbital.Propagate(el, at)
		if err != nil {
			t.Fatalf("Propagate: %v", err)
		}
		r := state.ECI.Magnitude()
		if r < minR {
			minR = r
		}
		if r > maxR {
			maxR = r
		}
	}

	tolerance := 1e-6 * el.SemiMajorAxisKm
	if maxR-minR > tolerance {
		t.Errorf("radius varied by %.3e km over one period, want <= %.3e km (tolerance 1e-6*a)", maxR-minR, tolerance)
	}
}

func TestEccentricOrbitConverges(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	eccentricities := []float64{0, 0.1, 0.3, 0.5, 0.7, 0.9}
	meanAnomalies := []float64{0, 30, 60, 90, 120, 179, 181, 270, 350}

	for _, e := range eccentricities {
		for _, ma := range meanAnomalies {
			el := mustElements(t, 7000, e, 45, 0, 0, ma, epoch)
			if _, err := orbital.Propagate(el, epoch.Add(time.Minute)); err != nil {
				t.Errorf("e=%.2f M=%.1f: propagate failed: %v", e, ma, err)
			}
		}
	}
}

func TestGeodeticRoundTrip(t *testing.T) {
	cases := []struct {
		lat, lon, alt float64
	}{
		{34.05, -118.24, 0.1},
		{35.68, 139.65, 0.04},
		{0, 0, 0.5},
		{-89, 179.9, 10},
		{51.5, -0.12, 0.02},
	}

	for _, c := range cases {
		ecef := orbital.GeodeticToECEF(c.lat, c.lon, c.alt)
		lat, lon, alt := orbital.ECEFToGeodetic(ecef)

		if math.Abs(lat-c.lat) > 1e-9 {
			t.Errorf("lat round trip: got %.12f want %.12f", lat, c.lat)
		}
		if math.Abs(lon-c.lon) > 1e-9 {
			t.Errorf("lon round trip: got %.12f want %.12f", lon, c.lon)
		}
		if math.Abs(alt-c.alt) > 1e-6 {
			t.Errorf("alt round trip: got %.9f want %.9f", alt, c.alt)
		}
	}
}

func TestKeplerSolverConvergesQuickly(t *testing.T) {
	for e := 0.0; e <= 0.9; e += 0.05 {
		for mDeg := 0.0; mDeg < 360; mDeg += 5 {
			m := mDeg * math.Pi / 180
			_, iterations, err := orbital.SolveKepler(m, e)
			if err != nil {
				t.Fatalf("e=%.2f M=%.1f: %v", e, mDeg, err)
			}
			if iterations > 20 {
				t.Errorf("e=%.2f M=%.1f: took %d iterations, want <= 20", e, mDeg, iterations)
			}
		}
	}
}

func TestInvalidElementsRejected(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := orbital.NewElements(6378.137+50, 0, 0, 0, 0, 0, epoch); err == nil {
		t.Error("altitude below 100km floor should be rejected")
	}
	if _, err := orbital.NewElements(7000, 1.0, 0, 0, 0, 0, epoch); err == nil {
		t.Error("eccentricity >= 1 should be rejected")
	}
	if _, err := orbital.NewElements(7000, -0.1, 0, 0, 0, 0, epoch); err == nil {
		t.Error("negative eccentricity should be rejected")
	}
	if _, err := orbital.NewElements(7000, 0, 200, 0, 0, 0, epoch); err == nil {
		t.Error("inclination above 180 should be rejected")
	}
}

func TestAnglesNormalized(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	el := mustElements(t, 7000, 0, 10, -30, 400, -10, epoch)

	if el.RAANDeg < 0 || el.RAANDeg >= 360 {
		t.Errorf("RAAN not normalized: %v", el.RAANDeg)
	}
	if el.ArgPerigeeDeg < 0 || el.ArgPerigeeDeg >= 360 {
		t.Errorf("arg perigee not normalized: %v", el.ArgPerigeeDeg)
	}
	if el.MeanAnomalyDeg < 0 || el.MeanAnomalyDeg >= 360 {
		t.Errorf("mean anomaly not normalized: %v", el.MeanAnomalyDeg)
	}
}
