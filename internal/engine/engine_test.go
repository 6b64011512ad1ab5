package engine

import (
	"context"
	"testing"
	"time"

	"github.com/aurorasat/dtnsim/internal/contact"
	"github.com/aurorasat/dtnsim/internal/orbital"
	"github.com/aurorasat/dtnsim/pkg/bundle"
)

func oneSatConfig(t *testing.T, algorithm Algorithm) Config {
	t.Helper()
	// At this epoch the satellite's first descending pass crosses over the
	// destination station.
	epoch := time.Date(2026, 1, 1, 17, 10, 0, 0, time.UTC)

	el, err := orbital.NewElements(6921, 0, 53, 0, 0, 0, epoch)
	if err != nil {
		t.Fatalf("NewElements: %v", err)
	}

	source, err := contact.NewGroundStation("src", "Source", 34.05, -118.24, 0.1, 10, 4000, 30)
	if err != nil {
		t.Fatalf("NewGroundStation source: %v", err)
	}
	dest, err := contact.NewGroundStation("dst", "Destination", 35.68, 139.65, 0.04, 10, 4000, 30)
	if err != nil {
		t.Fatalf("NewGroundStation dest: %v", err)
	}

	return Config{
		ConstellationID:   "single-sat",
		Satellites:        []SatelliteSpec{{ID: "sat1", Elements: el}},
		GroundStations:    []*contact.GroundStation{source, dest},
		SourceStation:     "src",
		DestStation:       "dst",
		RoutingAlgorithm:  algorithm,
		DurationHours:     3,
		BundleRate:        0,
		BufferBytes:       10 << 20,
		RFBand:            "ka-band",
		WeatherEnabled:    true,
		Epoch:             epoch,
		DeltaT:            30 * time.Second,
		Seed:              42,
		SprayInitialCopies: 4,
	}
}

// TestSinglePassEpidemicDeliversBundle realizes §8 scenario 1: one
// satellite, Ka-band, Epidemic, a single pre-seeded bundle, and an
// assertion that it is delivered within one orbital period plus 40 ticks.
func TestSinglePassEpidemicDeliversBundle(t *testing.T) {
	cfg := oneSatConfig(t, AlgorithmEpidemic)
	sim, err := New("sim1", cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	b, err := bundle.New(cfg.SourceStation, cfg.DestStation, make([]byte, 1<<20), cfg.Epoch, 3*time.Hour, bundle.PriorityNormal, 1)
	if err != nil {
		t.Fatalf("bundle.New: %v", err)
	}
	if err := sim.satellites["sat1"].buffer.Insert(b, cfg.Epoch); err != nil {
		t.Fatalf("seed bundle: %v", err)
	}
	sim.recordGenerated()

	ctx := context.Background()
	period := cfg.Satellites[0].Elements.Period()
	maxTicks := int(period/cfg.DeltaT) + 40

	delivered := false
	for i := 0; i < maxTicks; i++ {
		if err := sim.tick(ctx); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if len(sim.destBuffer) > 0 {
			delivered = true
			break
		}
	}

	if !delivered {
		t.Fatal("expected the bundle to be delivered within one orbital period plus 40 ticks")
	}
	snap := sim.Snapshot()
	if snap.BundlesDelivered != 1 {
		t.Errorf("expected 1 delivered bundle, got %d", snap.BundlesDelivered)
	}
}

func TestConfigValidateRejectsUnknownGroundStation(t *testing.T) {
	cfg := oneSatConfig(t, AlgorithmEpidemic)
	cfg.DestStation = "does-not-exist"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown destination station")
	}
}

func TestConfigValidateRejectsBadRoutingAlgorithm(t *testing.T) {
	cfg := oneSatConfig(t, "not-a-real-algorithm")
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown routing algorithm")
	}
}

func TestStopIsIdempotentOnTerminalState(t *testing.T) {
	cfg := oneSatConfig(t, AlgorithmEpidemic)
	sim, err := New("sim2", cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sim.Stop(); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	if err := sim.Stop(); err != nil {
		t.Fatalf("second stop should be idempotent: %v", err)
	}
}

func TestPauseRejectedBeforeStart(t *testing.T) {
	cfg := oneSatConfig(t, AlgorithmEpidemic)
	sim, err := New("sim3", cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sim.Pause(); err == nil {
		t.Fatal("expected pause on a created (not running) simulation to fail")
	}
}
