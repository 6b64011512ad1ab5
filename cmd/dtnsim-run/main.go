// Package main runs a single DTN satellite constellation simulation to
// completion from the command line and prints its final metrics snapshot
// as JSON, without going through the control API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/aurorasat/dtnsim/internal/constellation"
	"github.com/aurorasat/dtnsim/internal/engine"
)

func main() {
	constellationName := flag.String("constellation", "gps", "built-in constellation name (starlink, kuiper, gps) or a path to a satellite CSV file")
	groundStationsCSV := flag.String("ground-stations", "", "path to a ground station CSV file (required)")
	source := flag.String("source", "", "source ground station id (required)")
	dest := flag.String("dest", "", "destination ground station id (required)")
	algorithm := flag.String("algorithm", "epidemic", "routing algorithm: epidemic, prophet, spray_and_wait")
	durationHours := flag.Float64("duration-hours", 3, "simulation duration in virtual hours")
	bundleRate := flag.Float64("bundle-rate", 0, "bundles generated per virtual second at the source")
	bufferBytes := flag.Int64("buffer-bytes", 50<<20, "per-satellite buffer capacity in bytes")
	rfBand := flag.String("rf-band", "ka-band", "RF band preset")
	weatherEnabled := flag.Bool("weather", true, "enable the rain-fade term of the link budget")
	sprayCopies := flag.Int("spray-copies", 6, "initial copy count for spray_and_wait")
	seed := flag.Uint64("seed", 1, "deterministic RNG seed")
	flag.Parse()

	if *groundStationsCSV == "" || *source == "" || *dest == "" {
		flag.Usage()
		os.Exit(1)
	}

	epoch := time.Now().UTC()

	sats, err := loadConstellation(*constellationName, epoch)
	if err != nil {
		log.Fatalf("loading constellation: %v", err)
	}

	gsFile, err := os.Open(*groundStationsCSV)
	if err != nil {
		log.Fatalf("opening ground station CSV: %v", err)
	}
	defer gsFile.Close()
	groundStations, err := constellation.LoadGroundStationsCSV(gsFile)
	if err != nil {
		log.Fatalf("loading ground stations: %v", err)
	}

	cfg := engine.Config{
		ConstellationID:    *constellationName,
		Satellites:         sats,
		GroundStations:     groundStations,
		SourceStation:      *source,
		DestStation:        *dest,
		RoutingAlgorithm:   engine.Algorithm(*algorithm),
		DurationHours:      *durationHours,
		BundleRate:         *bundleRate,
		BufferBytes:        *bufferBytes,
		RFBand:             *rfBand,
		WeatherEnabled:     *weatherEnabled,
		Epoch:              epoch,
		Seed:               *seed,
		SprayInitialCopies: *sprayCopies,
	}

	sim, err := engine.New("dtnsim-run", cfg)
	if err != nil {
		log.Fatalf("constructing simulation: %v", err)
	}

	log.Printf("running %d satellites, %s routing, %.1fh virtual duration", len(sats), *algorithm, *durationHours)

	ctx := context.Background()
	if err := sim.Start(ctx); err != nil {
		log.Fatalf("starting simulation: %v", err)
	}

	for {
		state := sim.State()
		if state == engine.StateCompleted || state == engine.StateStopped || state == engine.StateError {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	snap := sim.Snapshot()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		log.Fatalf("encoding snapshot: %v", err)
	}
}

// loadConstellation resolves name against the built-in library first, then
// falls back to treating it as a satellite CSV path.
func loadConstellation(name string, epoch time.Time) ([]engine.SatelliteSpec, error) {
	if _, ok := constellation.Library[name]; ok {
		return constellation.Build(name, epoch)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return constellation.LoadSatellitesCSV(f, epoch)
}
