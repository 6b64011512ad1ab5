// Package constellation builds constellations and ground-station sets for
// the simulator: CSV import, and a small built-in library of Walker-star
// generators (§6).
//
// CSV import uses encoding/csv from the standard library. No example in the
// corpus pulls in a third-party CSV library for this kind of fixed-header
// tabular import, and encoding/csv already does exactly what's needed here
// (quoting, variable column counts with FieldsPerRecord=-1); reaching for a
// dependency would add a surface no other package exercises.
package constellation

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aurorasat/dtnsim/internal/apierr"
	"github.com/aurorasat/dtnsim/internal/contact"
	"github.com/aurorasat/dtnsim/internal/engine"
	"github.com/aurorasat/dtnsim/internal/orbital"
)

var satelliteCSVHeader = []string{
	"satellite_id", "name", "altitude_km", "inclination_deg", "raan_deg",
	"eccentricity", "arg_perigee_deg", "mean_anomaly_deg",
}

var groundStationCSVHeader = []string{
	"station_id", "name", "latitude_deg", "longitude_deg",
}

// LoadSatellitesCSV parses a satellite constellation from r. The header must
// be satellite_id,name,altitude_km,inclination_deg,raan_deg,eccentricity,
// arg_perigee_deg,mean_anomaly_deg. Altitude is converted to a semi-major
// axis via a = R_earth + altitude_km. Every row takes the supplied epoch.
func LoadSatellitesCSV(r io.Reader, epoch time.Time) ([]engine.SatelliteSpec, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apierr.InvalidInput("reading satellite CSV header: %v", err)
	}
	if err := requireHeader(header, satelliteCSVHeader); err != nil {
		return nil, err
	}

	var specs []engine.SatelliteSpec
	row := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, apierr.InvalidInput("satellite CSV row %d: %v", row, err)
		}
		if len(rec) != len(satelliteCSVHeader) {
			return nil, apierr.InvalidInput("satellite CSV row %d: expected %d columns, got %d", row, len(satelliteCSVHeader), len(rec))
		}

		altitudeKm, err := parseFloat(rec[2], "altitude_km", row)
		if err != nil {
			return nil, err
		}
		incDeg, err := parseFloat(rec[3], "inclination_deg", row)
		if err != nil {
			return nil, err
		}
		raanDeg, err := parseFloat(rec[4], "raan_deg", row)
		if err != nil {
			return nil, err
		}
		ecc, err := parseFloat(rec[5], "eccentricity", row)
		if err != nil {
			return nil, err
		}
		argPerigeeDeg, err := parseFloat(rec[6], "arg_perigee_deg", row)
		if err != nil {
			return nil, err
		}
		meanAnomalyDeg, err := parseFloat(rec[7], "mean_anomaly_deg", row)
		if err != nil {
			return nil, err
		}

		el, err := orbital.NewElements(orbital.EarthRadiusKm+altitudeKm, ecc, incDeg, raanDeg, argPerigeeDeg, meanAnomalyDeg, epoch)
		if err != nil {
			return nil, fmt.Errorf("satellite CSV row %d (%s): %w", row, rec[0], err)
		}
		specs = append(specs, engine.SatelliteSpec{ID: rec[0], Elements: el})
	}
	if len(specs) == 0 {
		return nil, apierr.InvalidInput("satellite CSV contains no data rows")
	}
	return specs, nil
}

// LoadGroundStationsCSV parses ground stations from r. Required header:
// station_id,name,latitude_deg,longitude_deg. Optional trailing columns:
// altitude_km, elevation_mask_deg, max_range_km; when absent, they default
// to sea level, a 10° mask, and a 4000 km range. Every station gets a 30 dB
// antenna gain.
func LoadGroundStationsCSV(r io.Reader) ([]*contact.GroundStation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, apierr.InvalidInput("reading ground station CSV header: %v", err)
	}
	if len(header) < len(groundStationCSVHeader) {
		return nil, apierr.InvalidInput("ground station CSV header missing required columns %v", groundStationCSVHeader)
	}
	for i, want := range groundStationCSVHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return nil, apierr.InvalidInput("ground station CSV header column %d: expected %q, got %q", i, want, header[i])
		}
	}
	optionalCols := len(header) - len(groundStationCSVHeader)

	var stations []*contact.GroundStation
	row := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, apierr.InvalidInput("ground station CSV row %d: %v", row, err)
		}
		if len(rec) < len(groundStationCSVHeader) {
			return nil, apierr.InvalidInput("ground station CSV row %d: expected at least %d columns, got %d", row, len(groundStationCSVHeader), len(rec))
		}

		latDeg, err := parseFloat(rec[2], "latitude_deg", row)
		if err != nil {
			return nil, err
		}
		lonDeg, err := parseFloat(rec[3], "longitude_deg", row)
		if err != nil {
			return nil, err
		}

		altKm, elevationMaskDeg, maxRangeKm := 0.0, 10.0, 4000.0
		if optionalCols >= 1 && len(rec) > 4 {
			if altKm, err = parseFloat(rec[4], "altitude_km", row); err != nil {
				return nil, err
			}
		}
		if optionalCols >= 2 && len(rec) > 5 {
			if elevationMaskDeg, err = parseFloat(rec[5], "elevation_mask_deg", row); err != nil {
				return nil, err
			}
		}
		if optionalCols >= 3 && len(rec) > 6 {
			if maxRangeKm, err = parseFloat(rec[6], "max_range_km", row); err != nil {
				return nil, err
			}
		}

		gs, err := contact.NewGroundStation(rec[0], rec[1], latDeg, lonDeg, altKm, elevationMaskDeg, maxRangeKm, 30)
		if err != nil {
			return nil, fmt.Errorf("ground station CSV row %d (%s): %w", row, rec[0], err)
		}
		stations = append(stations, gs)
	}
	if len(stations) == 0 {
		return nil, apierr.InvalidInput("ground station CSV contains no data rows")
	}
	return stations, nil
}

func requireHeader(got, want []string) error {
	if len(got) != len(want) {
		return apierr.InvalidInput("CSV header has %d columns, expected %d: %v", len(got), len(want), want)
	}
	for i := range want {
		if !strings.EqualFold(strings.TrimSpace(got[i]), want[i]) {
			return apierr.InvalidInput("CSV header column %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	return nil
}

func parseFloat(s, field string, row int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, apierr.InvalidInput("row %d: column %s: %q is not a number", row, field, s)
	}
	return v, nil
}
