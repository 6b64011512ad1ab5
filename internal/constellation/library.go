package constellation

import (
	"fmt"
	"time"

	"github.com/aurorasat/dtnsim/internal/apierr"
	"github.com/aurorasat/dtnsim/internal/engine"
	"github.com/aurorasat/dtnsim/internal/orbital"
)

// Parameters describes a Walker-star shell: orbital_planes planes, each
// carrying sats_per_plane satellites, RAAN spread evenly across the planes
// and mean anomaly spread evenly within a plane with a phasing offset
// between adjacent planes. Grounded in the reference implementation's
// ConstellationParameters/generate_walker_constellation design.
type Parameters struct {
	TotalSatellites int
	OrbitalPlanes   int
	AltitudeKm      float64
	InclinationDeg  float64
	Eccentricity    float64
	ArgPerigeeDeg   float64
	PhaseOffsetDeg  float64 // F in Walker-star notation: inter-plane phasing
}

// satsPerPlane returns TotalSatellites split evenly across OrbitalPlanes.
func (p Parameters) satsPerPlane() (int, error) {
	if p.OrbitalPlanes <= 0 {
		return 0, apierr.InvalidInput("orbital_planes must be positive, got %d", p.OrbitalPlanes)
	}
	if p.TotalSatellites%p.OrbitalPlanes != 0 {
		return 0, apierr.InvalidInput("total_satellites (%d) must divide evenly by orbital_planes (%d)", p.TotalSatellites, p.OrbitalPlanes)
	}
	return p.TotalSatellites / p.OrbitalPlanes, nil
}

// GenerateWalkerStar builds a Walker-star shell of satellites at the given
// epoch, named "<prefix>-<plane>-<slot>".
func GenerateWalkerStar(prefix string, p Parameters, epoch time.Time) ([]engine.SatelliteSpec, error) {
	perPlane, err := p.satsPerPlane()
	if err != nil {
		return nil, err
	}

	a := orbital.EarthRadiusKm + p.AltitudeKm
	raanStep := 360.0 / float64(p.OrbitalPlanes)
	anomalyStep := 360.0 / float64(perPlane)

	specs := make([]engine.SatelliteSpec, 0, p.TotalSatellites)
	for plane := 0; plane < p.OrbitalPlanes; plane++ {
		raan := float64(plane) * raanStep
		phaseOffset := float64(plane) * p.PhaseOffsetDeg
		for slot := 0; slot < perPlane; slot++ {
			meanAnomaly := float64(slot)*anomalyStep + phaseOffset
			el, err := orbital.NewElements(a, p.Eccentricity, p.InclinationDeg, raan, p.ArgPerigeeDeg, meanAnomaly, epoch)
			if err != nil {
				return nil, fmt.Errorf("plane %d slot %d: %w", plane, slot, err)
			}
			specs = append(specs, engine.SatelliteSpec{
				ID:       fmt.Sprintf("%s-%d-%d", prefix, plane, slot),
				Elements: el,
			})
		}
	}
	return specs, nil
}

// Library holds the built-in constellation presets named in §6, each a
// Walker-star shell with the reference implementation's defaults.
var Library = map[string]Parameters{
	"starlink": {
		TotalSatellites: 60,
		OrbitalPlanes:   6,
		AltitudeKm:      550,
		InclinationDeg:  53.0,
		PhaseOffsetDeg:  360.0 / 60.0 / 2, // inter-plane phasing of half of 360°/total_satellites
	},
	"kuiper": {
		TotalSatellites: 48,
		OrbitalPlanes:   8,
		AltitudeKm:      630,
		InclinationDeg:  51.9,
		PhaseOffsetDeg:  360.0 / 48.0 / 2,
	},
	"gps": {
		TotalSatellites: 24,
		OrbitalPlanes:   6,
		AltitudeKm:      20200,
		InclinationDeg:  55.0,
		PhaseOffsetDeg:  360.0 / 24.0 / 2,
	},
}

// Build generates the named built-in constellation at the given epoch.
func Build(name string, epoch time.Time) ([]engine.SatelliteSpec, error) {
	params, ok := Library[name]
	if !ok {
		return nil, apierr.InvalidInput("unknown built-in constellation %q", name)
	}
	return GenerateWalkerStar(name, params, epoch)
}
