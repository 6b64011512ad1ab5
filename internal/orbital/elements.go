package orbital

import (
	"math"
	"time"

	"github.com/aurorasat/dtnsim/internal/apierr"
)

// EarthRadiusKm is the WGS-84 equatorial radius used throughout this package.
const EarthRadiusKm = 6378.137

// MuEarth is Earth's gravitational parameter in km^3/s^2.
const MuEarth = 398600.4418

// Elements is an immutable two-body Keplerian element set: six scalars plus
// an epoch. Construct with NewElements, which enforces the invariants from
// the data model.
type Elements struct {
	SemiMajorAxisKm float64
	Eccentricity    float64
	InclinationDeg  float64
	RAANDeg         float64
	ArgPerigeeDeg   float64
	MeanAnomalyDeg  float64
	Epoch           time.Time
}

// NewElements validates and normalizes an element set. Angles are normalized
// into [0, 360).
func NewElements(a, e, incDeg, raanDeg, argPerigeeDeg, meanAnomalyDeg float64, epoch time.Time) (Elements, error) {
	el := Elements{
		SemiMajorAxisKm: a,
		Eccentricity:    e,
		InclinationDeg:  normalizeDeg(incDeg),
		RAANDeg:         normalizeDeg(raanDeg),
		ArgPerigeeDeg:   normalizeDeg(argPerigeeDeg),
		MeanAnomalyDeg:  normalizeDeg(meanAnomalyDeg),
		Epoch:           epoch,
	}
	if err := el.Validate(); err != nil {
		return Elements{}, err
	}
	return el, nil
}

// Validate checks the §3 invariants: a > R_earth + 100km, 0 <= e < 1,
// 0 <= i <= 180.
func (el Elements) Validate() error {
	if el.SemiMajorAxisKm <= EarthRadiusKm+100 {
		return apierr.InvalidElements("semi-major axis %.3f km must exceed R_earth + 100km (%.3f km)", el.SemiMajorAxisKm, EarthRadiusKm+100)
	}
	if el.Eccentricity < 0 || el.Eccentricity >= 1 {
		return apierr.InvalidElements("eccentricity %.6f must be in [0, 1)", el.Eccentricity)
	}
	if el.InclinationDeg < 0 || el.InclinationDeg > 180 {
		return apierr.InvalidElements("inclination %.3f must be in [0, 180]", el.InclinationDeg)
	}
	return nil
}

// Period returns the orbital period implied by the semi-major axis.
func (el Elements) Period() time.Duration {
	n := math.Sqrt(MuEarth / (el.SemiMajorAxisKm * el.SemiMajorAxisKm * el.SemiMajorAxisKm))
	seconds := 2 * math.Pi / n
	return time.Duration(seconds * float64(time.Second))
}

func normalizeDeg(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}
