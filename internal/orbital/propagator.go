package orbital

import (
	"math"
	"time"

	"github.com/aurorasat/dtnsim/internal/apierr"
)

// WGS-84 ellipsoid constants used by the ECEF->geodetic iterative solver.
const (
	wgs84A  = 6378.137
	wgs84E2 = 6.69437999014e-3
)

const (
	keplerTolerance      = 1e-12
	keplerMaxIterations  = 100
	keplerWarnIterations = 20
)

// State is the derived orbital state of a satellite at a single instant. It
// is never stored long-term; callers derive it fresh from Elements each tick.
type State struct {
	Time     time.Time
	ECI      Vector3
	ECIVel   Vector3
	ECEF     Vector3
	LatDeg   float64
	LonDeg   float64
	AltKm    float64
	Eclipsed bool
}

// Propagate is a pure function mapping (elements, t) to an orbital state via
// two-body Keplerian propagation. It never mutates elements and holds no
// state of its own.
func Propagate(el Elements, t time.Time) (State, error) {
	if err := el.Validate(); err != nil {
		return State{}, err
	}

	a := el.SemiMajorAxisKm
	e := el.Eccentricity
	i := el.InclinationDeg * math.Pi / 180
	raan0 := el.RAANDeg * math.Pi / 180
	argp := el.ArgPerigeeDeg * math.Pi / 180
	m0 := el.MeanAnomalyDeg * math.Pi / 180

	dt := t.Sub(el.Epoch).Seconds()
	n := math.Sqrt(MuEarth / (a * a * a))

	m := math.Mod(m0+n*dt, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}

	eccAnomaly, _, err := SolveKepler(m, e)
	if err != nil {
		return State{}, apierr.Fatal(err, "kepler solver did not converge for M=%.9f e=%.9f", m, e)
	}

	cosE, sinE := math.Cos(eccAnomaly), math.Sin(eccAnomaly)
	sqrt1me2 := math.Sqrt(1 - e*e)
	trueAnomaly := math.Atan2(sqrt1me2*sinE, cosE-e)

	r := a * (1 - e*cosE)

	// Perifocal position and velocity (vis-viva closed form).
	xPF := r * math.Cos(trueAnomaly)
	yPF := r * math.Sin(trueAnomaly)

	p := a * (1 - e*e)
	h := math.Sqrt(MuEarth * p)
	vxPF := -(MuEarth / h) * math.Sin(trueAnomaly)
	vyPF := (MuEarth / h) * (e + math.Cos(trueAnomaly))

	eci := perifocalToECI(xPF, yPF, raan0, i, argp)
	eciVel := perifocalToECI(vxPF, vyPF, raan0, i, argp)

	gmst := gmstRadians(t)
	ecef := eciToECEF(eci, gmst)

	lat, lon, alt := ecefToGeodetic(ecef)

	return State{
		Time:     t,
		ECI:      eci,
		ECIVel:   eciVel,
		ECEF:     ecef,
		LatDeg:   lat,
		LonDeg:   lon,
		AltKm:    alt,
		Eclipsed: inEclipse(eci, t),
	}, nil
}

// SolveKepler solves E - e*sin(E) = M by Newton-Raphson to a tolerance of
// 1e-12, at most 100 iterations. Convergence within 20 iterations is
// expected for every valid e in [0, 1); the iteration count is returned so
// callers can assert on it in tests.
func SolveKepler(m, e float64) (float64, int, error) {
	E := m
	if e > 0.8 {
		E = math.Pi
	}
	for iter := 1; iter <= keplerMaxIterations; iter++ {
		f := E - e*math.Sin(E) - m
		fPrime := 1 - e*math.Cos(E)
		delta := f / fPrime
		E -= delta
		if math.Abs(delta) < keplerTolerance {
			return E, iter, nil
		}
	}
	return 0, keplerMaxIterations, errNonConvergent
}

var errNonConvergent = errKepler("kepler equation failed to converge within the iteration budget")

type errKepler string

func (e errKepler) Error() string { return string(e) }

// perifocalToECI applies the standard R3(-Ω)·R1(-i)·R3(-ω) rotation.
func perifocalToECI(xPF, yPF, raan, inc, argp float64) Vector3 {
	cosO, sinO := math.Cos(raan), math.Sin(raan)
	cosI, sinI := math.Cos(inc), math.Sin(inc)
	cosW, sinW := math.Cos(argp), math.Sin(argp)

	// Rotate perifocal (xPF, yPF, 0) by argument of perigee in-plane, then
	// inclination, then RAAN, combined into a single direction-cosine matrix.
	r11 := cosO*cosW - sinO*sinW*cosI
	r12 := -cosO*sinW - sinO*cosW*cosI
	r21 := sinO*cosW + cosO*sinW*cosI
	r22 := -sinO*sinW + cosO*cosW*cosI
	r31 := sinW * sinI
	r32 := cosW * sinI

	return Vector3{
		X: r11*xPF + r12*yPF,
		Y: r21*xPF + r22*yPF,
		Z: r31*xPF + r32*yPF,
	}
}

// eciToECEF rotates an ECI vector into ECEF using GMST at the query time.
func eciToECEF(eci Vector3, gmst float64) Vector3 {
	cosG, sinG := math.Cos(gmst), math.Sin(gmst)
	return Vector3{
		X: eci.X*cosG + eci.Y*sinG,
		Y: -eci.X*sinG + eci.Y*cosG,
		Z: eci.Z,
	}
}

// ecefToGeodetic solves the ECEF->geodetic transform on the WGS-84 ellipsoid
// with the standard iterative latitude solution; 5 iterations are sufficient
// per the propagator's precision requirement.
func ecefToGeodetic(ecef Vector3) (latDeg, lonDeg, altKm float64) {
	x, y, z := ecef.X, ecef.Y, ecef.Z
	lon := math.Atan2(y, x)

	p := math.Sqrt(x*x + y*y)
	lat := math.Atan2(z, p*(1-wgs84E2))

	var n float64
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n = wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(z+n*wgs84E2*sinLat, p)
	}

	sinLat := math.Sin(lat)
	n = wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
	alt := p/math.Cos(lat) - n

	return lat * 180 / math.Pi, lon * 180 / math.Pi, alt
}

// ECEFToGeodetic converts an ECEF position to geodetic lat/lon/alt on the
// WGS-84 ellipsoid.
func ECEFToGeodetic(ecef Vector3) (latDeg, lonDeg, altKm float64) {
	return ecefToGeodetic(ecef)
}

// GeodeticToECEF converts a geodetic position to ECEF, for ground stations
// whose position is specified once and never re-derived.
func GeodeticToECEF(latDeg, lonDeg, altKm float64) Vector3 {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)

	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return Vector3{
		X: (n + altKm) * cosLat * cosLon,
		Y: (n + altKm) * cosLat * sinLon,
		Z: (n*(1-wgs84E2) + altKm) * sinLat,
	}
}

// gmstRadians computes the Greenwich Mean Sidereal Time at t in radians,
// referenced to J2000.0.
func gmstRadians(t time.Time) float64 {
	jd := julianDate(t)
	tCenturies := (jd - 2451545.0) / 36525.0

	gmstSeconds := 67310.54841 +
		(876600*3600+8640184.812866)*tCenturies +
		0.093104*tCenturies*tCenturies -
		6.2e-6*tCenturies*tCenturies*tCenturies

	gmst := math.Mod(gmstSeconds*2*math.Pi/86400, 2*math.Pi)
	if gmst < 0 {
		gmst += 2 * math.Pi
	}
	return gmst
}

func julianDate(t time.Time) float64 {
	utc := t.UTC()
	y := float64(utc.Year())
	mo := float64(utc.Month())
	d := float64(utc.Day())
	h := float64(utc.Hour()) + float64(utc.Minute())/60 + float64(utc.Second())/3600 + float64(utc.Nanosecond())/3.6e12

	if mo <= 2 {
		y--
		mo += 12
	}
	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	return math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(mo+1)) + d + h/24 + B - 1524.5
}

// inEclipse approximates the solar direction as a unit vector parameterized
// by day-of-year and applies a conservative cylindrical shadow test: the
// satellite is eclipsed when it lies on the anti-sun side of Earth and its
// perpendicular distance from the sun-Earth line is within Earth's radius.
func inEclipse(eci Vector3, t time.Time) bool {
	dayOfYear := float64(t.UTC().YearDay())
	sunAngle := 2 * math.Pi * dayOfYear / 365.25
	sunDir := Vector3{X: math.Cos(sunAngle), Y: math.Sin(sunAngle), Z: 0}

	alongSun := eci.Dot(sunDir)
	if alongSun >= 0 {
		return false
	}
	perp := eci.Sub(sunDir.Scale(alongSun))
	return perp.Magnitude() < EarthRadiusKm
}
