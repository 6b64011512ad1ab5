package contact

import (
	"math"

	"github.com/aurorasat/dtnsim/internal/orbital"
)

// Geometry is the observed elevation, azimuth, and range of one endpoint as
// seen from another's local South-East-Up frame.
type Geometry struct {
	ElevationDeg float64
	AzimuthDeg   float64
	RangeKm      float64
}

// ObserveFromGroundStation computes the elevation/azimuth/range of a
// satellite's ECEF position as seen from a ground station, by rotating the
// range vector into the station's local South-East-Up frame.
func ObserveFromGroundStation(gs *GroundStation, satECEF orbital.Vector3) Geometry {
	d := satECEF.Sub(gs.ecef)

	latRad := gs.LatDeg * math.Pi / 180
	lonRad := gs.LonDeg * math.Pi / 180

	sinLat, cosLat := math.Sin(latRad), math.Cos(latRad)
	sinLon, cosLon := math.Sin(lonRad), math.Cos(lonRad)

	south := sinLat*cosLon*d.X + sinLat*sinLon*d.Y - cosLat*d.Z
	east := -sinLon*d.X + cosLon*d.Y
	up := cosLat*cosLon*d.X + cosLat*sinLon*d.Y + sinLat*d.Z

	elevation := math.Atan2(up, math.Sqrt(south*south+east*east))
	azimuth := math.Atan2(east, south)
	azimuthDeg := azimuth * 180 / math.Pi
	if azimuthDeg < 0 {
		azimuthDeg += 360
	}

	return Geometry{
		ElevationDeg: elevation * 180 / math.Pi,
		AzimuthDeg:   azimuthDeg,
		RangeKm:      d.Magnitude(),
	}
}

// Range returns the Euclidean distance between two ECI (or two ECEF)
// positions; used directly for satellite-to-satellite ISL detection, which
// has no local horizon frame.
func Range(a, b orbital.Vector3) float64 {
	return a.Distance(b)
}
