package transform

import "math"

// SEZ is a vector in an observer's topocentric South-East-Zenith frame (km).
type SEZ struct {
	S, E, Z float64
}

// ToSEZ rotates an ECEF range vector rho (satellite minus observer) into the
// SEZ frame of an observer at the given geodetic latitude/longitude.
// Vallado Section 4.4.
func ToSEZ(observer Geodetic, rho ECEF) SEZ {
	sinLat := math.Sin(observer.Lat)
	cosLat := math.Cos(observer.Lat)
	sinLon := math.Sin(observer.Lon)
	cosLon := math.Cos(observer.Lon)

	return SEZ{
		S: -sinLat*cosLon*rho.X - sinLat*sinLon*rho.Y + cosLat*rho.Z,
		E: -sinLon*rho.X + cosLon*rho.Y,
		Z: cosLat*cosLon*rho.X + cosLat*sinLon*rho.Y + sinLat*rho.Z,
	}
}

// Range returns the slant range |ρ| in km. A zero range (observer and
// satellite coincide) is replaced by the smallest positive float64 so that it
// can always be used as a divisor.
func (v SEZ) Range() float64 {
	r := math.Sqrt(v.S*v.S + v.E*v.E + v.Z*v.Z)
	if r == 0 {
		return math.SmallestNonzeroFloat64
	}
	return r
}

// Azimuth returns atan2(E, S) wrapped into [0, 2π).
func (v SEZ) Azimuth() float64 {
	return NormalizeAngle(math.Atan2(v.E, v.S))
}

// Elevation returns asin(Z / rng) for a range obtained from Range.
// The ratio is clamped to [-1, 1] to absorb rounding.
func (v SEZ) Elevation(rng float64) float64 {
	ratio := v.Z / rng
	if ratio > 1 {
		ratio = 1
	} else if ratio < -1 {
		ratio = -1
	}
	return math.Asin(ratio)
}
