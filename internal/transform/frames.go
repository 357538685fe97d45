// Package transform provides the time system and coordinate frame conversions
// used to place a satellite relative to the Earth and to a ground observer.
//
// Frames:
//
//	ECI       Earth-Centered Inertial, the native output frame of SGP4
//	ECEF      Earth-Centered Earth-Fixed, rotates with the Earth
//	Geodetic  latitude/longitude/altitude on the WGS-84 ellipsoid
//
// ECI → ECEF is a rotation about the polar axis by Greenwich sidereal time only
// (no nutation or polar motion). All lengths are kilometers and all angles are
// radians; unit presentation happens at the API boundary.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// WGS-84 ellipsoid parameters.
const (
	A  = 6378.137            // semi-major axis (km)
	F  = 1.0 / 298.257223563 // flattening
	E2 = F * (2 - F)         // first eccentricity squared
)

const (
	// MaxGeodeticIterations bounds the ECEF → Geodetic latitude iteration.
	// Physically valid inputs converge in a handful of steps.
	MaxGeodeticIterations = 50

	// geodeticTolerance is the absolute latitude change (radians) at which the
	// iteration is considered converged.
	geodeticTolerance = 1e-12
)

// ErrGeodeticNotConverged is returned when the latitude iteration does not
// settle within MaxGeodeticIterations. It indicates malformed coordinates.
var ErrGeodeticNotConverged = errors.New("geodetic latitude iteration did not converge")

// ECI is a position in the Earth-Centered Inertial frame (km).
type ECI r3.Vec

// ECEF is a position in the Earth-Centered Earth-Fixed frame (km).
type ECEF r3.Vec

// Geodetic is a position relative to the WGS-84 ellipsoid.
type Geodetic struct {
	Lat float64 // radians, positive north
	Lon float64 // radians, positive east
	Alt float64 // km above the ellipsoid
}

// Sub returns the vector from q to p, both in ECEF.
func (p ECEF) Sub(q ECEF) ECEF {
	return ECEF(r3.Sub(r3.Vec(p), r3.Vec(q)))
}

// Norm returns the distance from the Earth's center (km).
func (p ECEF) Norm() float64 {
	return r3.Norm(r3.Vec(p))
}

// Norm returns the distance from the Earth's center (km).
func (v ECI) Norm() float64 {
	return r3.Norm(r3.Vec(v))
}

// IsFinite reports whether no component is NaN or ±Inf.
func (v ECI) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// primeVerticalRadius is the ellipsoid radius of curvature N at the given
// geodetic latitude sine.
func primeVerticalRadius(sinLat float64) float64 {
	return A / math.Sqrt(1-E2*sinLat*sinLat)
}

// GeodeticToECEF converts a geodetic position to ECEF in closed form.
func GeodeticToECEF(g Geodetic) ECEF {
	sinLat := math.Sin(g.Lat)
	cosLat := math.Cos(g.Lat)
	sinLon := math.Sin(g.Lon)
	cosLon := math.Cos(g.Lon)

	n := primeVerticalRadius(sinLat)

	return ECEF{
		X: (n + g.Alt) * cosLat * cosLon,
		Y: (n + g.Alt) * cosLat * sinLon,
		Z: (n*(1-E2) + g.Alt) * sinLat,
	}
}

// ECEFToGeodetic converts an ECEF position to geodetic coordinates.
//
// Latitude has no closed form; it is refined from the Bowring starting value
// lat₀ = atan2(z, r(1−E2)) with lat' = atan2(z + E2·N·sin(lat), r) until
// |lat' − lat| < 1e-12. Non-finite input, or a non-finite result, yields
// ErrGeodeticNotConverged.
func ECEFToGeodetic(p ECEF) (Geodetic, error) {
	if !ECI(p).IsFinite() {
		return Geodetic{}, fmt.Errorf("%w: non-finite ecef=(%g, %g, %g) km",
			ErrGeodeticNotConverged, p.X, p.Y, p.Z)
	}

	lon := math.Atan2(p.Y, p.X)
	r := math.Hypot(p.X, p.Y)

	lat := math.Atan2(p.Z, r*(1-E2))

	converged := false
	for i := 0; i < MaxGeodeticIterations; i++ {
		sinLat := math.Sin(lat)
		n := primeVerticalRadius(sinLat)
		next := math.Atan2(p.Z+E2*n*sinLat, r)
		delta := math.Abs(next - lat)
		lat = next
		if delta < geodeticTolerance {
			converged = true
			break
		}
	}
	if !converged {
		return Geodetic{}, fmt.Errorf("%w: ecef=(%g, %g, %g) km after %d iterations",
			ErrGeodeticNotConverged, p.X, p.Y, p.Z, MaxGeodeticIterations)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	n := primeVerticalRadius(sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = r/cosLat - n
	} else {
		alt = math.Abs(p.Z)/math.Abs(sinLat) - n*(1-E2)
	}
	if math.IsNaN(alt) || math.IsInf(alt, 0) {
		return Geodetic{}, fmt.Errorf("%w: ecef=(%g, %g, %g) km gave altitude %g",
			ErrGeodeticNotConverged, p.X, p.Y, p.Z, alt)
	}

	return Geodetic{Lat: lat, Lon: lon, Alt: alt}, nil
}
