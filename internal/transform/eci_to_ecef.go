package transform

import (
	"math"
	"time"
)

// ToECEF rotates an ECI position into ECEF using a precomputed Greenwich
// sidereal time (radians). Useful when several positions share one instant.
//
//	r_ECEF = R3(θ) · r_ECI
//
// The z component is unchanged.
func (v ECI) ToECEF(gst float64) ECEF {
	cosG := math.Cos(gst)
	sinG := math.Sin(gst)

	return ECEF{
		X: v.X*cosG + v.Y*sinG,
		Y: -v.X*sinG + v.Y*cosG,
		Z: v.Z,
	}
}

// ECIToECEF rotates an ECI position into ECEF at the given UTC instant.
func ECIToECEF(v ECI, t time.Time) ECEF {
	return v.ToECEF(GST(t))
}
