package transform

import (
	"math"
	"time"
)

const (
	// j2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
	j2000 = 2451545.0

	daysPerCentury = 36525.0

	// Calendar terms of the Gregorian Julian Date algorithm.
	julianYearOffset = 4716.0
	daysPerYear      = 365.25
	daysPerMonth     = 30.6001
	julianDayOffset  = 1524.5
)

// IAU-82 GMST polynomial coefficients, in seconds of time per power of T.
const (
	gmstC0 = 67310.54841
	gmstC1 = 876600.0*3600.0 + 8640184.812866
	gmstC2 = 0.093104
	gmstC3 = -6.2e-6

	// secondsPerDegree converts sidereal seconds of time to degrees of arc.
	secondsPerDegree = 240.0
)

const twoPi = 2 * math.Pi

// JulianDate converts a time.Time to a Julian Date. The instant is read in UTC
// and its sub-second part contributes to the day fraction.
func JulianDate(t time.Time) float64 {
	t = t.UTC()

	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())
	h := float64(t.Hour())
	min := float64(t.Minute())
	s := float64(t.Second()) + float64(t.Nanosecond())/1e9

	// Jan/Feb are months 13/14 of the previous year.
	if m <= 2 {
		y -= 1
		m += 12
	}

	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	jd := math.Floor(daysPerYear*(y+julianYearOffset)) + math.Floor(daysPerMonth*(m+1)) + d + b - julianDayOffset
	jd += (h + min/60.0 + s/3600.0) / 24.0

	return jd
}

// GST returns the Greenwich sidereal time at t as an angle in [0, 2π).
func GST(t time.Time) float64 {
	return GSTFromJulianDate(JulianDate(t))
}

// GSTFromJulianDate evaluates the GMST polynomial
//
//	θ = 67310.54841 + (876600h + 8640184.812866)·T + 0.093104·T² − 6.2e-6·T³
//
// where T is Julian centuries since J2000.0 and θ is in seconds of time.
// The result is converted to radians and wrapped into [0, 2π).
func GSTFromJulianDate(jd float64) float64 {
	tc := (jd - j2000) / daysPerCentury

	sec := gmstC0 + gmstC1*tc + gmstC2*tc*tc + gmstC3*tc*tc*tc

	deg := sec / secondsPerDegree
	return NormalizeAngle(deg * math.Pi / 180.0)
}

// NormalizeAngle wraps an angle in radians into [0, 2π).
func NormalizeAngle(rad float64) float64 {
	w := math.Mod(rad, twoPi)
	if w < 0 {
		w += twoPi
	}
	// -tiny + 2π rounds up to 2π.
	if w >= twoPi {
		w = 0
	}
	return w
}
