package transform

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/soniakeys/meeus/v3/julian"
	"gonum.org/v1/gonum/floats/scalar"
)

// TestJulianDate verifies the Julian Date calculation against known values.
func TestJulianDate(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected float64
	}{
		{
			name:     "J2000.0 epoch",
			time:     time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
			expected: 2451545.0,
		},
		{
			name:     "Unix epoch",
			time:     time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2440587.5,
		},
		{
			// Vallado Example 3-15: April 6, 2004, 07:51:28.386009 UTC
			name:     "Vallado example date",
			time:     time.Date(2004, 4, 6, 7, 51, 28, 386009000, time.UTC),
			expected: 2453101.827411875,
		},
		{
			name:     "February uses previous year",
			time:     time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			expected: 2460369.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JulianDate(tt.time)
			if !scalar.EqualWithinAbs(got, tt.expected, 1e-6) {
				t.Errorf("JulianDate(%v) = %.10f, want %.10f", tt.time, got, tt.expected)
			}
		})
	}
}

// TestJulianDateMatchesMeeus cross-checks against an independent calendar
// implementation, including sub-second instants and non-UTC locations.
func TestJulianDateMatchesMeeus(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	times := []time.Time{
		time.Date(1957, 10, 4, 19, 28, 34, 0, time.UTC),
		time.Date(2000, 6, 27, 18, 50, 19, 733568000, time.UTC),
		time.Date(2024, 1, 15, 23, 59, 59, 999000000, time.UTC),
		time.Date(2026, 3, 1, 8, 30, 0, 250000000, tokyo),
	}

	for _, tm := range times {
		t.Run(tm.Format(time.RFC3339Nano), func(t *testing.T) {
			got := JulianDate(tm)
			ref := julian.TimeToJD(tm)
			// 1e-8 days is under a millisecond.
			if !scalar.EqualWithinAbs(got, ref, 1e-8) {
				t.Errorf("JulianDate = %.10f, meeus = %.10f", got, ref)
			}
		})
	}
}

// TestGST validates against go-satellite's GSTimeFromDate, which implements
// the same IAU-82 polynomial.
func TestGST(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
	}{
		{
			name: "J2000.0 epoch",
			time: time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "Vallado example date",
			time: time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC), // integer seconds for library compat
		},
		{
			name: "recent date 2026",
			time: time.Date(2026, 2, 6, 4, 1, 0, 0, time.UTC),
		},
		{
			name: "before J2000",
			time: time.Date(1985, 7, 12, 21, 14, 9, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GST(tt.time)
			ref := satellite.GSTimeFromDate(
				tt.time.Year(), int(tt.time.Month()), tt.time.Day(),
				tt.time.Hour(), tt.time.Minute(), tt.time.Second(),
			)

			// 1e-8 rad is about 0.002 arcsec.
			if !scalar.EqualWithinAbs(got, ref, 1e-8) {
				t.Errorf("GST(%v) = %.12f rad, go-satellite = %.12f rad", tt.time, got, ref)
			}
			if got < 0 || got >= 2*math.Pi {
				t.Errorf("GST(%v) = %v outside [0, 2π)", tt.time, got)
			}
		})
	}
}

// TestGSTSiderealRate checks that GST advances at the sidereal rate and that
// sub-second parts of the instant are not dropped.
func TestGSTSiderealRate(t *testing.T) {
	// rad/s implied by the linear GMST coefficient.
	rate := 2 * math.Pi / 86400 * (gmstC1 / daysPerCentury / 86400)

	base := time.Date(2026, 2, 6, 4, 1, 0, 0, time.UTC)
	for _, step := range []time.Duration{500 * time.Millisecond, time.Minute} {
		t.Run(step.String(), func(t *testing.T) {
			got := NormalizeAngle(GST(base.Add(step)) - GST(base))
			want := rate * step.Seconds()
			if !scalar.EqualWithinAbs(got, want, 1e-8) {
				t.Errorf("GST advanced %.12f rad in %v, want %.12f", got, step, want)
			}
		})
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{1, 1},
		{-0.1, 2*math.Pi - 0.1},
		{2 * math.Pi, 0},
		{7, 7 - 2*math.Pi},
		{-5 * math.Pi, math.Pi},
		{-1e-300, 0},
	}
	for _, tt := range tests {
		got := NormalizeAngle(tt.in)
		if !scalar.EqualWithinAbs(got, tt.want, 1e-12) {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if got < 0 || got >= 2*math.Pi {
			t.Errorf("NormalizeAngle(%v) = %v outside [0, 2π)", tt.in, got)
		}
	}
}

// TestECIToECEF validates the rotation against go-satellite's ECIToECEF
// using the same sidereal time.
func TestECIToECEF(t *testing.T) {
	tests := []struct {
		name string
		eci  ECI
		time time.Time
	}{
		{
			// Vallado "Fundamentals of Astrodynamics" Example 3-15
			name: "Vallado example 3-15",
			eci:  ECI{X: 5094.18016, Y: 6127.64465, Z: 6380.34453},
			time: time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC),
		},
		{
			name: "LEO equatorial",
			eci:  ECI{X: 6778.0, Y: 0.0, Z: 0.0},
			time: time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "LEO polar",
			eci:  ECI{X: 0.0, Y: 0.0, Z: 6978.0},
			time: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gst := GST(tt.time)
			got := ECIToECEF(tt.eci, tt.time)
			ref := satellite.ECIToECEF(satellite.Vector3{X: tt.eci.X, Y: tt.eci.Y, Z: tt.eci.Z}, gst)

			// 1 mm
			const tol = 1e-6
			if !scalar.EqualWithinAbs(got.X, ref.X, tol) || !scalar.EqualWithinAbs(got.Y, ref.Y, tol) || got.Z != tt.eci.Z {
				t.Errorf("ECIToECEF = %+v, go-satellite = %+v", got, ref)
			}
			if !scalar.EqualWithinAbs(got.Norm(), tt.eci.Norm(), 1e-9) {
				t.Errorf("rotation changed length: %v -> %v", tt.eci.Norm(), got.Norm())
			}
		})
	}
}
