// Package units converts computed values into the units a caller asked for.
// Internally angles are radians and distances kilometers.
package units

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnspecifiedUnit is returned when a value must be presented but the
// caller did not say in which unit.
var ErrUnspecifiedUnit = errors.New("unit is unspecified")

// ErrUnknownUnit is returned for a unit name that is not supported.
var ErrUnknownUnit = errors.New("unknown unit")

// AngleUnit is the presentation unit for angles.
type AngleUnit string

const (
	AngleUnspecified AngleUnit = ""
	Degrees          AngleUnit = "degrees"
	Radians          AngleUnit = "radians"
)

// DistanceUnit is the presentation unit for lengths.
type DistanceUnit string

const (
	DistanceUnspecified DistanceUnit = ""
	Meters              DistanceUnit = "meters"
	Kilometers          DistanceUnit = "kilometers"
	Miles               DistanceUnit = "miles"
)

// KilometersPerMile is the international mile.
const KilometersPerMile = 1.609344

// ParseAngleUnit accepts "degrees"/"deg" and "radians"/"rad", case
// insensitive. An empty string yields AngleUnspecified without error so the
// requirement can be checked only where an angle is presented.
func ParseAngleUnit(s string) (AngleUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return AngleUnspecified, nil
	case "degrees", "degree", "deg":
		return Degrees, nil
	case "radians", "radian", "rad":
		return Radians, nil
	default:
		return AngleUnspecified, fmt.Errorf("%w: angle unit %q", ErrUnknownUnit, s)
	}
}

// ParseDistanceUnit accepts meters/m, kilometers/km and miles/mi.
func ParseDistanceUnit(s string) (DistanceUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DistanceUnspecified, nil
	case "meters", "meter", "m":
		return Meters, nil
	case "kilometers", "kilometer", "km":
		return Kilometers, nil
	case "miles", "mile", "mi":
		return Miles, nil
	default:
		return DistanceUnspecified, fmt.Errorf("%w: distance unit %q", ErrUnknownUnit, s)
	}
}

// FromRadians converts rad into u.
func (u AngleUnit) FromRadians(rad float64) (float64, error) {
	switch u {
	case Radians:
		return rad, nil
	case Degrees:
		return rad * 180 / math.Pi, nil
	case AngleUnspecified:
		return 0, fmt.Errorf("%w: angle unit", ErrUnspecifiedUnit)
	default:
		return 0, fmt.Errorf("%w: angle unit %q", ErrUnknownUnit, string(u))
	}
}

// ToRadians converts v, expressed in u, into radians.
func (u AngleUnit) ToRadians(v float64) (float64, error) {
	switch u {
	case Radians:
		return v, nil
	case Degrees:
		return v * math.Pi / 180, nil
	case AngleUnspecified:
		return 0, fmt.Errorf("%w: angle unit", ErrUnspecifiedUnit)
	default:
		return 0, fmt.Errorf("%w: angle unit %q", ErrUnknownUnit, string(u))
	}
}

// FromKilometers converts km into u.
func (u DistanceUnit) FromKilometers(km float64) (float64, error) {
	switch u {
	case Kilometers:
		return km, nil
	case Meters:
		return km * 1000, nil
	case Miles:
		return km / KilometersPerMile, nil
	case DistanceUnspecified:
		return 0, fmt.Errorf("%w: distance unit", ErrUnspecifiedUnit)
	default:
		return 0, fmt.Errorf("%w: distance unit %q", ErrUnknownUnit, string(u))
	}
}

// ToKilometers converts v, expressed in u, into kilometers.
func (u DistanceUnit) ToKilometers(v float64) (float64, error) {
	switch u {
	case Kilometers:
		return v, nil
	case Meters:
		return v / 1000, nil
	case Miles:
		return v * KilometersPerMile, nil
	case DistanceUnspecified:
		return 0, fmt.Errorf("%w: distance unit", ErrUnspecifiedUnit)
	default:
		return 0, fmt.Errorf("%w: distance unit %q", ErrUnknownUnit, string(u))
	}
}

// Settings is the pair of units chosen for one request.
type Settings struct {
	Angle    AngleUnit    `json:"angle_unit,omitempty"`
	Distance DistanceUnit `json:"distance_unit,omitempty"`
}
