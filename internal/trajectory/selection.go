package trajectory

import "strings"

// PositionSelection chooses which frames a position computation exposes.
type PositionSelection struct {
	ECI      bool
	ECEF     bool
	Geodetic bool
}

// Any reports whether at least one frame is requested.
func (s PositionSelection) Any() bool {
	return s.ECI || s.ECEF || s.Geodetic
}

// LookAngleSelection chooses which topocentric quantities are exposed.
type LookAngleSelection struct {
	Azimuth   bool
	Elevation bool
	Range     bool
}

// Any reports whether at least one quantity is requested.
func (s LookAngleSelection) Any() bool {
	return s.Azimuth || s.Elevation || s.Range
}

// Field mask names.
const (
	FieldECI       = "eci"
	FieldECEF      = "ecef"
	FieldGeodetic  = "geodetic"
	FieldAzimuth   = "azimuth"
	FieldElevation = "elevation"
	FieldRange     = "range"
)

// PositionSelectionFromMask sets a flag for every path that starts with the
// flag's field name, so "geodetic.latitude" selects Geodetic. An empty mask
// selects nothing.
func PositionSelectionFromMask(paths []string) PositionSelection {
	return PositionSelection{
		ECI:      maskHas(paths, FieldECI),
		ECEF:     maskHas(paths, FieldECEF),
		Geodetic: maskHas(paths, FieldGeodetic),
	}
}

// LookAngleSelectionFromMask is PositionSelectionFromMask for look angles.
func LookAngleSelectionFromMask(paths []string) LookAngleSelection {
	return LookAngleSelection{
		Azimuth:   maskHas(paths, FieldAzimuth),
		Elevation: maskHas(paths, FieldElevation),
		Range:     maskHas(paths, FieldRange),
	}
}

func maskHas(paths []string, field string) bool {
	for _, p := range paths {
		if strings.HasPrefix(strings.TrimSpace(p), field) {
			return true
		}
	}
	return false
}
