package trajectory

import (
	"fmt"
	"time"

	"github.com/star/trajectory/internal/propagation"
	"github.com/star/trajectory/internal/transform"
)

// SatellitePosition holds the frames a caller asked for; nil means absent.
type SatellitePosition struct {
	ECI      *transform.ECI
	ECEF     *transform.ECEF
	Geodetic *transform.Geodetic
}

// ComputePosition propagates es to t and derives only the frames sel needs.
//
// ECEF depends on ECI and Geodetic on ECEF. Each frame is computed once if
// any requested frame depends on it, and exposed only if it was requested
// itself. An empty selection returns an empty result without propagating.
func ComputePosition(k propagation.Kernel, es *propagation.ElementSet, t time.Time, sel PositionSelection) (SatellitePosition, error) {
	var out SatellitePosition
	if !sel.Any() {
		return out, nil
	}

	eci, err := k.Propagate(es, t)
	if err != nil {
		return SatellitePosition{}, fmt.Errorf("%w: %w", ErrPropagation, err)
	}
	if sel.ECI {
		out.ECI = &eci
	}

	if !sel.ECEF && !sel.Geodetic {
		return out, nil
	}
	ecef := transform.ECIToECEF(eci, t)
	if sel.ECEF {
		out.ECEF = &ecef
	}

	if !sel.Geodetic {
		return out, nil
	}
	geo, err := transform.ECEFToGeodetic(ecef)
	if err != nil {
		return SatellitePosition{}, fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	out.Geodetic = &geo

	return out, nil
}
