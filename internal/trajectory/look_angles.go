package trajectory

import (
	"fmt"
	"time"

	"github.com/star/trajectory/internal/propagation"
	"github.com/star/trajectory/internal/transform"
)

// LookAngles holds the topocentric quantities a caller asked for, in radians
// and km; nil means absent.
type LookAngles struct {
	Azimuth   *float64
	Elevation *float64
	Range     *float64
}

// ComputeLookAngles returns azimuth, elevation and range of the satellite as
// seen from observer at t. Azimuth is atan2(E, S) in the observer's SEZ frame
// wrapped into [0, 2π). Range is computed whenever range or elevation is
// requested. An empty selection returns an empty result without propagating.
func ComputeLookAngles(k propagation.Kernel, es *propagation.ElementSet, t time.Time, observer transform.Geodetic, sel LookAngleSelection) (LookAngles, error) {
	var out LookAngles
	if !sel.Any() {
		return out, nil
	}

	eci, err := k.Propagate(es, t)
	if err != nil {
		return LookAngles{}, fmt.Errorf("%w: %w", ErrPropagation, err)
	}

	satECEF := eci.ToECEF(transform.GST(t))
	obsECEF := transform.GeodeticToECEF(observer)
	sez := transform.ToSEZ(observer, satECEF.Sub(obsECEF))

	if sel.Azimuth {
		az := sez.Azimuth()
		out.Azimuth = &az
	}

	if sel.Range || sel.Elevation {
		rng := sez.Range()
		if sel.Range {
			out.Range = &rng
		}
		if sel.Elevation {
			el := sez.Elevation(rng)
			out.Elevation = &el
		}
	}

	return out, nil
}
