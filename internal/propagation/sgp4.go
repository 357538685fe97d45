package propagation

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/star/trajectory/internal/metrics"
	"github.com/star/trajectory/internal/transform"
)

// Kernel maps an element set and a UTC instant to an ECI position (km).
type Kernel interface {
	Propagate(es *ElementSet, t time.Time) (transform.ECI, error)
}

// Sanity bounds on the propagated radius. SGP4 flags a satellite as decayed
// below one Earth radius (WGS-72); anything beyond the upper bound is far
// outside any orbit a TLE can describe.
const (
	minRadiusKm = 6378.135
	maxRadiusKm = 500000.0
)

// SGP4 is the go-satellite backed Kernel. The zero value is ready to use.
//
// go-satellite takes instants with whole-second resolution and passes the
// Satellite by value, so its error codes are not visible after Propagate.
// Sub-second instants are resolved by cubic Hermite interpolation between
// the bracketing whole seconds, and failures are detected from the output.
type SGP4 struct{}

// Propagate implements Kernel.
func (SGP4) Propagate(es *ElementSet, t time.Time) (transform.ECI, error) {
	start := time.Now()
	pos, err := propagate(es, t)
	metrics.ObservePropagation(time.Since(start), err == nil)
	return pos, err
}

func propagate(es *ElementSet, t time.Time) (transform.ECI, error) {
	// Shift onto the library's truncated-epoch timeline so that the time
	// since epoch it computes equals t - es.Epoch.
	target := t.UTC().Add(-es.epochOffset)
	whole := target.Truncate(time.Second)
	frac := target.Sub(whole).Seconds()

	p0, v0 := propagateWhole(es, whole)
	pos := p0
	if frac > 0 {
		p1, v1 := propagateWhole(es, whole.Add(time.Second))
		pos = hermite(p0, v0, p1, v1, frac)
	}

	if !pos.IsFinite() {
		return transform.ECI{}, fmt.Errorf("%w: NORAD %d at %s: output is NaN/Inf",
			ErrPropagationDivergence, es.NORADID, t.UTC().Format(time.RFC3339Nano))
	}

	if r := pos.Norm(); r < minRadiusKm || r > maxRadiusKm {
		return transform.ECI{}, fmt.Errorf("%w: NORAD %d at %s: unreasonable position magnitude %.1f km",
			ErrPropagationDivergence, es.NORADID, t.UTC().Format(time.RFC3339Nano), r)
	}

	return pos, nil
}

// propagateWhole calls go-satellite at a whole-second UTC instant and returns
// position (km) and velocity (km/s).
func propagateWhole(es *ElementSet, t time.Time) (transform.ECI, transform.ECI) {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	pos, vel := satellite.Propagate(es.sat, year, int(month), day, hour, min, sec)

	return transform.ECI{X: pos.X, Y: pos.Y, Z: pos.Z},
		transform.ECI{X: vel.X, Y: vel.Y, Z: vel.Z}
}

// hermite interpolates a position at fraction f of a one-second step from the
// positions and velocities (per second) at both ends.
func hermite(p0, v0, p1, v1 transform.ECI, f float64) transform.ECI {
	f2 := f * f
	f3 := f2 * f

	h00 := 2*f3 - 3*f2 + 1
	h10 := f3 - 2*f2 + f
	h01 := -2*f3 + 3*f2
	h11 := f3 - f2

	return transform.ECI{
		X: h00*p0.X + h10*v0.X + h01*p1.X + h11*v1.X,
		Y: h00*p0.Y + h10*v0.Y + h01*p1.Y + h11*v1.Y,
		Z: h00*p0.Z + h10*v0.Z + h01*p1.Z + h11*v1.Z,
	}
}

var _ Kernel = SGP4{}
