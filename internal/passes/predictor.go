// Package passes finds the windows in which one satellite is above an
// observer's elevation mask.
package passes

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/star/trajectory/internal/propagation"
	"github.com/star/trajectory/internal/transform"
)

// Limits on a single request.
const (
	MaxWindow    = 7 * 24 * time.Hour
	MaxPasses    = 50
	DefaultLimit = 10
)

const (
	coarseStep      = 30 * time.Second
	fineStep        = time.Second
	groundTrackStep = 10 * time.Second
	minPassDuration = 10 * time.Second
)

// ErrInvalidRequest is returned for requests that fail Validate.
var ErrInvalidRequest = errors.New("invalid pass request")

// TrackPoint is the sub-satellite point at one instant of a pass.
type TrackPoint struct {
	Time      time.Time
	Geodetic  transform.Geodetic
	Elevation float64
}

// Pass is one rise-culmination-set sequence. Angles are radians.
type Pass struct {
	Rise               time.Time
	Culmination        time.Time
	Set                time.Time
	MaxElevation       float64
	RiseAzimuth        float64
	CulminationAzimuth float64
	SetAzimuth         float64
	Track              []TrackPoint
}

// Duration is the time between rise and set.
func (p Pass) Duration() time.Duration {
	return p.Set.Sub(p.Rise)
}

// Request describes a pass search.
type Request struct {
	Observer transform.Geodetic
	Start    time.Time
	Window   time.Duration
	// MinElevation is the elevation mask in radians.
	MinElevation float64
	// Limit caps the number of passes; 0 means DefaultLimit.
	Limit int
}

// Validate checks the request against the per-request limits.
func (r Request) Validate() error {
	switch {
	case r.Start.IsZero():
		return fmt.Errorf("%w: start time is required", ErrInvalidRequest)
	case r.Window <= 0 || r.Window > MaxWindow:
		return fmt.Errorf("%w: window must be in (0, %s]", ErrInvalidRequest, MaxWindow)
	case math.IsNaN(r.MinElevation) || r.MinElevation < 0 || r.MinElevation >= math.Pi/2:
		return fmt.Errorf("%w: minimum elevation must be in [0, 90) degrees", ErrInvalidRequest)
	case r.Limit < 0 || r.Limit > MaxPasses:
		return fmt.Errorf("%w: limit must be in [0, %d]", ErrInvalidRequest, MaxPasses)
	}
	return nil
}

func (r Request) limit() int {
	if r.Limit == 0 {
		return DefaultLimit
	}
	return r.Limit
}

type sample struct {
	elevation float64
	azimuth   float64
	sat       transform.ECEF
}

type predictor struct {
	kernel   propagation.Kernel
	es       *propagation.ElementSet
	observer transform.Geodetic
	obsECEF  transform.ECEF
}

func (p *predictor) at(t time.Time) (sample, error) {
	eci, err := p.kernel.Propagate(p.es, t)
	if err != nil {
		return sample{}, err
	}
	sat := eci.ToECEF(transform.GST(t))
	sez := transform.ToSEZ(p.observer, sat.Sub(p.obsECEF))
	return sample{
		elevation: sez.Elevation(sez.Range()),
		azimuth:   sez.Azimuth(),
		sat:       sat,
	}, nil
}

// Predict returns the passes of es over req.Observer that rise within
// [req.Start, req.Start+req.Window). A pass still up at the end of the window
// is closed there. Kernel and frame errors abort the search and are returned
// wrapped; passes found so far are discarded.
func Predict(ctx context.Context, k propagation.Kernel, es *propagation.ElementSet, req Request) ([]Pass, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := &predictor{
		kernel:   k,
		es:       es,
		observer: req.Observer,
		obsECEF:  transform.GeodeticToECEF(req.Observer),
	}
	end := req.Start.Add(req.Window)
	limit := req.limit()

	var passes []Pass
	t := req.Start
	for t.Before(end) && len(passes) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s, err := p.at(t)
		if err != nil {
			return nil, fmt.Errorf("propagate at %s: %w", t.Format(time.RFC3339), err)
		}
		if s.elevation < req.MinElevation {
			t = t.Add(coarseStep)
			continue
		}

		pass, windowEnd, err := p.refine(ctx, t, req.Start, end, req.MinElevation)
		if err != nil {
			return nil, err
		}
		if pass != nil && pass.Duration() >= minPassDuration {
			passes = append(passes, *pass)
		}
		t = windowEnd.Add(coarseStep)
	}

	return passes, nil
}

// refine scans at fine resolution from one coarse step before hit until the
// satellite drops below the mask or the window ends.
func (p *predictor) refine(ctx context.Context, hit, windowStart, windowEnd time.Time, mask float64) (*Pass, time.Time, error) {
	t := hit.Add(-coarseStep)
	if t.Before(windowStart) {
		t = windowStart
	}

	var (
		pass  Pass
		risen bool
		last  sample
	)
	for ; t.Before(windowEnd); t = t.Add(fineStep) {
		if err := ctx.Err(); err != nil {
			return nil, t, err
		}

		s, err := p.at(t)
		if err != nil {
			return nil, t, fmt.Errorf("propagate at %s: %w", t.Format(time.RFC3339), err)
		}
		last = s
		above := s.elevation >= mask

		if !risen {
			if !above {
				continue
			}
			risen = true
			pass.Rise, pass.RiseAzimuth = t, s.azimuth
			pass.Culmination, pass.MaxElevation, pass.CulminationAzimuth = t, s.elevation, s.azimuth
		}

		if !above {
			pass.Set, pass.SetAzimuth = t, s.azimuth
			return &pass, t, nil
		}

		if s.elevation > pass.MaxElevation {
			pass.Culmination, pass.MaxElevation, pass.CulminationAzimuth = t, s.elevation, s.azimuth
		}
		if t.Sub(pass.Rise)%groundTrackStep == 0 {
			g, err := transform.ECEFToGeodetic(s.sat)
			if err != nil {
				return nil, t, err
			}
			pass.Track = append(pass.Track, TrackPoint{Time: t, Geodetic: g, Elevation: s.elevation})
		}
	}

	if !risen {
		return nil, t, nil
	}
	pass.Set, pass.SetAzimuth = t, last.azimuth
	return &pass, t, nil
}
