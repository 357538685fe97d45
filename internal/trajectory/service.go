package trajectory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/star/trajectory/internal/metrics"
	"github.com/star/trajectory/internal/passes"
	"github.com/star/trajectory/internal/propagation"
	"github.com/star/trajectory/internal/tle"
	"github.com/star/trajectory/internal/transform"
)

// Model names the propagation model reported in metadata.
const Model = "SGP4"

// Metadata describes how a result was produced. ComputedAt is the instant
// the result describes (the window start for passes), not the wall clock.
type Metadata struct {
	Model      string
	ComputedAt time.Time
	NORADID    int
	Name       string
	TLEEpoch   time.Time
}

// Service resolves satellite identifiers to element sets and runs the
// orchestrators. It is safe for concurrent use; every call builds its own
// ElementSet and shares nothing mutable.
type Service struct {
	source tle.Source
	kernel propagation.Kernel
	logger *slog.Logger
}

// NewService creates a Service. A nil kernel selects SGP4.
func NewService(source tle.Source, kernel propagation.Kernel, logger *slog.Logger) *Service {
	if kernel == nil {
		kernel = propagation.SGP4{}
	}
	return &Service{
		source: source,
		kernel: kernel,
		logger: logger,
	}
}

// Position computes the selected frames for id at t.
func (s *Service) Position(ctx context.Context, id tle.Identifier, t time.Time, sel PositionSelection) (SatellitePosition, Metadata, error) {
	es, md, err := s.prepare(ctx, id, t)
	if err != nil {
		s.record("position", id, err)
		return SatellitePosition{}, Metadata{}, err
	}

	pos, err := ComputePosition(s.kernel, es, t, sel)
	s.record("position", id, err)
	if err != nil {
		return SatellitePosition{}, Metadata{}, err
	}
	return pos, md, nil
}

// LookAngles computes the selected look angles of id from observer at t.
func (s *Service) LookAngles(ctx context.Context, id tle.Identifier, t time.Time, observer transform.Geodetic, sel LookAngleSelection) (LookAngles, Metadata, error) {
	es, md, err := s.prepare(ctx, id, t)
	if err != nil {
		s.record("look_angles", id, err)
		return LookAngles{}, Metadata{}, err
	}

	la, err := ComputeLookAngles(s.kernel, es, t, observer, sel)
	s.record("look_angles", id, err)
	if err != nil {
		return LookAngles{}, Metadata{}, err
	}
	return la, md, nil
}

// Passes predicts the passes of id over req.Observer.
func (s *Service) Passes(ctx context.Context, id tle.Identifier, req passes.Request) ([]passes.Pass, Metadata, error) {
	if err := req.Validate(); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidInput, err)
		s.record("passes", id, err)
		return nil, Metadata{}, err
	}

	es, md, err := s.prepare(ctx, id, req.Start)
	if err != nil {
		s.record("passes", id, err)
		return nil, Metadata{}, err
	}

	ps, err := passes.Predict(ctx, s.kernel, es, req)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	case errors.Is(err, transform.ErrGeodeticNotConverged):
		err = fmt.Errorf("%w: %w", ErrInvariant, err)
	default:
		err = fmt.Errorf("%w: %w", ErrPropagation, err)
	}
	s.record("passes", id, err)
	if err != nil {
		return nil, Metadata{}, err
	}
	return ps, md, nil
}

// prepare validates the request and builds a fresh ElementSet. The TLE is
// resolved even for an empty selection since metadata reports its identity.
func (s *Service) prepare(ctx context.Context, id tle.Identifier, t time.Time) (*propagation.ElementSet, Metadata, error) {
	if t.IsZero() {
		return nil, Metadata{}, fmt.Errorf("%w: time is required", ErrInvalidInput)
	}
	if id.NORADID <= 0 && id.Name == "" {
		return nil, Metadata{}, fmt.Errorf("%w: %w", ErrInvalidInput, tle.ErrInvalidIdentifier)
	}

	rec, err := s.source.Lookup(ctx, id)
	if err != nil {
		return nil, Metadata{}, err
	}

	es, err := propagation.FromRecord(rec)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: %w", ErrPropagation, err)
	}

	md := Metadata{
		Model:      Model,
		ComputedAt: t.UTC(),
		NORADID:    es.NORADID,
		Name:       es.Name,
		TLEEpoch:   es.Epoch,
	}
	return es, md, nil
}

func (s *Service) record(kind string, id tle.Identifier, err error) {
	outcome := Outcome(err)
	metrics.RecordComputation(kind, outcome)

	switch outcome {
	case "ok", "invalid_input", "not_found", "cancelled":
	case "invariant":
		s.logger.Error("computation aborted", "component", "trajectory", "kind", kind, "id", id.String(), "error", err)
	default:
		s.logger.Warn("computation failed", "component", "trajectory", "kind", kind, "id", id.String(), "outcome", outcome, "error", err)
	}
}

// Outcome classifies err into a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, tle.ErrNotFound):
		return "not_found"
	case errors.Is(err, tle.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrInvariant):
		return "invariant"
	case errors.Is(err, ErrPropagation):
		return "propagation"
	default:
		return "error"
	}
}
