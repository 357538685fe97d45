package trajectory

import "errors"

// Error classes surfaced to callers. Each returned error wraps exactly one of
// these alongside the underlying cause, so callers switch on errors.Is.
var (
	// ErrInvalidInput covers malformed requests: missing time or observer,
	// bad identifiers, malformed caller-supplied TLE text.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPropagation means well-formed input could not be propagated: the
	// element set failed to initialize or SGP4 diverged.
	ErrPropagation = errors.New("propagation failed")

	// ErrInvariant marks a defect such as a non-converging geodetic
	// iteration. The request is aborted rather than returning corrupt output.
	ErrInvariant = errors.New("internal invariant violated")
)
