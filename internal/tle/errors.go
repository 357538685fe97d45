package tle

import "errors"

var (
	// ErrNotFound means no TLE exists for the requested satellite.
	ErrNotFound = errors.New("satellite not found")

	// ErrUnavailable means the remote TLE source could not be reached or
	// returned an unusable response.
	ErrUnavailable = errors.New("TLE source unavailable")

	// ErrInvalidIdentifier means a satellite identifier could not be parsed.
	ErrInvalidIdentifier = errors.New("invalid satellite identifier")

	// ErrMalformed means TLE text does not follow the two-line format.
	ErrMalformed = errors.New("malformed TLE")

	// ErrNoCache means the disk cache holds no snapshot.
	ErrNoCache = errors.New("no cache files found")
)
