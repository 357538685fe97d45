package tle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Resolver looks identifiers up in the in-memory dataset first and falls
// back to a per-satellite remote query when a fetcher is configured.
type Resolver struct {
	store   *Store
	fetcher *Fetcher
	logger  *slog.Logger
}

// NewResolver creates a Resolver. A nil fetcher disables remote lookups.
func NewResolver(store *Store, fetcher *Fetcher, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, fetcher: fetcher, logger: logger}
}

// Lookup implements Source.
func (r *Resolver) Lookup(ctx context.Context, id Identifier) (Record, error) {
	rec, err := r.store.Lookup(ctx, id)
	if err == nil || !errors.Is(err, ErrNotFound) || r.fetcher == nil {
		return rec, err
	}

	r.logger.Debug("satellite not in dataset, querying remote", "component", "tle", "id", id.String())

	rec, err = r.fetcher.FetchOne(ctx, id)
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, ErrNotFound):
		return Record{}, err
	default:
		return Record{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// Ready reports whether lookups can succeed: either a dataset is loaded or
// remote lookups are enabled.
func (r *Resolver) Ready() bool {
	return r.store.Get() != nil || r.fetcher != nil
}
