package tle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/star/trajectory/internal/metrics"
)

// RefresherConfig controls the scheduled remote refresh.
type RefresherConfig struct {
	Interval time.Duration
	// Retries is the number of fetch attempts per refresh.
	Retries int
	// Backoff is the linear backoff unit: attempt n waits n*Backoff before
	// attempt n+1.
	Backoff time.Duration
}

// Refresher periodically replaces the store's dataset with a fresh remote
// fetch and persists each successful fetch to the disk cache.
type Refresher struct {
	store   *Store
	fetcher *Fetcher
	cache   *Cache
	cfg     RefresherConfig
	logger  *slog.Logger
	now     func() time.Time
}

// NewRefresher creates a Refresher. cache may be nil.
func NewRefresher(store *Store, fetcher *Fetcher, cache *Cache, cfg RefresherConfig, logger *slog.Logger) *Refresher {
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	return &Refresher{
		store:   store,
		fetcher: fetcher,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Run refreshes immediately when the loaded dataset is missing or older than
// the interval, then on every interval tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	if age := r.store.AgeSeconds(); age < 0 || age >= r.cfg.Interval.Seconds() {
		r.refreshAndLog(ctx)
	}

	if r.cfg.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refreshAndLog(ctx)
		}
	}
}

func (r *Refresher) refreshAndLog(ctx context.Context) {
	if err := r.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Error("TLE refresh failed", "component", "tle", "error", err)
	}
}

// Refresh fetches, parses and installs a new dataset. The previous dataset
// stays in place when every attempt fails.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.store.Lock()
	defer r.store.Unlock()

	data, err := r.fetchWithRetry(ctx)
	if err != nil {
		return err
	}

	records, err := Parse(bytes.NewReader(data), r.logger)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		metrics.IncTLEFetch("empty")
		return fmt.Errorf("%w: no valid TLE entries from %s", ErrUnavailable, r.fetcher.SourceURL())
	}

	fetchedAt := r.now()
	ds := NewDataset(r.fetcher.SourceURL(), fetchedAt, records)
	r.store.Set(ds)
	metrics.SetTLEDatasetCount(ds.Len())
	metrics.SetTLEDatasetAge(0)

	if r.cache != nil {
		if err := r.cache.Write(data, fetchedAt); err != nil {
			r.logger.Warn("failed to write TLE cache", "component", "tle", "error", err)
		}
	}

	r.logger.Info("TLE dataset refreshed",
		"component", "tle",
		"count", ds.Len(),
		"epoch_min", ds.EpochRange.Min.Format(time.RFC3339),
		"epoch_max", ds.EpochRange.Max.Format(time.RFC3339),
	)
	return nil
}

func (r *Refresher) fetchWithRetry(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.Retries; attempt++ {
		data, err := r.fetcher.Fetch(ctx)
		if err == nil {
			metrics.IncTLEFetch("success")
			return data, nil
		}
		lastErr = err
		metrics.IncTLEFetch("error")

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == r.cfg.Retries {
			break
		}

		wait := time.Duration(attempt) * r.cfg.Backoff
		r.logger.Warn("TLE fetch failed, retrying",
			"component", "tle",
			"attempt", attempt,
			"retries", r.cfg.Retries,
			"backoff", wait.String(),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("%w: %d attempts failed: %v", ErrUnavailable, r.cfg.Retries, lastErr)
}
