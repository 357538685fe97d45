package tle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Source resolves a satellite identifier to its current TLE record.
type Source interface {
	Lookup(ctx context.Context, id Identifier) (Record, error)
}

// Store provides thread-safe access to the current TLE dataset.
type Store struct {
	dataset atomic.Pointer[Dataset]
	mu      sync.Mutex // serializes dataset loads
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current dataset, or nil if none has been loaded.
func (s *Store) Get() *Dataset {
	return s.dataset.Load()
}

// Set atomically replaces the current dataset.
func (s *Store) Set(ds *Dataset) {
	s.dataset.Store(ds)
}

// AgeSeconds returns the age of the current dataset in seconds.
// Returns -1 if no dataset is loaded.
func (s *Store) AgeSeconds() float64 {
	ds := s.dataset.Load()
	if ds == nil {
		return -1
	}
	return time.Since(ds.FetchedAt).Seconds()
}

// Lookup returns the record for id from the current dataset.
func (s *Store) Lookup(_ context.Context, id Identifier) (Record, error) {
	ds := s.dataset.Load()
	if ds == nil {
		return Record{}, fmt.Errorf("%w: %s (no TLE data loaded)", ErrNotFound, id)
	}

	var (
		rec Record
		ok  bool
	)
	if id.IsName() {
		rec, ok = ds.ByName(id.Name)
	} else {
		rec, ok = ds.ByID(id.NORADID)
	}
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

// Lock acquires the load mutex.
func (s *Store) Lock() {
	s.mu.Lock()
}

// Unlock releases the load mutex.
func (s *Store) Unlock() {
	s.mu.Unlock()
}
