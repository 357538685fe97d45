package tle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestRefresherRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(issTLE + starlinkTLE))
	}))
	defer server.Close()

	store := NewStore()
	cache := NewCache(t.TempDir(), 5)
	fetcher := NewFetcher(FetcherConfig{SourceURL: server.URL}, testLogger)
	r := NewRefresher(store, fetcher, cache, RefresherConfig{
		Interval: time.Hour,
		Retries:  3,
		Backoff:  time.Millisecond,
	}, testLogger)

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("fetch calls = %d, want 3", n)
	}

	ds := store.Get()
	if ds == nil || ds.Len() != 2 {
		t.Fatalf("dataset not installed: %+v", ds)
	}
	if ds.Source != server.URL {
		t.Errorf("Source = %q, want %q", ds.Source, server.URL)
	}

	cached, err := cache.LoadDataset(testLogger)
	if err != nil {
		t.Fatalf("cache not written: %v", err)
	}
	if cached.Len() != 2 {
		t.Errorf("cached records = %d, want 2", cached.Len())
	}
}

func TestRefresherKeepsDatasetOnFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	store := NewStore()
	previous := NewDataset("cache", time.Now(), testRecords())
	store.Set(previous)

	fetcher := NewFetcher(FetcherConfig{SourceURL: server.URL}, testLogger)
	r := NewRefresher(store, fetcher, nil, RefresherConfig{Retries: 2, Backoff: time.Millisecond}, testLogger)

	err := r.Refresh(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("fetch calls = %d, want 2", n)
	}
	if store.Get() != previous {
		t.Error("previous dataset was replaced")
	}
}

func TestRefresherEmptyCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("No GP data found\n"))
	}))
	defer server.Close()

	store := NewStore()
	fetcher := NewFetcher(FetcherConfig{SourceURL: server.URL}, testLogger)
	r := NewRefresher(store, fetcher, nil, RefresherConfig{Retries: 1}, testLogger)

	if err := r.Refresh(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if store.Get() != nil {
		t.Error("empty catalog installed a dataset")
	}
}

func TestRefresherBackoffHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewFetcher(FetcherConfig{SourceURL: server.URL}, testLogger)
	r := NewRefresher(NewStore(), fetcher, nil, RefresherConfig{Retries: 5, Backoff: time.Hour}, testLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := r.Refresh(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Refresh took %v, backoff ignored cancellation", elapsed)
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.tle")
	if err := os.WriteFile(path, []byte(issTLE), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewStore()
	w := NewWatcher(path, store, testLogger)
	w.debounce = 10 * time.Millisecond

	if err := w.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if store.Get().Len() != 1 {
		t.Fatalf("initial records = %d, want 1", store.Get().Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Rewrite until the watcher has registered and picked the change up.
	deadline := time.Now().Add(5 * time.Second)
	for store.Get().Len() != 2 {
		if time.Now().After(deadline) {
			t.Fatal("watcher did not reload the file")
		}
		if err := os.WriteFile(path, []byte(issTLE+starlinkTLE), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	if _, err := store.Lookup(ctx, ByNORAD(44713)); err != nil {
		t.Errorf("reloaded dataset missing 44713: %v", err)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}

func TestWatcherLoadRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tle")
	os.WriteFile(path, []byte("nothing here\n"), 0644)

	store := NewStore()
	if err := NewWatcher(path, store, testLogger).Load(); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
	if store.Get() != nil {
		t.Error("empty file installed a dataset")
	}
}
