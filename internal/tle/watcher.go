package tle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/star/trajectory/internal/metrics"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher loads a local TLE file into the store and reloads it whenever the
// file changes.
type Watcher struct {
	path     string
	store    *Store
	logger   *slog.Logger
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a Watcher for the TLE file at path.
func NewWatcher(path string, store *Store, logger *slog.Logger) *Watcher {
	return &Watcher{
		path:     path,
		store:    store,
		logger:   logger,
		debounce: defaultDebounce,
	}
}

// Load reads and parses the file and installs it as the current dataset.
func (w *Watcher) Load() error {
	f, err := os.Open(w.path)
	if err != nil {
		return fmt.Errorf("opening TLE file: %w", err)
	}
	defer f.Close()

	records, err := Parse(f, w.logger)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: no valid TLE entries in %s", ErrMalformed, w.path)
	}

	w.store.Lock()
	defer w.store.Unlock()

	ds := NewDataset("file:"+w.path, time.Now(), records)
	w.store.Set(ds)
	metrics.SetTLEDatasetCount(ds.Len())

	w.logger.Info("loaded TLE file", "component", "tle", "path", w.path, "count", ds.Len())
	return nil
}

// Run watches the file's directory until ctx is done. The directory is
// watched rather than the file so that atomic replace-by-rename is seen.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	name := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "component", "tle", "error", err)
		}
	}
}

// scheduleReload coalesces bursts of events into one reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if err := w.Load(); err != nil {
			w.logger.Warn("TLE file reload failed, keeping previous dataset", "component", "tle", "path", w.path, "error", err)
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
