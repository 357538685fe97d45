package tle

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

const (
	snapshotPrefix = "tle_"
	snapshotSuffix = ".txt"
)

// Cache keeps the last few catalog fetches on disk as tle_<unix>.txt so the
// service can start with data while the remote catalog is unreachable.
type Cache struct {
	dir      string
	maxFiles int
}

// NewCache creates a Cache in dir that keeps at most maxFiles snapshots.
func NewCache(dir string, maxFiles int) *Cache {
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &Cache{dir: dir, maxFiles: maxFiles}
}

// snapshot is one cache file and the fetch time encoded in its name.
type snapshot struct {
	path string
	ts   time.Time
}

func snapshotName(ts time.Time) string {
	return snapshotPrefix + strconv.FormatInt(ts.Unix(), 10) + snapshotSuffix
}

func parseSnapshotName(name string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(name, snapshotPrefix)
	if !ok {
		return time.Time{}, false
	}
	rest, ok = strings.CutSuffix(rest, snapshotSuffix)
	if !ok {
		return time.Time{}, false
	}
	unix, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}

// Write stores data as the snapshot for ts and prunes the oldest snapshots.
// The file is written under a temporary name and renamed into place, so a
// crash never leaves a truncated snapshot behind.
func (c *Cache) Write(data []byte, ts time.Time) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".tle-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(c.dir, snapshotName(ts))); err != nil {
		return fmt.Errorf("installing cache file: %w", err)
	}

	return c.prune()
}

// LoadLatest returns the newest snapshot and its fetch time, or ErrNoCache.
func (c *Cache) LoadLatest() ([]byte, time.Time, error) {
	snaps, err := c.snapshots()
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(snaps) == 0 {
		return nil, time.Time{}, ErrNoCache
	}

	latest := snaps[len(snaps)-1]
	data, err := os.ReadFile(latest.path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading cache file: %w", err)
	}
	return data, latest.ts, nil
}

// LoadDataset parses the newest usable snapshot into a Dataset whose
// FetchedAt is the snapshot time. Unreadable or empty snapshots are skipped
// in favor of older ones.
func (c *Cache) LoadDataset(logger *slog.Logger) (*Dataset, error) {
	snaps, err := c.snapshots()
	if err != nil {
		return nil, err
	}

	for i := len(snaps) - 1; i >= 0; i-- {
		s := snaps[i]
		data, err := os.ReadFile(s.path)
		if err != nil {
			logger.Warn("skipping unreadable TLE snapshot", "component", "tle", "path", s.path, "error", err)
			continue
		}
		records, err := Parse(bytes.NewReader(data), logger)
		if err != nil || len(records) == 0 {
			logger.Warn("skipping TLE snapshot without valid entries", "component", "tle", "path", s.path, "error", err)
			continue
		}
		return NewDataset("cache", s.ts, records), nil
	}
	return nil, ErrNoCache
}

// snapshots lists the cache files oldest first. A missing directory is an
// empty cache.
func (c *Cache) snapshots() ([]snapshot, error) {
	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing cache dir: %w", err)
	}

	var snaps []snapshot
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ts, ok := parseSnapshotName(e.Name()); ok {
			snaps = append(snaps, snapshot{path: filepath.Join(c.dir, e.Name()), ts: ts})
		}
	}
	slices.SortFunc(snaps, func(a, b snapshot) int { return a.ts.Compare(b.ts) })
	return snaps, nil
}

func (c *Cache) prune() error {
	snaps, err := c.snapshots()
	if err != nil {
		return err
	}
	for len(snaps) > c.maxFiles {
		if err := os.Remove(snaps[0].path); err != nil {
			return fmt.Errorf("pruning cache file: %w", err)
		}
		snaps = snaps[1:]
	}
	return nil
}
