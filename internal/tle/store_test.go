package tle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testRecords() []Record {
	base := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	return []Record{
		{NORADID: 25544, Name: "ISS (ZARYA)", Epoch: base},
		{NORADID: 44713, Name: "STARLINK-1007", Epoch: base.Add(-48 * time.Hour)},
		// Newer element set for the same satellite.
		{NORADID: 25544, Name: "ISS (ZARYA)", Epoch: base.Add(6 * time.Hour)},
	}
}

func TestDatasetIndexes(t *testing.T) {
	records := testRecords()
	ds := NewDataset("test", time.Now(), records)

	if ds.Len() != 3 {
		t.Errorf("Len = %d, want 3", ds.Len())
	}
	if !ds.EpochRange.Min.Equal(records[1].Epoch) || !ds.EpochRange.Max.Equal(records[2].Epoch) {
		t.Errorf("EpochRange = %+v", ds.EpochRange)
	}

	rec, ok := ds.ByID(25544)
	if !ok || !rec.Epoch.Equal(records[2].Epoch) {
		t.Errorf("ByID(25544) = %+v, %v; want newest epoch", rec, ok)
	}

	rec, ok = ds.ByName("  iss (zarya) ")
	if !ok || !rec.Epoch.Equal(records[2].Epoch) {
		t.Errorf("ByName = %+v, %v; want newest epoch", rec, ok)
	}

	if _, ok := ds.ByID(1); ok {
		t.Error("ByID(1) found a record")
	}
}

func TestStoreLookup(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.Lookup(ctx, ByNORAD(25544)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty store: err = %v, want ErrNotFound", err)
	}
	if store.AgeSeconds() != -1 {
		t.Errorf("AgeSeconds on empty store = %v, want -1", store.AgeSeconds())
	}

	store.Set(NewDataset("test", time.Now(), testRecords()))

	tests := []struct {
		name    string
		id      Identifier
		wantID  int
		wantErr error
	}{
		{name: "by id", id: ByNORAD(44713), wantID: 44713},
		{name: "by name", id: ByName("starlink-1007"), wantID: 44713},
		{name: "unknown id", id: ByNORAD(1), wantErr: ErrNotFound},
		{name: "unknown name", id: ByName("HUBBLE"), wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := store.Lookup(ctx, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.NORADID != tt.wantID {
				t.Errorf("NORADID = %d, want %d", rec.NORADID, tt.wantID)
			}
		})
	}
}

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		norad   string
		satName string
		want    Identifier
		wantErr bool
	}{
		{name: "norad", norad: "25544", want: ByNORAD(25544)},
		{name: "name trimmed", satName: "  ISS (ZARYA) ", want: ByName("ISS (ZARYA)")},
		{name: "both", norad: "25544", satName: "ISS", wantErr: true},
		{name: "neither", wantErr: true},
		{name: "not a number", norad: "ISS", wantErr: true},
		{name: "zero", norad: "0", wantErr: true},
		{name: "negative", norad: "-5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIdentifier(tt.norad, tt.satName)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidIdentifier) {
					t.Fatalf("err = %v, want ErrInvalidIdentifier", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolverFallback(t *testing.T) {
	var remoteCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remoteCalls.Add(1)
		switch r.URL.Query().Get("CATNR") {
		case "25544":
			w.Write([]byte(issTLE))
		case "500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Write([]byte("No GP data found\n"))
		}
	}))
	defer server.Close()

	store := NewStore()
	store.Set(NewDataset("test", time.Now(), []Record{{NORADID: 44713, Name: "STARLINK-1007"}}))
	fetcher := NewFetcher(FetcherConfig{LookupURL: server.URL}, testLogger)
	ctx := context.Background()

	t.Run("dataset hit does not query remote", func(t *testing.T) {
		remoteCalls.Store(0)
		r := NewResolver(store, fetcher, testLogger)
		if _, err := r.Lookup(ctx, ByNORAD(44713)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := remoteCalls.Load(); n != 0 {
			t.Errorf("remote calls = %d, want 0", n)
		}
	})

	t.Run("dataset miss falls back to remote", func(t *testing.T) {
		r := NewResolver(store, fetcher, testLogger)
		rec, err := r.Lookup(ctx, ByNORAD(25544))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Name != "ISS (ZARYA)" {
			t.Errorf("Name = %q", rec.Name)
		}
	})

	t.Run("remote miss is not found", func(t *testing.T) {
		r := NewResolver(store, fetcher, testLogger)
		if _, err := r.Lookup(ctx, ByNORAD(7)); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("remote failure is unavailable", func(t *testing.T) {
		r := NewResolver(store, fetcher, testLogger)
		if _, err := r.Lookup(ctx, ByNORAD(500)); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("err = %v, want ErrUnavailable", err)
		}
	})

	t.Run("no fetcher", func(t *testing.T) {
		r := NewResolver(NewStore(), nil, testLogger)
		if r.Ready() {
			t.Error("Ready() = true with no data and no fetcher")
		}
		if _, err := r.Lookup(ctx, ByNORAD(25544)); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}
