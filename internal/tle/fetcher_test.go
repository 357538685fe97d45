package tle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

const (
	issTLE      = "ISS (ZARYA)\n1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005\n2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09\n"
	starlinkTLE = "STARLINK-1007\n1 44713U 19074A   24100.50000000  .00001000  00000-0  10000-4 0  9995\n2 44713  53.0000 200.0000 0001500  90.0000 270.0000 15.06000000    05\n"
)

// TestFetcherBodyLimit verifies that responses exceeding the 50 MB limit
// return an error instead of consuming unbounded memory.
func TestFetcherBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		chunk := strings.Repeat("A", 1024*1024)
		for i := 0; i < 52; i++ {
			if _, err := w.Write([]byte(chunk)); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(FetcherConfig{SourceURL: server.URL}, testLogger)
	_, err := fetcher.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error for oversized response, got nil")
	}
	if !strings.Contains(err.Error(), "byte limit") {
		t.Errorf("expected body limit error, got: %v", err)
	}
}

func TestFetcherSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(issTLE))
	}))
	defer server.Close()

	fetcher := NewFetcher(FetcherConfig{SourceURL: server.URL}, testLogger)
	data, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != issTLE {
		t.Errorf("body mismatch: got %d bytes, want %d", len(data), len(issTLE))
	}
}

func TestFetcherHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewFetcher(FetcherConfig{SourceURL: server.URL}, testLogger)
	if _, err := fetcher.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
}

// TestFetcherExtraURLs verifies that extra URLs are fetched and concatenated,
// and that a failing extra URL does not break the primary fetch.
func TestFetcherExtraURLs(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(starlinkTLE))
	}))
	defer primary.Close()

	extra := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(issTLE))
	}))
	defer extra.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	fetcher := NewFetcher(FetcherConfig{
		SourceURL: primary.URL,
		ExtraURLs: []string{failing.URL, extra.URL},
	}, testLogger)
	data, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := Parse(strings.NewReader(string(data)), testLogger)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	ids := map[int]bool{}
	for _, rec := range records {
		ids[rec.NORADID] = true
	}
	if !ids[44713] || !ids[25544] {
		t.Errorf("missing satellites, got %v", ids)
	}
}

func TestFetchOneQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		switch {
		case r.URL.Query().Get("CATNR") == "25544":
			w.Write([]byte(issTLE))
		case r.URL.Query().Get("NAME") != "":
			// Partial matches first; the exact match must still win.
			w.Write([]byte(starlinkTLE + "ISS (ZARYA) DEB\n1 99999U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005\n2 99999  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09\n" + issTLE))
		default:
			w.Write([]byte("No GP data found\n"))
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(FetcherConfig{LookupURL: server.URL}, testLogger)

	tests := []struct {
		name    string
		id      Identifier
		wantID  int
		wantErr error
		wantQ   string
	}{
		{name: "by catalog number", id: ByNORAD(25544), wantID: 25544, wantQ: "CATNR=25544"},
		{name: "by name prefers exact match", id: ByName("iss (zarya)"), wantID: 25544, wantQ: "NAME=iss"},
		{name: "unknown", id: ByNORAD(1), wantErr: ErrNotFound, wantQ: "CATNR=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := fetcher.FetchOne(context.Background(), tt.id)
			if !strings.Contains(gotQuery, tt.wantQ) || !strings.Contains(gotQuery, "FORMAT=tle") {
				t.Errorf("query = %q, want it to contain %q and FORMAT=tle", gotQuery, tt.wantQ)
			}
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
