package tle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSourceURL = "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle"
	defaultLookupURL = "https://celestrak.org/NORAD/elements/gp.php"

	// maxBodyBytes caps a single response body.
	maxBodyBytes = 50 << 20
)

// FetcherConfig selects the remote catalog endpoints.
type FetcherConfig struct {
	// SourceURL serves the bulk catalog.
	SourceURL string
	// ExtraURLs are fetched after SourceURL and appended to it. A failing
	// extra URL is logged and skipped.
	ExtraURLs []string
	// LookupURL is the per-satellite query endpoint, queried with
	// CATNR=<id> or NAME=<name> and FORMAT=tle.
	LookupURL string
}

// Fetcher retrieves raw TLE data from a remote source.
type Fetcher struct {
	cfg        FetcherConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher. Empty URLs fall back to the CelesTrak defaults.
func NewFetcher(cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	if cfg.SourceURL == "" {
		cfg.SourceURL = defaultSourceURL
	}
	if cfg.LookupURL == "" {
		cfg.LookupURL = defaultLookupURL
	}
	return &Fetcher{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SourceURL returns the configured bulk source URL.
func (f *Fetcher) SourceURL() string {
	return f.cfg.SourceURL
}

// Fetch retrieves the bulk catalog plus any extra URLs.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	body, err := f.get(ctx, f.cfg.SourceURL)
	if err != nil {
		return nil, err
	}

	if len(f.cfg.ExtraURLs) == 0 {
		return body, nil
	}

	var buf bytes.Buffer
	buf.Write(body)
	for _, u := range f.cfg.ExtraURLs {
		extra, err := f.get(ctx, u)
		if err != nil {
			f.logger.Warn("extra TLE source failed", "component", "tle", "url", u, "error", err)
			continue
		}
		if buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
			buf.WriteByte('\n')
		}
		buf.Write(extra)
	}
	return buf.Bytes(), nil
}

// FetchOne queries the lookup endpoint for a single satellite. A name query
// prefers an exact (case-insensitive) name match over a partial one.
func (f *Fetcher) FetchOne(ctx context.Context, id Identifier) (Record, error) {
	q := url.Values{}
	if id.IsName() {
		q.Set("NAME", id.Name)
	} else {
		q.Set("CATNR", strconv.Itoa(id.NORADID))
	}
	q.Set("FORMAT", "tle")

	u, err := url.Parse(f.cfg.LookupURL)
	if err != nil {
		return Record{}, fmt.Errorf("parsing lookup URL: %w", err)
	}
	u.RawQuery = q.Encode()

	body, err := f.get(ctx, u.String())
	if err != nil {
		return Record{}, err
	}

	records, err := Parse(bytes.NewReader(body), f.logger)
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if !id.IsName() {
		for _, rec := range records {
			if rec.NORADID == id.NORADID {
				return rec, nil
			}
		}
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	for _, rec := range records {
		if strings.EqualFold(rec.Name, id.Name) {
			return rec, nil
		}
	}
	return records[0], nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching TLE data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("response from %s exceeds %d byte limit", rawURL, maxBodyBytes)
	}

	return body, nil
}
