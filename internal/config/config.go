// Package config assembles service configuration from defaults, an optional
// TOML file, TRAJECTORY_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	DefaultTLESourceURL = "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle"
	DefaultTLELookupURL = "https://celestrak.org/NORAD/elements/gp.php"
)

// Config holds the service configuration.
type Config struct {
	HTTPAddr string
	LogLevel string

	AuthEnabled bool
	AuthToken   string

	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit  float64
	RateBurst  int
	TrustProxy bool

	EnableTLEFetch     bool
	TLESourceURL       string
	TLEExtraURLs       []string
	TLELookupURL       string
	TLERefreshInterval time.Duration
	TLEFetchRetries    int
	TLEFetchBackoff    time.Duration
	TLECacheDir        string
	TLECacheFiles      int

	// TLEFile is a local catalog loaded at startup and reloaded on change.
	TLEFile string
}

// Default returns a Config with default values.
func Default() Config {
	return Config{
		HTTPAddr:           ":8080",
		LogLevel:           "info",
		RateLimit:          10,
		RateBurst:          20,
		EnableTLEFetch:     true,
		TLESourceURL:       DefaultTLESourceURL,
		TLELookupURL:       DefaultTLELookupURL,
		TLERefreshInterval: 6 * time.Hour,
		TLEFetchRetries:    3,
		TLEFetchBackoff:    5 * time.Second,
		TLECacheDir:        "/tmp/trajectory/tle",
		TLECacheFiles:      5,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("http address is required")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.AuthEnabled && c.AuthToken == "" {
		return errors.New("auth token is required when auth is enabled")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("rate burst must be at least 1, got %d", c.RateBurst)
	}
	if c.EnableTLEFetch {
		if c.TLESourceURL == "" {
			return errors.New("TLE source URL is required when fetching is enabled")
		}
		if c.TLERefreshInterval <= 0 {
			return errors.New("TLE refresh interval must be positive")
		}
		if c.TLEFetchRetries < 1 {
			return fmt.Errorf("TLE fetch retries must be at least 1, got %d", c.TLEFetchRetries)
		}
	}
	if c.TLECacheFiles < 1 {
		return fmt.Errorf("TLE cache files must be at least 1, got %d", c.TLECacheFiles)
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.AuthToken != "" {
		c.AuthToken = "*****"
	}
	return c
}

// LogValue implements slog.LogValuer.
func (c Config) LogValue() slog.Value {
	r := c.Redacted()
	return slog.GroupValue(
		slog.String("http_addr", r.HTTPAddr),
		slog.String("log_level", r.LogLevel),
		slog.Bool("auth_enabled", r.AuthEnabled),
		slog.Float64("rate_limit", r.RateLimit),
		slog.Int("rate_burst", r.RateBurst),
		slog.Bool("trust_proxy", r.TrustProxy),
		slog.Bool("tle_fetch_enabled", r.EnableTLEFetch),
		slog.String("tle_source_url", r.TLESourceURL),
		slog.Any("tle_extra_urls", r.TLEExtraURLs),
		slog.String("tle_lookup_url", r.TLELookupURL),
		slog.Duration("tle_refresh_interval", r.TLERefreshInterval),
		slog.Int("tle_fetch_retries", r.TLEFetchRetries),
		slog.String("tle_cache_dir", r.TLECacheDir),
		slog.Int("tle_cache_files", r.TLECacheFiles),
		slog.String("tle_file", r.TLEFile),
	)
}

// configSetter applies a value only when the matching flag was not set on
// the command line.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	if changed == nil {
		changed = map[string]bool{}
	}
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setInt(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setFloat(flag string, value *float64, dst *float64) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = value
}

// splitList splits a comma-separated list and drops empty entries.
func splitList(v string) []string {
	var out []string
	for _, u := range strings.Split(v, ",") {
		u = strings.TrimSpace(u)
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}
