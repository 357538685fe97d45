package config

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config for TOML. Durations are strings ("6h"); pointer
// fields distinguish "absent" from a zero value.
type FileConfig struct {
	HTTPAddr string `toml:"http_addr"`
	LogLevel string `toml:"log_level"`

	AuthEnabled *bool  `toml:"auth_enabled"`
	AuthToken   string `toml:"auth_token"`

	RateLimit  *float64 `toml:"rate_limit"`
	RateBurst  *int     `toml:"rate_burst"`
	TrustProxy *bool    `toml:"trust_proxy"`

	TLE struct {
		EnableFetch     *bool    `toml:"enable_fetch"`
		SourceURL       string   `toml:"source_url"`
		ExtraURLs       []string `toml:"extra_urls"`
		LookupURL       string   `toml:"lookup_url"`
		RefreshInterval string   `toml:"refresh_interval"`
		FetchRetries    *int     `toml:"fetch_retries"`
		CacheDir        string   `toml:"cache_dir"`
		CacheFiles      *int     `toml:"cache_files"`
		File            string   `toml:"file"`
	} `toml:"tle"`
}

// LoadFile reads and parses a TOML config file. Unknown keys are rejected
// so that typos do not silently fall back to defaults.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	f, err := os.Open(path)
	if err != nil {
		return fc, err
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// ApplyFile copies file values into cfg, skipping flags set on the command
// line.
func ApplyFile(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("addr", fc.HTTPAddr, &cfg.HTTPAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setBool("auth-enabled", fc.AuthEnabled, &cfg.AuthEnabled)
	s.setString("auth-token", fc.AuthToken, &cfg.AuthToken)
	s.setFloat("rate-limit", fc.RateLimit, &cfg.RateLimit)
	s.setInt("rate-burst", fc.RateBurst, &cfg.RateBurst)
	s.setBool("trust-proxy", fc.TrustProxy, &cfg.TrustProxy)

	s.setBool("enable-tle-fetch", fc.TLE.EnableFetch, &cfg.EnableTLEFetch)
	s.setString("tle-source-url", fc.TLE.SourceURL, &cfg.TLESourceURL)
	s.setStrings("tle-extra-urls", fc.TLE.ExtraURLs, &cfg.TLEExtraURLs)
	s.setString("tle-lookup-url", fc.TLE.LookupURL, &cfg.TLELookupURL)
	if err := s.setDuration("tle-refresh-interval", fc.TLE.RefreshInterval, &cfg.TLERefreshInterval); err != nil {
		return err
	}
	s.setInt("tle-fetch-retries", fc.TLE.FetchRetries, &cfg.TLEFetchRetries)
	s.setString("tle-cache-dir", fc.TLE.CacheDir, &cfg.TLECacheDir)
	s.setInt("tle-cache-files", fc.TLE.CacheFiles, &cfg.TLECacheFiles)
	s.setString("tle-file", fc.TLE.File, &cfg.TLEFile)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
