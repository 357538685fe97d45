package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "TRAJECTORY_"

// ApplyEnv overrides cfg from TRAJECTORY_* variables, skipping flags set on
// the command line. An unparsable value is logged and ignored, leaving the
// previous value in place.
func ApplyEnv(cfg *Config, changed map[string]bool, logger *slog.Logger) {
	e := envApplier{setter: newConfigSetter(changed), logger: logger}

	e.str("HTTP_ADDR", "addr", &cfg.HTTPAddr)
	e.str("LOG_LEVEL", "log-level", &cfg.LogLevel)
	e.boolean("AUTH_ENABLED", "auth-enabled", &cfg.AuthEnabled)
	e.str("AUTH_TOKEN", "auth-token", &cfg.AuthToken)
	e.float("RATE_LIMIT", "rate-limit", &cfg.RateLimit)
	e.integer("RATE_BURST", "rate-burst", &cfg.RateBurst)
	e.boolean("TRUST_PROXY", "trust-proxy", &cfg.TrustProxy)

	e.boolean("ENABLE_TLE_FETCH", "enable-tle-fetch", &cfg.EnableTLEFetch)
	e.str("TLE_SOURCE_URL", "tle-source-url", &cfg.TLESourceURL)
	if v, ok := e.lookup("TLE_EXTRA_URLS", "tle-extra-urls"); ok {
		cfg.TLEExtraURLs = splitList(v)
	}
	e.str("TLE_LOOKUP_URL", "tle-lookup-url", &cfg.TLELookupURL)
	e.seconds("TLE_REFRESH_INTERVAL", "tle-refresh-interval", &cfg.TLERefreshInterval)
	e.integer("TLE_FETCH_RETRIES", "tle-fetch-retries", &cfg.TLEFetchRetries)
	e.str("TLE_CACHE_DIR", "tle-cache-dir", &cfg.TLECacheDir)
	e.integer("TLE_CACHE_FILES", "tle-cache-files", &cfg.TLECacheFiles)
	e.str("TLE_FILE", "tle-file", &cfg.TLEFile)
}

type envApplier struct {
	setter *configSetter
	logger *slog.Logger
}

func (e envApplier) lookup(name, flag string) (string, bool) {
	if e.setter.changed[flag] {
		return "", false
	}
	v := os.Getenv(EnvPrefix + name)
	return v, v != ""
}

func (e envApplier) invalid(name, v string) {
	e.logger.Warn("invalid "+EnvPrefix+name+" value, ignoring", "component", "config", "value", v)
}

func (e envApplier) str(name, flag string, dst *string) {
	if v, ok := e.lookup(name, flag); ok {
		*dst = v
	}
}

func (e envApplier) boolean(name, flag string, dst *bool) {
	v, ok := e.lookup(name, flag)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.invalid(name, v)
		return
	}
	*dst = b
}

func (e envApplier) integer(name, flag string, dst *int) {
	v, ok := e.lookup(name, flag)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		e.invalid(name, v)
		return
	}
	*dst = n
}

func (e envApplier) float(name, flag string, dst *float64) {
	v, ok := e.lookup(name, flag)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		e.invalid(name, v)
		return
	}
	*dst = f
}

// seconds accepts a whole number of seconds or a Go duration string.
func (e envApplier) seconds(name, flag string, dst *time.Duration) {
	v, ok := e.lookup(name, flag)
	if !ok {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		*dst = time.Duration(n) * time.Second
		return
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		*dst = d
		return
	}
	e.invalid(name, v)
}
