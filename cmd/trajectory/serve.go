package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/trajectory/internal/api"
	"github.com/star/trajectory/internal/auth"
	"github.com/star/trajectory/internal/config"
	"github.com/star/trajectory/internal/metrics"
	"github.com/star/trajectory/internal/tle"
	"github.com/star/trajectory/internal/trajectory"
)

func newServeCmd(cfg *config.Config, cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cfg.LogLevel, os.Stdout)
			if err != nil {
				return err
			}
			if err := loadConfig(cmd, cfg, *cfgPath, logger); err != nil {
				return err
			}
			// The level may have come from the file or environment.
			if logger, err = newLogger(cfg.LogLevel, os.Stdout); err != nil {
				return err
			}
			logger.Info("configuration", "component", "main", "config", *cfg)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, *cfg, logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	f.BoolVar(&cfg.AuthEnabled, "auth-enabled", cfg.AuthEnabled, "require a bearer token on computation endpoints")
	f.StringVar(&cfg.AuthToken, "auth-token", cfg.AuthToken, "bearer token (prefer TRAJECTORY_AUTH_TOKEN)")
	f.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "requests per second per client IP, 0 disables")
	f.IntVar(&cfg.RateBurst, "rate-burst", cfg.RateBurst, "rate limit burst size")
	f.BoolVar(&cfg.TrustProxy, "trust-proxy", cfg.TrustProxy, "use X-Forwarded-For / X-Real-IP for client IPs")
	f.BoolVar(&cfg.EnableTLEFetch, "enable-tle-fetch", cfg.EnableTLEFetch, "fetch TLE data from the remote catalog")
	f.StringVar(&cfg.TLESourceURL, "tle-source-url", cfg.TLESourceURL, "bulk TLE catalog URL")
	f.StringSliceVar(&cfg.TLEExtraURLs, "tle-extra-urls", cfg.TLEExtraURLs, "additional TLE URLs appended to the catalog")
	f.StringVar(&cfg.TLELookupURL, "tle-lookup-url", cfg.TLELookupURL, "per-satellite TLE query URL")
	f.DurationVar(&cfg.TLERefreshInterval, "tle-refresh-interval", cfg.TLERefreshInterval, "remote catalog refresh interval")
	f.IntVar(&cfg.TLEFetchRetries, "tle-fetch-retries", cfg.TLEFetchRetries, "fetch attempts per refresh")
	f.StringVar(&cfg.TLECacheDir, "tle-cache-dir", cfg.TLECacheDir, "directory for TLE snapshots")
	f.IntVar(&cfg.TLECacheFiles, "tle-cache-files", cfg.TLECacheFiles, "number of TLE snapshots to keep")
	f.StringVar(&cfg.TLEFile, "tle-file", cfg.TLEFile, "local TLE file to load and watch (replaces the bulk catalog)")

	return cmd
}

// serve runs the service until ctx is done.
//
// TLE data comes from the local file when one is configured, otherwise from
// the disk cache followed by scheduled remote refreshes. Per-satellite remote
// lookups back both whenever fetching is enabled.
func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store := tle.NewStore()

	var fetcher *tle.Fetcher
	if cfg.EnableTLEFetch {
		fetcher = tle.NewFetcher(tle.FetcherConfig{
			SourceURL: cfg.TLESourceURL,
			ExtraURLs: cfg.TLEExtraURLs,
			LookupURL: cfg.TLELookupURL,
		}, logger)
	}

	if cfg.TLEFile != "" {
		watcher := tle.NewWatcher(cfg.TLEFile, store, logger)
		if err := watcher.Load(); err != nil {
			return fmt.Errorf("load TLE file: %w", err)
		}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("TLE file watcher stopped", "component", "tle", "error", err)
			}
		}()
	} else {
		cache := tle.NewCache(cfg.TLECacheDir, cfg.TLECacheFiles)
		if ds, err := cache.LoadDataset(logger); err != nil {
			logger.Info("no usable TLE cache, starting without TLE data", "component", "tle", "error", err)
		} else {
			store.Set(ds)
			metrics.SetTLEDatasetCount(ds.Len())
			logger.Info("loaded TLE data from cache", "component", "tle", "count", ds.Len(), "cached_at", ds.FetchedAt.Format(time.RFC3339))
		}

		if fetcher != nil {
			refresher := tle.NewRefresher(store, fetcher, cache, tle.RefresherConfig{
				Interval: cfg.TLERefreshInterval,
				Retries:  cfg.TLEFetchRetries,
				Backoff:  cfg.TLEFetchBackoff,
			}, logger)
			go refresher.Run(ctx)
		}
	}

	resolver := tle.NewResolver(store, fetcher, logger)
	svc := trajectory.NewService(resolver, nil, logger)

	srv := api.NewServer(api.Config{
		Addr:       cfg.HTTPAddr,
		Auth:       auth.Config{Enabled: cfg.AuthEnabled, Token: cfg.AuthToken},
		RateLimit:  cfg.RateLimit,
		RateBurst:  cfg.RateBurst,
		TrustProxy: cfg.TrustProxy,
	}, logger, api.Deps{
		Service: svc,
		Source:  resolver,
		Store:   store,
		Ready:   resolver.Ready,
	})

	// Background goroutine to update TLE dataset age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age := store.AgeSeconds(); age >= 0 {
					metrics.SetTLEDatasetAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "component", "main", "addr", cfg.HTTPAddr, "auth_enabled", cfg.AuthEnabled, "tle_fetch_enabled", cfg.EnableTLEFetch)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down server...", "component", "main")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped", "component", "main")
	return nil
}
