package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/star/trajectory/internal/auth"
	"github.com/star/trajectory/internal/health"
	"github.com/star/trajectory/internal/httputil"
	"github.com/star/trajectory/internal/metrics"
	"github.com/star/trajectory/internal/tle"
	"github.com/star/trajectory/internal/trajectory"
)

// Config holds HTTP transport settings.
type Config struct {
	Addr string
	Auth auth.Config

	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit  float64
	RateBurst  int
	TrustProxy bool
}

// Deps are the components the handlers serve.
type Deps struct {
	Service *trajectory.Service
	// Source resolves single TLE records, including remote fallback.
	Source tle.Source
	Store  *tle.Store
	// Ready backs /readyz; nil is always ready.
	Ready func() bool
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(cfg Config, logger *slog.Logger, deps Deps) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewHandler(cfg, logger, deps),
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// NewHandler builds the routed handler with its middleware chain:
// metrics -> logging -> rate limit -> auth -> mux.
func NewHandler(cfg Config, logger *slog.Logger, deps Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(deps.Ready))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/position", positionHandler(logger, deps.Service))
	mux.HandleFunc("GET /api/v1/look-angles", lookAnglesHandler(logger, deps.Service))
	mux.HandleFunc("GET /api/v1/passes", passesHandler(logger, deps.Service))
	mux.HandleFunc("GET /api/v1/tle/metadata", tleMetadataHandler(deps.Store))
	mux.HandleFunc("GET /api/v1/tle/{norad_id}", tleRecordHandler(logger, deps.Source))

	var handler http.Handler = mux
	handler = auth.Middleware(cfg.Auth)(handler)
	if cfg.RateLimit > 0 {
		limiter := httputil.NewIPRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
		handler = httputil.RateLimitMiddleware(limiter, cfg.TrustProxy, probePath, metrics.IncRateLimited)(handler)
	}
	handler = loggingMiddleware(logger, cfg.TrustProxy)(handler)
	handler = metrics.Middleware(handler)

	return handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness/metrics paths that should not
// log at INFO or count against the rate limit.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
