package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trajectory_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trajectory_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	computationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trajectory_computations_total",
			Help: "Position, look-angle and pass computations by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	propagationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trajectory_propagation_duration_seconds",
			Help:    "Duration of a single SGP4 kernel call in seconds.",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)

	propagationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trajectory_propagations_total",
			Help: "SGP4 kernel calls by outcome.",
		},
		[]string{"outcome"},
	)

	tleDatasetSatellites = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trajectory_tle_dataset_satellites",
			Help: "Number of satellites in the loaded TLE dataset.",
		},
	)

	tleDatasetAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trajectory_tle_dataset_age_seconds",
			Help: "Seconds since the loaded TLE dataset was fetched.",
		},
	)

	tleFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trajectory_tle_fetches_total",
			Help: "Remote TLE fetch attempts by outcome.",
		},
		[]string{"outcome"},
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trajectory_rate_limited_requests_total",
			Help: "Requests rejected by the per-IP rate limiter.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(computationsTotal)
	prometheus.MustRegister(propagationDurationSeconds)
	prometheus.MustRegister(propagationsTotal)
	prometheus.MustRegister(tleDatasetSatellites)
	prometheus.MustRegister(tleDatasetAgeSeconds)
	prometheus.MustRegister(tleFetchesTotal)
	prometheus.MustRegister(rateLimitedTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordComputation counts one orchestrator run. kind is "position" or
// "look_angles"; outcome is "ok" or an error class.
func RecordComputation(kind, outcome string) {
	computationsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObservePropagation records one kernel call.
func ObservePropagation(d time.Duration, ok bool) {
	propagationDurationSeconds.Observe(d.Seconds())
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	propagationsTotal.WithLabelValues(outcome).Inc()
}

// SetTLEDatasetCount sets the number of satellites in the loaded dataset.
func SetTLEDatasetCount(n int) {
	tleDatasetSatellites.Set(float64(n))
}

// SetTLEDatasetAge sets the age of the loaded dataset in seconds.
func SetTLEDatasetAge(seconds float64) {
	tleDatasetAgeSeconds.Set(seconds)
}

// IncTLEFetch counts a remote fetch attempt.
func IncTLEFetch(outcome string) {
	tleFetchesTotal.WithLabelValues(outcome).Inc()
}

// IncRateLimited counts a rejected request.
func IncRateLimited() {
	rateLimitedTotal.Inc()
}

// knownRoutes are exact paths reported under their own label.
var knownRoutes = map[string]bool{
	"/healthz":             true,
	"/readyz":              true,
	"/metrics":             true,
	"/api/v1/position":     true,
	"/api/v1/look-angles":  true,
	"/api/v1/passes":       true,
	"/api/v1/tle/metadata": true,
}

const tlePrefix = "/api/v1/tle/"

// normalizeRoute maps a request path to a bounded set of metric labels so
// that catalog numbers and scanner noise do not explode label cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, tlePrefix); ok && rest != "" {
		if _, err := strconv.Atoi(rest); err == nil {
			return tlePrefix + "{norad_id}"
		}
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
