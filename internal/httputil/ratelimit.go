package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPRateLimiter hands out one token bucket per client IP.
type IPRateLimiter struct {
	mu      sync.Mutex
	ips     map[string]*ipLimiter
	r       rate.Limit
	b       int
	maxIdle time.Duration
	now     func() time.Time
	// sweepAt is the map size that triggers the next idle sweep.
	sweepAt int
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const minSweepSize = 1024

// NewIPRateLimiter allows r requests per second with bursts of b per IP.
// Buckets idle longer than ten minutes are dropped as the map grows.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:     make(map[string]*ipLimiter),
		r:       r,
		b:       b,
		maxIdle: 10 * time.Minute,
		now:     time.Now,
		sweepAt: minSweepSize,
	}
}

// GetLimiter returns the limiter for ip, creating it on first use.
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.ips[ip]; ok {
		e.lastSeen = now
		return e.limiter
	}

	if len(l.ips) >= l.sweepAt {
		l.sweep(now)
	}

	e := &ipLimiter{limiter: rate.NewLimiter(l.r, l.b), lastSeen: now}
	l.ips[ip] = e
	return e.limiter
}

// sweep drops idle buckets. Caller holds mu.
func (l *IPRateLimiter) sweep(now time.Time) {
	for ip, e := range l.ips {
		if now.Sub(e.lastSeen) > l.maxIdle {
			delete(l.ips, ip)
		}
	}
	l.sweepAt = max(minSweepSize, 2*len(l.ips))
}

// Len returns the number of tracked IPs.
func (l *IPRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ips)
}

// RateLimitMiddleware rejects requests over the per-IP limit with 429.
// Paths for which exempt returns true are never limited. onLimited, if
// non-nil, is called for every rejected request.
func RateLimitMiddleware(l *IPRateLimiter, trustProxy bool, exempt func(path string) bool, onLimited func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt != nil && exempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			lim := l.GetLimiter(ClientIP(r, trustProxy))
			if !lim.Allow() {
				if onLimited != nil {
					onLimited()
				}
				retry := time.Duration(float64(time.Second) / float64(lim.Limit()))
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(max(1, int(retry.Round(time.Second)/time.Second))))
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
