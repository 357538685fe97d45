package httputil

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP extracts the client IP address from the request.
// When trustProxy is true, the first X-Forwarded-For entry and then
// X-Real-IP are used if they hold a valid address; otherwise RemoteAddr.
// Only enable trustProxy behind a reverse proxy that sets these headers.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip, ok := parseIP(first); ok {
				return ip
			}
		}
		if ip, ok := parseIP(r.Header.Get("X-Real-IP")); ok {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseIP returns the canonical form of s, so that spellings of one address
// share a rate-limit bucket.
func parseIP(s string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
