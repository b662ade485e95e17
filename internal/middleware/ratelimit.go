package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RealIP returns the client address for rate limiting and request logs.
// It trusts X-Real-IP and X-Forwarded-For since Homeboard normally sits
// behind a single reverse proxy on the home network.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the original client.
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type rateBucket struct {
	count     int
	resetFrom time.Time
	window    time.Duration
}

// RateLimiter counts requests per key over fixed windows. Counts reset
// when a window lapses rather than sliding, which is plenty for keeping
// brute-force login attempts out.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateBucket
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{entries: make(map[string]*rateBucket)}
}

// Allow records one request for key and reports whether it fits within
// limit requests per window.
func (rl *RateLimiter) Allow(key string, limit int, window time.Duration) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.entries[key]
	if !ok || now.Sub(b.resetFrom) >= window {
		rl.entries[key] = &rateBucket{count: 1, resetFrom: now, window: window}
		return true
	}
	if b.count >= limit {
		return false
	}
	b.count++
	return true
}

// Cleanup drops buckets whose window has lapsed. Run it periodically so
// one-off clients do not accumulate forever.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, b := range rl.entries {
		if now.Sub(b.resetFrom) >= b.window {
			delete(rl.entries, key)
		}
	}
}

// RateLimit rejects requests beyond limit per window, keyed by keyFunc.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(keyFunc(r), limit, window) {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
