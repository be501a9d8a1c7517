package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

type bucket struct {
	count int
	until time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	per     time.Duration
	buckets map[string]*bucket
}

func newRateLimiter(limit int, per time.Duration) *rateLimiter {
	return &rateLimiter{limit: limit, per: per, buckets: make(map[string]*bucket)}
}

// allow counts one request for ip. When the window is exhausted it
// returns false and the instant the window resets.
func (l *rateLimiter) allow(ip string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[ip]
	if !ok || now.After(b.until) {
		// Opening a fresh window doubles as the sweep point, so
		// buckets for idle clients do not pile up.
		l.sweepLocked(now)
		b = &bucket{count: 0, until: now.Add(l.per)}
		l.buckets[ip] = b
	}
	if b.count >= l.limit {
		return false, b.until
	}
	b.count++
	return true, time.Time{}
}

func (l *rateLimiter) sweepLocked(now time.Time) {
	for ip, b := range l.buckets {
		if now.After(b.until) {
			delete(l.buckets, ip)
		}
	}
}

// RateLimit caps requests per client IP to limit within each window.
// Fixed-window counting; buckets reset when their window expires.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	limiter := newRateLimiter(limit, per)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry := limiter.allow(clientIPForRateLimit(r), time.Now())
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(retry).Seconds())+1))
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIPForRateLimit(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
