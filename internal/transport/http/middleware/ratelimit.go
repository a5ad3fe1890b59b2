package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"payslipgen/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

type rateBucket struct {
	count int
	reset time.Time
}

// rateLimiter is a fixed window counter per client key.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	keyFn   RateLimitKeyFunc
	clients map[string]*rateBucket
	now     func() time.Time
}

// RateLimit allows limit requests per window for each caller. Callers are the
// token subject when authenticated, otherwise the client IP. A limit below 1
// disables the middleware.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	if limit < 1 {
		return func(next http.Handler) http.Handler { return next }
	}
	rl := newRateLimiter(limit, window, callerKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newRateLimiter(limit int, window time.Duration, keyFn RateLimitKeyFunc) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		keyFn:   keyFn,
		clients: make(map[string]*rateBucket),
		now:     time.Now,
	}
}

func (rl *rateLimiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	allowed, remaining, reset := rl.take(rl.keyFn(r))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if allowed {
		return true
	}
	retry := max(int(time.Until(reset).Seconds()+0.5), 1)
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func (rl *rateLimiter) take(key string) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket, ok := rl.clients[key]
	if !ok || now.After(bucket.reset) {
		rl.sweep(now)
		bucket = &rateBucket{reset: now.Add(rl.window)}
		rl.clients[key] = bucket
	}
	if bucket.count >= rl.limit {
		return false, 0, bucket.reset
	}
	bucket.count++
	return true, rl.limit - bucket.count, bucket.reset
}

// sweep drops expired buckets; the caller holds mu.
func (rl *rateLimiter) sweep(now time.Time) {
	for key, bucket := range rl.clients {
		if now.After(bucket.reset) {
			delete(rl.clients, key)
		}
	}
}

func callerKey(r *http.Request) string {
	if claims, ok := GetClaims(r.Context()); ok && claims.Subject != "" {
		return "sub:" + claims.Subject
	}
	return ClientIP(r)
}
