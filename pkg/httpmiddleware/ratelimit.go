package httpmiddleware

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the maximum number of requests allowed per window.
	Max int
	// Window is the duration of each sliding window.
	Window time.Duration
	// KeyFunc extracts the rate limit key from a request.
	// If nil, the client IP address is used.
	KeyFunc func(*http.Request) string
	// Message is the body message sent with 429 responses.
	// Defaults to a generic too-many-requests message.
	Message string
}

// bucket tracks request counts for one key across the current window and the
// one before it, which the sliding window estimate blends together.
type bucket struct {
	curr      float64
	currStart time.Time
	prev      float64
	prevStart time.Time
}

// rotate shifts the current window into the previous slot once it elapses,
// and drops the previous count entirely once it falls out of range.
func (b *bucket) rotate(now time.Time, window time.Duration) {
	if now.Sub(b.currStart) < window {
		return
	}
	b.prev, b.prevStart = b.curr, b.currStart
	b.curr = 0
	b.currStart = now.Truncate(window)
	if now.Sub(b.prevStart) >= 2*window {
		b.prev = 0
	}
}

// weighted estimates the request count over the sliding window ending at now,
// counting the previous window proportionally to its overlap.
func (b *bucket) weighted(now time.Time, window time.Duration) float64 {
	overlap := 1.0 - now.Sub(b.currStart).Seconds()/window.Seconds()
	if overlap < 0 {
		overlap = 0
	}
	return b.prev*overlap + b.curr
}

type rateLimiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	buckets map[string]*bucket
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	if cfg.Message == "" {
		cfg.Message = "Too many requests, please try again later."
	}
	return &rateLimiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
	}
}

// allow records the request when within the limit. It returns the remaining
// budget, the time the current window resets, and the admission decision.
func (rl *rateLimiter) allow(key string, now time.Time) (remaining int, resetAt time.Time, allowed bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{currStart: now}
		rl.buckets[key] = b
	}
	b.rotate(now, rl.cfg.Window)

	resetAt = b.currStart.Add(rl.cfg.Window)
	count := b.weighted(now, rl.cfg.Window)
	if count >= float64(rl.cfg.Max) {
		return 0, resetAt, false
	}

	b.curr++
	remaining = int(float64(rl.cfg.Max) - count - 1)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, resetAt, true
}

// evictStale drops buckets whose windows have fully expired.
func (rl *rateLimiter) evictStale(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.buckets {
		if now.Sub(b.currStart) >= 2*rl.cfg.Window {
			delete(rl.buckets, key)
		}
	}
}

// RateLimit returns a middleware enforcing a per-key sliding window limit.
// Rejected requests get 429 with a JSON body; every response carries the
// X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset headers.
//
// This variant never evicts idle keys. Use RateLimitWithCleanup on
// long-running servers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newRateLimiter(cfg).middleware()
}

// RateLimitWithCleanup is like RateLimit but also runs a background goroutine
// that evicts expired keys every 2x the window duration until ctx is
// cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	rl := newRateLimiter(cfg)
	go func() {
		ticker := time.NewTicker(2 * rl.cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.evictStale(now)
			}
		}
	}()
	return rl.middleware()
}

func (rl *rateLimiter) middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, resetAt, allowed := rl.allow(rl.cfg.KeyFunc(r), time.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !allowed {
				retryAfter := int(math.Ceil(math.Max(time.Until(resetAt).Seconds(), 0)))
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success":    false,
					"message":    rl.cfg.Message,
					"retryAfter": retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the caller address, preferring X-Forwarded-For and
// X-Real-IP over RemoteAddr so limits apply per client behind a proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Comma-separated chain; the first hop is the client.
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
