package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/glowcart/storefront-api/internal/common"
)

// Middleware enforces a per-client request budget before delegating to the
// next handler. Limiter errors fail open: an unreachable redis must not take
// the storefront down with it.
type Middleware struct {
	Limiter Limiter
	Window  time.Duration
	Max     int
	Logger  zerolog.Logger

	// KeyFunc derives the limit key from a request. Defaults to client IP.
	KeyFunc func(*http.Request) string
}

func (m Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.key(r)
		allowed, remaining, resetAt, err := m.Limiter.Allow(r.Context(), key, m.Window, m.Max)
		if err != nil {
			m.Logger.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(m.Max))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) key(r *http.Request) string {
	if m.KeyFunc != nil {
		return m.KeyFunc(r)
	}
	return common.ClientIP(r)
}
