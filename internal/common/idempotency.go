package common

import (
	"context"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Idem provides an Idempotency-Key middleware backed by Redis. The first
// request holding a key wins; requests that reuse it inside the TTL window
// receive a 409 without reaching the handler. Redis errors fail open: the
// request proceeds unprotected rather than failing.
type Idem struct {
	R      *redis.Client
	TTL    time.Duration
	Logger zerolog.Logger
}

// Middleware enforces idempotency semantics for write endpoints.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := "idem:" + Sha256Hex(header)
		ok, err := i.R.SetNX(r.Context(), key, "locked", i.TTL).Result()
		if err != nil {
			i.Logger.Warn().Err(err).Msg("idempotency store unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}
		defer func() {
			// ensure the key expires even if handler panics
			_ = i.R.Expire(context.Background(), key, i.TTL).Err()
		}()
		next.ServeHTTP(w, r)
	})
}
