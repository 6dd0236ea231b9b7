package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/glowcart/storefront-api/internal/common"
)

func idemFixture(t *testing.T) (*miniredis.Miniredis, http.Handler, *int) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	idem := common.Idem{R: rdb, TTL: time.Minute, Logger: zerolog.Nop()}
	calls := 0
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))
	return mr, handler, &calls
}

func TestIdempotencyRejectsDuplicateKey(t *testing.T) {
	_, handler, calls := idemFixture(t)

	first := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	first.Header.Set("Idempotency-Key", "order-attempt-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, first)
	require.Equal(t, http.StatusCreated, rr.Code)

	dup := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	dup.Header.Set("Idempotency-Key", "order-attempt-1")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, dup)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, 1, *calls)
}

func TestIdempotencyWithoutKeyPassesThrough(t *testing.T) {
	_, handler, calls := idemFixture(t)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusCreated, rr.Code)
	}
	require.Equal(t, 2, *calls)
}

func TestIdempotencyFailsOpenOnStoreOutage(t *testing.T) {
	mr, handler, calls := idemFixture(t)
	mr.Close()

	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req.Header.Set("Idempotency-Key", "order-attempt-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, 1, *calls)
}
