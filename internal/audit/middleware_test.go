package audit_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/glowcart/storefront-api/internal/audit"
	"github.com/glowcart/storefront-api/internal/common"
	"github.com/glowcart/storefront-api/internal/store"
)

type captureEmitter struct {
	topics   []string
	actors   []uuid.UUID
	payloads []audit.Entry
	fail     error
}

func (c *captureEmitter) Emit(_ context.Context, topic string, aggregateID uuid.UUID, payload any) (store.DomainEvent, error) {
	if c.fail != nil {
		return store.DomainEvent{}, c.fail
	}
	entry, ok := payload.(audit.Entry)
	if !ok {
		return store.DomainEvent{}, errors.New("unexpected payload type")
	}
	c.topics = append(c.topics, topic)
	c.actors = append(c.actors, aggregateID)
	c.payloads = append(c.payloads, entry)
	data, _ := json.Marshal(entry)
	return store.DomainEvent{ID: uuid.New(), Topic: topic, AggregateID: aggregateID, Payload: data}, nil
}

func noopHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
}

func TestRecorderCapturesAdminMutations(t *testing.T) {
	emitter := &captureEmitter{}
	rec := audit.Recorder{Bus: emitter, Logger: zerolog.Nop()}
	handler := rec.Middleware(noopHandler(http.StatusCreated))

	adminID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/coupons?dry=1", nil)
	req.Header.Set("User-Agent", "storefront-admin/1.0")
	req = req.WithContext(common.WithUserID(req.Context(), adminID))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, emitter.payloads, 1)
	require.Equal(t, audit.Topic, emitter.topics[0])
	require.Equal(t, adminID, emitter.actors[0])
	entry := emitter.payloads[0]
	require.Equal(t, "POST /api/v1/admin/coupons", entry.Action)
	require.Equal(t, http.StatusCreated, entry.Status)
	require.Equal(t, "dry=1", entry.Query)
	require.Equal(t, "storefront-admin/1.0", entry.UserAgent)
}

func TestRecorderSkipsReadsAndAnonymous(t *testing.T) {
	emitter := &captureEmitter{}
	rec := audit.Recorder{Bus: emitter, Logger: zerolog.Nop()}
	handler := rec.Middleware(noopHandler(http.StatusOK))

	get := httptest.NewRequest(http.MethodGet, "/api/v1/admin/analytics/overview", nil)
	get = get.WithContext(common.WithUserID(get.Context(), uuid.New()))
	handler.ServeHTTP(httptest.NewRecorder(), get)

	anon := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/coupons/SAVE10", nil)
	handler.ServeHTTP(httptest.NewRecorder(), anon)

	require.Empty(t, emitter.payloads)
}

func TestRecorderFailureDoesNotBreakResponse(t *testing.T) {
	emitter := &captureEmitter{fail: errors.New("bus down")}
	rec := audit.Recorder{Bus: emitter, Logger: zerolog.Nop()}
	handler := rec.Middleware(noopHandler(http.StatusNoContent))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/coupons/SAVE10", nil)
	req = req.WithContext(common.WithUserID(req.Context(), uuid.New()))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
}
