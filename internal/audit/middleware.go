package audit

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/glowcart/storefront-api/internal/common"
	"github.com/glowcart/storefront-api/internal/obs"
	"github.com/glowcart/storefront-api/internal/store"
)

// Topic is the event stream administrative actions are recorded on.
const Topic = "admin.audit"

// Emitter persists audit entries. *events.Bus satisfies it.
type Emitter interface {
	Emit(ctx context.Context, topic string, aggregateID uuid.UUID, payload any) (store.DomainEvent, error)
}

// Entry is the audit payload recorded for each administrative mutation.
type Entry struct {
	Action    string `json:"action"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Query     string `json:"query,omitempty"`
}

// Recorder writes an audit trail of mutating admin requests to the event bus.
// Recording failures are logged, never surfaced to the caller.
type Recorder struct {
	Bus    Emitter
	Logger zerolog.Logger
}

// Middleware records POST/PUT/PATCH/DELETE requests after they complete.
func (rec Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rec.Bus == nil || !mutating(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		sw := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		actorID, ok := common.UserID(r.Context())
		if !ok {
			return
		}

		route := obs.RoutePatternFromContext(r.Context())
		if route == "" {
			route = r.URL.Path
		}
		entry := Entry{
			Action:    r.Method + " " + route,
			Path:      r.URL.Path,
			Status:    sw.Status(),
			IP:        common.ClientIP(r),
			UserAgent: r.Header.Get("User-Agent"),
			RequestID: r.Header.Get("X-Request-ID"),
			Query:     r.URL.RawQuery,
		}
		if _, err := rec.Bus.Emit(r.Context(), Topic, actorID, entry); err != nil {
			rec.Logger.Warn().Err(err).Str("action", entry.Action).Msg("audit record failed")
		}
	})
}

func mutating(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
