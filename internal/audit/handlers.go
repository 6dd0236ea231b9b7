package audit

import (
	"context"
	"net/http"

	"github.com/glowcart/storefront-api/internal/common"
	"github.com/glowcart/storefront-api/internal/store"
)

// Trail reads recorded audit entries.
type Trail interface {
	ListByTopic(ctx context.Context, topic string, limit, offset int32) ([]store.DomainEvent, error)
}

// Handler exposes the audit trail to administrators.
type Handler struct {
	Trail Trail
}

// List returns recorded admin actions newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Trail == nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_NOT_CONFIGURED", "audit trail not configured", nil)
		return
	}
	page := common.ParsePagination(r, 50, 200)
	entries, err := h.Trail.ListByTopic(r.Context(), Topic, page.Limit(), page.Offset())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "unable to fetch audit trail", nil)
		return
	}
	if entries == nil {
		entries = []store.DomainEvent{}
	}
	common.JSONData(w, http.StatusOK, entries)
}
