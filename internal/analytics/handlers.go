package analytics

import (
	"net/http"
	"time"

	"github.com/glowcart/storefront-api/internal/common"
	"github.com/glowcart/storefront-api/internal/store"
)

// Handler exposes sales reporting endpoints for the admin dashboard.
type Handler struct {
	Svc *Service
}

// Overview returns aggregated sales metrics for the requested range.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_NOT_CONFIGURED", "analytics service not configured", nil)
		return
	}
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	out, err := h.Svc.SalesOverview(r.Context(), from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_ERROR", err.Error(), nil)
		return
	}
	common.JSONData(w, http.StatusOK, out)
}

// TopProducts returns the best selling products within the requested range.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_NOT_CONFIGURED", "analytics service not configured", nil)
		return
	}
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 10)
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := h.Svc.TopProducts(r.Context(), from, to, int32(limit))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_ERROR", err.Error(), nil)
		return
	}
	if rows == nil {
		rows = []store.TopProductRow{}
	}
	common.JSONData(w, http.StatusOK, rows)
}

// window parses from/to (RFC3339) or a days lookback from the query string.
func (h *Handler) window(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	query := r.URL.Query()
	fromStr := query.Get("from")
	toStr := query.Get("to")
	if fromStr == "" && toStr == "" {
		from, to := h.Svc.DefaultWindow()
		if raw := query.Get("days"); raw != "" {
			if days := common.AtoiDefault(raw, 0); days > 0 {
				from = to.AddDate(0, 0, -days)
			}
		}
		return from, to, true
	}
	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid from date", nil)
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid to date", nil)
		return time.Time{}, time.Time{}, false
	}
	if !from.Before(to) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "from must be before to", nil)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
