package order

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/glowcart/storefront-api/internal/common"
	"github.com/glowcart/storefront-api/internal/events"
	"github.com/glowcart/storefront-api/internal/store"
)

// Handler exposes order history endpoints for the signed-in user.
type Handler struct {
	Orders *store.OrderRepo
	Events *events.Bus
}

type orderView struct {
	ID             uuid.UUID `json:"id"`
	Status         string    `json:"status"`
	Currency       string    `json:"currency"`
	TotalMRP       int64     `json:"totalMrp"`
	Subtotal       int64     `json:"subtotal"`
	DiscountOnMRP  int64     `json:"discountOnMrp"`
	CouponDiscount int64     `json:"couponDiscount"`
	Shipping       int64     `json:"shipping"`
	Tax            int64     `json:"tax"`
	GrandTotal     int64     `json:"grandTotal"`
	TotalSavings   int64     `json:"totalSavings"`
	CouponCode     *string   `json:"couponCode,omitempty"`
	CreatedAt      string    `json:"createdAt"`
}

func toView(o store.Order) orderView {
	return orderView{
		ID:             o.ID,
		Status:         o.Status,
		Currency:       o.Currency,
		TotalMRP:       o.TotalMRP,
		Subtotal:       o.Subtotal,
		DiscountOnMRP:  o.DiscountOnMRP,
		CouponDiscount: o.CouponDiscount,
		Shipping:       o.Shipping,
		Tax:            o.Tax,
		GrandTotal:     o.GrandTotal,
		TotalSavings:   o.TotalSavings,
		CouponCode:     o.CouponCode,
		CreatedAt:      o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// List handles GET /orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Orders == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order repository not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	p := common.ParsePagination(r, 20, 100)
	total, err := h.Orders.CountForUser(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count orders", nil)
		return
	}
	orders, err := h.Orders.ListForUser(r.Context(), userID, p.Limit(), p.Offset())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toView(o))
	}
	common.SetTotalCount(w, total)
	common.JSONData(w, http.StatusOK, views)
}

// Get handles GET /orders/{orderId}, including order lines.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Orders == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order repository not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	orderID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "orderId")))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	o, err := h.Orders.GetForUser(r.Context(), orderID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	items, err := h.Orders.ListItems(r.Context(), orderID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order items", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"order": toView(o),
		"items": items,
	})
}

// Cancel handles POST /orders/{orderId}/cancel. Only orders still awaiting
// payment can be cancelled by the customer.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h.Orders == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order repository not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	orderID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "orderId")))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	o, err := h.Orders.GetForUser(r.Context(), orderID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	if o.Status != store.OrderStatusPendingPayment {
		common.JSONError(w, http.StatusConflict, "CONFLICT", "order can no longer be cancelled", nil)
		return
	}
	updated, err := h.Orders.UpdateStatus(r.Context(), orderID, store.OrderStatusCancelled)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to cancel order", nil)
		return
	}
	if h.Events != nil {
		_, _ = h.Events.Emit(r.Context(), events.TopicOrderCancelled, orderID, map[string]any{
			"orderId": orderID.String(),
			"userId":  userID.String(),
		})
	}
	common.JSONData(w, http.StatusOK, toView(updated))
}

var adminStatuses = map[string]bool{
	store.OrderStatusPaid:      true,
	store.OrderStatusShipped:   true,
	store.OrderStatusDelivered: true,
	store.OrderStatusCancelled: true,
}

// UpdateStatus handles PATCH /admin/orders/{orderId}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if h.Orders == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order repository not configured", nil)
		return
	}
	orderID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "orderId")))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := common.DecodeJSON(r, &body); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	status := strings.ToUpper(strings.TrimSpace(body.Status))
	if !adminStatuses[status] {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unsupported order status", nil)
		return
	}
	updated, err := h.Orders.UpdateStatus(r.Context(), orderID, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update order", nil)
		return
	}
	if h.Events != nil {
		_, _ = h.Events.Emit(r.Context(), events.TopicOrderStatusChanged, orderID, map[string]any{
			"orderId": orderID.String(),
			"status":  status,
		})
	}
	common.JSONData(w, http.StatusOK, toView(updated))
}
