package cart

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glowcart/storefront-api/internal/common"
	"github.com/glowcart/storefront-api/internal/coupon"
)

// Handler exposes cart endpoints.
type Handler struct {
	Svc *Service
}

const anonHeader = "X-Session-Id"

type addItemRequest struct {
	ProductID uuid.UUID  `json:"productId"`
	VariantID *uuid.UUID `json:"variantId"`
	Qty       int        `json:"qty"`
}

type updateQtyRequest struct {
	Qty int `json:"qty"`
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

type mergeRequest struct {
	GuestCartID uuid.UUID `json:"guestCartId"`
}

// Ensure handles POST /cart: load-or-create the caller's active cart.
func (h *Handler) Ensure(w http.ResponseWriter, r *http.Request) {
	userID, anonID := identity(r)
	c, err := h.Svc.EnsureCart(r.Context(), userID, anonID)
	if err != nil {
		writeCartError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, c)
}

// Get handles GET /cart/{cartId}: the fully priced cart summary.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathUUID(w, r, "cartId")
	if !ok {
		return
	}
	summary, err := h.Svc.Summarize(r.Context(), cartID)
	if err != nil {
		writeCartError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, summary)
}

// AddItem handles POST /cart/{cartId}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathUUID(w, r, "cartId")
	if !ok {
		return
	}
	var req addItemRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Svc.AddItem(r.Context(), cartID, req.ProductID, req.VariantID, req.Qty); err != nil {
		writeCartError(w, err)
		return
	}
	summary, err := h.Svc.Summarize(r.Context(), cartID)
	if err != nil {
		writeCartError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, summary)
}

// UpdateQty handles PATCH /cart/{cartId}/items/{itemId}.
func (h *Handler) UpdateQty(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathUUID(w, r, "cartId")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}
	var req updateQtyRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Svc.UpdateQty(r.Context(), itemID, req.Qty); err != nil {
		writeCartError(w, err)
		return
	}
	summary, err := h.Svc.Summarize(r.Context(), cartID)
	if err != nil {
		writeCartError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, summary)
}

// RemoveItem handles DELETE /cart/{cartId}/items/{itemId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathUUID(w, r, "cartId")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}
	if err := h.Svc.RemoveItem(r.Context(), cartID, itemID); err != nil {
		writeCartError(w, err)
		return
	}
	summary, err := h.Svc.Summarize(r.Context(), cartID)
	if err != nil {
		writeCartError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, summary)
}

// ApplyCoupon handles POST /cart/{cartId}/coupon.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathUUID(w, r, "cartId")
	if !ok {
		return
	}
	var req applyCouponRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	result, err := h.Svc.ApplyCoupon(r.Context(), cartID, req.Code)
	if err != nil {
		writeCartError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, result)
}

// RemoveCoupon handles DELETE /cart/{cartId}/coupon.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathUUID(w, r, "cartId")
	if !ok {
		return
	}
	if err := h.Svc.RemoveCoupon(r.Context(), cartID); err != nil {
		writeCartError(w, err)
		return
	}
	summary, err := h.Svc.Summarize(r.Context(), cartID)
	if err != nil {
		writeCartError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, summary)
}

// Merge handles POST /cart/merge: fold a guest cart into the signed-in
// user's cart.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var req mergeRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	c, err := h.Svc.Merge(r.Context(), req.GuestCartID, userID)
	if err != nil {
		writeCartError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, c)
}

func identity(r *http.Request) (*uuid.UUID, *string) {
	if id, ok := common.UserID(r.Context()); ok {
		return &id, nil
	}
	if anon := strings.TrimSpace(r.Header.Get(anonHeader)); anon != "" {
		return nil, &anon
	}
	return nil, nil
}

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, param)))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid "+param, nil)
		return uuid.Nil, false
	}
	return id, true
}

func writeCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrNotOwned):
		common.JSONError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, ErrCouponAlreadyApplied):
		common.JSONError(w, http.StatusConflict, "COUPON_ALREADY_APPLIED", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		coupon.WriteRejection(w, err)
	}
}
