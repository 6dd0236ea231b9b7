package wishlist

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glowcart/storefront-api/internal/common"
)

// Handler exposes the authenticated wishlist endpoints.
type Handler struct {
	Svc *Service
}

// List handles GET /api/v1/wishlist.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	items, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, items)
}

// Toggle handles POST /api/v1/wishlist.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var req struct {
		ProductID uuid.UUID `json:"productId"`
	}
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if req.ProductID == uuid.Nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_PRODUCT_ID", "productId is required", nil)
		return
	}
	saved, err := h.Svc.Toggle(r.Context(), userID, req.ProductID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			common.JSONError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "product not found", nil)
			return
		}
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]bool{"saved": saved})
}

// Contains handles GET /api/v1/wishlist/{productId}.
func (h *Handler) Contains(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_PRODUCT_ID", "invalid product id", nil)
		return
	}
	saved, err := h.Svc.Contains(r.Context(), userID, productID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]bool{"saved": saved})
}
