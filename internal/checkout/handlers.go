package checkout

import (
	"errors"
	"net/http"

	"github.com/glowcart/storefront-api/internal/cart"
	"github.com/glowcart/storefront-api/internal/common"
)

// Handler exposes the checkout endpoint.
type Handler struct {
	Svc *Service
}

// Checkout handles POST /checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload Input
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	out, err := h.Svc.Create(r.Context(), userID, payload)
	if err != nil {
		writeCheckoutError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, out)
}

func writeCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrCartNotOwned):
		common.JSONError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, ErrCartEmpty):
		common.JSONError(w, http.StatusBadRequest, "CART_EMPTY", err.Error(), nil)
	default:
		common.WriteError(w, err)
	}
}
