package user

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glowcart/storefront-api/internal/common"
)

// Handler exposes the authenticated address book endpoints.
type Handler struct {
	Svc *Service
}

// List handles GET /api/v1/users/me/addresses.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	addresses, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, addresses)
}

// Create handles POST /api/v1/users/me/addresses.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var in AddressInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	created, err := h.Svc.Create(r.Context(), userID, in)
	if err != nil {
		writeAddressError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, created)
}

// Update handles PATCH /api/v1/users/me/addresses/{addressId}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	addressID, err := uuid.Parse(chi.URLParam(r, "addressId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_ADDRESS_ID", "invalid address id", nil)
		return
	}
	var in AddressInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	updated, err := h.Svc.Update(r.Context(), userID, addressID, in)
	if err != nil {
		writeAddressError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/users/me/addresses/{addressId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	addressID, err := uuid.Parse(chi.URLParam(r, "addressId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_ADDRESS_ID", "invalid address id", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), userID, addressID); err != nil {
		writeAddressError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeAddressError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrAddressNotFound) {
		common.JSONError(w, http.StatusNotFound, "ADDRESS_NOT_FOUND", "address not found", nil)
		return
	}
	common.WriteError(w, err)
}
