package reviews

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glowcart/storefront-api/internal/common"
)

// Handler exposes review endpoints. Listing is public, writes need auth.
type Handler struct {
	Svc *Service
}

// List handles GET /api/v1/products/{productId}/reviews.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_PRODUCT_ID", "invalid product id", nil)
		return
	}
	pg := common.ParsePagination(r, 10, 50)
	page, err := h.Svc.ListByProduct(r.Context(), productID, pg.Limit(), pg.Offset())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, page)
}

// Create handles POST /api/v1/products/{productId}/reviews.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
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
	var req struct {
		Rating  int32  `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	rev, err := h.Svc.Create(r.Context(), userID, productID, req.Rating, req.Comment)
	if err != nil {
		writeReviewError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, rev)
}

// Delete handles DELETE /api/v1/reviews/{reviewId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	reviewID, err := uuid.Parse(chi.URLParam(r, "reviewId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_REVIEW_ID", "invalid review id", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), reviewID, userID); err != nil {
		writeReviewError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRating):
		common.JSONError(w, http.StatusBadRequest, "INVALID_RATING", "rating must be between 1 and 5", nil)
	case errors.Is(err, ErrAlreadyReviewed):
		common.JSONError(w, http.StatusConflict, "ALREADY_REVIEWED", "you already reviewed this product", nil)
	case errors.Is(err, ErrProductNotFound):
		common.JSONError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "product not found", nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "REVIEW_NOT_FOUND", "review not found", nil)
	default:
		common.WriteError(w, err)
	}
}
