package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/glowcart/storefront-api/internal/common"
)

// Handler exposes public catalog endpoints.
type Handler struct {
	Svc *Service
}

// Products handles GET /api/v1/products with optional ?collection= filter.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	pg := common.ParsePagination(r, 20, 100)
	page, err := h.Svc.ListProducts(r.Context(), r.URL.Query().Get("collection"), pg.Limit(), pg.Offset())
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	common.SetTotalCount(w, page.Total)
	common.JSONData(w, http.StatusOK, page.Items)
}

// Product handles GET /api/v1/products/{slug}.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Svc.GetProduct(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, detail)
}

// Collections handles GET /api/v1/collections.
func (h *Handler) Collections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.Svc.ListCollections(r.Context())
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, collections)
}

// Collection handles GET /api/v1/collections/{slug}.
func (h *Handler) Collection(w http.ResponseWriter, r *http.Request) {
	col, err := h.Svc.GetCollection(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, col)
}

func writeCatalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "catalog entry not found", nil)
		return
	}
	common.WriteError(w, err)
}
