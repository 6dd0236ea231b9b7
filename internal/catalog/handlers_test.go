package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/glowcart/storefront-api/internal/catalog"
	"github.com/glowcart/storefront-api/internal/store"
)

type fakeCatalogRepo struct {
	products    []store.Product
	variants    map[uuid.UUID][]store.Variant
	collections []store.Collection

	listCalls int
}

func (f *fakeCatalogRepo) ListProducts(_ context.Context, collectionID *uuid.UUID, limit, offset int32) ([]store.Product, error) {
	f.listCalls++
	var out []store.Product
	for _, p := range f.products {
		if collectionID != nil && (p.CollectionID == nil || *p.CollectionID != *collectionID) {
			continue
		}
		out = append(out, p)
	}
	if int(offset) >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCatalogRepo) CountProducts(_ context.Context, collectionID *uuid.UUID) (int64, error) {
	var total int64
	for _, p := range f.products {
		if collectionID != nil && (p.CollectionID == nil || *p.CollectionID != *collectionID) {
			continue
		}
		total++
	}
	return total, nil
}

func (f *fakeCatalogRepo) GetProductBySlug(_ context.Context, slug string) (store.Product, error) {
	for _, p := range f.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return store.Product{}, pgx.ErrNoRows
}

func (f *fakeCatalogRepo) ListVariants(_ context.Context, productID uuid.UUID) ([]store.Variant, error) {
	return f.variants[productID], nil
}

func (f *fakeCatalogRepo) ListCollections(_ context.Context) ([]store.Collection, error) {
	return f.collections, nil
}

func (f *fakeCatalogRepo) GetCollectionBySlug(_ context.Context, slug string) (store.Collection, error) {
	for _, c := range f.collections {
		if c.Slug == slug {
			return c, nil
		}
	}
	return store.Collection{}, pgx.ErrNoRows
}

func newCatalogFixture(t *testing.T) (*fakeCatalogRepo, *catalog.Handler) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	serums := store.Collection{ID: uuid.New(), Slug: "serums", Name: "Serums", CreatedAt: time.Now()}
	masks := store.Collection{ID: uuid.New(), Slug: "masks", Name: "Masks", CreatedAt: time.Now()}

	glow := store.Product{
		ID: uuid.New(), Slug: "glow-serum", Name: "Glow Serum", Brand: "Lumine",
		Price: 79900, MRP: 99900, CollectionID: &serums.ID, Stock: 12, Active: true,
	}
	clay := store.Product{
		ID: uuid.New(), Slug: "clay-mask", Name: "Clay Mask", Brand: "Lumine",
		Price: 49900, MRP: 49900, CollectionID: &masks.ID, Stock: 4, Active: true,
	}

	repo := &fakeCatalogRepo{
		products:    []store.Product{glow, clay},
		collections: []store.Collection{masks, serums},
		variants: map[uuid.UUID][]store.Variant{
			glow.ID: {{ID: uuid.New(), ProductID: glow.ID, Name: "30ml", Price: 79900, MRP: 99900, Stock: 12}},
		},
	}
	svc := &catalog.Service{
		Repo:   repo,
		Cache:  catalog.NewCache(client, time.Minute),
		Logger: zerolog.Nop(),
	}
	return repo, &catalog.Handler{Svc: svc}
}

func newCatalogRouter(h *catalog.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/products", h.Products)
	r.Get("/products/{slug}", h.Product)
	r.Get("/collections", h.Collections)
	r.Get("/collections/{slug}", h.Collection)
	return r
}

func TestProductsListAndCollectionFilter(t *testing.T) {
	_, h := newCatalogFixture(t)
	router := newCatalogRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2", rec.Header().Get("X-Total-Count"))

	var body struct {
		Data []store.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?collection=serums", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "glow-serum", body.Data[0].Slug)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?collection=no-such", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductsListServedFromCache(t *testing.T) {
	repo, h := newCatalogFixture(t)
	router := newCatalogRouter(h)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, 1, repo.listCalls, "repeat listings should hit the cache")
}

func TestProductDetailWithVariants(t *testing.T) {
	_, h := newCatalogFixture(t)
	router := newCatalogRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/glow-serum", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data catalog.ProductDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Glow Serum", body.Data.Name)
	require.Len(t, body.Data.Variants, 1)
	require.Equal(t, "30ml", body.Data.Variants[0].Name)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/unknown", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCollectionsEndpoints(t *testing.T) {
	_, h := newCatalogFixture(t)
	router := newCatalogRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/collections", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []store.Collection `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/collections/serums", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var one struct {
		Data store.Collection `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	require.Equal(t, "Serums", one.Data.Name)
}
