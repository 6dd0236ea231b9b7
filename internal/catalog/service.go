package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/glowcart/storefront-api/internal/store"
)

// ErrNotFound is returned for unknown slugs.
var ErrNotFound = errors.New("catalog: not found")

// Repo is the slice of the catalog store the service reads from.
type Repo interface {
	ListProducts(ctx context.Context, collectionID *uuid.UUID, limit, offset int32) ([]store.Product, error)
	CountProducts(ctx context.Context, collectionID *uuid.UUID) (int64, error)
	GetProductBySlug(ctx context.Context, slug string) (store.Product, error)
	ListVariants(ctx context.Context, productID uuid.UUID) ([]store.Variant, error)
	ListCollections(ctx context.Context) ([]store.Collection, error)
	GetCollectionBySlug(ctx context.Context, slug string) (store.Collection, error)
}

// ProductPage is one page of the product listing.
type ProductPage struct {
	Items []store.Product `json:"items"`
	Total int64           `json:"total"`
}

// ProductDetail is a product with its variants.
type ProductDetail struct {
	store.Product
	Variants []store.Variant `json:"variants"`
}

// Service serves storefront catalog reads, caching hot payloads in redis.
type Service struct {
	Repo   Repo
	Cache  *Cache
	Logger zerolog.Logger
}

// ListProducts pages through active products, optionally scoped to the
// collection with the given slug.
func (s *Service) ListProducts(ctx context.Context, collectionSlug string, limit, offset int32) (ProductPage, error) {
	if s == nil || s.Repo == nil {
		return ProductPage{}, errors.New("catalog service not configured")
	}

	var collectionID *uuid.UUID
	if collectionSlug != "" {
		col, err := s.Repo.GetCollectionBySlug(ctx, collectionSlug)
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductPage{}, ErrNotFound
		}
		if err != nil {
			return ProductPage{}, fmt.Errorf("resolve collection: %w", err)
		}
		collectionID = &col.ID
	}

	key := productListKey(collectionID, limit, offset)
	var page ProductPage
	if hit, err := s.Cache.GetJSON(ctx, key, &page); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	} else if hit {
		return page, nil
	}

	items, err := s.Repo.ListProducts(ctx, collectionID, limit, offset)
	if err != nil {
		return ProductPage{}, err
	}
	total, err := s.Repo.CountProducts(ctx, collectionID)
	if err != nil {
		return ProductPage{}, err
	}
	if items == nil {
		items = []store.Product{}
	}
	page = ProductPage{Items: items, Total: total}

	if err := s.Cache.SetJSON(ctx, key, page); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return page, nil
}

// GetProduct loads an active product with its variants by slug.
func (s *Service) GetProduct(ctx context.Context, slug string) (ProductDetail, error) {
	if s == nil || s.Repo == nil {
		return ProductDetail{}, errors.New("catalog service not configured")
	}

	key := productDetailKey(slug)
	var detail ProductDetail
	if hit, err := s.Cache.GetJSON(ctx, key, &detail); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	} else if hit {
		return detail, nil
	}

	p, err := s.Repo.GetProductBySlug(ctx, slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductDetail{}, ErrNotFound
	}
	if err != nil {
		return ProductDetail{}, fmt.Errorf("get product: %w", err)
	}
	variants, err := s.Repo.ListVariants(ctx, p.ID)
	if err != nil {
		return ProductDetail{}, fmt.Errorf("list variants: %w", err)
	}
	if variants == nil {
		variants = []store.Variant{}
	}
	detail = ProductDetail{Product: p, Variants: variants}

	if err := s.Cache.SetJSON(ctx, key, detail); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return detail, nil
}

// ListCollections returns every collection ordered by name.
func (s *Service) ListCollections(ctx context.Context) ([]store.Collection, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("catalog service not configured")
	}

	key := collectionsKey()
	var collections []store.Collection
	if hit, err := s.Cache.GetJSON(ctx, key, &collections); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	} else if hit {
		return collections, nil
	}

	collections, err := s.Repo.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	if collections == nil {
		collections = []store.Collection{}
	}
	if err := s.Cache.SetJSON(ctx, key, collections); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return collections, nil
}

// GetCollection loads one collection by slug.
func (s *Service) GetCollection(ctx context.Context, slug string) (store.Collection, error) {
	if s == nil || s.Repo == nil {
		return store.Collection{}, errors.New("catalog service not configured")
	}
	col, err := s.Repo.GetCollectionBySlug(ctx, slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Collection{}, ErrNotFound
	}
	return col, err
}
