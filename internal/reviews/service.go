package reviews

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/glowcart/storefront-api/internal/store"
)

// Review service errors mapped to HTTP statuses by the handler.
var (
	ErrInvalidRating   = errors.New("reviews: rating must be between 1 and 5")
	ErrAlreadyReviewed = errors.New("reviews: user already reviewed this product")
	ErrProductNotFound = errors.New("reviews: product not found")
	ErrNotFound        = errors.New("reviews: review not found")
)

// Store is the persistence slice the service needs.
type Store interface {
	Create(ctx context.Context, rev store.Review) (store.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, limit, offset int32) ([]store.Review, error)
	Stats(ctx context.Context, productID uuid.UUID) (store.ReviewStats, error)
	Delete(ctx context.Context, reviewID, userID uuid.UUID) (bool, error)
}

// Catalog verifies products exist before reviews attach to them.
type Catalog interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (store.Product, error)
}

// Page is one page of reviews with the product's aggregate stats.
type Page struct {
	Reviews []store.Review    `json:"reviews"`
	Stats   store.ReviewStats `json:"stats"`
}

// Service manages product reviews. One review per user per product.
type Service struct {
	Store   Store
	Catalog Catalog
}

// Create validates and persists a review.
func (s *Service) Create(ctx context.Context, userID, productID uuid.UUID, rating int32, comment string) (store.Review, error) {
	if s == nil || s.Store == nil {
		return store.Review{}, errors.New("reviews service not configured")
	}
	if rating < 1 || rating > 5 {
		return store.Review{}, ErrInvalidRating
	}
	if s.Catalog != nil {
		if _, err := s.Catalog.GetProductByID(ctx, productID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return store.Review{}, ErrProductNotFound
			}
			return store.Review{}, err
		}
	}

	rev := store.Review{ProductID: productID, UserID: userID, Rating: rating}
	if c := strings.TrimSpace(comment); c != "" {
		rev.Comment = &c
	}
	created, err := s.Store.Create(ctx, rev)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return store.Review{}, ErrAlreadyReviewed
		}
		return store.Review{}, err
	}
	return created, nil
}

// ListByProduct returns a page of reviews with aggregate stats.
func (s *Service) ListByProduct(ctx context.Context, productID uuid.UUID, limit, offset int32) (Page, error) {
	if s == nil || s.Store == nil {
		return Page{}, errors.New("reviews service not configured")
	}
	revs, err := s.Store.ListByProduct(ctx, productID, limit, offset)
	if err != nil {
		return Page{}, err
	}
	if revs == nil {
		revs = []store.Review{}
	}
	stats, err := s.Store.Stats(ctx, productID)
	if err != nil {
		return Page{}, err
	}
	return Page{Reviews: revs, Stats: stats}, nil
}

// Delete removes the user's own review.
func (s *Service) Delete(ctx context.Context, reviewID, userID uuid.UUID) error {
	if s == nil || s.Store == nil {
		return errors.New("reviews service not configured")
	}
	deleted, err := s.Store.Delete(ctx, reviewID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
