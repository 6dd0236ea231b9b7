package wishlist

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/glowcart/storefront-api/internal/store"
)

// ErrProductNotFound is returned when toggling a product that does not exist.
var ErrProductNotFound = errors.New("wishlist: product not found")

// Store is the persistence slice the service needs.
type Store interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Contains(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	List(ctx context.Context, userID uuid.UUID) ([]store.WishlistItem, error)
}

// Catalog verifies products exist before they are saved.
type Catalog interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (store.Product, error)
}

// Service manages per-user saved products.
type Service struct {
	Store   Store
	Catalog Catalog
}

// Toggle flips the saved state of a product for a user and reports the new
// state: true when the product is now saved.
func (s *Service) Toggle(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	if s == nil || s.Store == nil {
		return false, errors.New("wishlist service not configured")
	}
	if s.Catalog != nil {
		if _, err := s.Catalog.GetProductByID(ctx, productID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, ErrProductNotFound
			}
			return false, err
		}
	}
	saved, err := s.Store.Contains(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if saved {
		return false, s.Store.Remove(ctx, userID, productID)
	}
	return true, s.Store.Add(ctx, userID, productID)
}

// Contains reports whether a product is saved for the user.
func (s *Service) Contains(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	if s == nil || s.Store == nil {
		return false, errors.New("wishlist service not configured")
	}
	return s.Store.Contains(ctx, userID, productID)
}

// List returns the user's saved products with current catalog data.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]store.WishlistItem, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("wishlist service not configured")
	}
	items, err := s.Store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.WishlistItem{}
	}
	return items, nil
}
