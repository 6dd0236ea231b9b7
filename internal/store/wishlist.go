package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// WishlistRepo persists per-user saved products.
type WishlistRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewWishlistRepo creates a PostgreSQL-backed wishlist repository.
func NewWishlistRepo(pool *pgxpool.Pool, logger zerolog.Logger) *WishlistRepo {
	return &WishlistRepo{pool: pool, logger: logger.With().Str("repository", "wishlist").Logger()}
}

// Add saves a product for the user. Already saved products are a no-op.
func (r *WishlistRepo) Add(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO wishlist_items (user_id, product_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, productID)
	if err != nil {
		return fmt.Errorf("add wishlist item: %w", err)
	}
	return nil
}

// Remove deletes a saved product.
func (r *WishlistRepo) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	return nil
}

// Contains reports whether the user has saved the product.
func (r *WishlistRepo) Contains(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx,
		`SELECT 1 FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check wishlist item: %w", err)
	}
	return true, nil
}

// List returns the user's saved products joined with current catalog data.
func (r *WishlistRepo) List(ctx context.Context, userID uuid.UUID) ([]WishlistItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT w.product_id, p.name, p.slug, p.price, p.mrp, p.image_url, w.created_at
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	var items []WishlistItem
	for rows.Next() {
		var it WishlistItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Slug, &it.Price, &it.MRP, &it.ImageURL, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist: %w", err)
	}
	return items, nil
}
