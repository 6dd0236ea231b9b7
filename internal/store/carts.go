package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// CartRepo persists carts and cart items.
type CartRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepo creates a PostgreSQL-backed cart repository.
func NewCartRepo(pool *pgxpool.Pool, logger zerolog.Logger) *CartRepo {
	return &CartRepo{pool: pool, logger: logger.With().Str("repository", "cart").Logger()}
}

const cartColumns = `id, user_id, anon_id, applied_coupon_code, created_at, updated_at, expires_at`

func scanCart(row pgx.Row) (Cart, error) {
	var c Cart
	err := row.Scan(&c.ID, &c.UserID, &c.AnonID, &c.AppliedCouponCode, &c.CreatedAt, &c.UpdatedAt, &c.ExpiresAt)
	return c, err
}

// Create inserts a new cart owned by a user or an anonymous session.
func (r *CartRepo) Create(ctx context.Context, userID *uuid.UUID, anonID *string, expiresAt time.Time) (Cart, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO carts (id, user_id, anon_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+cartColumns,
		uuid.New(), userID, anonID, expiresAt)
	cart, err := scanCart(row)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to create cart")
		return Cart{}, fmt.Errorf("create cart: %w", err)
	}
	return cart, nil
}

// GetByID loads a cart by its primary key.
func (r *CartRepo) GetByID(ctx context.Context, id uuid.UUID) (Cart, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id)
	return scanCart(row)
}

// GetActiveByUser returns the user's newest unexpired cart.
func (r *CartRepo) GetActiveByUser(ctx context.Context, userID uuid.UUID) (Cart, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+cartColumns+` FROM carts
		WHERE user_id = $1 AND expires_at > now()
		ORDER BY updated_at DESC LIMIT 1`, userID)
	return scanCart(row)
}

// GetActiveByAnon returns the anonymous session's newest unexpired cart.
func (r *CartRepo) GetActiveByAnon(ctx context.Context, anonID string) (Cart, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+cartColumns+` FROM carts
		WHERE anon_id = $1 AND expires_at > now()
		ORDER BY updated_at DESC LIMIT 1`, anonID)
	return scanCart(row)
}

// Touch extends the cart expiry and bumps updated_at.
func (r *CartRepo) Touch(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE carts SET expires_at = $2, updated_at = now() WHERE id = $1`, id, expiresAt)
	if err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	return nil
}

// SetCoupon stores or clears the applied coupon code.
func (r *CartRepo) SetCoupon(ctx context.Context, id uuid.UUID, code *string) error {
	_, err := r.pool.Exec(ctx, `UPDATE carts SET applied_coupon_code = $2, updated_at = now() WHERE id = $1`, id, code)
	if err != nil {
		return fmt.Errorf("set cart coupon: %w", err)
	}
	return nil
}

// TransferToUser reassigns a guest cart to a registered user.
func (r *CartRepo) TransferToUser(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE carts SET user_id = $2, anon_id = NULL, updated_at = now() WHERE id = $1`, id, userID)
	if err != nil {
		return fmt.Errorf("transfer cart: %w", err)
	}
	return nil
}

const cartItemColumns = `id, cart_id, product_id, variant_id, name, variant_name, image_url, collection_id, qty, unit_price, mrp, subtotal`

func scanCartItem(row pgx.Row) (CartItem, error) {
	var it CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.VariantID, &it.Name, &it.VariantName,
		&it.ImageURL, &it.CollectionID, &it.Qty, &it.UnitPrice, &it.MRP, &it.Subtotal)
	return it, err
}

// ListItems returns all lines of a cart in insertion order.
func (r *CartRepo) ListItems(ctx context.Context, cartID uuid.UUID) ([]CartItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id = $1 ORDER BY id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return items, nil
}

// GetItemByID loads one cart line.
func (r *CartRepo) GetItemByID(ctx context.Context, itemID uuid.UUID) (CartItem, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+cartItemColumns+` FROM cart_items WHERE id = $1`, itemID)
	return scanCartItem(row)
}

// FindItem locates the line matching a product/variant pair within a cart.
func (r *CartRepo) FindItem(ctx context.Context, cartID, productID uuid.UUID, variantID *uuid.UUID) (CartItem, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+cartItemColumns+` FROM cart_items
		WHERE cart_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $3`,
		cartID, productID, variantID)
	return scanCartItem(row)
}

// CreateItem inserts a new cart line.
func (r *CartRepo) CreateItem(ctx context.Context, it CartItem) (CartItem, error) {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO cart_items (`+cartItemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+cartItemColumns,
		it.ID, it.CartID, it.ProductID, it.VariantID, it.Name, it.VariantName,
		it.ImageURL, it.CollectionID, it.Qty, it.UnitPrice, it.MRP, it.Subtotal)
	created, err := scanCartItem(row)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", it.CartID.String()).Msg("failed to create cart item")
		return CartItem{}, fmt.Errorf("create cart item: %w", err)
	}
	return created, nil
}

// UpdateItemQty updates a line's quantity and subtotal.
func (r *CartRepo) UpdateItemQty(ctx context.Context, itemID uuid.UUID, qty int32, subtotal int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE cart_items SET qty = $2, subtotal = $3 WHERE id = $1`, itemID, qty, subtotal)
	if err != nil {
		return fmt.Errorf("update cart item qty: %w", err)
	}
	return nil
}

// DeleteItem removes a line from the cart.
func (r *CartRepo) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}
