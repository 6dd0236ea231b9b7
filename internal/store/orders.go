package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// OrderRepo persists orders and order items.
type OrderRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepo creates a PostgreSQL-backed order repository.
func NewOrderRepo(pool *pgxpool.Pool, logger zerolog.Logger) *OrderRepo {
	return &OrderRepo{pool: pool, logger: logger.With().Str("repository", "order").Logger()}
}

const orderColumns = `id, user_id, cart_id, status, currency, total_mrp, subtotal, discount_on_mrp,
	coupon_discount, shipping, tax, grand_total, total_savings, coupon_code, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.CartID, &o.Status, &o.Currency, &o.TotalMRP, &o.Subtotal,
		&o.DiscountOnMRP, &o.CouponDiscount, &o.Shipping, &o.Tax, &o.GrandTotal, &o.TotalSavings,
		&o.CouponCode, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// CreateTx inserts an order within the provided transaction.
func (r *OrderRepo) CreateTx(ctx context.Context, tx pgx.Tx, o Order) (Order, error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, cart_id, status, currency, total_mrp, subtotal, discount_on_mrp,
			coupon_discount, shipping, tax, grand_total, total_savings, coupon_code, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+orderColumns,
		o.ID, o.UserID, o.CartID, o.Status, o.Currency, o.TotalMRP, o.Subtotal, o.DiscountOnMRP,
		o.CouponDiscount, o.Shipping, o.Tax, o.GrandTotal, o.TotalSavings, o.CouponCode, o.Notes)
	created, err := scanOrder(row)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", o.UserID.String()).Msg("failed to create order")
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	return created, nil
}

// CreateItemsTx inserts order lines in one batch within the transaction.
func (r *OrderRepo) CreateItemsTx(ctx context.Context, tx pgx.Tx, items []OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		id := it.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(`
			INSERT INTO order_items (id, order_id, product_id, variant_id, name, variant_name, qty, unit_price, mrp, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			id, it.OrderID, it.ProductID, it.VariantID, it.Name, it.VariantName, it.Qty, it.UnitPrice, it.MRP, it.Subtotal)
	}
	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
	}
	return nil
}

// GetForUser loads an order owned by the given user.
func (r *OrderRepo) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID)
	return scanOrder(row)
}

// ListForUser pages through the user's orders newest first.
func (r *OrderRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// CountForUser returns the user's total order count.
func (r *OrderRepo) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

// ListItems returns the lines of an order.
func (r *OrderRepo) ListItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, variant_id, name, variant_name, qty, unit_price, mrp, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariantID, &it.Name, &it.VariantName,
			&it.Qty, &it.UnitPrice, &it.MRP, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

// UpdateStatus transitions an order to the given status.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (Order, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
		RETURNING `+orderColumns, orderID, status)
	return scanOrder(row)
}
