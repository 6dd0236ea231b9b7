package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// SalesSummary aggregates order totals over a reporting window.
type SalesSummary struct {
	Orders         int64 `json:"orders"`
	GrossRevenue   int64 `json:"grossRevenue"`
	CouponDiscount int64 `json:"couponDiscount"`
	TotalSavings   int64 `json:"totalSavings"`
}

// DailySalesRow holds per-day order counts and revenue.
type DailySalesRow struct {
	Day     time.Time `json:"day"`
	Orders  int64     `json:"orders"`
	Revenue int64     `json:"revenue"`
}

// TopProductRow ranks a product by units sold within a window.
type TopProductRow struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	UnitsSold int64     `json:"unitsSold"`
	Revenue   int64     `json:"revenue"`
}

// AnalyticsRepo reads aggregated sales figures from order history.
type AnalyticsRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAnalyticsRepo creates a PostgreSQL-backed analytics repository.
func NewAnalyticsRepo(pool *pgxpool.Pool, logger zerolog.Logger) *AnalyticsRepo {
	return &AnalyticsRepo{pool: pool, logger: logger.With().Str("repository", "analytics").Logger()}
}

// SalesSummary sums non-cancelled orders created within [from, to).
func (r *AnalyticsRepo) SalesSummary(ctx context.Context, from, to time.Time) (SalesSummary, error) {
	var s SalesSummary
	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       coalesce(sum(grand_total), 0),
		       coalesce(sum(coupon_discount), 0),
		       coalesce(sum(total_savings), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2 AND status <> 'CANCELLED'`,
		from, to).Scan(&s.Orders, &s.GrossRevenue, &s.CouponDiscount, &s.TotalSavings)
	if err != nil {
		return SalesSummary{}, fmt.Errorf("sales summary: %w", err)
	}
	return s, nil
}

// DailySales groups non-cancelled orders by day within [from, to).
func (r *AnalyticsRepo) DailySales(ctx context.Context, from, to time.Time) ([]DailySalesRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day,
		       count(*),
		       coalesce(sum(grand_total), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2 AND status <> 'CANCELLED'
		GROUP BY day
		ORDER BY day`, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	defer rows.Close()

	var out []DailySalesRow
	for rows.Next() {
		var row DailySalesRow
		if err := rows.Scan(&row.Day, &row.Orders, &row.Revenue); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily sales: %w", err)
	}
	return out, nil
}

// TopProducts ranks products by units sold across non-cancelled orders in [from, to).
func (r *AnalyticsRepo) TopProducts(ctx context.Context, from, to time.Time, limit int32) ([]TopProductRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT oi.product_id, oi.name,
		       coalesce(sum(oi.qty), 0),
		       coalesce(sum(oi.subtotal), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at >= $1 AND o.created_at < $2 AND o.status <> 'CANCELLED'
		GROUP BY oi.product_id, oi.name
		ORDER BY sum(oi.qty) DESC, oi.name
		LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	var out []TopProductRow
	for rows.Next() {
		var row TopProductRow
		if err := rows.Scan(&row.ProductID, &row.Name, &row.UnitsSold, &row.Revenue); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top products: %w", err)
	}
	return out, nil
}
