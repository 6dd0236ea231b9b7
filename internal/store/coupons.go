package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// CouponRepo persists coupons and their redemptions.
type CouponRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepo creates a PostgreSQL-backed coupon repository.
func NewCouponRepo(pool *pgxpool.Pool, logger zerolog.Logger) *CouponRepo {
	return &CouponRepo{pool: pool, logger: logger.With().Str("repository", "coupon").Logger()}
}

const couponColumns = `id, code, scope, kind, value, percent_bps, min_order_amount, max_discount,
	usage_limit, used_count, per_user_limit, user_id, collection_ids, start_at, end_at, active,
	created_at, updated_at`

func scanCoupon(row pgx.Row) (Coupon, error) {
	var c Coupon
	err := row.Scan(&c.ID, &c.Code, &c.Scope, &c.Kind, &c.Value, &c.PercentBps, &c.MinOrderAmount,
		&c.MaxDiscount, &c.UsageLimit, &c.UsedCount, &c.PerUserLimit, &c.UserID, &c.CollectionIDs,
		&c.StartAt, &c.EndAt, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetByCode loads a coupon by its case-insensitive code.
func (r *CouponRepo) GetByCode(ctx context.Context, code string) (Coupon, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE lower(code) = lower($1)`, strings.TrimSpace(code))
	return scanCoupon(row)
}

// Create inserts a coupon rule.
func (r *CouponRepo) Create(ctx context.Context, c Coupon) (Coupon, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO coupons (id, code, scope, kind, value, percent_bps, min_order_amount, max_discount,
			usage_limit, per_user_limit, user_id, collection_ids, start_at, end_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+couponColumns,
		c.ID, c.Code, c.Scope, c.Kind, c.Value, c.PercentBps, c.MinOrderAmount, c.MaxDiscount,
		c.UsageLimit, c.PerUserLimit, c.UserID, c.CollectionIDs, c.StartAt, c.EndAt, c.Active)
	created, err := scanCoupon(row)
	if err != nil {
		r.logger.Error().Err(err).Str("code", c.Code).Msg("failed to create coupon")
		return Coupon{}, fmt.Errorf("create coupon: %w", err)
	}
	return created, nil
}

// Update replaces a coupon rule identified by code.
func (r *CouponRepo) Update(ctx context.Context, code string, c Coupon) (Coupon, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE coupons SET scope = $2, kind = $3, value = $4, percent_bps = $5, min_order_amount = $6,
			max_discount = $7, usage_limit = $8, per_user_limit = $9, user_id = $10,
			collection_ids = $11, start_at = $12, end_at = $13, active = $14, updated_at = now()
		WHERE lower(code) = lower($1)
		RETURNING `+couponColumns,
		strings.TrimSpace(code), c.Scope, c.Kind, c.Value, c.PercentBps, c.MinOrderAmount,
		c.MaxDiscount, c.UsageLimit, c.PerUserLimit, c.UserID, c.CollectionIDs, c.StartAt, c.EndAt, c.Active)
	return scanCoupon(row)
}

// Delete removes a coupon.
func (r *CouponRepo) Delete(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE lower(code) = lower($1)`, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListActive returns coupons currently inside their validity window.
func (r *CouponRepo) ListActive(ctx context.Context, now time.Time) ([]Coupon, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+couponColumns+` FROM coupons
		WHERE active
		  AND (start_at IS NULL OR start_at <= $1)
		  AND (end_at IS NULL OR end_at >= $1)
		ORDER BY created_at DESC`, now)
	if err != nil {
		return nil, fmt.Errorf("list active coupons: %w", err)
	}
	return collectCoupons(rows)
}

// ListForUser returns active coupons visible to the user: global sales
// coupons plus any user-scoped coupons assigned to them.
func (r *CouponRepo) ListForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]Coupon, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+couponColumns+` FROM coupons
		WHERE active
		  AND (start_at IS NULL OR start_at <= $2)
		  AND (end_at IS NULL OR end_at >= $2)
		  AND (scope <> 'user' OR user_id = $1)
		ORDER BY created_at DESC`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list coupons for user: %w", err)
	}
	return collectCoupons(rows)
}

func collectCoupons(rows pgx.Rows) ([]Coupon, error) {
	defer rows.Close()
	var coupons []Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupons: %w", err)
	}
	return coupons, nil
}

// CountRedemptionsByUser returns how many times the user has redeemed the coupon.
func (r *CouponRepo) CountRedemptionsByUser(ctx context.Context, couponID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2`,
		couponID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count redemptions: %w", err)
	}
	return count, nil
}

// GetRedemptionByOrder returns the redemption recorded for an order, if any.
func (r *CouponRepo) GetRedemptionByOrder(ctx context.Context, couponID, orderID uuid.UUID) (Redemption, error) {
	var red Redemption
	err := r.pool.QueryRow(ctx, `
		SELECT id, coupon_id, order_id, user_id, amount, created_at
		FROM coupon_redemptions WHERE coupon_id = $1 AND order_id = $2`,
		couponID, orderID).Scan(&red.ID, &red.CouponID, &red.OrderID, &red.UserID, &red.Amount, &red.CreatedAt)
	return red, err
}

// InsertRedemption records one coupon use and bumps the coupon's used count
// atomically.
func (r *CouponRepo) InsertRedemption(ctx context.Context, red Redemption) error {
	if red.ID == uuid.Nil {
		red.ID = uuid.New()
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin redemption tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if _, err := tx.Exec(ctx, `
		INSERT INTO coupon_redemptions (id, coupon_id, order_id, user_id, amount)
		VALUES ($1, $2, $3, $4, $5)`,
		red.ID, red.CouponID, red.OrderID, red.UserID, red.Amount); err != nil {
		return fmt.Errorf("insert redemption: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE coupons SET used_count = used_count + 1, updated_at = now() WHERE id = $1`, red.CouponID); err != nil {
		return fmt.Errorf("increment used count: %w", err)
	}
	return tx.Commit(ctx)
}
