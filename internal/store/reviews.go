package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ReviewRepo persists product reviews.
type ReviewRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewReviewRepo creates a PostgreSQL-backed review repository.
func NewReviewRepo(pool *pgxpool.Pool, logger zerolog.Logger) *ReviewRepo {
	return &ReviewRepo{pool: pool, logger: logger.With().Str("repository", "review").Logger()}
}

// Create inserts a review.
func (r *ReviewRepo) Create(ctx context.Context, rev Review) (Review, error) {
	if rev.ID == uuid.Nil {
		rev.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO reviews (id, product_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, product_id, user_id, rating, comment, created_at`,
		rev.ID, rev.ProductID, rev.UserID, rev.Rating, rev.Comment)
	var created Review
	err := row.Scan(&created.ID, &created.ProductID, &created.UserID, &created.Rating, &created.Comment, &created.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", rev.ProductID.String()).Msg("failed to create review")
		return Review{}, fmt.Errorf("create review: %w", err)
	}
	return created, nil
}

// ListByProduct pages through a product's reviews newest first.
func (r *ReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID, limit, offset int32) ([]Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, user_id, rating, comment, created_at
		FROM reviews WHERE product_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.ProductID, &rev.UserID, &rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

// Stats returns the review count and average rating for a product.
func (r *ReviewRepo) Stats(ctx context.Context, productID uuid.UUID) (ReviewStats, error) {
	var stats ReviewStats
	err := r.pool.QueryRow(ctx,
		`SELECT count(*), coalesce(avg(rating), 0) FROM reviews WHERE product_id = $1`, productID).
		Scan(&stats.Count, &stats.Average)
	if err != nil {
		return ReviewStats{}, fmt.Errorf("review stats: %w", err)
	}
	return stats, nil
}

// Delete removes a review owned by the user.
func (r *ReviewRepo) Delete(ctx context.Context, reviewID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1 AND user_id = $2`, reviewID, userID)
	if err != nil {
		return false, fmt.Errorf("delete review: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
