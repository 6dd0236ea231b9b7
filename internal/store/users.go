package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// UserRepo persists storefront accounts.
type UserRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepo creates a PostgreSQL-backed user repository.
func NewUserRepo(pool *pgxpool.Pool, logger zerolog.Logger) *UserRepo {
	return &UserRepo{pool: pool, logger: logger.With().Str("repository", "user").Logger()}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Roles, &u.CreatedAt)
	return u, err
}

// Create inserts a new account.
func (r *UserRepo) Create(ctx context.Context, email, name, passwordHash string, roles []string) (User, error) {
	if len(roles) == 0 {
		roles = []string{"customer"}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash, roles)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, name, password_hash, roles, created_at`,
		uuid.New(), strings.ToLower(strings.TrimSpace(email)), name, passwordHash, roles)
	user, err := scanUser(row)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to create user")
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// GetByEmail loads an account by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, roles, created_at
		FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

// GetByID loads an account by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, roles, created_at
		FROM users WHERE id = $1`, id)
	return scanUser(row)
}
