package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// AddressRepo persists user delivery addresses.
type AddressRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAddressRepo creates a PostgreSQL-backed address repository.
func NewAddressRepo(pool *pgxpool.Pool, logger zerolog.Logger) *AddressRepo {
	return &AddressRepo{pool: pool, logger: logger.With().Str("repository", "address").Logger()}
}

const addressColumns = `id, user_id, label, receiver_name, phone, line1, line2, city, state,
	postal_code, country, is_default, created_at, updated_at`

func scanAddress(row pgx.Row) (Address, error) {
	var a Address
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.ReceiverName, &a.Phone, &a.Line1, &a.Line2,
		&a.City, &a.State, &a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// Create inserts an address. When it is marked default, any previous default
// for the user is cleared in the same transaction.
func (r *AddressRepo) Create(ctx context.Context, a Address) (Address, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Address{}, fmt.Errorf("begin create address: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if a.IsDefault {
		if _, err := tx.Exec(ctx,
			`UPDATE addresses SET is_default = false, updated_at = now() WHERE user_id = $1 AND is_default`,
			a.UserID); err != nil {
			return Address{}, fmt.Errorf("clear default address: %w", err)
		}
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO addresses (id, user_id, label, receiver_name, phone, line1, line2, city, state,
			postal_code, country, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+addressColumns,
		a.ID, a.UserID, a.Label, a.ReceiverName, a.Phone, a.Line1, a.Line2, a.City, a.State,
		a.PostalCode, a.Country, a.IsDefault)
	created, err := scanAddress(row)
	if err != nil {
		return Address{}, fmt.Errorf("create address: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Address{}, fmt.Errorf("commit create address: %w", err)
	}
	return created, nil
}

// Update rewrites an address owned by the user.
func (r *AddressRepo) Update(ctx context.Context, a Address) (Address, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Address{}, fmt.Errorf("begin update address: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if a.IsDefault {
		if _, err := tx.Exec(ctx,
			`UPDATE addresses SET is_default = false, updated_at = now() WHERE user_id = $1 AND is_default AND id <> $2`,
			a.UserID, a.ID); err != nil {
			return Address{}, fmt.Errorf("clear default address: %w", err)
		}
	}

	row := tx.QueryRow(ctx, `
		UPDATE addresses SET label = $3, receiver_name = $4, phone = $5, line1 = $6, line2 = $7,
			city = $8, state = $9, postal_code = $10, country = $11, is_default = $12, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+addressColumns,
		a.ID, a.UserID, a.Label, a.ReceiverName, a.Phone, a.Line1, a.Line2, a.City, a.State,
		a.PostalCode, a.Country, a.IsDefault)
	updated, err := scanAddress(row)
	if err != nil {
		return Address{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Address{}, fmt.Errorf("commit update address: %w", err)
	}
	return updated, nil
}

// Delete removes an address owned by the user, reporting whether a row went.
func (r *AddressRepo) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete address: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetForUser loads one address owned by the user.
func (r *AddressRepo) GetForUser(ctx context.Context, id, userID uuid.UUID) (Address, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	return scanAddress(row)
}

// List returns the user's addresses, default first.
func (r *AddressRepo) List(ctx context.Context, userID uuid.UUID) ([]Address, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+addressColumns+` FROM addresses
		WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate addresses: %w", err)
	}
	return addresses, nil
}
