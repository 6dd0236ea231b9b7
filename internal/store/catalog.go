package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// CatalogRepo reads products, variants, and collections.
type CatalogRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCatalogRepo creates a PostgreSQL-backed catalog repository.
func NewCatalogRepo(pool *pgxpool.Pool, logger zerolog.Logger) *CatalogRepo {
	return &CatalogRepo{pool: pool, logger: logger.With().Str("repository", "catalog").Logger()}
}

const productColumns = `id, slug, name, brand, description, price, mrp, image_url, collection_id,
	stock, active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Brand, &p.Description, &p.Price, &p.MRP,
		&p.ImageURL, &p.CollectionID, &p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetProductByID loads a single product.
func (r *CatalogRepo) GetProductByID(ctx context.Context, id uuid.UUID) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// GetProductBySlug loads a single active product by slug.
func (r *CatalogRepo) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1 AND active`, slug)
	return scanProduct(row)
}

// ListProducts pages through active products, optionally filtered by collection.
func (r *CatalogRepo) ListProducts(ctx context.Context, collectionID *uuid.UUID, limit, offset int32) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE active AND ($1::uuid IS NULL OR collection_id = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		collectionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// CountProducts counts active products, optionally filtered by collection.
func (r *CatalogRepo) CountProducts(ctx context.Context, collectionID *uuid.UUID) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE active AND ($1::uuid IS NULL OR collection_id = $1)`,
		collectionID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

// GetVariant loads a product variant.
func (r *CatalogRepo) GetVariant(ctx context.Context, id uuid.UUID) (Variant, error) {
	var v Variant
	err := r.pool.QueryRow(ctx,
		`SELECT id, product_id, name, price, mrp, stock FROM variants WHERE id = $1`, id).
		Scan(&v.ID, &v.ProductID, &v.Name, &v.Price, &v.MRP, &v.Stock)
	return v, err
}

// ListVariants returns all variants of a product.
func (r *CatalogRepo) ListVariants(ctx context.Context, productID uuid.UUID) ([]Variant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, name, price, mrp, stock FROM variants WHERE product_id = $1 ORDER BY name`, productID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var variants []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Price, &v.MRP, &v.Stock); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants: %w", err)
	}
	return variants, nil
}

// ListCollections returns all collections ordered by name.
func (r *CatalogRepo) ListCollections(ctx context.Context) ([]Collection, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, slug, name, created_at FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var collections []Collection
	for rows.Next() {
		var c Collection
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return collections, nil
}

// GetCollectionBySlug loads a collection by slug.
func (r *CatalogRepo) GetCollectionBySlug(ctx context.Context, slug string) (Collection, error) {
	var c Collection
	err := r.pool.QueryRow(ctx, `SELECT id, slug, name, created_at FROM collections WHERE slug = $1`, slug).
		Scan(&c.ID, &c.Slug, &c.Name, &c.CreatedAt)
	return c, err
}
