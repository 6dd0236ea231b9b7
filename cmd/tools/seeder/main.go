package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/glowcart/storefront-api/internal/store"
)

// Seeds a development database with a small skincare catalog, a demo
// customer/admin pair, and a few coupons covering every scope.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := store.Migrate(dbURL); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	serums := seedCollection(ctx, pool, "serums", "Serums")
	masks := seedCollection(ctx, pool, "masks", "Masks")
	moisturizers := seedCollection(ctx, pool, "moisturizers", "Moisturizers")

	glowSerum := seedProduct(ctx, pool, product{
		slug: "vitamin-c-glow-serum", name: "Vitamin C Glow Serum", brand: "Lumine",
		price: 79900, mrp: 99900, collection: serums, stock: 40,
	})
	seedVariant(ctx, pool, glowSerum, "15ml", 49900, 59900, 25)
	seedVariant(ctx, pool, glowSerum, "30ml", 79900, 99900, 40)

	seedProduct(ctx, pool, product{
		slug: "niacinamide-serum", name: "Niacinamide 10% Serum", brand: "Lumine",
		price: 64900, mrp: 74900, collection: serums, stock: 55,
	})
	seedProduct(ctx, pool, product{
		slug: "charcoal-clay-mask", name: "Charcoal Clay Mask", brand: "TerraGlow",
		price: 49900, mrp: 49900, collection: masks, stock: 30,
	})
	seedProduct(ctx, pool, product{
		slug: "ceramide-moisturizer", name: "Ceramide Barrier Moisturizer", brand: "TerraGlow",
		price: 89900, mrp: 109900, collection: moisturizers, stock: 22,
	})

	seedUser(ctx, pool, "admin@glowcart.dev", "GlowCart Admin", "admin-password", []string{"customer", "admin"})
	customer := seedUser(ctx, pool, "priya@example.com", "Priya", "customer-password", []string{"customer"})

	now := time.Now()
	seedCoupon(ctx, pool, store.Coupon{
		Code: "SAVE10", Scope: store.CouponScopeSales, Kind: store.CouponKindPercent,
		PercentBps: ptrInt32(1000), Active: true,
		StartAt: ptrTime(now.Add(-24 * time.Hour)), EndAt: ptrTime(now.Add(90 * 24 * time.Hour)),
	})
	seedCoupon(ctx, pool, store.Coupon{
		Code: "GLOW250", Scope: store.CouponScopeSales, Kind: store.CouponKindFlat,
		Value: 25000, MinOrderAmount: 150000, Active: true,
	})
	seedCoupon(ctx, pool, store.Coupon{
		Code: "SERUMLOVE", Scope: store.CouponScopeCollection, Kind: store.CouponKindPercent,
		PercentBps: ptrInt32(1500), CollectionIDs: []uuid.UUID{serums}, Active: true,
	})
	seedCoupon(ctx, pool, store.Coupon{
		Code: "WELCOMEPRIYA", Scope: store.CouponScopeUser, Kind: store.CouponKindFlat,
		Value: 10000, UserID: &customer, PerUserLimit: ptrInt32(1), Active: true,
	})

	log.Println("seeding completed")
}

type product struct {
	slug, name, brand string
	price, mrp        int64
	collection        uuid.UUID
	stock             int32
}

func seedCollection(ctx context.Context, pool *pgxpool.Pool, slug, name string) uuid.UUID {
	var id uuid.UUID
	err := pool.QueryRow(ctx, `
		INSERT INTO collections (id, slug, name) VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, uuid.New(), slug, name).Scan(&id)
	if err != nil {
		log.Fatalf("seed collection %s: %v", slug, err)
	}
	return id
}

func seedProduct(ctx context.Context, pool *pgxpool.Pool, p product) uuid.UUID {
	var id uuid.UUID
	err := pool.QueryRow(ctx, `
		INSERT INTO products (id, slug, name, brand, price, mrp, collection_id, stock, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
		ON CONFLICT (slug) DO UPDATE SET price = EXCLUDED.price, mrp = EXCLUDED.mrp, stock = EXCLUDED.stock
		RETURNING id`,
		uuid.New(), p.slug, p.name, p.brand, p.price, p.mrp, p.collection, p.stock).Scan(&id)
	if err != nil {
		log.Fatalf("seed product %s: %v", p.slug, err)
	}
	return id
}

func seedVariant(ctx context.Context, pool *pgxpool.Pool, productID uuid.UUID, name string, price, mrp int64, stock int32) {
	_, err := pool.Exec(ctx, `
		INSERT INTO variants (id, product_id, name, price, mrp, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING`,
		uuid.New(), productID, name, price, mrp, stock)
	if err != nil {
		log.Fatalf("seed variant %s: %v", name, err)
	}
}

func seedUser(ctx context.Context, pool *pgxpool.Pool, email, name, password string, roles []string) uuid.UUID {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	var id uuid.UUID
	err = pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash, roles)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET roles = EXCLUDED.roles
		RETURNING id`, uuid.New(), email, name, hash, roles).Scan(&id)
	if err != nil {
		log.Fatalf("seed user %s: %v", email, err)
	}
	return id
}

func seedCoupon(ctx context.Context, pool *pgxpool.Pool, c store.Coupon) {
	_, err := pool.Exec(ctx, `
		INSERT INTO coupons (id, code, scope, kind, value, percent_bps, min_order_amount, max_discount,
			usage_limit, per_user_limit, user_id, collection_ids, start_at, end_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (lower(code)) DO NOTHING`,
		uuid.New(), c.Code, c.Scope, c.Kind, c.Value, c.PercentBps, c.MinOrderAmount, c.MaxDiscount,
		c.UsageLimit, c.PerUserLimit, c.UserID, c.CollectionIDs, c.StartAt, c.EndAt, c.Active)
	if err != nil {
		log.Fatalf("seed coupon %s: %v", c.Code, err)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
func ptrInt32(v int32) *int32        { return &v }
