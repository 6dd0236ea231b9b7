package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Store bundles all PostgreSQL-backed repositories over a shared pool.
type Store struct {
	Pool     *pgxpool.Pool
	Carts    *CartRepo
	Coupons  *CouponRepo
	Orders   *OrderRepo
	Catalog  *CatalogRepo
	Users    *UserRepo
	Reviews  *ReviewRepo
	Wishlist *WishlistRepo
	Events   *EventRepo
	Addrs    *AddressRepo
	Stats    *AnalyticsRepo
}

// New wires a Store around the provided connection pool.
func New(pool *pgxpool.Pool, logger zerolog.Logger) *Store {
	return &Store{
		Pool:     pool,
		Carts:    NewCartRepo(pool, logger),
		Coupons:  NewCouponRepo(pool, logger),
		Orders:   NewOrderRepo(pool, logger),
		Catalog:  NewCatalogRepo(pool, logger),
		Users:    NewUserRepo(pool, logger),
		Reviews:  NewReviewRepo(pool, logger),
		Wishlist: NewWishlistRepo(pool, logger),
		Events:   NewEventRepo(pool, logger),
		Addrs:    NewAddressRepo(pool, logger),
		Stats:    NewAnalyticsRepo(pool, logger),
	}
}
