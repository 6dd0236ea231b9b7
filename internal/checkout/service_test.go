package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/glowcart/storefront-api/internal/cart"
	"github.com/glowcart/storefront-api/internal/store"
)

// stubCarts implements only the lookups Create touches before opening a
// transaction. The transactional path itself is exercised against a live
// database.
type stubCarts struct {
	cart.Store
	carts map[uuid.UUID]store.Cart
	items map[uuid.UUID][]store.CartItem
}

func (s *stubCarts) GetByID(_ context.Context, id uuid.UUID) (store.Cart, error) {
	if c, ok := s.carts[id]; ok {
		return c, nil
	}
	return store.Cart{}, pgx.ErrNoRows
}

func (s *stubCarts) ListItems(_ context.Context, cartID uuid.UUID) ([]store.CartItem, error) {
	return s.items[cartID], nil
}

func newCheckoutService(carts *stubCarts) *Service {
	return &Service{
		Pool:     new(pgxpool.Pool),
		Orders:   &store.OrderRepo{},
		Carts:    carts,
		Currency: "INR",
	}
}

func TestCreateRejectsUnknownCart(t *testing.T) {
	svc := newCheckoutService(&stubCarts{carts: map[uuid.UUID]store.Cart{}})

	_, err := svc.Create(context.Background(), uuid.New(), Input{CartID: uuid.New()})
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestCreateRejectsForeignCart(t *testing.T) {
	owner := uuid.New()
	cartID := uuid.New()
	svc := newCheckoutService(&stubCarts{
		carts: map[uuid.UUID]store.Cart{cartID: {ID: cartID, UserID: &owner}},
	})

	_, err := svc.Create(context.Background(), uuid.New(), Input{CartID: cartID})
	require.ErrorIs(t, err, ErrCartNotOwned)
}

func TestCreateRejectsEmptyCart(t *testing.T) {
	userID := uuid.New()
	cartID := uuid.New()
	svc := newCheckoutService(&stubCarts{
		carts: map[uuid.UUID]store.Cart{cartID: {ID: cartID, UserID: &userID}},
		items: map[uuid.UUID][]store.CartItem{},
	})

	_, err := svc.Create(context.Background(), userID, Input{CartID: cartID})
	require.ErrorIs(t, err, ErrCartEmpty)
}

func TestCreateRequiresCartID(t *testing.T) {
	svc := newCheckoutService(&stubCarts{carts: map[uuid.UUID]store.Cart{}})

	_, err := svc.Create(context.Background(), uuid.New(), Input{})
	require.Error(t, err)
}
