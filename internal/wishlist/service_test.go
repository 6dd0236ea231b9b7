package wishlist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/glowcart/storefront-api/internal/store"
)

type memWishlistStore struct {
	saved map[uuid.UUID]map[uuid.UUID]time.Time
}

func newMemWishlistStore() *memWishlistStore {
	return &memWishlistStore{saved: map[uuid.UUID]map[uuid.UUID]time.Time{}}
}

func (m *memWishlistStore) Add(_ context.Context, userID, productID uuid.UUID) error {
	if m.saved[userID] == nil {
		m.saved[userID] = map[uuid.UUID]time.Time{}
	}
	m.saved[userID][productID] = time.Now()
	return nil
}

func (m *memWishlistStore) Remove(_ context.Context, userID, productID uuid.UUID) error {
	delete(m.saved[userID], productID)
	return nil
}

func (m *memWishlistStore) Contains(_ context.Context, userID, productID uuid.UUID) (bool, error) {
	_, ok := m.saved[userID][productID]
	return ok, nil
}

func (m *memWishlistStore) List(_ context.Context, userID uuid.UUID) ([]store.WishlistItem, error) {
	var items []store.WishlistItem
	for id, at := range m.saved[userID] {
		items = append(items, store.WishlistItem{ProductID: id, AddedAt: at})
	}
	return items, nil
}

type memWishlistCatalog struct {
	products map[uuid.UUID]store.Product
}

func (m *memWishlistCatalog) GetProductByID(_ context.Context, id uuid.UUID) (store.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return store.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func TestToggleFlipsSavedState(t *testing.T) {
	user := uuid.New()
	product := uuid.New()
	svc := &Service{
		Store:   newMemWishlistStore(),
		Catalog: &memWishlistCatalog{products: map[uuid.UUID]store.Product{product: {ID: product}}},
	}

	saved, err := svc.Toggle(context.Background(), user, product)
	require.NoError(t, err)
	require.True(t, saved)

	saved, err = svc.Toggle(context.Background(), user, product)
	require.NoError(t, err)
	require.False(t, saved)

	items, err := svc.List(context.Background(), user)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestToggleUnknownProduct(t *testing.T) {
	svc := &Service{
		Store:   newMemWishlistStore(),
		Catalog: &memWishlistCatalog{products: map[uuid.UUID]store.Product{}},
	}
	_, err := svc.Toggle(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrProductNotFound)
}
