package cart

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/glowcart/storefront-api/internal/common"
	"github.com/glowcart/storefront-api/internal/coupon"
	"github.com/glowcart/storefront-api/internal/events"
	"github.com/glowcart/storefront-api/internal/pricing"
	"github.com/glowcart/storefront-api/internal/store"
)

type memCartStore struct {
	carts map[uuid.UUID]*store.Cart
	items map[uuid.UUID]*store.CartItem
}

func newMemCartStore() *memCartStore {
	return &memCartStore{carts: map[uuid.UUID]*store.Cart{}, items: map[uuid.UUID]*store.CartItem{}}
}

func (m *memCartStore) Create(_ context.Context, userID *uuid.UUID, anonID *string, expiresAt time.Time) (store.Cart, error) {
	c := &store.Cart{ID: uuid.New(), UserID: userID, AnonID: anonID, ExpiresAt: expiresAt}
	m.carts[c.ID] = c
	return *c, nil
}

func (m *memCartStore) GetByID(_ context.Context, id uuid.UUID) (store.Cart, error) {
	if c, ok := m.carts[id]; ok {
		return *c, nil
	}
	return store.Cart{}, pgx.ErrNoRows
}

func (m *memCartStore) GetActiveByUser(_ context.Context, userID uuid.UUID) (store.Cart, error) {
	for _, c := range m.carts {
		if c.UserID != nil && *c.UserID == userID {
			return *c, nil
		}
	}
	return store.Cart{}, pgx.ErrNoRows
}

func (m *memCartStore) GetActiveByAnon(_ context.Context, anonID string) (store.Cart, error) {
	for _, c := range m.carts {
		if c.AnonID != nil && *c.AnonID == anonID {
			return *c, nil
		}
	}
	return store.Cart{}, pgx.ErrNoRows
}

func (m *memCartStore) Touch(_ context.Context, id uuid.UUID, expiresAt time.Time) error {
	if c, ok := m.carts[id]; ok {
		c.ExpiresAt = expiresAt
	}
	return nil
}

func (m *memCartStore) SetCoupon(_ context.Context, id uuid.UUID, code *string) error {
	if c, ok := m.carts[id]; ok {
		c.AppliedCouponCode = code
	}
	return nil
}

func (m *memCartStore) TransferToUser(_ context.Context, id, userID uuid.UUID) error {
	if c, ok := m.carts[id]; ok {
		c.UserID = &userID
		c.AnonID = nil
	}
	return nil
}

func (m *memCartStore) ListItems(_ context.Context, cartID uuid.UUID) ([]store.CartItem, error) {
	var out []store.CartItem
	for _, it := range m.items {
		if it.CartID == cartID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *memCartStore) GetItemByID(_ context.Context, itemID uuid.UUID) (store.CartItem, error) {
	if it, ok := m.items[itemID]; ok {
		return *it, nil
	}
	return store.CartItem{}, pgx.ErrNoRows
}

func (m *memCartStore) FindItem(_ context.Context, cartID, productID uuid.UUID, variantID *uuid.UUID) (store.CartItem, error) {
	for _, it := range m.items {
		if it.CartID != cartID || it.ProductID != productID {
			continue
		}
		switch {
		case it.VariantID == nil && variantID == nil:
			return *it, nil
		case it.VariantID != nil && variantID != nil && *it.VariantID == *variantID:
			return *it, nil
		}
	}
	return store.CartItem{}, pgx.ErrNoRows
}

func (m *memCartStore) CreateItem(_ context.Context, it store.CartItem) (store.CartItem, error) {
	it.ID = uuid.New()
	m.items[it.ID] = &it
	return it, nil
}

func (m *memCartStore) UpdateItemQty(_ context.Context, itemID uuid.UUID, qty int32, subtotal int64) error {
	if it, ok := m.items[itemID]; ok {
		it.Qty = qty
		it.Subtotal = subtotal
		return nil
	}
	return pgx.ErrNoRows
}

func (m *memCartStore) DeleteItem(_ context.Context, cartID, itemID uuid.UUID) error {
	if it, ok := m.items[itemID]; ok && it.CartID == cartID {
		delete(m.items, itemID)
	}
	return nil
}

type memCatalog struct {
	products map[uuid.UUID]store.Product
	variants map[uuid.UUID]store.Variant
}

func (m *memCatalog) GetProductByID(_ context.Context, id uuid.UUID) (store.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return store.Product{}, pgx.ErrNoRows
}

func (m *memCatalog) GetVariant(_ context.Context, id uuid.UUID) (store.Variant, error) {
	if v, ok := m.variants[id]; ok {
		return v, nil
	}
	return store.Variant{}, pgx.ErrNoRows
}

type memCouponQuerier struct {
	coupons map[string]store.Coupon
}

func (q *memCouponQuerier) GetByCode(_ context.Context, code string) (store.Coupon, error) {
	if c, ok := q.coupons[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return c, nil
	}
	return store.Coupon{}, pgx.ErrNoRows
}

func (q *memCouponQuerier) ListActive(_ context.Context, _ time.Time) ([]store.Coupon, error) {
	return nil, nil
}

func (q *memCouponQuerier) ListForUser(_ context.Context, _ uuid.UUID, _ time.Time) ([]store.Coupon, error) {
	return nil, nil
}

func (q *memCouponQuerier) CountRedemptionsByUser(_ context.Context, _, _ uuid.UUID) (int64, error) {
	return 0, nil
}

func (q *memCouponQuerier) GetRedemptionByOrder(_ context.Context, _, _ uuid.UUID) (store.Redemption, error) {
	return store.Redemption{}, pgx.ErrNoRows
}

func (q *memCouponQuerier) InsertRedemption(_ context.Context, _ store.Redemption) error {
	return nil
}

func newTestService(t *testing.T) (*Service, *memCartStore, *memCatalog) {
	t.Helper()
	carts := newMemCartStore()
	bps := int32(1000)
	catalog := &memCatalog{products: map[uuid.UUID]store.Product{}, variants: map[uuid.UUID]store.Variant{}}
	coupons := &coupon.Service{
		Q: &memCouponQuerier{coupons: map[string]store.Coupon{
			"SAVE10": {ID: uuid.New(), Code: "SAVE10", Scope: store.CouponScopeSales, Kind: store.CouponKindPercent, PercentBps: &bps, Active: true},
		}},
		Now: func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	svc := &Service{
		Carts:    carts,
		Catalog:  catalog,
		Coupons:  coupons,
		TaxBps:   0,
		Shipping: pricing.ShippingPolicy{FlatFee: 9_900, FreeMinQty: 2},
		Now:      func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return svc, carts, catalog
}

type memEventStore struct {
	inserted []store.DomainEvent
}

func (m *memEventStore) Insert(_ context.Context, topic string, aggregateID uuid.UUID, payload []byte) (store.DomainEvent, error) {
	ev := store.DomainEvent{ID: uuid.New(), Topic: topic, AggregateID: aggregateID, Payload: payload, OccurredAt: time.Now()}
	m.inserted = append(m.inserted, ev)
	return ev, nil
}

func authed(user uuid.UUID) context.Context {
	return common.WithUserID(context.Background(), user)
}

func seedProduct(catalog *memCatalog, price, mrp int64) store.Product {
	p := store.Product{ID: uuid.New(), Slug: "serum", Name: "Vitamin C Serum", Price: price, MRP: mrp, Stock: 10, Active: true}
	catalog.products[p.ID] = p
	return p
}

func TestEnsureCartCreatesAndReuses(t *testing.T) {
	svc, _, _ := newTestService(t)
	user := uuid.New()

	first, err := svc.EnsureCart(context.Background(), &user, nil)
	require.NoError(t, err)
	second, err := svc.EnsureCart(context.Background(), &user, nil)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	svc, carts, catalog := newTestService(t)
	p := seedProduct(catalog, 50_000, 60_000)
	user := uuid.New()
	c, err := svc.EnsureCart(context.Background(), &user, nil)
	require.NoError(t, err)

	require.NoError(t, svc.AddItem(authed(user), c.ID, p.ID, nil, 1))
	require.NoError(t, svc.AddItem(authed(user), c.ID, p.ID, nil, 2))

	items, err := carts.ListItems(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int32(3), items[0].Qty)
	require.Equal(t, int64(150_000), items[0].Subtotal)
}

func TestApplyCouponEnforcesSingleCoupon(t *testing.T) {
	svc, _, catalog := newTestService(t)
	p := seedProduct(catalog, 100_000, 120_000)
	user := uuid.New()
	c, err := svc.EnsureCart(context.Background(), &user, nil)
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(authed(user), c.ID, p.ID, nil, 1))

	result, err := svc.ApplyCoupon(authed(user), c.ID, "SAVE10")
	require.NoError(t, err)
	require.Equal(t, int64(10_000), result.Discount)

	_, err = svc.ApplyCoupon(authed(user), c.ID, "SAVE10")
	require.ErrorIs(t, err, ErrCouponAlreadyApplied)

	require.NoError(t, svc.RemoveCoupon(authed(user), c.ID))
	_, err = svc.ApplyCoupon(authed(user), c.ID, "SAVE10")
	require.NoError(t, err)
}

func TestApplyCouponRejectionKeepsExisting(t *testing.T) {
	svc, carts, catalog := newTestService(t)
	p := seedProduct(catalog, 100_000, 120_000)
	user := uuid.New()
	c, err := svc.EnsureCart(context.Background(), &user, nil)
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(authed(user), c.ID, p.ID, nil, 1))

	_, err = svc.ApplyCoupon(authed(user), c.ID, "GHOST")
	require.ErrorIs(t, err, coupon.ErrNotFound)

	got, err := carts.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	require.Nil(t, got.AppliedCouponCode)
}

func TestSummarizeComputesTotalsWithCoupon(t *testing.T) {
	svc, _, catalog := newTestService(t)
	p := seedProduct(catalog, 100_000, 120_000)
	user := uuid.New()
	c, err := svc.EnsureCart(context.Background(), &user, nil)
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(authed(user), c.ID, p.ID, nil, 1))
	_, err = svc.ApplyCoupon(authed(user), c.ID, "SAVE10")
	require.NoError(t, err)

	summary, err := svc.Summarize(authed(user), c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100_000), summary.Totals.Subtotal)
	require.Equal(t, int64(10_000), summary.Totals.CouponDiscount)
	// Single item below the free-shipping threshold pays the flat fee.
	require.Equal(t, int64(9_900), summary.Totals.Shipping)
	require.Equal(t, int64(100_000-10_000+9_900), summary.Totals.GrandTotal)
	require.NotNil(t, summary.AppliedCoupon)
	require.Equal(t, "SAVE10", summary.AppliedCoupon.Code)
}

func TestSummarizeFreeShippingAtThreshold(t *testing.T) {
	svc, _, catalog := newTestService(t)
	p := seedProduct(catalog, 50_000, 50_000)
	user := uuid.New()
	c, err := svc.EnsureCart(context.Background(), &user, nil)
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(authed(user), c.ID, p.ID, nil, 2))

	summary, err := svc.Summarize(authed(user), c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), summary.Totals.Shipping)
	// Waived shipping counts toward savings.
	require.Equal(t, int64(9_900), summary.Totals.TotalSavings)
}

func TestMergeTakesLargerQty(t *testing.T) {
	svc, carts, catalog := newTestService(t)
	p := seedProduct(catalog, 10_000, 10_000)
	user := uuid.New()
	anon := "guest-session"

	guest, err := svc.EnsureCart(context.Background(), nil, &anon)
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(context.Background(), guest.ID, p.ID, nil, 3))

	mine, err := svc.EnsureCart(context.Background(), &user, nil)
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(authed(user), mine.ID, p.ID, nil, 1))

	merged, err := svc.Merge(authed(user), guest.ID, user)
	require.NoError(t, err)
	require.Equal(t, mine.ID, merged.ID)

	items, err := carts.ListItems(context.Background(), merged.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int32(3), items[0].Qty)
}

func TestUpdateQtyUnknownItem(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.UpdateQty(context.Background(), uuid.New(), 2)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOwnedCartRejectsOtherCallers(t *testing.T) {
	svc, _, catalog := newTestService(t)
	p := seedProduct(catalog, 10_000, 10_000)
	owner := uuid.New()
	c, err := svc.EnsureCart(context.Background(), &owner, nil)
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(authed(owner), c.ID, p.ID, nil, 1))

	// Anonymous caller holding the cart id.
	_, err = svc.Summarize(context.Background(), c.ID)
	require.ErrorIs(t, err, ErrNotOwned)

	// A different signed-in user.
	stranger := uuid.New()
	require.ErrorIs(t, svc.AddItem(authed(stranger), c.ID, p.ID, nil, 1), ErrNotOwned)
	_, err = svc.ApplyCoupon(authed(stranger), c.ID, "SAVE10")
	require.ErrorIs(t, err, ErrNotOwned)
	require.ErrorIs(t, svc.RemoveCoupon(authed(stranger), c.ID), ErrNotOwned)
	_, err = svc.Merge(authed(stranger), c.ID, stranger)
	require.ErrorIs(t, err, ErrNotOwned)

	// The owner still gets through.
	_, err = svc.Summarize(authed(owner), c.ID)
	require.NoError(t, err)
}

func TestAnonymousCartStaysAddressableByID(t *testing.T) {
	svc, _, catalog := newTestService(t)
	p := seedProduct(catalog, 10_000, 10_000)
	anon := "guest-session"
	c, err := svc.EnsureCart(context.Background(), nil, &anon)
	require.NoError(t, err)

	require.NoError(t, svc.AddItem(context.Background(), c.ID, p.ID, nil, 1))
	_, err = svc.Summarize(context.Background(), c.ID)
	require.NoError(t, err)
}

func TestApplyCouponEmitsAppliedEvent(t *testing.T) {
	svc, _, catalog := newTestService(t)
	sink := &memEventStore{}
	svc.Events = &events.Bus{Store: sink}
	p := seedProduct(catalog, 100_000, 120_000)
	user := uuid.New()
	c, err := svc.EnsureCart(context.Background(), &user, nil)
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(authed(user), c.ID, p.ID, nil, 1))

	_, err = svc.ApplyCoupon(authed(user), c.ID, "SAVE10")
	require.NoError(t, err)

	require.Len(t, sink.inserted, 1)
	require.Equal(t, events.TopicCouponApplied, sink.inserted[0].Topic)
	require.Equal(t, c.ID, sink.inserted[0].AggregateID)

	// A rejected code emits nothing.
	_, err = svc.ApplyCoupon(authed(user), c.ID, "SAVE10")
	require.ErrorIs(t, err, ErrCouponAlreadyApplied)
	require.Len(t, sink.inserted, 1)
}
