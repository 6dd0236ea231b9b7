package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/glowcart/storefront-api/internal/common"
	"github.com/glowcart/storefront-api/internal/coupon"
	"github.com/glowcart/storefront-api/internal/events"
	"github.com/glowcart/storefront-api/internal/pricing"
	"github.com/glowcart/storefront-api/internal/store"
)

// ErrNotFound indicates the requested cart or item could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrCouponAlreadyApplied is returned when a coupon is applied to a cart that
// already carries one. The existing coupon must be removed first.
var ErrCouponAlreadyApplied = errors.New("a coupon is already applied to this cart")

// ErrNotOwned is returned when a signed-in user's cart is accessed by anyone
// other than its owner.
var ErrNotOwned = errors.New("cart does not belong to caller")

// Store captures the cart persistence methods used by the service.
type Store interface {
	Create(ctx context.Context, userID *uuid.UUID, anonID *string, expiresAt time.Time) (store.Cart, error)
	GetByID(ctx context.Context, id uuid.UUID) (store.Cart, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (store.Cart, error)
	GetActiveByAnon(ctx context.Context, anonID string) (store.Cart, error)
	Touch(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	SetCoupon(ctx context.Context, id uuid.UUID, code *string) error
	TransferToUser(ctx context.Context, id, userID uuid.UUID) error
	ListItems(ctx context.Context, cartID uuid.UUID) ([]store.CartItem, error)
	GetItemByID(ctx context.Context, itemID uuid.UUID) (store.CartItem, error)
	FindItem(ctx context.Context, cartID, productID uuid.UUID, variantID *uuid.UUID) (store.CartItem, error)
	CreateItem(ctx context.Context, it store.CartItem) (store.CartItem, error)
	UpdateItemQty(ctx context.Context, itemID uuid.UUID, qty int32, subtotal int64) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
}

// Catalog captures the product lookups needed when adding items.
type Catalog interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (store.Product, error)
	GetVariant(ctx context.Context, id uuid.UUID) (store.Variant, error)
}

// Summary is the fully priced view of a cart returned to clients.
type Summary struct {
	Cart          store.Cart       `json:"cart"`
	Items         []store.CartItem `json:"items"`
	Totals        pricing.Summary  `json:"totals"`
	AppliedCoupon *store.Coupon    `json:"appliedCoupon,omitempty"`
}

// Service encapsulates cart domain operations.
type Service struct {
	Carts    Store
	Catalog  Catalog
	Coupons  *coupon.Service
	Events   *events.Bus
	TTL      time.Duration
	TaxBps   int
	Shipping pricing.ShippingPolicy
	Now      func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 30 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// getAuthorized loads the cart and enforces ownership: a cart claimed by a
// signed-in user is only reachable by that user. Anonymous carts stay
// addressable by id possession until merged.
func (s *Service) getAuthorized(ctx context.Context, cartID uuid.UUID) (store.Cart, error) {
	c, err := s.Carts.GetByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Cart{}, ErrNotFound
		}
		return store.Cart{}, err
	}
	if c.UserID != nil {
		caller, ok := common.UserID(ctx)
		if !ok || caller != *c.UserID {
			return store.Cart{}, ErrNotOwned
		}
	}
	return c, nil
}

// EnsureCart loads the caller's active cart, creating one when none exists.
func (s *Service) EnsureCart(ctx context.Context, userID *uuid.UUID, anonID *string) (store.Cart, error) {
	if s == nil || s.Carts == nil {
		return store.Cart{}, errors.New("cart service not configured")
	}
	expires := s.now().Add(s.ttl())

	if userID != nil {
		c, err := s.Carts.GetActiveByUser(ctx, *userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return s.Carts.Create(ctx, userID, nil, expires)
			}
			return store.Cart{}, err
		}
		_ = s.Carts.Touch(ctx, c.ID, expires)
		return c, nil
	}

	if anonID != nil && *anonID != "" {
		c, err := s.Carts.GetActiveByAnon(ctx, *anonID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return s.Carts.Create(ctx, nil, anonID, expires)
			}
			return store.Cart{}, err
		}
		_ = s.Carts.Touch(ctx, c.ID, expires)
		return c, nil
	}

	return store.Cart{}, fmt.Errorf("user or session id required: %w", ErrInvalidInput)
}

// AddItem inserts or increments a cart line, snapshotting the product's
// current price, MRP, and display fields.
func (s *Service) AddItem(ctx context.Context, cartID, productID uuid.UUID, variantID *uuid.UUID, qty int) error {
	if s == nil || s.Carts == nil || s.Catalog == nil {
		return errors.New("cart service not configured")
	}
	if qty <= 0 {
		return fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	if _, err := s.getAuthorized(ctx, cartID); err != nil {
		return err
	}

	expires := s.now().Add(s.ttl())
	existing, err := s.Carts.FindItem(ctx, cartID, productID, variantID)
	if err == nil {
		newQty := existing.Qty + int32(qty)
		if err := s.Carts.UpdateItemQty(ctx, existing.ID, newQty, int64(newQty)*existing.UnitPrice); err != nil {
			return err
		}
		_ = s.Carts.Touch(ctx, cartID, expires)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	product, err := s.Catalog.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product not found: %w", ErrInvalidInput)
		}
		return err
	}
	unitPrice := product.Price
	mrp := product.MRP
	var variantName *string
	if variantID != nil {
		variant, err := s.Catalog.GetVariant(ctx, *variantID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("variant not found: %w", ErrInvalidInput)
			}
			return err
		}
		if variant.ProductID != productID {
			return fmt.Errorf("variant does not belong to product: %w", ErrInvalidInput)
		}
		if variant.Stock <= 0 {
			return fmt.Errorf("variant out of stock: %w", ErrInvalidInput)
		}
		unitPrice = variant.Price
		mrp = variant.MRP
		variantName = &variant.Name
	} else if product.Stock <= 0 {
		return fmt.Errorf("product out of stock: %w", ErrInvalidInput)
	}
	if unitPrice < 0 {
		unitPrice = 0
	}
	if mrp < unitPrice {
		mrp = unitPrice
	}

	if _, err := s.Carts.CreateItem(ctx, store.CartItem{
		CartID:       cartID,
		ProductID:    productID,
		VariantID:    variantID,
		Name:         product.Name,
		VariantName:  variantName,
		ImageURL:     product.ImageURL,
		CollectionID: product.CollectionID,
		Qty:          int32(qty),
		UnitPrice:    unitPrice,
		MRP:          mrp,
		Subtotal:     int64(qty) * unitPrice,
	}); err != nil {
		return err
	}
	_ = s.Carts.Touch(ctx, cartID, expires)
	return nil
}

// UpdateQty replaces the quantity for a cart line.
func (s *Service) UpdateQty(ctx context.Context, itemID uuid.UUID, qty int) error {
	if s == nil || s.Carts == nil {
		return errors.New("cart service not configured")
	}
	if qty <= 0 {
		return fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	item, err := s.Carts.GetItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if _, err := s.getAuthorized(ctx, item.CartID); err != nil {
		return err
	}
	if err := s.Carts.UpdateItemQty(ctx, item.ID, int32(qty), int64(qty)*item.UnitPrice); err != nil {
		return err
	}
	_ = s.Carts.Touch(ctx, item.CartID, s.now().Add(s.ttl()))
	return nil
}

// RemoveItem deletes a cart line.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	if s == nil || s.Carts == nil {
		return errors.New("cart service not configured")
	}
	if _, err := s.getAuthorized(ctx, cartID); err != nil {
		return err
	}
	if err := s.Carts.DeleteItem(ctx, cartID, itemID); err != nil {
		return err
	}
	_ = s.Carts.Touch(ctx, cartID, s.now().Add(s.ttl()))
	return nil
}

// ApplyCoupon validates the code against the cart and records it as the
// cart's applied coupon. A cart carries at most one coupon at a time; a
// failed validation leaves any previously applied coupon untouched.
func (s *Service) ApplyCoupon(ctx context.Context, cartID uuid.UUID, code string) (coupon.Result, error) {
	if s == nil || s.Carts == nil || s.Coupons == nil {
		return coupon.Result{}, errors.New("cart service not configured")
	}
	c, err := s.getAuthorized(ctx, cartID)
	if err != nil {
		return coupon.Result{}, err
	}
	if c.AppliedCouponCode != nil {
		return coupon.Result{}, ErrCouponAlreadyApplied
	}

	items, subtotal, err := s.loadItems(ctx, cartID)
	if err != nil {
		return coupon.Result{}, err
	}
	result, err := s.Coupons.Validate(ctx, code, c.UserID, subtotal, couponItems(items))
	if err != nil {
		return coupon.Result{}, err
	}
	applied := result.Coupon.Code
	if err := s.Carts.SetCoupon(ctx, cartID, &applied); err != nil {
		return coupon.Result{}, err
	}
	_ = s.Carts.Touch(ctx, cartID, s.now().Add(s.ttl()))
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicCouponApplied, cartID, map[string]any{
			"cartId":   cartID.String(),
			"code":     applied,
			"discount": result.Discount,
		})
	}
	return result, nil
}

// RemoveCoupon clears the applied coupon, if any.
func (s *Service) RemoveCoupon(ctx context.Context, cartID uuid.UUID) error {
	if s == nil || s.Carts == nil {
		return errors.New("cart service not configured")
	}
	if _, err := s.getAuthorized(ctx, cartID); err != nil {
		return err
	}
	if err := s.Carts.SetCoupon(ctx, cartID, nil); err != nil {
		return err
	}
	_ = s.Carts.Touch(ctx, cartID, s.now().Add(s.ttl()))
	return nil
}

// Summarize prices the cart: aggregates lines, re-validates any applied
// coupon, and computes the order totals. A coupon that no longer validates
// contributes no discount but stays on the cart until removed explicitly.
func (s *Service) Summarize(ctx context.Context, cartID uuid.UUID) (Summary, error) {
	if s == nil || s.Carts == nil {
		return Summary{}, errors.New("cart service not configured")
	}
	c, err := s.getAuthorized(ctx, cartID)
	if err != nil {
		return Summary{}, err
	}
	items, subtotal, err := s.itemsAllowEmpty(ctx, cartID)
	if err != nil {
		return Summary{}, err
	}

	var (
		discount      int64
		appliedCoupon *store.Coupon
	)
	if c.AppliedCouponCode != nil && s.Coupons != nil && subtotal > 0 {
		result, err := s.Coupons.Validate(ctx, *c.AppliedCouponCode, c.UserID, subtotal, couponItems(items))
		if err == nil {
			discount = result.Discount
			applied := result.Coupon
			appliedCoupon = &applied
		}
	}

	totals := pricing.Compute(pricingItems(items), discount, s.TaxBps, s.Shipping)
	return Summary{Cart: c, Items: items, Totals: totals, AppliedCoupon: appliedCoupon}, nil
}

// EvaluateCoupon exposes coupon evaluation against a cart for other services
// without mutating state.
func (s *Service) EvaluateCoupon(ctx context.Context, cartID uuid.UUID, code string) (coupon.Result, error) {
	if s == nil || s.Carts == nil || s.Coupons == nil {
		return coupon.Result{}, errors.New("cart service not configured")
	}
	c, err := s.Carts.GetByID(ctx, cartID)
	if err != nil {
		return coupon.Result{}, err
	}
	items, subtotal, err := s.loadItems(ctx, cartID)
	if err != nil {
		return coupon.Result{}, err
	}
	return s.Coupons.Validate(ctx, code, c.UserID, subtotal, couponItems(items))
}

// Merge moves guest cart items into the user's active cart, returning the
// resulting cart. Quantities take the larger of the two sides.
func (s *Service) Merge(ctx context.Context, guestCartID, userID uuid.UUID) (store.Cart, error) {
	if s == nil || s.Carts == nil {
		return store.Cart{}, errors.New("cart service not configured")
	}
	guest, err := s.Carts.GetByID(ctx, guestCartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Cart{}, ErrNotFound
		}
		return store.Cart{}, err
	}
	if guest.UserID != nil && *guest.UserID != userID {
		return store.Cart{}, ErrNotOwned
	}
	userCart, err := s.EnsureCart(ctx, &userID, nil)
	if err != nil {
		return store.Cart{}, err
	}
	guestItems, err := s.Carts.ListItems(ctx, guestCartID)
	if err != nil {
		return store.Cart{}, err
	}
	for _, item := range guestItems {
		existing, err := s.Carts.FindItem(ctx, userCart.ID, item.ProductID, item.VariantID)
		if err == nil {
			if existing.Qty < item.Qty {
				if err := s.Carts.UpdateItemQty(ctx, existing.ID, item.Qty, int64(item.Qty)*existing.UnitPrice); err != nil {
					return store.Cart{}, err
				}
			}
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return store.Cart{}, err
		}
		item.ID = uuid.Nil
		item.CartID = userCart.ID
		if _, err := s.Carts.CreateItem(ctx, item); err != nil {
			return store.Cart{}, err
		}
	}
	_ = s.Carts.Touch(ctx, userCart.ID, s.now().Add(s.ttl()))
	// Expire the guest cart immediately and hand it to the user for history.
	_ = s.Carts.Touch(ctx, guest.ID, s.now())
	_ = s.Carts.SetCoupon(ctx, guest.ID, nil)
	_ = s.Carts.TransferToUser(ctx, guest.ID, userID)
	return userCart, nil
}

func (s *Service) loadItems(ctx context.Context, cartID uuid.UUID) ([]store.CartItem, int64, error) {
	items, subtotal, err := s.itemsAllowEmpty(ctx, cartID)
	if err != nil {
		return nil, 0, err
	}
	if len(items) == 0 {
		return nil, 0, fmt.Errorf("cart is empty: %w", ErrInvalidInput)
	}
	return items, subtotal, nil
}

func (s *Service) itemsAllowEmpty(ctx context.Context, cartID uuid.UUID) ([]store.CartItem, int64, error) {
	items, err := s.Carts.ListItems(ctx, cartID)
	if err != nil {
		return nil, 0, err
	}
	var subtotal int64
	for _, it := range items {
		subtotal += it.Subtotal
	}
	return items, subtotal, nil
}

func couponItems(items []store.CartItem) []coupon.Item {
	out := make([]coupon.Item, 0, len(items))
	for _, it := range items {
		out = append(out, coupon.Item{
			ProductID:    it.ProductID,
			CollectionID: it.CollectionID,
			Subtotal:     it.Subtotal,
		})
	}
	return out
}

func pricingItems(items []store.CartItem) []pricing.Item {
	out := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		out = append(out, pricing.Item{
			Qty:       int(it.Qty),
			UnitPrice: it.UnitPrice,
			MRP:       it.MRP,
		})
	}
	return out
}
