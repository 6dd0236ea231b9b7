package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glowcart/storefront-api/internal/cart"
	"github.com/glowcart/storefront-api/internal/events"
	"github.com/glowcart/storefront-api/internal/lock"
	"github.com/glowcart/storefront-api/internal/obs"
	"github.com/glowcart/storefront-api/internal/pricing"
	"github.com/glowcart/storefront-api/internal/store"
)

// ErrCartNotOwned is returned when the cart belongs to a different user.
var ErrCartNotOwned = errors.New("cart does not belong to user")

// ErrCartEmpty is returned when checking out a cart with no items.
var ErrCartEmpty = errors.New("cart is empty")

// Input is the checkout request payload.
type Input struct {
	CartID uuid.UUID `json:"cartId"`
	Notes  *string   `json:"notes"`
}

// Output summarises the created order.
type Output struct {
	OrderID uuid.UUID       `json:"orderId"`
	Status  string          `json:"status"`
	Totals  pricing.Summary `json:"totals"`
}

// Service turns a priced cart into an immutable order.
type Service struct {
	Pool     *pgxpool.Pool
	Orders   *store.OrderRepo
	Carts    cart.Store
	CartSvc  *cart.Service
	Coupons  couponSettler
	Events   *events.Bus
	Locks    lock.Locker
	Currency string
	TaxBps   int
	Shipping pricing.ShippingPolicy
}

type couponSettler interface {
	Settle(ctx context.Context, code string, orderID uuid.UUID, userID *uuid.UUID, amount int64) error
}

// Create snapshots the cart into an order inside one transaction, settles any
// applied coupon, and emits an order.created event. A per-cart lock guards
// against double-submitted checkouts creating two orders.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in Input) (Output, error) {
	if s == nil || s.Pool == nil || s.Orders == nil || s.Carts == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if in.CartID == uuid.Nil {
		return Output{}, errors.New("cartId is required")
	}
	if s.Locks.Client == nil {
		return s.create(ctx, userID, in)
	}
	var out Output
	err := s.Locks.WithLock(ctx, lock.CartKey(in.CartID), 30*time.Second, func(ctx context.Context) error {
		var lockErr error
		out, lockErr = s.create(ctx, userID, in)
		return lockErr
	})
	return out, err
}

func (s *Service) create(ctx context.Context, userID uuid.UUID, in Input) (Output, error) {
	start := time.Now()

	cartRow, err := s.Carts.GetByID(ctx, in.CartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Output{}, cart.ErrNotFound
		}
		return Output{}, err
	}
	if cartRow.UserID != nil && *cartRow.UserID != userID {
		return Output{}, ErrCartNotOwned
	}
	items, err := s.Carts.ListItems(ctx, in.CartID)
	if err != nil {
		return Output{}, err
	}
	if len(items) == 0 {
		return Output{}, ErrCartEmpty
	}

	// Re-validate the applied coupon at settlement time. A coupon that no
	// longer validates contributes no discount rather than failing checkout.
	var (
		discount   int64
		couponCode *string
	)
	if cartRow.AppliedCouponCode != nil && s.CartSvc != nil {
		result, err := s.CartSvc.EvaluateCoupon(ctx, in.CartID, *cartRow.AppliedCouponCode)
		if err == nil {
			discount = result.Discount
			couponCode = cartRow.AppliedCouponCode
		}
	}

	pricingItems := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		pricingItems = append(pricingItems, pricing.Item{Qty: int(it.Qty), UnitPrice: it.UnitPrice, MRP: it.MRP})
	}
	summary := pricing.Compute(pricingItems, discount, s.TaxBps, s.Shipping)

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Output{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	order, err := s.Orders.CreateTx(ctx, tx, store.Order{
		UserID:         userID,
		CartID:         in.CartID,
		Status:         store.OrderStatusPendingPayment,
		Currency:       s.Currency,
		TotalMRP:       summary.TotalMRP,
		Subtotal:       summary.Subtotal,
		DiscountOnMRP:  summary.DiscountOnMRP,
		CouponDiscount: summary.CouponDiscount,
		Shipping:       summary.Shipping,
		Tax:            summary.Tax,
		GrandTotal:     summary.GrandTotal,
		TotalSavings:   summary.TotalSavings,
		CouponCode:     couponCode,
		Notes:          in.Notes,
	})
	if err != nil {
		return Output{}, err
	}
	orderItems := make([]store.OrderItem, 0, len(items))
	for _, it := range items {
		orderItems = append(orderItems, store.OrderItem{
			OrderID:     order.ID,
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			Name:        it.Name,
			VariantName: it.VariantName,
			Qty:         it.Qty,
			UnitPrice:   it.UnitPrice,
			MRP:         it.MRP,
			Subtotal:    it.Subtotal,
		})
	}
	if err := s.Orders.CreateItemsTx(ctx, tx, orderItems); err != nil {
		return Output{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Output{}, err
	}

	if couponCode != nil && s.Coupons != nil {
		if err := s.Coupons.Settle(ctx, *couponCode, order.ID, &userID, summary.CouponDiscount); err != nil {
			// The order stands; redemption bookkeeping is retried out of band.
			err = fmt.Errorf("settle coupon %s for order %s: %w", *couponCode, order.ID, err)
			s.emit(ctx, events.TopicCouponSettleFailed, order.ID, map[string]any{
				"couponCode": *couponCode,
				"error":      err.Error(),
			})
		} else {
			s.emit(ctx, events.TopicCouponRedeemed, order.ID, map[string]any{
				"orderId":    order.ID.String(),
				"couponCode": *couponCode,
				"discount":   summary.CouponDiscount,
			})
		}
	}
	_ = s.Carts.SetCoupon(ctx, in.CartID, nil)

	s.emit(ctx, events.TopicOrderCreated, order.ID, map[string]any{
		"orderId":    order.ID.String(),
		"userId":     userID.String(),
		"grandTotal": summary.GrandTotal,
		"couponCode": couponCode,
	})
	if obs.OrdersCreatedTotal != nil {
		obs.OrdersCreatedTotal.Inc()
	}
	if obs.CheckoutDuration != nil {
		obs.CheckoutDuration.Observe(obs.DurationMillis(time.Since(start)))
	}
	return Output{OrderID: order.ID, Status: order.Status, Totals: summary}, nil
}

func (s *Service) emit(ctx context.Context, topic string, aggregateID uuid.UUID, payload any) {
	if s.Events == nil {
		return
	}
	_, _ = s.Events.Emit(ctx, topic, aggregateID, payload)
}
