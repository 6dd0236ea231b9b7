package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/glowcart/storefront-api/internal/obs"
	"github.com/glowcart/storefront-api/internal/store"
)

// Querier captures the persistence methods required by the coupon service.
type Querier interface {
	GetByCode(ctx context.Context, code string) (store.Coupon, error)
	ListActive(ctx context.Context, now time.Time) ([]store.Coupon, error)
	ListForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]store.Coupon, error)
	CountRedemptionsByUser(ctx context.Context, couponID, userID uuid.UUID) (int64, error)
	GetRedemptionByOrder(ctx context.Context, couponID, orderID uuid.UUID) (store.Redemption, error)
	InsertRedemption(ctx context.Context, red store.Redemption) error
}

// Result describes the outcome of evaluating a coupon without mutating state.
type Result struct {
	Coupon         store.Coupon `json:"coupon"`
	Discount       int64        `json:"discount"`
	EligibleAmount int64        `json:"eligibleAmount"`
}

// Service encapsulates coupon rule evaluation and settlement behaviour.
type Service struct {
	Q                   Querier
	Now                 func() time.Time
	DefaultPerUserLimit int
}

// Validate performs a dry-run evaluation of the coupon code against the cart
// snapshot. Nothing is persisted; callers apply the returned discount.
func (s *Service) Validate(ctx context.Context, code string, userID *uuid.UUID, subtotal int64, items []Item) (Result, error) {
	if s == nil || s.Q == nil {
		return Result{}, errors.New("coupon service not configured")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return Result{}, fmt.Errorf("code is required: %w", ErrNotFound)
	}
	c, err := s.Q.GetByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.countRejection(ErrNotFound)
			return Result{}, ErrNotFound
		}
		return Result{}, err
	}

	rule := RuleFromModel(c)
	if err := rule.ValidateForUser(userID); err != nil {
		s.countRejection(err)
		return Result{}, err
	}

	if limit := s.effectivePerUserLimit(rule); limit > 0 {
		rule.EffectiveLimit = limit
		if userID != nil {
			used, err := s.Q.CountRedemptionsByUser(ctx, c.ID, *userID)
			if err != nil {
				return Result{}, err
			}
			rule.PerUserUsed = int32(used)
		}
	}

	if err := rule.Validate(s.now(), subtotal); err != nil {
		s.countRejection(err)
		return Result{}, err
	}

	eligible := EligibleSubtotal(items, rule)
	if eligible <= 0 {
		s.countRejection(ErrNotApplicable)
		return Result{}, ErrNotApplicable
	}
	discount := Compute(eligible, rule)
	if discount <= 0 {
		s.countRejection(ErrNotApplicable)
		return Result{}, ErrNotApplicable
	}

	if obs.CouponValidateTotal != nil {
		obs.CouponValidateTotal.WithLabelValues("accepted").Inc()
	}
	return Result{Coupon: c, Discount: discount, EligibleAmount: eligible}, nil
}

// Settle records coupon usage at checkout time. Settling the same order twice
// is a no-op, as is settling an unknown code.
func (s *Service) Settle(ctx context.Context, code string, orderID uuid.UUID, userID *uuid.UUID, amount int64) error {
	if s == nil || s.Q == nil {
		return errors.New("coupon service not configured")
	}
	if strings.TrimSpace(code) == "" || orderID == uuid.Nil || amount < 0 {
		return nil
	}
	c, err := s.Q.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	_, err = s.Q.GetRedemptionByOrder(ctx, c.ID, orderID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	red := store.Redemption{CouponID: c.ID, OrderID: orderID, UserID: userID, Amount: amount}
	if err := s.Q.InsertRedemption(ctx, red); err != nil {
		return err
	}
	if obs.CouponAppliedTotal != nil {
		obs.CouponAppliedTotal.WithLabelValues(c.Scope).Inc()
	}
	return nil
}

// Active lists coupons currently inside their validity window.
func (s *Service) Active(ctx context.Context) ([]store.Coupon, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("coupon service not configured")
	}
	return s.Q.ListActive(ctx, s.now())
}

// Available lists coupons relevant to the user and, when provided, filters
// collection-scoped coupons to the given collection.
func (s *Service) Available(ctx context.Context, userID *uuid.UUID, collectionID *uuid.UUID) ([]store.Coupon, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("coupon service not configured")
	}
	var (
		coupons []store.Coupon
		err     error
	)
	if userID != nil {
		coupons, err = s.Q.ListForUser(ctx, *userID, s.now())
	} else {
		coupons, err = s.Q.ListActive(ctx, s.now())
		if err == nil {
			coupons = dropUserScoped(coupons)
		}
	}
	if err != nil {
		return nil, err
	}
	if collectionID == nil {
		return coupons, nil
	}
	out := coupons[:0]
	for _, c := range coupons {
		if c.Scope != store.CouponScopeCollection || containsID(c.CollectionIDs, *collectionID) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ForUser lists active coupons visible to a specific user.
func (s *Service) ForUser(ctx context.Context, userID uuid.UUID) ([]store.Coupon, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("coupon service not configured")
	}
	return s.Q.ListForUser(ctx, userID, s.now())
}

func (s *Service) effectivePerUserLimit(rule Rule) int32 {
	if rule.PerUserLimit != nil && *rule.PerUserLimit > 0 {
		return *rule.PerUserLimit
	}
	if s.DefaultPerUserLimit > 0 {
		return int32(s.DefaultPerUserLimit)
	}
	return 0
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) countRejection(err error) {
	if obs.CouponValidateTotal != nil {
		obs.CouponValidateTotal.WithLabelValues("rejected").Inc()
	}
	if obs.CouponRejectedTotal != nil {
		obs.CouponRejectedTotal.WithLabelValues(rejectionReason(err)).Inc()
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInactive):
		return "inactive"
	case errors.Is(err, ErrNotStarted):
		return "not_started"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrMinOrderUnmet):
		return "min_order_unmet"
	case errors.Is(err, ErrPerUserLimitReached):
		return "per_user_limit"
	case errors.Is(err, ErrUsageLimitReached):
		return "usage_limit"
	case errors.Is(err, ErrNotApplicable):
		return "not_applicable"
	default:
		return "other"
	}
}

func dropUserScoped(coupons []store.Coupon) []store.Coupon {
	out := coupons[:0]
	for _, c := range coupons {
		if c.Scope != store.CouponScopeUser {
			out = append(out, c)
		}
	}
	return out
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
