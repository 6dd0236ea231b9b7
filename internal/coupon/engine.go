package coupon

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/glowcart/storefront-api/internal/store"
)

var (
	// ErrNotFound is returned when no coupon exists for the given code.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when the coupon has been disabled by an admin.
	ErrInactive = errors.New("coupon not active")
	// ErrNotStarted is returned when the coupon's validity window has not opened yet.
	ErrNotStarted = errors.New("coupon not started yet")
	// ErrExpired is returned when the coupon's validity window has closed.
	ErrExpired = errors.New("coupon expired")
	// ErrMinOrderUnmet indicates the cart subtotal did not reach the coupon's minimum.
	ErrMinOrderUnmet = errors.New("minimum order amount not met")
	// ErrPerUserLimitReached indicates the caller exhausted their personal allowance.
	ErrPerUserLimitReached = errors.New("per-user usage limit reached")
	// ErrUsageLimitReached indicates the coupon exhausted its global quota.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrNotApplicable is returned when the coupon's scope matches nothing in the cart.
	ErrNotApplicable = errors.New("coupon not applicable to these items")
)

// Rule captures the runtime constraints of a coupon.
type Rule struct {
	Code           string
	Scope          string
	Kind           string
	Value          int64
	PercentBps     *int32
	MinOrderAmount int64
	MaxDiscount    *int64
	UsageLimit     *int32
	UsedCount      int32
	PerUserLimit   *int32
	UserID         *uuid.UUID
	CollectionIDs  []uuid.UUID
	StartAt        *time.Time
	EndAt          *time.Time
	Active         bool

	PerUserUsed    int32
	EffectiveLimit int32
}

// Item represents a cart line eligible for coupon calculation.
type Item struct {
	ProductID    uuid.UUID
	CollectionID *uuid.UUID
	Subtotal     int64
}

// Validate ensures the rule can be applied at the provided instant and subtotal.
func (r Rule) Validate(now time.Time, subtotal int64) error {
	if !r.Active {
		return ErrInactive
	}
	if r.StartAt != nil && now.Before(*r.StartAt) {
		return ErrNotStarted
	}
	if r.EndAt != nil && now.After(*r.EndAt) {
		return ErrExpired
	}
	if subtotal < r.MinOrderAmount {
		return ErrMinOrderUnmet
	}
	if r.UsageLimit != nil && *r.UsageLimit >= 0 && r.UsedCount >= *r.UsageLimit {
		return ErrUsageLimitReached
	}
	if r.EffectiveLimit > 0 && r.PerUserUsed >= r.EffectiveLimit {
		return ErrPerUserLimitReached
	}
	return nil
}

// ValidateForUser checks user-scoped coupon ownership.
func (r Rule) ValidateForUser(userID *uuid.UUID) error {
	if r.Scope != store.CouponScopeUser {
		return nil
	}
	if r.UserID == nil || userID == nil || *r.UserID != *userID {
		return ErrNotApplicable
	}
	return nil
}

// EligibleSubtotal calculates the portion of the cart affected by the rule.
// Sales and user coupons cover the whole cart; collection coupons cover only
// lines from the listed collections.
func EligibleSubtotal(items []Item, r Rule) int64 {
	var total int64
	scoped := r.Scope == store.CouponScopeCollection && len(r.CollectionIDs) > 0
	for _, it := range items {
		if it.Subtotal <= 0 {
			continue
		}
		if !scoped || ruleMatchesItem(r, it) {
			total += it.Subtotal
		}
	}
	return total
}

func ruleMatchesItem(r Rule, it Item) bool {
	if it.CollectionID == nil {
		return false
	}
	for _, id := range r.CollectionIDs {
		if id == *it.CollectionID {
			return true
		}
	}
	return false
}

// Compute determines the discount amount for the eligible subtotal. The
// result never exceeds the eligible amount and honors MaxDiscount.
func Compute(eligible int64, r Rule) int64 {
	if eligible <= 0 {
		return 0
	}
	discount := r.Value
	if strings.EqualFold(r.Kind, store.CouponKindPercent) {
		if r.PercentBps == nil || *r.PercentBps <= 0 {
			return 0
		}
		discount = (eligible * int64(*r.PercentBps)) / 10000
	}
	if r.MaxDiscount != nil && *r.MaxDiscount >= 0 && discount > *r.MaxDiscount {
		discount = *r.MaxDiscount
	}
	if discount > eligible {
		discount = eligible
	}
	if discount < 0 {
		return 0
	}
	return discount
}

// RuleFromModel converts a stored coupon into a Rule used for evaluation.
func RuleFromModel(c store.Coupon) Rule {
	return Rule{
		Code:           c.Code,
		Scope:          c.Scope,
		Kind:           c.Kind,
		Value:          c.Value,
		PercentBps:     c.PercentBps,
		MinOrderAmount: c.MinOrderAmount,
		MaxDiscount:    c.MaxDiscount,
		UsageLimit:     c.UsageLimit,
		UsedCount:      c.UsedCount,
		PerUserLimit:   c.PerUserLimit,
		UserID:         c.UserID,
		CollectionIDs:  c.CollectionIDs,
		StartAt:        c.StartAt,
		EndAt:          c.EndAt,
		Active:         c.Active,
	}
}
