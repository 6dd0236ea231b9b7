package coupon

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/glowcart/storefront-api/internal/store"
)

func int32p(v int32) *int32 { return &v }
func int64p(v int64) *int64 { return &v }

func TestRuleValidateWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	cases := []struct {
		name string
		rule Rule
		want error
	}{
		{"active window", Rule{Active: true, StartAt: &past, EndAt: &future}, nil},
		{"inactive", Rule{Active: false}, ErrInactive},
		{"not started", Rule{Active: true, StartAt: &future}, ErrNotStarted},
		{"expired", Rule{Active: true, EndAt: &past}, ErrExpired},
		{"min order unmet", Rule{Active: true, MinOrderAmount: 50_000}, ErrMinOrderUnmet},
		{"usage limit", Rule{Active: true, UsageLimit: int32p(10), UsedCount: 10}, ErrUsageLimitReached},
		{"per user limit", Rule{Active: true, EffectiveLimit: 1, PerUserUsed: 1}, ErrPerUserLimitReached},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rule.Validate(now, 10_000)
			if !errors.Is(err, tc.want) && !(err == nil && tc.want == nil) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestComputePercent(t *testing.T) {
	rule := Rule{Kind: store.CouponKindPercent, PercentBps: int32p(1000)}
	// 10% of Rs 1000 is Rs 100.
	if got := Compute(100_000, rule); got != 10_000 {
		t.Fatalf("Compute = %d, want 10000", got)
	}
}

func TestComputeFlatClampsToEligible(t *testing.T) {
	rule := Rule{Kind: store.CouponKindFlat, Value: 50_000}
	if got := Compute(20_000, rule); got != 20_000 {
		t.Fatalf("Compute = %d, want 20000", got)
	}
}

func TestComputeHonorsMaxDiscount(t *testing.T) {
	rule := Rule{Kind: store.CouponKindPercent, PercentBps: int32p(5000), MaxDiscount: int64p(15_000)}
	if got := Compute(100_000, rule); got != 15_000 {
		t.Fatalf("Compute = %d, want 15000", got)
	}
}

func TestComputePercentWithoutBps(t *testing.T) {
	rule := Rule{Kind: store.CouponKindPercent}
	if got := Compute(100_000, rule); got != 0 {
		t.Fatalf("Compute = %d, want 0", got)
	}
}

func TestEligibleSubtotalCollectionScope(t *testing.T) {
	kids := uuid.New()
	teens := uuid.New()
	rule := Rule{Scope: store.CouponScopeCollection, CollectionIDs: []uuid.UUID{kids}}
	items := []Item{
		{ProductID: uuid.New(), CollectionID: &kids, Subtotal: 30_000},
		{ProductID: uuid.New(), CollectionID: &teens, Subtotal: 40_000},
		{ProductID: uuid.New(), Subtotal: 10_000},
	}
	if got := EligibleSubtotal(items, rule); got != 30_000 {
		t.Fatalf("EligibleSubtotal = %d, want 30000", got)
	}
}

func TestEligibleSubtotalSalesScopeCoversAll(t *testing.T) {
	rule := Rule{Scope: store.CouponScopeSales}
	items := []Item{
		{ProductID: uuid.New(), Subtotal: 30_000},
		{ProductID: uuid.New(), Subtotal: -5},
		{ProductID: uuid.New(), Subtotal: 40_000},
	}
	if got := EligibleSubtotal(items, rule); got != 70_000 {
		t.Fatalf("EligibleSubtotal = %d, want 70000", got)
	}
}

func TestValidateForUser(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	rule := Rule{Scope: store.CouponScopeUser, UserID: &owner}

	if err := rule.ValidateForUser(&owner); err != nil {
		t.Fatalf("owner should pass, got %v", err)
	}
	if err := rule.ValidateForUser(&other); !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("other user = %v, want ErrNotApplicable", err)
	}
	if err := rule.ValidateForUser(nil); !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("anonymous = %v, want ErrNotApplicable", err)
	}
}
