package pricing

import "testing"

func TestAggregateLineClampsNegativeDiscount(t *testing.T) {
	// Selling price above MRP must never surface a negative saving.
	line := AggregateLine(Item{Qty: 2, UnitPrice: 50_000, MRP: 40_000})
	if line.Discount != 0 {
		t.Fatalf("expected zero discount, got %d", line.Discount)
	}
	if line.Total != 100_000 {
		t.Fatalf("expected line total 100000, got %d", line.Total)
	}
}

func TestAggregateSums(t *testing.T) {
	items := []Item{
		{Qty: 2, UnitPrice: 29_900, MRP: 39_900},
		{Qty: 1, UnitPrice: 49_900, MRP: 49_900},
		{Qty: 0, UnitPrice: 10_000, MRP: 10_000},
	}
	totals := Aggregate(items)
	if totals.Subtotal != 2*29_900+49_900 {
		t.Fatalf("unexpected subtotal %d", totals.Subtotal)
	}
	if totals.TotalMRP != 2*39_900+49_900 {
		t.Fatalf("unexpected mrp total %d", totals.TotalMRP)
	}
	if totals.DiscountOnMRP != 20_000 {
		t.Fatalf("unexpected discount on mrp %d", totals.DiscountOnMRP)
	}
	if totals.Quantity != 3 {
		t.Fatalf("unexpected quantity %d", totals.Quantity)
	}
}

func TestShippingThreshold(t *testing.T) {
	policy := ShippingPolicy{FlatFee: 9_900, FreeMinQty: 2}
	if fee := policy.Fee(1); fee != 9_900 {
		t.Fatalf("single unit should pay flat fee, got %d", fee)
	}
	if fee := policy.Fee(2); fee != 0 {
		t.Fatalf("two units should ship free, got %d", fee)
	}
	if fee := policy.Fee(0); fee != 0 {
		t.Fatalf("empty cart should have no fee, got %d", fee)
	}
}

func TestComputeTenPercentCoupon(t *testing.T) {
	// ₹1000 subtotal with a ₹100 coupon discount.
	items := []Item{{Qty: 1, UnitPrice: 100_000, MRP: 100_000}}
	ship := ShippingPolicy{FlatFee: 9_900, FreeMinQty: 2}
	summary := Compute(items, 10_000, 1800, ship)
	if summary.CouponDiscount != 10_000 {
		t.Fatalf("unexpected coupon discount %d", summary.CouponDiscount)
	}
	taxable := int64(90_000)
	wantTax := taxable * 1800 / 10000
	if summary.Tax != wantTax {
		t.Fatalf("unexpected tax %d want %d", summary.Tax, wantTax)
	}
	want := taxable + wantTax + 9_900
	if summary.GrandTotal != want {
		t.Fatalf("unexpected grand total %d want %d", summary.GrandTotal, want)
	}
}

func TestComputeClampsCouponAndFloor(t *testing.T) {
	items := []Item{{Qty: 1, UnitPrice: 5_000, MRP: 5_000}}
	summary := Compute(items, 100_000, 0, ShippingPolicy{})
	if summary.CouponDiscount != 5_000 {
		t.Fatalf("coupon should clamp to subtotal, got %d", summary.CouponDiscount)
	}
	if summary.GrandTotal != 0 {
		t.Fatalf("grand total should floor at zero, got %d", summary.GrandTotal)
	}
}

func TestComputeSavingsIncludeWaivedShipping(t *testing.T) {
	items := []Item{{Qty: 2, UnitPrice: 40_000, MRP: 50_000}}
	summary := Compute(items, 0, 0, ShippingPolicy{FlatFee: 9_900, FreeMinQty: 2})
	if summary.Shipping != 0 {
		t.Fatalf("expected free shipping, got %d", summary.Shipping)
	}
	if summary.TotalSavings != 20_000+9_900 {
		t.Fatalf("unexpected savings %d", summary.TotalSavings)
	}
}

func TestComputeIdempotent(t *testing.T) {
	items := []Item{
		{Qty: 3, UnitPrice: 19_900, MRP: 24_900},
		{Qty: 1, UnitPrice: 89_900, MRP: 99_900},
	}
	ship := ShippingPolicy{FlatFee: 9_900, FreeMinQty: 2}
	first := Compute(items, 7_500, 1800, ship)
	second := Compute(items, 7_500, 1800, ship)
	if first != second {
		t.Fatalf("expected identical summaries: %+v vs %+v", first, second)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   any
		want Money
	}{
		{nil, 0},
		{float64(199.99), 19_999},
		{"149.50", 14_950},
		{"  99 ", 9_900},
		{"not-a-number", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); got != tc.want {
			t.Fatalf("ParseAmount(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestAmountUnmarshal(t *testing.T) {
	var a Amount
	if err := a.UnmarshalJSON([]byte(`"249.00"`)); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if a != 24_900 {
		t.Fatalf("unexpected amount %d", a)
	}
	if err := a.UnmarshalJSON([]byte(`null`)); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if a != 0 {
		t.Fatalf("null should coerce to zero, got %d", a)
	}
}
