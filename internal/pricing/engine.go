package pricing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Money represents a monetary value stored in minor units (paise).
type Money = int64

// Item describes a cart line used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice Money
	MRP       Money
}

// Line holds the per-item aggregates derived from a single cart line.
type Line struct {
	Total    Money
	MRP      Money
	Discount Money
}

// AggregateLine computes the line total, MRP total, and discount-on-MRP for
// one cart line. A selling price above MRP yields a zero discount, never a
// negative one.
func AggregateLine(it Item) Line {
	if it.Qty <= 0 {
		return Line{}
	}
	qty := Money(it.Qty)
	line := Line{
		Total: qty * it.UnitPrice,
		MRP:   qty * it.MRP,
	}
	line.Discount = line.MRP - line.Total
	if line.Discount < 0 {
		line.Discount = 0
	}
	return line
}

// Totals aggregates cart-level sums across all lines.
type Totals struct {
	TotalMRP        Money
	Subtotal        Money
	DiscountOnMRP   Money
	DiscountPercent int
	Quantity        int
}

// Aggregate sums line aggregates into cart totals. Lines with non-positive
// quantity are skipped.
func Aggregate(items []Item) Totals {
	var t Totals
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		line := AggregateLine(it)
		t.TotalMRP += line.MRP
		t.Subtotal += line.Total
		t.Quantity += it.Qty
	}
	t.DiscountOnMRP = t.TotalMRP - t.Subtotal
	if t.DiscountOnMRP < 0 {
		t.DiscountOnMRP = 0
	}
	if t.TotalMRP > 0 {
		t.DiscountPercent = int(math.Round(float64(t.DiscountOnMRP) / float64(t.TotalMRP) * 100))
	}
	return t
}

// ShippingPolicy implements the quantity-threshold shipping incentive: a
// flat fee applies while the cart holds fewer units than FreeMinQty, beyond
// that shipping is free.
type ShippingPolicy struct {
	FlatFee    Money
	FreeMinQty int
}

// Fee returns the shipping fee for the given total unit count.
func (p ShippingPolicy) Fee(totalQty int) Money {
	if totalQty <= 0 {
		return 0
	}
	threshold := p.FreeMinQty
	if threshold <= 0 {
		threshold = 2
	}
	if totalQty >= threshold {
		return 0
	}
	return p.FlatFee
}

// Summary combines subtotal, shipping, tax, and coupon discount into the
// final payable amount plus the display-only savings aggregate.
type Summary struct {
	TotalMRP        Money `json:"totalMrp"`
	Subtotal        Money `json:"subtotal"`
	DiscountOnMRP   Money `json:"discountOnMrp"`
	DiscountPercent int   `json:"discountPercent"`
	CouponDiscount  Money `json:"couponDiscount"`
	Shipping        Money `json:"shipping"`
	Tax             Money `json:"tax"`
	GrandTotal      Money `json:"grandTotal"`
	TotalSavings    Money `json:"totalSavings"`
}

// Compute derives the full order summary. The coupon discount is clamped to
// the subtotal, tax applies to the post-discount taxable amount, and the
// grand total is floored at zero. Waived shipping counts toward savings.
func Compute(items []Item, coupon Money, taxBps int, ship ShippingPolicy) Summary {
	totals := Aggregate(items)
	if coupon < 0 {
		coupon = 0
	}
	if coupon > totals.Subtotal {
		coupon = totals.Subtotal
	}
	taxable := totals.Subtotal - coupon
	var tax Money
	if taxBps > 0 {
		tax = (taxable * Money(taxBps)) / 10000
	}
	fee := ship.Fee(totals.Quantity)
	var waived Money
	if fee == 0 && totals.Quantity > 0 && ship.FlatFee > 0 {
		waived = ship.FlatFee
	}
	grand := taxable + tax + fee
	if grand < 0 {
		grand = 0
	}
	return Summary{
		TotalMRP:        totals.TotalMRP,
		Subtotal:        totals.Subtotal,
		DiscountOnMRP:   totals.DiscountOnMRP,
		DiscountPercent: totals.DiscountPercent,
		CouponDiscount:  coupon,
		Shipping:        fee,
		Tax:             tax,
		GrandTotal:      grand,
		TotalSavings:    totals.DiscountOnMRP + coupon + waived,
	}
}

// ParseAmount coerces a heterogeneous numeric value (float64, json.Number,
// numeric string, nil) into minor units. Unparseable input yields zero.
func ParseAmount(v any) Money {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return rupeesToMinor(val)
	case int64:
		return rupeesToMinor(float64(val))
	case int:
		return rupeesToMinor(float64(val))
	case json.Number:
		return parseAmountString(val.String())
	case string:
		return parseAmountString(val)
	default:
		return 0
	}
}

func parseAmountString(s string) Money {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0
	}
	return rupeesToMinor(f)
}

func rupeesToMinor(f float64) Money {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Money(math.Round(f * 100))
}

// Amount is a Money wrapper that tolerates number, numeric string, or null
// in JSON payloads, converting once at the API boundary.
type Amount Money

// UnmarshalJSON parses the flexible wire representation into minor units.
func (a *Amount) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		*a = 0
		return nil
	}
	if s, ok := raw.(string); ok {
		*a = Amount(parseAmountString(s))
		return nil
	}
	*a = Amount(ParseAmount(raw))
	return nil
}

// MarshalJSON renders the amount as a plain integer of minor units.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(a), 10)), nil
}
