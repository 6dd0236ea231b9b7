package store

import (
	"time"

	"github.com/google/uuid"
)

// Collection is an admin-curated product grouping used for merchandising
// and coupon scoping.
type Collection struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Product is a catalog entry. Price fields are minor units (paise).
type Product struct {
	ID           uuid.UUID  `json:"id"`
	Slug         string     `json:"slug"`
	Name         string     `json:"name"`
	Brand        string     `json:"brand"`
	Description  *string    `json:"description,omitempty"`
	Price        int64      `json:"price"`
	MRP          int64      `json:"mrp"`
	ImageURL     *string    `json:"imageUrl,omitempty"`
	CollectionID *uuid.UUID `json:"collectionId,omitempty"`
	Stock        int32      `json:"stock"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Variant is a specific SKU of a product with independent price and stock.
type Variant struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	MRP       int64     `json:"mrp"`
	Stock     int32     `json:"stock"`
}

// Cart is a client session cart persisted server-side, owned by either a
// registered user or an anonymous session id.
type Cart struct {
	ID                uuid.UUID
	UserID            *uuid.UUID
	AnonID            *string
	AppliedCouponCode *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ExpiresAt         time.Time
}

// CartItem is a cart line with a snapshot of product identity and prices.
type CartItem struct {
	ID           uuid.UUID
	CartID       uuid.UUID
	ProductID    uuid.UUID
	VariantID    *uuid.UUID
	Name         string
	VariantName  *string
	ImageURL     *string
	CollectionID *uuid.UUID
	Qty          int32
	UnitPrice    int64
	MRP          int64
	Subtotal     int64
}

// Coupon scope constants.
const (
	CouponScopeSales      = "sales"
	CouponScopeUser       = "user"
	CouponScopeCollection = "collection"
)

// Coupon kind constants.
const (
	CouponKindPercent = "percent"
	CouponKindFlat    = "flat"
)

// Coupon is a discount rule created by admins and validated per checkout
// attempt. Never mutated by storefront traffic except for used_count.
type Coupon struct {
	ID             uuid.UUID   `json:"id"`
	Code           string      `json:"code"`
	Scope          string      `json:"scope"`
	Kind           string      `json:"kind"`
	Value          int64       `json:"value"`
	PercentBps     *int32      `json:"percentBps,omitempty"`
	MinOrderAmount int64       `json:"minOrderAmount"`
	MaxDiscount    *int64      `json:"maxDiscount,omitempty"`
	UsageLimit     *int32      `json:"usageLimit,omitempty"`
	UsedCount      int32       `json:"usedCount"`
	PerUserLimit   *int32      `json:"perUserLimit,omitempty"`
	UserID         *uuid.UUID  `json:"userId,omitempty"`
	CollectionIDs  []uuid.UUID `json:"collectionIds,omitempty"`
	StartAt        *time.Time  `json:"startAt,omitempty"`
	EndAt          *time.Time  `json:"endAt,omitempty"`
	Active         bool        `json:"active"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Redemption records one coupon use settled against an order.
type Redemption struct {
	ID        uuid.UUID
	CouponID  uuid.UUID
	OrderID   uuid.UUID
	UserID    *uuid.UUID
	Amount    int64
	CreatedAt time.Time
}

// Order statuses.
const (
	OrderStatusPendingPayment = "PENDING_PAYMENT"
	OrderStatusPaid           = "PAID"
	OrderStatusShipped        = "SHIPPED"
	OrderStatusDelivered      = "DELIVERED"
	OrderStatusCancelled      = "CANCELLED"
)

// Order snapshots cart contents and the computed totals at checkout time.
type Order struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	CartID         uuid.UUID
	Status         string
	Currency       string
	TotalMRP       int64
	Subtotal       int64
	DiscountOnMRP  int64
	CouponDiscount int64
	Shipping       int64
	Tax            int64
	GrandTotal     int64
	TotalSavings   int64
	CouponCode     *string
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderItem is an immutable order line copied from the cart.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	VariantID   *uuid.UUID
	Name        string
	VariantName *string
	Qty         int32
	UnitPrice   int64
	MRP         int64
	Subtotal    int64
}

// User is a storefront account. Roles gate the admin backoffice.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

// Review is a product review left by a user.
type Review struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	UserID    uuid.UUID `json:"userId"`
	Rating    int32     `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReviewStats aggregates review counts per product.
type ReviewStats struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

// WishlistItem is a saved product joined with its current catalog data.
type WishlistItem struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Price     int64     `json:"price"`
	MRP       int64     `json:"mrp"`
	ImageURL  *string   `json:"imageUrl,omitempty"`
	AddedAt   time.Time `json:"addedAt"`
}

// Address is a saved delivery address. At most one per user is the default.
type Address struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"-"`
	Label        string    `json:"label,omitempty"`
	ReceiverName string    `json:"receiverName"`
	Phone        string    `json:"phone,omitempty"`
	Line1        string    `json:"line1"`
	Line2        *string   `json:"line2,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state,omitempty"`
	PostalCode   string    `json:"postalCode"`
	Country      string    `json:"country"`
	IsDefault    bool      `json:"isDefault"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DomainEvent is a persisted fact emitted by the domain layer.
type DomainEvent struct {
	ID          uuid.UUID
	Topic       string
	AggregateID uuid.UUID
	Payload     []byte
	OccurredAt  time.Time
}
