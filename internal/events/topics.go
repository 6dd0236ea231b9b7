package events

// Topic constants for domain events emitted by the storefront.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderCancelled     = "order.cancelled"
	TopicOrderStatusChanged = "order.status_changed"
	TopicCouponApplied      = "coupon.applied"
	TopicCouponRedeemed     = "coupon.redeemed"
	TopicCouponSettleFailed = "coupon.settle_failed"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderCancelled,
		TopicOrderStatusChanged,
		TopicCouponApplied,
		TopicCouponRedeemed,
		TopicCouponSettleFailed,
	}
}
