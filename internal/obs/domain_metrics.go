package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CouponValidateTotal counts coupon validation attempts by outcome.
	CouponValidateTotal *prometheus.CounterVec
	// CouponAppliedTotal counts coupons successfully applied to carts.
	CouponAppliedTotal *prometheus.CounterVec
	// CouponRejectedTotal counts rejected coupon applications by reason.
	CouponRejectedTotal *prometheus.CounterVec
	// OrdersCreatedTotal counts checkout completions.
	OrdersCreatedTotal prometheus.Counter
	// CheckoutDuration records checkout latency in milliseconds.
	CheckoutDuration prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CouponValidateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_validate_total",
			Help:      "Count of coupon validation attempts by outcome.",
		}, []string{"result"})
		CouponAppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_applied_total",
			Help:      "Count of coupons applied to carts.",
		}, []string{"scope"})
		CouponRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_rejected_total",
			Help:      "Count of rejected coupon applications by reason.",
		}, []string{"reason"})
		OrdersCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Total number of orders created at checkout.",
		})
		CheckoutDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_duration_ms",
			Help:      "Checkout latency distribution in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		})

		if c, ok := registerOrReuse(reg, CouponValidateTotal).(*prometheus.CounterVec); ok {
			CouponValidateTotal = c
		}
		if c, ok := registerOrReuse(reg, CouponAppliedTotal).(*prometheus.CounterVec); ok {
			CouponAppliedTotal = c
		}
		if c, ok := registerOrReuse(reg, CouponRejectedTotal).(*prometheus.CounterVec); ok {
			CouponRejectedTotal = c
		}
		if c, ok := registerOrReuse(reg, OrdersCreatedTotal).(prometheus.Counter); ok {
			OrdersCreatedTotal = c
		}
		if h, ok := registerOrReuse(reg, CheckoutDuration).(prometheus.Histogram); ok {
			CheckoutDuration = h
		}
	})
}
