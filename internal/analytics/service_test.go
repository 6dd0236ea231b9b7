package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/glowcart/storefront-api/internal/analytics"
	"github.com/glowcart/storefront-api/internal/store"
)

type stubQueries struct {
	summaryCalls int
	topCalls     int
}

func (s *stubQueries) SalesSummary(ctx context.Context, from, to time.Time) (store.SalesSummary, error) {
	s.summaryCalls++
	return store.SalesSummary{Orders: 3, GrossRevenue: 250000, CouponDiscount: 10000, TotalSavings: 19900}, nil
}

func (s *stubQueries) DailySales(ctx context.Context, from, to time.Time) ([]store.DailySalesRow, error) {
	return []store.DailySalesRow{{Day: from, Orders: 3, Revenue: 250000}}, nil
}

func (s *stubQueries) TopProducts(ctx context.Context, from, to time.Time, limit int32) ([]store.TopProductRow, error) {
	s.topCalls++
	return []store.TopProductRow{{Name: "Vitamin C Serum", UnitsSold: 12, Revenue: 120000}}, nil
}

func TestSalesOverviewCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	queries := &stubQueries{}
	svc := &analytics.Service{Q: queries, R: rdb, TTL: time.Minute, DefaultRange: 30}

	to := time.Now().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -7)
	first, err := svc.SalesOverview(context.Background(), from, to)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if first.Summary.Orders != 3 || first.Summary.GrossRevenue != 250000 {
		t.Fatalf("unexpected summary: %+v", first.Summary)
	}
	if _, err := svc.SalesOverview(context.Background(), from, to); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if queries.summaryCalls != 1 {
		t.Fatalf("expected 1 DB call, got %d", queries.summaryCalls)
	}
}

func TestTopProductsSurvivesCacheOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	queries := &stubQueries{}
	svc := &analytics.Service{Q: queries, R: rdb, TTL: time.Minute}

	mr.Close()
	to := time.Now()
	rows, err := svc.TopProducts(context.Background(), to.AddDate(0, 0, -30), to, 5)
	if err != nil {
		t.Fatalf("top products: %v", err)
	}
	if len(rows) != 1 || rows[0].UnitsSold != 12 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if queries.topCalls != 1 {
		t.Fatalf("expected 1 DB call, got %d", queries.topCalls)
	}
}
