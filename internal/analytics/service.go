package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glowcart/storefront-api/internal/store"
)

// Querier defines the database access required for sales reporting.
type Querier interface {
	SalesSummary(ctx context.Context, from, to time.Time) (store.SalesSummary, error)
	DailySales(ctx context.Context, from, to time.Time) ([]store.DailySalesRow, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int32) ([]store.TopProductRow, error)
}

// Overview is the dashboard payload combining totals with a daily breakdown.
type Overview struct {
	From    time.Time             `json:"from"`
	To      time.Time             `json:"to"`
	Summary store.SalesSummary    `json:"summary"`
	Daily   []store.DailySalesRow `json:"daily"`
}

// Service provides cached access to sales reporting queries.
type Service struct {
	Q            Querier
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// DefaultWindow returns the fallback reporting range ending now.
func (s *Service) DefaultWindow() (time.Time, time.Time) {
	days := s.DefaultRange
	if days <= 0 {
		days = 30
	}
	to := s.now()
	return to.AddDate(0, 0, -days), to
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// SalesOverview returns the summary and daily breakdown between from and to,
// inclusive of from and exclusive of to.
func (s *Service) SalesOverview(ctx context.Context, from, to time.Time) (Overview, error) {
	if s == nil || s.Q == nil {
		return Overview{}, fmt.Errorf("analytics service not configured")
	}
	key := cacheKey("an", "overview", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached Overview
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	summary, err := s.Q.SalesSummary(ctx, from, to)
	if err != nil {
		return Overview{}, err
	}
	daily, err := s.Q.DailySales(ctx, from, to)
	if err != nil {
		return Overview{}, err
	}
	out := Overview{From: from, To: to, Summary: summary, Daily: daily}
	s.store(ctx, key, out)
	return out, nil
}

// TopProducts returns the best sellers by units sold within the window.
func (s *Service) TopProducts(ctx context.Context, from, to time.Time, limit int32) ([]store.TopProductRow, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if limit <= 0 {
		limit = 10
	}
	key := cacheKey("an", "top", from.Format("2006-01-02"), to.Format("2006-01-02"), limit)
	var cached []store.TopProductRow
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.TopProducts(ctx, from, to, limit)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

func (s *Service) fromCache(ctx context.Context, key string, dst any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
