package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TradeSim/internal/domain/models"
	domrepo "TradeSim/internal/domain/repository"
	"TradeSim/pkg/cache"
)

// CacheReportStore keeps the latest report per symbol for the chart view.
type CacheReportStore struct {
	cache cache.Service
	ttl   time.Duration
}

func NewCacheReportStore(c cache.Service, ttl time.Duration) *CacheReportStore {
	return &CacheReportStore{cache: c, ttl: ttl}
}

func (s *CacheReportStore) PutReport(ctx context.Context, report *models.Report) error {
	return s.cache.Set(ctx, cache.GenerateKey("report", report.Symbol), report, s.ttl)
}

func (s *CacheReportStore) LatestReport(ctx context.Context, symbol string) (*models.Report, error) {
	var r models.Report
	if err := s.cache.Get(ctx, cache.GenerateKey("report", symbol), &r); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, domrepo.ErrReportNotFound
		}
		return nil, fmt.Errorf("load report: %w", err)
	}
	return &r, nil
}
