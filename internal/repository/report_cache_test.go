package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"TradeSim/internal/domain/models"
	domrepo "TradeSim/internal/domain/repository"
	"TradeSim/pkg/cache"
)

func TestCacheReportStore(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	store := NewCacheReportStore(mem, time.Hour)
	ctx := context.Background()

	if _, err := store.LatestReport(ctx, "AAPL"); !errors.Is(err, domrepo.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
	r := &models.Report{
		RunID:   "run-1",
		Symbol:  "AAPL",
		Status:  models.StatusSuccess,
		Summary: models.Summary{InitialValue: 10000, FinalValue: 10100.5, TradeCount: 3},
		DailyLog: []models.DailyLogEntry{
			{Date: "2025-01-02", Action: "Buy", Price: 101.25, PortfolioValue: 10000},
		},
	}
	if err := store.PutReport(ctx, r); err != nil {
		t.Fatalf("PutReport: %v", err)
	}
	got, err := store.LatestReport(ctx, "AAPL")
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if got.RunID != "run-1" || got.Summary != r.Summary || len(got.DailyLog) != 1 || got.DailyLog[0] != r.DailyLog[0] {
		t.Fatalf("unexpected report %+v", got)
	}
}
