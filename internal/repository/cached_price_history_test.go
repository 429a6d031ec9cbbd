package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"TradeSim/internal/domain/models"
	"TradeSim/pkg/cache"
)

type countingHistory struct {
	calls int
	bars  []models.PriceBar
	err   error
}

func (h *countingHistory) DailyBars(context.Context, string, time.Time, time.Time) ([]models.PriceBar, error) {
	h.calls++
	return h.bars, h.err
}

func TestCachedPriceHistory(t *testing.T) {
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	inner := &countingHistory{bars: []models.PriceBar{{Date: day, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}}}
	mem := cache.NewMemoryCache()
	defer mem.Close()
	h := NewCachedPriceHistory(inner, mem, time.Hour, nil)

	ctx := context.Background()
	from, to := day.AddDate(-1, 0, 0), day
	for i := 0; i < 3; i++ {
		bars, err := h.DailyBars(ctx, "AAPL", from, to)
		if err != nil {
			t.Fatalf("DailyBars: %v", err)
		}
		if len(bars) != 1 || bars[0].Close != 1.5 || !bars[0].Date.Equal(day) {
			t.Fatalf("unexpected bars %+v", bars)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("provider called %d times, want 1", inner.calls)
	}

	if _, err := h.DailyBars(ctx, "MSFT", from, to); err != nil {
		t.Fatalf("DailyBars: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("a different symbol must miss the cache")
	}
}

func TestCachedPriceHistorySkipsEmptyAndErrors(t *testing.T) {
	inner := &countingHistory{}
	mem := cache.NewMemoryCache()
	defer mem.Close()
	h := NewCachedPriceHistory(inner, mem, time.Hour, nil)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 2; i++ {
		if _, err := h.DailyBars(ctx, "NEW", now, now); err != nil {
			t.Fatalf("DailyBars: %v", err)
		}
	}
	if inner.calls != 2 {
		t.Fatalf("empty results must not be cached, calls=%d", inner.calls)
	}

	inner.err = errors.New("down")
	if _, err := h.DailyBars(ctx, "NEW", now, now); !errors.Is(err, inner.err) {
		t.Fatalf("expected provider error, got %v", err)
	}
}
