package repository

import (
	"context"
	"errors"
	"time"

	"TradeSim/internal/domain/models"
	domrepo "TradeSim/internal/domain/repository"
	"TradeSim/pkg/cache"
	applogger "TradeSim/pkg/logger"
	"TradeSim/pkg/util"
)

// CachedPriceHistory memoizes daily bars per symbol and calendar window.
// Empty results are not cached so a symbol that starts trading is picked up.
type CachedPriceHistory struct {
	next  domrepo.PriceHistory
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCachedPriceHistory(next domrepo.PriceHistory, c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedPriceHistory {
	if l == nil {
		l = applogger.Nop()
	}
	return &CachedPriceHistory{next: next, cache: c, ttl: ttl, l: l}
}

func barsKey(symbol string, from, to time.Time) string {
	return cache.GenerateKey("bars", symbol, util.FormatDate(from), util.FormatDate(to))
}

func (c *CachedPriceHistory) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	key := barsKey(symbol, from, to)

	var bars []models.PriceBar
	err := c.cache.Get(ctx, key, &bars)
	switch {
	case err == nil:
		return bars, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		c.l.Warn("price cache read failed", applogger.String("key", key), applogger.Error(err))
	}

	bars, err = c.next.DailyBars(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		if err := c.cache.Set(ctx, key, bars, c.ttl); err != nil {
			c.l.Warn("price cache write failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return bars, nil
}
