package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TradeSim/internal/domain/models"
	pkgch "TradeSim/pkg/clickhouse"
	applogger "TradeSim/pkg/logger"
)

// CHPriceHistory reads daily bars from a ClickHouse table.
type CHPriceHistory struct {
	db    *sql.DB
	query string
	l     *applogger.Logger
}

func NewCHPriceHistory(ch *pkgch.Client, database, table string, l *applogger.Logger) *CHPriceHistory {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHPriceHistory{db: ch.DB(), query: dailyBarsQuery(database, table), l: l}
}

func dailyBarsQuery(database, table string) string {
	return fmt.Sprintf(`
        SELECT day, open, high, low, close, volume
        FROM %s.%s FINAL
        WHERE symbol = ? AND day >= ? AND day <= ?
        ORDER BY day ASC
    `, database, table)
}

func (s *CHPriceHistory) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, s.query, symbol, from.UTC(), to.UTC())
	if err != nil {
		s.l.Error("clickhouse daily bars query error",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query daily bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceBar, 0, 256)
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan daily bar: %w", err)
		}
		b.Date = b.Date.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("clickhouse daily bars",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}
