package repository

import (
	"context"
	"errors"
	"time"

	"TradeSim/internal/domain/models"
)

// ErrPolicyNotFound is returned by PolicyStore.Load when no policy was saved
// for the symbol.
var ErrPolicyNotFound = errors.New("policy not found")

// PriceHistory provides daily bars for a symbol, oldest first.
type PriceHistory interface {
	DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error)
}

// PolicyStore persists one policy snapshot per symbol. Save overwrites.
type PolicyStore interface {
	Load(ctx context.Context, symbol string) (models.PolicySnapshot, error)
	Save(ctx context.Context, symbol string, snapshot models.PolicySnapshot) error
}

// ReportPublisher announces finished reports to downstream consumers.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report *models.Report) error
	Close() error
}

// ReportCache keeps the latest report per symbol.
type ReportCache interface {
	PutReport(ctx context.Context, report *models.Report) error
	LatestReport(ctx context.Context, symbol string) (*models.Report, error)
}

// Locker serializes work on a key. Release must be called once Acquire succeeded.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type Metrics interface {
	RecordSimulation(symbol, status string, seconds float64)
	RecordEpisodes(symbol string, n int)
	RecordPolicyLoad(symbol string, found bool)
	RecordFinalValue(symbol string, value float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// ErrReportNotFound is returned by ReportCache.LatestReport on a miss.
var ErrReportNotFound = errors.New("report not found")
