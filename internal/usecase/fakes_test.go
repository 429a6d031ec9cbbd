package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"TradeSim/internal/domain/models"
	drepo "TradeSim/internal/domain/repository"
)

var testNow = time.Date(2025, 6, 30, 21, 0, 0, 0, time.UTC)

type fakePrices struct {
	bars []models.PriceBar
	err  error
	from time.Time
	to   time.Time
}

func (f *fakePrices) DailyBars(_ context.Context, _ string, from, to time.Time) ([]models.PriceBar, error) {
	f.from, f.to = from, to
	return f.bars, f.err
}

func geometricBars(n int, growth float64) []models.PriceBar {
	out := make([]models.PriceBar, n)
	start := testNow.AddDate(0, 0, -n)
	for i := range out {
		c := 100 * math.Pow(growth, float64(i))
		out[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return out
}

type memPolicies struct {
	mu      sync.Mutex
	data    map[string]models.PolicySnapshot
	loadErr error
	saveErr error
	saves   int
}

func newMemPolicies() *memPolicies {
	return &memPolicies{data: make(map[string]models.PolicySnapshot)}
}

func (m *memPolicies) Load(_ context.Context, symbol string) (models.PolicySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	snap, ok := m.data[symbol]
	if !ok {
		return nil, drepo.ErrPolicyNotFound
	}
	out := make(models.PolicySnapshot, len(snap))
	for k, v := range snap {
		out[k] = v
	}
	return out, nil
}

func (m *memPolicies) Save(_ context.Context, symbol string, snap models.PolicySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[symbol] = snap
	return nil
}

type capturePublisher struct {
	reports []*models.Report
	err     error
}

func (p *capturePublisher) PublishReport(_ context.Context, r *models.Report) error {
	p.reports = append(p.reports, r)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

type memReports struct {
	latest map[string]*models.Report
}

func (m *memReports) PutReport(_ context.Context, r *models.Report) error {
	if m.latest == nil {
		m.latest = make(map[string]*models.Report)
	}
	m.latest[r.Symbol] = r
	return nil
}

func (m *memReports) LatestReport(_ context.Context, symbol string) (*models.Report, error) {
	r, ok := m.latest[symbol]
	if !ok {
		return nil, drepo.ErrReportNotFound
	}
	return r, nil
}

type countingLocker struct {
	acquired int
	released int
	err      error
}

func (l *countingLocker) Acquire(context.Context, string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func() { l.released++ }, nil
}

var errBoom = errors.New("boom")

// flatFeatureBars builds n indicator rows at a constant close.
func flatFeatureBars(n int, price float64) []models.FeatureBar {
	bars := make([]models.FeatureBar, n)
	for i := range bars {
		bars[i] = models.FeatureBar{
			PriceBar: models.PriceBar{Date: testNow.AddDate(0, 0, i-n), Close: price},
			MA5:      price,
			MA20:     price,
			RSI:      50,
		}
	}
	return bars
}
