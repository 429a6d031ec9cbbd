// Package finnhub fetches daily candles from the Finnhub REST API.
package finnhub

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"TradeSim/internal/domain/models"
	xhttp "TradeSim/pkg/http"
	applogger "TradeSim/pkg/logger"
)

// Config holds the Finnhub connection settings.
type Config struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client implements repository.PriceHistory against /stock/candle.
type Client struct {
	apiKey  string
	baseURL string
	http    *xhttp.Client
	l       *applogger.Logger
}

// New creates a Finnhub client. Outbound calls share one token bucket so a
// burst of simulations cannot exceed the plan's quota.
func New(cfg Config, l *applogger.Logger) *Client {
	if l == nil {
		l = applogger.Nop()
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: xhttp.NewClient(
			xhttp.WithTimeout(cfg.Timeout),
			xhttp.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
		),
		l: l,
	}
}

type candleResponse struct {
	C []float64 `json:"c"`
	H []float64 `json:"h"`
	L []float64 `json:"l"`
	O []float64 `json:"o"`
	V []float64 `json:"v"`
	T []int64   `json:"t"`
	S string    `json:"s"`
}

// DailyBars returns daily bars for symbol in [from, to]. A "no_data" answer
// yields an empty slice and no error.
func (c *Client) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	var resp candleResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		URL: c.baseURL + "/stock/candle",
		QueryParams: map[string][]string{
			"symbol":     {symbol},
			"resolution": {"D"},
			"from":       {strconv.FormatInt(from.Unix(), 10)},
			"to":         {strconv.FormatInt(to.Unix(), 10)},
		},
		Headers: map[string]string{"X-Finnhub-Token": c.apiKey},
	}, &resp)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			c.l.Warn("finnhub candle request rejected",
				applogger.String("symbol", symbol),
				applogger.Int("status", se.Code),
			)
		}
		return nil, fmt.Errorf("finnhub candles %s: %w", symbol, err)
	}

	switch resp.S {
	case "no_data":
		return []models.PriceBar{}, nil
	case "ok":
	default:
		return nil, fmt.Errorf("finnhub candles %s: unexpected status %q", symbol, resp.S)
	}
	return resp.bars()
}

func (r *candleResponse) bars() ([]models.PriceBar, error) {
	n := len(r.T)
	if len(r.C) != n || len(r.O) != n || len(r.H) != n || len(r.L) != n || len(r.V) != n {
		return nil, fmt.Errorf("finnhub candles: ragged arrays (t=%d c=%d)", n, len(r.C))
	}
	out := make([]models.PriceBar, n)
	for i := range n {
		out[i] = models.PriceBar{
			Date:   time.Unix(r.T[i], 0).UTC(),
			Open:   r.O[i],
			High:   r.H[i],
			Low:    r.L[i],
			Close:  r.C[i],
			Volume: r.V[i],
		}
	}
	return out, nil
}
