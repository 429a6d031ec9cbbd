package models

import "time"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Report is the outcome of one simulation request.
type Report struct {
	RunID        string          `json:"run_id"`
	Symbol       string          `json:"symbol"`
	Status       string          `json:"status"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	EpisodeCount int             `json:"episode_count"`
	GeneratedAt  time.Time       `json:"generated_at"`
	Summary      Summary         `json:"summary"`
	DailyLog     []DailyLogEntry `json:"daily_log"`
}

// Summary values are rounded to two decimals; Return and WinRate are percentages.
type Summary struct {
	InitialValue float64 `json:"initial_value"`
	FinalValue   float64 `json:"final_value"`
	Return       float64 `json:"return"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	WinRate      float64 `json:"win_rate"`
	TradeCount   int     `json:"trade_count"`
}

// DailyLogEntry is one step of the backtest replay.
type DailyLogEntry struct {
	Date           string  `json:"date"`
	Action         string  `json:"action"`
	Price          float64 `json:"price"`
	PortfolioValue float64 `json:"portfolio_value"`
}
