package models

import "time"

// PriceBar is one trading-day OHLCV record.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// FeatureBar is a PriceBar with its derived indicators. All indicator fields
// are finite on every bar produced by the feature engine.
type FeatureBar struct {
	PriceBar
	MA5        float64 `json:"ma5"`
	MA20       float64 `json:"ma20"`
	Volatility float64 `json:"volatility"` // std of percent-change returns
	RSI        float64 `json:"rsi"`        // 0..100
}
