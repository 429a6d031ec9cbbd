// Package features turns raw daily bars into indicator rows for the trading
// environment.
package features

import (
	"math"
	"sort"

	"github.com/markcheno/go-talib"

	"TradeSim/internal/domain/models"
)

const (
	shortWindow = 5
	longWindow  = 20
	volWindow   = 20
	rsiWindow   = 14
)

// Normalize sorts bars by date, keeps the last bar of any repeated date and
// drops bars whose close is not a positive finite number.
func Normalize(bars []models.PriceBar) []models.PriceBar {
	if len(bars) == 0 {
		return nil
	}
	sorted := make([]models.PriceBar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make([]models.PriceBar, 0, len(sorted))
	for _, b := range sorted {
		if b.Close <= 0 || !finite(b.Close) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// Build computes MA5, MA20, 20-bar return volatility and 14-bar RSI. Warm-up
// rows and rows with an undefined indicator are dropped. Any failure inside
// the indicator math yields an empty result.
func Build(bars []models.PriceBar) (out []models.FeatureBar) {
	// the first usable row needs a full volatility window of returns
	if len(bars) <= volWindow {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			out = nil
		}
	}()

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	ma5 := talib.Sma(closes, shortWindow)
	ma20 := talib.Sma(closes, longWindow)
	vol := volatility(closes)
	rsi := relativeStrength(closes)

	out = make([]models.FeatureBar, 0, len(bars)-volWindow)
	for i := volWindow; i < len(bars); i++ {
		fb := models.FeatureBar{
			PriceBar:   bars[i],
			MA5:        ma5[i],
			MA20:       ma20[i],
			Volatility: vol[i],
			RSI:        rsi[i],
		}
		if !usable(fb) {
			continue
		}
		out = append(out, fb)
	}
	return out
}

// volatility returns, per index, the sample standard deviation of the last
// volWindow percent-change returns. Index i covers returns ending at bar i.
func volatility(closes []float64) []float64 {
	out := make([]float64, len(closes))
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns[i-1] = closes[i]/closes[i-1] - 1
	}
	// talib.StdDev is the population deviation; rescale to sample.
	std := talib.StdDev(returns, volWindow, 1)
	scale := math.Sqrt(float64(volWindow) / float64(volWindow-1))
	for j := volWindow - 1; j < len(std); j++ {
		out[j+1] = std[j] * scale
	}
	for i := 0; i <= volWindow-1 && i < len(out); i++ {
		out[i] = math.NaN()
	}
	return out
}

// relativeStrength uses simple rolling means of gains and losses. A window
// without losses but with gains is pinned at 100; a window without any move
// is undefined (NaN).
func relativeStrength(closes []float64) []float64 {
	out := make([]float64, len(closes))
	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i-1] = d
		} else {
			losses[i-1] = -d
		}
	}
	avgGain := talib.Sma(gains, rsiWindow)
	avgLoss := talib.Sma(losses, rsiWindow)

	for i := range out {
		out[i] = math.NaN()
	}
	for j := rsiWindow - 1; j < len(gains); j++ {
		g, l := avgGain[j], avgLoss[j]
		switch {
		case l <= 0 && g <= 0:
			out[j+1] = math.NaN()
		case l <= 0:
			out[j+1] = 100
		default:
			out[j+1] = 100 - 100/(1+g/l)
		}
	}
	return out
}

func usable(fb models.FeatureBar) bool {
	return finite(fb.MA5) && finite(fb.MA20) && fb.MA20 > 0 &&
		finite(fb.Volatility) && finite(fb.RSI)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
