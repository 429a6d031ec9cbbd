package usecase

import (
	"math"

	"TradeSim/internal/domain/models"
	"TradeSim/pkg/util"
)

const tradingDaysPerYear = 252

// dispersionEpsilon scales with the mean; identical returns can leave a
// rounding residue in the standard deviation.
const dispersionEpsilon = 1e-12

// SharpeRatio annualizes mean/std of per-trade returns. Fewer than two
// returns or zero dispersion give 0.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := util.Mean(returns)
	std := util.PopStd(returns)
	if std <= dispersionEpsilon*math.Max(1, math.Abs(mean)) {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysPerYear)
}

// WinRate is the fraction of returns above zero, 0 when there are none.
func WinRate(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(returns))
}

// Summarize builds the rounded report summary. Return and win rate are
// expressed in percent.
func Summarize(initial, final float64, returns []float64, tradeCount int) models.Summary {
	return models.Summary{
		InitialValue: util.Round2(initial),
		FinalValue:   util.Round2(final),
		Return:       util.Round2((final - initial) / initial * 100),
		SharpeRatio:  util.Round2(SharpeRatio(returns)),
		WinRate:      util.Round2(WinRate(returns) * 100),
		TradeCount:   tradeCount,
	}
}
