package rl

import (
	"fmt"
	"math"

	"TradeSim/internal/domain/models"
)

// EnvConfig carries the portfolio and reward constants.
type EnvConfig struct {
	InitialCash     float64
	StartIndex      int
	HoldPenalty     float64
	Friction        float64
	TradeMultiplier float64
}

// DefaultEnvConfig returns the standard constants.
func DefaultEnvConfig() EnvConfig {
	return EnvConfig{
		InitialCash:     10000,
		StartIndex:      30,
		HoldPenalty:     0.001,
		Friction:        0.002,
		TradeMultiplier: 2,
	}
}

// StepResult is the outcome of one Step. Next is nil when Done.
type StepResult struct {
	Next   *models.State
	Reward float64
	Done   bool
}

// Environment simulates an all-in/all-out single-asset portfolio over a fixed
// sequence of feature bars. It is not safe for concurrent use.
type Environment struct {
	bars []models.FeatureBar
	cfg  EnvConfig

	cursor  int
	cash    float64
	shares  float64
	entry   float64
	holds   int
	history []float64
	returns []float64
	done    bool
}

// NewEnvironment validates the bar count and returns a reset environment.
func NewEnvironment(bars []models.FeatureBar, cfg EnvConfig) (*Environment, error) {
	if cfg.InitialCash <= 0 {
		return nil, fmt.Errorf("initial cash must be positive")
	}
	if cfg.StartIndex < 0 || len(bars) < cfg.StartIndex+2 {
		return nil, fmt.Errorf("need at least %d bars, got %d", cfg.StartIndex+2, len(bars))
	}
	e := &Environment{bars: bars, cfg: cfg}
	e.Reset()
	return e, nil
}

// Reset restores the initial portfolio and moves the cursor to the start index.
func (e *Environment) Reset() models.State {
	e.cursor = e.cfg.StartIndex
	e.cash = e.cfg.InitialCash
	e.shares = 0
	e.entry = 0
	e.holds = 0
	e.history = append(e.history[:0], e.cfg.InitialCash)
	e.returns = e.returns[:0]
	e.done = e.cursor >= len(e.bars)-1
	return e.State()
}

// State derives the discretized state from the bar under the cursor and the
// live portfolio. Out of range cursors and undefined ratios give the zero State.
func (e *Environment) State() models.State {
	if e.cursor < 0 || e.cursor >= len(e.bars) {
		return models.State{}
	}
	bar := e.bars[e.cursor]
	ratio := bar.Close / bar.MA20
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return models.State{}
	}
	holdDuration := math.Min(float64(e.holds)/10, 1)
	return models.NewState(ratio, bar.RSI/100, bar.Volatility*100, e.shares > 0, holdDuration)
}

// Step applies a at the close of the bar under the cursor, then advances.
// Buy while holding and Sell while flat change nothing but the hold counter.
// Any failure ends the episode with a zero reward.
func (e *Environment) Step(a models.Action) (res StepResult) {
	defer func() {
		if r := recover(); r != nil {
			e.done = true
			res = StepResult{Done: true}
		}
	}()
	if e.done || !a.Valid() || e.cursor < 0 || e.cursor >= len(e.bars) {
		e.done = true
		return StepResult{Done: true}
	}

	price := e.bars[e.cursor].Close
	reward := 0.0

	if a == models.Hold {
		e.holds++
		reward -= e.cfg.HoldPenalty * float64(e.holds)
	} else {
		e.holds = 0
	}

	switch a {
	case models.Buy:
		if e.shares == 0 {
			e.shares = e.cash / price
			e.cash = 0
			e.entry = price
			reward -= e.cfg.Friction
		}
	case models.Sell:
		if e.shares > 0 {
			e.cash = e.shares * price
			r := (price - e.entry) / e.entry
			reward += e.cfg.TradeMultiplier*r - e.cfg.Friction
			e.returns = append(e.returns, r)
			e.shares = 0
		}
	}

	prev := e.history[len(e.history)-1]
	value := e.cash + e.shares*price
	reward += (value - prev) / prev
	if !finite(value) || !finite(reward) {
		e.done = true
		return StepResult{Done: true}
	}
	e.history = append(e.history, value)

	e.cursor++
	e.done = e.cursor >= len(e.bars)-1
	if e.done {
		return StepResult{Reward: reward, Done: true}
	}
	next := e.State()
	return StepResult{Next: &next, Reward: reward}
}

// Done reports whether the episode has ended.
func (e *Environment) Done() bool { return e.done }

func (e *Environment) Cursor() int       { return e.cursor }
func (e *Environment) Cash() float64     { return e.cash }
func (e *Environment) Shares() float64   { return e.shares }
func (e *Environment) HoldCount() int    { return e.holds }
func (e *Environment) Len() int          { return len(e.bars) }
func (e *Environment) Config() EnvConfig { return e.cfg }

// Value is the latest recorded portfolio value.
func (e *Environment) Value() float64 { return e.history[len(e.history)-1] }

// History returns a copy of the per-step portfolio values, starting with the
// initial cash.
func (e *Environment) History() []float64 {
	return append([]float64(nil), e.history...)
}

// TradeReturns returns a copy of the realized per-trade returns.
func (e *Environment) TradeReturns() []float64 {
	return append([]float64(nil), e.returns...)
}

// Bar returns the feature bar at index i.
func (e *Environment) Bar(i int) (models.FeatureBar, bool) {
	if i < 0 || i >= len(e.bars) {
		return models.FeatureBar{}, false
	}
	return e.bars[i], true
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
