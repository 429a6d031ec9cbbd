package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Action is one of the discrete trading decisions.
type Action int

const (
	Hold Action = iota
	Buy
	Sell
)

// NumActions is the size of the action space.
const NumActions = 3

// Actions lists every action in index order.
var Actions = [NumActions]Action{Hold, Buy, Sell}

func (a Action) String() string {
	switch a {
	case Hold:
		return "Hold"
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return "Unknown"
	}
}

// Valid reports whether a is inside the action space.
func (a Action) Valid() bool {
	return a >= Hold && a <= Sell
}

// ActionValues holds one value estimate per Action, indexed by Action.
type ActionValues [NumActions]float64

// Max returns the largest estimate.
func (v ActionValues) Max() float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// Argmax returns the first action holding the maximal estimate.
func (v ActionValues) Argmax() Action {
	best := 0
	for i := 1; i < NumActions; i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return Action(best)
}

// State is the discretized market state. Every component is kept in
// hundredths, so two states are equal exactly when their values rounded to two
// decimals are equal.
type State struct {
	PriceRatio   int64 // close / MA20
	RSI          int64 // RSI / 100
	Volatility   int64 // volatility * 100
	Position     int64 // 1 while holding shares
	HoldDuration int64 // min(consecutive holds / 10, 1)
}

// NewState rounds raw features into a State.
func NewState(priceRatio, rsi, volatility float64, holding bool, holdDuration float64) State {
	s := State{
		PriceRatio:   hundredths(priceRatio),
		RSI:          hundredths(rsi),
		Volatility:   hundredths(volatility),
		HoldDuration: hundredths(holdDuration),
	}
	if holding {
		s.Position = 100
	}
	return s
}

func hundredths(x float64) int64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return int64(math.Round(x * 100))
}

// Values returns the components as rounded floats.
func (s State) Values() [5]float64 {
	return [5]float64{
		float64(s.PriceRatio) / 100,
		float64(s.RSI) / 100,
		float64(s.Volatility) / 100,
		float64(s.Position) / 100,
		float64(s.HoldDuration) / 100,
	}
}

// Holding reports the position flag.
func (s State) Holding() bool { return s.Position != 0 }

func (s State) String() string {
	vals := s.Values()
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'f', 2, 64)
	}
	return strings.Join(parts, ",")
}

// MarshalText makes State usable as a JSON object key.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	parsed, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseState parses the String form of a State.
func ParseState(raw string) (State, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 5 {
		return State{}, fmt.Errorf("state %q: want 5 components, got %d", raw, len(parts))
	}
	var vals [5]int64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return State{}, fmt.Errorf("state %q: %w", raw, err)
		}
		vals[i] = hundredths(f)
	}
	return State{
		PriceRatio:   vals[0],
		RSI:          vals[1],
		Volatility:   vals[2],
		Position:     vals[3],
		HoldDuration: vals[4],
	}, nil
}

// PolicySnapshot is the persisted form of a policy table.
type PolicySnapshot map[State]ActionValues
