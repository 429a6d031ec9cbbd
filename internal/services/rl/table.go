// Package rl holds the trading environment and the tabular Q-learning agent.
package rl

import (
	"math/rand/v2"

	"TradeSim/internal/domain/models"
)

// DefaultFunc produces the initial estimates for a state seen for the first
// time.
type DefaultFunc func(models.State) models.ActionValues

// UniformDefault draws every estimate uniformly from [-1, 1).
func UniformDefault(rng *rand.Rand) DefaultFunc {
	return func(models.State) models.ActionValues {
		var v models.ActionValues
		for i := range v {
			v[i] = rng.Float64()*2 - 1
		}
		return v
	}
}

// ZeroDefault starts every state at zero.
func ZeroDefault(models.State) models.ActionValues { return models.ActionValues{} }

// PolicyTable maps states to action-value estimates. Unknown states are
// materialized explicitly through GetOrInsert.
type PolicyTable struct {
	values map[models.State]*models.ActionValues
	def    DefaultFunc
}

// NewTable returns an empty table using def for unseen states.
func NewTable(def DefaultFunc) *PolicyTable {
	if def == nil {
		def = ZeroDefault
	}
	return &PolicyTable{values: make(map[models.State]*models.ActionValues), def: def}
}

// RestoreTable rebuilds a table from a snapshot. States missing from the
// snapshot are filled by def, the same way a fresh table fills them.
func RestoreTable(snapshot models.PolicySnapshot, def DefaultFunc) *PolicyTable {
	t := NewTable(def)
	for s, v := range snapshot {
		t.values[s] = &v
	}
	return t
}

// GetOrInsert returns the estimates for s, inserting the default first when s
// is unseen. The returned pointer stays valid for the table's lifetime.
func (t *PolicyTable) GetOrInsert(s models.State) *models.ActionValues {
	if v, ok := t.values[s]; ok {
		return v
	}
	v := t.def(s)
	t.values[s] = &v
	return &v
}

// Lookup returns the estimates for s without inserting.
func (t *PolicyTable) Lookup(s models.State) (models.ActionValues, bool) {
	v, ok := t.values[s]
	if !ok {
		return models.ActionValues{}, false
	}
	return *v, true
}

// Estimate returns the stored estimates for s, or the default for an unseen
// state without recording it.
func (t *PolicyTable) Estimate(s models.State) models.ActionValues {
	if v, ok := t.values[s]; ok {
		return *v
	}
	return t.def(s)
}

func (t *PolicyTable) Len() int { return len(t.values) }

// Snapshot copies the table for persistence.
func (t *PolicyTable) Snapshot() models.PolicySnapshot {
	out := make(models.PolicySnapshot, len(t.values))
	for s, v := range t.values {
		out[s] = *v
	}
	return out
}
