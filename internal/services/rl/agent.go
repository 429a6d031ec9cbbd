package rl

import (
	"math"
	"math/rand/v2"

	"TradeSim/internal/domain/models"
)

// AgentConfig holds the learning rate, discount and exploration schedule.
type AgentConfig struct {
	Alpha        float64
	Gamma        float64
	Epsilon      float64
	EpsilonMin   float64
	EpsilonDecay float64
}

func DefaultAgentConfig() AgentConfig {
	return AgentConfig{Alpha: 0.3, Gamma: 0.9, Epsilon: 0.5, EpsilonMin: 0.1, EpsilonDecay: 0.98}
}

// Agent is an epsilon-greedy tabular Q-learner. Ties between equal estimates
// resolve to the lowest action index.
type Agent struct {
	table   *PolicyTable
	cfg     AgentConfig
	epsilon float64
	rng     *rand.Rand
}

func NewAgent(table *PolicyTable, cfg AgentConfig, rng *rand.Rand) *Agent {
	return &Agent{table: table, cfg: cfg, epsilon: cfg.Epsilon, rng: rng}
}

// Epsilon is the current exploration probability.
func (a *Agent) Epsilon() float64 { return a.epsilon }

// Table exposes the underlying policy table.
func (a *Agent) Table() *PolicyTable { return a.table }

// ChooseAction explores with probability epsilon and exploits otherwise.
func (a *Agent) ChooseAction(s models.State) models.Action {
	if a.rng.Float64() < a.epsilon {
		return models.Actions[a.rng.IntN(models.NumActions)]
	}
	return a.Greedy(s)
}

// Greedy returns the best known action for s without exploring.
func (a *Agent) Greedy(s models.State) models.Action {
	return a.table.GetOrInsert(s).Argmax()
}

// Learn applies one Q-learning update. A nil next marks a terminal transition
// and drops the bootstrap term. Epsilon decays once per call.
func (a *Agent) Learn(s models.State, act models.Action, reward float64, next *models.State) {
	q := a.table.GetOrInsert(s)
	target := reward
	if next != nil {
		target += a.cfg.Gamma * a.table.GetOrInsert(*next).Max()
	}
	q[act] += a.cfg.Alpha * (target - q[act])

	a.epsilon = math.Max(a.cfg.EpsilonMin, a.epsilon*a.cfg.EpsilonDecay)
}
