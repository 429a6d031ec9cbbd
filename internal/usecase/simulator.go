package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"TradeSim/internal/domain/models"
	drepo "TradeSim/internal/domain/repository"
	"TradeSim/internal/services/features"
	"TradeSim/internal/services/rl"
	"TradeSim/pkg/config"
	"TradeSim/pkg/logger"
	"TradeSim/pkg/util"
)

// SimulatorConfig holds the training and replay parameters.
type SimulatorConfig struct {
	LookbackDays   int
	Episodes       int
	MinFeatureBars int
	Seed           uint64 // 0 draws a fresh seed per request
	Env            rl.EnvConfig
	Agent          rl.AgentConfig
}

// DefaultSimulatorConfig mirrors the configuration defaults.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		LookbackDays:   365,
		Episodes:       50,
		MinFeatureBars: 50,
		Env:            rl.DefaultEnvConfig(),
		Agent:          rl.DefaultAgentConfig(),
	}
}

// NewSimulatorConfig maps the simulation config section.
func NewSimulatorConfig(c config.Simulation) SimulatorConfig {
	return SimulatorConfig{
		LookbackDays:   c.LookbackDays,
		Episodes:       c.Episodes,
		MinFeatureBars: c.MinFeatureBars,
		Seed:           c.Seed,
		Env: rl.EnvConfig{
			InitialCash:     c.InitialCash,
			StartIndex:      c.StartIndex,
			HoldPenalty:     c.Reward.HoldPenalty,
			Friction:        c.Reward.Friction,
			TradeMultiplier: c.Reward.TradeMultiplier,
		},
		Agent: rl.AgentConfig{
			Alpha:        c.Agent.Alpha,
			Gamma:        c.Agent.Gamma,
			Epsilon:      c.Agent.Epsilon,
			EpsilonMin:   c.Agent.EpsilonMin,
			EpsilonDecay: c.Agent.EpsilonDecay,
		},
	}
}

// SimulateParams selects the instrument and the end of the lookback window.
// A zero End means now.
type SimulateParams struct {
	Symbol string
	End    time.Time
}

// StepObserver receives every replay log entry as it is produced.
type StepObserver func(models.DailyLogEntry)

// Simulator trains or reuses a per-symbol policy and backtests it.
type Simulator struct {
	prices    drepo.PriceHistory
	policies  drepo.PolicyStore
	locker    drepo.Locker
	publisher drepo.ReportPublisher
	reports   drepo.ReportCache
	metrics   drepo.Metrics
	log       *logger.Logger
	cfg       SimulatorConfig
	now       func() time.Time
	newSeed   func() uint64
}

type SimulatorOption func(*Simulator)

func WithLocker(l drepo.Locker) SimulatorOption {
	return func(s *Simulator) { s.locker = l }
}

func WithPublisher(p drepo.ReportPublisher) SimulatorOption {
	return func(s *Simulator) { s.publisher = p }
}

func WithReportCache(c drepo.ReportCache) SimulatorOption {
	return func(s *Simulator) { s.reports = c }
}

func WithMetrics(m drepo.Metrics) SimulatorOption {
	return func(s *Simulator) { s.metrics = m }
}

func WithLogger(l *logger.Logger) SimulatorOption {
	return func(s *Simulator) { s.log = l }
}

// WithClock overrides the wall clock used for the lookback window.
func WithClock(now func() time.Time) SimulatorOption {
	return func(s *Simulator) { s.now = now }
}

func NewSimulator(prices drepo.PriceHistory, policies drepo.PolicyStore, cfg SimulatorConfig, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		prices:   prices,
		policies: policies,
		cfg:      cfg,
		metrics:  nopMetrics{},
		log:      logger.Nop(),
		now:      time.Now,
		newSeed:  func() uint64 { return uint64(time.Now().UnixNano()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simulate runs a full request for symbol ending now.
func (s *Simulator) Simulate(ctx context.Context, symbol string) (*models.Report, error) {
	return s.Run(ctx, SimulateParams{Symbol: symbol}, nil)
}

// Run fetches history, trains or loads the policy, replays it greedily and
// returns the report. observe, when set, sees each replay entry in order.
func (s *Simulator) Run(ctx context.Context, p SimulateParams, observe StepObserver) (report *models.Report, err error) {
	started := time.Now()
	symbol := util.NormalizeSymbol(p.Symbol)
	log := s.log.With(logger.String("symbol", symbol))
	defer func() {
		status := models.StatusSuccess
		if err != nil {
			status = models.StatusError
			s.metrics.RecordError(errorKind(err))
		}
		s.metrics.RecordSimulation(symbol, status, time.Since(started).Seconds())
	}()

	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrDataUnavailable)
	}

	end := p.End
	if end.IsZero() {
		end = s.now()
	}
	from, to := util.LookbackWindow(end, s.cfg.LookbackDays)

	fetchStart := time.Now()
	bars, err := s.prices.DailyBars(ctx, symbol, from, to)
	s.metrics.RecordLatency("fetch", time.Since(fetchStart).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Error("price history fetch failed", logger.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	featureBars := features.Build(features.Normalize(bars))
	if len(featureBars) < s.cfg.MinFeatureBars {
		return nil, fmt.Errorf("%w: %s has %d usable bars, need %d", ErrDataUnavailable, symbol, len(featureBars), s.cfg.MinFeatureBars)
	}
	env, err := rl.NewEnvironment(featureBars, s.cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	seed := s.cfg.Seed
	if seed == 0 {
		seed = s.newSeed()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	def := rl.UniformDefault(rng)

	var (
		table    *rl.PolicyTable
		episodes int
	)
	err = s.withPolicyLock(ctx, symbol, func() error {
		var err error
		table, episodes, err = s.loadOrTrain(ctx, log, symbol, env, rng, def)
		return err
	})
	if err != nil {
		return nil, err
	}

	var (
		dailyLog []models.DailyLogEntry
		trades   int
	)
	replayStart := time.Now()
	err = guard(func() error {
		dailyLog, trades = replay(env, table, observe)
		return nil
	})
	s.metrics.RecordLatency("replay", time.Since(replayStart).Seconds())
	if err != nil {
		log.Error("replay failed", logger.Error(err))
		return nil, err
	}

	initial := s.cfg.Env.InitialCash
	report = &models.Report{
		RunID:        uuid.NewString(),
		Symbol:       symbol,
		Status:       models.StatusSuccess,
		StartDate:    util.FormatDate(from),
		EndDate:      util.FormatDate(to),
		EpisodeCount: episodes,
		GeneratedAt:  s.now().UTC(),
		Summary:      Summarize(initial, env.Value(), env.TradeReturns(), trades),
		DailyLog:     dailyLog,
	}
	s.metrics.RecordFinalValue(symbol, report.Summary.FinalValue)
	log.Info("simulation finished",
		logger.Int("episodes", episodes),
		logger.Int("trades", trades),
		logger.Float64("final_value", report.Summary.FinalValue),
		logger.Duration("elapsed_ms", time.Since(started)),
	)

	s.emit(ctx, log, report)
	return report, nil
}

func (s *Simulator) withPolicyLock(ctx context.Context, symbol string, fn func() error) error {
	if s.locker == nil {
		return fn()
	}
	release, err := s.locker.Acquire(ctx, "policy-lock:"+symbol)
	if err != nil {
		return fmt.Errorf("acquire policy lock: %w", err)
	}
	defer release()
	return fn()
}

// loadOrTrain reuses a stored policy when one exists. Otherwise it trains a
// fresh table over the configured number of episodes and stores it.
func (s *Simulator) loadOrTrain(ctx context.Context, log *logger.Logger, symbol string, env *rl.Environment, rng *rand.Rand, def rl.DefaultFunc) (*rl.PolicyTable, int, error) {
	snapshot, err := s.policies.Load(ctx, symbol)
	switch {
	case err == nil && len(snapshot) == 0:
		s.metrics.RecordPolicyLoad(symbol, false)
		log.Warn("stored policy is empty, training")
	case err == nil:
		s.metrics.RecordPolicyLoad(symbol, true)
		log.Info("policy loaded", logger.Int("states", len(snapshot)))
		return rl.RestoreTable(snapshot, def), 0, nil
	case errors.Is(err, drepo.ErrPolicyNotFound):
		s.metrics.RecordPolicyLoad(symbol, false)
		log.Debug("no stored policy, training")
	default:
		s.metrics.RecordPolicyLoad(symbol, false)
		s.metrics.RecordError("policy_load")
		log.Warn("policy load failed, training from scratch", logger.Error(err))
	}

	table := rl.NewTable(def)
	agent := rl.NewAgent(table, s.cfg.Agent, rng)
	trainStart := time.Now()
	err = guard(func() error {
		for ep := 0; ep < s.cfg.Episodes; ep++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			runEpisode(env, agent)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSimulationFault) {
			log.Error("training failed", logger.Error(err))
		}
		return nil, 0, err
	}
	s.metrics.RecordEpisodes(symbol, s.cfg.Episodes)
	s.metrics.RecordLatency("train", time.Since(trainStart).Seconds())
	log.Info("training finished",
		logger.Int("episodes", s.cfg.Episodes),
		logger.Int("states", table.Len()),
		logger.Float64("epsilon", agent.Epsilon()),
		logger.Duration("elapsed_ms", time.Since(trainStart)),
	)

	saveStart := time.Now()
	err = s.policies.Save(ctx, symbol, table.Snapshot())
	s.metrics.RecordLatency("save", time.Since(saveStart).Seconds())
	if err != nil {
		s.metrics.RecordError("policy_save")
		log.Warn("policy save failed", logger.Error(err))
	}
	return table, s.cfg.Episodes, nil
}

func runEpisode(env *rl.Environment, agent *rl.Agent) {
	state := env.Reset()
	for !env.Done() {
		action := agent.ChooseAction(state)
		res := env.Step(action)
		agent.Learn(state, action, res.Reward, res.Next)
		if res.Next != nil {
			state = *res.Next
		}
	}
}

// replay walks the environment once with the greedy policy. The table is only
// read; defaults for unseen states are kept aside so a revisited state acts
// the same way twice.
func replay(env *rl.Environment, table *rl.PolicyTable, observe StepObserver) ([]models.DailyLogEntry, int) {
	unseen := make(map[models.State]models.ActionValues)
	estimate := func(s models.State) models.ActionValues {
		if v, ok := table.Lookup(s); ok {
			return v
		}
		if v, ok := unseen[s]; ok {
			return v
		}
		v := table.Estimate(s)
		unseen[s] = v
		return v
	}

	state := env.Reset()
	out := make([]models.DailyLogEntry, 0, env.Len())
	trades := 0
	for !env.Done() {
		action := estimate(state).Argmax()
		cursor := env.Cursor()
		res := env.Step(action)
		if action != models.Hold {
			trades++
		}
		bar, _ := env.Bar(cursor)
		entry := models.DailyLogEntry{
			Date:           util.FormatDate(bar.Date),
			Action:         action.String(),
			Price:          util.Round2(bar.Close),
			PortfolioValue: util.Round2(env.Value()),
		}
		out = append(out, entry)
		if observe != nil {
			observe(entry)
		}
		if res.Next != nil {
			state = *res.Next
		}
	}
	return out, trades
}

// emit hands the report to the optional sinks. Failures are logged only.
func (s *Simulator) emit(ctx context.Context, log *logger.Logger, report *models.Report) {
	if s.reports != nil {
		if err := s.reports.PutReport(ctx, report); err != nil {
			log.Warn("report cache write failed", logger.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, report); err != nil {
			s.metrics.RecordError("report_publish")
			log.Warn("report publish failed", logger.Error(err))
		}
	}
}

// LatestReport returns the most recent cached report for symbol.
func (s *Simulator) LatestReport(ctx context.Context, symbol string) (*models.Report, error) {
	if s.reports == nil {
		return nil, ErrReportNotFound
	}
	r, err := s.reports.LatestReport(ctx, util.NormalizeSymbol(symbol))
	if err != nil {
		if errors.Is(err, drepo.ErrReportNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return r, nil
}

// guard converts a panic in fn into ErrSimulationFault.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSimulationFault, r)
		}
	}()
	return fn()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrSimulationFault):
		return "fault"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordSimulation(string, string, float64) {}
func (nopMetrics) RecordEpisodes(string, int)               {}
func (nopMetrics) RecordPolicyLoad(string, bool)            {}
func (nopMetrics) RecordFinalValue(string, float64)         {}
func (nopMetrics) RecordError(string)                       {}
func (nopMetrics) RecordLatency(string, float64)            {}
