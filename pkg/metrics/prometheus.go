package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	simulations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	episodes    *prometheus.CounterVec
	policyLoads *prometheus.CounterVec
	finalValue  *prometheus.GaugeVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New registers the simulator collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		simulations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradesim_simulations_total",
				Help: "Simulation requests by symbol and outcome",
			},
			[]string{"symbol", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradesim_simulation_duration_seconds",
				Help:    "Wall time of a simulation request",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"status"},
		),
		episodes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradesim_training_episodes_total",
				Help: "Training episodes run",
			},
			[]string{"symbol"},
		),
		policyLoads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradesim_policy_loads_total",
				Help: "Policy lookups by result (hit or miss)",
			},
			[]string{"result"},
		),
		finalValue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradesim_last_final_value",
				Help: "Final portfolio value of the latest backtest",
			},
			[]string{"symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradesim_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradesim_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordSimulation(symbol, status string, seconds float64) {
	r.simulations.WithLabelValues(symbol, status).Inc()
	r.duration.WithLabelValues(status).Observe(seconds)
}

func (r *Recorder) RecordEpisodes(symbol string, n int) {
	r.episodes.WithLabelValues(symbol).Add(float64(n))
}

func (r *Recorder) RecordPolicyLoad(_ string, found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	r.policyLoads.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordFinalValue(symbol string, value float64) {
	r.finalValue.WithLabelValues(symbol).Set(value)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
