package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/peter-kozarec/hedgeflow/pkg/models/bma"
	"github.com/peter-kozarec/hedgeflow/pkg/models/kkt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DecideFunc is the shape of kkt.Engine.Decide.
type DecideFunc func(forecast []float64, params bma.Parameters) (kkt.Result, error)

// Recorder counts hedging decisions per reservoir and regime. Each recorder owns
// its registry so a run can be exported as a node exporter textfile.
type Recorder struct {
	registry *prometheus.Registry

	decisions *prometheus.CounterVec
	failures  *prometheus.CounterVec
	degraded  *prometheus.CounterVec
	holdBack  *prometheus.GaugeVec
	duration  *prometheus.HistogramVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgeflow_decisions_total",
				Help: "Hedging decisions by reservoir and regime",
			},
			[]string{"reservoir", "regime"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgeflow_decision_failures_total",
				Help: "Decision cycles that ended without a decision",
			},
			[]string{"reservoir", "reason"},
		),
		degraded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgeflow_degraded_decisions_total",
				Help: "Decisions built on a clamped or truncated inflow distribution",
			},
			[]string{"reservoir"},
		),
		holdBack: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hedgeflow_last_hold_back",
				Help: "Hold back volume of the latest decision",
			},
			[]string{"reservoir"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hedgeflow_decision_duration_seconds",
				Help:    "Duration of one decision cycle in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"reservoir"},
		),
	}
}

// WithDecide wraps a decide function so every call is timed and counted.
func (r *Recorder) WithDecide(reservoir string, decide DecideFunc) DecideFunc {
	return func(forecast []float64, params bma.Parameters) (kkt.Result, error) {
		start := time.Now()
		res, err := decide(forecast, params)
		r.duration.WithLabelValues(reservoir).Observe(time.Since(start).Seconds())

		if err != nil {
			r.failures.WithLabelValues(reservoir, reason(err)).Inc()
			return res, err
		}

		r.decisions.WithLabelValues(reservoir, res.Regime.String()).Inc()
		r.holdBack.WithLabelValues(reservoir).Set(res.HoldBack)
		if res.Distribution.Degraded {
			r.degraded.WithLabelValues(reservoir).Inc()
		}
		return res, nil
	}
}

// WriteTextfile writes every metric of the recorder in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func reason(err error) string {
	var (
		noRoot *kkt.NoFeasibleRootError
		domain *bma.DomainError
	)
	switch {
	case errors.As(err, &noRoot):
		return "no_feasible_root"
	case errors.As(err, &domain):
		return "transform_domain"
	case errors.Is(err, bma.ErrEmptyEnsemble):
		return "empty_ensemble"
	case errors.Is(err, bma.ErrInvalidParameters):
		return "invalid_parameters"
	default:
		return "other"
	}
}
