package kkt

import (
	"fmt"

	"github.com/peter-kozarec/hedgeflow/pkg/models/bma"
	"go.uber.org/zap"
)

// Result is the decision of one forecast cycle together with the intermediate
// products downstream reporting needs.
type Result struct {
	Decision
	Distribution bma.Distribution
	Fit          Fit
}

func (r Result) Expected() float64 { return r.Distribution.Expected }
func (r Result) DeltaMin() float64 { return r.Distribution.DeltaMin }

// Engine turns an ensemble inflow forecast into a hedging decision for one
// reservoir. It holds no per-cycle state, Decide may be called concurrently.
type Engine struct {
	logger              *zap.Logger
	reservoir           Reservoir
	builder             *bma.Builder
	selector            *Selector
	distributionOptions []bma.Option
}

func NewEngine(reservoir Reservoir, lambda float64, options ...Option) (*Engine, error) {
	if err := reservoir.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		logger:    zap.NewNop(),
		reservoir: reservoir,
	}
	for _, option := range options {
		option(e)
	}

	builderOptions := append([]bma.Option{bma.WithLogger(e.logger)}, e.distributionOptions...)
	e.builder = bma.NewBuilder(lambda, builderOptions...)
	e.selector = NewSelector(e.logger, reservoir)

	return e, nil
}

func (e *Engine) Reservoir() Reservoir { return e.reservoir }

// Decide runs one decision cycle. Transform and grid failures abort the cycle,
// an unusable fit falls back to grid densities and a marginal value equation
// without feasible root is returned as *NoFeasibleRootError.
func (e *Engine) Decide(forecast []float64, params bma.Parameters) (Result, error) {
	dist, err := e.builder.Build(forecast, params, e.reservoir.RiskTolerance)
	if err != nil {
		return Result{}, fmt.Errorf("inflow distribution: %w", err)
	}

	fit, err := FitCurve(e.logger, dist.Grid, e.reservoir.Ceiling, dist.RiskQuantile, dist.Q995)
	if err != nil {
		return Result{}, fmt.Errorf("release density fit: %w", err)
	}

	w := e.reservoir.Storage.Weight
	decision, err := e.selector.Classify(Cycle{
		Expected:   dist.Expected,
		DeltaMin:   dist.DeltaMin,
		Q995:       dist.Q995,
		F2DeltaMin: w * fit.RiskDensity,
		F2Delta995: w * fit.Q995Density,
		Curve:      fit.Curve,
	})
	if err != nil {
		return Result{}, err
	}

	e.logger.Info("hedging decision",
		zap.Stringer("regime", decision.Regime),
		zap.Float64("hold_back", decision.HoldBack),
		zap.Float64("delta", decision.Delta),
		zap.Float64("expected", dist.Expected),
		zap.Float64("delta_min", dist.DeltaMin),
		zap.Bool("degenerate_fit", fit.Degenerate),
		zap.Bool("degraded", dist.Degraded))

	return Result{
		Decision:     decision,
		Distribution: dist,
		Fit:          fit,
	}, nil
}
