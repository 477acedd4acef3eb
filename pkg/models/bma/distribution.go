package bma

import (
	"fmt"

	"go.uber.org/zap"
)

const (
	DefaultTailQuantile = 0.998
	FloodQuantile       = 0.995
)

// Distribution is the calibrated forecast of total inflow over the horizon.
type Distribution struct {
	Grid     Grid
	Expected float64

	// RiskQuantile is the inflow at the acceptable-risk percentile (1 - r_alpha).
	RiskQuantile float64
	Q995         float64

	// Grid densities at the two quantiles, read straight from the resampled
	// grid. The release density f2 comes from the fitted curve instead.
	GridRiskDensity float64
	GridQ995Density float64

	// DeltaMin is the shortfall between the acceptable-risk inflow and the expectation.
	DeltaMin float64

	// Degraded is set when a quantile query had to be clamped to the grid or
	// grid points were dropped by the inverse transform.
	Degraded bool
}

type Builder struct {
	logger       *zap.Logger
	lambda       float64
	gridSize     int
	tailQuantile float64
}

func NewBuilder(lambda float64, options ...Option) *Builder {
	b := &Builder{
		logger:       zap.NewNop(),
		lambda:       lambda,
		gridSize:     DefaultGridSize,
		tailQuantile: DefaultTailQuantile,
	}
	for _, option := range options {
		option(b)
	}
	return b
}

// Build derives the inflow distribution for one forecast cycle. riskTolerance is
// the accepted exceedance fraction r_alpha.
func (b *Builder) Build(forecast []float64, params Parameters, riskTolerance float64) (Distribution, error) {
	if len(forecast) == 0 {
		return Distribution{}, ErrEmptyEnsemble
	}
	if riskTolerance < 0 || riskTolerance >= 1 {
		return Distribution{}, fmt.Errorf("%w: risk tolerance %g outside [0, 1)", ErrInvalidParameters, riskTolerance)
	}

	transformed, err := ForwardAll(forecast, b.lambda)
	if err != nil {
		return Distribution{}, fmt.Errorf("transform ensemble: %w", err)
	}

	pmf, err := BuildMixture(transformed, params, b.gridSize)
	if err != nil {
		return Distribution{}, fmt.Errorf("build mixture: %w", err)
	}

	var d Distribution

	pmf, dropped := pmf.Restore(b.lambda)
	if dropped > 0 {
		d.Degraded = true
		b.logger.Warn("grid points outside inverse transform domain dropped",
			zap.Int("dropped", dropped),
			zap.Float64("lambda", b.lambda))
	}
	if len(pmf) == 0 {
		return Distribution{}, ErrEmptyGrid
	}
	pmf = pmf.Accumulate()

	upper, err := pmf.Quantile(b.tailQuantile)
	if !b.tolerate(&d, err, "tail quantile") {
		return Distribution{}, err
	}
	pmf = pmf.TruncateAbove(upper)
	if len(pmf) == 0 {
		return Distribution{}, ErrEmptyGrid
	}
	d.Expected = pmf.Expectation()

	d.Grid = Resample(pmf)

	if d.RiskQuantile, err = d.Grid.Quantile(1 - riskTolerance); !b.tolerate(&d, err, "risk quantile") {
		return Distribution{}, err
	}
	if d.GridRiskDensity, err = d.Grid.DensityAt(d.RiskQuantile); !b.tolerate(&d, err, "risk density") {
		return Distribution{}, err
	}
	if d.Q995, err = d.Grid.Quantile(FloodQuantile); !b.tolerate(&d, err, "flood quantile") {
		return Distribution{}, err
	}
	if d.GridQ995Density, err = d.Grid.DensityAt(d.Q995); !b.tolerate(&d, err, "flood density") {
		return Distribution{}, err
	}
	d.DeltaMin = d.RiskQuantile - d.Expected

	b.logger.Debug("inflow distribution built",
		zap.Int("members", len(forecast)),
		zap.Int("grid_points", len(d.Grid)),
		zap.Float64("expected", d.Expected),
		zap.Float64("risk_quantile", d.RiskQuantile),
		zap.Float64("q995", d.Q995),
		zap.Float64("delta_min", d.DeltaMin),
		zap.Bool("degraded", d.Degraded))

	return d, nil
}

func (b *Builder) tolerate(d *Distribution, err error, what string) bool {
	if err == nil {
		return true
	}
	if IsRangeOnly(err) {
		d.Degraded = true
		b.logger.Debug("interpolation clamped", zap.String("query", what), zap.Error(err))
		return true
	}
	return false
}
