package kkt

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Margin under the I2_a threshold inside which I2_h and I2_e are not defined
// and regime 2.1 is taken directly.
const criticalInflowMargin = 5.0

// Reservoir holds the operational constants of one reservoir.
type Reservoir struct {
	Ceiling       float64 // maximum admissible end-of-period storage reference
	MaxHoldBack   float64 // W_max
	Storage       StorageValue
	RiskTolerance float64 // r_alpha
}

func (r Reservoir) Validate() error {
	if !(r.MaxHoldBack >= 0) {
		return fmt.Errorf("%w: max hold back must not be negative, got %g", ErrInvalidReservoir, r.MaxHoldBack)
	}
	if r.RiskTolerance < 0 || r.RiskTolerance >= 1 {
		return fmt.Errorf("%w: risk tolerance %g outside [0, 1)", ErrInvalidReservoir, r.RiskTolerance)
	}
	if math.IsNaN(r.Ceiling) || math.IsInf(r.Ceiling, 0) {
		return fmt.Errorf("%w: ceiling must be finite", ErrInvalidReservoir)
	}
	if err := r.Storage.Validate(); err != nil {
		return err
	}
	if r.MaxHoldBack >= r.Storage.Capacity {
		return fmt.Errorf("%w: max hold back %g must stay below storage capacity %g",
			ErrInvalidReservoir, r.MaxHoldBack, r.Storage.Capacity)
	}
	return nil
}

// Cycle carries the per-forecast inputs of the regime classification.
type Cycle struct {
	Expected   float64 // I2_expected
	DeltaMin   float64
	Q995       float64 // I2_995
	F2DeltaMin float64 // weighted release density at delta_min
	F2Delta995 float64 // weighted release density at the 99.5th percentile delta
	Curve      Curve
}

// Thresholds are the critical inflows of one cycle. Thresholds the selected
// regime did not need are NaN.
type Thresholds struct {
	I2a float64
	I20 float64
	I2e float64
	I2h float64
}

func unsetThresholds() Thresholds {
	nan := math.NaN()
	return Thresholds{I2a: nan, I20: nan, I2e: nan, I2h: nan}
}

// Decision is the hedging decision of one cycle.
type Decision struct {
	Regime     Regime
	HoldBack   float64 // W1
	Delta      float64 // release shortfall against the ceiling
	Thresholds Thresholds
}

type Selector struct {
	logger    *zap.Logger
	reservoir Reservoir
}

func NewSelector(logger *zap.Logger, reservoir Reservoir) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{logger: logger, reservoir: reservoir}
}

// Classify picks the regime for the cycle and computes its decision. Every
// cycle is classified from scratch.
func (s *Selector) Classify(c Cycle) (Decision, error) {
	storage := s.reservoir.Storage
	f1Zero := storage.Marginal(0)
	f1Max := storage.Marginal(s.reservoir.MaxHoldBack)
	if math.IsNaN(f1Zero) || math.IsNaN(f1Max) {
		return Decision{}, fmt.Errorf("%w: storage marginal value undefined at max hold back %g",
			ErrInvalidReservoir, s.reservoir.MaxHoldBack)
	}

	var (
		d   Decision
		err error
	)
	switch {
	case c.F2DeltaMin >= f1Zero:
		d, err = s.familyOne(c, f1Zero, f1Max)
	case c.F2DeltaMin >= f1Max:
		d, err = s.familyTwo(c, f1Max)
	default:
		d = s.familyThree(c)
	}
	if err != nil {
		return Decision{}, err
	}

	s.logger.Debug("regime classified",
		zap.Stringer("regime", d.Regime),
		zap.Float64("expected", c.Expected),
		zap.Float64("hold_back", d.HoldBack),
		zap.Float64("delta", d.Delta),
		zap.Float64("i2_a", d.Thresholds.I2a),
		zap.Float64("i2_0", d.Thresholds.I20),
		zap.Float64("i2_e", d.Thresholds.I2e),
		zap.Float64("i2_h", d.Thresholds.I2h))

	return d, nil
}

func (s *Selector) familyOne(c Cycle, f1Zero, f1Max float64) (Decision, error) {
	th := unsetThresholds()

	i20, err := s.criticalZero(c, f1Zero)
	if err != nil {
		return Decision{}, fmt.Errorf("critical inflow I2_0: %w", err)
	}
	th.I20 = i20

	if i20 > 0 {
		if th.I2e, err = s.criticalMax(c, f1Max); err != nil {
			return Decision{}, fmt.Errorf("critical inflow I2_e: %w", err)
		}
	}

	switch {
	case c.Expected > th.I20:
		return s.releaseNothingExtra(Regime11, c, th), nil
	case c.Expected < th.I2e:
		return s.releaseMaximum(Regime13, c, th), nil
	}

	ceiling := s.reservoir.Ceiling
	if s.reservoir.Storage.Marginal(ceiling-c.Q995) < c.F2Delta995 {
		return Decision{
			Regime:     Regime12,
			HoldBack:   ceiling - c.Q995,
			Delta:      c.Q995 - c.Expected,
			Thresholds: th,
		}, nil
	}
	return s.equalMarginal(Regime12, c, th)
}

func (s *Selector) familyTwo(c Cycle, f1Max float64) (Decision, error) {
	th := unsetThresholds()
	th.I2a = s.criticalRisk(c)

	if c.Expected > th.I2a-criticalInflowMargin {
		return s.releaseNothingExtra(Regime21, c, th), nil
	}

	w1h, err := s.reservoir.Storage.HoldBackAt(c.F2DeltaMin)
	if err != nil {
		return Decision{}, fmt.Errorf("critical inflow I2_h: %w", err)
	}
	th.I2h = s.reservoir.Ceiling - c.DeltaMin - w1h

	if th.I2e, err = s.criticalMax(c, f1Max); err != nil {
		return Decision{}, fmt.Errorf("critical inflow I2_e: %w", err)
	}

	switch {
	case c.Expected > th.I2h && c.Expected < th.I2a:
		return s.holdToRisk(Regime22, c, th), nil
	case c.Expected > th.I2e && c.Expected <= th.I2h:
		return s.equalMarginal(Regime23, c, th)
	default:
		return s.releaseMaximum(Regime24, c, th), nil
	}
}

func (s *Selector) familyThree(c Cycle) Decision {
	th := unsetThresholds()
	th.I2a = s.criticalRisk(c)

	switch {
	case c.Expected > th.I2a:
		return s.releaseNothingExtra(Regime31, c, th)
	case c.Expected < th.I2a-s.reservoir.MaxHoldBack:
		return s.releaseMaximum(Regime33, c, th)
	default:
		return s.holdToRisk(Regime32, c, th)
	}
}

// criticalRisk is I2_a, the inflow at which delta equals delta_min.
func (s *Selector) criticalRisk(c Cycle) float64 {
	return s.reservoir.Ceiling - c.DeltaMin
}

// criticalZero is I2_0, the inflow at which the release density meets the
// storage value of an empty hold back.
func (s *Selector) criticalZero(c Cycle, f1Zero float64) (float64, error) {
	roots, err := SolveRoots(LevelEquation(c.Curve, s.reservoir.Storage.Weight, f1Zero), s.bracket(c))
	if err != nil {
		return 0, err
	}
	if len(roots) == 0 {
		return s.reservoir.Ceiling - (c.Q995 - c.Expected), nil
	}
	w10, err := FilterRoots(roots, s.bounds(c))
	if err != nil {
		return 0, err
	}
	return w10 + c.Expected, nil
}

// criticalMax is I2_e, the inflow at which the release density meets the
// storage value of the maximum hold back.
func (s *Selector) criticalMax(c Cycle, f1Max float64) (float64, error) {
	ceiling := s.reservoir.Ceiling
	wMax := s.reservoir.MaxHoldBack

	if c.F2Delta995 >= f1Max {
		return ceiling - (c.Q995 - c.Expected) - wMax, nil
	}

	roots, err := SolveRoots(LevelEquation(c.Curve, s.reservoir.Storage.Weight, f1Max), s.bracket(c))
	if err != nil {
		return 0, err
	}
	w1e, err := FilterRoots(roots, s.bounds(c))
	if err != nil {
		return 0, err
	}
	if w1e >= ceiling {
		return c.Expected - 1, nil
	}
	return w1e + c.Expected - wMax, nil
}

func (s *Selector) equalMarginal(regime Regime, c Cycle, th Thresholds) (Decision, error) {
	roots, err := SolveRoots(EqualMarginalEquation(c.Curve, s.reservoir.Storage), s.bracket(c))
	if err != nil {
		return Decision{}, err
	}
	w1, err := FilterRoots(roots, s.bounds(c))
	if err != nil {
		return Decision{}, fmt.Errorf("equal marginal value (regime %s): %w", regime, err)
	}
	return Decision{
		Regime:     regime,
		HoldBack:   w1,
		Delta:      s.reservoir.Ceiling - c.Expected - w1,
		Thresholds: th,
	}, nil
}

func (s *Selector) releaseNothingExtra(regime Regime, c Cycle, th Thresholds) Decision {
	return Decision{
		Regime:     regime,
		HoldBack:   0,
		Delta:      s.reservoir.Ceiling - c.Expected,
		Thresholds: th,
	}
}

func (s *Selector) releaseMaximum(regime Regime, c Cycle, th Thresholds) Decision {
	wMax := s.reservoir.MaxHoldBack
	return Decision{
		Regime:     regime,
		HoldBack:   wMax,
		Delta:      s.reservoir.Ceiling - c.Expected - wMax,
		Thresholds: th,
	}
}

func (s *Selector) holdToRisk(regime Regime, c Cycle, th Thresholds) Decision {
	return Decision{
		Regime:     regime,
		HoldBack:   s.reservoir.Ceiling - c.Expected - c.DeltaMin,
		Delta:      c.DeltaMin,
		Thresholds: th,
	}
}

func (s *Selector) bounds(c Cycle) Bounds {
	return HoldBackBounds(s.reservoir.Ceiling, c.Expected, c.DeltaMin, c.Q995)
}

// bracket is the search interval for equations that are not polynomial.
func (s *Selector) bracket(c Cycle) Bounds {
	return Bounds{
		Lower: math.Min(0, s.bounds(c).Lower),
		Upper: s.reservoir.Storage.Capacity,
	}
}
