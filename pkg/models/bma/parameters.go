package bma

import (
	"fmt"
	"math"
)

const weightSumTolerance = 1e-3

// Parameters hold the calibrated mixture weights, one per ensemble member, and
// the standard deviation shared by every member kernel.
type Parameters struct {
	MemberWeights []float64
	SharedStdDev  float64
}

// ParametersFromTable converts a calibration table where the row after the
// member weights carries the shared standard deviation instead of a weight.
func ParametersFromTable(table []float64) (Parameters, error) {
	if len(table) < 2 {
		return Parameters{}, fmt.Errorf("%w: table needs at least one weight and the standard deviation", ErrInvalidParameters)
	}
	n := len(table) - 1
	weights := make([]float64, n)
	copy(weights, table[:n])
	return Parameters{
		MemberWeights: weights,
		SharedStdDev:  table[n],
	}, nil
}

func (p Parameters) Validate(members int) error {
	if members == 0 {
		return ErrEmptyEnsemble
	}
	if len(p.MemberWeights) != members {
		return fmt.Errorf("%w: %d weights for %d members", ErrInvalidParameters, len(p.MemberWeights), members)
	}
	if !(p.SharedStdDev > 0) || math.IsInf(p.SharedStdDev, 0) {
		return fmt.Errorf("%w: shared standard deviation must be positive, got %g", ErrInvalidParameters, p.SharedStdDev)
	}

	var sum float64
	for i, w := range p.MemberWeights {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("%w: weight %d is %g", ErrInvalidParameters, i, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %g", ErrInvalidParameters, sum)
	}
	return nil
}
