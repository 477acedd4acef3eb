package bma

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultGridSize = 500
	kernelSpan      = 3.0
)

// BuildMixture accumulates the weighted Gaussian kernels of every member into a
// probability mass grid spanning [min - 3σ, max + 3σ] of the transformed
// forecast. Mass beyond the span is not represented.
func BuildMixture(transformed []float64, params Parameters, size int) (Grid, error) {
	if len(transformed) == 0 {
		return nil, ErrEmptyEnsemble
	}
	if err := params.Validate(len(transformed)); err != nil {
		return nil, err
	}
	for i, v := range transformed {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: member %d is %g", ErrNonFiniteMember, i, v)
		}
	}
	if size < 2 {
		size = DefaultGridSize
	}

	sigma := params.SharedStdDev
	lo := floats.Min(transformed) - kernelSpan*sigma
	hi := floats.Max(transformed) + kernelSpan*sigma
	interval := (hi - lo) / float64(size-1)

	values := floats.Span(make([]float64, size), lo, hi)
	masses := make([]float64, size)

	for member, mu := range transformed {
		kernel := distuv.Normal{Mu: mu, Sigma: sigma}
		scale := params.MemberWeights[member] * interval
		for i, x := range values {
			masses[i] += kernel.Prob(x) * scale
		}
	}

	grid := make(Grid, size)
	for i := range grid {
		grid[i] = Row{Value: values[i], Mass: masses[i]}
	}
	return grid, nil
}
