package bma

import (
	"math"
	"sort"
)

// Interpolate evaluates the piecewise linear function through (xs, ys) at x.
// xs must be non-decreasing and free of NaN. Queries outside [xs[0], xs[n-1]]
// return the value at the nearest end together with an *InterpolationRangeError.
func Interpolate(x float64, xs, ys []float64) (float64, error) {
	n := len(xs)
	if n == 0 || len(ys) != n {
		return 0, ErrEmptyGrid
	}
	for _, v := range xs {
		if math.IsNaN(v) {
			return math.NaN(), ErrUnorderedGrid
		}
	}

	if math.IsNaN(x) {
		return math.NaN(), &InterpolationRangeError{Query: x, Min: xs[0], Max: xs[n-1]}
	}
	if x < xs[0] {
		return ys[0], &InterpolationRangeError{Query: x, Min: xs[0], Max: xs[n-1]}
	}
	if x > xs[n-1] {
		return ys[n-1], &InterpolationRangeError{Query: x, Min: xs[0], Max: xs[n-1]}
	}

	i := sort.SearchFloat64s(xs, x)
	switch {
	case i == n:
		return math.NaN(), ErrUnorderedGrid
	case i == 0:
		return ys[0], nil
	case xs[i] == x:
		return ys[i], nil
	}

	x0, x1 := xs[i-1], xs[i]
	y0, y1 := ys[i-1], ys[i]
	if x1 == x0 {
		return y1, nil
	}
	return y0 + (x-x0)*(y1-y0)/(x1-x0), nil
}

// Quantile returns the value at which the cumulative column reaches p.
func (g Grid) Quantile(p float64) (float64, error) {
	return Interpolate(p, g.Cumulatives(), g.Values())
}

// DensityAt returns the density column interpolated at value x.
func (g Grid) DensityAt(x float64) (float64, error) {
	return Interpolate(x, g.Values(), g.Densities())
}
