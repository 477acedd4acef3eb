package kkt

import (
	"errors"
	"fmt"
	"math"

	"github.com/peter-kozarec/hedgeflow/pkg/models/bma"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// Extra hold back kept above the acceptable-risk bound when selecting the
	// section of the density curve to fit.
	fitUpperSlack = 3.0

	rankTolerance = 1e-12
)

// Curve maps hold back W1 to the release marginal density,
// c[0]·W1 + c[1]·W1² + c[2]·W1³ + c[3]. The zero curve marks a skipped fit.
type Curve [4]float64

func (c Curve) IsZero() bool {
	return c == Curve{}
}

func (c Curve) At(w1 float64) float64 {
	return c.Polynomial().At(w1)
}

// Polynomial reorders the coefficients into ascending powers.
func (c Curve) Polynomial() Polynomial {
	return Polynomial{c[3], c[0], c[1], c[2]}
}

// Fit is the fitted release density curve and its values at the two hold back
// bounds. Weighted by the flood control weight these densities are f2 at
// delta_min and at the 99.5th percentile delta.
type Fit struct {
	Curve       Curve
	RiskDensity float64 // at the acceptable-risk bound
	Q995Density float64 // at the 99.5th percentile bound
	Points      int
	Degenerate  bool
}

// FitCurve re-expresses the density grid in hold back W1 = ceiling - inflow and
// fits a cubic to the section between the 99.5th percentile and the
// acceptable-risk bound. Sections with fewer than two points skip the fit and
// read both densities straight from the grid.
func FitCurve(logger *zap.Logger, grid bma.Grid, ceiling, riskQuantile, q995 float64) (Fit, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(grid) == 0 {
		return Fit{}, bma.ErrEmptyGrid
	}

	upper := ceiling - riskQuantile
	lower := ceiling - q995

	// Grid is ascending in inflow, so walk it backwards for ascending W1.
	var xs, ys []float64
	for i := len(grid) - 1; i >= 0; i-- {
		w1 := ceiling - grid[i].Value
		if w1 <= upper+fitUpperSlack && w1 >= lower && w1 >= 0 {
			xs = append(xs, w1)
			ys = append(ys, grid[i].Density)
		}
	}

	curve, err := fitCubic(xs, ys)
	if errors.Is(err, ErrDegenerateFit) {
		logger.Debug("release density fit skipped", zap.Int("points", len(xs)))
		return gridFit(grid, riskQuantile, q995, len(xs))
	}
	if err != nil {
		return Fit{}, err
	}

	fitted := make([]float64, len(xs))
	for i, x := range xs {
		fitted[i] = curve.At(x)
	}

	f := Fit{Curve: curve, Points: len(xs)}
	if f.RiskDensity, err = bma.Interpolate(upper, xs, fitted); !bma.IsRangeOnly(err) {
		return Fit{}, err
	}
	if f.Q995Density, err = bma.Interpolate(lower, xs, fitted); !bma.IsRangeOnly(err) {
		return Fit{}, err
	}
	return f, nil
}

func gridFit(grid bma.Grid, riskQuantile, q995 float64, points int) (Fit, error) {
	f := Fit{Points: points, Degenerate: true}

	var err error
	if f.RiskDensity, err = grid.DensityAt(riskQuantile); !bma.IsRangeOnly(err) {
		return Fit{}, err
	}
	if f.Q995Density, err = grid.DensityAt(q995); !bma.IsRangeOnly(err) {
		return Fit{}, err
	}
	return f, nil
}

// fitCubic solves the ordinary least squares problem with an unpenalized
// intercept. Features are centred and scaled before the minimum norm SVD solve
// so short sections still produce a curve.
func fitCubic(xs, ys []float64) (Curve, error) {
	n := len(xs)
	if n <= 1 {
		return Curve{}, ErrDegenerateFit
	}

	const degree = 3
	features := mat.NewDense(n, degree, nil)
	for i, x := range xs {
		features.Set(i, 0, x)
		features.Set(i, 1, x*x)
		features.Set(i, 2, x*x*x)
	}

	var means, scales [degree]float64
	column := make([]float64, n)
	for j := 0; j < degree; j++ {
		mat.Col(column, j, features)
		means[j] = stat.Mean(column, nil)
		floats.AddConst(-means[j], column)
		scales[j] = math.Max(floats.Max(column), -floats.Min(column))
		if scales[j] > 0 {
			floats.Scale(1/scales[j], column)
		}
		features.SetCol(j, column)
	}

	yMean := stat.Mean(ys, nil)
	target := mat.NewVecDense(n, nil)
	for i, y := range ys {
		target.SetVec(i, y-yMean)
	}

	var svd mat.SVD
	if ok := svd.Factorize(features, mat.SVDThin); !ok {
		return Curve{}, fmt.Errorf("%w: svd factorization failed", ErrDegenerateFit)
	}

	var beta mat.VecDense
	if rank := svd.Rank(rankTolerance); rank > 0 {
		svd.SolveVecTo(&beta, target, rank)
	} else {
		beta.ReuseAsVec(degree)
	}

	var c Curve
	intercept := yMean
	for j := 0; j < degree; j++ {
		if scales[j] == 0 {
			continue
		}
		c[j] = beta.AtVec(j) / scales[j]
		intercept -= c[j] * means[j]
	}
	c[degree] = intercept
	return c, nil
}
