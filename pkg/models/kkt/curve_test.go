package kkt

import (
	"errors"
	"math"
	"testing"

	"github.com/peter-kozarec/hedgeflow/pkg/models/bma"
)

func linearGrid(start, step float64, n int, density func(v float64) float64) bma.Grid {
	g := make(bma.Grid, n)
	for i := range g {
		v := start + float64(i)*step
		g[i] = bma.Row{Value: v, Mass: density(v) * step, Width: step, Density: density(v)}
	}
	return g
}

func TestCurve_FitRecoversCubic(t *testing.T) {
	const ceiling = 200.0
	cubic := func(w1 float64) float64 {
		return 0.01 + 0.002*w1 - 0.00003*w1*w1 + 1e-7*w1*w1*w1
	}
	grid := linearGrid(0, 1, 201, func(v float64) float64 { return cubic(ceiling - v) })

	fit, err := FitCurve(nil, grid, ceiling, 150, 190)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fit.Degenerate || fit.Curve.IsZero() {
		t.Fatalf("expected a fitted curve, got %+v", fit)
	}
	if fit.Points != 44 {
		t.Errorf("Points = %d, want 44", fit.Points)
	}
	for w1 := 10.0; w1 <= 53; w1 += 0.5 {
		if got, want := fit.Curve.At(w1), cubic(w1); math.Abs(got-want) > 1e-9 {
			t.Fatalf("curve(%g) = %g, want %g", w1, got, want)
		}
	}
	if math.Abs(fit.RiskDensity-cubic(50)) > 1e-9 {
		t.Errorf("RiskDensity = %g, want %g", fit.RiskDensity, cubic(50))
	}
	if math.Abs(fit.Q995Density-cubic(10)) > 1e-9 {
		t.Errorf("Q995Density = %g, want %g", fit.Q995Density, cubic(10))
	}
}

func TestCurve_SingleRowSkipsFit(t *testing.T) {
	grid := linearGrid(0, 10, 100, func(v float64) float64 { return 0.001 * v })

	// Only the row at 490 lies within [2, 11] hold back of the 500 ceiling.
	fit, err := FitCurve(nil, grid, 500, 492, 498)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fit.Degenerate || !fit.Curve.IsZero() || fit.Points != 1 {
		t.Fatalf("expected degenerate zero fit, got %+v", fit)
	}
	if math.Abs(fit.RiskDensity-0.492) > 1e-12 {
		t.Errorf("RiskDensity = %g, want 0.492", fit.RiskDensity)
	}
	if math.Abs(fit.Q995Density-0.498) > 1e-12 {
		t.Errorf("Q995Density = %g, want 0.498", fit.Q995Density)
	}
}

func TestCurve_InflowAboveCeiling(t *testing.T) {
	grid := linearGrid(900, 1, 200, func(float64) float64 { return 0.005 })

	fit, err := FitCurve(nil, grid, 100, 1050, 1090)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fit.Degenerate || fit.Points != 0 {
		t.Errorf("expected degenerate fit without points, got %+v", fit)
	}
	if fit.RiskDensity != 0.005 || fit.Q995Density != 0.005 {
		t.Errorf("densities = %g, %g", fit.RiskDensity, fit.Q995Density)
	}
}

func TestCurve_TwoPointsFitALine(t *testing.T) {
	curve, err := fitCubic([]float64{1, 3}, []float64{2, 6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, x := range []float64{1, 3} {
		if got := curve.At(x); math.Abs(got-2*x) > 1e-9 {
			t.Errorf("curve(%g) = %g, want %g", x, got, 2*x)
		}
	}
}

func TestCurve_Errors(t *testing.T) {
	if _, err := FitCurve(nil, nil, 100, 10, 20); !errors.Is(err, bma.ErrEmptyGrid) {
		t.Errorf("expected ErrEmptyGrid, got %v", err)
	}
	if _, err := fitCubic([]float64{1}, []float64{1}); !errors.Is(err, ErrDegenerateFit) {
		t.Errorf("expected ErrDegenerateFit, got %v", err)
	}
}
