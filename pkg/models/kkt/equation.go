package kkt

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"
)

const (
	// Integer exponents up to this degree are expanded into a polynomial.
	maxExpandedExponent = 16

	bracketSamples      = 4096
	bisectionIterations = 200
	bisectionTolerance  = 1e-10

	// Doublings of the step below the search interval before giving up on a
	// root underneath it.
	maxBelowExpansions = 40
)

// Equation is R(W1) - A·((C - W1)/C)^k = 0 in the hold back W1, where R is the
// weighted release density polynomial. A zero A leaves a plain polynomial.
type Equation struct {
	Release  Polynomial
	Scale    float64 // A
	Capacity float64 // C
	Exponent float64 // k
}

// EqualMarginalEquation equates the weighted release density curve with the
// storage marginal value.
func EqualMarginalEquation(curve Curve, storage StorageValue) Equation {
	return Equation{
		Release:  curve.Polynomial().Scale(storage.Weight),
		Scale:    storage.scale(),
		Capacity: storage.Capacity,
		Exponent: storage.exponent(),
	}
}

// LevelEquation equates the weighted release density curve with a constant
// marginal value.
func LevelEquation(curve Curve, weight, level float64) Equation {
	return Equation{
		Release: curve.Polynomial().Scale(weight).Sub(Polynomial{level}),
	}
}

func (e Equation) At(w1 float64) float64 {
	y := e.Release.At(w1)
	if e.Scale != 0 {
		y -= e.Scale * math.Pow((e.Capacity-w1)/e.Capacity, e.Exponent)
	}
	return y
}

// Polynomial expands the equation when the power term is polynomial itself.
func (e Equation) Polynomial() (Polynomial, bool) {
	if e.Scale == 0 {
		return e.Release, true
	}
	k := e.Exponent
	if k < 0 || k > maxExpandedExponent || k != math.Trunc(k) {
		return nil, false
	}

	n := int(k)
	power := make(Polynomial, n+1)
	for j := 0; j <= n; j++ {
		sign := 1.0
		if j%2 == 1 {
			sign = -1
		}
		power[j] = e.Scale * sign * float64(combin.Binomial(n, j)) / math.Pow(e.Capacity, float64(j))
	}
	return e.Release.Sub(power), true
}

// SolveRoots returns the roots of the equation sorted by real part. Polynomial
// equations yield every complex root, the others the real roots found by
// bisection inside the search interval plus the nearest real root below it.
func SolveRoots(e Equation, search Bounds) ([]complex128, error) {
	if p, ok := e.Polynomial(); ok {
		return p.Roots()
	}
	lo, hi := search.Lower, search.Upper
	if e.Capacity > 0 {
		hi = math.Min(hi, e.Capacity)
	}
	if !(hi > lo) {
		return nil, nil
	}

	roots := bracketRoots(e.At, lo, hi)
	if r, ok := rootBelow(e.At, lo, hi-lo); ok {
		roots = append([]complex128{complex(r, 0)}, roots...)
	}
	return roots, nil
}

// rootBelow walks down from lo with doubling steps and bisects the first sign
// change it meets.
func rootBelow(f func(float64) float64, lo, step float64) (float64, bool) {
	a, fa := lo, f(lo)
	for i := 0; i < maxBelowExpansions; i++ {
		b := a - step
		fb := f(b)
		switch {
		case math.IsNaN(fb) || math.IsInf(fb, 0):
			return 0, false
		case fb == 0:
			return b, true
		case fa*fb < 0:
			return bisect(f, b, a, fb), true
		}
		a, fa = b, fb
		step *= 2
	}
	return 0, false
}

func bracketRoots(f func(float64) float64, lo, hi float64) []complex128 {
	if !(hi > lo) {
		return nil
	}

	var roots []complex128
	step := (hi - lo) / bracketSamples
	a, fa := lo, f(lo)
	if fa == 0 {
		roots = append(roots, complex(a, 0))
	}

	for i := 1; i <= bracketSamples; i++ {
		b := lo + float64(i)*step
		if i == bracketSamples {
			b = hi
		}
		fb := f(b)

		switch {
		case math.IsNaN(fa) || math.IsNaN(fb):
		case fb == 0:
			roots = append(roots, complex(b, 0))
		case fa*fb < 0:
			roots = append(roots, complex(bisect(f, a, b, fa), 0))
		}
		a, fa = b, fb
	}
	return roots
}

func bisect(f func(float64) float64, a, b, fa float64) float64 {
	for i := 0; i < bisectionIterations && b-a > bisectionTolerance; i++ {
		mid := 0.5 * (a + b)
		fm := f(mid)
		if fm == 0 {
			return mid
		}
		if fa*fm < 0 {
			b = mid
		} else {
			a, fa = mid, fm
		}
	}
	return 0.5 * (a + b)
}
