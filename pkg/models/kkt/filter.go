package kkt

import "math"

const (
	imaginaryTolerance = 1e-6

	// Slack added to the upper hold back bound for approximation errors of the
	// fitted density curve.
	upperBoundSlack = 5.0
)

// Bounds is the open interval of admissible hold back values.
type Bounds struct {
	Lower float64
	Upper float64
}

// HoldBackBounds spans from the hold back that meets the 99.5th percentile
// inflow up to the one that meets the acceptable-risk inflow.
func HoldBackBounds(ceiling, expected, deltaMin, q995 float64) Bounds {
	return Bounds{
		Lower: ceiling - q995,
		Upper: ceiling - (expected + deltaMin) + upperBoundSlack,
	}
}

// FilterRoots picks the admissible real root. Roots are ordered by real part
// first, the largest root that is numerically real and strictly inside the
// bounds wins. Without one, a root set lying entirely below the lower bound
// clamps to it and a root set lying entirely above it clamps to the upper
// bound.
func FilterRoots(roots []complex128, b Bounds) (float64, error) {
	if len(roots) == 0 {
		return 0, &NoFeasibleRootError{Lower: b.Lower, Upper: b.Upper}
	}

	sorted := make([]complex128, len(roots))
	copy(sorted, roots)
	sortRoots(sorted)

	chosen, found := 0.0, false
	for _, z := range sorted {
		if math.Abs(imag(z)) >= imaginaryTolerance {
			continue
		}
		if re := real(z); re > b.Lower && re < b.Upper {
			chosen, found = re, true
		}
	}
	if found {
		return chosen, nil
	}

	if real(sorted[len(sorted)-1]) < b.Lower {
		return b.Lower, nil
	}
	if real(sorted[0]) > b.Lower {
		return b.Upper, nil
	}
	return 0, &NoFeasibleRootError{Roots: sorted, Lower: b.Lower, Upper: b.Upper}
}
