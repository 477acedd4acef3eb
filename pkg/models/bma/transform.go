package bma

import "math"

// Forward applies the Box-Cox power transform (x^λ - 1)/λ. Lambda equal to zero
// falls back to the logarithmic limit of the family.
func Forward(x, lambda float64) (float64, error) {
	if lambda == 0 {
		if x <= 0 {
			return 0, &DomainError{Value: x, Lambda: lambda}
		}
		return math.Log(x), nil
	}
	if x <= 0 && !isInteger(lambda) {
		return 0, &DomainError{Value: x, Lambda: lambda}
	}
	y := (math.Pow(x, lambda) - 1) / lambda
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, &DomainError{Value: x, Lambda: lambda}
	}
	return y, nil
}

// Inverse restores a transformed value back to physical units, (yλ + 1)^(1/λ).
func Inverse(y, lambda float64) (float64, error) {
	if lambda == 0 {
		return math.Exp(y), nil
	}

	base := y*lambda + 1
	exponent := 1 / lambda

	// Negative bases only keep the grid ordered under odd positive powers.
	if base < 0 && !isOddPositive(exponent) {
		return 0, &DomainError{Value: y, Lambda: lambda}
	}
	if base == 0 && exponent < 0 {
		return 0, &DomainError{Value: y, Lambda: lambda}
	}
	return math.Pow(base, exponent), nil
}

// ForwardAll transforms every ensemble member, failing on the first member
// outside the transform domain.
func ForwardAll(values []float64, lambda float64) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		t, err := Forward(v, lambda)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func isInteger(v float64) bool {
	return v == math.Trunc(v) && !math.IsInf(v, 0)
}

func isOddPositive(v float64) bool {
	return v > 0 && isInteger(v) && math.Mod(v, 2) == 1
}
