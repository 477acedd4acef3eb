package kkt

import (
	"fmt"
	"math"
)

// StorageValue parametrizes the marginal value of carryover storage,
//
//	f1(W1) = (1-w)·m/W_N·((W_N-W1)/W_N)^(m-1)
//
// where W_N is the normal storage volume, w the weight of flood control against
// water conservation and m the shape of the conservation loss.
type StorageValue struct {
	Capacity float64 // W_N
	Weight   float64 // w
	Shape    float64 // m
}

func (s StorageValue) Validate() error {
	if !(s.Capacity > 0) {
		return fmt.Errorf("%w: storage capacity must be positive, got %g", ErrInvalidReservoir, s.Capacity)
	}
	if s.Weight < 0 || s.Weight > 1 {
		return fmt.Errorf("%w: flood control weight %g outside [0, 1]", ErrInvalidReservoir, s.Weight)
	}
	if !(s.Shape > 0) {
		return fmt.Errorf("%w: shape must be positive, got %g", ErrInvalidReservoir, s.Shape)
	}
	return nil
}

func (s StorageValue) scale() float64 {
	return (1 - s.Weight) * s.Shape / s.Capacity
}

func (s StorageValue) exponent() float64 {
	return s.Shape - 1
}

// Marginal returns f1(W1). Hold back beyond the capacity is undefined for
// fractional exponents and yields NaN.
func (s StorageValue) Marginal(w1 float64) float64 {
	return s.scale() * math.Pow((s.Capacity-w1)/s.Capacity, s.exponent())
}

// HoldBackAt inverts the marginal value, returning W1 with f1(W1) = level.
func (s StorageValue) HoldBackAt(level float64) (float64, error) {
	if s.exponent() == 0 || s.scale() == 0 {
		return 0, ErrFlatStorageValue
	}
	ratio := level / s.scale()
	if !(ratio > 0) {
		return 0, &NoFeasibleRootError{Lower: math.Inf(-1), Upper: s.Capacity}
	}
	return s.Capacity * (1 - math.Pow(ratio, 1/s.exponent())), nil
}
