package bma

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyEnsemble     = errors.New("ensemble forecast is empty")
	ErrInvalidParameters = errors.New("invalid bma parameters")
	ErrEmptyGrid         = errors.New("probability grid is empty")
	ErrUnorderedGrid     = errors.New("grid column is not ordered")
	ErrNonFiniteMember   = errors.New("transformed ensemble member is not finite")
)

// DomainError is returned when the power transform has no finite result, a
// non-positive base under a non-integer exponent, zero under a negative one or
// an overflow.
type DomainError struct {
	Value  float64
	Lambda float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("power transform undefined for value %g with lambda %g", e.Value, e.Lambda)
}

// InterpolationRangeError reports a query that fell outside the covered range
// of a grid column. The interpolated result is still usable, it was clamped to
// the nearest end of the grid.
type InterpolationRangeError struct {
	Query float64
	Min   float64
	Max   float64
}

func (e *InterpolationRangeError) Error() string {
	return fmt.Sprintf("query %g outside grid range [%g, %g], clamped", e.Query, e.Min, e.Max)
}

// IsRangeOnly reports whether err is nil or only signals a clamped interpolation.
func IsRangeOnly(err error) bool {
	if err == nil {
		return true
	}
	var rangeErr *InterpolationRangeError
	return errors.As(err, &rangeErr)
}
