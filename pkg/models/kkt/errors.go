package kkt

import (
	"errors"
	"fmt"
)

var (
	ErrDegenerateFit      = errors.New("not enough points to fit the release density curve")
	ErrFlatStorageValue   = errors.New("storage marginal value does not depend on hold back")
	ErrInvalidReservoir   = errors.New("invalid reservoir configuration")
	ErrEigenDecomposition = errors.New("companion matrix eigen decomposition failed")
)

// NoFeasibleRootError is returned when the marginal value equation has no root
// that survives the complex and bounds filter and no bound can be clamped to.
type NoFeasibleRootError struct {
	Roots []complex128
	Lower float64
	Upper float64
}

func (e *NoFeasibleRootError) Error() string {
	return fmt.Sprintf("no feasible root among %d candidates within (%g, %g)", len(e.Roots), e.Lower, e.Upper)
}
