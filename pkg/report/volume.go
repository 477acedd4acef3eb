package report

import (
	"database/sql/driver"
	"fmt"
	"math"

	"github.com/govalues/decimal"
)

// Volume is a water volume rounded to a fixed number of decimal places.
type Volume struct {
	v decimal.Decimal
}

// NewVolume rounds x half to even and pads it to the given scale. Non-finite values are
// rejected since they cannot be stored.
func NewVolume(x float64, scale int) (Volume, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Volume{}, fmt.Errorf("volume %g is not finite", x)
	}
	d, err := decimal.NewFromFloat64(x)
	if err != nil {
		return Volume{}, fmt.Errorf("volume %g: %w", x, err)
	}
	return Volume{d.Rescale(scale)}, nil
}

func MustVolume(x float64, scale int) Volume {
	v, err := NewVolume(x, scale)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Volume) String() string { return v.v.String() }
func (v Volume) Scale() int     { return v.v.Scale() }

func (v Volume) Add(o Volume) (Volume, error) {
	d, err := v.v.Add(o.v)
	if err != nil {
		return Volume{}, err
	}
	return Volume{d}, nil
}

// Value stores the volume as its decimal text so DECIMAL columns keep every digit.
func (v Volume) Value() (driver.Value, error) {
	return v.String(), nil
}
