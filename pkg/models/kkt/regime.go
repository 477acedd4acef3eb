package kkt

import "fmt"

type Regime int

const (
	RegimeUnknown Regime = iota
	Regime11
	Regime12
	Regime13
	Regime21
	Regime22
	Regime23
	Regime24
	Regime31
	Regime32
	Regime33
)

// Regimes lists every classification label in order.
var Regimes = []Regime{
	Regime11, Regime12, Regime13,
	Regime21, Regime22, Regime23, Regime24,
	Regime31, Regime32, Regime33,
}

var regimeLabels = map[Regime]string{
	Regime11: "1.1",
	Regime12: "1.2",
	Regime13: "1.3",
	Regime21: "2.1",
	Regime22: "2.2",
	Regime23: "2.3",
	Regime24: "2.4",
	Regime31: "3.1",
	Regime32: "3.2",
	Regime33: "3.3",
}

func (r Regime) String() string {
	if label, ok := regimeLabels[r]; ok {
		return label
	}
	return "unknown"
}

// Family is the dominance family: 1 when flood risk outweighs storage value
// everywhere, 2 for mixed dominance, 3 when storage value dominates.
func (r Regime) Family() int {
	switch r {
	case Regime11, Regime12, Regime13:
		return 1
	case Regime21, Regime22, Regime23, Regime24:
		return 2
	case Regime31, Regime32, Regime33:
		return 3
	default:
		return 0
	}
}

func (r Regime) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func ParseRegime(label string) (Regime, error) {
	for r, l := range regimeLabels {
		if l == label {
			return r, nil
		}
	}
	return RegimeUnknown, fmt.Errorf("unknown regime label %q", label)
}
