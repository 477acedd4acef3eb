package bma

// Row is one point of a probability grid. Mass is the probability carried by
// the point, Density the same probability per unit value once Width is known.
type Row struct {
	Value      float64
	Mass       float64
	Width      float64
	Density    float64
	Cumulative float64
}

// Grid is ordered by ascending Value. Every operation returns a new grid.
type Grid []Row

func (g Grid) Values() []float64 {
	out := make([]float64, len(g))
	for i := range g {
		out[i] = g[i].Value
	}
	return out
}

func (g Grid) Masses() []float64 {
	out := make([]float64, len(g))
	for i := range g {
		out[i] = g[i].Mass
	}
	return out
}

func (g Grid) Densities() []float64 {
	out := make([]float64, len(g))
	for i := range g {
		out[i] = g[i].Density
	}
	return out
}

func (g Grid) Cumulatives() []float64 {
	out := make([]float64, len(g))
	for i := range g {
		out[i] = g[i].Cumulative
	}
	return out
}

// TotalMass is the sum of the mass column.
func (g Grid) TotalMass() float64 {
	var sum float64
	for i := range g {
		sum += g[i].Mass
	}
	return sum
}

// Expectation is the probability weighted mean of the grid values. The mass is
// not renormalized, truncated tails lower the result accordingly.
func (g Grid) Expectation() float64 {
	var sum float64
	for i := range g {
		sum += g[i].Value * g[i].Mass
	}
	return sum
}

// Accumulate fills the cumulative column with the running sum of the mass.
func (g Grid) Accumulate() Grid {
	out := make(Grid, len(g))
	var cdf float64
	for i, row := range g {
		cdf += row.Mass
		row.Cumulative = cdf
		out[i] = row
	}
	return out
}

// TruncateAbove keeps the rows whose value does not exceed limit.
func (g Grid) TruncateAbove(limit float64) Grid {
	out := make(Grid, 0, len(g))
	for _, row := range g {
		if row.Value <= limit {
			out = append(out, row)
		}
	}
	return out
}

// Restore maps the value column back through the inverse transform. Points the
// inverse is undefined for are dropped together with their mass, the number of
// dropped points is returned.
func (g Grid) Restore(lambda float64) (Grid, int) {
	out := make(Grid, 0, len(g))
	dropped := 0
	for _, row := range g {
		v, err := Inverse(row.Value, lambda)
		if err != nil {
			dropped++
			continue
		}
		row.Value = v
		out = append(out, row)
	}
	return out, dropped
}
