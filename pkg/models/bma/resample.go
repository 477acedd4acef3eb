package bma

// Resample turns a probability mass grid into a density grid. Each point owns
// half of the gap to each neighbour, end points only the inner half. The
// cumulative column is recomputed from density times width.
func Resample(g Grid) Grid {
	n := len(g)
	out := make(Grid, n)

	var cdf float64
	for i, row := range g {
		var forward, backward float64
		if i+1 < n {
			forward = g[i+1].Value - row.Value
		}
		if i > 0 {
			backward = row.Value - g[i-1].Value
		}
		row.Width = 0.5 * (forward + backward)

		if row.Width > 0 {
			row.Density = row.Mass / row.Width
			cdf += row.Density * row.Width
		} else {
			row.Density = 0
			cdf += row.Mass
		}
		row.Cumulative = cdf
		out[i] = row
	}
	return out
}
