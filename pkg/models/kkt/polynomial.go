package kkt

import (
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"
)

const newtonPolishIterations = 8

// Polynomial holds coefficients in ascending powers, p[0] + p[1]·x + p[2]·x² ...
type Polynomial []float64

func (p Polynomial) Degree() int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] != 0 {
			return i
		}
	}
	return -1
}

func (p Polynomial) At(x float64) float64 {
	var y float64
	for i := len(p) - 1; i >= 0; i-- {
		y = y*x + p[i]
	}
	return y
}

func (p Polynomial) AtComplex(z complex128) complex128 {
	var y complex128
	for i := len(p) - 1; i >= 0; i-- {
		y = y*z + complex(p[i], 0)
	}
	return y
}

func (p Polynomial) Derivative() Polynomial {
	if len(p) < 2 {
		return Polynomial{0}
	}
	d := make(Polynomial, len(p)-1)
	for i := 1; i < len(p); i++ {
		d[i-1] = float64(i) * p[i]
	}
	return d
}

func (p Polynomial) Scale(s float64) Polynomial {
	out := make(Polynomial, len(p))
	for i, c := range p {
		out[i] = c * s
	}
	return out
}

func (p Polynomial) Sub(q Polynomial) Polynomial {
	n := max(len(p), len(q))
	out := make(Polynomial, n)
	copy(out, p)
	for i, c := range q {
		out[i] -= c
	}
	return out
}

// Roots returns every complex root sorted by real part, then imaginary part.
// They are the eigenvalues of the companion matrix, refined by a few Newton
// steps. Constant polynomials have no roots.
func (p Polynomial) Roots() ([]complex128, error) {
	n := p.Degree()
	if n < 1 {
		return nil, nil
	}

	lead := p[n]
	companion := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		if i > 0 {
			companion.Set(i, i-1, 1)
		}
		companion.Set(i, n-1, -p[i]/lead)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil, ErrEigenDecomposition
	}
	roots := eig.Values(nil)

	derivative := p[:n+1].Derivative()
	for i, z := range roots {
		roots[i] = polish(p, derivative, z)
	}

	sortRoots(roots)
	return roots, nil
}

func polish(p, derivative Polynomial, z complex128) complex128 {
	best, bestResidual := z, cmplx.Abs(p.AtComplex(z))
	for i := 0; i < newtonPolishIterations && bestResidual > 0; i++ {
		d := derivative.AtComplex(z)
		if d == 0 {
			break
		}
		z -= p.AtComplex(z) / d
		if r := cmplx.Abs(p.AtComplex(z)); r < bestResidual {
			best, bestResidual = z, r
		}
	}
	return best
}

func sortRoots(roots []complex128) {
	sort.Slice(roots, func(i, j int) bool {
		if real(roots[i]) != real(roots[j]) {
			return real(roots[i]) < real(roots[j])
		}
		return imag(roots[i]) < imag(roots[j])
	})
}
