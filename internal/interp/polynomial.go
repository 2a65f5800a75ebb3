package interp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Polynomial fits the tensor-product polynomial
//
//	z = sum_{i,j <= degree} c_ij * x^i * y^j
//
// Degree 1 (four terms, a + bx + cy + dxy) is the bi-polynomial kernel over
// the cell corners; degree 3 (sixteen terms) is the bicubic kernel over a 4x4
// neighbourhood. With exactly (degree+1)^2 samples the surface passes through
// every sample; with more it is a least-squares fit.
type Polynomial struct {
	degree int
	f      frame
	coef   []float64
	fitted bool
}

// NewPolynomial returns an unfitted kernel of the given degree per axis.
func NewPolynomial(degree int) *Polynomial {
	if degree < 1 {
		degree = 1
	}
	return &Polynomial{degree: degree}
}

// Degree is the per-axis polynomial degree.
func (p *Polynomial) Degree() int { return p.degree }

func (p *Polynomial) terms() int {
	return (p.degree + 1) * (p.degree + 1)
}

// basis writes the monomials u^i v^j (row-major in i, then j) into out.
func (p *Polynomial) basis(u, v float64, out []float64) {
	k := 0
	ui := 1.0
	for i := 0; i <= p.degree; i++ {
		vj := 1.0
		for j := 0; j <= p.degree; j++ {
			out[k] = ui * vj
			k++
			vj *= v
		}
		ui *= u
	}
}

// Fit implements Interpolator.
func (p *Polynomial) Fit(samples []Sample) error {
	p.fitted = false
	n, m := len(samples), p.terms()
	if n < m {
		return fmt.Errorf("%w: degree %d needs %d samples, got %d", ErrInsufficientSamples, p.degree, m, n)
	}

	p.f = newFrame(samples)
	a := mat.NewDense(n, m, nil)
	z := mat.NewVecDense(n, nil)
	row := make([]float64, m)
	for i, s := range samples {
		u, v := p.f.local(s.X, s.Y)
		p.basis(u, v, row)
		a.SetRow(i, row)
		z.SetVec(i, s.Value)
	}

	var coef mat.VecDense
	if err := coef.SolveVec(a, z); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	p.coef = make([]float64, m)
	for i := range p.coef {
		p.coef[i] = coef.AtVec(i)
	}
	if !finite(p.coef...) {
		return ErrSingular
	}
	p.fitted = true
	return nil
}

// Eval implements Interpolator.
func (p *Polynomial) Eval(x, y float64) (float64, error) {
	if !p.fitted {
		return 0, ErrNotFitted
	}
	u, v := p.f.local(x, y)
	row := make([]float64, len(p.coef))
	p.basis(u, v, row)
	return mat.Dot(mat.NewVecDense(len(row), row), mat.NewVecDense(len(p.coef), p.coef)), nil
}
