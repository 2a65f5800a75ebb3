package interp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Plane fits z = a + b*x + c*y by least squares. With four cell corners the
// plane generally does not pass through every sample; it trades corner
// exactness for a smooth, non-oscillating surface.
type Plane struct {
	f      frame
	coef   [3]float64
	fitted bool
}

// Fit implements Interpolator.
func (p *Plane) Fit(samples []Sample) error {
	p.fitted = false
	n := len(samples)
	if n < 3 {
		return fmt.Errorf("%w: plane needs at least 3 samples, got %d", ErrInsufficientSamples, n)
	}

	p.f = newFrame(samples)
	a := mat.NewDense(n, 3, nil)
	z := mat.NewVecDense(n, nil)
	for i, s := range samples {
		u, v := p.f.local(s.X, s.Y)
		a.Set(i, 0, 1)
		a.Set(i, 1, u)
		a.Set(i, 2, v)
		z.SetVec(i, s.Value)
	}

	var coef mat.VecDense
	if err := coef.SolveVec(a, z); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	for i := range p.coef {
		p.coef[i] = coef.AtVec(i)
	}
	if !finite(p.coef[:]...) {
		return ErrSingular
	}
	p.fitted = true
	return nil
}

// Eval implements Interpolator.
func (p *Plane) Eval(x, y float64) (float64, error) {
	if !p.fitted {
		return 0, ErrNotFitted
	}
	u, v := p.f.local(x, y)
	return p.coef[0] + p.coef[1]*u + p.coef[2]*v, nil
}
