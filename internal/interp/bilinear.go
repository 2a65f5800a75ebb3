package interp

import "fmt"

// rect is an axis-aligned cell with its corner outputs. Corner [i][j] sits at
// (x[i], y[j]) with x[0] < x[1] and y[0] < y[1].
type rect struct {
	x, y [2]float64
	u, v [2][2]float64
}

// newRect places four samples on the corners of their bounding rectangle.
// Sample order does not matter, but every corner must be present exactly once.
func newRect(samples []PairSample) (rect, error) {
	var r rect
	if len(samples) != 4 {
		return r, fmt.Errorf("%w: bilinear needs 4 samples, got %d", ErrInsufficientSamples, len(samples))
	}
	r.x = [2]float64{samples[0].X, samples[0].X}
	r.y = [2]float64{samples[0].Y, samples[0].Y}
	for _, s := range samples[1:] {
		if s.X < r.x[0] {
			r.x[0] = s.X
		}
		if s.X > r.x[1] {
			r.x[1] = s.X
		}
		if s.Y < r.y[0] {
			r.y[0] = s.Y
		}
		if s.Y > r.y[1] {
			r.y[1] = s.Y
		}
	}
	if r.x[0] == r.x[1] || r.y[0] == r.y[1] {
		return r, fmt.Errorf("%w: zero-area cell", ErrSingular)
	}

	var seen [2][2]bool
	for _, s := range samples {
		i, ok := corner(s.X, r.x)
		j, ok2 := corner(s.Y, r.y)
		if !ok || !ok2 || seen[i][j] {
			return r, fmt.Errorf("%w: sample (%g, %g) is not a free corner", ErrIrregularSamples, s.X, s.Y)
		}
		seen[i][j] = true
		r.u[i][j] = s.U
		r.v[i][j] = s.V
	}
	return r, nil
}

func corner(c float64, edges [2]float64) (int, bool) {
	switch c {
	case edges[0]:
		return 0, true
	case edges[1]:
		return 1, true
	}
	return 0, false
}

// weights returns the bilinear blend factors of (x, y) within the cell. The
// factors are exactly 0 or 1 on the corners.
func (r rect) weights(x, y float64) (tx, ty float64) {
	tx = (x - r.x[0]) / (r.x[1] - r.x[0])
	ty = (y - r.y[0]) / (r.y[1] - r.y[0])
	return tx, ty
}

func blend(c [2][2]float64, tx, ty float64) float64 {
	return c[0][0]*(1-tx)*(1-ty) +
		c[1][0]*tx*(1-ty) +
		c[0][1]*(1-tx)*ty +
		c[1][1]*tx*ty
}

// Bilinear is the separable bilinear kernel. It needs the four corners of an
// axis-aligned cell.
type Bilinear struct {
	cell   rect
	fitted bool
}

// Fit implements Interpolator.
func (b *Bilinear) Fit(samples []Sample) error {
	b.fitted = false
	pairs := make([]PairSample, len(samples))
	for i, s := range samples {
		pairs[i] = PairSample{X: s.X, Y: s.Y, U: s.Value}
	}
	cell, err := newRect(pairs)
	if err != nil {
		return err
	}
	b.cell = cell
	b.fitted = true
	return nil
}

// Eval implements Interpolator.
func (b *Bilinear) Eval(x, y float64) (float64, error) {
	if !b.fitted {
		return 0, ErrNotFitted
	}
	tx, ty := b.cell.weights(x, y)
	return blend(b.cell.u, tx, ty), nil
}

// PairBilinear is the bundled bilinear kernel: one blend of the four corners
// produces both outputs, so a query landing on a corner reproduces that
// corner's outputs exactly.
type PairBilinear struct {
	cell   rect
	fitted bool
}

// Fit implements PairInterpolator.
func (p *PairBilinear) Fit(samples []PairSample) error {
	p.fitted = false
	cell, err := newRect(samples)
	if err != nil {
		return err
	}
	p.cell = cell
	p.fitted = true
	return nil
}

// Eval implements PairInterpolator.
func (p *PairBilinear) Eval(x, y float64) (float64, float64, error) {
	if !p.fitted {
		return 0, 0, ErrNotFitted
	}
	tx, ty := p.cell.weights(x, y)
	return blend(p.cell.u, tx, ty), blend(p.cell.v, tx, ty), nil
}
