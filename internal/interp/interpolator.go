package interp

import (
	"errors"
	"math"
)

var (
	// ErrUnknownKind is returned for strategy names or values outside the set.
	ErrUnknownKind = errors.New("interp: unknown interpolator kind")
	// ErrInsufficientSamples is returned when a fit gets fewer samples than it needs.
	ErrInsufficientSamples = errors.New("interp: insufficient samples")
	// ErrIrregularSamples is returned when samples do not form the grid a kernel expects.
	ErrIrregularSamples = errors.New("interp: samples do not form a regular grid")
	// ErrSingular is returned when the sample positions do not determine the model.
	ErrSingular = errors.New("interp: singular sample configuration")
	// ErrNotFitted is returned by Eval before a successful Fit.
	ErrNotFitted = errors.New("interp: not fitted")
)

// Sample is one fitted point of a separable kernel: input position (X, Y)
// and the scalar output Value.
type Sample struct {
	X, Y  float64
	Value float64
}

// PairSample carries both output axes (U, V) for input position (X, Y).
type PairSample struct {
	X, Y float64
	U, V float64
}

// Interpolator is a separable kernel: it models one scalar output.
// Implementations cache the fitted model and are not safe for concurrent use.
type Interpolator interface {
	// Fit replaces the model with one fitted to samples.
	Fit(samples []Sample) error
	// Eval evaluates the fitted model at (x, y).
	Eval(x, y float64) (float64, error)
}

// PairInterpolator is a bundled kernel: one fit yields both output axes.
type PairInterpolator interface {
	Fit(samples []PairSample) error
	Eval(x, y float64) (u, v float64, err error)
}

var (
	_ Interpolator     = &Bilinear{}
	_ Interpolator     = &Plane{}
	_ Interpolator     = &Polynomial{}
	_ Interpolator     = &Spline{}
	_ PairInterpolator = &PairBilinear{}
)

// frame maps sample positions onto a centred unit-scale coordinate system so
// the polynomial solves stay well conditioned for projected (metre-scale)
// inputs.
type frame struct {
	cx, cy float64
	sx, sy float64
}

func newFrame(samples []Sample) frame {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		minX, maxX = math.Min(minX, s.X), math.Max(maxX, s.X)
		minY, maxY = math.Min(minY, s.Y), math.Max(maxY, s.Y)
	}
	f := frame{
		cx: (minX + maxX) / 2,
		cy: (minY + maxY) / 2,
		sx: (maxX - minX) / 2,
		sy: (maxY - minY) / 2,
	}
	if f.sx == 0 {
		f.sx = 1
	}
	if f.sy == 0 {
		f.sy = 1
	}
	return f
}

func (f frame) local(x, y float64) (float64, float64) {
	return (x - f.cx) / f.sx, (y - f.cy) / f.sy
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
