package interp

import (
	"fmt"
	"sort"

	ginterp "gonum.org/v1/gonum/interp"
)

// Spline is the bicubic spline kernel. Samples must cover a full tensor grid
// (every combination of their distinct x and y positions, at least 2 of each).
// Fit builds one natural cubic spline per grid row; Eval evaluates the rows at
// x and runs a natural cubic spline through those results along y.
type Spline struct {
	xs, ys  []float64
	rows    []ginterp.NaturalCubic
	colVals []float64
	fitted  bool
}

// Fit implements Interpolator.
func (sp *Spline) Fit(samples []Sample) error {
	sp.fitted = false
	xs := distinct(samples, func(s Sample) float64 { return s.X })
	ys := distinct(samples, func(s Sample) float64 { return s.Y })
	if len(xs) < 2 || len(ys) < 2 {
		return fmt.Errorf("%w: spline needs at least 2x2 grid, got %dx%d", ErrInsufficientSamples, len(xs), len(ys))
	}
	if len(xs)*len(ys) != len(samples) {
		return fmt.Errorf("%w: %d samples over %dx%d positions", ErrIrregularSamples, len(samples), len(xs), len(ys))
	}

	grid := make([][]float64, len(ys))
	seen := make([][]bool, len(ys))
	for j := range grid {
		grid[j] = make([]float64, len(xs))
		seen[j] = make([]bool, len(xs))
	}
	for _, s := range samples {
		i := sort.SearchFloat64s(xs, s.X)
		j := sort.SearchFloat64s(ys, s.Y)
		if seen[j][i] {
			return fmt.Errorf("%w: duplicate sample at (%g, %g)", ErrIrregularSamples, s.X, s.Y)
		}
		seen[j][i] = true
		grid[j][i] = s.Value
	}

	rows := make([]ginterp.NaturalCubic, len(ys))
	for j := range rows {
		if err := rows[j].Fit(xs, grid[j]); err != nil {
			return fmt.Errorf("fit row %d: %w", j, err)
		}
	}

	sp.xs, sp.ys = xs, ys
	sp.rows = rows
	sp.colVals = make([]float64, len(ys))
	sp.fitted = true
	return nil
}

// Eval implements Interpolator.
func (sp *Spline) Eval(x, y float64) (float64, error) {
	if !sp.fitted {
		return 0, ErrNotFitted
	}
	for j := range sp.rows {
		sp.colVals[j] = sp.rows[j].Predict(x)
	}
	var col ginterp.NaturalCubic
	if err := col.Fit(sp.ys, sp.colVals); err != nil {
		return 0, fmt.Errorf("fit column: %w", err)
	}
	return col.Predict(y), nil
}

// distinct returns the sorted distinct values of key over samples.
func distinct(samples []Sample, key func(Sample) float64) []float64 {
	vals := make([]float64, 0, len(samples))
	for _, s := range samples {
		vals = append(vals, key(s))
	}
	sort.Float64s(vals)
	out := vals[:0]
	for i, v := range vals {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
