package mesh

import (
	"fmt"
	"math"

	"github.com/banshee-data/pmesh/internal/interp"
)

// gridSample is a node in a gathered neighbourhood: its source position and
// cached destination.
type gridSample struct {
	sx, sy float64
	dx, dy float64
}

// cell is the localisation of a query point: the grid cell containing it
// and the columns and rows of its four corners. On the last column or row the
// far corner collapses onto the near one, which also covers the one-spacing
// band past the right and bottom edges.
type cell struct {
	leftCol, rightCol int
	topRow, bottomRow int
}

// edgeTolerance absorbs rounding in the division when a point sits exactly
// on the mesh border. It is measured in cells.
const edgeTolerance = 1e-9

// locate finds the cell containing source point (x, y). Points left of or
// above the mesh are rejected, as are points whose column or row index
// reaches width or height.
func (e *Engine) locate(x, y float64) (cell, bool) {
	fc, ok := snapToGrid((x-e.left)/e.horizSpacing, e.width-1)
	if !ok {
		return cell{}, false
	}
	fr, ok := snapToGrid((e.top-y)/e.vertSpacing, e.height-1)
	if !ok {
		return cell{}, false
	}

	c := cell{leftCol: int(math.Floor(fc)), topRow: int(math.Floor(fr))}
	c.rightCol, c.bottomRow = c.leftCol+1, c.topRow+1
	if c.rightCol == e.width {
		c.rightCol = c.leftCol
	}
	if c.bottomRow == e.height {
		c.bottomRow = c.topRow
	}
	return c, true
}

// snapToGrid range-checks a fractional grid index against [0, last+1) and
// pulls values within edgeTolerance below zero onto it.
func snapToGrid(f float64, last int) (float64, bool) {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, false
	case f < -edgeTolerance || f >= float64(last+1):
		return 0, false
	case f < 0:
		return 0, true
	}
	return f, true
}

// ProjectPoint maps source point (x, y) into the destination system using
// the cached grid and the selected strategy. ok is false when the point lies
// outside the mesh, when any node the strategy needs is invalid, or when the
// kernel cannot fit or evaluate. Such misses are not errors.
//
// ProjectPoint refits the engine's interpolator instances on every call, so
// it writes to the engine. Concurrent callers need an exclusive lock; a
// read lock is not enough.
func (e *Engine) ProjectPoint(x, y float64) (px, py float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			tracef("project (%g, %g): recovered: %v", x, y, r)
			px, py, ok = 0, 0, false
		}
	}()

	if !e.built {
		return 0, 0, false
	}
	c, in := e.locate(x, y)
	if !in {
		tracef("project (%g, %g): outside mesh", x, y)
		return 0, 0, false
	}

	ul, ur := &e.nodes[c.topRow*e.width+c.leftCol], &e.nodes[c.topRow*e.width+c.rightCol]
	ll, lr := &e.nodes[c.bottomRow*e.width+c.leftCol], &e.nodes[c.bottomRow*e.width+c.rightCol]
	if !ul.Valid || !ur.Valid || !ll.Valid || !lr.Valid {
		tracef("project (%g, %g): invalid corner in cell (%d, %d)", x, y, c.leftCol, c.topRow)
		return 0, 0, false
	}

	// Corner sample positions use the full spacing even where the far corner
	// collapsed, so the cell never degenerates.
	x0, y0 := e.SourceCoordinate(c.leftCol, c.topRow)
	x1, y1 := x0+e.horizSpacing, y0-e.vertSpacing

	var err error
	if e.kind.Bundled() {
		px, py, err = e.projectBundled(x, y, []interp.PairSample{
			{X: x0, Y: y0, U: ul.X, V: ul.Y},
			{X: x1, Y: y0, U: ur.X, V: ur.Y},
			{X: x1, Y: y1, U: lr.X, V: lr.Y},
			{X: x0, Y: y1, U: ll.X, V: ll.Y},
		})
	} else {
		var block []gridSample
		if n := e.kind.NeighborhoodSize(); n == 2 {
			block = []gridSample{
				{x0, y0, ul.X, ul.Y},
				{x1, y0, ur.X, ur.Y},
				{x0, y1, ll.X, ll.Y},
				{x1, y1, lr.X, lr.Y},
			}
		} else {
			block, err = e.gatherGrid(c.leftCol, c.topRow, n)
		}
		if err == nil {
			px, py, err = e.projectSeparable(x, y, block)
		}
	}
	if err != nil {
		tracef("project (%g, %g) with %s: %v", x, y, e.kind, err)
		return 0, 0, false
	}
	if math.IsNaN(px) || math.IsNaN(py) || math.IsInf(px, 0) || math.IsInf(py, 0) {
		return 0, 0, false
	}
	return px, py, true
}

func (e *Engine) projectBundled(x, y float64, samples []interp.PairSample) (float64, float64, error) {
	if err := e.pair.Fit(samples); err != nil {
		return 0, 0, err
	}
	return e.pair.Eval(x, y)
}

// projectSeparable fits the first kernel to destination x and the second,
// independently, to destination y over the same source positions.
func (e *Engine) projectSeparable(x, y float64, block []gridSample) (float64, float64, error) {
	samples := make([]interp.Sample, len(block))
	for i, g := range block {
		samples[i] = interp.Sample{X: g.sx, Y: g.sy, Value: g.dx}
	}
	if err := e.ipX.Fit(samples); err != nil {
		return 0, 0, fmt.Errorf("fit x: %w", err)
	}
	px, err := e.ipX.Eval(x, y)
	if err != nil {
		return 0, 0, fmt.Errorf("eval x: %w", err)
	}

	for i, g := range block {
		samples[i].Value = g.dy
	}
	if err := e.ipY.Fit(samples); err != nil {
		return 0, 0, fmt.Errorf("fit y: %w", err)
	}
	py, err := e.ipY.Eval(x, y)
	if err != nil {
		return 0, 0, fmt.Errorf("eval y: %w", err)
	}
	return px, py, nil
}

// gatherGrid collects the n x n block of nodes around cell (col, row) in
// row-major order. The block origin is the first row (column) r in
// [0, height-n] with r+n-1 > row, falling back to height-n, so the block
// always contains the cell and, where it exists, the row below it.
//
// Every node in the block must be valid.
func (e *Engine) gatherGrid(col, row, n int) ([]gridSample, error) {
	if n > e.height || n > e.width {
		return nil, newError(Unknown, "gather grid", fmt.Errorf("%dx%d neighbourhood exceeds %dx%d mesh", n, n, e.width, e.height))
	}
	gr := blockOrigin(row, n, e.height)
	gc := blockOrigin(col, n, e.width)

	out := make([]gridSample, 0, n*n)
	for r := gr; r < gr+n; r++ {
		for c := gc; c < gc+n; c++ {
			node, err := e.nodeAt("gather grid", c, r)
			if err != nil {
				return nil, err
			}
			if !node.Valid {
				return nil, fmt.Errorf("invalid node (%d, %d) in neighbourhood", c, r)
			}
			sx, sy := e.SourceCoordinate(c, r)
			out = append(out, gridSample{sx: sx, sy: sy, dx: node.X, dy: node.Y})
		}
	}
	return out, nil
}

func blockOrigin(target, n, size int) int {
	for r := 0; r <= size-n; r++ {
		if r+n-1 > target {
			return r
		}
	}
	return size - n
}

// ProjectPoints runs ProjectPoint over paired slices. ok[i] reports whether
// point i projected; failed entries hold NaN.
func (e *Engine) ProjectPoints(xs, ys []float64) (px, py []float64, ok []bool, err error) {
	if len(xs) != len(ys) {
		return nil, nil, nil, fmt.Errorf("project points: %d x values but %d y values", len(xs), len(ys))
	}
	px = make([]float64, len(xs))
	py = make([]float64, len(xs))
	ok = make([]bool, len(xs))
	misses := 0
	for i := range xs {
		px[i], py[i], ok[i] = e.ProjectPoint(xs[i], ys[i])
		if !ok[i] {
			px[i], py[i] = math.NaN(), math.NaN()
			misses++
		}
	}
	if misses > 0 {
		diagf("projected %d points, %d missed", len(xs), misses)
	}
	return px, py, ok, nil
}
