package mesh

import (
	"fmt"

	"github.com/banshee-data/pmesh/internal/interp"
	"github.com/banshee-data/pmesh/internal/projection"
)

const (
	// MinResolution is the smallest mesh dimension; requests below it are
	// raised to it.
	MinResolution = 3
	// MaxNodes caps width*height so a bad resolution cannot exhaust memory.
	MaxNodes = 1 << 24
)

// Engine samples a source-to-destination reprojection on a regular grid and
// answers point queries by interpolating the cached samples.
//
// An Engine is not safe for concurrent use. Callers serialise SetBounds,
// SetResolution, SetInterpolator and CalculateMesh against queries. Queries
// are not read-only either: ProjectPoint and ProjectPoints refit the
// engine's interpolators, so concurrent queries also need exclusive access.
type Engine struct {
	left, bottom, right, top  float64
	sourceWidth, sourceHeight float64
	horizSpacing, vertSpacing float64

	width, height int
	nodes         []Node

	kind interp.Kind
	pair interp.PairInterpolator
	ipX  interp.Interpolator
	ipY  interp.Interpolator

	// src and dst are private clones of the transforms of the last successful
	// build. They are nil whenever built is false.
	src, dst projection.Transform
	built    bool
}

// New returns an engine with no bounds, no grid and the bundled bilinear
// strategy selected.
func New() *Engine {
	e := &Engine{}
	// The default kind always constructs.
	_ = e.SetInterpolator(interp.BundledBilinear)
	return e
}

// SetBounds sets the source rectangle. Spacing is recomputed for any
// dimension whose resolution is already set. A built mesh is invalidated
// because its samples no longer match the rectangle.
func (e *Engine) SetBounds(left, bottom, right, top float64) {
	e.left, e.bottom, e.right, e.top = left, bottom, right, top
	e.sourceWidth = right - left
	e.sourceHeight = top - bottom
	e.updateSpacing()
	e.invalidate("bounds changed")
}

// SetResolution sets the number of grid nodes per axis, raising each to at
// least MinResolution, and reallocates the grid. Every node starts invalid.
// On failure the previous grid is kept.
func (e *Engine) SetResolution(width, height int) error {
	if width < MinResolution {
		width = MinResolution
	}
	if height < MinResolution {
		height = MinResolution
	}
	if int64(width)*int64(height) > MaxNodes {
		return newError(Allocation, "set resolution",
			fmt.Errorf("%dx%d exceeds %d nodes", width, height, MaxNodes))
	}

	e.width, e.height = width, height
	e.nodes = make([]Node, width*height)
	e.updateSpacing()
	e.invalidate("resolution changed")
	diagf("resolution set to %dx%d", width, height)
	return nil
}

func (e *Engine) updateSpacing() {
	if e.width != 0 {
		e.horizSpacing = e.sourceWidth / float64(e.width-1)
	}
	if e.height != 0 {
		e.vertSpacing = e.sourceHeight / float64(e.height-1)
	}
}

// SetInterpolator selects the strategy used by ProjectPoint. It does not
// require a rebuild.
func (e *Engine) SetInterpolator(k interp.Kind) error {
	if k.Bundled() {
		pair, err := interp.NewPair(k)
		if err != nil {
			return newError(Unknown, "set interpolator", err)
		}
		e.kind, e.pair, e.ipX, e.ipY = k, pair, nil, nil
		return nil
	}
	ipX, err := interp.New(k)
	if err != nil {
		return newError(Unknown, "set interpolator", err)
	}
	ipY, err := interp.New(k)
	if err != nil {
		return newError(Unknown, "set interpolator", err)
	}
	e.kind, e.pair, e.ipX, e.ipY = k, nil, ipX, ipY
	return nil
}

// Interpolator returns the selected strategy.
func (e *Engine) Interpolator() interp.Kind { return e.kind }

// Built reports whether the grid holds the samples of a successful build.
func (e *Engine) Built() bool { return e.built }

// Resolution returns the grid dimensions, or 0, 0 before SetResolution.
func (e *Engine) Resolution() (width, height int) { return e.width, e.height }

// Width is the number of grid columns.
func (e *Engine) Width() int { return e.width }

// Height is the number of grid rows.
func (e *Engine) Height() int { return e.height }

// SourceBounds returns the source rectangle as given to SetBounds.
func (e *Engine) SourceBounds() (left, bottom, right, top float64) {
	return e.left, e.bottom, e.right, e.top
}

// Spacing returns the source distance between adjacent columns and rows.
func (e *Engine) Spacing() (horiz, vert float64) {
	return e.horizSpacing, e.vertSpacing
}

// SourceCoordinate is the source position of node (col, row). Row 0 is the
// top edge. No range check is made.
func (e *Engine) SourceCoordinate(col, row int) (x, y float64) {
	return e.left + float64(col)*e.horizSpacing, e.top - float64(row)*e.vertSpacing
}

// ProjectedCoordinate returns the cached destination of node (col, row).
// valid is false for nodes that failed validation or were never built.
func (e *Engine) ProjectedCoordinate(col, row int) (x, y float64, valid bool, err error) {
	n, err := e.nodeAt("projected coordinate", col, row)
	if err != nil {
		return 0, 0, false, err
	}
	return n.X, n.Y, n.Valid, nil
}

// Node returns a copy of node (col, row).
func (e *Engine) Node(col, row int) (Node, error) {
	n, err := e.nodeAt("node", col, row)
	if err != nil {
		return Node{}, err
	}
	return *n, nil
}

// Nodes returns a copy of the grid in row-major order.
func (e *Engine) Nodes() []Node {
	out := make([]Node, len(e.nodes))
	copy(out, e.nodes)
	return out
}

// nodeAt addresses the grid. Both the per-axis ranges and the flat index are
// checked so a column overflow cannot alias into the next row.
func (e *Engine) nodeAt(op string, col, row int) (*Node, error) {
	if e.nodes == nil {
		return nil, newError(NotBuilt, op, fmt.Errorf("resolution not set"))
	}
	idx := row*e.width + col
	if col < 0 || col >= e.width || row < 0 || row >= e.height || idx < 0 || idx >= len(e.nodes) {
		return nil, newError(OutOfBounds, op, fmt.Errorf("node (%d, %d) outside %dx%d grid", col, row, e.width, e.height))
	}
	return &e.nodes[idx], nil
}

// invalidate drops a previous build: every node becomes invalid and the
// retained transforms are released.
func (e *Engine) invalidate(reason string) {
	if !e.built {
		return
	}
	clear(e.nodes)
	e.src, e.dst = nil, nil
	e.built = false
	diagf("mesh invalidated: %s", reason)
}
