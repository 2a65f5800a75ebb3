package mesh

import (
	"fmt"
	"time"

	"github.com/banshee-data/pmesh/internal/projection"
)

// CalculateMesh samples every node through src.Forward then dst.Inverse, in
// row-major order, and validates the result. Private clones of both
// transforms are retained for ProjectedBoundingRect.
//
// If any node fails to transform the build is aborted with an Unknown error:
// the grid is left all-invalid, no transforms are retained and Built reports
// false.
func (e *Engine) CalculateMesh(src, dst projection.Transform) error {
	const op = "calculate mesh"
	if e.nodes == nil {
		return newError(NotBuilt, op, fmt.Errorf("resolution not set"))
	}
	if src == nil || dst == nil {
		return newError(Unknown, op, fmt.Errorf("nil transform"))
	}

	start := time.Now()
	srcClone, dstClone := src.Clone(), dst.Clone()
	e.invalidate("rebuild")

	for row := 0; row < e.height; row++ {
		for col := 0; col < e.width; col++ {
			x, y := e.SourceCoordinate(col, row)
			lat, lon, ok := srcClone.Forward(x, y)
			if !ok {
				return e.abortBuild(fmt.Errorf("%s forward failed at node (%d, %d) source (%g, %g)", srcClone.Name(), col, row, x, y))
			}
			px, py, ok := dstClone.Inverse(lat, lon)
			if !ok {
				return e.abortBuild(fmt.Errorf("%s inverse failed at node (%d, %d) geographic (%g, %g)", dstClone.Name(), col, row, lat, lon))
			}
			e.nodes[row*e.width+col] = Node{X: px, Y: py, Valid: true}
		}
	}

	e.validateNodes()
	e.src, e.dst = srcClone, dstClone
	e.built = true

	st := e.Stats()
	diagf("built %dx%d mesh %s -> %s with %s in %v: %d/%d nodes valid",
		e.width, e.height, srcClone.Name(), dstClone.Name(), e.kind, time.Since(start), st.Valid, st.Total)
	if st.Invalid > 0 {
		opsf("%d of %d nodes failed neighbour validation", st.Invalid, st.Total)
	}
	return nil
}

func (e *Engine) abortBuild(cause error) error {
	clear(e.nodes)
	e.src, e.dst = nil, nil
	e.built = false
	opsf("build aborted: %v", cause)
	return newError(Unknown, "calculate mesh", cause)
}

// validateNodes marks nodes invalid where the grid folds: a valid node must
// lie between its horizontal neighbours in x and between its vertical
// neighbours in y. At the edges the missing neighbour is the node itself.
//
// This is one forward pass in row-major order, not a fixed point. A node is
// judged against neighbours that may already have been invalidated earlier in
// the pass, and nodes already invalid are skipped.
func (e *Engine) validateNodes() {
	w, h := e.width, e.height
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			c := &e.nodes[row*w+col]
			if !c.Valid {
				continue
			}
			top, bottom := c, c
			if row > 0 {
				top = &e.nodes[(row-1)*w+col]
			}
			if row < h-1 {
				bottom = &e.nodes[(row+1)*w+col]
			}
			left, right := c, c
			if col > 0 {
				left = &e.nodes[row*w+col-1]
			}
			if col < w-1 {
				right = &e.nodes[row*w+col+1]
			}

			if (right.X-c.X)*(c.X-left.X) < 0 || (top.Y-c.Y)*(c.Y-bottom.Y) < 0 {
				c.Valid = false
			}
		}
	}
}

// Stats counts valid and invalid nodes.
func (e *Engine) Stats() Stats {
	s := Stats{Total: len(e.nodes)}
	for i := range e.nodes {
		if e.nodes[i].Valid {
			s.Valid++
		}
	}
	s.Invalid = s.Total - s.Valid
	return s
}
