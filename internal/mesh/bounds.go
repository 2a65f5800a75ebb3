package mesh

import (
	"fmt"

	"github.com/paulmach/orb"
)

// ProjectedBoundingRect returns the destination extent of every grid node.
// Valid nodes use the cached sample; invalid ones are recomputed through the
// transforms retained by the last build. A transform failure on that slow
// path is an Unknown error.
func (e *Engine) ProjectedBoundingRect() (orb.Bound, error) {
	const op = "projected bounding rect"
	if e.nodes == nil || !e.built {
		return orb.Bound{}, newError(NotBuilt, op, fmt.Errorf("mesh has not been calculated"))
	}

	var (
		b     orb.Bound
		first = true
		slow  int
	)
	for row := 0; row < e.height; row++ {
		for col := 0; col < e.width; col++ {
			n := e.nodes[row*e.width+col]
			p := orb.Point{n.X, n.Y}
			if !n.Valid {
				x, y := e.SourceCoordinate(col, row)
				lat, lon, ok := e.src.Forward(x, y)
				if !ok {
					return orb.Bound{}, newError(Unknown, op, fmt.Errorf("%s forward failed at node (%d, %d)", e.src.Name(), col, row))
				}
				px, py, ok := e.dst.Inverse(lat, lon)
				if !ok {
					return orb.Bound{}, newError(Unknown, op, fmt.Errorf("%s inverse failed at node (%d, %d)", e.dst.Name(), col, row))
				}
				p = orb.Point{px, py}
				slow++
			}
			if first {
				b = orb.Bound{Min: p, Max: p}
				first = false
				continue
			}
			b = b.Extend(p)
		}
	}
	if slow > 0 {
		diagf("bounding rect recomputed %d invalid nodes through the transforms", slow)
	}
	return b, nil
}
