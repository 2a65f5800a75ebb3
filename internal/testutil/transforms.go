package testutil

import (
	"sync/atomic"

	"github.com/banshee-data/pmesh/internal/projection"
)

// FailAt wraps inner so Forward fails for source point (x, y) exactly.
func FailAt(inner projection.Transform, x, y float64) projection.Transform {
	return FailWhen(inner, func(px, py float64) bool { return px == x && py == y })
}

// FailWhen wraps inner so Forward fails wherever pred reports true.
func FailWhen(inner projection.Transform, pred func(x, y float64) bool) projection.Transform {
	return &projection.Func{
		Label: inner.Name() + "+fail",
		ForwardFunc: func(x, y float64) (float64, float64, bool) {
			if pred(x, y) {
				return 0, 0, false
			}
			return inner.Forward(x, y)
		},
		InverseFunc: inner.Inverse,
	}
}

// Affine is a destination transform whose Inverse is the affine map
//
//	x = A*lon + B*lat + C
//	y = D*lon + E*lat + F
//
// Paired with an identity source, every mesh node is an affine image of its
// source position, which every interpolation strategy reproduces exactly.
type Affine struct {
	A, B, C float64
	D, E, F float64
}

func (a Affine) Forward(x, y float64) (float64, float64, bool) {
	det := a.A*a.E - a.B*a.D
	if det == 0 {
		return 0, 0, false
	}
	x, y = x-a.C, y-a.F
	lon := (a.E*x - a.B*y) / det
	lat := (a.A*y - a.D*x) / det
	return lat, lon, true
}

func (a Affine) Inverse(lat, lon float64) (float64, float64, bool) {
	return a.A*lon + a.B*lat + a.C, a.D*lon + a.E*lat + a.F, true
}

func (a Affine) Clone() projection.Transform { return a }

func (a Affine) Name() string { return "affine" }

// Apply maps a source point the way an identity source followed by a would.
func (a Affine) Apply(x, y float64) (float64, float64) {
	px, py, _ := a.Inverse(y, x)
	return px, py
}

// Planted is a destination transform that returns fixed planar values for
// chosen geographic inputs and defers to Inner otherwise. Keys are
// {lon, lat}; with an identity source that is the node's source {x, y}.
type Planted struct {
	Inner projection.Transform
	Nodes map[[2]float64][2]float64
}

func (p *Planted) Forward(x, y float64) (float64, float64, bool) {
	return p.Inner.Forward(x, y)
}

func (p *Planted) Inverse(lat, lon float64) (float64, float64, bool) {
	if v, ok := p.Nodes[[2]float64{lon, lat}]; ok {
		return v[0], v[1], true
	}
	return p.Inner.Inverse(lat, lon)
}

func (p *Planted) Clone() projection.Transform {
	c := &Planted{Inner: p.Inner.Clone(), Nodes: make(map[[2]float64][2]float64, len(p.Nodes))}
	for k, v := range p.Nodes {
		c.Nodes[k] = v
	}
	return c
}

func (p *Planted) Name() string { return "planted" }

// Counting wraps a transform and counts calls. Clones share the counters.
type Counting struct {
	Inner   projection.Transform
	forward *atomic.Int64
	inverse *atomic.Int64
	clones  *atomic.Int64
}

// NewCounting wraps inner.
func NewCounting(inner projection.Transform) *Counting {
	return &Counting{Inner: inner, forward: new(atomic.Int64), inverse: new(atomic.Int64), clones: new(atomic.Int64)}
}

func (c *Counting) Forward(x, y float64) (float64, float64, bool) {
	c.forward.Add(1)
	return c.Inner.Forward(x, y)
}

func (c *Counting) Inverse(lat, lon float64) (float64, float64, bool) {
	c.inverse.Add(1)
	return c.Inner.Inverse(lat, lon)
}

func (c *Counting) Clone() projection.Transform {
	c.clones.Add(1)
	return &Counting{Inner: c.Inner.Clone(), forward: c.forward, inverse: c.inverse, clones: c.clones}
}

func (c *Counting) Name() string { return c.Inner.Name() }

// Calls returns the forward, inverse and clone counts.
func (c *Counting) Calls() (forward, inverse, clones int64) {
	return c.forward.Load(), c.inverse.Load(), c.clones.Load()
}
