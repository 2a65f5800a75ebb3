// Package projection provides the coordinate transforms a mesh samples.
//
// A Transform maps a planar coordinate system to geographic latitude and
// longitude (Forward) and back (Inverse). The mesh never looks inside a
// transform; it only needs the pair of calls to succeed or fail per point.
// Geographic coordinates are in degrees.
package projection

import (
	"errors"
	"math"
)

// ErrUnknownProjection is returned by ForName and ForEPSG for unsupported
// projections.
var ErrUnknownProjection = errors.New("projection: unknown projection")

// Transform converts between one planar system and geographic coordinates.
// ok is false when the input is outside the projection's domain or the result
// is not finite.
type Transform interface {
	Forward(x, y float64) (lat, lon float64, ok bool)
	Inverse(lat, lon float64) (x, y float64, ok bool)
	// Clone returns an independent copy that stays valid after the original
	// is discarded.
	Clone() Transform
	// Name identifies the transform in snapshot keys and logs.
	Name() string
}

// Identity treats planar x as longitude and planar y as latitude.
type Identity struct{}

func (Identity) Forward(x, y float64) (float64, float64, bool) {
	return y, x, finite(x, y)
}

func (Identity) Inverse(lat, lon float64) (float64, float64, bool) {
	return lon, lat, finite(lat, lon)
}

func (Identity) Clone() Transform { return Identity{} }

func (Identity) Name() string { return "identity" }

// Func adapts a pair of functions into a Transform. Either function may be
// nil, in which case that direction always fails.
type Func struct {
	Label       string
	ForwardFunc func(x, y float64) (lat, lon float64, ok bool)
	InverseFunc func(lat, lon float64) (x, y float64, ok bool)
}

// Forward implements Transform.
func (f *Func) Forward(x, y float64) (float64, float64, bool) {
	if f.ForwardFunc == nil {
		return 0, 0, false
	}
	lat, lon, ok := f.ForwardFunc(x, y)
	return lat, lon, ok && finite(lat, lon)
}

// Inverse implements Transform.
func (f *Func) Inverse(lat, lon float64) (float64, float64, bool) {
	if f.InverseFunc == nil {
		return 0, 0, false
	}
	x, y, ok := f.InverseFunc(lat, lon)
	return x, y, ok && finite(x, y)
}

// Clone implements Transform. The functions are shared; any state they
// close over is shared with the original.
func (f *Func) Clone() Transform {
	c := *f
	return &c
}

// Name implements Transform.
func (f *Func) Name() string {
	if f.Label == "" {
		return "func"
	}
	return f.Label
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
