package projection

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s2"
)

const (
	// DefaultPlateCarreeScale makes plate carrée x and y plain degrees.
	DefaultPlateCarreeScale = 180.0
)

// s2Transform wraps one of the s2 planar projections.
type s2Transform struct {
	name string
	proj s2.Projection
}

// NewPlateCarree returns the equirectangular projection whose x axis spans
// [-xScale, xScale] across the antimeridian.
func NewPlateCarree(xScale float64) Transform {
	name := "plate-carree"
	if xScale != DefaultPlateCarreeScale {
		name = fmt.Sprintf("plate-carree@%g", xScale)
	}
	return &s2Transform{name: name, proj: s2.NewPlateCarreeProjection(xScale)}
}

// NewMercator returns the spherical Mercator projection whose x axis spans
// [-maxX, maxX]. Latitudes of ±90 map to infinity and fail Inverse.
func NewMercator(maxX float64) Transform {
	name := "mercator"
	if maxX != SphericalMercatorExtent {
		name = fmt.Sprintf("mercator@%g", maxX)
	}
	return &s2Transform{name: name, proj: s2.NewMercatorProjection(maxX)}
}

func (t *s2Transform) Forward(x, y float64) (float64, float64, bool) {
	if !finite(x, y) {
		return 0, 0, false
	}
	ll := t.proj.ToLatLng(r2.Point{X: x, Y: y})
	if !ll.IsValid() {
		return 0, 0, false
	}
	lat, lon := ll.Lat.Degrees(), ll.Lng.Degrees()
	return lat, lon, finite(lat, lon)
}

func (t *s2Transform) Inverse(lat, lon float64) (float64, float64, bool) {
	ll := s2.LatLngFromDegrees(lat, lon)
	if !finite(lat, lon) || !ll.IsValid() {
		return 0, 0, false
	}
	p := t.proj.FromLatLng(ll)
	return p.X, p.Y, finite(p.X, p.Y)
}

// Clone shares the projection; s2 projections are immutable.
func (t *s2Transform) Clone() Transform {
	c := *t
	return &c
}

func (t *s2Transform) Name() string { return t.name }
