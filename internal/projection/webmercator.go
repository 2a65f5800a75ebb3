package projection

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// SphericalMercatorExtent is half the width of the Web Mercator plane in
// metres.
const SphericalMercatorExtent = orb.EarthRadius * math.Pi

// WebMercator is EPSG:3857, backed by orb's projection functions. Inverse
// clamps y to the square world extent like most web maps do.
type WebMercator struct{}

func (WebMercator) Forward(x, y float64) (float64, float64, bool) {
	if !finite(x, y) {
		return 0, 0, false
	}
	p := project.Mercator.ToWGS84(orb.Point{x, y})
	return p.Lat(), p.Lon(), finite(p[0], p[1])
}

func (WebMercator) Inverse(lat, lon float64) (float64, float64, bool) {
	if !finite(lat, lon) || lat < -90 || lat > 90 {
		return 0, 0, false
	}
	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	return p.X(), p.Y(), finite(p[0], p[1])
}

func (WebMercator) Clone() Transform { return WebMercator{} }

func (WebMercator) Name() string { return "web-mercator" }
