package monitor

import (
	"bytes"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/banshee-data/pmesh/internal/fsutil"
	"github.com/banshee-data/pmesh/internal/mesh"
	"github.com/banshee-data/pmesh/internal/monitoring"
)

// MeshGeoJSON returns one Point feature per node in row-major order,
// followed by a Polygon feature for the projected bounding rectangle.
// Coordinates are in the destination system.
func MeshGeoJSON(e *mesh.Engine) (*geojson.FeatureCollection, error) {
	bounds, err := e.ProjectedBoundingRect()
	if err != nil {
		return nil, err
	}
	w, _ := e.Resolution()

	fc := geojson.NewFeatureCollection()
	for i, n := range e.Nodes() {
		col, row := i%w, i/w
		sx, sy := e.SourceCoordinate(col, row)

		f := geojson.NewFeature(orb.Point{n.X, n.Y})
		f.Properties["kind"] = "node"
		f.Properties["col"] = col
		f.Properties["row"] = row
		f.Properties["valid"] = n.Valid
		f.Properties["source_x"] = sx
		f.Properties["source_y"] = sy
		fc.Append(f)
	}

	bbox := geojson.NewFeature(bounds.ToPolygon())
	bbox.Properties["kind"] = "bounding_rect"
	bbox.Properties["mesh_key"] = e.Key()
	bbox.BBox = geojson.NewBBox(bounds)
	fc.Append(bbox)
	return fc, nil
}

// WriteGeoJSON writes MeshGeoJSON to path on fsys.
func WriteGeoJSON(fsys fsutil.FileSystem, e *mesh.Engine, path string) error {
	fc, err := MeshGeoJSON(e)
	if err != nil {
		return err
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal mesh geojson: %w", err)
	}
	if err := fsutil.WriteTo(fsys, path, bytes.NewReader(data)); err != nil {
		return err
	}
	monitoring.Logf("wrote %d features to %s", len(fc.Features), path)
	return nil
}
