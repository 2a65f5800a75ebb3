// Package monitor renders diagnostics for a built projection mesh: a PNG
// plot of the projected grid, an interactive HTML scatter and a GeoJSON
// export of the nodes.
package monitor

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/pmesh/internal/fsutil"
	"github.com/banshee-data/pmesh/internal/mesh"
	"github.com/banshee-data/pmesh/internal/monitoring"
)

var (
	gridLineColor = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	validColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	invalidColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// PlotSize is the rendered PNG size.
var PlotSize = struct{ Width, Height vg.Length }{8 * vg.Inch, 8 * vg.Inch}

// NewMeshPlot draws the projected grid: row and column polylines through
// every node, with valid and invalid nodes marked in different colours.
func NewMeshPlot(e *mesh.Engine) (*plot.Plot, error) {
	if !e.Built() {
		return nil, mesh.ErrNotBuilt
	}
	w, h := e.Resolution()
	nodes := e.Nodes()
	stats := e.Stats()

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Projection mesh %dx%d (%d/%d valid)", w, h, stats.Valid, stats.Total)
	p.X.Label.Text = "Projected X"
	p.Y.Label.Text = "Projected Y"

	// Rows then columns.
	for row := 0; row < h; row++ {
		pts := make(plotter.XYs, 0, w)
		for col := 0; col < w; col++ {
			pts = appendFinite(pts, nodes[row*w+col])
		}
		if err := addGridLine(p, pts); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
	}
	for col := 0; col < w; col++ {
		pts := make(plotter.XYs, 0, h)
		for row := 0; row < h; row++ {
			pts = appendFinite(pts, nodes[row*w+col])
		}
		if err := addGridLine(p, pts); err != nil {
			return nil, fmt.Errorf("column %d: %w", col, err)
		}
	}

	validPts := make(plotter.XYs, 0, stats.Valid)
	invalidPts := make(plotter.XYs, 0, stats.Invalid)
	for _, n := range nodes {
		if n.Valid {
			validPts = appendFinite(validPts, n)
		} else {
			invalidPts = appendFinite(invalidPts, n)
		}
	}
	if err := addNodes(p, "valid", validPts, validColor, draw.CircleGlyph{}); err != nil {
		return nil, err
	}
	if err := addNodes(p, "invalid", invalidPts, invalidColor, draw.CrossGlyph{}); err != nil {
		return nil, err
	}
	p.Legend.Top = true
	return p, nil
}

// PlotMesh renders the mesh plot as PNG to path on fsys.
func PlotMesh(fsys fsutil.FileSystem, e *mesh.Engine, path string) error {
	p, err := NewMeshPlot(e)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(PlotSize.Width, PlotSize.Height, "png")
	if err != nil {
		return fmt.Errorf("render mesh plot: %w", err)
	}
	if err := fsutil.WriteTo(fsys, path, wt); err != nil {
		return err
	}
	monitoring.Logf("wrote mesh plot to %s", path)
	return nil
}

func appendFinite(pts plotter.XYs, n mesh.Node) plotter.XYs {
	if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsInf(n.X, 0) || math.IsInf(n.Y, 0) {
		return pts
	}
	return append(pts, plotter.XY{X: n.X, Y: n.Y})
}

func addGridLine(p *plot.Plot, pts plotter.XYs) error {
	if len(pts) < 2 {
		return nil
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = gridLineColor
	line.Width = vg.Points(0.5)
	p.Add(line)
	return nil
}

func addNodes(p *plot.Plot, label string, pts plotter.XYs, c color.Color, shape draw.GlyphDrawer) error {
	if len(pts) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("%s nodes: %w", label, err)
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(2)
	s.GlyphStyle.Shape = shape
	p.Add(s)
	p.Legend.Add(label, s)
	return nil
}
