package monitor

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/pmesh/internal/fsutil"
	"github.com/banshee-data/pmesh/internal/mesh"
	"github.com/banshee-data/pmesh/internal/monitoring"
)

// NewMeshScatter builds an echarts scatter of the projected nodes. Each
// point carries [x, y, valid, col, row]; the visual map colours by validity.
func NewMeshScatter(e *mesh.Engine) (*charts.Scatter, error) {
	if !e.Built() {
		return nil, mesh.ErrNotBuilt
	}
	bounds, err := e.ProjectedBoundingRect()
	if err != nil {
		return nil, err
	}
	w, h := e.Resolution()
	stats := e.Stats()

	data := make([]opts.ScatterData, 0, stats.Total)
	for i, n := range e.Nodes() {
		valid := 0
		if n.Valid {
			valid = 1
		}
		data = append(data, opts.ScatterData{
			Name:  fmt.Sprintf("(%d, %d)", i%w, i/w),
			Value: []interface{}{n.X, n.Y, valid, i % w, i / w},
		})
	}

	// Pad the axes so edge nodes are not drawn on the frame.
	padX := bounds.Max.X() - bounds.Min.X()
	padY := bounds.Max.Y() - bounds.Min.Y()
	padX, padY = 0.05*padX, 0.05*padY

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Projection Mesh", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Projection Mesh",
			Subtitle: fmt.Sprintf("%dx%d nodes=%d valid=%d key=%s", w, h, stats.Total, stats.Valid, e.Key()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: bounds.Min.X() - padX, Max: bounds.Max.X() + padX, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: bounds.Min.Y() - padY, Max: bounds.Max.Y() + padY, Name: "Y", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:      opts.Bool(true),
			Min:       0,
			Max:       1,
			Dimension: "2",
			InRange:   &opts.VisualMapInRange{Color: []string{"#d62728", "#1f77b4"}},
		}),
	)
	scatter.AddSeries("nodes", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	return scatter, nil
}

// RenderMeshHTML writes the scatter page to w.
func RenderMeshHTML(w io.Writer, e *mesh.Engine) error {
	scatter, err := NewMeshScatter(e)
	if err != nil {
		return err
	}
	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render mesh scatter: %w", err)
	}
	return nil
}

// WriteMeshHTML renders the scatter page to path on fsys.
func WriteMeshHTML(fsys fsutil.FileSystem, e *mesh.Engine, path string) error {
	var buf bytes.Buffer
	if err := RenderMeshHTML(&buf, e); err != nil {
		return err
	}
	if err := fsutil.WriteTo(fsys, path, &buf); err != nil {
		return err
	}
	monitoring.Logf("wrote mesh scatter to %s", path)
	return nil
}
