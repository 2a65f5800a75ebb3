// Command pmesh builds a projection mesh and uses it to reproject points.
//
// Points are read from stdin as "x y" pairs, one per line, and written to
// stdout as projected pairs. Points the mesh cannot project print as
// "nan nan".
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/pmesh/internal/config"
	"github.com/banshee-data/pmesh/internal/fsutil"
	"github.com/banshee-data/pmesh/internal/interp"
	"github.com/banshee-data/pmesh/internal/mesh"
	"github.com/banshee-data/pmesh/internal/monitor"
	"github.com/banshee-data/pmesh/internal/monitoring"
	"github.com/banshee-data/pmesh/internal/projection"
	"github.com/banshee-data/pmesh/internal/security"
	"github.com/banshee-data/pmesh/internal/storage/sqlite"
	"github.com/banshee-data/pmesh/internal/version"
)

// options holds the parsed command line.
type options struct {
	configPath  string
	bounds      string
	size        string
	interp      string
	src, dst    string
	dbPath      string
	bbox        bool
	project     bool
	plotPath    string
	htmlPath    string
	geojsonPath string
	exportDir   string
	verbose     bool
	showVersion bool
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "pmesh: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("pmesh", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "mesh configuration JSON file (defaults apply when empty)")
	fs.StringVar(&o.bounds, "bounds", "", "source rectangle as left,bottom,right,top")
	fs.StringVar(&o.size, "size", "", "mesh resolution as WIDTHxHEIGHT")
	fs.StringVar(&o.interp, "interp", "", "interpolator: "+strings.Join(kindNames(), ", "))
	fs.StringVar(&o.src, "src", "", "source projection: "+strings.Join(projection.Names(), ", ")+" or EPSG:<code>")
	fs.StringVar(&o.dst, "dst", "", "destination projection")
	fs.StringVar(&o.dbPath, "db", "", "sqlite snapshot cache; reuse a matching mesh or build and store one")
	fs.BoolVar(&o.bbox, "bbox", false, "print the projected bounding rectangle")
	fs.BoolVar(&o.project, "project", true, "project x y pairs read from stdin")
	fs.StringVar(&o.plotPath, "plot", "", "write a PNG plot of the mesh")
	fs.StringVar(&o.htmlPath, "html", "", "write an HTML scatter of the mesh")
	fs.StringVar(&o.geojsonPath, "geojson", "", "write the mesh nodes as GeoJSON")
	fs.StringVar(&o.exportDir, "export-dir", "", "write mesh-<key>.png, .html and .geojson into this directory")
	fs.BoolVar(&o.verbose, "v", false, "log mesh diagnostics to stderr")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.showVersion {
		fmt.Fprintln(stdout, version.String("pmesh"))
		return nil
	}

	if o.verbose {
		mesh.SetLogWriters(stderr, stderr, nil)
		defer mesh.SetLogWriters(nil, nil, nil)
	}

	cfg, err := buildConfig(o)
	if err != nil {
		return err
	}

	e, err := loadOrBuild(cfg, o.dbPath)
	if err != nil {
		return err
	}
	stats := e.Stats()
	monitoring.Logf("mesh %s ready: %dx%d, %d/%d nodes valid", e.Key(), e.Width(), e.Height(), stats.Valid, stats.Total)

	if o.bbox {
		b, err := e.ProjectedBoundingRect()
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "bbox %s %s %s %s\n", ff(b.Min.X()), ff(b.Min.Y()), ff(b.Max.X()), ff(b.Max.Y()))
	}

	if err := export(fsutil.OSFileSystem{}, e, o); err != nil {
		return err
	}

	if o.project {
		return projectStream(e, stdin, stdout)
	}
	return nil
}

// exporter writes one rendering of a built mesh.
type exporter func(fsutil.FileSystem, *mesh.Engine, string) error

// export writes the requested plot, HTML and GeoJSON files. Explicit paths
// must lie in the working directory, the temp directory or -export-dir.
func export(fsys fsutil.FileSystem, e *mesh.Engine, o *options) error {
	if o.plotPath == "" && o.htmlPath == "" && o.geojsonPath == "" && o.exportDir == "" {
		return nil
	}
	type job struct {
		path  string
		write exporter
	}
	jobs := []job{
		{o.plotPath, monitor.PlotMesh},
		{o.htmlPath, monitor.WriteMeshHTML},
		{o.geojsonPath, monitor.WriteGeoJSON},
	}

	dirs, err := security.DefaultExportDirs()
	if err != nil {
		return err
	}
	if o.exportDir != "" {
		dirs = append(dirs, o.exportDir)
		for i, ext := range []string{"png", "html", "geojson"} {
			jobs = append(jobs, job{filepath.Join(o.exportDir, security.MeshFileName(e.Key(), ext)), jobs[i].write})
		}
	}

	for _, j := range jobs {
		if j.path == "" {
			continue
		}
		if err := security.CheckExportPath(j.path, dirs...); err != nil {
			return err
		}
		if err := j.write(fsys, e, j.path); err != nil {
			return err
		}
		monitoring.Logf("wrote %s", j.path)
	}
	return nil
}

// buildConfig loads the config file (or defaults) and applies flag overrides.
func buildConfig(o *options) (*mesh.Config, error) {
	fileCfg := config.EmptyMeshConfig()
	if o.configPath != "" {
		var err error
		if fileCfg, err = config.LoadMeshConfig(o.configPath); err != nil {
			return nil, err
		}
	}
	cfg, err := mesh.ConfigFromFile(fileCfg)
	if err != nil {
		return nil, err
	}

	if o.bounds != "" {
		l, b, r, t, err := parseBounds(o.bounds)
		if err != nil {
			return nil, err
		}
		cfg.WithBounds(l, b, r, t)
	}
	if o.size != "" {
		w, h, err := parseSize(o.size)
		if err != nil {
			return nil, err
		}
		cfg.WithResolution(w, h)
	}
	if o.interp != "" {
		k, err := interp.ParseKind(o.interp)
		if err != nil {
			return nil, err
		}
		cfg.WithInterpolator(k)
	}
	if o.src != "" {
		cfg.SourceProjection = o.src
	}
	if o.dst != "" {
		cfg.DestProjection = o.dst
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadOrBuild restores the newest cached snapshot for cfg when dbPath is set,
// falling back to a fresh build that is then stored.
func loadOrBuild(cfg *mesh.Config, dbPath string) (*mesh.Engine, error) {
	if dbPath == "" {
		defer monitoring.Timed("calculate mesh")()
		return cfg.Build()
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	key := cfg.Key()
	snap, err := store.LatestSnapshot(key)
	switch {
	case err == nil:
		src, dst, err := cfg.Transforms()
		if err != nil {
			return nil, err
		}
		e, err := mesh.Restore(snap, src, dst)
		if err != nil {
			return nil, err
		}
		// The cached grid serves any strategy.
		if err := e.SetInterpolator(cfg.Interpolator); err != nil {
			return nil, err
		}
		monitoring.Logf("restored mesh %s from snapshot %s", key, snap.SnapshotID)
		return e, nil
	case errors.Is(err, sqlite.ErrSnapshotNotFound):
	default:
		return nil, err
	}

	done := monitoring.Timed("calculate mesh")
	e, err := cfg.Build()
	done()
	if err != nil {
		return nil, err
	}
	if _, err := e.Persist(store, "build"); err != nil {
		return nil, err
	}
	return e, nil
}

// projectStream reads "x y" lines and writes projected pairs. Blank lines
// and lines starting with '#' are skipped.
func projectStream(e *mesh.Engine, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	out := bufio.NewWriter(w)
	defer out.Flush()

	lineNo, misses := 0, 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return fmt.Errorf("line %d: want \"x y\", got %q", lineNo, line)
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}

		px, py, ok := e.ProjectPoint(x, y)
		if !ok {
			misses++
			fmt.Fprintln(out, "nan nan")
			continue
		}
		fmt.Fprintf(out, "%s %s\n", ff(px), ff(py))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read points: %w", err)
	}
	if misses > 0 {
		monitoring.Logf("%d points could not be projected", misses)
	}
	return nil
}

func parseBounds(s string) (left, bottom, right, top float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("bounds %q: want left,bottom,right,top", s)
	}
	var v [4]float64
	for i, p := range parts {
		if v[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("bounds %q: %w", s, err)
		}
	}
	return v[0], v[1], v[2], v[3], nil
}

func parseSize(s string) (width, height int, err error) {
	ws, hs, found := strings.Cut(strings.ToLower(s), "x")
	if !found {
		return 0, 0, fmt.Errorf("size %q: want WIDTHxHEIGHT", s)
	}
	if width, err = strconv.Atoi(ws); err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	if height, err = strconv.Atoi(hs); err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	return width, height, nil
}

func kindNames() []string {
	names := make([]string, len(interp.Kinds))
	for i, k := range interp.Kinds {
		names[i] = k.String()
	}
	return names
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
