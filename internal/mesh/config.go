package mesh

import (
	"fmt"
	"math"

	"github.com/banshee-data/pmesh/internal/config"
	"github.com/banshee-data/pmesh/internal/interp"
	"github.com/banshee-data/pmesh/internal/projection"
)

// Config is a builder for an Engine. Set fields directly or with the With*
// methods, then call NewEngine or Build.
type Config struct {
	Left, Bottom, Right, Top float64
	Width, Height            int
	Interpolator             interp.Kind
	SourceProjection         string
	DestProjection           string
}

// DefaultConfig returns a Config loaded from the canonical defaults file
// (config/mesh.defaults.json). Panics if the file cannot be found.
func DefaultConfig() *Config {
	c, err := ConfigFromFile(config.MustLoadDefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("mesh defaults: %v", err))
	}
	return c
}

// ConfigFromFile converts a loaded MeshConfig, applying its defaults.
func ConfigFromFile(cfg *config.MeshConfig) (*Config, error) {
	kind, err := interp.ParseKind(cfg.GetInterpolator())
	if err != nil {
		return nil, err
	}
	return &Config{
		Left:             cfg.GetLeft(),
		Bottom:           cfg.GetBottom(),
		Right:            cfg.GetRight(),
		Top:              cfg.GetTop(),
		Width:            cfg.GetWidth(),
		Height:           cfg.GetHeight(),
		Interpolator:     kind,
		SourceProjection: cfg.GetSourceProjection(),
		DestProjection:   cfg.GetDestProjection(),
	}, nil
}

// WithBounds sets the source rectangle.
func (c *Config) WithBounds(left, bottom, right, top float64) *Config {
	c.Left, c.Bottom, c.Right, c.Top = left, bottom, right, top
	return c
}

// WithResolution sets the grid dimensions. Values below MinResolution are
// raised by the engine.
func (c *Config) WithResolution(width, height int) *Config {
	c.Width, c.Height = width, height
	return c
}

// WithInterpolator sets the strategy.
func (c *Config) WithInterpolator(k interp.Kind) *Config {
	c.Interpolator = k
	return c
}

// WithProjections sets the source and destination transform names.
func (c *Config) WithProjections(src, dst string) *Config {
	c.SourceProjection, c.DestProjection = src, dst
	return c
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	for _, v := range []float64{c.Left, c.Bottom, c.Right, c.Top} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bounds must be finite, got (%g, %g, %g, %g)", c.Left, c.Bottom, c.Right, c.Top)
		}
	}
	if c.Right <= c.Left {
		return fmt.Errorf("Right (%g) must be greater than Left (%g)", c.Right, c.Left)
	}
	if c.Top <= c.Bottom {
		return fmt.Errorf("Top (%g) must be greater than Bottom (%g)", c.Top, c.Bottom)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("resolution must be non-negative, got %dx%d", c.Width, c.Height)
	}
	if !c.Interpolator.Valid() {
		return fmt.Errorf("%w: %d", interp.ErrUnknownKind, int(c.Interpolator))
	}
	return nil
}

// Transforms resolves the configured projection names.
func (c *Config) Transforms() (src, dst projection.Transform, err error) {
	if src, err = projection.ForName(c.SourceProjection); err != nil {
		return nil, nil, fmt.Errorf("source projection: %w", err)
	}
	if dst, err = projection.ForName(c.DestProjection); err != nil {
		return nil, nil, fmt.Errorf("destination projection: %w", err)
	}
	return src, dst, nil
}

// NewEngine validates the config and returns an engine with bounds,
// resolution and strategy applied. The mesh is not calculated.
func (c *Config) NewEngine() (*Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mesh config: %w", err)
	}
	e := New()
	e.SetBounds(c.Left, c.Bottom, c.Right, c.Top)
	if err := e.SetResolution(c.Width, c.Height); err != nil {
		return nil, err
	}
	if err := e.SetInterpolator(c.Interpolator); err != nil {
		return nil, err
	}
	return e, nil
}

// Build is NewEngine followed by CalculateMesh with the configured
// projections.
func (c *Config) Build() (*Engine, error) {
	src, dst, err := c.Transforms()
	if err != nil {
		return nil, err
	}
	e, err := c.NewEngine()
	if err != nil {
		return nil, err
	}
	if err := e.CalculateMesh(src, dst); err != nil {
		return nil, err
	}
	return e, nil
}

// Key identifies the grid this config builds, for snapshot lookup. It equals
// the Key of the built engine.
func (c *Config) Key() string {
	w, h := max(c.Width, MinResolution), max(c.Height, MinResolution)
	return snapshotKey(c.Left, c.Bottom, c.Right, c.Top, w, h,
		canonicalName(c.SourceProjection), canonicalName(c.DestProjection))
}

// canonicalName maps aliases such as "EPSG:3857" to the transform's own name.
func canonicalName(name string) string {
	if t, err := projection.ForName(name); err == nil {
		return t.Name()
	}
	return name
}
