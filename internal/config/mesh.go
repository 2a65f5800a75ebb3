package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/banshee-data/pmesh/internal/interp"
	"github.com/banshee-data/pmesh/internal/projection"
)

// DefaultConfigPath is the path to the canonical mesh defaults file.
const DefaultConfigPath = "config/mesh.defaults.json"

// MeshConfig is the on-disk description of a mesh: the source rectangle,
// the grid resolution, the interpolation strategy and the two projections.
// Omitted fields fall back to the Get* defaults.
type MeshConfig struct {
	Left   *float64 `json:"left,omitempty"`
	Bottom *float64 `json:"bottom,omitempty"`
	Right  *float64 `json:"right,omitempty"`
	Top    *float64 `json:"top,omitempty"`

	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`

	Interpolator     *string `json:"interpolator,omitempty"`
	SourceProjection *string `json:"source_projection,omitempty"`
	DestProjection   *string `json:"dest_projection,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

// EmptyMeshConfig returns a MeshConfig with all fields nil.
func EmptyMeshConfig() *MeshConfig {
	return &MeshConfig{}
}

// LoadMeshConfig loads a MeshConfig from a JSON file. The file must have a
// .json extension and be under 1MB. Partial files are allowed.
func LoadMeshConfig(path string) (*MeshConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyMeshConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for tests and binaries.
func MustLoadDefaultConfig() *MeshConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,          // from cmd/
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/storage/sqlite/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadMeshConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the fields that are set. It does not require any field to
// be present.
func (c *MeshConfig) Validate() error {
	for name, v := range map[string]*float64{"left": c.Left, "bottom": c.Bottom, "right": c.Right, "top": c.Top} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%s must be finite, got %v", name, *v)
		}
	}
	if c.GetRight() <= c.GetLeft() {
		return fmt.Errorf("right (%g) must be greater than left (%g)", c.GetRight(), c.GetLeft())
	}
	if c.GetTop() <= c.GetBottom() {
		return fmt.Errorf("top (%g) must be greater than bottom (%g)", c.GetTop(), c.GetBottom())
	}

	if c.Width != nil && *c.Width < 0 {
		return fmt.Errorf("width must be non-negative, got %d", *c.Width)
	}
	if c.Height != nil && *c.Height < 0 {
		return fmt.Errorf("height must be non-negative, got %d", *c.Height)
	}

	if c.Interpolator != nil {
		if _, err := interp.ParseKind(*c.Interpolator); err != nil {
			return fmt.Errorf("invalid interpolator: %w", err)
		}
	}
	if c.SourceProjection != nil {
		if _, err := projection.ForName(*c.SourceProjection); err != nil {
			return fmt.Errorf("invalid source_projection: %w", err)
		}
	}
	if c.DestProjection != nil {
		if _, err := projection.ForName(*c.DestProjection); err != nil {
			return fmt.Errorf("invalid dest_projection: %w", err)
		}
	}
	return nil
}

// GetLeft returns the left value or the default.
func (c *MeshConfig) GetLeft() float64 {
	if c.Left == nil {
		return -180 // default
	}
	return *c.Left
}

// GetBottom returns the bottom value or the default.
func (c *MeshConfig) GetBottom() float64 {
	if c.Bottom == nil {
		return -85 // default
	}
	return *c.Bottom
}

// GetRight returns the right value or the default.
func (c *MeshConfig) GetRight() float64 {
	if c.Right == nil {
		return 180 // default
	}
	return *c.Right
}

// GetTop returns the top value or the default.
func (c *MeshConfig) GetTop() float64 {
	if c.Top == nil {
		return 85 // default
	}
	return *c.Top
}

// GetWidth returns the width value or the default.
func (c *MeshConfig) GetWidth() int {
	if c.Width == nil {
		return 33 // default
	}
	return *c.Width
}

// GetHeight returns the height value or the default.
func (c *MeshConfig) GetHeight() int {
	if c.Height == nil {
		return 33 // default
	}
	return *c.Height
}

// GetInterpolator returns the interpolator name or the default.
func (c *MeshConfig) GetInterpolator() string {
	if c.Interpolator == nil || *c.Interpolator == "" {
		return interp.BundledBilinear.String()
	}
	return *c.Interpolator
}

// GetSourceProjection returns the source projection name or the default.
func (c *MeshConfig) GetSourceProjection() string {
	if c.SourceProjection == nil || *c.SourceProjection == "" {
		return "plate-carree"
	}
	return *c.SourceProjection
}

// GetDestProjection returns the destination projection name or the default.
func (c *MeshConfig) GetDestProjection() string {
	if c.DestProjection == nil || *c.DestProjection == "" {
		return "web-mercator"
	}
	return *c.DestProjection
}
