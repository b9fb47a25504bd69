package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fabmask-data/maskforge/internal/units"
)

// DefaultConfigPath is the path to the canonical extraction defaults file.
const DefaultConfigPath = "config/extraction.defaults.json"

// ExtractionConfig is the root configuration for an extraction run. All
// fields are pointers so a partial JSON file overrides only what it names;
// the Get* methods supply defaults for everything else.
type ExtractionConfig struct {
	// Sampling params
	PixelSizeNM *float64 `json:"pixel_size_nm,omitempty"`
	ZIndex      *int     `json:"z_index,omitempty"` // node plane; negative means middle

	// Export params
	Rows            *int    `json:"rows,omitempty"`
	Columns         *int    `json:"columns,omitempty"`
	Unit            *string `json:"unit,omitempty"` // m, mm, um or nm
	PolygonStrategy *string `json:"polygon_strategy,omitempty"`
	// InvertBitmap=false (the default) writes occupied cells dark on a
	// white field; true flips that to light on black.
	InvertBitmap *bool `json:"invert_bitmap,omitempty"`

	// Engine staging params
	MeshTarget      *string  `json:"mesh_target,omitempty"`
	RegionTarget    *string  `json:"region_target,omitempty"`
	OverrideRegions []string `json:"override_regions,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }
func ptrBool(v bool) *bool          { return &v }

// EmptyExtractionConfig returns an ExtractionConfig with all fields nil.
func EmptyExtractionConfig() *ExtractionConfig {
	return &ExtractionConfig{}
}

// LoadExtractionConfig loads an ExtractionConfig from a JSON file. The
// file must carry a .json extension and stay under the max file size.
// Fields omitted from the JSON keep their defaults, so partial configs
// are safe.
func LoadExtractionConfig(path string) (*ExtractionConfig, error) {
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

	cfg := EmptyExtractionConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *ExtractionConfig) Validate() error {
	if c.PixelSizeNM != nil && *c.PixelSizeNM <= 0 {
		return fmt.Errorf("pixel_size_nm must be positive, got %f", *c.PixelSizeNM)
	}
	if c.Rows != nil && *c.Rows < 1 {
		return fmt.Errorf("rows must be at least 1, got %d", *c.Rows)
	}
	if c.Columns != nil && *c.Columns < 1 {
		return fmt.Errorf("columns must be at least 1, got %d", *c.Columns)
	}
	if c.Unit != nil && *c.Unit != "" {
		if !units.IsValid(*c.Unit) {
			return fmt.Errorf("unit must be one of %s, got %q", units.GetValidUnitsString(), *c.Unit)
		}
	}
	if c.PolygonStrategy != nil && *c.PolygonStrategy != "" {
		switch *c.PolygonStrategy {
		case "convex-hull", "boundary-trace":
		default:
			return fmt.Errorf("unknown polygon_strategy %q", *c.PolygonStrategy)
		}
	}
	return nil
}

// GetPixelSize returns the sampling pitch in meters, or the default.
func (c *ExtractionConfig) GetPixelSize() float64 {
	if c.PixelSizeNM == nil {
		return 100e-9 // default 100 nm
	}
	return *c.PixelSizeNM * 1e-9
}

// GetZIndex returns the z plane index or the default (middle plane).
func (c *ExtractionConfig) GetZIndex() int {
	if c.ZIndex == nil {
		return -1
	}
	return *c.ZIndex
}

// GetRows returns the rows value or the default.
func (c *ExtractionConfig) GetRows() int {
	if c.Rows == nil {
		return 1
	}
	return *c.Rows
}

// GetColumns returns the columns value or the default.
func (c *ExtractionConfig) GetColumns() int {
	if c.Columns == nil {
		return 1
	}
	return *c.Columns
}

// GetUnit returns the working export unit or the default.
func (c *ExtractionConfig) GetUnit() string {
	if c.Unit == nil || *c.Unit == "" {
		return units.DefaultExportUnit
	}
	return *c.Unit
}

// GetPolygonStrategy returns the polygon_strategy value or the default.
func (c *ExtractionConfig) GetPolygonStrategy() string {
	if c.PolygonStrategy == nil {
		return "convex-hull"
	}
	return *c.PolygonStrategy
}

// GetInvertBitmap returns the invert_bitmap value or the default
// (false: occupied cells render dark on a white field).
func (c *ExtractionConfig) GetInvertBitmap() bool {
	if c.InvertBitmap == nil {
		return false
	}
	return *c.InvertBitmap
}

// GetMeshTarget returns the staged mesh object name or the default.
func (c *ExtractionConfig) GetMeshTarget() string {
	if c.MeshTarget == nil || *c.MeshTarget == "" {
		return "FDTD::mesh"
	}
	return *c.MeshTarget
}

// GetRegionTarget returns the simulation-region object name or the default.
func (c *ExtractionConfig) GetRegionTarget() string {
	if c.RegionTarget == nil || *c.RegionTarget == "" {
		return "FDTD"
	}
	return *c.RegionTarget
}

// GetOverrideRegions returns the mesh-override object names, possibly empty.
func (c *ExtractionConfig) GetOverrideRegions() []string {
	return c.OverrideRegions
}
