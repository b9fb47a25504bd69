package export

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/fabmask-data/maskforge/internal/fsutil"
	"github.com/fabmask-data/maskforge/internal/units"
	"github.com/fabmask-data/maskforge/internal/voxel"
)

// Default cell names of the generated library.
const (
	defaultLibName  = "MASKFORGE"
	defaultBaseCell = "UNIT_CELL"
	defaultTopCell  = "TOP"
)

// dbPerUnit is the database resolution: 1000 database units per working
// unit (nanometer resolution at the default micrometer working unit).
const dbPerUnit = 1000.0

// VectorOptions configures the GDSII output.
type VectorOptions struct {
	// PixelSize is the cell pitch in meters. Required.
	PixelSize float64

	// Rows and Columns tile the base cell periodically. Zero means 1.
	Rows    int
	Columns int

	// Unit is the working length unit of the file (units package
	// constant). Empty means units.DefaultExportUnit.
	Unit string

	// Strategy turns each connected component into a polygon. Nil means
	// the convex-hull approximation.
	Strategy PolygonStrategy

	// LibName overrides the GDSII library name.
	LibName string

	// Layer is the GDSII layer number for all boundaries. Zero means 1.
	Layer int

	// ModTime stamps the library; the zero value means now.
	ModTime time.Time
}

// WriteVector writes the mask as a GDSII library: a base cell holding one
// polygon per connected component, and a top cell placing rows x columns
// references to it, spaced by the unit-cell extent and centered about the
// origin. Coordinate axes are in meters and are re-centered about their
// own midpoint and converted to the working unit. The filename is
// normalized to carry the .gds suffix; the path actually written is
// returned.
func WriteVector(fsys fsutil.FileSystem, mask *voxel.Mask, xs, ys []float64, path string, opts VectorOptions) (string, error) {
	path = normalizeSuffix(path, ".gds")

	if len(mask.Shape) != 2 {
		return path, &ExportError{Path: path, Err: fmt.Errorf("vector export wants a 2-D mask, got rank %d", len(mask.Shape))}
	}
	if len(xs) != mask.Shape[0] || len(ys) != mask.Shape[1] {
		return path, &ExportError{Path: path, Err: fmt.Errorf("axes %dx%d do not match mask %v", len(xs), len(ys), mask.Shape)}
	}
	if opts.PixelSize <= 0 {
		return path, &ExportError{Path: path, Err: fmt.Errorf("pixel size must be positive, got %g", opts.PixelSize)}
	}

	unit := opts.Unit
	if unit == "" {
		unit = units.DefaultExportUnit
	}
	if !units.IsValid(unit) {
		return path, &ExportError{Path: path, Err: fmt.Errorf("invalid working unit %q", unit)}
	}
	strategy := opts.Strategy
	if strategy == nil {
		strategy = ConvexHull{}
	}
	rows, cols := opts.Rows, opts.Columns
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	layer := opts.Layer
	if layer == 0 {
		layer = 1
	}
	libName := opts.LibName
	if libName == "" {
		libName = defaultLibName
	}

	// Re-center about the axis midpoint, then convert to the working
	// unit.
	xw := recenter(xs, unit)
	yw := recenter(ys, unit)
	pixel := units.FromMeters(opts.PixelSize, unit)

	comps := components(mask)
	if len(comps) == 0 {
		return path, &ExportError{Path: path, Err: fmt.Errorf("mask has no occupied cells")}
	}

	polys := make([]Polygon, 0, len(comps))
	for i, comp := range comps {
		poly, err := strategy.Outline(comp, xw, yw, pixel)
		if err != nil {
			return path, &ExportError{Path: path, Err: fmt.Errorf("component %d: %w", i+1, err)}
		}
		polys = append(polys, poly)
	}

	w, err := fsys.Create(path)
	if err != nil {
		return path, &ExportError{Path: path, Err: err}
	}
	defer w.Close()

	layout := gdsLayout{
		LibName:    libName,
		BaseCell:   defaultBaseCell,
		TopCell:    defaultTopCell,
		Layer:      layer,
		Polygons:   polys,
		Rows:       rows,
		Columns:    cols,
		PitchX:     float64(mask.Shape[0]) * pixel,
		PitchY:     float64(mask.Shape[1]) * pixel,
		DBPerUnit:  dbPerUnit,
		UnitMeters: units.MetersPer(unit),
		ModTime:    opts.ModTime,
	}
	if err := writeGDS(w, layout); err != nil {
		return path, &ExportError{Path: path, Err: err}
	}
	return path, nil
}

// recenter shifts an axis about its own midpoint and converts meters to
// the working unit.
func recenter(axis []float64, unit string) []float64 {
	out := append([]float64(nil), axis...)
	mid := (axis[0] + axis[len(axis)-1]) / 2
	floats.AddConst(-mid, out)
	floats.Scale(1/units.MetersPer(unit), out)
	return out
}
