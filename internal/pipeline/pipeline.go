// Package pipeline drives a full extraction run: stage the engine mesh,
// capture the shifted field samples, fuse them, segment the fused field
// into an index model, and export the fabrication masks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fabmask-data/maskforge/internal/engine"
	"github.com/fabmask-data/maskforge/internal/export"
	"github.com/fabmask-data/maskforge/internal/field"
	"github.com/fabmask-data/maskforge/internal/fsutil"
	"github.com/fabmask-data/maskforge/internal/monitoring"
	"github.com/fabmask-data/maskforge/internal/segment"
	"github.com/fabmask-data/maskforge/internal/voxel"
)

// Options selects what one extraction run produces.
type Options struct {
	// PixelSize is the sampling pitch in meters. Required.
	PixelSize float64

	// Rows and Columns tile both exports periodically. Zero means 1.
	Rows    int
	Columns int

	// Unit is the working length unit of the vector export. Empty means
	// the default export unit.
	Unit string

	// ZIndex picks the horizontal node plane the masks are cut at.
	// Negative means the middle plane.
	ZIndex int

	// InvertBitmap flips the raster pixel mapping.
	InvertBitmap bool

	// Strategy names the polygon outline strategy for the vector
	// export. Empty means the default.
	Strategy string

	// BitmapPath and VectorPath are the output files. An empty path
	// skips that export.
	BitmapPath string
	VectorPath string
}

// Pipeline bundles the clients one extraction run needs. Stager may be
// nil when the capture client replays a recorded snapshot and there is no
// live engine to stage.
type Pipeline struct {
	Stager  *engine.Stager
	Capture engine.CaptureClient
	FS      fsutil.FileSystem
}

// Result reports what a run produced. Paths are empty for exports the
// options skipped.
type Result struct {
	RunID uuid.UUID

	Model *segment.IndexModel

	BitmapPath string
	VectorPath string

	StartedAt  time.Time
	FinishedAt time.Time
}

// Extract runs the full pipeline. Staged engine parameters are restored
// on every exit path; a restore failure is joined onto whatever error the
// run itself produced. Both exports are attempted even if one fails.
func (p *Pipeline) Extract(ctx context.Context, opts Options) (res *Result, err error) {
	if opts.PixelSize <= 0 {
		return nil, fmt.Errorf("pipeline: pixel size must be positive, got %g", opts.PixelSize)
	}
	strategy, serr := export.StrategyByName(opts.Strategy)
	if serr != nil {
		return nil, fmt.Errorf("pipeline: %w", serr)
	}

	res = &Result{RunID: uuid.New(), StartedAt: time.Now()}
	monitoring.Logf("run %s: extracting at pixel size %g m", res.RunID, opts.PixelSize)

	if p.Stager != nil {
		buf, serr := p.Stager.Stage(opts.PixelSize)
		defer func() {
			if rerr := p.Stager.Restore(buf); rerr != nil {
				err = errors.Join(err, fmt.Errorf("restore staged parameters: %w", rerr))
			}
		}()
		if serr != nil {
			return nil, fmt.Errorf("stage engine: %w", serr)
		}
		monitoring.Logf("run %s: staged %d engine parameters", res.RunID, buf.Len())
	}

	snap, cerr := engine.RecordSnapshot(ctx, p.Capture, opts.PixelSize)
	if cerr != nil {
		return nil, fmt.Errorf("capture fields: %w", cerr)
	}

	combined := make([]*field.Tensor, 0, len(snap.Captures))
	for i, c := range snap.Captures {
		t, cerr := field.CombineAxes(c)
		if cerr != nil {
			return nil, fmt.Errorf("combine capture %d: %w", i, cerr)
		}
		combined = append(combined, t)
	}

	fused, ferr := field.Fuse(combined)
	if ferr != nil {
		return nil, fmt.Errorf("fuse captures: %w", ferr)
	}

	model, merr := segment.Segment(fused, snap.Captures[0].Axes)
	if merr != nil {
		return nil, fmt.Errorf("segment fused field: %w", merr)
	}
	res.Model = model
	monitoring.Logf("run %s: %d materials, %d structures, %d layers",
		res.RunID, len(model.Materials), len(model.Structures), len(model.Layers))

	mask, xs, ys, perr := maskPlane(model, opts.ZIndex)
	if perr != nil {
		return nil, perr
	}

	var exportErrs []error
	if opts.BitmapPath != "" {
		path, berr := export.WriteBitmap(p.FS, mask, opts.BitmapPath, export.BitmapOptions{
			Invert:  opts.InvertBitmap,
			Rows:    opts.Rows,
			Columns: opts.Columns,
		})
		if berr != nil {
			exportErrs = append(exportErrs, berr)
		} else {
			res.BitmapPath = path
			monitoring.Logf("run %s: wrote bitmap %s", res.RunID, path)
		}
	}
	if opts.VectorPath != "" {
		path, verr := export.WriteVector(p.FS, mask, xs, ys, opts.VectorPath, export.VectorOptions{
			PixelSize: opts.PixelSize,
			Rows:      opts.Rows,
			Columns:   opts.Columns,
			Unit:      opts.Unit,
			Strategy:  strategy,
		})
		if verr != nil {
			exportErrs = append(exportErrs, verr)
		} else {
			res.VectorPath = path
			monitoring.Logf("run %s: wrote vector %s", res.RunID, path)
		}
	}
	res.FinishedAt = time.Now()
	if len(exportErrs) > 0 {
		return res, errors.Join(exportErrs...)
	}
	return res, nil
}

// maskPlane cuts the occupancy mask at one node plane and shifts it onto
// the cell grid, returning the cell mask with its center axes.
func maskPlane(model *segment.IndexModel, zIndex int) (*voxel.Mask, []float64, []float64, error) {
	shape := model.Occupied.Shape
	nx, ny, nz := shape[0], shape[1], shape[2]
	if zIndex < 0 {
		zIndex = nz / 2
	}
	if zIndex >= nz {
		return nil, nil, nil, fmt.Errorf("pipeline: z index %d outside %d planes", zIndex, nz)
	}

	plane := voxel.NewMask(nx, ny)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			plane.Set(model.Occupied.At(i, j, zIndex), i, j)
		}
	}
	cells, err := voxel.ShiftToCells(plane)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("pipeline: %w", err)
	}
	return cells, model.X, model.Y, nil
}
