// Package monitor renders diagnostic views of captured index fields, for
// eyeballing a fusion result before committing to a fabrication export.
package monitor

import (
	"fmt"
	"math/cmplx"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/fabmask-data/maskforge/internal/field"
)

// indexGrid adapts one horizontal cross-section of a fused field to the
// plotter grid contract. Values are the per-cell mean of |n| across all
// frequency and axis samples.
type indexGrid struct {
	xs, ys []float64 // node positions, micrometers
	vals   []float64 // row-major [x][y]
}

func (g *indexGrid) Dims() (int, int)   { return len(g.xs), len(g.ys) }
func (g *indexGrid) X(c int) float64    { return g.xs[c] }
func (g *indexGrid) Y(r int) float64    { return g.ys[r] }
func (g *indexGrid) Z(c, r int) float64 { return g.vals[c*len(g.ys)+r] }

// WriteHeatmap renders the |n| cross-section of a fused combined field at
// one z plane as a PNG heatmap. A negative zIndex selects the middle
// plane.
func WriteHeatmap(fused *field.Tensor, axes field.Axes, zIndex int, path string) error {
	if len(fused.Shape) != 5 {
		return fmt.Errorf("heatmap wants a rank-5 combined field, got rank %d", len(fused.Shape))
	}
	nx, ny, nz := fused.Shape[0], fused.Shape[1], fused.Shape[2]
	nf, nk := fused.Shape[3], fused.Shape[4]
	if zIndex < 0 {
		zIndex = nz / 2
	}
	if zIndex >= nz {
		return fmt.Errorf("heatmap: z index %d outside %d planes", zIndex, nz)
	}
	if len(axes.X) != nx || len(axes.Y) != ny {
		return fmt.Errorf("heatmap: axes %dx%d do not match field %v", len(axes.X), len(axes.Y), fused.Shape)
	}

	grid := &indexGrid{
		xs:   toMicrons(axes.X),
		ys:   toMicrons(axes.Y),
		vals: make([]float64, nx*ny),
	}
	mags := make([]float64, nf*nk)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			mags = mags[:0]
			for f := 0; f < nf; f++ {
				for k := 0; k < nk; k++ {
					mags = append(mags, cmplx.Abs(fused.At(i, j, zIndex, f, k)))
				}
			}
			grid.vals[i*ny+j] = stat.Mean(mags, nil)
		}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("|n| at z plane %d", zIndex)
	p.X.Label.Text = "x (um)"
	p.Y.Label.Text = "y (um)"

	hm := plotter.NewHeatMap(grid, moreland.SmoothBlueRed().Palette(255))
	p.Add(hm)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save heatmap: %w", err)
	}
	return nil
}

func toMicrons(meters []float64) []float64 {
	out := make([]float64, len(meters))
	for i, v := range meters {
		out[i] = v * 1e6
	}
	return out
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakePreviewOutputDir builds a timestamped output directory for preview
// images, keyed by the snapshot the preview came from.
func MakePreviewOutputDir(baseDir, snapshotFile string) string {
	ts := FormatTimestamp(time.Now())
	if snapshotFile != "" {
		base := filepath.Base(snapshotFile)
		ext := filepath.Ext(base)
		name := base[:len(base)-len(ext)]
		return filepath.Join(baseDir, name, ts)
	}
	return filepath.Join(baseDir, "preview_"+ts)
}
