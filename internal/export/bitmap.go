package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/fabmask-data/maskforge/internal/fsutil"
	"github.com/fabmask-data/maskforge/internal/voxel"
)

// BitmapOptions configures the raster output.
type BitmapOptions struct {
	// Invert flips the pixel mapping. The default (false) writes
	// occupied cells as 0 and empty cells as 255, features dark on a
	// white field, which is the conventional mask polarity; Invert=true
	// writes occupied as 255 on a black field.
	Invert bool

	// Rows and Columns tile the mask periodically. Zero means 1.
	Rows    int
	Columns int
}

// WriteBitmap renders the mask as an 8-bit single-channel PNG, tiled
// rows x columns. The filename is normalized to carry the .png suffix;
// the path actually written is returned.
func WriteBitmap(fsys fsutil.FileSystem, mask *voxel.Mask, path string, opts BitmapOptions) (string, error) {
	path = normalizeSuffix(path, ".png")

	if len(mask.Shape) != 2 {
		return path, &ExportError{Path: path, Err: fmt.Errorf("bitmap wants a 2-D mask, got rank %d", len(mask.Shape))}
	}
	rows, cols := opts.Rows, opts.Columns
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}

	occupied, empty := uint8(0), uint8(255)
	if opts.Invert {
		occupied, empty = empty, occupied
	}

	nx, ny := mask.Shape[0], mask.Shape[1]
	img := image.NewGray(image.Rect(0, 0, nx*cols, ny*rows))
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			v := empty
			if mask.At(i, j) {
				v = occupied
			}
			for r := 0; r < rows; r++ {
				for c := 0; c < cols; c++ {
					img.SetGray(c*nx+i, r*ny+j, color.Gray{Y: v})
				}
			}
		}
	}

	w, err := fsys.Create(path)
	if err != nil {
		return path, &ExportError{Path: path, Err: err}
	}
	defer w.Close()

	if err := png.Encode(w, img); err != nil {
		return path, &ExportError{Path: path, Err: err}
	}
	return path, nil
}
