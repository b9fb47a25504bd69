package export

import (
	"image/png"
	"testing"

	"github.com/fabmask-data/maskforge/internal/fsutil"
	"github.com/fabmask-data/maskforge/internal/voxel"
)

func TestWriteBitmapPixels(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	mask := voxel.NewMask(3, 2)
	mask.Set(true, 1, 0)
	mask.Set(true, 2, 1)

	path, err := WriteBitmap(fs, mask, "out", BitmapOptions{})
	if err != nil {
		t.Fatalf("WriteBitmap: %v", err)
	}
	if path != "out.png" {
		t.Fatalf("path = %q, want out.png", path)
	}

	r, err := fs.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	img, err := png.Decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("bounds = %dx%d, want 3x2", b.Dx(), b.Dy())
	}
	gray := func(x, y int) uint32 {
		v, _, _, _ := img.At(x, y).RGBA()
		return v >> 8
	}
	if got := gray(1, 0); got != 0 {
		t.Errorf("occupied pixel (1,0) = %d, want 0", got)
	}
	if got := gray(0, 0); got != 255 {
		t.Errorf("empty pixel (0,0) = %d, want 255", got)
	}
	if got := gray(2, 1); got != 0 {
		t.Errorf("occupied pixel (2,1) = %d, want 0", got)
	}
}

func TestWriteBitmapInvert(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	mask := voxel.NewMask(2, 2)
	mask.Set(true, 0, 0)

	path, err := WriteBitmap(fs, mask, "inv.png", BitmapOptions{Invert: true})
	if err != nil {
		t.Fatalf("WriteBitmap: %v", err)
	}
	r, _ := fs.Open(path)
	defer r.Close()
	img, err := png.Decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	v, _, _, _ := img.At(0, 0).RGBA()
	if v>>8 != 255 {
		t.Errorf("inverted occupied pixel = %d, want 255", v>>8)
	}
	v, _, _, _ = img.At(1, 1).RGBA()
	if v>>8 != 0 {
		t.Errorf("inverted empty pixel = %d, want 0", v>>8)
	}
}

func TestWriteBitmapTiling(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	mask := voxel.NewMask(2, 3)
	mask.Set(true, 0, 1)

	path, err := WriteBitmap(fs, mask, "tiled.png", BitmapOptions{Rows: 2, Columns: 3})
	if err != nil {
		t.Fatalf("WriteBitmap: %v", err)
	}
	r, _ := fs.Open(path)
	defer r.Close()
	img, err := png.Decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 6 || b.Dy() != 6 {
		t.Fatalf("tiled bounds = %dx%d, want 6x6", b.Dx(), b.Dy())
	}
	// Every tile repeats the source pixel.
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			v, _, _, _ := img.At(c*2+0, r*3+1).RGBA()
			if v>>8 != 0 {
				t.Errorf("tile (%d,%d) pixel = %d, want 0", r, c, v>>8)
			}
		}
	}
}

func TestWriteBitmapRejectsNon2D(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	mask := voxel.NewMask(2, 2, 2)
	if _, err := WriteBitmap(fs, mask, "bad.png", BitmapOptions{}); err == nil {
		t.Fatal("expected error for 3-D mask")
	}
}
