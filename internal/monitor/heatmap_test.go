package monitor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fabmask-data/maskforge/internal/field"
)

func testField() (*field.Tensor, field.Axes) {
	t := field.NewTensor(4, 4, 3, 1, 3)
	for i := range t.Data {
		t.Data[i] = field.FreeSpace
	}
	for k := 0; k < 3; k++ {
		t.Set(complex(2.25, 0), 1, 1, 1, 0, k)
		t.Set(complex(2.25, 0), 2, 1, 1, 0, k)
	}
	axes := field.Axes{
		X: []float64{0, 1e-7, 2e-7, 3e-7},
		Y: []float64{0, 1e-7, 2e-7, 3e-7},
		Z: []float64{0, 1e-7, 2e-7},
	}
	return t, axes
}

func TestWriteHeatmap(t *testing.T) {
	fused, axes := testField()
	path := filepath.Join(t.TempDir(), "plane.png")

	if err := WriteHeatmap(fused, axes, -1, path); err != nil {
		t.Fatalf("WriteHeatmap: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() == 0 {
		t.Error("heatmap file is empty")
	}
}

func TestWriteHeatmapValidation(t *testing.T) {
	fused, axes := testField()
	path := filepath.Join(t.TempDir(), "bad.png")

	if err := WriteHeatmap(field.NewTensor(2, 2), axes, 0, path); err == nil {
		t.Error("expected error for wrong rank")
	}
	if err := WriteHeatmap(fused, axes, 99, path); err == nil {
		t.Error("expected error for out-of-range z index")
	}
	short := field.Axes{X: axes.X[:2], Y: axes.Y, Z: axes.Z}
	if err := WriteHeatmap(fused, short, 0, path); err == nil {
		t.Error("expected error for axis mismatch")
	}
}

func TestMakePreviewOutputDir(t *testing.T) {
	dir := MakePreviewOutputDir("plots", "runs/chip_a.snapshot")
	if filepath.Dir(filepath.Dir(dir)) != "plots" || filepath.Base(filepath.Dir(dir)) != "chip_a" {
		t.Errorf("unexpected dir %q", dir)
	}
	live := MakePreviewOutputDir("plots", "")
	if filepath.Dir(live) != "plots" {
		t.Errorf("unexpected dir %q", live)
	}
}
