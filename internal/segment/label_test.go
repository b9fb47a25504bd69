package segment

import (
	"testing"

	"github.com/fabmask-data/maskforge/internal/voxel"
)

func TestLabelDiagonal2D(t *testing.T) {
	// Diagonal chain: full connectivity makes it one component.
	m := voxel.NewMask(3, 3)
	m.Set(true, 0, 0)
	m.Set(true, 1, 1)
	m.Set(true, 2, 2)

	labels, n := Label(m)
	if n != 1 {
		t.Fatalf("got %d components, want 1", n)
	}
	if labels[m.Offset(0, 0)] != labels[m.Offset(2, 2)] {
		t.Error("diagonal cells should share a label")
	}
}

func TestLabelSeparate2D(t *testing.T) {
	m := voxel.NewMask(5, 5)
	m.Set(true, 0, 0)
	m.Set(true, 0, 2) // gap of one cell: separate component
	m.Set(true, 4, 4)

	_, n := Label(m)
	if n != 3 {
		t.Errorf("got %d components, want 3", n)
	}
}

func TestLabel3DCornerConnectivity(t *testing.T) {
	// Two voxels touching only at a 3-D corner: 26-connectivity joins them.
	m := voxel.NewMask(2, 2, 2)
	m.Set(true, 0, 0, 0)
	m.Set(true, 1, 1, 1)

	_, n := Label(m)
	if n != 1 {
		t.Errorf("got %d components, want 1", n)
	}
}

func TestLabelScanOrder(t *testing.T) {
	// Labels follow row-major first-encounter order.
	m := voxel.NewMask(3, 3)
	m.Set(true, 2, 0)
	m.Set(true, 0, 2)

	labels, n := Label(m)
	if n != 2 {
		t.Fatalf("got %d components, want 2", n)
	}
	if labels[m.Offset(0, 2)] != 1 || labels[m.Offset(2, 0)] != 2 {
		t.Errorf("labels = %d,%d, want 1,2", labels[m.Offset(0, 2)], labels[m.Offset(2, 0)])
	}
}

func TestLabelEmpty(t *testing.T) {
	if _, n := Label(voxel.NewMask(4, 4)); n != 0 {
		t.Errorf("empty mask produced %d components", n)
	}
}
