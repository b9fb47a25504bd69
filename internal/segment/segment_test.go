package segment

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fabmask-data/maskforge/internal/field"
	"github.com/fabmask-data/maskforge/internal/voxel"
)

// buildField makes a combined field of shape [nx,ny,nz,1,1] where every
// cell holds free space except those listed in cells, which hold value.
func buildField(nx, ny, nz int, value complex128, cells [][3]int) *field.Tensor {
	t := field.NewTensor(nx, ny, nz, 1, 1)
	for i := range t.Data {
		t.Data[i] = field.FreeSpace
	}
	for _, c := range cells {
		t.Set(value, c[0], c[1], c[2], 0, 0)
	}
	return t
}

func axes3(nx, ny, nz int) field.Axes {
	mk := func(n int) []float64 {
		a := make([]float64, n)
		for i := range a {
			a[i] = float64(i) * 1e-6
		}
		return a
	}
	return field.Axes{X: mk(nx), Y: mk(ny), Z: mk(nz)}
}

func TestSegmentEmptyRegion(t *testing.T) {
	f := buildField(3, 3, 1, 2.0, nil)
	_, err := Segment(f, axes3(3, 3, 1))
	if err == nil {
		t.Fatal("all-free-space field should fail")
	}
	var empty *EmptyRegionError
	if !errors.As(err, &empty) {
		t.Fatalf("error %v is not an EmptyRegionError", err)
	}
}

func TestSegmentMaterialPartition(t *testing.T) {
	// Two materials: value 2.0 in one corner block, 3.5 in the other.
	f := buildField(4, 4, 1, 2.0, [][3]int{{0, 0, 0}, {0, 1, 0}, {1, 0, 0}})
	f.Set(3.5, 3, 3, 0, 0, 0)
	f.Set(3.5, 3, 2, 0, 0, 0)

	model, err := Segment(f, axes3(4, 4, 1))
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(model.Materials) != 2 {
		t.Fatalf("got %d materials, want 2", len(model.Materials))
	}

	// Ids follow first-encounter order: value 2.0 (at 0,0,0) first.
	if model.Materials[0].Index[0] != 2.0 || model.Materials[1].Index[0] != 3.5 {
		t.Errorf("material order wrong: %v then %v",
			model.Materials[0].Index[0], model.Materials[1].Index[0])
	}

	// Partition: union of material masks equals occupancy, intersections empty.
	union := voxel.NewMask(4, 4, 1)
	for _, mat := range model.Materials {
		for off, v := range mat.Mask.Data {
			if v && union.Data[off] {
				t.Fatalf("cell %d claimed by two materials", off)
			}
		}
		union.Or(mat.Mask)
	}
	if diff := cmp.Diff(model.Occupied.Data, union.Data); diff != "" {
		t.Errorf("occupancy differs from material union (-want +got):\n%s", diff)
	}
	if model.Occupied.Count() != 5 {
		t.Errorf("occupancy count = %d, want 5", model.Occupied.Count())
	}
}

func TestSegmentStructureCoverage(t *testing.T) {
	// One material in two separate blobs plus a second material: structure
	// ids must be globally unique, and each material's structures must be
	// disjoint and cover its mask.
	f := buildField(5, 5, 1, 2.0, [][3]int{{0, 0, 0}, {0, 1, 0}, {4, 4, 0}})
	f.Set(3.0, 2, 2, 0, 0, 0)

	model, err := Segment(f, axes3(5, 5, 1))
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(model.Structures) != 3 {
		t.Fatalf("got %d structures, want 3", len(model.Structures))
	}

	seen := map[int]bool{}
	for _, s := range model.Structures {
		if s.ID <= 0 || seen[s.ID] {
			t.Errorf("structure id %d not positive and unique", s.ID)
		}
		seen[s.ID] = true
	}

	for _, mat := range model.Materials {
		union := voxel.NewMask(5, 5, 1)
		for _, s := range model.StructuresOf(mat.ID) {
			for off, v := range s.Mask.Data {
				if v && union.Data[off] {
					t.Fatalf("material %d: cell %d in two structures", mat.ID, off)
				}
			}
			union.Or(s.Mask)
		}
		if diff := cmp.Diff(mat.Mask.Data, union.Data); diff != "" {
			t.Errorf("material %d: structures do not cover mask (-want +got):\n%s", mat.ID, diff)
		}
	}
}

func TestSegmentCornerAdjacency(t *testing.T) {
	// Two 2x2 blocks touching only at a corner. Full connectivity joins
	// them into a single structure.
	cells := [][3]int{
		{0, 0, 0}, {0, 1, 0}, {1, 0, 0}, {1, 1, 0},
		{2, 2, 0}, {2, 3, 0}, {3, 2, 0}, {3, 3, 0},
	}
	f := buildField(4, 4, 1, 2.0, cells)

	model, err := Segment(f, axes3(4, 4, 1))
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(model.Structures) != 1 {
		t.Errorf("corner-adjacent blocks segmented into %d structures, want 1", len(model.Structures))
	}
}

func TestSegmentLayerGrouping(t *testing.T) {
	// Three columns of one material: two spanning z 2..5, one spanning
	// z 2..6. The first two share a layer; the third gets its own.
	var cells [][3]int
	for z := 2; z <= 5; z++ {
		cells = append(cells, [3]int{0, 0, z}, [3]int{4, 4, z})
	}
	for z := 2; z <= 6; z++ {
		cells = append(cells, [3]int{8, 8, z})
	}
	f := buildField(9, 9, 8, 2.0, cells)

	model, err := Segment(f, axes3(9, 9, 8))
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(model.Structures) != 3 {
		t.Fatalf("got %d structures, want 3", len(model.Structures))
	}
	if len(model.Layers) != 2 {
		t.Fatalf("got %d layers, want 2", len(model.Layers))
	}

	first := model.Layers[0]
	if first.ID != 1 || first.MinZ != 2 || first.MaxZ != 5 {
		t.Errorf("layer 1 = id %d extent (%d,%d), want id 1 extent (2,5)", first.ID, first.MinZ, first.MaxZ)
	}
	second := model.Layers[1]
	if second.ID != 2 || second.MinZ != 2 || second.MaxZ != 6 {
		t.Errorf("layer 2 = id %d extent (%d,%d), want id 2 extent (2,6)", second.ID, second.MinZ, second.MaxZ)
	}

	// Every structure got a layer, and layer masks are member unions.
	byLayer := map[int]int{}
	for _, s := range model.Structures {
		if s.LayerID == 0 {
			t.Errorf("structure %d has no layer", s.ID)
		}
		byLayer[s.LayerID]++
	}
	if byLayer[1] != 2 || byLayer[2] != 1 {
		t.Errorf("layer membership = %v, want {1:2, 2:1}", byLayer)
	}
	if first.Mask.Count() != 8 {
		t.Errorf("layer 1 mask count = %d, want 8", first.Mask.Count())
	}

	// A single-member layer's mask is an independent copy, not a view of
	// its structure's mask.
	second.Mask.Set(false, 8, 8, 2)
	for _, s := range model.Structures {
		if s.LayerID == second.ID && !s.Mask.At(8, 8, 2) {
			t.Error("layer mask aliases its structure's mask")
		}
	}
}

func TestSegmentLayerDeterminism(t *testing.T) {
	var cells [][3]int
	for z := 2; z <= 5; z++ {
		cells = append(cells, [3]int{0, 0, z}, [3]int{4, 4, z})
	}
	for z := 2; z <= 6; z++ {
		cells = append(cells, [3]int{8, 8, z})
	}

	run := func() []int {
		f := buildField(9, 9, 8, 2.0, cells)
		model, err := Segment(f, axes3(9, 9, 8))
		if err != nil {
			t.Fatalf("Segment failed: %v", err)
		}
		var assignment []int
		for _, s := range model.Structures {
			assignment = append(assignment, s.ID, s.LayerID)
		}
		return assignment
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("layer assignment not deterministic (-first +second):\n%s", diff)
	}
}

func TestSegmentCellCenterAxes(t *testing.T) {
	f := buildField(3, 3, 1, 2.0, [][3]int{{1, 1, 0}})
	model, err := Segment(f, axes3(3, 3, 1))
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	// Node axes of length 3 become cell-center axes of length 2; a
	// single-node z axis is unchanged.
	if len(model.X) != 2 || len(model.Y) != 2 || len(model.Z) != 1 {
		t.Errorf("axis lengths = %d,%d,%d, want 2,2,1", len(model.X), len(model.Y), len(model.Z))
	}
	if model.X[0] != 0.5e-6 {
		t.Errorf("X[0] = %v, want 0.5e-6", model.X[0])
	}
}
