package segment

import (
	"github.com/fabmask-data/maskforge/internal/voxel"
)

// Material is one distinct index vector found in the fused field, with the
// mask of every cell carrying that vector. Materials partition the
// non-free-space cells: no cell belongs to two materials.
type Material struct {
	ID    int
	Index []complex128 // the identifying [frequency, axis] vector
	Mask  *voxel.Mask
}

// Structure is one maximal connected component of a material's mask.
// Structure ids are unique across all materials. LayerID is 0 until layer
// grouping assigns the structure to a layer.
type Structure struct {
	ID         int
	MaterialID int
	LayerID    int
	Mask       *voxel.Mask
}

// Layer is the union of all structures of one material sharing the same
// vertical voxel extent. Layer ids count from 1 within each material, in
// the order distinct extents are first seen.
type Layer struct {
	ID         int
	MaterialID int
	MinZ       int
	MaxZ       int
	Mask       *voxel.Mask
}

// IndexModel is the aggregate result of a segmentation: cell-center
// coordinate axes, the overall occupancy mask, and the material /
// structure / layer lists. Structures and layers refer to their parents by
// id only. The model is not modified after Segment returns it.
type IndexModel struct {
	X, Y, Z []float64 // cell-center positions, meters

	Occupied   *voxel.Mask
	Materials  []*Material
	Structures []*Structure
	Layers     []*Layer
}

// Material returns the material with the given id, or nil.
func (m *IndexModel) Material(id int) *Material {
	for _, mat := range m.Materials {
		if mat.ID == id {
			return mat
		}
	}
	return nil
}

// StructuresOf returns the structures belonging to the given material, in
// id order.
func (m *IndexModel) StructuresOf(materialID int) []*Structure {
	var out []*Structure
	for _, s := range m.Structures {
		if s.MaterialID == materialID {
			out = append(out, s)
		}
	}
	return out
}

// LayersOf returns the layers belonging to the given material, in id order.
func (m *IndexModel) LayersOf(materialID int) []*Layer {
	var out []*Layer
	for _, l := range m.Layers {
		if l.MaterialID == materialID {
			out = append(out, l)
		}
	}
	return out
}
