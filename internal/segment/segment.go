package segment

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/fabmask-data/maskforge/internal/field"
	"github.com/fabmask-data/maskforge/internal/voxel"
)

// EmptyRegionError reports a fused field with no non-free-space cells: the
// entire sampled region is free space and there is nothing to segment.
type EmptyRegionError struct{}

func (*EmptyRegionError) Error() string {
	return "segment: fused field contains no material cells"
}

// idCounter hands out structure ids. A single counter spans all materials
// of one segmentation call, so structure ids are globally unique and never
// reset per material.
type idCounter struct{ next int }

func newIDCounter() *idCounter { return &idCounter{next: 1} }

func (c *idCounter) Take() int {
	v := c.next
	c.next++
	return v
}

// Segment builds the material / structure / layer graph from one fused
// combined field of shape [x, y, z, frequency, axis] and the mesh-node axes
// it was sampled on. Node axes are converted to cell-center axes on the
// returned model.
func Segment(fused *field.Tensor, nodeAxes field.Axes) (*IndexModel, error) {
	if len(fused.Shape) != 5 {
		return nil, fmt.Errorf("segment: fused field has rank %d, want 5", len(fused.Shape))
	}
	nx, ny, nz := fused.Shape[0], fused.Shape[1], fused.Shape[2]
	span := fused.Shape[3] * fused.Shape[4]

	materials, err := findMaterials(fused, nx, ny, nz, span)
	if err != nil {
		return nil, err
	}

	counter := newIDCounter()
	var structures []*Structure
	for _, mat := range materials {
		structures = append(structures, splitStructures(mat, counter)...)
	}

	layers := groupLayers(materials, structures)

	occupied := voxel.NewMask(nx, ny, nz)
	for _, mat := range materials {
		if err := occupied.Or(mat.Mask); err != nil {
			return nil, err
		}
	}

	return &IndexModel{
		X:          voxel.CellCenters(nodeAxes.X),
		Y:          voxel.CellCenters(nodeAxes.Y),
		Z:          voxel.CellCenters(nodeAxes.Z),
		Occupied:   occupied,
		Materials:  materials,
		Structures: structures,
		Layers:     layers,
	}, nil
}

// findMaterials masks out free-space cells and assigns one material per
// distinct index vector, numbered 1..K in order of first encounter.
func findMaterials(fused *field.Tensor, nx, ny, nz, span int) ([]*Material, error) {
	var materials []*Material
	byKey := make(map[string]*Material)

	cells := nx * ny * nz
	for cell := 0; cell < cells; cell++ {
		vec := fused.Data[cell*span : (cell+1)*span]
		if isFreeSpace(vec) {
			continue
		}

		key := vectorKey(vec)
		mat, ok := byKey[key]
		if !ok {
			mat = &Material{
				ID:    len(materials) + 1,
				Index: append([]complex128(nil), vec...),
				Mask:  voxel.NewMask(nx, ny, nz),
			}
			byKey[key] = mat
			materials = append(materials, mat)
		}
		mat.Mask.Data[cell] = true
	}

	if len(materials) == 0 {
		return nil, &EmptyRegionError{}
	}
	return materials, nil
}

// splitStructures labels the connected components of one material's mask
// and wraps each as a structure, taking ids from the shared counter.
func splitStructures(mat *Material, counter *idCounter) []*Structure {
	labels, n := Label(mat.Mask)

	structures := make([]*Structure, n)
	for i := range structures {
		structures[i] = &Structure{
			ID:         counter.Take(),
			MaterialID: mat.ID,
			Mask:       voxel.NewMask(mat.Mask.Shape...),
		}
	}
	for off, l := range labels {
		if l > 0 {
			structures[l-1].Mask.Data[off] = true
		}
	}
	return structures
}

// groupLayers groups each material's structures by vertical voxel extent.
// Structures sharing both extent bounds and the material become one layer;
// each structure's LayerID is updated in place. Layer ids count from 1
// within each material, in the order distinct extents are first seen.
func groupLayers(materials []*Material, structures []*Structure) []*Layer {
	var layers []*Layer
	for _, mat := range materials {
		type extent struct{ minZ, maxZ int }
		byExtent := make(map[extent]*Layer)
		nextID := 1

		for _, s := range structures {
			if s.MaterialID != mat.ID {
				continue
			}
			minZ, maxZ := zExtent(s.Mask)
			ext := extent{minZ, maxZ}

			layer, ok := byExtent[ext]
			if !ok {
				layer = &Layer{
					ID:         nextID,
					MaterialID: mat.ID,
					MinZ:       minZ,
					MaxZ:       maxZ,
					Mask:       s.Mask.Clone(),
				}
				nextID++
				byExtent[ext] = layer
				layers = append(layers, layer)
			} else {
				layer.Mask.Or(s.Mask)
			}
			s.LayerID = layer.ID
		}
	}
	return layers
}

// zExtent returns the minimum and maximum z index of the true cells of a
// 3-D mask.
func zExtent(m *voxel.Mask) (minZ, maxZ int) {
	nz := m.Shape[2]
	minZ, maxZ = nz, -1
	cellsPerX := m.Shape[1] * nz
	for off, v := range m.Data {
		if !v {
			continue
		}
		z := (off % cellsPerX) % nz
		if z < minZ {
			minZ = z
		}
		if z > maxZ {
			maxZ = z
		}
	}
	return minZ, maxZ
}

// isFreeSpace reports whether a cell vector equals the free-space sentinel
// at every frequency and axis.
func isFreeSpace(vec []complex128) bool {
	for _, v := range vec {
		if v != field.FreeSpace {
			return false
		}
	}
	return true
}

// vectorKey builds a map key from the exact bit pattern of a cell vector,
// so material identity is bit-exact equality across all frequencies and
// axes.
func vectorKey(vec []complex128) string {
	buf := make([]byte, 16*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[16*i:], math.Float64bits(real(v)))
		binary.LittleEndian.PutUint64(buf[16*i+8:], math.Float64bits(imag(v)))
	}
	return string(buf)
}
