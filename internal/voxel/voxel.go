// Package voxel provides boolean occupancy masks over sampling grids and
// the node-to-cell transforms shared by segmentation and export.
package voxel

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Mask is a dense boolean grid in row-major order with an explicit shape.
type Mask struct {
	Shape []int
	Data  []bool
}

// NewMask allocates an all-false mask with the given shape.
func NewMask(shape ...int) *Mask {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			panic(fmt.Sprintf("voxel: non-positive mask dimension %d", s))
		}
		n *= s
	}
	return &Mask{
		Shape: append([]int(nil), shape...),
		Data:  make([]bool, n),
	}
}

// Offset converts a multi-index to a flat row-major offset.
func (m *Mask) Offset(idx ...int) int {
	if len(idx) != len(m.Shape) {
		panic(fmt.Sprintf("voxel: index rank %d against mask rank %d", len(idx), len(m.Shape)))
	}
	off := 0
	for d, i := range idx {
		if i < 0 || i >= m.Shape[d] {
			panic(fmt.Sprintf("voxel: index %d out of range for axis %d (size %d)", i, d, m.Shape[d]))
		}
		off = off*m.Shape[d] + i
	}
	return off
}

// At returns the cell at the given multi-index.
func (m *Mask) At(idx ...int) bool { return m.Data[m.Offset(idx...)] }

// Set stores v at the given multi-index.
func (m *Mask) Set(v bool, idx ...int) { m.Data[m.Offset(idx...)] = v }

// Count returns the number of true cells.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Data {
		if v {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	c := &Mask{
		Shape: append([]int(nil), m.Shape...),
		Data:  make([]bool, len(m.Data)),
	}
	copy(c.Data, m.Data)
	return c
}

// SameShape reports whether two masks have identical shapes.
func (m *Mask) SameShape(o *Mask) bool {
	if len(m.Shape) != len(o.Shape) {
		return false
	}
	for d := range m.Shape {
		if m.Shape[d] != o.Shape[d] {
			return false
		}
	}
	return true
}

// Or sets m to the element-wise union of m and o.
func (m *Mask) Or(o *Mask) error {
	if !m.SameShape(o) {
		return fmt.Errorf("voxel: cannot union masks of shape %v and %v", m.Shape, o.Shape)
	}
	for i, v := range o.Data {
		if v {
			m.Data[i] = true
		}
	}
	return nil
}

// ShiftToCells converts a 2-D mask sampled at grid-node intersections into
// a mask of cell occupancy, reducing each dimension by one. A cell is
// occupied if any of its four bounding nodes is occupied. This is a
// dilation, not an interpolation: it avoids false gaps at nodes that sit
// exactly on a region boundary.
func ShiftToCells(node *Mask) (*Mask, error) {
	if len(node.Shape) != 2 {
		return nil, fmt.Errorf("voxel: ShiftToCells wants a 2-D mask, got rank %d", len(node.Shape))
	}
	n, m := node.Shape[0], node.Shape[1]
	if n < 2 || m < 2 {
		return nil, fmt.Errorf("voxel: ShiftToCells wants at least 2 nodes per axis, got %dx%d", n, m)
	}

	cells := NewMask(n-1, m-1)
	for i := 0; i < n-1; i++ {
		for j := 0; j < m-1; j++ {
			occupied := node.At(i, j) || node.At(i+1, j) ||
				node.At(i, j+1) || node.At(i+1, j+1)
			cells.Set(occupied, i, j)
		}
	}
	return cells, nil
}

// CellCenters converts mesh-node positions to cell-center positions by
// averaging consecutive node pairs. Axes with fewer than two nodes are
// returned unchanged.
func CellCenters(nodes []float64) []float64 {
	if len(nodes) < 2 {
		return append([]float64(nil), nodes...)
	}
	centers := make([]float64, len(nodes)-1)
	floats.AddTo(centers, nodes[:len(nodes)-1], nodes[1:])
	floats.Scale(0.5, centers)
	return centers
}
