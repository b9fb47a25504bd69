package field

import "fmt"

// FreeSpace is the sentinel index value meaning "no material present".
// A cell is free space iff its value equals FreeSpace on every axis and at
// every frequency sample.
const FreeSpace = complex(1, 0)

// Tensor is a dense complex tensor in row-major order with an explicit
// shape. The last axes of a combined index tensor are [frequency, axis].
type Tensor struct {
	Shape []int
	Data  []complex128
}

// NewTensor allocates a zero tensor with the given shape.
func NewTensor(shape ...int) *Tensor {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			panic(fmt.Sprintf("field: non-positive tensor dimension %d", s))
		}
		n *= s
	}
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  make([]complex128, n),
	}
}

// Len returns the total number of elements.
func (t *Tensor) Len() int { return len(t.Data) }

// Offset converts a multi-index to a flat row-major offset.
func (t *Tensor) Offset(idx ...int) int {
	if len(idx) != len(t.Shape) {
		panic(fmt.Sprintf("field: index rank %d against tensor rank %d", len(idx), len(t.Shape)))
	}
	off := 0
	for d, i := range idx {
		if i < 0 || i >= t.Shape[d] {
			panic(fmt.Sprintf("field: index %d out of range for axis %d (size %d)", i, d, t.Shape[d]))
		}
		off = off*t.Shape[d] + i
	}
	return off
}

// At returns the element at the given multi-index.
func (t *Tensor) At(idx ...int) complex128 { return t.Data[t.Offset(idx...)] }

// Set stores v at the given multi-index.
func (t *Tensor) Set(v complex128, idx ...int) { t.Data[t.Offset(idx...)] = v }

// SameShape reports whether two tensors have identical shapes.
func (t *Tensor) SameShape(o *Tensor) bool {
	if len(t.Shape) != len(o.Shape) {
		return false
	}
	for d := range t.Shape {
		if t.Shape[d] != o.Shape[d] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{
		Shape: append([]int(nil), t.Shape...),
		Data:  make([]complex128, len(t.Data)),
	}
	copy(c.Data, t.Data)
	return c
}
