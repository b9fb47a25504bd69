package field

import "fmt"

// Axis indices for the polarisation components of a capture.
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// Axes holds the mesh coordinates of a capture, one ordered sequence of
// positions per spatial dimension, in meters. Depending on context they are
// node positions (as sampled) or cell-center positions.
type Axes struct {
	X []float64
	Y []float64
	Z []float64
}

// RawCapture is one probe snapshot: up to three per-axis index tensors of
// shape [x, y, z, frequency], the mesh-node coordinates they were sampled
// at, and the number of frequency samples. A nil component means that
// polarisation was not recorded.
type RawCapture struct {
	Components [3]*Tensor
	Axes       Axes
	FreqPoints int
}

// Recorded returns the indices of the components present in the capture, in
// axis order.
func (c *RawCapture) Recorded() []int {
	var rec []int
	for i, t := range c.Components {
		if t != nil {
			rec = append(rec, i)
		}
	}
	return rec
}

// CombineAxes stacks the recorded per-axis tensors into a single tensor of
// shape [x, y, z, frequency, k] where k is the number of recorded axes.
// Unrecorded axes are absent from the stack, never zero-filled, so fusion
// and segmentation operate only over what the probe actually measured.
func CombineAxes(c *RawCapture) (*Tensor, error) {
	rec := c.Recorded()
	if len(rec) == 0 {
		return nil, fmt.Errorf("field: capture has no recorded axis components")
	}

	first := c.Components[rec[0]]
	if len(first.Shape) != 4 {
		return nil, fmt.Errorf("field: capture component has rank %d, want 4", len(first.Shape))
	}
	for _, i := range rec[1:] {
		if !first.SameShape(c.Components[i]) {
			return nil, &ShapeMismatchError{Want: first.Shape, Got: c.Components[i].Shape}
		}
	}

	k := len(rec)
	shape := append(append([]int(nil), first.Shape...), k)
	out := NewTensor(shape...)
	cells := first.Len()
	for off := 0; off < cells; off++ {
		for j, i := range rec {
			out.Data[off*k+j] = c.Components[i].Data[off]
		}
	}
	return out, nil
}
