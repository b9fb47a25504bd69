package field

import "fmt"

// ShapeMismatchError reports captures whose shapes disagree. Fusion aborts
// before producing any partial result.
type ShapeMismatchError struct {
	Want []int
	Got  []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("field: capture shape %v does not match %v", e.Got, e.Want)
}

// Fuse combines N same-shape combined captures (shape [..., frequency,
// axis], as produced by CombineAxes) into one consensus tensor. A single
// capture is returned unchanged. With more than one, a grid cell keeps its
// value iff every capture holds the identical [frequency, axis] vector
// there; disagreement at any frequency or axis forces the whole cell to
// FreeSpace. Disagreement is evidence of a sub-cell boundary, and free
// space is the conservative report, not an average.
func Fuse(captures []*Tensor) (*Tensor, error) {
	if len(captures) == 0 {
		return nil, fmt.Errorf("field: no captures to fuse")
	}

	first := captures[0]
	for _, c := range captures[1:] {
		if !first.SameShape(c) {
			return nil, &ShapeMismatchError{Want: first.Shape, Got: c.Shape}
		}
	}

	if len(captures) == 1 {
		return first, nil
	}

	if len(first.Shape) < 2 {
		return nil, fmt.Errorf("field: combined capture has rank %d, want at least 2", len(first.Shape))
	}
	// One cell spans the trailing [frequency, axis] block.
	span := first.Shape[len(first.Shape)-1] * first.Shape[len(first.Shape)-2]

	fused := first.Clone()
	for base := 0; base < len(first.Data); base += span {
		agree := true
	cell:
		for off := base; off < base+span; off++ {
			v := first.Data[off]
			for _, c := range captures[1:] {
				if c.Data[off] != v {
					agree = false
					break cell
				}
			}
		}
		if !agree {
			for off := base; off < base+span; off++ {
				fused.Data[off] = FreeSpace
			}
		}
	}
	return fused, nil
}
