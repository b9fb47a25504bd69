package segment

import (
	"github.com/fabmask-data/maskforge/internal/voxel"
)

// Label assigns positive component labels to the true cells of a mask of
// any rank, using full neighbor connectivity (all cells differing by at
// most one step along every axis: 8 neighbors in 2-D, 26 in 3-D). Labels
// are assigned in row-major scan order starting at 1, so the result is
// deterministic for a given mask. It returns one label per cell (0 for
// false cells) and the number of components.
func Label(m *voxel.Mask) ([]int, int) {
	labels := make([]int, len(m.Data))
	rank := len(m.Shape)
	offsets := neighborOffsets(rank)

	coords := make([]int, rank)
	ncoords := make([]int, rank)
	var queue []int

	next := 0
	for start, v := range m.Data {
		if !v || labels[start] != 0 {
			continue
		}
		next++
		labels[start] = next
		queue = append(queue[:0], start)

		for len(queue) > 0 {
			cur := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			decode(cur, m.Shape, coords)

			for _, off := range offsets {
				ok := true
				for d := range coords {
					ncoords[d] = coords[d] + off[d]
					if ncoords[d] < 0 || ncoords[d] >= m.Shape[d] {
						ok = false
						break
					}
				}
				if !ok {
					continue
				}
				n := m.Offset(ncoords...)
				if m.Data[n] && labels[n] == 0 {
					labels[n] = next
					queue = append(queue, n)
				}
			}
		}
	}
	return labels, next
}

// neighborOffsets enumerates every non-zero offset in {-1,0,1}^rank.
func neighborOffsets(rank int) [][]int {
	total := 1
	for i := 0; i < rank; i++ {
		total *= 3
	}
	offsets := make([][]int, 0, total-1)
	for n := 0; n < total; n++ {
		off := make([]int, rank)
		v, zero := n, true
		for d := rank - 1; d >= 0; d-- {
			off[d] = v%3 - 1
			v /= 3
			if off[d] != 0 {
				zero = false
			}
		}
		if !zero {
			offsets = append(offsets, off)
		}
	}
	return offsets
}

// decode converts a flat row-major offset to a multi-index.
func decode(off int, shape, coords []int) {
	for d := len(shape) - 1; d >= 0; d-- {
		coords[d] = off % shape[d]
		off /= shape[d]
	}
}
