package export

import (
	"fmt"
	"sort"

	"github.com/fabmask-data/maskforge/internal/segment"
	"github.com/fabmask-data/maskforge/internal/voxel"
)

// Polygon is one simple closed polygon in working-unit coordinates. The
// first point is not repeated at the end.
type Polygon struct {
	X []float64
	Y []float64
}

// Component is one connected group of occupied cells of the export mask,
// as (ix, iy) indices in row-major scan order.
type Component struct {
	Cells [][2]int
}

// components splits a 2-D mask into its connected components using the
// same full-connectivity rule as segmentation.
func components(mask *voxel.Mask) []Component {
	labels, n := segment.Label(mask)
	if n == 0 {
		return nil
	}
	comps := make([]Component, n)
	nx, ny := mask.Shape[0], mask.Shape[1]
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			if l := labels[i*ny+j]; l > 0 {
				comps[l-1].Cells = append(comps[l-1].Cells, [2]int{i, j})
			}
		}
	}
	return comps
}

// PolygonStrategy turns one connected component into a polygon. The xs/ys
// are the cell-center coordinates of the mask in working units; pixel is
// the cell pitch in the same units.
type PolygonStrategy interface {
	Name() string
	Outline(comp Component, xs, ys []float64, pixel float64) (Polygon, error)
}

// StrategyByName resolves a strategy by its configuration name.
func StrategyByName(name string) (PolygonStrategy, error) {
	switch name {
	case "", ConvexHull{}.Name():
		return ConvexHull{}, nil
	case BoundaryTrace{}.Name():
		return BoundaryTrace{}, nil
	default:
		return nil, fmt.Errorf("export: unknown polygon strategy %q (valid: convex-hull, boundary-trace)", name)
	}
}

// ConvexHull approximates a component by the convex hull of its cells'
// corner points. Concave or ring-shaped components are misrepresented by
// their hull; BoundaryTrace produces the exact outline instead. Using the
// corner points rather than centers keeps single-cell and single-row
// components from collapsing to degenerate polygons.
type ConvexHull struct{}

func (ConvexHull) Name() string { return "convex-hull" }

func (ConvexHull) Outline(comp Component, xs, ys []float64, pixel float64) (Polygon, error) {
	if len(comp.Cells) == 0 {
		return Polygon{}, fmt.Errorf("export: empty component")
	}

	h := pixel / 2
	pts := make([][2]float64, 0, 4*len(comp.Cells))
	for _, c := range comp.Cells {
		cx, cy := xs[c[0]], ys[c[1]]
		pts = append(pts,
			[2]float64{cx - h, cy - h},
			[2]float64{cx + h, cy - h},
			[2]float64{cx - h, cy + h},
			[2]float64{cx + h, cy + h},
		)
	}

	hull := convexHull(pts)
	if len(hull) < 3 {
		return Polygon{}, fmt.Errorf("export: degenerate hull with %d vertices", len(hull))
	}

	poly := Polygon{X: make([]float64, len(hull)), Y: make([]float64, len(hull))}
	for i, p := range hull {
		poly.X[i] = p[0]
		poly.Y[i] = p[1]
	}
	return poly, nil
}

// convexHull computes the convex hull of a point set with the monotone
// chain algorithm, returning vertices in counter-clockwise order.
func convexHull(pts [][2]float64) [][2]float64 {
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})
	// Drop duplicates so collinear handling stays simple.
	uniq := pts[:0]
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			uniq = append(uniq, p)
		}
	}
	pts = uniq
	if len(pts) < 3 {
		return pts
	}

	cross := func(o, a, b [2]float64) float64 {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}

	var lower [][2]float64
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	var upper [][2]float64
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// BoundaryTrace produces the exact rectilinear outline of a component by
// chaining the boundary edges between occupied and empty cells. Only the
// outer contour is emitted; interior holes are not representable as a
// single GDSII boundary.
type BoundaryTrace struct{}

func (BoundaryTrace) Name() string { return "boundary-trace" }

func (BoundaryTrace) Outline(comp Component, xs, ys []float64, pixel float64) (Polygon, error) {
	if len(comp.Cells) == 0 {
		return Polygon{}, fmt.Errorf("export: empty component")
	}

	occupied := make(map[[2]int]bool, len(comp.Cells))
	for _, c := range comp.Cells {
		occupied[c] = true
	}

	// Directed edges on the node lattice with the interior on the left.
	// The node (i, j) sits at the lower-left corner of cell (i, j).
	outgoing := make(map[[2]int][][2]int)
	for c := range occupied {
		i, j := c[0], c[1]
		if !occupied[[2]int{i, j - 1}] {
			outgoing[[2]int{i, j}] = append(outgoing[[2]int{i, j}], [2]int{i + 1, j})
		}
		if !occupied[[2]int{i + 1, j}] {
			outgoing[[2]int{i + 1, j}] = append(outgoing[[2]int{i + 1, j}], [2]int{i + 1, j + 1})
		}
		if !occupied[[2]int{i, j + 1}] {
			outgoing[[2]int{i + 1, j + 1}] = append(outgoing[[2]int{i + 1, j + 1}], [2]int{i, j + 1})
		}
		if !occupied[[2]int{i - 1, j}] {
			outgoing[[2]int{i, j + 1}] = append(outgoing[[2]int{i, j + 1}], [2]int{i, j})
		}
	}

	used := make(map[gridEdge]bool)
	var best [][2]int
	bestArea := 0.0

	for start, tos := range outgoing {
		for _, to := range tos {
			if used[gridEdge{start, to}] {
				continue
			}
			loop := traceLoop(start, to, outgoing, used)
			if a := loopArea(loop); a > bestArea {
				bestArea = a
				best = loop
			}
		}
	}
	if len(best) < 4 {
		return Polygon{}, fmt.Errorf("export: boundary trace produced no closed loop")
	}

	best = rotateToMin(dropCollinear(best))

	poly := Polygon{X: make([]float64, len(best)), Y: make([]float64, len(best))}
	for i, n := range best {
		poly.X[i] = nodeCoord(xs, n[0], pixel)
		poly.Y[i] = nodeCoord(ys, n[1], pixel)
	}
	return poly, nil
}

// gridEdge is one directed boundary edge between lattice nodes.
type gridEdge struct{ from, to [2]int }

// traceLoop follows directed edges from start until it returns to start.
// At pinch nodes with two outgoing edges it takes the right-most turn
// relative to the incoming direction, so a component whose lobes touch
// only at a corner is still traced as one contour.
func traceLoop(start, first [2]int, outgoing map[[2]int][][2]int, used map[gridEdge]bool) [][2]int {
	loop := [][2]int{start}
	prev, cur := start, first
	used[gridEdge{start, first}] = true

	for cur != start {
		loop = append(loop, cur)
		dir := [2]int{cur[0] - prev[0], cur[1] - prev[1]}

		var next [2]int
		found := false
		// Right turn, straight, left turn; never reverse.
		for _, d := range [][2]int{{dir[1], -dir[0]}, dir, {-dir[1], dir[0]}} {
			cand := [2]int{cur[0] + d[0], cur[1] + d[1]}
			for _, to := range outgoing[cur] {
				if to == cand && !used[gridEdge{cur, to}] {
					next = to
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			break
		}
		used[gridEdge{cur, next}] = true
		prev, cur = cur, next
	}
	return loop
}

// loopArea returns the absolute shoelace area of a node loop in cell
// units.
func loopArea(loop [][2]int) float64 {
	sum := 0
	for i, p := range loop {
		q := loop[(i+1)%len(loop)]
		sum += p[0]*q[1] - q[0]*p[1]
	}
	if sum < 0 {
		sum = -sum
	}
	return float64(sum) / 2
}

// dropCollinear merges runs of consecutive collinear vertices.
func dropCollinear(loop [][2]int) [][2]int {
	out := loop[:0:0]
	n := len(loop)
	for i := 0; i < n; i++ {
		prev := loop[(i-1+n)%n]
		cur := loop[i]
		next := loop[(i+1)%n]
		d1 := [2]int{cur[0] - prev[0], cur[1] - prev[1]}
		d2 := [2]int{next[0] - cur[0], next[1] - cur[1]}
		if d1[0]*d2[1]-d1[1]*d2[0] != 0 {
			out = append(out, cur)
		}
	}
	return out
}

// rotateToMin starts the loop at its lexicographically smallest node, so
// the emitted polygon does not depend on map iteration order.
func rotateToMin(loop [][2]int) [][2]int {
	min := 0
	for i, n := range loop {
		m := loop[min]
		if n[0] < m[0] || (n[0] == m[0] && n[1] < m[1]) {
			min = i
		}
	}
	return append(loop[min:len(loop):len(loop)], loop[:min]...)
}

// nodeCoord maps a node-lattice index to the physical coordinate of that
// grid line, given cell-center positions and the cell pitch.
func nodeCoord(centers []float64, i int, pixel float64) float64 {
	if i < len(centers) {
		return centers[i] - pixel/2
	}
	return centers[len(centers)-1] + pixel/2
}
