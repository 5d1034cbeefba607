package spatial

import "math"

// Vector returns the shortest signed (dcol, drow) offset from a to b.
func (ix *Index) Vector(a, b int) (int, int) {
	ac, ar := ix.XY(a)
	bc, br := ix.XY(b)
	return ix.component(ac, bc), ix.component(ar, br)
}

func (ix *Index) component(from, to int) int {
	d := to - from
	half := ix.size / 2
	switch {
	case d > half:
		return d - ix.size
	case d < -half:
		return d + ix.size
	}
	return d
}

// ExcircleMidpoint returns the cell closest to the centre of the circle
// through a, b and c, measured on the unwrapped offsets from a. Collinear
// inputs return the point opposite the longest side.
func (ix *Index) ExcircleMidpoint(a, b, c int) int {
	abx, aby := ix.Vector(a, b)
	acx, acy := ix.Vector(a, c)
	// Perpendicular bisector directions of AB and AC.
	rx, ry := -aby, abx
	vx, vy := -acy, acx
	m1x, m1y := 0.5*float64(abx), 0.5*float64(aby)
	m2x, m2y := 0.5*float64(acx), 0.5*float64(acy)

	den := float64(ry*vx - rx*vy)
	if den == 0 {
		bcx, bcy := ix.Vector(b, c)
		ab := abs(abx) + abs(aby)
		ac := abs(acx) + abs(acy)
		bc := abs(bcx) + abs(bcy)
		switch max(ab, ac, bc) {
		case ab:
			return c
		case ac:
			return b
		default:
			return a
		}
	}
	t := (m1x*float64(vy) - m2x*float64(vy) - m1y*float64(vx) + m2y*float64(vx)) / den
	ac0, ar0 := ix.XY(a)
	qx := float64(ac0) + m1x + t*float64(rx)
	qy := float64(ar0) + m1y + t*float64(ry)
	return ix.Pos(int(math.RoundToEven(qx)), int(math.RoundToEven(qy)))
}

// IsTriangle reports whether three cells form a usable shipyard triangle: not
// aligned on an axis, pairwise distances in [minDist, maxDist], and spanning
// at least three cells on both axes.
func (ix *Index) IsTriangle(a, b, c, minDist, maxDist int) bool {
	ax, ay := ix.XY(a)
	bx, by := ix.XY(b)
	cx, cy := ix.XY(c)
	if (ax == bx && bx == cx) || (ay == by && by == cy) {
		return false
	}
	for _, d := range [3]int{ix.Distance(a, b), ix.Distance(a, c), ix.Distance(b, c)} {
		if d < minDist || d > maxDist {
			return false
		}
	}
	if max(ix.AxisDistance(ax, bx), ix.AxisDistance(ax, cx), ix.AxisDistance(bx, cx)) < 3 {
		return false
	}
	if max(ix.AxisDistance(ay, by), ix.AxisDistance(ay, cy), ix.AxisDistance(by, cy)) < 3 {
		return false
	}
	return true
}

// Triangles enumerates every valid triangle over positions, preserving input
// order within each triple.
func (ix *Index) Triangles(positions []int, minDist, maxDist int) [][3]int {
	var out [][3]int
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			for k := j + 1; k < len(positions); k++ {
				if ix.IsTriangle(positions[i], positions[j], positions[k], minDist, maxDist) {
					out = append(out, [3]int{positions[i], positions[j], positions[k]})
				}
			}
		}
	}
	return out
}

// MaxDistance returns the largest pairwise distance among positions.
func (ix *Index) MaxDistance(positions []int) int {
	best := 0
	for i := range positions {
		for j := i + 1; j < len(positions); j++ {
			best = max(best, ix.Distance(positions[i], positions[j]))
		}
	}
	return best
}

// Borders returns the members of set with at least one orthogonal neighbour
// outside it, in the order of positions.
func (ix *Index) Borders(positions []int, set map[int]bool) []int {
	var out []int
	for _, pos := range positions {
		for _, n := range ix.Neighbours(pos) {
			if !set[n] {
				out = append(out, pos)
				break
			}
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
