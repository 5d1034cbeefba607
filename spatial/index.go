// Package spatial precomputes toroidal distance and navigation tables for a
// square wrapping grid. An Index is built once per episode and is read-only
// afterwards, so it can be shared freely between goroutines.
package spatial

import "github.com/nstehr/flotilla/model"

// Direction is a unit step on the grid. Stay is the zero value.
type Direction uint8

const (
	Stay Direction = iota
	North
	East
	South
	West
)

// Directions lists the four moves in action order.
var Directions = [4]Direction{North, East, South, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "NORTH"
	case East:
		return "EAST"
	case South:
		return "SOUTH"
	case West:
		return "WEST"
	default:
		return "STAY"
	}
}

// Action returns the wire action for the move. Stay maps to no action.
func (d Direction) Action() model.Action {
	if d == Stay {
		return model.ActionNone
	}
	return model.Action(d.String())
}

// Vertical reports whether the move changes the row.
func (d Direction) Vertical() bool { return d == North || d == South }

// Opposite returns the reverse move.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return Stay
}

// Direction bits used in the packed navigation tables.
const (
	bitWest  = 1
	bitEast  = 2
	bitNorth = 4
	bitSouth = 8
)

// dirSets maps a packed mask to its directions, horizontal move first.
var dirSets = func() [16][]Direction {
	var sets [16][]Direction
	for mask := 0; mask < 16; mask++ {
		var ds []Direction
		if mask&bitWest != 0 {
			ds = append(ds, West)
		}
		if mask&bitEast != 0 {
			ds = append(ds, East)
		}
		if mask&bitNorth != 0 {
			ds = append(ds, North)
		}
		if mask&bitSouth != 0 {
			ds = append(ds, South)
		}
		sets[mask] = ds
	}
	return sets
}()

// MaxSize is the largest grid New supports. Distances are stored in a byte
// and the pair tables grow with size⁴.
const MaxSize = 63

// precomputedRadius bounds the radius lists built eagerly by New.
const precomputedRadius = 8

// Index holds the static tables for one grid size.
type Index struct {
	size     int
	cells    int
	dist     []uint8
	nav      []uint8
	farthest []uint8
	within   [][][]int // [radius][pos]
	reach    [][5]int
}

// New builds every table for a size×size torus. Callers keep size within
// [1, MaxSize].
func New(size int) *Index {
	n := size * size
	ix := &Index{
		size:     size,
		cells:    n,
		dist:     make([]uint8, n*n),
		nav:      make([]uint8, n*n),
		farthest: make([]uint8, n*n),
		reach:    make([][5]int, n),
	}
	for a := 0; a < n; a++ {
		ar, ac := a/size, a%size
		for b := 0; b < n; b++ {
			br, bc := b/size, b%size
			dx, xbits := axis(ac, bc, size, bitWest, bitEast)
			dy, ybits := axis(ar, br, size, bitNorth, bitSouth)
			k := a*n + b
			ix.dist[k] = uint8(dx + dy)
			ix.nav[k] = xbits | ybits
			switch {
			case dy < dx:
				ix.farthest[k] = xbits
			case dy > dx:
				ix.farthest[k] = ybits
			default:
				ix.farthest[k] = xbits | ybits
			}
		}
		ix.reach[a] = [5]int{a, ix.Step(a, North), ix.Step(a, East), ix.Step(a, South), ix.Step(a, West)}
	}
	ix.within = make([][][]int, precomputedRadius+1)
	for r := 0; r <= precomputedRadius; r++ {
		ix.within[r] = make([][]int, n)
		for a := 0; a < n; a++ {
			ix.within[r][a] = ix.scanWithin(a, r)
		}
	}
	return ix
}

// axis returns the wrapped distance between two coordinates and the direction
// bit that shortens it. Equidistant wraps cannot occur on odd sizes.
func axis(from, to, size int, lower, higher uint8) (int, uint8) {
	if from == to {
		return 0, 0
	}
	diff := to - from
	if diff < 0 {
		diff = -diff
	}
	d := diff
	wrap := false
	if size-diff < diff {
		d = size - diff
		wrap = true
	}
	up := to > from
	if up != wrap {
		return d, higher
	}
	return d, lower
}

// Size returns the grid side length.
func (ix *Index) Size() int { return ix.size }

// Cells returns the number of cells.
func (ix *Index) Cells() int { return ix.cells }

// Distance is the toroidal Manhattan distance between two cells.
func (ix *Index) Distance(a, b int) int { return int(ix.dist[a*ix.cells+b]) }

// Navigate returns the moves on a shortest path from a to b, at most one per
// axis, horizontal first. The slice is shared and must not be modified.
func (ix *Index) Navigate(a, b int) []Direction { return dirSets[ix.nav[a*ix.cells+b]] }

// Farthest returns the move(s) from a toward b along the axis with the greater
// remaining distance; both axes when they tie, none when a == b.
func (ix *Index) Farthest(a, b int) []Direction { return dirSets[ix.farthest[a*ix.cells+b]] }

// OnPath reports whether d is one of the Navigate moves from a to b.
func (ix *Index) OnPath(a, b int, d Direction) bool {
	return ix.nav[a*ix.cells+b]&bit(d) != 0
}

// OnFarthest reports whether d is one of the Farthest moves from a to b.
func (ix *Index) OnFarthest(a, b int, d Direction) bool {
	return ix.farthest[a*ix.cells+b]&bit(d) != 0
}

func bit(d Direction) uint8 {
	switch d {
	case North:
		return bitNorth
	case East:
		return bitEast
	case South:
		return bitSouth
	case West:
		return bitWest
	}
	return 0
}

// Within lists the cells within Manhattan radius r of center in ascending
// index order. Lists up to a fixed radius are precomputed; larger radii are
// scanned on demand.
func (ix *Index) Within(center, r int) []int {
	if r < 0 {
		return nil
	}
	if r <= precomputedRadius {
		return ix.within[r][center]
	}
	return ix.scanWithin(center, r)
}

func (ix *Index) scanWithin(center, r int) []int {
	var out []int
	row := ix.dist[center*ix.cells : (center+1)*ix.cells]
	for b, d := range row {
		if int(d) <= r {
			out = append(out, b)
		}
	}
	return out
}

// Reach returns the cell itself followed by its four neighbours in
// North, East, South, West order: every cell a ship there can occupy next turn.
func (ix *Index) Reach(pos int) [5]int { return ix.reach[pos] }

// Neighbours returns the four orthogonal neighbours.
func (ix *Index) Neighbours(pos int) [4]int {
	r := ix.reach[pos]
	return [4]int{r[1], r[2], r[3], r[4]}
}

// Adjacent8 returns the orthogonal and diagonal neighbours.
func (ix *Index) Adjacent8(pos int) [8]int {
	c, r := ix.XY(pos)
	return [8]int{
		ix.Pos(c, r-1), ix.Pos(c, r+1), ix.Pos(c-1, r), ix.Pos(c+1, r),
		ix.Pos(c-1, r-1), ix.Pos(c+1, r+1), ix.Pos(c-1, r+1), ix.Pos(c+1, r-1),
	}
}

// Step returns the cell reached from pos by moving in d.
func (ix *Index) Step(pos int, d Direction) int {
	c, r := ix.XY(pos)
	switch d {
	case North:
		r--
	case South:
		r++
	case East:
		c++
	case West:
		c--
	}
	return ix.Pos(c, r)
}

// DirectionTo returns the move from pos to an adjacent target, or Stay when
// target equals pos.
func (ix *Index) DirectionTo(pos, target int) Direction {
	ds := ix.Navigate(pos, target)
	if len(ds) == 0 {
		return Stay
	}
	return ds[0]
}

// XY converts a linear index to (col, row).
func (ix *Index) XY(pos int) (int, int) { return pos % ix.size, pos / ix.size }

// Pos converts (col, row) to a linear index, wrapping both coordinates.
func (ix *Index) Pos(col, row int) int {
	col = ((col % ix.size) + ix.size) % ix.size
	row = ((row % ix.size) + ix.size) % ix.size
	return row*ix.size + col
}

// AxisDistance is the wrapped distance between two coordinates on one axis.
func (ix *Index) AxisDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if ix.size-d < d {
		return ix.size - d
	}
	return d
}
