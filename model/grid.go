package model

// Grid indexes a board by cell. Each cell holds at most one ship and at most
// one shipyard; the simulator resolves collisions before the snapshot is
// taken.
type Grid struct {
	Size      int
	ships     []*Ship
	shipyards []*Shipyard
}

// NewGrid builds the cell index for b. The returned grid points into b and
// must not outlive it.
func NewGrid(b *Board) *Grid {
	g := &Grid{
		Size:      b.Size,
		ships:     make([]*Ship, b.Cells()),
		shipyards: make([]*Shipyard, b.Cells()),
	}
	for pi := range b.Players {
		p := &b.Players[pi]
		for si := range p.Ships {
			g.ships[p.Ships[si].Pos] = &p.Ships[si]
		}
		for yi := range p.Shipyards {
			g.shipyards[p.Shipyards[yi].Pos] = &p.Shipyards[yi]
		}
	}
	return g
}

// ShipAt returns the ship at pos, or nil.
func (g *Grid) ShipAt(pos int) *Ship {
	if pos < 0 || pos >= len(g.ships) {
		return nil
	}
	return g.ships[pos]
}

// ShipyardAt returns the shipyard at pos, or nil.
func (g *Grid) ShipyardAt(pos int) *Shipyard {
	if pos < 0 || pos >= len(g.shipyards) {
		return nil
	}
	return g.shipyards[pos]
}

// Coords converts a linear index to (col, row).
func (g *Grid) Coords(pos int) (int, int) {
	return pos % g.Size, pos / g.Size
}

// Index converts (col, row) to a linear index, wrapping both coordinates.
func (g *Grid) Index(col, row int) int {
	col = ((col % g.Size) + g.Size) % g.Size
	row = ((row % g.Size) + g.Size) % g.Size
	return row*g.Size + col
}
