package model

import (
	"errors"
	"math"
	"testing"
)

func testBoard() *Board {
	b := &Board{
		Size:         5,
		Step:         3,
		EpisodeSteps: 400,
		Halite:       make([]float64, 25),
		Players: []Player{
			{Halite: 1000, Ships: []Ship{{ID: "0-1", Pos: 12, Cargo: 10}}, Shipyards: []Shipyard{{ID: "0-2", Pos: 7}}},
			{Halite: 800, Ships: []Ship{{ID: "1-1", Pos: 0}}},
		},
	}
	return b
}

func TestGridLookup(t *testing.T) {
	b := testBoard()
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	g := NewGrid(b)

	tests := []struct {
		pos      int
		ship     string
		shipyard string
	}{
		{12, "0-1", ""},
		{7, "", "0-2"},
		{0, "1-1", ""},
		{24, "", ""},
	}
	for _, tc := range tests {
		ship, yard := "", ""
		if s := g.ShipAt(tc.pos); s != nil {
			ship = s.ID
		}
		if y := g.ShipyardAt(tc.pos); y != nil {
			yard = y.ID
		}
		if ship != tc.ship || yard != tc.shipyard {
			t.Errorf("cell %d = (%q, %q), want (%q, %q)", tc.pos, ship, yard, tc.ship, tc.shipyard)
		}
	}
}

func TestGridOutOfBounds(t *testing.T) {
	b := testBoard()
	g := NewGrid(b)
	if s := g.ShipAt(-1); s != nil {
		t.Errorf("ShipAt(-1) = %v, want nil", s)
	}
	if y := g.ShipyardAt(25); y != nil {
		t.Errorf("ShipyardAt(25) = %v, want nil", y)
	}
}

func TestGridIndexWraps(t *testing.T) {
	g := &Grid{Size: 5}
	tests := []struct {
		col, row int
		want     int
	}{
		{0, 0, 0},
		{4, 4, 24},
		{-1, 0, 4},
		{0, -1, 20},
		{5, 5, 0},
		{7, -6, 22},
	}
	for _, tc := range tests {
		if got := g.Index(tc.col, tc.row); got != tc.want {
			t.Errorf("Index(%d, %d) = %d, want %d", tc.col, tc.row, got, tc.want)
		}
	}
	col, row := g.Coords(13)
	if col != 3 || row != 2 {
		t.Errorf("Coords(13) = (%d, %d), want (3, 2)", col, row)
	}
}

func TestValidateSetsOwners(t *testing.T) {
	b := testBoard()
	b.Players[1].Ships[0].Owner = 7
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if got := b.Players[1].Ships[0].Owner; got != 1 {
		t.Errorf("owner = %d, want 1", got)
	}
	if got := b.Players[0].Shipyards[0].Owner; got != 0 {
		t.Errorf("shipyard owner = %d, want 0", got)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Board)
	}{
		{"even size", func(b *Board) { b.Size = 4 }},
		{"short halite", func(b *Board) { b.Halite = b.Halite[:10] }},
		{"me out of range", func(b *Board) { b.Me = 2 }},
		{"ship off board", func(b *Board) { b.Players[0].Ships[0].Pos = 25 }},
		{"negative cargo", func(b *Board) { b.Players[0].Ships[0].Cargo = -1 }},
		{"duplicate id", func(b *Board) { b.Players[1].Ships[0].ID = "0-1" }},
		{"episode too short", func(b *Board) { b.EpisodeSteps = 1 }},
		{"NaN halite", func(b *Board) { b.Halite[3] = math.NaN() }},
		{"infinite halite", func(b *Board) { b.Halite[7] = math.Inf(1) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := testBoard()
			tc.mutate(b)
			err := b.Validate()
			if !errors.Is(err, ErrInvalidBoard) {
				t.Errorf("Validate() = %v, want ErrInvalidBoard", err)
			}
		})
	}
}

func TestOpponents(t *testing.T) {
	b := testBoard()
	b.Me = 1
	opp := b.Opponents()
	if len(opp) != 1 || opp[0].ID != 0 {
		t.Fatalf("Opponents() = %v, want player 0", opp)
	}
	if got := len(b.EnemyShips()); got != 1 {
		t.Errorf("EnemyShips() = %d ships, want 1", got)
	}
	if got := len(b.EnemyShipyards()); got != 1 {
		t.Errorf("EnemyShipyards() = %d, want 1", got)
	}
	if got := b.LastStep(); got != 398 {
		t.Errorf("LastStep() = %d, want 398", got)
	}
}
