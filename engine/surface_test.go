package engine

import (
	"testing"

	"github.com/nstehr/flotilla/assign"
	"github.com/nstehr/flotilla/model"
	"github.com/nstehr/flotilla/spatial"
)

func TestSurfaceColumns(t *testing.T) {
	ix := spatial.New(9)
	ships := []model.Ship{{ID: "a", Pos: ix.Pos(4, 4)}, {ID: "b", Pos: ix.Pos(5, 4)}}
	s := newSurface(ships, ix, 2)
	// Two adjacent ships share two cells of their reach.
	if got := len(s.cells); got != 8 {
		t.Errorf("len(cells) = %d, want 8", got)
	}
	if got := s.m.Cols; got != 10 {
		t.Errorf("Cols = %d, want 10", got)
	}
	if s.Add("a", ix.Pos(0, 0), 5) {
		t.Error("Add on unreachable cell = true")
	}
	if s.Add("ghost", ix.Pos(4, 4), 5) {
		t.Error("Add for unknown ship = true")
	}
	if got := s.At("a", ix.Pos(6, 4)); got != assign.Infeasible {
		t.Errorf("At out of own reach = %f, want Infeasible", got)
	}
}

func TestSurfaceConvertColumns(t *testing.T) {
	ix := spatial.New(9)
	s := newSurface([]model.Ship{{ID: "a", Pos: 0}}, ix, 3)
	if got := s.convertValue("a"); got != assign.Infeasible {
		t.Errorf("convertValue before SetConvert = %f, want Infeasible", got)
	}
	s.SetConvert("a", prepaidConvert)
	if got := s.convertValue("a"); got != prepaidConvert {
		t.Errorf("convertValue = %f, want %d", got, prepaidConvert)
	}
	s.set("a", 0, 10)
	pl := s.solve()
	if len(pl) != 1 || !pl[0].convert || pl[0].cell != noPos {
		t.Errorf("solve = %+v, want one convert placement", pl)
	}
}

func TestSurfaceSolveAvoidsCollisions(t *testing.T) {
	ix := spatial.New(9)
	ships := []model.Ship{{ID: "a", Pos: ix.Pos(3, 4)}, {ID: "b", Pos: ix.Pos(5, 4)}}
	s := newSurface(ships, ix, 1)
	for _, sh := range ships {
		for _, c := range ix.Reach(sh.Pos) {
			s.set(sh.ID, c, 0)
		}
	}
	contested := ix.Pos(4, 4)
	s.Add("a", contested, 100)
	s.Add("b", contested, 90)
	s.Add("b", ix.Pos(5, 3), 20)

	got := map[int]int{}
	for _, p := range s.solve() {
		got[p.row] = p.cell
	}
	if got[0] != contested {
		t.Errorf("ship a placed on %d, want %d", got[0], contested)
	}
	if got[1] != ix.Pos(5, 3) {
		t.Errorf("ship b placed on %d, want %d", got[1], ix.Pos(5, 3))
	}
}

func TestSurfaceAddColumn(t *testing.T) {
	ix := spatial.New(9)
	ships := []model.Ship{{ID: "a", Pos: ix.Pos(3, 4)}, {ID: "b", Pos: ix.Pos(5, 4)}}
	s := newSurface(ships, ix, 1)
	target := ix.Pos(4, 4)
	s.set("a", target, 0)
	s.set("b", target, -100)
	s.AddColumn(target, attackColumn, attackFloor)
	if got := s.At("a", target); got != attackColumn {
		t.Errorf("At(a) = %f, want %d", got, attackColumn)
	}
	if got := s.At("b", target); got != -100 {
		t.Errorf("At(b) = %f, want -100", got)
	}
}
