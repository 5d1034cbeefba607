package engine

import (
	"math"

	"github.com/nstehr/flotilla/assign"
	"github.com/nstehr/flotilla/model"
	"github.com/nstehr/flotilla/spatial"
)

// Fixed surface adjustments.
const (
	prepaidConvert   = 9999999
	prepaidThreshold = 5000
	plannedPenalty   = -1500
	idleOnRichCell   = -70
	earlyStayPenalty = -200
	lateIdleStep     = 370
)

// Surface is the ship × destination preference matrix consumed by the final
// assignment. Columns are the distinct cells any own ship can reach, followed
// by convert columns. Every pass adds to it; nothing resets an entry except
// the convert columns of a prepaid conversion.
type Surface struct {
	m        *assign.Matrix
	cells    []int
	col      map[int]int
	row      map[string]int
	converts int
}

func newSurface(ships []model.Ship, ix *spatial.Index, converts int) *Surface {
	s := &Surface{
		col:      make(map[int]int),
		row:      make(map[string]int, len(ships)),
		converts: converts,
	}
	for i, sh := range ships {
		s.row[sh.ID] = i
		for _, c := range ix.Reach(sh.Pos) {
			if _, ok := s.col[c]; !ok {
				s.col[c] = len(s.cells)
				s.cells = append(s.cells, c)
			}
		}
	}
	s.m = assign.NewMatrix(len(ships), len(s.cells)+converts, assign.Infeasible)
	return s
}

// Add shifts the preference of ship for cell. Cells no ship can reach are
// ignored and reported as false.
func (s *Surface) Add(ship string, cell int, delta float64) bool {
	r, ok := s.row[ship]
	if !ok {
		return false
	}
	c, ok := s.col[cell]
	if !ok {
		return false
	}
	s.m.Add(r, c, delta)
	return true
}

func (s *Surface) set(ship string, cell int, v float64) {
	if r, ok := s.row[ship]; ok {
		if c, ok := s.col[cell]; ok {
			s.m.Set(r, c, v)
		}
	}
}

// At returns the preference of ship for cell, or Infeasible.
func (s *Surface) At(ship string, cell int) float64 {
	r, ok := s.row[ship]
	if !ok {
		return assign.Infeasible
	}
	c, ok := s.col[cell]
	if !ok {
		return assign.Infeasible
	}
	return s.m.At(r, c)
}

// SetConvert assigns v to every convert column of ship.
func (s *Surface) SetConvert(ship string, v float64) {
	r, ok := s.row[ship]
	if !ok {
		return
	}
	for c := len(s.cells); c < s.m.Cols; c++ {
		s.m.Set(r, c, v)
	}
}

func (s *Surface) convertValue(ship string) float64 {
	r, ok := s.row[ship]
	if !ok || s.converts == 0 {
		return assign.Infeasible
	}
	return s.m.At(r, len(s.cells))
}

// AddColumn adds delta to every ship's entry for cell that exceeds floor.
func (s *Surface) AddColumn(cell int, delta, floor float64) {
	c, ok := s.col[cell]
	if !ok {
		return
	}
	for r := 0; r < s.m.Rows; r++ {
		if s.m.At(r, c) > floor {
			s.m.Add(r, c, delta)
		}
	}
}

// placement is the resolved destination of one ship.
type placement struct {
	row     int
	cell    int
	convert bool
	value   float64
}

func (s *Surface) solve() []placement {
	pairs := assign.Maximize(s.m)
	out := make([]placement, 0, len(pairs))
	for _, p := range pairs {
		pl := placement{row: p.Row, cell: noPos, value: s.m.At(p.Row, p.Col)}
		if p.Col >= len(s.cells) {
			pl.convert = true
		} else {
			pl.cell = s.cells[p.Col]
		}
		out = append(out, pl)
	}
	return out
}

// buildSurface fills the movement columns with cell scores shaped by the
// danger around each reachable cell, and records the escape pressure used by
// mining scores.
func (t *Turn) buildSurface() {
	ships := t.me.Ships
	converts := t.halite/t.cfg.ConvertCost + 1
	t.surface = newSurface(ships, t.ix, converts)
	t.escape = make([][]float64, len(ships))
	danger := t.maps.Danger
	cellDanger := t.p.CellScoreDanger

	for i := range ships {
		s := &ships[i]
		t.escape[i] = make([]float64, t.b.Cells())
		if s.Cargo >= t.p.ConvertWhenAttackedThreshold && s.Cargo+t.halite >= t.cfg.ConvertCost {
			t.surface.SetConvert(s.ID, -float64(t.p.ConvertWhenAttackedThreshold))
		}

		reach := t.ix.Reach(s.Pos)
		var scores [5]float64
		for k, pos := range reach {
			for _, pos2 := range t.ix.Within(pos, t.p.DominanceMapSmallRadius) {
				disc := dangerDiscount(t.ix.Distance(pos, pos2))
				switch {
				case danger[pos2] < s.Cargo:
					scores[k] += 2 * disc
					for _, c := range t.ix.Reach(pos2) {
						t.escape[i][c]++
					}
				case danger[pos2] == s.Cargo:
					scores[k] += disc
					for _, c := range t.ix.Reach(pos2) {
						t.escape[i][c] += 0.5
					}
				}
			}
		}
		lo, hi := scores[0], scores[0]
		trapped := 0
		for k, pos := range reach {
			lo = math.Min(lo, scores[k])
			hi = math.Max(hi, scores[k])
			if danger[pos] < s.Cargo {
				trapped++
			}
		}
		weight := cellDanger
		if trapped == len(reach) {
			weight = 3 * cellDanger
		}
		for k, pos := range reach {
			v := t.cellScore(s, pos)
			if s.Cargo > 0 && hi-lo > 1 {
				v += math.Trunc((1-(scores[k]-lo)/(hi-lo))*weight - math.Floor(weight/2))
			}
			t.surface.set(s.ID, pos, v)
		}

		exposed := 0
		for _, pos := range reach {
			if danger[pos] <= s.Cargo {
				exposed++
			}
		}
		if exposed >= 4 && s.Cargo == 0 && t.b.Halite[s.Pos] > 0 && t.step < lateIdleStep {
			t.surface.Add(s.ID, s.Pos, idleOnRichCell)
		}
		if t.isOwnShipyard(s.Pos) {
			if t.step > 12+t.st.FirstShipyardStep {
				t.surface.Add(s.ID, s.Pos, t.p.MovePreferenceStayOnShipyard)
			} else {
				t.surface.Add(s.ID, s.Pos, earlyStayPenalty)
			}
		}
	}
}

func dangerDiscount(d int) float64 {
	switch d {
	case 0:
		return 1
	case 1:
		return 0.75
	case 2:
		return 0.45
	}
	return 0.15
}
