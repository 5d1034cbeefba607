package engine

import (
	"math"
	"slices"

	"github.com/nstehr/flotilla/assign"
	"github.com/nstehr/flotilla/model"
	"github.com/nstehr/flotilla/rules"
	"github.com/nstehr/flotilla/spatial"
)

const (
	interceptionSlack   = 10
	maxSafeInterception = 3
	noCargo             = 9999
	openingShipyardStep = 10
)

// farmingRule selects how preferMoves treats harvestable farming cells
// around the ship.
type farmingRule uint8

const (
	// farmingPenalized keeps the cell score penalty for farming cells.
	farmingPenalized farmingRule = iota
	// farmingEased gives back two thirds of it.
	farmingEased
	// farmingWaived gives back all of it.
	farmingWaived
)

// preferMoves raises the cells reached by dirs, more so along the longest
// axis to dest, and lowers the cells reached by every other direction. dest
// may be noPos.
func (t *Turn) preferMoves(s *model.Ship, dirs, longest []spatial.Direction, w float64, dest int, rule farmingRule) {
	p := t.p
	for _, d := range dirs {
		v := w
		if slices.Contains(longest, d) {
			v += p.MovePreferenceLongestAxis
		}
		t.surface.Add(s.ID, t.ix.Step(s.Pos, d), v)
	}
	if dest != noPos && len(dirs) >= 2 && len(t.realFarming) > 0 {
		first := t.farmingInBetween(s.Pos, dest, dirs[0])
		second := t.farmingInBetween(s.Pos, dest, dirs[1])
		switch {
		case first > second:
			t.surface.Add(s.ID, t.ix.Step(s.Pos, dirs[0]), math.Floor(-w/2))
		case first < second:
			t.surface.Add(s.ID, t.ix.Step(s.Pos, dirs[1]), math.Floor(-w/2))
		}
	}
	for _, d := range spatial.Directions {
		if !slices.Contains(dirs, d) {
			t.surface.Add(s.ID, t.ix.Step(s.Pos, d), math.Floor(-w/1.2))
		}
	}

	var refund float64
	switch rule {
	case farmingWaived:
		refund = -p.CellScoreFarming
	case farmingEased:
		refund = math.Floor(-p.CellScoreFarming / 1.5)
	default:
		return
	}
	for _, pos := range t.ix.Reach(s.Pos) {
		if h := t.b.Halite[pos]; t.farming[pos] && h > 0 && h < t.harvestThreshold {
			t.surface.Add(s.ID, pos, refund)
		}
	}
}

// moveShips classifies every ship, lets each role express its preferences
// and resolves the surface into actions.
func (t *Turn) moveShips() {
	if len(t.me.Ships) == 0 {
		return
	}
	t.miningShips, t.returningShips, t.huntingShips, t.guardingShips = nil, nil, nil, nil

	if t.shipyardCount == 0 && t.step > openingShipyardStep {
		t.emergencyConvert()
	}
	if t.p.DisableHuntingTill <= t.step && t.step <= t.st.FarmingEnd+interceptionSlack {
		t.assignInterceptors()
	}

	for i := range t.me.Ships {
		s := &t.me.Ships[i]
		if !t.roster.Has(s.ID) {
			t.roster.Set(s.ID, t.ladder.Classify(rules.RoleEnv{
				Step:                t.step,
				LastStep:            t.lastStep,
				Cargo:               s.Cargo,
				ShipyardDistance:    t.shipyardDist[s.Pos],
				NearVulnerableEnemy: t.nearVulnerable(s.Pos, s.Cargo),
				Params:              t.p,
			}))
		}
		switch t.roster.Role(s.ID) {
		case rules.Mining:
			t.miningShips = append(t.miningShips, s)
		case rules.Returning, rules.Ending:
			t.returningShips = append(t.returningShips, s)
		case rules.Hunting:
			t.huntingShips = append(t.huntingShips, s)
		}
	}

	t.assignTargets()
	t.log.Info("ship roles",
		"halite", t.me.Halite,
		"avg_populated_halite", t.avgPopulatedHalite,
		"ship_advantage", t.shipAdvantage,
		"roles", t.roster.Breakdown())

	for i := range t.me.Ships {
		s := &t.me.Ships[i]
		if h, ok := handlers[t.roster.Role(s.ID)]; ok {
			h(t, s)
		}
	}
	t.resolve()
}

// emergencyConvert rebuilds a lost base from the ship carrying the most
// cargo.
func (t *Turn) emergencyConvert() {
	s := &t.me.Ships[0]
	for i := range t.me.Ships[1:] {
		if t.me.Ships[i+1].Cargo > s.Cargo {
			s = &t.me.Ships[i+1]
		}
	}
	if t.roster.Role(s.ID) == rules.Converting || s.Cargo+t.halite < t.cfg.ConvertCost {
		return
	}
	if t.step <= emergencyConvertStep || t.cargo > emergencyCargo || s.Cargo >= t.cfg.ConvertCost {
		t.convert(s)
	}
}

// assignInterceptors commits free ships to vulnerable enemies. A cornered
// enemy draws every free ship that outweighs the danger where it stands; a
// fleeing one draws the single ship that cuts it off soonest.
func (t *Turn) assignInterceptors() {
	ids := make([]string, 0, len(t.vulnerable))
	for id := range t.vulnerable {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		f := t.vulnerable[id]
		e := t.enemyByID[id]
		var best *model.Ship
		minCargo, minDist := noCargo, farDistance
		for i := range t.me.Ships {
			s := &t.me.Ships[i]
			if t.roster.Has(s.ID) || s.Cargo > e.Cargo-1 {
				continue
			}
			if !f.interceptable() {
				if t.maps.Danger[s.Pos] > s.Cargo && t.ix.Distance(s.Pos, e.Pos) > 0 {
					t.roster.Set(s.ID, rules.Hunting)
				}
				continue
			}
			ic, ok := t.intercept(s.Pos, e.Pos, f.dir)
			if !ok || ic.distance > minDist || (ic.distance == minDist && s.Cargo >= minCargo) {
				continue
			}
			if ic.distance > maxSafeInterception && s.Cargo > t.maps.Danger[ic.pos] {
				continue
			}
			best, minCargo, minDist = s, s.Cargo, ic.distance
		}
		if best != nil {
			t.roster.Set(best.ID, rules.Hunting)
			t.log.Debug("intercepting", "ship", best.ID, "enemy", id, "distance", minDist)
		}
	}
}

// resolve solves the surface and turns the placements into actions. A
// conversion the remaining halite cannot pay for is struck and the surface
// solved again.
func (t *Turn) resolve() {
	ships := t.me.Ships
	for {
		placements := t.surface.solve()
		halite := t.halite
		struck := false
		for _, pl := range placements {
			if !pl.convert || pl.value > prepaidThreshold || pl.value <= assign.Infeasible {
				continue
			}
			s := &ships[pl.row]
			if halite+s.Cargo < t.cfg.ConvertCost {
				t.surface.SetConvert(s.ID, assign.Infeasible)
				t.log.Debug("conversion unaffordable", "ship", s.ID)
				struck = true
				break
			}
			halite += s.Cargo - t.cfg.ConvertCost
		}
		if !struck {
			t.apply(placements)
			return
		}
	}
}

func (t *Turn) apply(placements []placement) {
	for _, pl := range placements {
		s := &t.me.Ships[pl.row]
		reach := t.ix.Reach(s.Pos)
		switch {
		case pl.convert && pl.value > prepaidThreshold:
			t.actions[s.ID] = model.ActionConvert
		case pl.convert && pl.value > assign.Infeasible:
			t.actions[s.ID] = model.ActionConvert
			t.halite += s.Cargo - t.cfg.ConvertCost
			t.plannedShipyards = append(t.plannedShipyards, s.Pos)
		case pl.convert, !slices.Contains(reach[:], pl.cell):
			t.log.Warn("ship placed out of reach, staying", "ship", s.ID, "cell", pl.cell)
			t.planned[s.Pos] = true
		default:
			if d := t.ix.DirectionTo(s.Pos, pl.cell); d != spatial.Stay {
				t.actions[s.ID] = d.Action()
			}
			t.planned[pl.cell] = true
		}
	}
}
