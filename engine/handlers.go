package engine

import (
	"math"
	"slices"
	"sort"

	"github.com/nstehr/flotilla/model"
	"github.com/nstehr/flotilla/rules"
)

const (
	endingArrival       = 9999
	defaultEscapes      = 3
	dontMineFactor      = 0.8
	guardUrgentDistance = 3
	openingSpawnSteps   = 11
	blockSpawnFactor    = 5
	haliteRankSpread    = 10
	haliteRankBase      = 30
)

// handler adds a ship's role-specific preferences to the surface. Roles
// without a handler keep the preferences set while they were assigned.
type handler func(*Turn, *model.Ship)

var handlers = map[rules.Role]handler{
	rules.Mining:               (*Turn).handleMining,
	rules.Returning:            (*Turn).handleReturning,
	rules.Ending:               (*Turn).handleReturning,
	rules.Hunting:              (*Turn).handleHunting,
	rules.Defending:            (*Turn).handleHunting,
	rules.Guarding:             (*Turn).handleGuarding,
	rules.Constructing:         (*Turn).handleConstructing,
	rules.ConstructionGuarding: (*Turn).handleConstructing,
}

func (t *Turn) handleReturning(s *model.Ship) {
	ending := t.roster.Role(s.ID) == rules.Ending
	dest := noPos
	if d, ok := t.depositTargets[s.ID]; ok && !ending {
		dest = d
	} else {
		dest = t.nearestShipyard(s.Pos)
	}
	if dest == noPos {
		if len(t.plannedShipyards) == 0 {
			t.log.Debug("returning ship has no shipyard", "ship", s.ID)
			return
		}
		dest = t.plannedShipyards[0]
	}
	if ending && t.ix.Distance(s.Pos, dest) == 1 {
		t.surface.Add(s.ID, dest, endingArrival)
		return
	}
	t.preferMoves(s, t.ix.Navigate(s.Pos, dest), t.ix.Farthest(s.Pos, dest), t.p.MovePreferenceReturn, dest, farmingPenalized)
}

func (t *Turn) handleMining(s *model.Ship) {
	p := t.p
	target, ok := t.miningTargets[s.ID]
	if !ok {
		t.log.Error("mining ship has no target", "ship", s.ID)
		return
	}
	rule := farmingPenalized
	if !t.farming[target] {
		rule = farmingEased
	}
	if target == s.Pos {
		t.surface.Add(s.ID, s.Pos, p.MovePreferenceMining)
		t.preferMoves(s, nil, nil, p.MovePreferenceMining, noPos, rule)
		return
	}
	t.preferMoves(s, t.ix.Navigate(s.Pos, target), t.ix.Farthest(s.Pos, target), p.MovePreferenceBase, target, rule)
	if t.shipyardDist[s.Pos] != 1 {
		return
	}
	for _, n := range t.ix.Neighbours(s.Pos) {
		if !t.isOwnShipyard(n) {
			continue
		}
		w := p.MovePreferenceStayOnShipyard
		if t.step <= openingSpawnSteps && t.halite >= t.cfg.SpawnCost {
			w *= blockSpawnFactor
		}
		t.surface.Add(s.ID, n, w)
	}
}

// handleHunting drives hunters and defenders onto their target. Close to
// the target the ship blocks the escape routes that leave the target the
// fewest onward moves.
func (t *Turn) handleHunting(s *model.Ship) {
	p := t.p
	w := p.MovePreferenceHunting
	rule := farmingPenalized
	tg, hasTarget := t.huntingTargets[s.ID]
	if t.roster.Role(s.ID) == rules.Defending && hasTarget && t.farming[tg.pos] {
		rule = farmingWaived
	}

	if t.step >= p.EndStart && s.Cargo == 0 {
		t.raidShipyards(s, rule)
	}
	if len(t.enemies) == 0 {
		return
	}
	if !hasTarget {
		best := t.enemies[0]
		bestScore := t.huntingScore(s, best)
		for _, e := range t.enemies[1:] {
			if v := t.huntingScore(s, e); v > bestScore {
				best, bestScore = e, v
			}
		}
		tg = shipTarget(best)
	}
	if (tg.shipyard && s.Cargo > p.MaxCargoAttackShipyard) || (!tg.shipyard && tg.cargo < s.Cargo) {
		return
	}

	dist := t.ix.Distance(s.Pos, tg.pos)
	if t.b.Halite[s.Pos] > 0 && dist > 1 {
		t.surface.Add(s.ID, s.Pos, math.Trunc(-dontMineFactor*w))
	}
	if moves, ok := t.interceptions[interceptionKey(s.ID, tg.id)]; ok {
		t.preferMoves(s, moves, nil, w, tg.pos, rule)
		return
	}
	if dist > huntingDistance || tg.shipyard {
		t.preferMoves(s, t.ix.Navigate(s.Pos, tg.pos), t.ix.Farthest(s.Pos, tg.pos), w, tg.pos, rule)
		return
	}
	t.corner(s, tg, w)
}

// raidShipyards sends an empty ship at the end of the game to the enemy
// shipyard it can still reach that hurts the standings most.
func (t *Turn) raidShipyards(s *model.Ship, rule farmingRule) {
	var yards []*model.Shipyard
	for _, y := range t.enemyShipyards {
		if t.step+t.ix.Distance(s.Pos, y.Pos) <= t.lastStep {
			yards = append(yards, y)
		}
	}
	if len(yards) == 0 {
		return
	}
	key := func(y *model.Shipyard) int {
		rank := t.haliteRanking[y.Owner] * haliteRankSpread
		if t.haliteRanking[t.me.ID] <= 1 {
			rank = haliteRankBase - rank
		}
		return rank - t.ix.Distance(s.Pos, y.Pos)
	}
	sort.SliceStable(yards, func(i, j int) bool { return key(yards[i]) > key(yards[j]) })
	y := yards[0]
	t.preferMoves(s, t.ix.Navigate(s.Pos, y.Pos), t.ix.Farthest(s.Pos, y.Pos), 2*t.p.MovePreferenceHunting, y.Pos, rule)
}

// corner rates the cells around a ship next to its target by how many
// escapes each would cut off.
func (t *Turn) corner(s *model.Ship, tg target, w float64) {
	targetReach := t.ix.Reach(tg.pos)
	bait := 4 * float64(tg.cargo-s.Cargo)
	var moves []int
	for _, pos := range t.ix.Reach(s.Pos) {
		if slices.Contains(targetReach[:], pos) {
			moves = append(moves, pos)
			continue
		}
		if pos != s.Pos || t.b.Halite[pos] >= bait {
			t.surface.Add(s.ID, pos, math.Floor(-w/1.2))
		} else {
			t.surface.Add(s.ID, pos, math.Floor(-w/2))
		}
	}

	escapes := make(map[int]int, len(moves))
	var counts []int
	for _, pos := range moves {
		n, ok := t.escapeCount[escapeKey{tg.id, pos}]
		if !ok {
			n = defaultEscapes
			t.log.Warn("escape count missing", "ship", s.ID, "target", tg.id, "pos", pos)
		}
		escapes[pos] = n
		if !slices.Contains(counts, n) {
			counts = append(counts, n)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))
	rank := make(map[int]int, len(counts))
	for i, n := range counts {
		rank[n] = i
	}

	trapped := false
	if f, ok := t.vulnerable[tg.id]; ok {
		trapped = f.trapped
	}
	for _, pos := range moves {
		switch {
		case pos != s.Pos || t.b.Halite[pos] < bait:
			t.surface.Add(s.ID, pos, math.Trunc(w/float64(rank[escapes[pos]]+1)))
		case trapped:
			t.surface.Add(s.ID, pos, w)
		default:
			t.surface.Add(s.ID, pos, math.Trunc(-w))
		}
	}
}

func (t *Turn) handleGuarding(s *model.Ship) {
	p := t.p
	target, ok := t.borderGuards[s.ID]
	if !ok {
		t.log.Error("guarding ship has no position", "ship", s.ID)
		return
	}
	nav, far := t.ix.Navigate(s.Pos, target), t.ix.Farthest(s.Pos, target)
	if !t.shipyardGuards[s.ID] {
		if t.b.Halite[s.Pos] > 0 {
			t.surface.Add(s.ID, s.Pos, p.MovePreferenceGuardingStay)
		}
		t.preferMoves(s, nav, far, p.MovePreferenceGuarding, target, farmingWaived)
		return
	}
	if s.Pos == target {
		t.surface.Add(s.ID, s.Pos, p.MovePreferenceGuarding-p.MovePreferenceStayOnShipyard)
		return
	}
	w := p.MovePreferenceGuarding
	if t.ix.Distance(s.Pos, target) > guardUrgentDistance || t.urgentGuards[s.ID] {
		w *= 2
	}
	t.preferMoves(s, nav, far, w, target, farmingWaived)
}

// handleConstructing moves constructors and their escorts to the planned
// site.
func (t *Turn) handleConstructing(s *model.Ship) {
	dest := t.st.NextShipyard
	if dest == noPos {
		if len(t.plannedShipyards) == 0 {
			t.log.Error("constructing ship has no site", "ship", s.ID, "role", t.roster.Role(s.ID))
			return
		}
		dest = t.plannedShipyards[0]
	}
	w := t.p.MovePreferenceConstructing
	if t.roster.Role(s.ID) == rules.ConstructionGuarding {
		w = t.p.MovePreferenceConstructionGuarding
	}
	t.log.Debug("ship heads to construction site", "ship", s.ID, "site", dest)
	t.preferMoves(s, t.ix.Navigate(s.Pos, dest), t.ix.Farthest(s.Pos, dest), w, dest, farmingPenalized)
}
