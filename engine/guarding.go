package engine

import (
	"hash/fnv"
	"math/rand/v2"
	"slices"

	"github.com/nstehr/flotilla/model"
	"github.com/nstehr/flotilla/rules"
)

const (
	holdShipyard     = 10000
	reachShipyard    = 8000
	crashIntoEnemy   = 500
	attackColumn     = 900
	attackFloor      = -50
	stopMining       = -500
	lateGuardStep    = 385
	openingGuardStep = 25
	unguardedCargo   = 500
)

// guardShipyards assigns guards to planned and existing shipyards and
// decides, per threatened shipyard, between holding, spawning and attacking.
func (t *Turn) guardShipyards() {
	p := t.p
	picked := make(map[string]bool)
	for _, pos := range t.plannedShipyards {
		t.guardPosition(pos, picked)
	}
	for i := range t.me.Shipyards {
		y := &t.me.Shipyards[i]
		if t.planned[y.Pos] {
			continue
		}
		dominance := t.maps.MediumDominance[y.Pos]
		minDist := t.guardPosition(y.Pos, picked)

		var attackers []*model.Ship
		for _, n := range t.ix.Neighbours(y.Pos) {
			if e := t.enemyShipAt(n); e != nil {
				attackers = append(attackers, e)
			}
		}
		if len(attackers) == 0 || minDist == 1 {
			continue
		}
		lightest := unguardedCargo
		for _, e := range attackers {
			lightest = min(lightest, e.Cargo)
		}

		if s := t.ownShipAt(y.Pos); s != nil {
			t.roster.Set(s.ID, rules.ShipyardGuarding)
			hold := t.halite < t.spawnCost ||
				(t.step > p.SpawnTill && (t.shipyardCount > 1 || t.step > lateGuardStep)) ||
				dominance < p.ShipyardGuardingMinDominance ||
				t.attackDraw(y.ID) > p.ShipyardGuardingAttackProbability ||
				t.step >= p.GuardingStop
			if hold {
				if dominance > p.ShipyardAbandonDominance {
					t.surface.Add(s.ID, y.Pos, holdShipyard)
					t.log.Debug("ship holds shipyard", "ship", s.ID, "pos", y.Pos)
				}
				continue
			}
			t.spawnShip(y)
			for _, e := range attackers {
				t.surface.Add(s.ID, e.Pos, crashIntoEnemy)
				t.attackPosition(e.Pos)
			}
			t.log.Debug("attacking ships near shipyard", "shipyard", y.ID, "attackers", len(attackers))
			continue
		}

		var guards []*model.Ship
		for _, n := range t.ix.Neighbours(y.Pos) {
			if s := t.ownShipAt(n); s != nil && s.Cargo <= lightest {
				guards = append(guards, s)
			}
		}
		switch {
		case len(guards) > 0 && (t.reachedSpawnLimit() || t.halite < t.spawnCost):
			g := slices.MinFunc(guards, func(a, b *model.Ship) int { return a.Cargo - b.Cargo })
			t.surface.Add(g.ID, y.Pos, reachShipyard)
			t.roster.Set(g.ID, rules.ShipyardGuarding)
			t.log.Debug("ship moves onto shipyard", "ship", g.ID, "pos", y.Pos)
		case t.halite > t.spawnCost &&
			(dominance >= p.ShipyardGuardingMinDominance || t.step <= openingGuardStep || t.shipyardCount == 1) &&
			(t.step < p.GuardingStop || (t.shipyardCount == 1 && t.step < p.EndStart)):
			t.log.Debug("shipyard spawns a defender", "shipyard", y.ID)
			t.spawnShip(y)
		default:
			t.log.Info("shipyard cannot be protected", "shipyard", y.ID)
		}
	}
}

// guardPosition finds the two closest eligible ships to the shipyard at pos
// and makes them guards when enemies are about to arrive. It returns the
// distance of the closest one.
func (t *Turn) guardPosition(pos int, picked map[string]bool) int {
	p := t.p
	enemyDist, enemyDist2 := t.enemyDist[pos], t.enemyDist2[pos]
	minDist, minDist2 := farDistance, farDistance
	var guard, guard2 *model.Ship
	for i := range t.me.Ships {
		s := &t.me.Ships[i]
		role := t.roster.Role(s.ID)
		if role == rules.Converting || role == rules.Constructing || !rules.CanTransition(role, rules.Guarding) || picked[s.ID] {
			continue
		}
		d := t.ix.Distance(pos, s.Pos)
		if d < minDist && (s.Cargo <= 0 || d < enemyDist) {
			minDist2, guard2 = minDist, guard
			minDist, guard = d, s
		} else if d < minDist2 && (s.Cargo <= 0 || d < enemyDist2) {
			minDist2, guard2 = d, s
		}
	}
	if guard != nil {
		picked[guard.ID] = true
	}
	if t.maps.MediumDominance[pos] < p.ShipyardAbandonDominance {
		t.log.Debug("abandoning shipyard", "pos", pos)
		return minDist
	}
	t.postGuard(pos, guard, enemyDist, minDist)
	t.postGuard(pos, guard2, enemyDist2, minDist2)
	return minDist
}

func (t *Turn) postGuard(pos int, g *model.Ship, enemyDist, dist int) {
	if g == nil {
		return
	}
	switch {
	case enemyDist-1 <= dist:
		t.shipyardGuards[g.ID] = true
		t.borderGuards[g.ID] = pos
		t.roster.Set(g.ID, rules.Guarding)
		if enemyDist <= dist {
			t.urgentGuards[g.ID] = true
		}
	case enemyDist-2 <= dist && t.b.Halite[g.Pos] > 0:
		t.surface.Add(g.ID, g.Pos, stopMining)
	}
}

// attackDraw is a uniform draw in [0, 1) fixed by step and shipyard, so the
// same board always yields the same decision.
func (t *Turn) attackDraw(shipyard string) float64 {
	h := fnv.New64a()
	h.Write([]byte(shipyard))
	return rand.New(rand.NewPCG(uint64(t.step), h.Sum64())).Float64()
}

// attackPosition makes every ship that could reasonably go to pos want to.
func (t *Turn) attackPosition(pos int) {
	t.surface.AddColumn(pos, attackColumn, attackFloor)
}
