package engine

import (
	"sort"

	"github.com/nstehr/flotilla/model"
)

const (
	spawnAbandoned     = -999
	lastSpawnStep      = 390
	spawnDominanceStep = 75
)

// spawnShips spends the remaining halite on new ships, best shipyard first.
func (t *Turn) spawnShips() {
	p := t.p
	if len(t.me.Ships) == 0 && t.halite >= t.cfg.SpawnCost && t.step < lastSpawnStep && len(t.me.Shipyards) > 0 {
		t.spawnShip(&t.me.Shipyards[0])
	}
	yards := make([]*model.Shipyard, len(t.me.Shipyards))
	for i := range t.me.Shipyards {
		yards[i] = &t.me.Shipyards[i]
	}
	sort.SliceStable(yards, func(i, j int) bool { return t.spawnScore(yards[i].Pos) > t.spawnScore(yards[j].Pos) })

	for _, y := range yards {
		if t.halite < t.spawnCost {
			return
		}
		if t.planned[y.Pos] || t.reachedSpawnLimit() {
			continue
		}
		if t.shipCount >= p.MinShips && t.avgHalite/float64(t.shipCount) < p.ShipSpawnThreshold {
			continue
		}
		if t.maps.MediumDominance[y.Pos] < p.SpawnMinDominance && t.step > spawnDominanceStep && t.shipyardCount > 1 {
			continue
		}
		t.spawnShip(y)
	}
}

// spawnScore ranks shipyards for spawning: rich surroundings early, contested
// ones later. Abandoned shipyards come last.
func (t *Turn) spawnScore(pos int) float64 {
	if t.step <= t.p.FarmingStart {
		return t.maps.UltraBlurred[pos]
	}
	dominance := t.maps.MediumDominance[pos]
	if dominance < t.p.ShipyardAbandonDominance {
		return spawnAbandoned
	}
	return -dominance
}

// reachedSpawnLimit reports whether the fleet is large enough, or the game
// too far along, for more ships.
func (t *Turn) reachedSpawnLimit() bool {
	if t.step > t.p.SpawnTill {
		return true
	}
	most := 0
	for _, op := range t.b.Opponents() {
		most = max(most, len(op.Ships))
	}
	return t.shipCount >= most+t.p.MaxShipAdvantage && t.shipCount >= t.p.MinShips
}

// spawnShip orders y to spawn and keeps own ships off the shipyard cell.
func (t *Turn) spawnShip(y *model.Shipyard) {
	t.actions[y.ID] = model.ActionSpawn
	t.planned[y.Pos] = true
	t.halite -= t.cfg.SpawnCost
	t.shipCount++
	for _, c := range t.ix.Reach(y.Pos) {
		if s := t.ownShipAt(c); s != nil {
			t.surface.Add(s.ID, y.Pos, plannedPenalty)
		}
	}
	t.log.Debug("spawning ship", "shipyard", y.ID, "pos", y.Pos)
}
