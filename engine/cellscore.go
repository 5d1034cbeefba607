package engine

import (
	"math"

	"github.com/nstehr/flotilla/model"
)

// Cell score constants. Positive values attract a ship, negative repel it.
const (
	unprotectedShipyardBonus = 300
	attackShipyardBonus      = 400
	avoidShipyardPenalty     = 300
	cargoShipyardPenalty     = 400
	captureRisk              = 750
	equalCargoRisk           = 450
	maxEnemyCargoBonus       = 35
	maxNeighbourCargoBonus   = 25
	poorAttackerCargo        = 30
)

// cellScore rates moving ship s onto pos this turn: collisions with cheaper
// enemies, enemy shipyards, dominance and farming cells all contribute. The
// result scales with the ship's cargo.
func (t *Turn) cellScore(s *model.Ship, pos int) float64 {
	if t.planned[pos] {
		return plannedPenalty
	}
	p := t.p
	score := 0.0

	if y := t.grid.ShipyardAt(pos); y != nil {
		if y.Owner != t.me.ID {
			owner := &t.b.Players[y.Owner]
			switch {
			case owner.Halite < t.cfg.SpawnCost && t.grid.ShipAt(pos) == nil &&
				s.Cargo < poorAttackerCargo && !t.shipyardDefended(pos, y.Owner, s.Cargo):
				score += unprotectedShipyardBonus
			case s.Cargo > p.MaxCargoAttackShipyard:
				score -= cargoShipyardPenalty + float64(s.Cargo)
			case (s.Cargo == 0 && ((t.rank == 0 && t.shipAdvantage > 0) || t.step >= p.EndStart || t.farming[pos])) ||
				t.shipyardDist[pos] <= 2:
				score += attackShipyardBonus
			default:
				score -= avoidShipyardPenalty
			}
		} else if t.halite >= t.spawnCost && t.shipyardCount == 1 && !t.spawnLimitReached {
			if t.step <= 100 || t.maps.MediumDominance[pos] >= p.SpawnMinDominance {
				score += p.MovePreferenceBlockShipyard
			}
		}
	}

	if e := t.enemyShipAt(pos); e != nil {
		switch {
		case e.Cargo < s.Cargo:
			score -= captureRisk + float64(s.Cargo) - 0.5*float64(e.Cargo)
		case e.Cargo == s.Cargo:
			tolerated := t.grid.ShipyardAt(pos) == nil && t.st.intrusionCount(pos, e.ID) <= p.MaxIntrusionCount
			if (!t.farming[pos] || tolerated) && t.shipyardDist[pos] > 1 && !t.nearNextShipyard(pos) {
				score -= equalCargoRisk
			}
		default:
			score += math.Min(float64(e.Cargo)*p.CellScoreEnemyCargo, maxEnemyCargoBonus)
		}
	}

	neighbours := 0.0
	for _, n := range t.ix.Neighbours(pos) {
		e := t.enemyShipAt(n)
		if e == nil {
			continue
		}
		if e.Cargo < s.Cargo {
			neighbours = -(captureRisk + float64(s.Cargo)) * (p.CellScoreNeighbourDiscount + 0.15)
			break
		}
		if e.Cargo == s.Cargo && !t.isOwnShipyard(pos) {
			open := !t.farming[pos] && t.shipyardDist[pos] > 1 && t.shipyardDist[n] > 1 && !t.nearNextShipyard(pos)
			tolerated := t.grid.ShipyardAt(n) == nil && t.st.intrusionCount(n, e.ID) <= p.MaxIntrusionCount
			if (open || tolerated) && (t.step > p.GreedStop || t.mapDiff[e.Owner] >= p.GreedMinMapDiff) {
				neighbours -= equalCargoRisk * p.CellScoreNeighbourDiscount
			}
			continue
		}
		neighbours += math.Min(float64(e.Cargo)*p.CellScoreEnemyCargo*p.CellScoreNeighbourDiscount, maxNeighbourCargoBonus)
	}
	score += neighbours
	score += p.CellScoreDominance * t.maps.SmallDominance[pos]

	if h := t.b.Halite[pos]; t.farming[pos] && h > 0 && h < t.harvestThreshold {
		if s.Pos == pos {
			score += p.CellScoreMineFarming
		} else {
			score += p.CellScoreFarming
		}
	}
	return score * (1 + p.CellScoreOwnCargo*float64(s.Cargo))
}

// shipyardDefended reports whether the owner has a ship next to its shipyard
// at pos that would win a collision against cargo.
func (t *Turn) shipyardDefended(pos, owner, cargo int) bool {
	for _, n := range t.ix.Neighbours(pos) {
		if d := t.grid.ShipAt(n); d != nil && d.Owner == owner && d.Cargo <= cargo {
			return true
		}
	}
	return false
}

// nearNextShipyard reports whether pos lies within two cells of the planned
// construction site.
func (t *Turn) nearNextShipyard(pos int) bool {
	return t.st.NextShipyard != noPos && t.ix.Distance(pos, t.st.NextShipyard) <= 2
}
