package engine

import (
	"github.com/nstehr/flotilla/influence"
	"github.com/nstehr/flotilla/spatial"
)

// flight describes the safe moves left to a vulnerable enemy ship.
type flight struct {
	// trapped is set when no move is safe.
	trapped bool
	// dir is the only safe move; Stay when staying put is the only option.
	dir spatial.Direction
}

// interceptable reports whether the enemy has a single safe move that
// changes its cell, so a hunter can cut it off.
func (f flight) interceptable() bool { return !f.trapped && f.dir != spatial.Stay }

// exposure is a vulnerable enemy position and its cargo.
type exposure struct {
	pos   int
	cargo int
}

type escapeKey struct {
	ship string
	pos  int
}

// findVulnerable marks enemy ships with at most one safe move. A move is
// safe when no own ship that would win the collision can reach the cell and
// the cell itself leaves more than one further escape.
func (t *Turn) findVulnerable() {
	reach := influence.MinCargoInReach(t.me.Ships, t.ix)
	t.vulnerable = make(map[string]flight)
	t.escapeCount = make(map[escapeKey]int)
	t.vulnerableAt = nil

	for _, e := range t.enemies {
		var safe []int
		for _, pos := range t.ix.Reach(e.Pos) {
			onward := 0
			for _, pos2 := range t.ix.Reach(pos) {
				if pos2 != pos && reach[pos2] >= e.Cargo {
					onward++
				}
			}
			if reach[pos] >= e.Cargo && onward > 1 {
				safe = append(safe, pos)
			}
			t.escapeCount[escapeKey{e.ID, pos}] = onward
		}
		switch len(safe) {
		case 0:
			t.vulnerable[e.ID] = flight{trapped: true}
		case 1:
			t.vulnerable[e.ID] = flight{dir: t.ix.DirectionTo(e.Pos, safe[0])}
		default:
			continue
		}
		t.vulnerableAt = append(t.vulnerableAt, exposure{pos: e.Pos, cargo: e.Cargo})
	}
	t.log.Info("vulnerable enemies", "count", len(t.vulnerable))
}

// nearVulnerable reports whether a vulnerable enemy with at least cargo sits
// within two cells of pos.
func (t *Turn) nearVulnerable(pos, cargo int) bool {
	for _, v := range t.vulnerableAt {
		if cargo <= v.cargo && t.ix.Distance(pos, v.pos) <= 2 {
			return true
		}
	}
	return false
}

// interception is a planned cut-off of an enemy fleeing along one axis.
type interception struct {
	moves    []spatial.Direction
	distance int
	pos      int
}

// intercept projects the chase onto the axis the enemy must flee along and
// checks that the hunter reaches the meeting cell no later than the enemy.
func (t *Turn) intercept(hunterPos, enemyPos int, escape spatial.Direction) (interception, bool) {
	hc, hr := t.ix.XY(hunterPos)
	ec, er := t.ix.XY(enemyPos)
	var meet int
	if escape.Vertical() {
		meet = t.ix.Pos(ec, hr)
	} else {
		meet = t.ix.Pos(hc, er)
	}
	enemyMoves := t.ix.Navigate(enemyPos, meet)
	dist := t.ix.Distance(hunterPos, meet)
	moves := t.ix.Navigate(hunterPos, meet)
	if len(moves) == 0 && t.ix.Distance(hunterPos, enemyPos) > 1 {
		moves = t.ix.Navigate(hunterPos, enemyPos)
	}
	if len(enemyMoves) > 0 && enemyMoves[0] == escape && t.ix.Distance(enemyPos, meet) >= dist {
		return interception{moves: moves, distance: dist, pos: meet}, true
	}
	return interception{}, false
}
