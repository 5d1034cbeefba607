package engine

import (
	"math"

	"github.com/nstehr/flotilla/model"
	"github.com/nstehr/flotilla/spatial"
)

const (
	losingTrade        = -9999
	huntingDistance    = 2
	interceptDistance  = 4
	nextShipyardRadius = 3
	ultraClip          = 200
)

// target is what a hunting or defending ship chases: an enemy ship or an
// enemy shipyard.
type target struct {
	id       string
	pos      int
	cargo    int
	owner    int
	shipyard bool
}

func shipTarget(s *model.Ship) target {
	return target{id: s.ID, pos: s.Pos, cargo: s.Cargo, owner: s.Owner}
}

func shipyardTarget(y *model.Shipyard) target {
	return target{id: y.ID, pos: y.Pos, owner: y.Owner, shipyard: true}
}

func interceptionKey(ship, enemy string) string { return ship + "/" + enemy }

// huntingScore rates ship s chasing enemy e. Chasing a richer enemy scores
// positive; chasing a cheaper one is a losing trade.
func (t *Turn) huntingScore(s, e *model.Ship) float64 {
	p := t.p
	diff := e.Cargo - s.Cargo
	dist := t.ix.Distance(s.Pos, e.Pos)
	left := 1 - float64(t.step)/float64(max(t.lastStep, 1))

	var gain float64
	switch {
	case diff < 0:
		gain = losingTrade
	case diff == 0:
		gain = 0.25 * p.HuntingScoreShipBonus * left / p.HuntingScoreCargoNorm
	default:
		gain = (p.HuntingScoreShipBonus*left + float64(diff)) / p.HuntingScoreCargoNorm
	}

	dominance := p.HuntingScoreDelta + p.HuntingScoreBeta*clip(t.maps.MediumDominance[e.Pos]+10, 0, 20)/20
	var standing float64
	if t.rank <= 1 {
		standing = float64(3 - t.ranking[e.Owner])
	} else {
		standing = float64(t.ranking[e.Owner])
	}
	player := 1 + p.HuntingScoreKappa*standing
	region := 1.0
	if t.guarding[e.Pos] {
		region = p.HuntingScoreRegion
	}
	score := math.Pow(p.HuntingScoreGamma, float64(dist)) * gain * region * dominance * player *
		(1 + p.HuntingScoreIota*clip(t.maps.UltraBlurred[e.Pos], 0, ultraClip)/ultraClip) *
		(1 + p.HuntingScoreZeta*clip(t.maps.Cargo[e.Pos], 0, p.HuntingScoreCargoClip)/p.HuntingScoreCargoClip)

	if t.st.NextShipyard != noPos && t.ix.Distance(e.Pos, t.st.NextShipyard) <= nextShipyardRadius {
		score *= p.HuntingScoreYpsilon
	}

	if f, ok := t.vulnerable[e.ID]; ok {
		switch {
		case dist <= huntingDistance:
			score *= p.HuntingScoreHunt
		case f.interceptable():
			if ic, ok := t.intercept(s.Pos, e.Pos, f.dir); ok {
				score *= p.HuntingScoreIntercept
				t.interceptions[interceptionKey(s.ID, e.ID)] = ic.moves
			}
		case dist <= interceptDistance:
			score *= p.HuntingScoreIntercept / 2
		}
	}

	if len(t.realFarming) > 0 && !t.farming[e.Pos] {
		moves := t.ix.Navigate(s.Pos, e.Pos)
		if len(moves) > 0 {
			inWay := math.MaxInt
			for _, d := range moves {
				inWay = min(inWay, t.farmingInBetween(s.Pos, e.Pos, d))
			}
			score *= math.Pow(p.HuntingScoreFarmingPositionPenalty, float64(inWay))
		}
	}
	return score
}

// farmingInBetween counts harvestable farming cells strictly between src and
// dst along the axis of d, on the line through src.
func (t *Turn) farmingInBetween(src, dst int, d spatial.Direction) int {
	sc, sr := t.ix.XY(src)
	dc, dr := t.ix.XY(dst)
	// fixed is the coordinate shared with src; along runs from src to dst.
	fixed, from, to := sr, sc, dc
	if d.Vertical() {
		fixed, from, to = sc, sr, dr
	}
	span := t.ix.AxisDistance(from, to)
	count := 0
	for _, pos := range t.realFarming {
		fc, fr := t.ix.XY(pos)
		cross, along := fr, fc
		if d.Vertical() {
			cross, along = fc, fr
		}
		if cross != fixed {
			continue
		}
		if t.ix.AxisDistance(from, along) < span && t.ix.AxisDistance(to, along) < span {
			count++
		}
	}
	return count
}
