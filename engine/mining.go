package engine

import (
	"math"

	"github.com/nstehr/flotilla/model"
)

const (
	earlyAlpha        = 0.5
	enemyCellDecay    = 0.75
	maxHaliteValue    = 500
	maxShipyardLookup = 20
	escapeClip        = 22
	blockYardFactor   = 0.1
	openingYardFactor = 0.05
)

// miningScore rates sending ship s (surface row) to cell. Shipyard cells are
// dropoffs: the ship deposits and the score values the cargo. Higher is
// better; zero means nothing to gain.
func (t *Turn) miningScore(row int, s *model.Ship, cell int) float64 {
	p := t.p
	halite := t.b.Halite[cell]
	dist := t.ix.Distance(s.Pos, cell)
	yardDist := t.shipyardDist[cell]

	alpha := earlyAlpha
	beta := t.miningBeta
	if t.step > 20+yardDist {
		alpha = p.MiningScoreAlpha
	}
	quality := 0.0
	if t.maps.MaxUltra > 0 {
		quality = t.maps.UltraBlurred[s.Pos] / t.maps.MaxUltra
	}
	if alpha == p.MiningScoreAlpha {
		alpha *= p.MiningScoreAlphaMin + (1-p.MiningScoreAlphaMin)*(1-quality)
	}
	if beta == p.MiningScoreBeta {
		beta *= p.MiningScoreBetaMin + (1-p.MiningScoreBetaMin)*(1-quality)
	}

	decay := math.Pow(p.MapBlurGamma, float64(dist))
	value := (1-decay)*t.maps.Blurred[cell] + decay*halite
	if e := t.enemyShipAt(cell); e != nil && dist > 1 {
		value *= math.Pow(enemyCellDecay, float64(dist-1))
	} else {
		value = math.Min(math.Pow(1.02, float64(dist))*value, maxHaliteValue)
	}
	farmingActive := p.FarmingStart <= t.step+dist && t.step+dist < t.st.FarmingEnd
	yardDist = min(yardDist, maxShipyardLookup)

	ratio := 0
	switch {
	case s.Cargo == 0:
	case value <= 0:
		ratio = stepsRatios - 1
	case beta > 0:
		r := math.Log(beta*float64(s.Cargo)/value)*2.5 + 5.5
		ratio = int(clip(math.Trunc(r), 0, stepsRatios-1))
	}

	var mine int
	switch {
	case yardDist == 0:
		if dist == 0 {
			return 0
		}
	case t.farming[cell] && halite >= t.harvestThreshold && farmingActive && value > 0:
		mine = max(int(math.Ceil(math.Log(t.harvestThreshold/value)/math.Log(regrowthRate))), 0)
	default:
		mine = t.steps.lookup(dist, int(math.Round(alpha*float64(yardDist))), ratio)
	}
	if t.step >= p.EndStart {
		over := t.step + dist + mine + yardDist + p.EndReturnExtraMoves/2 - t.lastStep
		if over > 0 {
			mine = max(mine-over, 0)
		}
	}

	domClip := p.MiningScoreDominanceClip
	safety := p.MiningScoreDominanceNorm * clip(t.maps.SmallSafety[cell]+domClip, 0, 1.5*domClip) / (1.5 * domClip)
	if t.step < p.MiningScoreStartReturning {
		safety /= 1.5
		safety += p.MiningScoreDominanceNorm / 3
	}
	safety += 1 - p.MiningScoreDominanceNorm/2

	turns := float64(dist + mine)
	score := math.Pow(p.MiningScoreGamma, turns) *
		(beta*float64(s.Cargo) + (1-math.Pow(regrowthRate, float64(mine)))*value) *
		safety / math.Max(turns+alpha*float64(yardDist), 1)

	if yardDist == 0 && t.step <= 11 {
		score *= blockYardFactor
	}
	if farmingActive {
		if halite < t.harvestThreshold && t.farming[cell] {
			score *= p.MiningScoreFarmingPenalty
		} else if halite < p.MinorHarvestThreshold*t.harvestThreshold && t.minorFarming[cell] {
			score *= p.MiningScoreMinorFarmingPenalty
		}
	}
	if t.step <= 8+t.st.FirstShipyardStep && yardDist <= 3 {
		score *= openingYardFactor
	}

	escape := 1 - clip(t.escape[row][cell]-t.dangerTolerance, 0, escapeClip)/escapeClip
	score *= escape
	if escape > 0.85 && t.step > p.GreedStop {
		tiny := t.minDanger(cell, tinyRadius)
		if tiny <= s.Cargo {
			score *= clip(float64(tiny)/float64(s.Cargo+10), 0.25, 0.75)
		}
	}
	return score
}

// minDanger returns the smallest enemy cargo able to reach any cell within r
// of pos next turn.
func (t *Turn) minDanger(pos, r int) int {
	best := math.MaxInt
	for _, c := range t.ix.Within(pos, r) {
		best = min(best, t.maps.Danger[c])
	}
	return best
}
