package engine

import "math"

// Dimensions of the mining-steps table: distance to the cell, scaled
// distance from the cell to the nearest shipyard, and the discretized
// cargo/halite ratio.
const (
	stepsDistances = 22
	stepsRatios    = 15
	minMining      = 1
	maxMining      = 15
	probeHalite    = 500
)

// miningSteps holds the number of turns to spend mining a cell that
// maximizes the harvest yield per turn. It is computed once per engine.
type miningSteps [stepsDistances][stepsDistances][stepsRatios]int

func newMiningSteps() *miningSteps {
	var t miningSteps
	for n1 := 0; n1 < stepsDistances; n1++ {
		for n2 := 0; n2 < stepsDistances; n2++ {
			for ch := 0; ch < stepsRatios; ch++ {
				ratio := 0.0
				if ch > 0 {
					ratio = math.Exp(float64(ch-5) / 2.5)
				}
				yield := func(m float64) float64 {
					return harvestYield(float64(n1), float64(n2), m, probeHalite, ratio*probeHalite)
				}
				t[n1][n2][ch] = int(math.Round(goldenMax(yield, minMining, maxMining)))
			}
		}
	}
	return &t
}

// lookup clamps every index into the table.
func (t *miningSteps) lookup(dist, shipyardDist, ratio int) int {
	dist = min(max(dist, 0), stepsDistances-1)
	shipyardDist = min(max(shipyardDist, 0), stepsDistances-1)
	ratio = min(max(ratio, 0), stepsRatios-1)
	return t[dist][shipyardDist][ratio]
}

// harvestYield is the halite gained per turn for travelling n1 turns to a
// cell holding h, mining it m turns and returning n2 turns, with c already in
// the hold. Cells regrow 2% per turn while the ship travels.
func harvestYield(n1, n2, m, h, c float64) float64 {
	return (c + (1-math.Pow(regrowthRate, m))*math.Pow(1.02, n1+m)*h) / (n1 + n2 + m)
}

// goldenMax maximizes a unimodal f on [lo, hi] by golden-section search.
func goldenMax(f func(float64) float64, lo, hi float64) float64 {
	const tol = 1e-5
	invPhi := (math.Sqrt(5) - 1) / 2
	a, b := lo, hi
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)
	for b-a > tol {
		if fc > fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	return (a + b) / 2
}
