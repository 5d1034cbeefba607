package engine

import (
	"math"
	"slices"
	"sort"

	"github.com/nstehr/flotilla/assign"
	"github.com/nstehr/flotilla/model"
	"github.com/nstehr/flotilla/rules"
	"github.com/nstehr/flotilla/spatial"
)

// candidate is one column of the mining matrix: a cell to mine, or a
// shipyard reached at exactly dist moves.
type candidate struct {
	pos     int
	dropoff bool
	dist    int
}

// assignTargets solves the mining, hunting, defending and border assignment
// problems in turn. Ships without a profitable mining target move on to
// hunting or returning.
func (t *Turn) assignTargets() {
	if len(t.me.Ships) == 0 {
		return
	}
	t.assignMining()
	plan := t.assignHunting()
	if len(t.me.Shipyards) > 0 {
		t.assignGuarding(plan)
	}
	t.assignHuntingGroups(plan)
}

func (t *Turn) miningCandidates() []candidate {
	var out []candidate
	for pos, h := range t.b.Halite {
		if h >= t.p.MinMiningResource && t.maps.SmallSafety[pos] >= -2 {
			out = append(out, candidate{pos: pos})
		}
	}
	seen := make(map[[2]int]bool)
	for _, y := range t.shipyards {
		for _, s := range t.miningShips {
			d := t.ix.Distance(s.Pos, y)
			if !seen[[2]int{y, d}] {
				seen[[2]int{y, d}] = true
				out = append(out, candidate{pos: y, dropoff: true, dist: d})
			}
		}
	}
	return out
}

func (t *Turn) assignMining() {
	p := t.p
	t.miningBeta = p.MiningScoreBetaEarly
	if t.step >= p.MiningScoreStartReturning {
		t.miningBeta = p.MiningScoreBeta
	}
	if t.st.FarmingEnd < t.step && t.step < p.EndStart {
		t.miningBeta = p.MiningScoreBetaLate
	}

	cands := t.miningCandidates()
	m := assign.NewMatrix(len(t.miningShips), len(cands), 0)
	for i, s := range t.miningShips {
		row := t.surface.row[s.ID]
		for j, c := range cands {
			if c.dropoff && c.dist != t.ix.Distance(s.Pos, c.pos) {
				m.Set(i, j, assign.Infeasible)
				continue
			}
			m.Set(i, j, t.miningScore(row, s, c.pos))
		}
	}
	pairs := assign.Maximize(m)

	assigned := make([]float64, 0, len(pairs))
	for _, pr := range pairs {
		assigned = append(assigned, m.At(pr.Row, pr.Col))
	}
	slices.Sort(assigned)
	proportion := p.HuntingProportion
	if t.step >= t.st.FarmingEnd {
		proportion = p.HuntingProportionAfterFarming
	}
	huntingEnabled := t.step > p.DisableHuntingTill &&
		(t.shipCount >= p.HuntingMinShips || t.step > p.SpawnTill)
	threshold := -1.0
	if len(assigned) > 0 {
		mean, std := meanStd(assigned)
		idx := max(int(math.Ceil(float64(len(assigned))*proportion))-1, 0)
		threshold = math.Max(mean-std*p.HuntingScoreAlpha, assigned[idx])
		t.log.Debug("assigned mining scores", "mean", mean, "threshold", threshold)
	}
	floor := p.HuntingThreshold
	if t.step <= 80 {
		floor -= 4
	}

	targets := make(map[string]int)
	for _, pr := range pairs {
		s := t.miningShips[pr.Row]
		score := m.At(pr.Row, pr.Col)
		if huntingEnabled && (score < floor || (score <= threshold && s.Cargo <= 0)) {
			continue
		}
		targets[s.ID] = cands[pr.Col].pos
	}

	var still []*model.Ship
	for _, s := range t.miningShips {
		pos, ok := targets[s.ID]
		switch {
		case ok && t.isOwnShipyard(pos):
			t.roster.Set(s.ID, rules.Returning)
			t.returningShips = append(t.returningShips, s)
			t.depositTargets[s.ID] = pos
			t.log.Debug("ship returns", "ship", s.ID, "shipyard", pos)
		case ok:
			t.miningTargets[s.ID] = pos
			still = append(still, s)
			t.log.Debug("mining target", "ship", s.ID, "target", pos)
		case s.Cargo <= 0:
			t.roster.Set(s.ID, rules.Hunting)
			t.huntingShips = append(t.huntingShips, s)
		default:
			t.roster.Set(s.ID, rules.Returning)
			t.returningShips = append(t.returningShips, s)
		}
	}
	t.miningShips = still
}

// huntSlot is one column of the hunting matrix: an approach direction on an
// enemy ship. Several slots per direction let ships converge.
type huntSlot struct {
	dir   spatial.Direction
	enemy *model.Ship
}

// huntPlan is the solved hunting matrix. ships holds the matrix rows in
// order; later passes may move ships out of the hunting role.
type huntPlan struct {
	ships []*model.Ship
	m     *assign.Matrix
	slots []huntSlot
	pairs []assign.Pair
}

func (t *Turn) assignHunting() huntPlan {
	per := t.p.MaxHuntingShipsPerDirection
	slots := make([]huntSlot, 0, len(t.enemies)*4*per)
	for _, e := range t.enemies {
		for _, d := range spatial.Directions {
			for k := 0; k < per; k++ {
				slots = append(slots, huntSlot{dir: d, enemy: e})
			}
		}
	}
	m := assign.NewMatrix(len(t.huntingShips), len(slots), assign.Infeasible)
	for i, s := range t.huntingShips {
		for j, sl := range slots {
			if t.ix.OnFarthest(s.Pos, sl.enemy.Pos, sl.dir) {
				m.Set(i, j, t.huntingScore(s, sl.enemy))
			}
		}
	}
	pairs := assign.Maximize(m)
	for _, pr := range pairs {
		if m.At(pr.Row, pr.Col) > assign.Infeasible {
			t.huntingTargets[t.huntingShips[pr.Row].ID] = shipTarget(slots[pr.Col].enemy)
		}
	}
	return huntPlan{ships: slices.Clone(t.huntingShips), m: m, slots: slots, pairs: pairs}
}

// assignGuarding moves the weakest hunters into guarding duty, turns those
// close to intruders into defenders and spreads the rest over the border.
func (t *Turn) assignGuarding(plan huntPlan) {
	p := t.p
	m, slots, pairs := plan.m, plan.slots, plan.pairs
	var guardTargets []target
	for _, e := range t.enemies {
		if t.guarding[e.Pos] {
			guardTargets = append(guardTargets, shipTarget(e))
		}
	}
	if len(t.me.Shipyards) < enemyShipyardAttack {
		for _, y := range t.enemyShipyards {
			if t.guarding[y.Pos] {
				guardTargets = append(guardTargets, shipyardTarget(y))
			}
		}
	}

	scores := make([]float64, 0, len(pairs))
	for _, pr := range pairs {
		scores = append(scores, m.At(pr.Row, pr.Col))
	}
	slices.Sort(scores)

	endangered := 0
	for _, y := range t.shipyards {
		for _, e := range t.enemies {
			if t.ix.Distance(e.Pos, y) <= endangeredRadius {
				endangered++
				break
			}
		}
	}
	inZone := 0
	for _, e := range t.enemies {
		if t.guarding[e.Pos] {
			inZone++
		}
	}

	n := len(scores)
	advNorm := p.GuardingShipAdvantageNorm
	share := 0.5*(1-clip(float64(t.shipAdvantage), 0, advNorm)/advNorm)*
		(clip(t.enemyHuntingShare, 0, p.GuardingNorm)/p.GuardingNorm) +
		0.5*p.GuardingProportion
	limit := 500
	if t.step >= p.GuardingEnd {
		limit = 0
	}
	index := min(
		max(
			min(int(math.Ceil(share*float64(n)))-1, p.GuardingMaxShipsPerShipyard*endangered-1, limit),
			min(n-1, len(t.me.Shipyards)),
			n-5*inZone-1,
		)-len(t.guardingShips),
		len(t.border)-1,
	)

	if index > 0 && index < n {
		cut := scores[index]
		for _, pr := range pairs {
			s := plan.ships[pr.Row]
			if m.At(pr.Row, pr.Col) >= cut {
				continue
			}
			target := slots[pr.Col].enemy.Pos
			if !t.guarding[target] || t.ix.Distance(s.Pos, target) > p.GuardingAggressionRadius || t.isOwnShipyard(s.Pos) {
				t.guardingShips = append(t.guardingShips, s)
			} else {
				t.roster.Set(s.ID, rules.Defending)
			}
		}

		var open []target
		for _, g := range guardTargets {
			if g.shipyard || g.cargo > 0 || !t.huntedBySomeone(g.id) {
				open = append(open, g)
			}
		}
		defenders := t.assignDefenders(open)
		for _, s := range t.guardingShips {
			if defenders[s.ID] {
				continue
			}
			t.huntingShips = slices.DeleteFunc(t.huntingShips, func(h *model.Ship) bool { return h.ID == s.ID })
			t.roster.Set(s.ID, rules.Guarding)
		}
	}

	t.guardingShips = slices.DeleteFunc(t.guardingShips, func(g *model.Ship) bool {
		return slices.ContainsFunc(t.huntingShips, func(h *model.Ship) bool { return h.ID == g.ID })
	})
	var available []*model.Ship
	for _, s := range t.guardingShips {
		if !t.shipyardGuards[s.ID] {
			available = append(available, s)
		}
	}
	if len(available) > 0 {
		if len(t.border) == 0 {
			t.log.Error("no guarding positions", "guards", len(available))
		}
		bm := assign.NewMatrix(len(available), len(t.border), 0)
		for i, s := range available {
			for j, b := range t.border {
				bm.Set(i, j, t.borderScore(s.Pos, b))
			}
		}
		for _, pr := range assign.Minimize(bm) {
			t.borderGuards[available[pr.Row].ID] = t.border[pr.Col]
		}
	}
	for _, s := range available {
		if _, ok := t.borderGuards[s.ID]; !ok {
			t.roster.Set(s.ID, rules.Hunting)
			t.huntingShips = append(t.huntingShips, s)
		}
	}
}

// huntedBySomeone reports whether any hunter already targets id.
func (t *Turn) huntedBySomeone(id string) bool {
	for _, tg := range t.huntingTargets {
		if tg.id == id {
			return true
		}
	}
	return false
}

// assignDefenders sends guarding ships after intruders within the
// aggression radius, minimizing the total distance. It returns the ids of
// ships that became defenders.
func (t *Turn) assignDefenders(targets []target) map[string]bool {
	p := t.p
	assigned := make(map[string]bool)
	var ships []*model.Ship
	for _, s := range t.guardingShips {
		if !t.shipyardGuards[s.ID] {
			ships = append(ships, s)
		}
	}
	if len(targets) == 0 || len(ships) == 0 {
		return assigned
	}
	per := p.MaxGuardingShipsPerTarget
	const unreachable = 99999
	m := assign.NewMatrix(len(ships), len(targets)*per, unreachable)
	for i, s := range ships {
		for k, tg := range targets {
			d := t.ix.Distance(s.Pos, tg.pos)
			if d > p.GuardingAggressionRadius {
				continue
			}
			for slot := 0; slot < per; slot++ {
				m.Set(i, k*per+slot, float64(d))
			}
		}
	}
	for _, pr := range assign.Minimize(m) {
		if m.At(pr.Row, pr.Col) > float64(p.GuardingAggressionRadius) {
			continue
		}
		s := ships[pr.Row]
		assigned[s.ID] = true
		t.roster.Set(s.ID, rules.Defending)
		t.huntingTargets[s.ID] = targets[pr.Col/per]
	}
	return assigned
}

// assignHuntingGroups lets groups of nearby hunters share a target.
func (t *Turn) assignHuntingGroups(plan huntPlan) {
	p := t.p
	if p.HuntingMaxGroupSize <= 1 || len(t.enemies) == 0 {
		return
	}
	rowOf := make(map[int]int)
	byPos := make(map[int]*model.Ship)
	var positions []int
	for i, s := range plan.ships {
		if t.roster.Role(s.ID) == rules.Hunting {
			rowOf[s.Pos] = i
			byPos[s.Pos] = s
			positions = append(positions, s.Pos)
		}
	}
	if len(positions) == 0 {
		return
	}
	sort.Ints(positions)
	groups := t.ix.Group(positions, p.HuntingMaxGroupSize, p.HuntingMaxGroupDistance)

	width := 4 * p.MaxHuntingShipsPerDirection
	gm := assign.NewMatrix(len(groups), 2*len(t.enemies), 0)
	for gi, g := range groups {
		for _, pos := range g {
			row := plan.m.Row(rowOf[pos])
			for e := range t.enemies {
				v := clip(slices.Max(row[e*width:(e+1)*width]), 0, 999999) / float64(len(g))
				gm.Add(gi, 2*e, v)
				gm.Add(gi, 2*e+1, v)
			}
		}
	}
	for _, pr := range assign.Maximize(gm) {
		enemy := plan.slots[width*(pr.Col/2)].enemy
		for _, pos := range groups[pr.Row] {
			t.huntingTargets[byPos[pos].ID] = shipTarget(enemy)
		}
	}
}

// borderScore rates a guard at shipPos taking border cell borderPos. Lower
// is better.
func (t *Turn) borderScore(shipPos, borderPos int) float64 {
	score := 0.5*float64(t.ix.Distance(shipPos, borderPos)) + t.maps.SmallDominance[borderPos]
	if shipPos == borderPos && t.b.Halite[borderPos] > 0 {
		score += 50
	}
	if t.shipyardDist[borderPos] <= 2 {
		score -= 1.5
	}
	return score
}

func meanStd(xs []float64) (float64, float64) {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}
