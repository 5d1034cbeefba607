package engine

import (
	"math"
	"slices"
	"sort"

	"github.com/nstehr/flotilla/model"
	"github.com/nstehr/flotilla/rules"
)

// shipsPerShipyards is the fleet size at which the n-th connected shipyard
// becomes worth building.
var shipsPerShipyards = [...]int{0, 8, 17, 23, 28, 33, 38, 46, 49}

const (
	openingSiteMaxHalite  = 40
	earlySiteMaxHalite    = 50
	requireDominanceBoost = 1.8
	enemyAvoidDiff        = 12
	buildAvoidDiff        = 10
	lateBuildAvoidDiff    = 14
	lateBuildStep         = 130
	earlyConstructionStep = 45
	constructionGuardCost = 250
	minSiteDominance      = -3
	guardedSiteDominance  = 3
	openingSteps          = 10
	lateNoShipyardCargo   = 1200
	maxUnguardedFleet     = 5
)

type site struct {
	pos   int
	score float64
}

// planShipyard picks the best construction site for the next shipyard. With
// preview set the site is only returned; otherwise it becomes NextShipyard.
// It returns noPos when nothing qualifies.
func (t *Turn) planShipyard(preview bool) int {
	var sites []site
	switch {
	case len(t.me.Shipyards) == 0:
		if len(t.me.Ships) == 0 {
			return noPos
		}
		best := t.me.Ships[0].Pos
		for _, s := range t.me.Ships[1:] {
			if t.maps.UltraBlurred[s.Pos] > t.maps.UltraBlurred[best] {
				best = s.Pos
			}
		}
		for _, pos := range t.ix.Within(best, t.p.DominanceMapSmallRadius) {
			if t.b.Halite[pos] <= openingSiteMaxHalite {
				sites = append(sites, site{pos, t.maps.UltraBlurred[pos] / float64(1+t.ix.Distance(best, pos))})
			}
		}
	case t.maxConnections == 0:
		sites = t.secondShipyardSites()
	default:
		sites = t.triangleSites()
	}
	if len(sites) == 0 {
		return noPos
	}
	sort.SliceStable(sites, func(i, j int) bool { return sites[i].score > sites[j].score })
	if !preview {
		t.st.NextShipyard = sites[0].pos
		t.log.Info("planned next shipyard", "pos", sites[0].pos)
	}
	return sites[0].pos
}

func (t *Turn) secondShipyardSites() []site {
	p := t.p
	yard := t.me.Shipyards[0].Pos
	early := t.step <= p.EarlySecondShipyard
	var sites []site
	for pos := 0; pos < t.b.Cells(); pos++ {
		if !t.inShipyardBand(t.ix.Distance(yard, pos)) {
			continue
		}
		nearest := farDistance
		for _, y := range t.enemyShipyards {
			nearest = min(nearest, t.ix.Distance(pos, y.Pos))
		}
		if nearest < p.MinEnemyShipyardDistance {
			continue
		}
		score := float64(t.populated(t.halfway(yard, pos)))
		if early && t.b.Halite[pos] <= earlySiteMaxHalite {
			score += t.maps.UltraBlurred[pos] / 5
		}
		sites = append(sites, site{pos, score})
	}
	return sites
}

func (t *Turn) triangleSites() []site {
	p := t.p
	requireDominance := t.connected > 2 && (t.mapRank != 0 || t.rank != 0 || t.connected >= 4)
	var avoid []int
	for _, y := range t.enemyShipyards {
		if t.mapDiff[y.Owner] < enemyAvoidDiff {
			avoid = append(avoid, y.Pos)
		}
	}
	var sites []site
	for pos := 0; pos < t.b.Cells(); pos++ {
		dominance := t.maps.MediumDominance[pos]
		if requireDominance && dominance < p.ShipyardMinDominance*requireDominanceBoost {
			continue
		}
		if slices.ContainsFunc(avoid, func(a int) bool { return t.ix.Distance(pos, a) < p.MinEnemyShipyardDistance }) {
			continue
		}
		if !t.inShipyardBand(t.shipyardDist[pos]) {
			continue
		}
		good := t.shipyardsInBand(pos)
		if !requireDominance {
			dominance = 0
		}
		for i, a := range good {
			for _, b := range good[i+1:] {
				if t.ix.IsTriangle(pos, a, b, p.MinShipyardDistance, p.MaxShipyardDistance) {
					mid := t.ix.ExcircleMidpoint(a, b, pos)
					sites = append(sites, site{pos, float64(t.populated(mid)) + dominance})
				}
			}
		}
	}
	return sites
}

// shipyardsInBand lists own shipyards at a connectable distance from pos.
func (t *Turn) shipyardsInBand(pos int) []int {
	var out []int
	for _, y := range t.shipyards {
		if t.inShipyardBand(t.ix.Distance(pos, y)) {
			out = append(out, y)
		}
	}
	return out
}

// halfway returns the cell midway from a towards b along the shortest
// wrapped vector.
func (t *Turn) halfway(a, b int) int {
	dx, dy := t.ix.Vector(a, b)
	c, r := t.ix.XY(a)
	return t.ix.Pos(c+int(math.RoundToEven(0.5*float64(dx))), r+int(math.RoundToEven(0.5*float64(dy))))
}

// populated counts cells with halite within the farming radius of pos.
func (t *Turn) populated(pos int) int {
	n := 0
	for _, c := range t.ix.Within(pos, t.farmingRadius) {
		if t.b.Halite[c] > 0 {
			n++
		}
	}
	return n
}

// buildShipyards keeps the construction plan current, staffs it and
// converts at most one ship per turn.
func (t *Turn) buildShipyards() {
	p := t.p
	if len(t.me.Ships) == 0 {
		return
	}
	diff := buildAvoidDiff
	if t.step > lateBuildStep {
		diff = lateBuildAvoidDiff
	}
	next := t.st.NextShipyard
	if next != noPos && len(t.me.Shipyards) > 0 && t.step <= p.ShipyardStop {
		avoided := false
		for _, y := range t.enemyShipyards {
			if t.mapDiff[y.Owner] < diff && t.ix.Distance(y.Pos, next) < p.MinEnemyShipyardDistance {
				avoided = true
				break
			}
		}
		if !t.inShipyardBand(t.shipyardDist[next]) || avoided || len(t.me.Shipyards) < t.st.LastShipyardCount {
			t.planShipyard(false)
		}
	}

	disabled := (p.ShipyardStart > t.step || t.step > p.ShipyardStop) && (t.step > openingSteps || len(t.me.Shipyards) > 0)
	if t.step < p.ShipyardStop && t.wantsShipyard() {
		t.staffConstruction()
	} else if disabled {
		return
	}

	ships := make([]*model.Ship, len(t.me.Ships))
	for i := range t.me.Ships {
		ships[i] = &t.me.Ships[i]
	}
	sort.SliceStable(ships, func(i, j int) bool { return ships[i].Cargo > ships[j].Cargo })
	for _, s := range ships {
		if t.roster.Role(s.ID) == rules.Converting || !t.shouldConvert(s) {
			continue
		}
		if disabled && s.Pos != t.st.NextShipyard {
			continue
		}
		t.convert(s)
		return
	}
}

// wantsShipyard reports whether fleet size and standing justify another
// shipyard this turn.
func (t *Turn) wantsShipyard() bool {
	p := t.p
	if p.ThirdShipyardStep <= t.step && t.step < 200 && t.maxConnections <= 1 &&
		t.shipAdvantage > -10 && t.shipCount >= shipsPerShipyards[2] {
		return true
	}
	if p.SecondShipyardStep <= t.step && t.maxConnections == 0 &&
		t.shipAdvantage > -18 && t.shipCount >= shipsPerShipyards[1] {
		return true
	}
	wanted := max(t.connected, 1) + 1
	fleet := wanted < len(shipsPerShipyards) && len(t.me.Ships) >= shipsPerShipyards[wanted]
	ratio := float64(wanted)/float64(len(t.me.Ships)) <= p.ShipsShipyardsThreshold
	return (fleet || ratio) && t.shipAdvantage > p.ShipyardMinShipAdvantage && t.maxConnections > 1
}

// staffConstruction sends the closest empty ship to the planned site, with
// an escort when the site is contested.
func (t *Turn) staffConstruction() {
	next := t.st.NextShipyard
	if next == noPos {
		t.planShipyard(false)
		return
	}
	dominance := t.maps.SmallDominance[next]
	if dominance < minSiteDominance {
		t.log.Debug("construction site dominance too low", "pos", next, "dominance", dominance)
		return
	}
	var crew []*model.Ship
	for i := range t.me.Ships {
		s := &t.me.Ships[i]
		if t.roster.Has(s.ID) {
			continue
		}
		if s.Cargo <= 0 || (t.step <= earlyConstructionStep && t.enemyDist[next] >= 2) {
			crew = append(crew, s)
		}
	}
	sort.SliceStable(crew, func(i, j int) bool {
		return t.ix.Distance(crew[i].Pos, next) < t.ix.Distance(crew[j].Pos, next)
	})
	if len(crew) > 0 && t.ownShipAt(next) == nil {
		t.roster.Set(crew[0].ID, rules.Constructing)
	}
	if len(crew) > 1 && t.halite > constructionGuardCost && dominance < guardedSiteDominance {
		t.roster.Set(crew[1].ID, rules.ConstructionGuarding)
	}
}

// shouldConvert decides whether s turns into a shipyard where it stands.
func (t *Turn) shouldConvert(s *model.Ship) bool {
	p := t.p
	if t.halite+s.Cargo < t.cfg.ConvertCost {
		return false
	}
	nearest := farDistance
	for _, e := range t.enemies {
		nearest = min(nearest, t.ix.Distance(s.Pos, e.Pos))
	}
	guarded := false
	for _, g := range t.me.Ships {
		d := t.ix.Distance(g.Pos, s.Pos)
		if (d > 0 && d < nearest) || (d == 1 && t.roster.Role(g.ID) == rules.ConstructionGuarding) {
			guarded = true
			break
		}
	}
	if !guarded && t.shipCount > maxUnguardedFleet {
		return false
	}
	if s.Pos == t.st.NextShipyard && t.step <= p.ShipyardStop {
		return true
	}
	if t.shipyardCount == 0 && t.step <= openingSteps {
		return false
	}
	if t.shipyardCount == 0 && (t.step <= p.EndStart || s.Cargo >= t.cfg.ConvertCost || t.cargo >= lateNoShipyardCargo) {
		return true
	}
	if t.connected >= p.MaxShipyards {
		return false
	}
	if t.avgHalite/float64(t.shipyardCount) < p.ShipyardConversionThreshold ||
		float64(max(t.connected, 1)+1)/float64(t.shipCount) >= p.ShipsShipyardsThreshold {
		return false
	}
	if t.maps.MediumDominance[s.Pos] < p.ShipyardMinDominance {
		return false
	}
	return t.goodTriangle(s.Pos)
}

// goodTriangle reports whether a shipyard at pos would connect to existing
// shipyards around a well populated area.
func (t *Turn) goodTriangle(pos int) bool {
	if !t.inShipyardBand(t.shipyardDist[pos]) {
		return false
	}
	good := t.shipyardsInBand(pos)
	if len(good) == 0 {
		return false
	}
	var mids []int
	if t.maxConnections == 0 {
		mids = append(mids, t.halfway(pos, good[0]))
	} else {
		pc, pr := t.ix.XY(pos)
		for i, a := range good {
			ac, ar := t.ix.XY(a)
			for _, b := range good[i+1:] {
				bc, br := t.ix.XY(b)
				if (ac == bc && bc == pc) || (ar == br && br == pr) {
					mids = append(mids, pos)
				} else {
					mids = append(mids, t.ix.ExcircleMidpoint(a, b, pos))
				}
			}
		}
	}
	threshold := t.p.ShipyardMinPopulation * t.avgPopulation * float64(t.farmingCells)
	for _, m := range mids {
		if float64(t.populated(m)) >= threshold {
			return true
		}
	}
	return false
}

// convert commits s to become a shipyard this turn and pays for it up front.
func (t *Turn) convert(s *model.Ship) {
	t.roster.Set(s.ID, rules.Converting)
	t.surface.SetConvert(s.ID, prepaidConvert)
	t.halite += s.Cargo - t.cfg.ConvertCost
	t.shipCount--
	t.shipyardCount++
	t.plannedShipyards = append(t.plannedShipyards, s.Pos)
	if t.step < openingSteps {
		t.st.FirstShipyardStep = t.step
	}
	if s.Pos == t.st.NextShipyard {
		t.st.NextShipyard = noPos
	}
	t.log.Info("converting ship", "ship", s.ID, "pos", s.Pos)
}
