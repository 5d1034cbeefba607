package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"

	"github.com/nstehr/flotilla/influence"
	"github.com/nstehr/flotilla/model"
	"github.com/nstehr/flotilla/params"
	"github.com/nstehr/flotilla/rules"
	"github.com/nstehr/flotilla/spatial"
)

// Fallbacks and phase constants.
const (
	farDistance          = 20
	noShipyardDistance   = 3
	lateToleranceStep    = 360
	dangerTolerance      = 10
	lateDangerTolerance  = 14
	shipValue            = 500
	shipyardValue        = 750
	enemyShipyardAttack  = 6 // own shipyards below which enemy shipyards are guarding targets
	endangeredRadius     = 6
	tinyRadius           = 2
	emergencyConvertStep = 385
	emergencyCargo       = 800
)

// Turn is the context threaded through every component for one step. It
// owns the scoring surface and the spendable halite counter; the engine state
// it points to is a working copy.
type Turn struct {
	b      *model.Board
	cfg    model.Config
	ix     *spatial.Index
	p      *params.Set
	st     *State
	log    *slog.Logger
	steps  *miningSteps
	ladder *rules.Ladder

	maps *influence.Maps
	grid *model.Grid
	me   *model.Player

	step     int
	lastStep int

	// Spendable halite and projected counts. Conversions and spawns update
	// them immediately so later passes see the planned state.
	halite        int
	shipCount     int
	shipyardCount int
	cargo         int

	shipyards      []int
	enemies        []*model.Ship
	enemyByID      map[string]*model.Ship
	enemyShipyards []*model.Shipyard

	avgHalite          float64
	avgPopulatedHalite float64
	avgPopulation      float64
	farmingRadius      int
	farmingCells       int

	rank          int
	mapRank       int
	ranking       map[int]int
	mapRanking    map[int]int
	haliteRanking map[int]int
	mapDiff       map[int]int
	shipAdvantage int
	// enemyHuntingShare is the fraction of enemy ships carrying at most one
	// halite.
	enemyHuntingShare float64
	maxConnections    int
	connected         int
	enemyDist         []int
	enemyDist2        []int
	shipyardDist      []int

	guarding     map[int]bool
	farming      map[int]bool
	minorFarming map[int]bool
	realFarming  []int
	border       []int

	dangerTolerance   float64
	spawnLimitReached bool
	harvestThreshold  float64
	spawnCost         int
	miningBeta        float64

	surface          *Surface
	escape           [][]float64
	planned          map[int]bool
	plannedShipyards []int
	roster           *rules.Roster
	actions          model.Actions

	vulnerable     map[string]flight
	vulnerableAt   []exposure
	escapeCount    map[escapeKey]int
	interceptions  map[string][]spatial.Direction
	miningShips    []*model.Ship
	returningShips []*model.Ship
	huntingShips   []*model.Ship
	guardingShips  []*model.Ship
	miningTargets  map[string]int
	depositTargets map[string]int
	huntingTargets map[string]target
	borderGuards   map[string]int
	shipyardGuards map[string]bool
	urgentGuards   map[string]bool
}

func (e *Engine) newTurn(ctx context.Context, b *model.Board, st *State) (*Turn, error) {
	t := &Turn{
		b:              b,
		cfg:            e.cfg,
		ix:             e.ix,
		p:              e.store.Active(b.Step),
		st:             st,
		log:            e.logger.With("step", b.Step),
		steps:          e.steps,
		ladder:         e.ladder,
		grid:           model.NewGrid(b),
		me:             b.Self(),
		step:           b.Step,
		lastStep:       b.LastStep(),
		planned:        make(map[int]bool),
		roster:         rules.NewRoster(),
		actions:        make(model.Actions),
		interceptions:  make(map[string][]spatial.Direction),
		miningTargets:  make(map[string]int),
		depositTargets: make(map[string]int),
		huntingTargets: make(map[string]target),
		borderGuards:   make(map[string]int),
		shipyardGuards: make(map[string]bool),
		urgentGuards:   make(map[string]bool),
	}
	t.halite = t.me.Halite
	t.shipCount = len(t.me.Ships)
	t.shipyardCount = len(t.me.Shipyards)
	t.spawnCost = t.cfg.SpawnCost
	t.dangerTolerance = dangerTolerance
	if t.step >= lateToleranceStep {
		t.dangerTolerance = lateDangerTolerance
	}
	for _, s := range t.me.Ships {
		t.cargo += s.Cargo
	}
	for _, y := range t.me.Shipyards {
		t.shipyards = append(t.shipyards, y.Pos)
	}
	t.enemyByID = make(map[string]*model.Ship)
	for _, op := range b.Opponents() {
		for i := range op.Ships {
			s := &op.Ships[i]
			t.enemies = append(t.enemies, s)
			t.enemyByID[s.ID] = s
		}
		for i := range op.Shipyards {
			t.enemyShipyards = append(t.enemyShipyards, &op.Shipyards[i])
		}
	}

	t.haliteStats()
	t.rankPlayers()
	t.forceRatios()
	t.distances()

	maps, err := influence.Build(ctx, b, t.ix, t.p)
	if err != nil {
		return nil, fmt.Errorf("influence maps: %w", err)
	}
	t.maps = maps

	t.computeRegions()
	t.spawnLimitReached = t.reachedSpawnLimit()
	t.harvestThreshold = t.calculateHarvestThreshold()
	return t, nil
}

// run executes the pipeline in its fixed order.
func (t *Turn) run() model.Actions {
	t.buildSurface()
	t.recordIntrusions()
	t.findVulnerable()
	if t.step < t.st.FarmingEnd {
		t.st.FarmingEnd = t.estimateFarmingEnd()
	}
	t.specialSteps()
	t.buildShipyards()
	t.guardShipyards()
	t.spawnCost = t.currentSpawnCost()
	t.moveShips()
	t.spawnShips()
	t.st.LastShipyardCount = len(t.me.Shipyards)
	return t.actions
}

func (t *Turn) haliteStats() {
	var total, populatedTotal float64
	populated := 0
	for _, h := range t.b.Halite {
		total += h
		if h > 0 {
			populated++
			populatedTotal += h
		}
	}
	cells := float64(t.b.Cells())
	t.avgHalite = total / cells
	t.avgPopulation = float64(populated) / cells
	if populated > 0 {
		t.avgPopulatedHalite = populatedTotal / float64(populated)
	}
	t.farmingRadius = int(math.Ceil(float64(t.p.MaxShipyardDistance) / 2))
	t.farmingCells = len(t.ix.Within(0, t.farmingRadius))
}

// playerScore estimates a player's final standing from banked halite and the
// decaying value of its fleet.
func (t *Turn) playerScore(p *model.Player) float64 {
	left := 1 - float64(t.step)/float64(max(t.lastStep, 1))
	score := float64(p.Halite) +
		float64(len(p.Ships))*shipValue*left +
		float64(len(p.Shipyards))*shipyardValue*left
	for _, s := range p.Ships {
		score += float64(s.Cargo) / 4
	}
	return score
}

func mapPresence(p *model.Player) int { return len(p.Ships) + len(p.Shipyards) }

// rankBy orders players by descending score. Ties keep roster order with
// Me first.
func rankBy(players []*model.Player, score func(*model.Player) float64) map[int]int {
	order := slices.Clone(players)
	sort.SliceStable(order, func(i, j int) bool { return score(order[i]) > score(order[j]) })
	ranks := make(map[int]int, len(order))
	for i, p := range order {
		ranks[p.ID] = i
	}
	return ranks
}

func (t *Turn) rankPlayers() {
	players := append([]*model.Player{t.me}, t.b.Opponents()...)
	t.ranking = rankBy(players, t.playerScore)
	t.mapRanking = rankBy(players, func(p *model.Player) float64 { return float64(mapPresence(p)) })
	t.haliteRanking = rankBy(players, func(p *model.Player) float64 { return float64(p.Halite) })
	t.rank = t.ranking[t.me.ID]
	t.mapRank = t.mapRanking[t.me.ID]

	t.mapDiff = make(map[int]int)
	own := mapPresence(t.me)
	for _, op := range t.b.Opponents() {
		t.mapDiff[op.ID] = own - mapPresence(op)
	}
}

func (t *Turn) forceRatios() {
	most, total, hunters := 0, 0, 0
	for _, op := range t.b.Opponents() {
		most = max(most, len(op.Ships))
		total += len(op.Ships)
		for _, s := range op.Ships {
			if s.Cargo <= 1 {
				hunters++
			}
		}
	}
	t.shipAdvantage = len(t.me.Ships) - most
	t.enemyHuntingShare = float64(hunters) / float64(max(total, 1))

	for _, a := range t.shipyards {
		conns := 0
		for _, b := range t.shipyards {
			if a != b && t.inShipyardBand(t.ix.Distance(a, b)) {
				conns++
			}
		}
		t.maxConnections = max(t.maxConnections, conns)
		if conns > 0 {
			t.connected++
		}
	}
}

// inShipyardBand reports whether d is a valid distance between two
// connected shipyards.
func (t *Turn) inShipyardBand(d int) bool {
	return t.p.MinShipyardDistance <= d && d <= t.p.MaxShipyardDistance
}

func (t *Turn) distances() {
	n := t.b.Cells()
	t.enemyDist = make([]int, n)
	t.enemyDist2 = make([]int, n)
	t.shipyardDist = make([]int, n)
	for pos := 0; pos < n; pos++ {
		d1, d2 := farDistance, farDistance
		for _, s := range t.enemies {
			d := t.ix.Distance(pos, s.Pos)
			if d < d1 {
				d1, d2 = d, d1
			} else if d < d2 {
				d2 = d
			}
		}
		t.enemyDist[pos], t.enemyDist2[pos] = d1, d2

		if len(t.shipyards) == 0 {
			t.shipyardDist[pos] = noShipyardDistance
			continue
		}
		best := math.MaxInt
		for _, y := range t.shipyards {
			best = min(best, t.ix.Distance(pos, y))
		}
		t.shipyardDist[pos] = best
	}
}

// nearestShipyard returns the closest own shipyard to pos, or noPos.
func (t *Turn) nearestShipyard(pos int) int {
	best, bestDist := noPos, math.MaxInt
	for _, y := range t.shipyards {
		if d := t.ix.Distance(pos, y); d < bestDist {
			best, bestDist = y, d
		}
	}
	return best
}

func (t *Turn) isOwnShipyard(pos int) bool {
	y := t.grid.ShipyardAt(pos)
	return y != nil && y.Owner == t.me.ID
}

// ownShipAt returns the own ship at pos, or nil.
func (t *Turn) ownShipAt(pos int) *model.Ship {
	s := t.grid.ShipAt(pos)
	if s == nil || s.Owner != t.me.ID {
		return nil
	}
	return s
}

// enemyShipAt returns the enemy ship at pos, or nil.
func (t *Turn) enemyShipAt(pos int) *model.Ship {
	s := t.grid.ShipAt(pos)
	if s == nil || s.Owner == t.me.ID {
		return nil
	}
	return s
}

func (t *Turn) recordIntrusions() {
	for _, s := range t.enemies {
		if !t.farming[s.Pos] {
			continue
		}
		if s.Cargo <= 0 {
			t.st.IntrusionTotal++
		}
		t.st.recordIntrusion(s.Pos, s.ID)
	}
	t.log.Debug("intrusions", "total", t.st.IntrusionTotal, "farming_cells", len(t.farming))
}

// specialSteps plans the first shipyard and sends the lone opening ship to
// build it.
func (t *Turn) specialSteps() {
	if t.step == 0 {
		t.planShipyard(false)
	}
	if t.step <= 10 && len(t.me.Shipyards) == 0 && len(t.me.Ships) == 1 {
		s := &t.me.Ships[0]
		if s.Pos != t.st.NextShipyard {
			t.roster.Set(s.ID, rules.Constructing)
		}
	}
}

// currentSpawnCost doubles the spawn price while a shipyard construction is
// underway so halite is saved for the conversion.
func (t *Turn) currentSpawnCost() int {
	next := t.st.NextShipyard
	if next == noPos || t.step >= t.p.ShipyardStop {
		return t.cfg.SpawnCost
	}
	if t.roster.Count(rules.Constructing) > 0 || t.ownShipAt(next) != nil || t.step < 20 {
		return 2 * t.cfg.SpawnCost
	}
	return t.cfg.SpawnCost
}

func clip(v, lo, hi float64) float64 {
	if v <= lo {
		return lo
	}
	if v >= hi {
		return hi
	}
	return v
}
