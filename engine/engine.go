// Package engine turns one board snapshot into one action per own ship and
// shipyard. Each call to Step runs the full pipeline: derived metrics and
// influence maps, regions, role classification, target assignment, and a
// final optimal assignment of ships to reachable cells.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nstehr/flotilla/model"
	"github.com/nstehr/flotilla/params"
	"github.com/nstehr/flotilla/rules"
	"github.com/nstehr/flotilla/spatial"
)

// Engine plays one player for one episode. It is not safe for concurrent
// use; the host calls Step once per turn.
type Engine struct {
	cfg    model.Config
	store  *params.Store
	ix     *spatial.Index
	steps  *miningSteps
	ladder *rules.Ladder
	logger *slog.Logger

	state State
	// before is the state that was current when lastStep started, so a
	// repeated snapshot replays from the same starting point.
	before   State
	lastStep int
}

// New builds the static tables for cfg.Size. A nil store uses the embedded
// defaults and a nil logger uses slog.Default().
func New(cfg model.Config, store *params.Store, logger *slog.Logger) (*Engine, error) {
	if cfg.Size <= 0 || cfg.Size%2 == 0 {
		return nil, fmt.Errorf("grid size %d must be odd and positive", cfg.Size)
	}
	if cfg.Size > spatial.MaxSize {
		return nil, fmt.Errorf("grid size %d exceeds %d", cfg.Size, spatial.MaxSize)
	}
	if cfg.SpawnCost <= 0 || cfg.ConvertCost <= 0 {
		return nil, fmt.Errorf("spawn cost %d and convert cost %d must be positive", cfg.SpawnCost, cfg.ConvertCost)
	}
	if store == nil {
		store = params.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	ladder, err := rules.NewLadder(rules.DefaultRules())
	if err != nil {
		return nil, fmt.Errorf("role ladder: %w", err)
	}
	e := &Engine{
		cfg:      cfg,
		store:    store,
		ix:       spatial.New(cfg.Size),
		steps:    newMiningSteps(),
		ladder:   ladder,
		logger:   logger,
		state:    newState(store.Active(0).FarmingEnd),
		lastStep: -1,
	}
	logger.Debug("engine ready", "size", cfg.Size, "switch_step", store.SwitchStep)
	return e, nil
}

// Config returns the game constants the engine was built for.
func (e *Engine) Config() model.Config { return e.cfg }

// State returns a copy of the state carried into the next turn.
func (e *Engine) State() State { return e.state.clone() }

// Step decides the actions for one turn. A failure, including a recovered
// panic, leaves the carried state untouched.
func (e *Engine) Step(ctx context.Context, b *model.Board) (acts model.Actions, err error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if b.Size != e.cfg.Size {
		return nil, fmt.Errorf("%w: size %d, engine built for %d", model.ErrInvalidBoard, b.Size, e.cfg.Size)
	}

	base := e.state
	if b.Step == e.lastStep {
		base = e.before
	}
	work := base.clone()

	defer func() {
		if r := recover(); r != nil {
			acts = nil
			err = fmt.Errorf("step %d: %v", b.Step, r)
			e.logger.Error("turn failed", "step", b.Step, "error", err)
		}
	}()

	t, err := e.newTurn(ctx, b, &work)
	if err != nil {
		return nil, fmt.Errorf("step %d: %w", b.Step, err)
	}
	acts = t.run()

	e.before = base
	e.state = work
	e.lastStep = b.Step
	return acts, nil
}
