package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nstehr/flotilla/engine"
	"github.com/nstehr/flotilla/ipc"
	"github.com/nstehr/flotilla/model"
	"github.com/nstehr/flotilla/params"
)

// Agent owns the decision-making for a single player session.
type Agent struct {
	Session string
	Player  int

	ctx         context.Context
	store       *params.Store
	turnTimeout time.Duration
	logger      *slog.Logger

	engine *engine.Engine
	prev   *snapshot
	events []Event
}

// Options configures a session. Zero values fall back to the embedded
// parameters, no turn deadline and slog.Default().
type Options struct {
	Store       *params.Store
	TurnTimeout time.Duration
	Logger      *slog.Logger
}

// New starts a session whose turns are bounded by ctx.
func New(ctx context.Context, opts Options) *Agent {
	if opts.Store == nil {
		opts.Store = params.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	session := uuid.NewString()
	return &Agent{
		Session:     session,
		ctx:         ctx,
		store:       opts.Store,
		turnTimeout: opts.TurnTimeout,
		logger:      opts.Logger.With("session", session[:8]),
	}
}

// Logger returns the session-scoped logger.
func (a *Agent) Logger() *slog.Logger { return a.logger }

// Events returns the events detected so far, oldest first.
func (a *Agent) Events() []Event { return a.events }

// HandleHello builds the engine for the announced game and acknowledges.
// A second hello restarts the session with a fresh engine.
func (a *Agent) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := env.Decode(&hello); err != nil {
		return nil, err
	}

	cfg := model.DefaultConfig()
	if hello.Config != nil {
		cfg = *hello.Config
	}
	store := a.store
	if hello.Params != "" {
		s, err := params.Parse([]byte(hello.Params))
		if err != nil {
			return nil, fmt.Errorf("session parameters: %w", err)
		}
		store = s
	}

	a.Player = hello.Player
	a.logger = a.logger.With("player", hello.Player)
	eng, err := engine.New(cfg, store, a.logger)
	if err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}
	a.engine = eng
	a.prev = nil
	a.events = nil
	a.logger.Info("player identified", "size", cfg.Size, "episode_steps", cfg.EpisodeSteps, "switch_step", store.SwitchStep)

	ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok", Session: a.Session})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// HandleGameState runs one engine step and replies with the actions.
func (a *Agent) HandleGameState(env ipc.Envelope) (*ipc.Envelope, error) {
	if a.engine == nil {
		return nil, errors.New("game_state before hello")
	}
	var b model.Board
	if err := env.Decode(&b); err != nil {
		return nil, err
	}
	b.Me = a.Player

	acts, err := a.step(&b)
	if err != nil {
		return nil, err
	}

	reply, err := ipc.NewEnvelope(ipc.TypeActions, ipc.ActionsMessage{Step: b.Step, Actions: acts})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (a *Agent) step(b *model.Board) (model.Actions, error) {
	ctx := a.ctx
	if a.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.turnTimeout)
		defer cancel()
	}

	start := time.Now()
	acts, err := a.engine.Step(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("step %d: %w", b.Step, err)
	}

	cur := takeSnapshot(b, a.store)
	for _, ev := range detectEvents(a.prev, cur) {
		a.logger.Info("turn event", "kind", ev.Kind, "step", ev.Step, "detail", ev.Detail)
		a.events = append(a.events, ev)
	}
	a.prev = &cur

	self := b.Self()
	a.logger.Info("turn played",
		"step", b.Step,
		"halite", self.Halite,
		"ships", len(self.Ships),
		"shipyards", len(self.Shipyards),
		"actions", len(acts),
		"elapsed", time.Since(start).Round(time.Microsecond),
	)
	return acts, nil
}

// Summary renders the session's events for the end-of-session log.
func (a *Agent) Summary() string { return formatEvents(a.events) }
