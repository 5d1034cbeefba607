package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"testing"

	"github.com/nstehr/flotilla/model"
	"github.com/nstehr/flotilla/spatial"
)

const testSize = 21

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// emptyBoard returns a four-player board with no halite and no pieces.
func emptyBoard(step int) *model.Board {
	b := &model.Board{
		Size:         testSize,
		Step:         step,
		EpisodeSteps: 400,
		Halite:       make([]float64, testSize*testSize),
		Players:      make([]model.Player, 4),
	}
	for i := range b.Players {
		b.Players[i].ID = i
	}
	return b
}

// crowdedBoard fills every quadrant with a player's shipyard and ships and
// spreads halite over the map.
func crowdedBoard(step int) *model.Board {
	b := emptyBoard(step)
	ix := spatial.New(testSize)
	for pos := range b.Halite {
		if pos%3 != 0 {
			b.Halite[pos] = float64((pos * 37) % 400)
		}
	}
	origins := [4][2]int{{5, 5}, {15, 5}, {5, 15}, {15, 15}}
	for pi, o := range origins {
		p := &b.Players[pi]
		p.Halite = 2000
		p.Shipyards = []model.Shipyard{{ID: fmt.Sprintf("y%d", pi), Pos: ix.Pos(o[0], o[1])}}
		for k := 0; k < 6; k++ {
			p.Ships = append(p.Ships, model.Ship{
				ID:    fmt.Sprintf("s%d-%d", pi, k),
				Pos:   ix.Pos(o[0]+k-2, o[1]+k%3+1),
				Cargo: (k * 60) % 250,
			})
		}
	}
	return b
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(model.DefaultConfig(), nil, quiet)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.Config
		ok   bool
	}{
		{"default", model.DefaultConfig(), true},
		{"even size", model.Config{Size: 20, EpisodeSteps: 400, SpawnCost: 500, ConvertCost: 500}, false},
		{"zero size", model.Config{Size: 0, EpisodeSteps: 400, SpawnCost: 500, ConvertCost: 500}, false},
		{"largest size", model.Config{Size: 63, EpisodeSteps: 400, SpawnCost: 500, ConvertCost: 500}, true},
		{"oversized", model.Config{Size: 301, EpisodeSteps: 400, SpawnCost: 500, ConvertCost: 500}, false},
		{"free spawn", model.Config{Size: 21, EpisodeSteps: 400, SpawnCost: 0, ConvertCost: 500}, false},
	}
	for _, tc := range tests {
		_, err := New(tc.cfg, nil, quiet)
		if (err == nil) != tc.ok {
			t.Errorf("%s: New error = %v, want ok %v", tc.name, err, tc.ok)
		}
	}
}

func TestStepRejectsInvalidBoard(t *testing.T) {
	e := newTestEngine(t)
	b := emptyBoard(5)
	b.Halite = b.Halite[:10]
	if _, err := e.Step(context.Background(), b); !errors.Is(err, model.ErrInvalidBoard) {
		t.Errorf("Step error = %v, want ErrInvalidBoard", err)
	}

	other := emptyBoard(5)
	other.Size = 9
	other.Halite = make([]float64, 81)
	if _, err := e.Step(context.Background(), other); !errors.Is(err, model.ErrInvalidBoard) {
		t.Errorf("Step on wrong size error = %v, want ErrInvalidBoard", err)
	}
}

func TestStepActionsAreWellFormed(t *testing.T) {
	for _, step := range []int{12, 60, 150, 250, 340, 390} {
		e := newTestEngine(t)
		b := crowdedBoard(step)
		acts, err := e.Step(context.Background(), b)
		if err != nil {
			t.Fatalf("step %d: Step failed: %v", step, err)
		}
		me := b.Self()
		ix := spatial.New(testSize)

		ships := make(map[string]model.Ship)
		for _, s := range me.Ships {
			ships[s.ID] = s
		}
		yards := make(map[string]bool)
		for _, y := range me.Shipyards {
			yards[y.ID] = true
		}
		for id, a := range acts {
			switch {
			case yards[id]:
				if a != model.ActionSpawn {
					t.Errorf("step %d: shipyard %s action %q, want SPAWN", step, id, a)
				}
			case ships[id].ID != "":
				switch a {
				case model.ActionNorth, model.ActionEast, model.ActionSouth, model.ActionWest, model.ActionConvert:
				default:
					t.Errorf("step %d: ship %s action %q", step, id, a)
				}
			default:
				t.Errorf("step %d: action for unknown id %s", step, id)
			}
		}

		occupied := make(map[int]string)
		for _, s := range me.Ships {
			a := acts[s.ID]
			if a == model.ActionConvert {
				continue
			}
			next := s.Pos
			for _, d := range spatial.Directions {
				if d.Action() == a {
					next = ix.Step(s.Pos, d)
				}
			}
			if other, ok := occupied[next]; ok {
				t.Errorf("step %d: ships %s and %s both end on %d", step, other, s.ID, next)
			}
			occupied[next] = s.ID
		}
	}
}

func TestStepIsDeterministic(t *testing.T) {
	ctx := context.Background()
	first, err := newTestEngine(t).Step(ctx, crowdedBoard(150))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	second, err := newTestEngine(t).Step(ctx, crowdedBoard(150))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if !maps.Equal(first, second) {
		t.Errorf("fresh engines disagree:\n%v\n%v", first, second)
	}
}

func TestStepRepeatedSnapshotReplays(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	if _, err := e.Step(ctx, crowdedBoard(99)); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	first, err := e.Step(ctx, crowdedBoard(100))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	st := e.State()
	again, err := e.Step(ctx, crowdedBoard(100))
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if !maps.Equal(first, again) {
		t.Errorf("repeated step differs:\n%v\n%v", first, again)
	}
	if got := e.State(); got.IntrusionTotal != st.IntrusionTotal || got.NextShipyard != st.NextShipyard {
		t.Errorf("state after replay = %+v, want %+v", got, st)
	}
}

func TestStepFailureKeepsState(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Step(context.Background(), crowdedBoard(40)); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	before := e.State()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Step(ctx, crowdedBoard(41)); err == nil {
		t.Fatal("Step with cancelled context succeeded")
	}
	after := e.State()
	if after.FarmingEnd != before.FarmingEnd || after.IntrusionTotal != before.IntrusionTotal ||
		after.NextShipyard != before.NextShipyard || len(after.Intrusions) != len(before.Intrusions) {
		t.Errorf("state changed by failed step: %+v -> %+v", before, after)
	}
}

func TestMiningShipHeadsForRichCell(t *testing.T) {
	ix := spatial.New(testSize)
	b := emptyBoard(50)
	me := &b.Players[0]
	me.Shipyards = []model.Shipyard{{ID: "y", Pos: ix.Pos(10, 10)}}
	me.Ships = []model.Ship{{ID: "miner", Pos: ix.Pos(5, 10)}}
	b.Halite[ix.Pos(6, 10)] = 300

	acts, err := newTestEngine(t).Step(context.Background(), b)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if got := acts["miner"]; got != model.ActionEast {
		t.Errorf("miner action = %q, want EAST", got)
	}
	if _, ok := acts["y"]; ok {
		t.Errorf("shipyard spawned without halite: %v", acts)
	}
}

func TestFullShipReturns(t *testing.T) {
	ix := spatial.New(testSize)
	b := emptyBoard(50)
	me := &b.Players[0]
	me.Shipyards = []model.Shipyard{{ID: "y", Pos: ix.Pos(10, 10)}}
	me.Ships = []model.Ship{{ID: "full", Pos: ix.Pos(10, 14), Cargo: 1600}}

	acts, err := newTestEngine(t).Step(context.Background(), b)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if got := acts["full"]; got != model.ActionNorth {
		t.Errorf("returning ship action = %q, want NORTH", got)
	}
}

func TestEndingShipDocks(t *testing.T) {
	ix := spatial.New(testSize)
	b := emptyBoard(395)
	me := &b.Players[0]
	me.Shipyards = []model.Shipyard{{ID: "y", Pos: ix.Pos(10, 10)}}
	me.Ships = []model.Ship{{ID: "late", Pos: ix.Pos(11, 10), Cargo: 200}}
	b.Halite[ix.Pos(11, 10)] = 300

	acts, err := newTestEngine(t).Step(context.Background(), b)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if got := acts["late"]; got != model.ActionWest {
		t.Errorf("ending ship action = %q, want WEST", got)
	}
}
