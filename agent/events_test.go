package agent

import (
	"strings"
	"testing"

	"github.com/nstehr/flotilla/model"
	"github.com/nstehr/flotilla/params"
)

// baseBoard returns a small four-player board where player 0 has two ships
// and one shipyard.
func baseBoard(step int) *model.Board {
	b := &model.Board{
		Size:         21,
		Step:         step,
		EpisodeSteps: 400,
		Halite:       make([]float64, 21*21),
		Players:      make([]model.Player, 4),
	}
	for pos := range b.Halite {
		if pos%5 == 0 {
			b.Halite[pos] = 120
		}
	}
	b.Players[0].Halite = 1000
	b.Players[0].Shipyards = []model.Shipyard{{ID: "y1", Pos: 110}}
	b.Players[0].Ships = []model.Ship{
		{ID: "s1", Pos: 111, Cargo: 100},
		{ID: "s2", Pos: 200, Cargo: 600},
	}
	return b
}

func hasKind(events []Event, kind EventKind) bool {
	for _, e := range events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func TestDetectEvents(t *testing.T) {
	store := params.Default()

	tests := []struct {
		name   string
		mutate func(b *model.Board)
		want   []EventKind
		absent []EventKind
	}{
		{
			name:   "no change",
			mutate: func(b *model.Board) {},
			absent: []EventKind{EventShipsLost, EventShipyardLost, EventCargoLost},
		},
		{
			name: "shipyard destroyed",
			mutate: func(b *model.Board) {
				b.Players[0].Shipyards = nil
			},
			want: []EventKind{EventShipyardLost},
		},
		{
			name: "ship destroyed with cargo",
			mutate: func(b *model.Board) {
				b.Players[0].Ships = b.Players[0].Ships[:1]
			},
			want: []EventKind{EventShipsLost, EventCargoLost},
		},
		{
			name: "empty ship destroyed",
			mutate: func(b *model.Board) {
				b.Players[0].Ships = b.Players[0].Ships[1:]
			},
			want:   []EventKind{EventShipsLost},
			absent: []EventKind{EventCargoLost},
		},
		{
			name: "ship converted",
			mutate: func(b *model.Board) {
				b.Players[0].Ships = b.Players[0].Ships[:1]
				b.Players[0].Shipyards = append(b.Players[0].Shipyards, model.Shipyard{ID: "y2", Pos: 200})
			},
			absent: []EventKind{EventShipsLost, EventCargoLost, EventShipyardLost},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := takeSnapshot(baseBoard(50), store)
			b := baseBoard(51)
			tt.mutate(b)
			events := detectEvents(&prev, takeSnapshot(b, store))
			for _, k := range tt.want {
				if !hasKind(events, k) {
					t.Errorf("expected %s event, got %+v", k, events)
				}
			}
			for _, k := range tt.absent {
				if hasKind(events, k) {
					t.Errorf("did not expect %s event, got %+v", k, events)
				}
			}
		})
	}
}

func TestDetectEvents_NilPrev(t *testing.T) {
	events := detectEvents(nil, takeSnapshot(baseBoard(10), params.Default()))
	if events != nil {
		t.Errorf("expected nil events for nil prev, got %+v", events)
	}
}

func TestDetectEvents_SkippedStep(t *testing.T) {
	store := params.Default()
	prev := takeSnapshot(baseBoard(10), store)
	b := baseBoard(12)
	b.Players[0].Shipyards = nil
	if events := detectEvents(&prev, takeSnapshot(b, store)); events != nil {
		t.Errorf("expected nil events across a gap, got %+v", events)
	}
}

func TestDetectEvents_PhaseSwitched(t *testing.T) {
	store := params.Default()
	prev := takeSnapshot(baseBoard(store.SwitchStep-1), store)
	events := detectEvents(&prev, takeSnapshot(baseBoard(store.SwitchStep), store))
	if !hasKind(events, EventPhaseSwitched) {
		t.Errorf("expected phase_switched at step %d, got %+v", store.SwitchStep, events)
	}

	prev = takeSnapshot(baseBoard(store.SwitchStep), store)
	events = detectEvents(&prev, takeSnapshot(baseBoard(store.SwitchStep+1), store))
	if hasKind(events, EventPhaseSwitched) {
		t.Errorf("did not expect phase_switched after the switch, got %+v", events)
	}
}

func TestFormatEvents(t *testing.T) {
	if got := formatEvents(nil); got != "" {
		t.Errorf("formatEvents(nil) = %q, want empty", got)
	}
	got := formatEvents([]Event{
		{Kind: EventShipsLost, Step: 7, Detail: "lost 1 ship(s): s2"},
		{Kind: EventShipyardLost, Step: 9, Detail: "lost 1 shipyard(s): y1"},
	})
	if !strings.Contains(got, "[step 7] ships_lost: lost 1 ship(s): s2") {
		t.Errorf("formatEvents missing first event:\n%s", got)
	}
	if strings.Count(got, "\n") != 2 {
		t.Errorf("formatEvents lines = %d, want 2", strings.Count(got, "\n"))
	}
}
