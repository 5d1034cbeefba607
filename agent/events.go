package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nstehr/flotilla/model"
	"github.com/nstehr/flotilla/params"
)

// EventKind identifies a change between consecutive snapshots worth logging.
type EventKind string

const (
	EventShipyardLost  EventKind = "shipyard_lost"
	EventShipsLost     EventKind = "ships_lost"
	EventPhaseSwitched EventKind = "phase_switched"
	EventCargoLost     EventKind = "cargo_lost"
)

// Event is a significant change detected by diffing consecutive snapshots.
type Event struct {
	Kind   EventKind
	Step   int
	Detail string
}

// cargoLossThreshold is the smallest cargo sunk in one step that gets its own event.
const cargoLossThreshold = 500

// snapshot captures the diffable fields of our player for one step.
type snapshot struct {
	step      int
	phase     string
	ships     map[string]model.Ship
	shipyards map[string]int // id → pos
}

func phaseName(store *params.Store, step int) string {
	if step < store.SwitchStep {
		return "early"
	}
	return "late"
}

// takeSnapshot records our ships and shipyards after a step.
func takeSnapshot(b *model.Board, store *params.Store) snapshot {
	self := b.Self()
	snap := snapshot{
		step:      b.Step,
		phase:     phaseName(store, b.Step),
		ships:     make(map[string]model.Ship, len(self.Ships)),
		shipyards: make(map[string]int, len(self.Shipyards)),
	}
	for _, s := range self.Ships {
		snap.ships[s.ID] = s
	}
	for _, y := range self.Shipyards {
		snap.shipyards[y.ID] = y.Pos
	}
	return snap
}

// detectEvents compares cur against the previous snapshot. Returns nil if
// prev is nil (first step) or the snapshots are not consecutive.
func detectEvents(prev *snapshot, cur snapshot) []Event {
	if prev == nil || cur.step != prev.step+1 {
		return nil
	}

	var events []Event

	var lostYards []string
	for id := range prev.shipyards {
		if _, ok := cur.shipyards[id]; !ok {
			lostYards = append(lostYards, id)
		}
	}
	if len(lostYards) > 0 {
		sort.Strings(lostYards)
		events = append(events, Event{
			Kind:   EventShipyardLost,
			Step:   cur.step,
			Detail: fmt.Sprintf("lost %d shipyard(s): %s", len(lostYards), strings.Join(lostYards, ", ")),
		})
	}

	// A ship that vanished where a new shipyard stands converted; the rest
	// were destroyed.
	newYardAt := make(map[int]bool)
	for id, pos := range cur.shipyards {
		if _, ok := prev.shipyards[id]; !ok {
			newYardAt[pos] = true
		}
	}
	var lost []string
	cargo := 0
	for id, s := range prev.ships {
		if _, ok := cur.ships[id]; ok {
			continue
		}
		if newYardAt[s.Pos] {
			continue
		}
		lost = append(lost, id)
		cargo += s.Cargo
	}
	if len(lost) > 0 {
		sort.Strings(lost)
		events = append(events, Event{
			Kind:   EventShipsLost,
			Step:   cur.step,
			Detail: fmt.Sprintf("lost %d ship(s): %s", len(lost), strings.Join(lost, ", ")),
		})
	}
	if cargo >= cargoLossThreshold {
		events = append(events, Event{
			Kind:   EventCargoLost,
			Step:   cur.step,
			Detail: fmt.Sprintf("%d halite sunk with destroyed ships", cargo),
		})
	}

	if prev.phase != cur.phase {
		events = append(events, Event{
			Kind:   EventPhaseSwitched,
			Step:   cur.step,
			Detail: fmt.Sprintf("parameters switched: %s → %s", prev.phase, cur.phase),
		})
	}

	return events
}

// formatEvents renders events one per line for diagnostics output.
func formatEvents(events []Event) string {
	if len(events) == 0 {
		return ""
	}
	var b strings.Builder
	for _, e := range events {
		fmt.Fprintf(&b, "- [step %d] %s: %s\n", e.Step, e.Kind, e.Detail)
	}
	return b.String()
}
