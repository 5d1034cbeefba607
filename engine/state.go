package engine

import "maps"

// noPos marks an unset cell reference.
const noPos = -1

// State is everything the engine carries from one turn to the next. A turn
// works on a clone and the engine swaps it in only once the action map is
// final.
type State struct {
	// NextShipyard is the planned construction site, or noPos.
	NextShipyard int
	// PseudoShipyard completes a lone shipyard pair into a triangle when
	// regions are computed. It is planned once and kept.
	PseudoShipyard    int
	FirstShipyardStep int
	FarmingEnd        int
	LastShipyardCount int

	// Intrusions counts, per farming cell, the turns each enemy ship was
	// seen on it.
	Intrusions     map[int]map[string]int
	IntrusionTotal int
}

func newState(farmingEnd int) State {
	return State{
		NextShipyard:   noPos,
		PseudoShipyard: noPos,
		FarmingEnd:     farmingEnd,
		Intrusions:     make(map[int]map[string]int),
	}
}

func (s State) clone() State {
	c := s
	c.Intrusions = make(map[int]map[string]int, len(s.Intrusions))
	for pos, seen := range s.Intrusions {
		c.Intrusions[pos] = maps.Clone(seen)
	}
	return c
}

// intrusionCount returns how often ship was seen on pos.
func (s *State) intrusionCount(pos int, ship string) int {
	return s.Intrusions[pos][ship]
}

func (s *State) recordIntrusion(pos int, ship string) {
	seen := s.Intrusions[pos]
	if seen == nil {
		seen = make(map[string]int)
		s.Intrusions[pos] = seen
	}
	seen[ship]++
}
