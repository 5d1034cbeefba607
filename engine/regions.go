package engine

import "slices"

// computeRegions derives the guarding positions, the farming and minor
// farming cells and the guarding border from the geometry of own shipyards.
func (t *Turn) computeRegions() {
	p := t.p
	n := t.b.Cells()
	points := t.shipyardGroups()
	farmingActive := p.FarmingStart <= t.step
	me := t.me.ID

	guarding := make(map[int]bool)
	var farming, minor, border []int
	isShipyard := make(map[int]bool, len(t.shipyards))
	for _, y := range t.shipyards {
		isShipyard[y] = true
	}

	for pos := 0; pos < n; pos++ {
		if t.shipyardDist[pos] > p.MaxShipyardDistance+4 {
			continue
		}
		if len(points) == 0 {
			if t.shipyardDist[pos] <= p.GuardingRadius {
				guarding[pos] = true
			}
			if t.shipyardDist[pos] == 2 {
				border = append(border, pos)
			}
			continue
		}
		for _, group := range points {
			maxDist := p.MaxShipyardDistance
			guardingRadius := maxDist + p.GuardingRadius2
			farmingRadius := maxDist - 2
			if t.maxConnections >= 2 {
				guardingRadius++
				farmingRadius++
			}
			borderRadius := farmingRadius + 2
			required := min(3, max(p.FarmingStartShipyards, len(group)))
			if required == 2 && t.ix.MaxDistance(group) == maxDist {
				guardingRadius++
				farmingRadius++
				borderRadius++
			}

			inGuarding, inFarming, inMinor, inBorder := 0, 0, 0, 0
			guard := false
			for _, y := range group {
				d := t.ix.Distance(pos, y)
				if d <= p.GuardingRadius && y != t.st.PseudoShipyard {
					guard = true
				}
				if d <= borderRadius {
					inBorder++
				}
				if farmingActive {
					if d <= farmingRadius {
						inGuarding++
						inFarming++
					} else if d <= guardingRadius {
						inGuarding++
					}
					if d <= farmingRadius+2 {
						inMinor++
					}
				}
			}

			if guard || (farmingActive && inGuarding >= required) {
				guarding[pos] = true
			}
			if !isShipyard[pos] && inFarming >= required {
				farming = append(farming, pos)
				border = append(border, pos)
				break
			}
			if !isShipyard[pos] && inMinor >= required && t.maps.Regions[pos] == me {
				minor = append(minor, pos)
			}
			if inBorder >= required {
				border = append(border, pos)
			}
		}
	}

	for _, pos := range farming {
		if t.b.Halite[pos] > 0 {
			t.realFarming = append(t.realFarming, pos)
		}
	}
	if t.step < p.FarmingStart || t.step > t.st.FarmingEnd {
		farming, minor = nil, nil
	}

	t.guarding = guarding
	t.farming = make(map[int]bool, len(farming))
	for _, pos := range farming {
		t.farming[pos] = true
	}
	t.minorFarming = make(map[int]bool)
	for _, pos := range minor {
		if !t.farming[pos] {
			t.minorFarming[pos] = true
		}
	}

	inBorder := make(map[int]bool, len(border))
	var unique []int
	for _, pos := range border {
		if !inBorder[pos] {
			inBorder[pos] = true
			unique = append(unique, pos)
		}
	}
	slices.Sort(unique)
	var edge []int
	for _, pos := range t.ix.Borders(unique, inBorder) {
		if !t.farming[pos] && !isShipyard[pos] {
			edge = append(edge, pos)
		}
	}
	t.border = pruneBorder(t, edge, isShipyard)
}

// shipyardGroups returns the point sets regions are built from: shipyard
// triangles, or else connected pairs. A single pair is completed into a
// triangle with a planned pseudo shipyard.
func (t *Turn) shipyardGroups() [][]int {
	if t.maxConnections == 0 {
		return nil
	}
	p := t.p
	var groups [][]int
	for _, tri := range t.ix.Triangles(t.shipyards, p.MinShipyardDistance, p.MaxShipyardDistance) {
		groups = append(groups, []int{tri[0], tri[1], tri[2]})
	}
	if len(groups) > 0 {
		return groups
	}
	for i, a := range t.shipyards {
		for _, b := range t.shipyards[i+1:] {
			if t.inShipyardBand(t.ix.Distance(a, b)) {
				groups = append(groups, []int{a, b})
			}
		}
	}
	if len(groups) == 1 {
		if t.st.PseudoShipyard == noPos {
			t.st.PseudoShipyard = t.planShipyard(true)
		}
		if t.st.PseudoShipyard != noPos {
			groups[0] = append(groups[0], t.st.PseudoShipyard)
		}
	}
	return groups
}

// pruneBorder repeatedly drops the first border cell touching fewer than two
// border cells or shipyards among its eight neighbours.
func pruneBorder(t *Turn, border []int, isShipyard map[int]bool) []int {
	in := make(map[int]bool, len(border))
	for _, pos := range border {
		in[pos] = true
	}
	for changed := true; changed; {
		changed = false
		for i, pos := range border {
			linked := 0
			for _, n := range t.ix.Adjacent8(pos) {
				if in[n] || isShipyard[n] {
					linked++
				}
			}
			if linked < 2 {
				border = slices.Delete(border, i, i+1)
				delete(in, pos)
				changed = true
				break
			}
		}
	}
	return border
}
