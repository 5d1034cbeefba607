package spatial

// Group clusters positions into groups of at most maxSize members by merging
// groups whose members are exactly d apart, for d = 1..maxDist. Merging stops
// early once every unfinished group holds at least half of maxSize.
func (ix *Index) Group(positions []int, maxSize, maxDist int) [][]int {
	groups := make([][]int, len(positions))
	for i, p := range positions {
		groups[i] = []int{p}
	}
	half := (maxSize + 1) / 2
	for d := 1; d <= maxDist && len(groups) > 1; d++ {
		open := 0
		smallest := maxSize
		for _, g := range groups {
			if len(g) < maxSize {
				open++
				smallest = min(smallest, len(g))
			}
		}
		if open == 0 || smallest >= half {
			break
		}
		for ix.mergeOnce(&groups, maxSize, d) {
		}
	}
	return groups
}

// mergeOnce performs the first legal merge at exactly distance d and reports
// whether one happened.
func (ix *Index) mergeOnce(groups *[][]int, maxSize, d int) bool {
	gs := *groups
	owner := make(map[int]int)
	var open []int
	for gi, g := range gs {
		for _, p := range g {
			owner[p] = gi
		}
		if len(g) < maxSize {
			open = append(open, g...)
		}
	}
	for _, p := range open {
		g1 := owner[p]
		for _, q := range open {
			if ix.Distance(p, q) != d {
				continue
			}
			g2 := owner[q]
			if g1 == g2 || len(gs[g1])+len(gs[g2]) > maxSize {
				continue
			}
			gs[g1] = append(gs[g1], gs[g2]...)
			*groups = append(gs[:g2], gs[g2+1:]...)
			return true
		}
	}
	return false
}
