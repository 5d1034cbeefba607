package assign

import (
	"math"
	"slices"
)

// Pair is one (row, column) of an assignment.
type Pair struct {
	Row int
	Col int
}

// Maximize returns an assignment of min(Rows, Cols) pairs with the largest
// total score, ordered by row. Each row and each column appears at most once.
func Maximize(m *Matrix) []Pair { return solve(m, true) }

// Minimize is Maximize for costs.
func Minimize(m *Matrix) []Pair { return solve(m, false) }

func solve(m *Matrix, maximize bool) []Pair {
	if m == nil || m.Rows == 0 || m.Cols == 0 {
		return nil
	}
	transposed := m.Rows > m.Cols
	n, k := m.Rows, m.Cols
	if transposed {
		n, k = k, n
	}
	cost := func(i, j int) float64 {
		var v float64
		if transposed {
			v = m.At(j, i)
		} else {
			v = m.At(i, j)
		}
		if maximize {
			v = -v
		}
		return sanitizeCost(v)
	}

	match := hungarian(n, k, cost)
	pairs := make([]Pair, 0, n)
	for j, i := range match {
		if i < 0 {
			continue
		}
		if transposed {
			pairs = append(pairs, Pair{Row: j, Col: i})
		} else {
			pairs = append(pairs, Pair{Row: i, Col: j})
		}
	}
	slices.SortFunc(pairs, func(a, b Pair) int { return a.Row - b.Row })
	return pairs
}

// hungarian solves an n×k (n <= k) minimum-cost assignment with the shortest
// augmenting path method and returns, per column, the matched row or -1.
func hungarian(n, k int, cost func(i, j int) float64) []int {
	inf := math.Inf(1)
	u := make([]float64, n+1)
	v := make([]float64, k+1)
	p := make([]int, k+1) // p[j]: row matched to column j, 1-based; 0 = free
	way := make([]int, k+1)
	minv := make([]float64, k+1)
	used := make([]bool, k+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		for j := range minv {
			minv[j] = inf
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := 0
			for j := 1; j <= k; j++ {
				if used[j] {
					continue
				}
				cur := cost(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= k; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	match := make([]int, k)
	for j := 1; j <= k; j++ {
		match[j-1] = p[j] - 1
	}
	return match
}
