package assign

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestMaximizeContestedCell(t *testing.T) {
	// Both rows prefer column 0; the better total gives it to row 1 and
	// sends row 0 to its next-best column.
	m := &Matrix{Rows: 2, Cols: 3, Data: []float64{
		10, 8, 1,
		12, 2, 0,
	}}
	got := Maximize(m)
	want := []Pair{{0, 1}, {1, 0}}
	if len(got) != len(want) {
		t.Fatalf("Maximize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pair %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMinimize(t *testing.T) {
	m := &Matrix{Rows: 3, Cols: 3, Data: []float64{
		4, 1, 3,
		2, 0, 5,
		3, 2, 2,
	}}
	if got := total(m, Minimize(m)); got != 5 {
		t.Errorf("Minimize total = %v, want 5", got)
	}
}

func TestMoreRowsThanCols(t *testing.T) {
	m := &Matrix{Rows: 3, Cols: 1, Data: []float64{1, 7, 3}}
	got := Maximize(m)
	if len(got) != 1 || got[0] != (Pair{Row: 1, Col: 0}) {
		t.Errorf("Maximize = %v, want [{1 0}]", got)
	}
}

func TestEmpty(t *testing.T) {
	if got := Maximize(NewMatrix(0, 4, 0)); got != nil {
		t.Errorf("Maximize(0x4) = %v, want nil", got)
	}
	if got := Maximize(NewMatrix(3, 0, 0)); got != nil {
		t.Errorf("Maximize(3x0) = %v, want nil", got)
	}
}

func TestInfeasibleAvoided(t *testing.T) {
	m := NewMatrix(2, 2, 0)
	m.Set(0, 0, math.NaN())
	m.Set(1, 1, Infeasible)
	got := Maximize(m)
	if got[0].Col != 1 || got[1].Col != 0 {
		t.Errorf("Maximize = %v, want row 0 -> 1, row 1 -> 0", got)
	}
}

func TestNonFiniteEntries(t *testing.T) {
	tests := []struct {
		name     string
		minimize bool
		row      []float64
		want     int
	}{
		{"maximize NaN", false, []float64{math.NaN(), 5}, 1},
		{"minimize NaN", true, []float64{math.NaN(), 5}, 1},
		{"maximize -Inf", false, []float64{math.Inf(-1), -5}, 1},
		{"minimize +Inf", true, []float64{math.Inf(1), 5}, 1},
		{"maximize +Inf", false, []float64{5, math.Inf(1)}, 1},
		{"minimize -Inf", true, []float64{5, math.Inf(-1)}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMatrix(1, len(tc.row), 0)
			copy(m.Row(0), tc.row)
			var got []Pair
			if tc.minimize {
				got = Minimize(m)
			} else {
				got = Maximize(m)
			}
			if len(got) != 1 || got[0].Col != tc.want {
				t.Errorf("assignment = %v, want column %d", got, tc.want)
			}
		})
	}
}

func TestMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for iter := 0; iter < 200; iter++ {
		rows := 1 + rng.IntN(5)
		cols := 1 + rng.IntN(5)
		m := NewMatrix(rows, cols, 0)
		for i := range m.Data {
			m.Data[i] = math.Round(rng.Float64()*200 - 100)
		}
		got := Maximize(m)
		if len(got) != min(rows, cols) {
			t.Fatalf("iter %d: %d pairs for %dx%d", iter, len(got), rows, cols)
		}
		seenR, seenC := map[int]bool{}, map[int]bool{}
		for _, p := range got {
			if seenR[p.Row] || seenC[p.Col] {
				t.Fatalf("iter %d: duplicate in %v", iter, got)
			}
			seenR[p.Row], seenC[p.Col] = true, true
		}
		if g, w := total(m, got), bruteMax(m); math.Abs(g-w) > 1e-9 {
			t.Fatalf("iter %d: total %v, want %v", iter, g, w)
		}
	}
}

func TestArgMax(t *testing.T) {
	m := &Matrix{Rows: 1, Cols: 4, Data: []float64{1, 3, 3, 2}}
	if got := m.ArgMax(0); got != 1 {
		t.Errorf("ArgMax = %d, want 1", got)
	}
	c := m.Clone()
	c.Add(0, 3, 5)
	if m.At(0, 3) != 2 || c.At(0, 3) != 7 {
		t.Errorf("Clone shares storage")
	}
}

func total(m *Matrix, pairs []Pair) float64 {
	var s float64
	for _, p := range pairs {
		s += m.At(p.Row, p.Col)
	}
	return s
}

// bruteMax enumerates every injective mapping of the smaller side.
func bruteMax(m *Matrix) float64 {
	best := math.Inf(-1)
	var rec func(i int, used []bool, acc float64)
	if m.Rows <= m.Cols {
		rec = func(r int, used []bool, acc float64) {
			if r == m.Rows {
				best = max(best, acc)
				return
			}
			for c := 0; c < m.Cols; c++ {
				if !used[c] {
					used[c] = true
					rec(r+1, used, acc+m.At(r, c))
					used[c] = false
				}
			}
		}
		rec(0, make([]bool, m.Cols), 0)
		return best
	}
	rec = func(c int, used []bool, acc float64) {
		if c == m.Cols {
			best = max(best, acc)
			return
		}
		for r := 0; r < m.Rows; r++ {
			if !used[r] {
				used[r] = true
				rec(c+1, used, acc+m.At(r, c))
				used[r] = false
			}
		}
	}
	rec(0, make([]bool, m.Rows), 0)
	return best
}
