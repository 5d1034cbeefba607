// Package assign solves the rectangular optimal assignment problem. Every
// scoring phase of a turn (mining, hunting, guarding, final movement) builds a
// Matrix and hands it to the same solver.
package assign

import "math"

// Infeasible marks a pair that must only be chosen when nothing else is left.
// It is finite so that sums over an assignment stay comparable.
const Infeasible = -999999.0

// Matrix is a dense row-major score table.
type Matrix struct {
	Rows int
	Cols int
	Data []float64
}

// NewMatrix returns a rows×cols matrix with every entry set to fill.
func NewMatrix(rows, cols int, fill float64) *Matrix {
	m := &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
	if fill != 0 {
		for i := range m.Data {
			m.Data[i] = fill
		}
	}
	return m
}

func (m *Matrix) At(r, c int) float64 { return m.Data[r*m.Cols+c] }

func (m *Matrix) Set(r, c int, v float64) { m.Data[r*m.Cols+c] = v }

// Add adds v to an entry. Scoring passes accumulate into the same cell.
func (m *Matrix) Add(r, c int, v float64) { m.Data[r*m.Cols+c] += v }

// Row returns a view of row r.
func (m *Matrix) Row(r int) []float64 { return m.Data[r*m.Cols : (r+1)*m.Cols] }

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{Rows: m.Rows, Cols: m.Cols, Data: make([]float64, len(m.Data))}
	copy(c.Data, m.Data)
	return c
}

// ArgMax returns the column holding the largest entry of row r, preferring
// the lowest index on ties.
func (m *Matrix) ArgMax(r int) int {
	row := m.Row(r)
	best := 0
	for c := 1; c < len(row); c++ {
		if row[c] > row[best] {
			best = c
		}
	}
	return best
}

// sanitizeCost maps NaN and infinities in a cost onto the finite range the
// solver accepts. NaN costs as much as an infeasible pair.
func sanitizeCost(c float64) float64 {
	switch {
	case math.IsNaN(c), math.IsInf(c, 1):
		return -Infeasible
	case math.IsInf(c, -1):
		return Infeasible
	}
	return c
}
