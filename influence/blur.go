// Package influence builds the per-turn scalar fields the scoring functions
// read: blurred resource maps, dominance and safety maps, regions, the danger
// matrix and the cargo map. Every field is a pure function of the snapshot
// and the active parameters and is rebuilt from scratch each turn.
package influence

import "math"

// truncate is the kernel half-width in standard deviations.
const truncate = 4.0

// kernel returns normalized Gaussian weights for offsets -r..r.
func kernel(sigma float64) []float64 {
	r := int(truncate*sigma + 0.5)
	w := make([]float64, 2*r+1)
	var sum float64
	for i := -r; i <= r; i++ {
		v := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		w[i+r] = v
		sum += v
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// Blur applies a separable Gaussian filter with wrap-around edges to a
// row-major size×size field and returns a new slice.
func Blur(field []float64, size int, sigma float64) []float64 {
	out := make([]float64, len(field))
	if sigma <= 0 {
		copy(out, field)
		return out
	}
	w := kernel(sigma)
	r := len(w) / 2
	tmp := make([]float64, len(field))

	// Rows.
	for row := 0; row < size; row++ {
		base := row * size
		for col := 0; col < size; col++ {
			var acc float64
			for k := -r; k <= r; k++ {
				acc += w[k+r] * field[base+wrap(col+k, size)]
			}
			tmp[base+col] = acc
		}
	}
	// Columns.
	for col := 0; col < size; col++ {
		for row := 0; row < size; row++ {
			var acc float64
			for k := -r; k <= r; k++ {
				acc += w[k+r] * tmp[wrap(row+k, size)*size+col]
			}
			out[row*size+col] = acc
		}
	}
	return out
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// scale multiplies every entry in place and returns the slice.
func scale(field []float64, f float64) []float64 {
	for i := range field {
		field[i] *= f
	}
	return field
}
