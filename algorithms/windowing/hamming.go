package windowing

import (
	"math"
)

// Hamming keeps a 0.08 pedestal at the edges: 0.54 - 0.46 * cos(2πn/D).
type Hamming struct {
	table
	symmetric bool
}

func NewHamming(size int, symmetric bool) *Hamming {
	h := &Hamming{
		table:     table{name: "hamming", coefficients: make([]float64, size)},
		symmetric: symmetric,
	}

	d := cosineDenominator(size, symmetric)
	for i := range size {
		h.coefficients[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/d)
	}
	return h
}
