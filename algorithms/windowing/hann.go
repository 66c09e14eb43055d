package windowing

import (
	"math"
)

// Hann is the raised-cosine window 0.5 * (1 - cos(2πn/D)).
type Hann struct {
	table
	symmetric bool
}

func NewHann(size int, symmetric bool) *Hann {
	h := &Hann{
		table:     table{name: "hann", coefficients: make([]float64, size)},
		symmetric: symmetric,
	}

	d := cosineDenominator(size, symmetric)
	for i := range size {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/d))
	}
	return h
}
