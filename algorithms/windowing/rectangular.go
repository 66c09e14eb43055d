package windowing

// Rectangular leaves the frame untouched.
type Rectangular struct {
	table
}

func NewRectangular(size int) *Rectangular {
	r := &Rectangular{table: table{name: "rectangular", coefficients: make([]float64, size)}}
	for i := range r.coefficients {
		r.coefficients[i] = 1.0
	}
	return r
}
