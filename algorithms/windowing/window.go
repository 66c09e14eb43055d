// Package windowing provides the analysis windows used by the spectral framer.
package windowing

import (
	"fmt"
)

// Window tapers one analysis frame before the FFT.
type Window interface {
	Apply(signal []float64) []float64
	ApplyInPlace(signal []float64) error
	GetCoefficients() []float64
	GetSize() int
	GetType() string
}

// New builds a periodic window of the given type and size. Periodic windows
// are what an STFT wants; symmetric ones are for filter design.
func New(windowType string, size int) (Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	switch windowType {
	case "hann", "":
		return NewHann(size, false), nil
	case "hamming":
		return NewHamming(size, false), nil
	case "rectangular":
		return NewRectangular(size), nil
	default:
		return nil, fmt.Errorf("unknown window type %q", windowType)
	}
}

// table holds precomputed coefficients shared by every window type.
type table struct {
	name         string
	coefficients []float64
}

func (t *table) Apply(signal []float64) []float64 {
	if len(signal) != len(t.coefficients) {
		return nil
	}

	windowed := make([]float64, len(signal))
	for i, c := range t.coefficients {
		windowed[i] = signal[i] * c
	}
	return windowed
}

func (t *table) ApplyInPlace(signal []float64) error {
	if len(signal) != len(t.coefficients) {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(t.coefficients))
	}

	for i, c := range t.coefficients {
		signal[i] *= c
	}
	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (t *table) GetCoefficients() []float64 {
	return append([]float64(nil), t.coefficients...)
}

func (t *table) GetSize() int {
	return len(t.coefficients)
}

func (t *table) GetType() string {
	return t.name
}

// cosineDenominator is N for periodic windows and N-1 for symmetric ones.
func cosineDenominator(size int, symmetric bool) float64 {
	if symmetric && size > 1 {
		return float64(size - 1)
	}
	return float64(size)
}
