package spectral

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-impact/status"
)

// MelScale converts between Hz and the HTK mel scale and builds triangular
// filter banks.
type MelScale struct{}

func NewMelScale() *MelScale {
	return &MelScale{}
}

// HzToMel converts frequency in Hz to mel scale
func (ms *MelScale) HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts mel scale to frequency in Hz
func (ms *MelScale) MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// CreateMelFilterBank returns numFilters triangular filters, each
// fftSize/2+1 wide, with centres equally spaced in mel between lowFreq and
// highFreq.
func (ms *MelScale) CreateMelFilterBank(numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	if numFilters <= 0 || fftSize <= 0 || sampleRate <= 0 {
		return nil
	}

	lowMel := ms.HzToMel(lowFreq)
	highMel := ms.HzToMel(highFreq)
	melStep := (highMel - lowMel) / float64(numFilters+1)

	// filter edges as FFT bin indices
	maxBin := fftSize / 2
	binPoints := make([]int, numFilters+2)
	for i := range binPoints {
		hz := ms.MelToHz(lowMel + float64(i)*melStep)
		binPoints[i] = min(int(math.Floor((float64(fftSize)+1.0)*hz/float64(sampleRate)+0.5)), maxBin)
	}

	width := maxBin + 1
	filterBank := make([][]float64, numFilters)
	for m := range filterBank {
		filter := make([]float64, width)
		left, centre, right := binPoints[m], binPoints[m+1], binPoints[m+2]

		for k := left; k < centre; k++ {
			filter[k] = float64(k-left) / float64(centre-left)
		}
		for k := centre; k < right; k++ {
			filter[k] = float64(right-k) / float64(right-centre)
		}
		filterBank[m] = filter
	}

	return filterBank
}

// ApplyFilterBank projects one spectrum onto the filter bank. The spectrum
// must be exactly as wide as the filters.
func (ms *MelScale) ApplyFilterBank(spectrum []float64, filterBank [][]float64) ([]float64, error) {
	mel := make([]float64, len(filterBank))
	for i, filter := range filterBank {
		if len(filter) != len(spectrum) {
			return nil, fmt.Errorf("filter %d has %d bins, spectrum has %d: %w", i, len(filter), len(spectrum), status.ErrConfiguration)
		}
		sum := 0.0
		for j, w := range filter {
			sum += spectrum[j] * w
		}
		mel[i] = sum
	}
	return mel, nil
}
