package spectral

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-impact/algorithms/common"
	"github.com/RyanBlaney/sonido-impact/status"
)

// FeatureTensor holds log-mel features indexed [channel][frame][mel].
type FeatureTensor struct {
	Data       [][][]float64 `json:"features"`
	Channels   int           `json:"channels"`
	Frames     int           `json:"frames"`
	MelBins    int           `json:"mel_bins"`
	HopSize    int           `json:"hop_size"`
	FrameSize  int           `json:"frame_size"`
	SampleRate int           `json:"sample_rate"`
}

// FrameTime returns the start time of frame i in seconds.
func (f *FeatureTensor) FrameTime(i int) float64 {
	return float64(i*f.HopSize) / float64(f.SampleRate)
}

// MinMaxNormalized rescales the whole tensor onto [0, 1] using its global
// minimum and maximum. A constant tensor becomes all zeros.
func (f *FeatureTensor) MinMaxNormalized() *FeatureTensor {
	flat := make([]float64, 0, f.Channels*f.Frames*f.MelBins)
	for _, frames := range f.Data {
		for _, mel := range frames {
			flat = append(flat, mel...)
		}
	}
	scaled := common.MinMaxNormalize(flat)

	out := *f
	out.Data = make([][][]float64, len(f.Data))
	pos := 0
	for c, frames := range f.Data {
		out.Data[c] = make([][]float64, len(frames))
		for k, mel := range frames {
			out.Data[c][k] = scaled[pos : pos+len(mel) : pos+len(mel)]
			pos += len(mel)
		}
	}
	return &out
}

// LogMelProjector turns spectral frames into log-mel features, optionally
// standardised with deployment statistics.
type LogMelProjector struct {
	filterBank [][]float64
	epsilon    float64
	mean       []float64
	std        []float64
}

// NewLogMelProjector builds a mel filter bank spanning 0 Hz to Nyquist.
// mean and std may be empty (no normalization), a single value, or one value
// per mel bin.
func NewLogMelProjector(melBins, frameSize, sampleRate int, epsilon float64, mean, std []float64) (*LogMelProjector, error) {
	if melBins <= 0 || frameSize <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("mel bins %d, frame size %d and sample rate %d must be positive: %w",
			melBins, frameSize, sampleRate, status.ErrConfiguration)
	}
	if epsilon <= 0 {
		return nil, fmt.Errorf("log epsilon must be positive, got %g: %w", epsilon, status.ErrConfiguration)
	}
	if len(mean) != len(std) {
		return nil, fmt.Errorf("normalization mean has %d values, std has %d: %w", len(mean), len(std), status.ErrConfiguration)
	}
	if n := len(mean); n != 0 && n != 1 && n != melBins {
		return nil, fmt.Errorf("normalization needs 1 or %d values, got %d: %w", melBins, n, status.ErrConfiguration)
	}
	for i, s := range std {
		if s == 0 {
			return nil, fmt.Errorf("normalization std[%d] is zero: %w", i, status.ErrConfiguration)
		}
	}

	ms := NewMelScale()
	return &LogMelProjector{
		filterBank: ms.CreateMelFilterBank(melBins, frameSize, sampleRate, 0, float64(sampleRate)/2),
		epsilon:    epsilon,
		mean:       mean,
		std:        std,
	}, nil
}

// Project applies the filter bank to the magnitude of every frame, takes
// log(x + epsilon) and standardises when statistics were supplied.
func (p *LogMelProjector) Project(stft *MultichannelSTFT) (*FeatureTensor, error) {
	if len(p.filterBank) > 0 && len(p.filterBank[0]) != stft.FreqBins {
		return nil, fmt.Errorf("filter bank spans %d bins, spectral frames have %d: %w",
			len(p.filterBank[0]), stft.FreqBins, status.ErrConfiguration)
	}

	ms := NewMelScale()
	magnitude := stft.Magnitude()

	out := &FeatureTensor{
		Data:       make([][][]float64, stft.Channels),
		Channels:   stft.Channels,
		Frames:     stft.TimeFrames,
		MelBins:    len(p.filterBank),
		HopSize:    stft.HopSize,
		FrameSize:  stft.FrameSize,
		SampleRate: stft.SampleRate,
	}

	for c, frames := range magnitude {
		out.Data[c] = make([][]float64, len(frames))
		for k, spectrum := range frames {
			mel, err := ms.ApplyFilterBank(spectrum, p.filterBank)
			if err != nil {
				return nil, err
			}
			for m, v := range mel {
				mel[m] = p.normalize(m, math.Log(v+p.epsilon))
			}
			out.Data[c][k] = mel
		}
	}

	return out, nil
}

func (p *LogMelProjector) normalize(bin int, v float64) float64 {
	switch len(p.mean) {
	case 0:
		return v
	case 1:
		return (v - p.mean[0]) / p.std[0]
	default:
		return (v - p.mean[bin]) / p.std[bin]
	}
}
