package spectral

import (
	"fmt"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-impact/logging"
	"github.com/RyanBlaney/sonido-impact/status"
)

// Window tapers a frame in place before the FFT.
type Window interface {
	ApplyInPlace(signal []float64) error
}

// STFT frames every channel of a clip and keeps the positive-frequency bins.
type STFT struct {
	fft    *FFT
	logger logging.Logger
}

// MultichannelSTFT is the spectral frame tensor, indexed [channel][frame][bin].
type MultichannelSTFT struct {
	Frames     [][][]complex128
	Channels   int
	TimeFrames int
	FreqBins   int
	FrameSize  int
	HopSize    int
	SampleRate int
}

func NewSTFT() *STFT {
	return &STFT{
		fft: NewFFT(),
		logger: logging.WithFields(logging.Fields{
			"component": "stft",
		}),
	}
}

// FrameCount is the number of frames the framer emits for n samples: one per
// start position k*hop with k*hop < n.
func FrameCount(n, hopSize int) int {
	if n <= 0 || hopSize <= 0 {
		return 0
	}
	return (n + hopSize - 1) / hopSize
}

// Compute frames a single channel.
func (s *STFT) Compute(signal []float64, frameSize, hopSize, sampleRate int, window Window) (*MultichannelSTFT, error) {
	return s.ComputeMultichannel([][]float64{signal}, frameSize, hopSize, sampleRate, window)
}

// ComputeMultichannel slices each channel into frames of frameSize samples
// starting every hopSize samples. The last frames run past the end of the
// signal and are zero-padded at the tail. An empty signal yields zero frames.
func (s *STFT) ComputeMultichannel(channels [][]float64, frameSize, hopSize, sampleRate int, window Window) (*MultichannelSTFT, error) {
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive, got %d: %w", hopSize, status.ErrConfiguration)
	}
	if frameSize <= hopSize {
		return nil, fmt.Errorf("frame size %d must exceed hop size %d: %w", frameSize, hopSize, status.ErrConfiguration)
	}

	n := 0
	for c, ch := range channels {
		if c == 0 {
			n = len(ch)
		} else if len(ch) != n {
			return nil, fmt.Errorf("channel %d has %d samples, channel 0 has %d: %w", c, len(ch), n, status.ErrConfiguration)
		}
	}

	numFrames := FrameCount(n, hopSize)
	freqBins := frameSize/2 + 1

	result := &MultichannelSTFT{
		Frames:     make([][][]complex128, len(channels)),
		Channels:   len(channels),
		TimeFrames: numFrames,
		FreqBins:   freqBins,
		FrameSize:  frameSize,
		HopSize:    hopSize,
		SampleRate: sampleRate,
	}

	frame := make([]float64, frameSize)
	for c, ch := range channels {
		result.Frames[c] = make([][]complex128, numFrames)

		for k := range numFrames {
			start := k * hopSize
			end := min(start+frameSize, n)

			copied := copy(frame, ch[start:end])
			clear(frame[copied:])

			if window != nil {
				if err := window.ApplyInPlace(frame); err != nil {
					return nil, fmt.Errorf("window frame %d: %w: %w", k, err, status.ErrConfiguration)
				}
			}

			spectrum := s.fft.Compute(frame)
			result.Frames[c][k] = append([]complex128(nil), spectrum[:freqBins]...)
		}
	}

	s.logger.Debug("Framed clip", logging.Fields{
		"channels":   len(channels),
		"samples":    n,
		"frames":     numFrames,
		"freq_bins":  freqBins,
		"frame_size": frameSize,
		"hop_size":   hopSize,
	})

	return result, nil
}

// Magnitude returns |X| for every channel, frame and bin.
func (m *MultichannelSTFT) Magnitude() [][][]float64 {
	out := make([][][]float64, len(m.Frames))
	for c, frames := range m.Frames {
		out[c] = make([][]float64, len(frames))
		for k, bins := range frames {
			mag := make([]float64, len(bins))
			for i, v := range bins {
				mag[i] = cmplx.Abs(v)
			}
			out[c][k] = mag
		}
	}
	return out
}
