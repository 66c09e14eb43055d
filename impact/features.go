package impact

import (
	"fmt"

	"github.com/RyanBlaney/sonido-impact/algorithms/common"
	"github.com/RyanBlaney/sonido-impact/algorithms/spectral"
	"github.com/RyanBlaney/sonido-impact/algorithms/windowing"
	"github.com/RyanBlaney/sonido-impact/config"
	"github.com/RyanBlaney/sonido-impact/status"
	"github.com/RyanBlaney/sonido-impact/transcode"
)

// Featurizer produces the detector's input: log-mel features of every
// channel at the working sample rate.
type Featurizer struct {
	sampleRate  int
	maxDuration float64
	frameSize   int
	hopSize     int
	window      windowing.Window
	stft        *spectral.STFT
	projector   *spectral.LogMelProjector
	resampler   *common.Interpolator
}

func NewFeaturizer(audio config.AudioConfig, sp config.SpectralConfig) (*Featurizer, error) {
	window, err := windowing.New(string(sp.Window), sp.FrameSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, status.ErrConfiguration)
	}

	projector, err := spectral.NewLogMelProjector(sp.MelBins, sp.FrameSize, audio.SampleRate,
		sp.LogEpsilon, sp.Normalization.Mean, sp.Normalization.Std)
	if err != nil {
		return nil, err
	}

	return &Featurizer{
		sampleRate:  audio.SampleRate,
		maxDuration: audio.MaxDuration,
		frameSize:   sp.FrameSize,
		hopSize:     sp.HopSize,
		window:      window,
		stft:        spectral.NewSTFT(),
		projector:   projector,
		resampler:   common.NewInterpolator(common.Cubic),
	}, nil
}

// Features resamples w to the working rate when needed, truncates it to the
// analysis limit, and projects it to a log-mel tensor.
func (f *Featurizer) Features(w *transcode.Waveform) (*spectral.FeatureTensor, error) {
	if w.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %d: %w", w.SampleRate, status.ErrConfiguration)
	}

	working := w.Truncate(f.maxDuration)
	if working.SampleRate != f.sampleRate {
		working = &transcode.Waveform{
			Channels:   f.resampler.ResampleChannels(working.Channels, working.SampleRate, f.sampleRate),
			SampleRate: f.sampleRate,
			Source:     w.Source,
		}
	}

	frames, err := f.stft.ComputeMultichannel(working.Channels, f.frameSize, f.hopSize, f.sampleRate, f.window)
	if err != nil {
		return nil, err
	}
	return f.projector.Project(frames)
}
