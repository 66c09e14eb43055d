package impact

import (
	"fmt"

	"github.com/RyanBlaney/sonido-impact/algorithms/temporal"
	"github.com/RyanBlaney/sonido-impact/status"
	"github.com/RyanBlaney/sonido-impact/transcode"
)

// Profile is the energy curve of one clip together with the timing needed to
// map frame indices back to seconds.
type Profile struct {
	Energy     []float64
	SampleRate int
	HopSamples int
	// AnalysisEnd is where the analysed audio stops: the clip duration or
	// the analysis limit, whichever comes first.
	AnalysisEnd float64
	// ClipDuration is the full length of the clip before truncation.
	ClipDuration float64
}

// FrameTime converts energy frame i to seconds.
func (p *Profile) FrameTime(i int) float64 {
	return float64(i*p.HopSamples) / float64(p.SampleRate)
}

// HopSeconds is the duration of one energy hop.
func (p *Profile) HopSeconds() float64 {
	return float64(p.HopSamples) / float64(p.SampleRate)
}

// EnergyParams configures BuildEnergyProfile. Frame and hop are in seconds
// and are converted at the clip's own sample rate.
type EnergyParams struct {
	FrameSeconds float64
	HopSeconds   float64
	Mode         temporal.Mode
	// MaxDuration truncates analysis, in seconds. Zero analyses everything.
	MaxDuration float64
}

// BuildEnergyProfile averages the channels of w, truncates to MaxDuration
// and computes the per-hop energy curve. An empty or all-zero curve is
// reported as status.ErrNoAudio.
func BuildEnergyProfile(w *transcode.Waveform, params EnergyParams) (*Profile, error) {
	if w.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %d: %w", w.SampleRate, status.ErrConfiguration)
	}

	frame := int(float64(w.SampleRate) * params.FrameSeconds)
	hop := int(float64(w.SampleRate) * params.HopSeconds)
	energy, err := temporal.NewEnergy(frame, hop)
	if err != nil {
		return nil, fmt.Errorf("energy framing at %d Hz: %w: %w", w.SampleRate, err, status.ErrConfiguration)
	}

	analysed := w.Truncate(params.MaxDuration)
	curve, err := energy.ComputeFrameEnergy(analysed.Mono(), params.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, status.ErrConfiguration)
	}

	if isSilent(curve) {
		return nil, fmt.Errorf("%d energy frames carry no signal: %w", len(curve), status.ErrNoAudio)
	}

	return &Profile{
		Energy:       curve,
		SampleRate:   w.SampleRate,
		HopSamples:   hop,
		AnalysisEnd:  analysed.Duration(),
		ClipDuration: w.Duration(),
	}, nil
}

func isSilent(curve []float64) bool {
	for _, v := range curve {
		if v > 0 {
			return false
		}
	}
	return true
}
