package transcode

import (
	"math"
)

// Waveform is a decoded clip in planar layout: Channels[c][i] is sample i of
// channel c. All channels have the same length.
type Waveform struct {
	Channels   [][]float64
	SampleRate int
	Source     string
}

func (w *Waveform) NumChannels() int {
	return len(w.Channels)
}

// Len returns the number of samples per channel.
func (w *Waveform) Len() int {
	if len(w.Channels) == 0 {
		return 0
	}
	return len(w.Channels[0])
}

// Duration returns the clip length in seconds.
func (w *Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(w.Len()) / float64(w.SampleRate)
}

// Mono averages all channels into one signal.
func (w *Waveform) Mono() []float64 {
	n := w.Len()
	mono := make([]float64, n)
	if n == 0 {
		return mono
	}
	if len(w.Channels) == 1 {
		copy(mono, w.Channels[0])
		return mono
	}

	scale := 1.0 / float64(len(w.Channels))
	for _, ch := range w.Channels {
		for i, v := range ch {
			mono[i] += v
		}
	}
	for i := range mono {
		mono[i] *= scale
	}
	return mono
}

// Truncate returns a waveform holding at most maxSeconds of audio. A
// non-positive limit returns w unchanged.
func (w *Waveform) Truncate(maxSeconds float64) *Waveform {
	if maxSeconds <= 0 {
		return w
	}
	limit := int(maxSeconds * float64(w.SampleRate))
	if limit >= w.Len() {
		return w
	}
	return w.Slice(0, limit)
}

// Slice returns samples [start, end) of every channel, clamped to the clip.
func (w *Waveform) Slice(start, end int) *Waveform {
	n := w.Len()
	start = max(0, min(start, n))
	end = max(start, min(end, n))

	out := &Waveform{
		Channels:   make([][]float64, len(w.Channels)),
		SampleRate: w.SampleRate,
		Source:     w.Source,
	}
	for c, ch := range w.Channels {
		out.Channels[c] = append([]float64(nil), ch[start:end]...)
	}
	return out
}

// SampleIndex converts a time in seconds to the nearest sample index.
func (w *Waveform) SampleIndex(seconds float64) int {
	return int(math.Round(seconds * float64(w.SampleRate)))
}

// deinterleave splits interleaved frames into planar channels. Trailing
// samples that do not fill a whole frame are dropped.
func deinterleave(samples []float64, channels int) [][]float64 {
	if channels <= 0 {
		return nil
	}
	frames := len(samples) / channels
	out := make([][]float64, channels)
	for c := range out {
		out[c] = make([]float64, frames)
	}
	for i := range frames {
		for c := range channels {
			out[c][i] = samples[i*channels+c]
		}
	}
	return out
}
