package impact

import (
	"github.com/RyanBlaney/sonido-impact/algorithms/spectral"
)

// ActivationIntervals turns frames whose activation exceeds threshold into
// intervals [t, t + frame/sr] with t = i*hop/sr, fusing intervals that touch
// or overlap.
func ActivationIntervals(activation []float64, threshold float64, hopSize, frameSize, sampleRate int) []Interval {
	sr := float64(sampleRate)
	width := float64(frameSize) / sr

	var out []Interval
	for i, a := range activation {
		if a <= threshold {
			continue
		}
		start := float64(i*hopSize) / sr
		iv := Interval{Start: start, End: start + width}

		if n := len(out); n > 0 && iv.Start <= out[n-1].End {
			out[n-1].End = max(out[n-1].End, iv.End)
			continue
		}
		out = append(out, iv)
	}
	return out
}

// HighFrequencyIntervals flags frames of the first channel whose upper mel
// half and lower mel half are both louder than average and whose upper/lower
// ratio beats the average ratio. Each flagged frame yields one hop-long
// interval.
func HighFrequencyIntervals(features *spectral.FeatureTensor) []Interval {
	if features.Channels == 0 || features.Frames == 0 || features.MelBins < 2 {
		return nil
	}

	norm := features.MinMaxNormalized()
	frames := norm.Data[0]
	mid := features.MelBins / 2

	hf := make([]float64, len(frames))
	lf := make([]float64, len(frames))
	var meanHF, meanLF float64
	for i, mel := range frames {
		for _, v := range mel[:mid] {
			lf[i] += v
		}
		for _, v := range mel[mid:] {
			hf[i] += v
		}
		meanHF += hf[i]
		meanLF += lf[i]
	}
	meanHF /= float64(len(frames))
	meanLF /= float64(len(frames))

	var out []Interval
	for i := range frames {
		if hf[i] > meanHF && lf[i] > meanLF && hf[i]/lf[i] > meanHF/meanLF {
			out = append(out, Interval{Start: norm.FrameTime(i), End: norm.FrameTime(i + 1)})
		}
	}
	return out
}

// ImpactPoint is a zero-width reference at time t.
func ImpactPoint(t float64) []Interval {
	return []Interval{{Start: t, End: t}}
}
