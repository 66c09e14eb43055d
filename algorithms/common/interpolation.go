package common

// InterpolationType defines interpolation method
type InterpolationType int

const (
	Linear InterpolationType = iota
	Cubic
)

// Interpolator reads a signal at fractional sample positions.
type Interpolator struct {
	method InterpolationType
}

func NewInterpolator(method InterpolationType) *Interpolator {
	return &Interpolator{method: method}
}

// Interpolate performs interpolation at fractional index
func (interp *Interpolator) Interpolate(data []float64, index float64) float64 {
	if interp.method == Cubic {
		return cubicInterpolate(data, index)
	}
	return linearInterpolate(data, index)
}

func linearInterpolate(data []float64, index float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	if index <= 0 {
		return data[0]
	}
	last := len(data) - 1
	if index >= float64(last) {
		return data[last]
	}

	i := int(index)
	frac := index - float64(i)
	return data[i] + frac*(data[i+1]-data[i])
}

// cubicInterpolate uses a Catmull-Rom spline and falls back to linear near
// the edges, where four neighbours are not available.
func cubicInterpolate(data []float64, index float64) float64 {
	i := int(index)
	if len(data) < 4 || index < 1 || i+2 >= len(data) {
		return linearInterpolate(data, index)
	}

	frac := index - float64(i)
	y0, y1, y2, y3 := data[i-1], data[i], data[i+1], data[i+2]

	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return a0*frac*frac*frac + a1*frac*frac + a2*frac + a3
}

// ResampleSignal converts signal from originalRate to targetRate. The output
// has round(len * target / original) samples.
func (interp *Interpolator) ResampleSignal(signal []float64, originalRate, targetRate int) []float64 {
	if len(signal) == 0 || originalRate <= 0 || targetRate <= 0 || originalRate == targetRate {
		return append([]float64(nil), signal...)
	}

	ratio := float64(originalRate) / float64(targetRate)
	newLength := int(float64(len(signal))/ratio + 0.5)

	resampled := make([]float64, newLength)
	for i := range resampled {
		resampled[i] = interp.Interpolate(signal, float64(i)*ratio)
	}
	return resampled
}

// ResampleChannels applies ResampleSignal to every channel.
func (interp *Interpolator) ResampleChannels(channels [][]float64, originalRate, targetRate int) [][]float64 {
	out := make([][]float64, len(channels))
	for c, ch := range channels {
		out[c] = interp.ResampleSignal(ch, originalRate, targetRate)
	}
	return out
}
