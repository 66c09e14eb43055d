package impact

import (
	"github.com/RyanBlaney/sonido-impact/algorithms/common"
	"github.com/RyanBlaney/sonido-impact/logging"
)

// State is the segmenter's position relative to the threshold.
type State int

const (
	StateOutside State = iota
	StateInside
)

func (s State) String() string {
	if s == StateInside {
		return "inside"
	}
	return "outside"
}

// Segmenter turns an energy curve into candidate intervals with a
// threshold of mean(curve) * Multiplier.
type Segmenter struct {
	// Multiplier scales the curve mean into the detection threshold.
	Multiplier float64
	// BridgeGapSamples is how close, in samples, a new interval may start to
	// the previous one's end and still be fused with it.
	BridgeGapSamples int

	logger logging.Logger
}

func NewSegmenter(multiplier float64, bridgeGapSamples int) *Segmenter {
	return &Segmenter{
		Multiplier:       multiplier,
		BridgeGapSamples: bridgeGapSamples,
		logger: logging.WithFields(logging.Fields{
			"component": "segmenter",
		}),
	}
}

// Threshold returns mean(energy) * Multiplier.
func (s *Segmenter) Threshold(energy []float64) float64 {
	return common.Mean(energy) * s.Multiplier
}

// Segment walks the curve once. Entering INSIDE needs a frame above the
// threshold; leaving it needs a frame at or below the threshold that is not
// a momentary dip. An interval still open at the end closes at
// p.AnalysisEnd.
func (s *Segmenter) Segment(p *Profile) []Candidate {
	e := p.Energy
	threshold := s.Threshold(e)
	tolerance := float64(s.BridgeGapSamples) / float64(p.SampleRate)

	var (
		out   []Candidate
		open  Candidate
		state = StateOutside
	)

	for i, v := range e {
		switch state {
		case StateOutside:
			if !exceeds(v, threshold) {
				continue
			}
			start := p.FrameTime(i)
			if n := len(out); n > 0 && bridges(out[n-1].End, start, tolerance) {
				// reopen the previous interval instead of starting a new one
				open = out[n-1]
				open.Peak = max(open.Peak, v)
				out = out[:n-1]
			} else {
				open = Candidate{Interval: Interval{Start: start}, Peak: v}
			}
			state = StateInside

		case StateInside:
			if exceeds(v, threshold) || dipIsMomentary(e, i, threshold) {
				open.Peak = max(open.Peak, v)
				continue
			}
			open.End = p.FrameTime(i)
			out = append(out, open)
			state = StateOutside
		}
	}

	if state == StateInside {
		open.End = p.AnalysisEnd
		out = append(out, open)
	}

	s.logger.Debug("Segmented energy curve", logging.Fields{
		"frames":     len(e),
		"threshold":  threshold,
		"candidates": len(out),
	})

	return out
}

func exceeds(v, threshold float64) bool {
	return v > threshold
}

// dipIsMomentary reports whether the two frames after i are both above the
// threshold. Frames past the end of the curve count as below.
func dipIsMomentary(e []float64, i int, threshold float64) bool {
	return i+2 < len(e) && exceeds(e[i+1], threshold) && exceeds(e[i+2], threshold)
}

// bridges reports whether an interval starting at start should fuse with
// one that ended at prevEnd.
func bridges(prevEnd, start, tolerance float64) bool {
	return start-prevEnd <= tolerance
}
