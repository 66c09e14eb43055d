// Package temporal computes frame-level energy envelopes of a signal.
package temporal

import (
	"fmt"
)

// Mode selects how the samples of one frame reduce to a single energy value.
type Mode string

const (
	// Sum adds up the squared samples of the frame.
	Sum Mode = "sum"
	// Peak keeps the largest squared sample of the frame.
	Peak Mode = "peak"
)

// Energy builds energy curves with a fixed frame and hop, both in samples.
type Energy struct {
	frameSize int
	hopSize   int
}

// NewEnergy creates an energy calculator. Both sizes must be positive.
func NewEnergy(frameSize, hopSize int) (*Energy, error) {
	if frameSize <= 0 || hopSize <= 0 {
		return nil, fmt.Errorf("energy frame (%d) and hop (%d) must be positive", frameSize, hopSize)
	}
	return &Energy{frameSize: frameSize, hopSize: hopSize}, nil
}

// ComputeFrameEnergy emits one value per hop start i = 0, hop, 2*hop, ...
// over the window [i, min(i+frame, len)). The last windows are truncated
// rather than padded, so the curve has ceil(len/hop) entries.
func (e *Energy) ComputeFrameEnergy(signal []float64, mode Mode) ([]float64, error) {
	if mode != Sum && mode != Peak {
		return nil, fmt.Errorf("unknown energy mode %q", mode)
	}

	numFrames := (len(signal) + e.hopSize - 1) / e.hopSize
	energies := make([]float64, numFrames)

	for k := range numFrames {
		start := k * e.hopSize
		end := min(start+e.frameSize, len(signal))

		value := 0.0
		for _, x := range signal[start:end] {
			sq := x * x
			if mode == Sum {
				value += sq
			} else if sq > value {
				value = sq
			}
		}
		energies[k] = value
	}

	return energies, nil
}
