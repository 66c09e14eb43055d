// Package impact locates the most salient acoustic event of a clip: it
// segments the energy curve, merges nearby segments, picks one interval, and
// turns a detector's activation curve into a point estimate.
package impact

import (
	"fmt"
)

// Interval is a closed time range in seconds.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (iv Interval) Length() float64 {
	return iv.End - iv.Start
}

// Overlaps reports closed-interval intersection; touching endpoints count.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start <= other.End && iv.End >= other.Start
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%.4f, %.4f]", iv.Start, iv.End)
}

// Candidate is a segmenter output: an interval and the largest energy seen
// inside it.
type Candidate struct {
	Interval
	Peak float64 `json:"peak"`
}

// overlapsAny reports whether iv intersects at least one reference.
func overlapsAny(iv Interval, refs []Interval) bool {
	for _, ref := range refs {
		if iv.Overlaps(ref) {
			return true
		}
	}
	return false
}
