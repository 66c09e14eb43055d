package impact

import (
	"cmp"
	"slices"
)

// Merge folds time-ordered candidates, fusing neighbours whose gap is at most
// gap seconds. The fused interval keeps the later end and the larger peak.
func Merge(candidates []Candidate, gap float64) []Candidate {
	if len(candidates) == 0 {
		return nil
	}

	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b Candidate) int {
		return cmp.Compare(a.Start, b.Start)
	})

	merged := []Candidate{sorted[0]}
	for _, next := range sorted[1:] {
		last := &merged[len(merged)-1]
		if next.Start-last.End <= gap {
			last.End = max(last.End, next.End)
			last.Peak = max(last.Peak, next.Peak)
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

// MergeGap converts a gap in samples to seconds at sampleRate.
func MergeGap(samples, sampleRate int) float64 {
	return float64(samples) / float64(sampleRate)
}
