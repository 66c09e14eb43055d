package impact

import (
	"fmt"

	"github.com/RyanBlaney/sonido-impact/algorithms/common"
	"github.com/RyanBlaney/sonido-impact/config"
	"github.com/RyanBlaney/sonido-impact/status"
)

// Selection is the winning candidate and its padded interval.
type Selection struct {
	Candidate Candidate `json:"candidate"`
	Interval  Interval  `json:"interval"`
}

// Selector picks one merged interval per clip.
type Selector struct {
	Policy  config.SelectionPolicy
	PadHops int
}

func NewSelector(policy config.SelectionPolicy, padHops int) (*Selector, error) {
	if policy != config.SelectMaxEnergy && policy != config.SelectLongest {
		return nil, fmt.Errorf("selection policy %q: %w", policy, status.ErrConfiguration)
	}
	if padHops < 0 {
		return nil, fmt.Errorf("pad hops %d: %w", padHops, status.ErrConfiguration)
	}
	return &Selector{Policy: policy, PadHops: padHops}, nil
}

// Select chooses among all merged candidates.
func (s *Selector) Select(merged []Candidate, p *Profile) (Selection, error) {
	return s.pick(merged, p)
}

// SelectWithin keeps only the candidates that intersect at least one
// reference interval, then chooses among them. An empty reference list
// filters nothing.
func (s *Selector) SelectWithin(merged []Candidate, refs []Interval, p *Profile) (Selection, error) {
	if len(refs) == 0 {
		return s.pick(merged, p)
	}

	var kept []Candidate
	for _, c := range merged {
		if overlapsAny(c.Interval, refs) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 && len(merged) > 0 {
		return Selection{}, fmt.Errorf("none of %d intervals meets %d reference intervals: %w",
			len(merged), len(refs), status.ErrNotDetected)
	}
	return s.pick(kept, p)
}

func (s *Selector) pick(candidates []Candidate, p *Profile) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{}, fmt.Errorf("no candidate intervals: %w", status.ErrNotDetected)
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if s.better(c, best) {
			best = c
		}
	}

	pad := float64(s.PadHops) * p.HopSeconds()
	return Selection{
		Candidate: best,
		Interval: Interval{
			Start: common.Clamp(best.Start-pad, 0, p.ClipDuration),
			End:   common.Clamp(best.End+pad, 0, p.ClipDuration),
		},
	}, nil
}

// better reports whether c beats best; ties go to the earlier start.
func (s *Selector) better(c, best Candidate) bool {
	var a, b float64
	if s.Policy == config.SelectLongest {
		a, b = c.Length(), best.Length()
	} else {
		a, b = c.Peak, best.Peak
	}
	if a != b {
		return a > b
	}
	return c.Start < best.Start
}
