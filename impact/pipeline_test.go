package impact

import (
	"errors"
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-impact/config"
	"github.com/RyanBlaney/sonido-impact/status"
)

const tol = 1e-9

// pinnedCurve has two bursts separated by a three-frame gap.
var pinnedCurve = []float64{0.1, 0.1, 0.9, 0.9, 0.1, 0.1, 0.1, 0.9, 0.1}

func profileOf(energy []float64, sampleRate, hop int) *Profile {
	end := float64(len(energy)*hop) / float64(sampleRate)
	return &Profile{
		Energy:       energy,
		SampleRate:   sampleRate,
		HopSamples:   hop,
		AnalysisEnd:  end,
		ClipDuration: end,
	}
}

func assertIntervals(t *testing.T, got []Candidate, want []Interval) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d intervals %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if math.Abs(got[i].Start-want[i].Start) > tol || math.Abs(got[i].End-want[i].End) > tol {
			t.Errorf("interval %d = %v, want %v", i, got[i].Interval, want[i])
		}
	}
}

func TestSegmenterThreshold(t *testing.T) {
	s := NewSegmenter(1.4, 1)
	if got := s.Threshold(pinnedCurve); math.Abs(got-0.51333333333) > 1e-9 {
		t.Errorf("threshold = %g, want 0.513333", got)
	}
}

func TestPinnedCurve(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate int
		hop        int
		wantMerged []Interval
	}{
		{
			name:       "short merge gap keeps both bursts",
			sampleRate: 100000,
			hop:        2000,
			wantMerged: []Interval{{0.04, 0.08}, {0.14, 0.16}},
		},
		{
			name:       "default merge gap fuses them",
			sampleRate: 44100,
			hop:        882,
			wantMerged: []Interval{{0.04, 0.16}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := profileOf(pinnedCurve, tt.sampleRate, tt.hop)

			candidates := NewSegmenter(1.4, 1).Segment(p)
			assertIntervals(t, candidates, []Interval{{0.04, 0.08}, {0.14, 0.16}})

			merged := Merge(candidates, MergeGap(5000, tt.sampleRate))
			assertIntervals(t, merged, tt.wantMerged)
			if merged[0].Peak != 0.9 {
				t.Errorf("peak = %g, want 0.9", merged[0].Peak)
			}
		})
	}
}

func TestSegmenterEdgeCases(t *testing.T) {
	tests := []struct {
		name       string
		energy     []float64
		multiplier float64
		bridge     int
		want       []Interval
	}{
		{
			name:       "all below threshold",
			energy:     []float64{0.2, 0.2, 0.2, 0.2},
			multiplier: 1.4,
			want:       nil,
		},
		{
			name:       "all above closes at analysis end",
			energy:     []float64{0.2, 0.2, 0.2, 0.2},
			multiplier: 0.5,
			want:       []Interval{{0, 0.4}},
		},
		{
			name:       "momentary dip is absorbed",
			energy:     []float64{0, 1, 0, 1, 1, 0, 0, 0, 0, 0},
			multiplier: 1.0,
			want:       []Interval{{0.1, 0.5}},
		},
		{
			name:       "single dip frame before one spike closes",
			energy:     []float64{0, 1, 0, 1, 0, 0, 0, 0},
			multiplier: 1.0,
			want:       []Interval{{0.1, 0.2}, {0.3, 0.4}},
		},
		{
			name:       "adjacent intervals bridge when tolerance is one hop",
			energy:     []float64{0, 1, 0, 1, 0, 0, 0, 0},
			multiplier: 1.0,
			bridge:     10,
			want:       []Interval{{0.1, 0.4}},
		},
		{
			name:       "open interval at end with lookahead past the curve",
			energy:     []float64{0, 0, 0, 0, 0, 0, 1, 1},
			multiplier: 1.0,
			want:       []Interval{{0.6, 0.8}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 10 Hz hop at 100 Hz: frame i starts at i/10 s
			p := profileOf(tt.energy, 100, 10)
			got := NewSegmenter(tt.multiplier, tt.bridge).Segment(p)
			assertIntervals(t, got, tt.want)
		})
	}
}

func TestBridgingCarriesPeak(t *testing.T) {
	p := profileOf([]float64{0, 3, 0, 5, 0, 0, 0, 0, 0, 0}, 100, 10)
	got := NewSegmenter(1.0, 10).Segment(p)
	if len(got) != 1 || got[0].Peak != 5 {
		t.Fatalf("got %v, want one interval with peak 5", got)
	}
}

func TestMergeGapBoundary(t *testing.T) {
	gap := MergeGap(5000, 5000)
	if gap != 1.0 {
		t.Fatalf("MergeGap(5000, 5000) = %g, want 1", gap)
	}

	tests := []struct {
		name   string
		second Candidate
		want   int
	}{
		{"gap equal to tolerance merges", Candidate{Interval{2.0, 3.0}, 1}, 1},
		{"gap just above tolerance stays apart", Candidate{Interval{2.0001, 3.0}, 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge([]Candidate{{Interval{0, 1}, 2}, tt.second}, gap)
			if len(got) != tt.want {
				t.Errorf("Merge produced %d intervals, want %d", len(got), tt.want)
			}
		})
	}
}

func TestMergeOrdersAndKeepsMaxima(t *testing.T) {
	in := []Candidate{
		{Interval{0.5, 0.6}, 1},
		{Interval{0.0, 0.4}, 7},
		{Interval{0.1, 0.2}, 9},
	}
	got := Merge(in, 0.05)
	assertIntervals(t, got, []Interval{{0.0, 0.4}, {0.5, 0.6}})
	if got[0].Peak != 9 {
		t.Errorf("merged peak = %g, want 9", got[0].Peak)
	}
	if in[0].Start != 0.5 {
		t.Error("Merge reordered its input")
	}
	if Merge(nil, 1) != nil {
		t.Error("Merge(nil) should be nil")
	}
}

func TestSelectorNotDetected(t *testing.T) {
	p := profileOf([]float64{0.2, 0.2, 0.2}, 100, 10)
	s, err := NewSelector(config.SelectMaxEnergy, 2)
	if err != nil {
		t.Fatal(err)
	}

	candidates := NewSegmenter(1.4, 1).Segment(p)
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %v", candidates)
	}
	if _, err := s.Select(Merge(candidates, 1), p); !errors.Is(err, status.ErrNotDetected) {
		t.Errorf("Select error = %v, want ErrNotDetected", err)
	}
}

func TestSelectorReferenceFilter(t *testing.T) {
	p := profileOf(make([]float64, 100), 100, 1)
	merged := []Candidate{
		{Interval{0.1, 0.2}, 3},
		{Interval{0.5, 0.6}, 9},
	}
	s, _ := NewSelector(config.SelectMaxEnergy, 0)

	got, err := s.SelectWithin(merged, []Interval{{0.0, 0.3}}, p)
	if err != nil {
		t.Fatal(err)
	}
	if got.Candidate.Interval != (Interval{0.1, 0.2}) {
		t.Errorf("selected %v, want [0.1, 0.2]", got.Candidate.Interval)
	}

	// touching endpoints intersect
	got, err = s.SelectWithin(merged, []Interval{{0.6, 0.7}}, p)
	if err != nil || got.Candidate.Start != 0.5 {
		t.Errorf("touching reference: got %v, %v", got.Candidate, err)
	}

	if _, err := s.SelectWithin(merged, []Interval{{0.3, 0.4}}, p); !errors.Is(err, status.ErrNotDetected) {
		t.Errorf("disjoint reference error = %v, want ErrNotDetected", err)
	}
	// no references means no filtering
	got, err = s.SelectWithin(merged, nil, p)
	if err != nil || got.Candidate.Start != 0.5 {
		t.Errorf("empty reference list: got %v, %v; want the 0.5 interval", got.Candidate, err)
	}

	unfiltered, err := s.Select(merged, p)
	if err != nil || unfiltered.Candidate.Start != 0.5 {
		t.Errorf("unfiltered selection = %v, %v; want the 0.5 interval", unfiltered.Candidate, err)
	}
}

func TestSelectorPolicies(t *testing.T) {
	p := profileOf(make([]float64, 100), 100, 1)
	merged := []Candidate{
		{Interval{0.10, 0.20}, 5},
		{Interval{0.30, 0.60}, 2},
		{Interval{0.70, 0.80}, 5},
		{Interval{0.82, 0.92}, 2},
	}

	tests := []struct {
		policy config.SelectionPolicy
		want   float64
	}{
		{config.SelectMaxEnergy, 0.10}, // tie on peak: earliest wins
		{config.SelectLongest, 0.30},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			s, err := NewSelector(tt.policy, 0)
			if err != nil {
				t.Fatal(err)
			}
			got, err := s.Select(merged, p)
			if err != nil {
				t.Fatal(err)
			}
			if got.Candidate.Start != tt.want {
				t.Errorf("selected start %g, want %g", got.Candidate.Start, tt.want)
			}
		})
	}

	if _, err := NewSelector("loudest", 0); !errors.Is(err, status.ErrConfiguration) {
		t.Errorf("unknown policy error = %v, want ErrConfiguration", err)
	}
}

func TestSelectorPaddingStaysInClip(t *testing.T) {
	// hop 0.02 s, clip 0.18 s
	p := profileOf(make([]float64, 9), 100000, 2000)
	s, _ := NewSelector(config.SelectMaxEnergy, 2)

	tests := []struct {
		name string
		c    Candidate
		want Interval
	}{
		{"at clip start", Candidate{Interval{0, 0.02}, 1}, Interval{0, 0.06}},
		{"at clip end", Candidate{Interval{0.16, 0.18}, 1}, Interval{0.12, 0.18}},
		{"whole clip", Candidate{Interval{0, 0.18}, 1}, Interval{0, 0.18}},
		{"interior", Candidate{Interval{0.08, 0.10}, 1}, Interval{0.04, 0.14}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Select([]Candidate{tt.c}, p)
			if err != nil {
				t.Fatal(err)
			}
			iv := got.Interval
			if iv.Start < 0 || iv.End > p.ClipDuration {
				t.Fatalf("padded %v leaves [0, %g]", iv, p.ClipDuration)
			}
			if math.Abs(iv.Start-tt.want.Start) > tol || math.Abs(iv.End-tt.want.End) > tol {
				t.Errorf("padded = %v, want %v", iv, tt.want)
			}
			if got.Candidate != tt.c {
				t.Errorf("raw candidate changed: %v", got.Candidate)
			}
		})
	}
}
