package impact

import (
	"context"
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-impact/algorithms/temporal"
	"github.com/RyanBlaney/sonido-impact/config"
	"github.com/RyanBlaney/sonido-impact/detector"
	"github.com/RyanBlaney/sonido-impact/logging"
	"github.com/RyanBlaney/sonido-impact/status"
	"github.com/RyanBlaney/sonido-impact/transcode"
)

// Result describes one located clip. Selection is only set when Locate
// returns no error; the intermediate stages are kept for diagnostics.
type Result struct {
	Selection    Selection   `json:"selection"`
	Candidates   []Candidate `json:"candidates"`
	Merged       []Candidate `json:"merged"`
	References   []Interval  `json:"references,omitempty"`
	Impact       *Estimate   `json:"impact,omitempty"`
	ClipDuration float64     `json:"clip_duration"`
	Energy       []float64   `json:"-"`
}

// Locator runs the per-clip pipeline. It holds no per-clip state, so one
// Locator may serve many goroutines.
type Locator struct {
	energy     EnergyParams
	mergeGap   int
	reference  config.ReferenceMode
	threshold  float64
	segmenter  *Segmenter
	selector   *Selector
	featurizer *Featurizer
	extractor  *Extractor
}

// NewLocator wires the pipeline from cfg. d may be nil unless cfg asks for a
// detector-backed reference mode.
func NewLocator(cfg *config.Config, d detector.Detector) (*Locator, error) {
	selector, err := NewSelector(cfg.Select.Policy, cfg.Select.PadHops)
	if err != nil {
		return nil, err
	}

	featurizer, err := NewFeaturizer(cfg.Audio, cfg.Spectral)
	if err != nil {
		return nil, err
	}

	l := &Locator{
		energy: EnergyParams{
			FrameSeconds: cfg.Energy.FrameSeconds,
			HopSeconds:   cfg.Energy.HopSeconds,
			Mode:         temporal.Mode(cfg.Energy.Mode),
			MaxDuration:  cfg.Audio.MaxDuration,
		},
		mergeGap:   cfg.Segment.MergeGapSamples,
		reference:  cfg.Locate.ReferenceMode,
		threshold:  cfg.Locate.ActivationThreshold,
		segmenter:  NewSegmenter(cfg.Segment.ThresholdMultiplier, cfg.Segment.BridgeGapSamples),
		selector:   selector,
		featurizer: featurizer,
	}

	if d != nil {
		if l.extractor, err = NewExtractor(d, cfg.Extract.SearchWindowFraction); err != nil {
			return nil, err
		}
	}

	switch l.reference {
	case config.ReferenceActivation, config.ReferenceImpactTime:
		if l.extractor == nil {
			return nil, fmt.Errorf("reference mode %q needs a detector: %w", l.reference, status.ErrConfiguration)
		}
	case config.ReferenceNone, config.ReferenceHighFrequency:
	default:
		return nil, fmt.Errorf("reference mode %q: %w", l.reference, status.ErrConfiguration)
	}

	return l, nil
}

// Locate finds the impact interval of w. NoAudio and NotDetected come back
// wrapped in the error; for NotDetected the partial Result is returned too.
func (l *Locator) Locate(ctx context.Context, w *transcode.Waveform) (*Result, error) {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "locator",
		"function":  "Locate",
	})

	profile, err := BuildEnergyProfile(w, l.energy)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ClipDuration: profile.ClipDuration,
		Energy:       profile.Energy,
	}
	res.Candidates = l.segmenter.Segment(profile)
	res.Merged = Merge(res.Candidates, MergeGap(l.mergeGap, profile.SampleRate))

	if l.reference == config.ReferenceNone {
		res.Selection, err = l.selector.Select(res.Merged, profile)
	} else {
		if res.References, res.Impact, err = l.references(ctx, w); err != nil {
			return nil, err
		}
		res.Selection, err = l.selector.SelectWithin(res.Merged, res.References, profile)
	}

	fields := logging.Fields{
		"candidates": len(res.Candidates),
		"merged":     len(res.Merged),
		"references": len(res.References),
	}
	if err != nil {
		if errors.Is(err, status.ErrNotDetected) {
			logger.Debug("No impact interval", fields)
			return res, err
		}
		return nil, err
	}

	fields["start"] = res.Selection.Interval.Start
	fields["end"] = res.Selection.Interval.End
	logger.Debug("Impact interval located", fields)
	return res, nil
}

// ImpactTime estimates the impact instant from the detector's activation.
func (l *Locator) ImpactTime(ctx context.Context, w *transcode.Waveform) (*Estimate, error) {
	if l.extractor == nil {
		return nil, fmt.Errorf("impact time needs a detector: %w", status.ErrConfiguration)
	}
	features, err := l.featurizer.Features(w)
	if err != nil {
		return nil, err
	}
	return l.extractor.Detect(ctx, features)
}

func (l *Locator) references(ctx context.Context, w *transcode.Waveform) ([]Interval, *Estimate, error) {
	features, err := l.featurizer.Features(w)
	if err != nil {
		return nil, nil, err
	}

	switch l.reference {
	case config.ReferenceHighFrequency:
		return HighFrequencyIntervals(features), nil, nil

	case config.ReferenceActivation:
		est, err := l.extractor.Detect(ctx, features)
		if err != nil {
			return nil, nil, err
		}
		refs := ActivationIntervals(est.Activation, l.threshold, features.HopSize, features.FrameSize, features.SampleRate)
		return refs, est, nil

	case config.ReferenceImpactTime:
		est, err := l.extractor.Detect(ctx, features)
		if err != nil {
			return nil, nil, err
		}
		return ImpactPoint(est.Time), est, nil
	}
	return nil, nil, nil
}
