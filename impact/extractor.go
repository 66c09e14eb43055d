package impact

import (
	"context"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-impact/algorithms/common"
	"github.com/RyanBlaney/sonido-impact/algorithms/spectral"
	"github.com/RyanBlaney/sonido-impact/detector"
	"github.com/RyanBlaney/sonido-impact/logging"
	"github.com/RyanBlaney/sonido-impact/status"
)

// Estimate is a point estimate of the impact time.
type Estimate struct {
	Time       float64   `json:"time"`
	Frame      int       `json:"frame"`
	Activation []float64 `json:"activation,omitempty"`
}

// Extractor reads the impact time off a detector's activation curve.
type Extractor struct {
	detector detector.Detector
	// fraction limits the search to the leading part of the curve; 0 and 1
	// search everything.
	fraction float64
	logger   logging.Logger
}

// NewExtractor takes ownership of nothing: the caller loads the detector
// once and may share it between extractors.
func NewExtractor(d detector.Detector, searchWindowFraction float64) (*Extractor, error) {
	if d == nil {
		return nil, fmt.Errorf("extractor needs a detector: %w", status.ErrConfiguration)
	}
	if searchWindowFraction < 0 || searchWindowFraction > 1 || math.IsNaN(searchWindowFraction) {
		return nil, fmt.Errorf("search window fraction %g outside [0, 1]: %w", searchWindowFraction, status.ErrConfiguration)
	}
	return &Extractor{
		detector: d,
		fraction: searchWindowFraction,
		logger: logging.WithFields(logging.Fields{
			"component": "impact_extractor",
		}),
	}, nil
}

// Detect runs the detector on features, checks the activation curve it
// returns and extracts the impact time.
func (e *Extractor) Detect(ctx context.Context, features *spectral.FeatureTensor) (*Estimate, error) {
	if features == nil {
		return nil, fmt.Errorf("detect needs a feature tensor: %w", status.ErrConfiguration)
	}

	activation, err := e.detector.Infer(ctx, features)
	if err != nil {
		return nil, fmt.Errorf("detector inference: %w", err)
	}
	if err := detector.CheckActivation(activation, features.Frames); err != nil {
		return nil, fmt.Errorf("detector output: %w", err)
	}

	est, err := e.Extract(activation, features.HopSize, features.SampleRate)
	if err != nil {
		return nil, err
	}
	est.Activation = activation

	e.logger.Debug("Impact time extracted", logging.Fields{
		"frame":  est.Frame,
		"time":   est.Time,
		"frames": len(activation),
	})
	return est, nil
}

// Extract finds the first frame of maximum activation inside the search
// window and converts it to seconds.
func (e *Extractor) Extract(activation []float64, hopSize, sampleRate int) (*Estimate, error) {
	if len(activation) == 0 {
		return nil, fmt.Errorf("empty activation curve: %w", status.ErrNotDetected)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %d: %w", sampleRate, status.ErrConfiguration)
	}

	frame := common.ArgMax(activation[:e.searchLength(len(activation))])
	return &Estimate{
		Time:  float64(frame*hopSize) / float64(sampleRate),
		Frame: frame,
	}, nil
}

func (e *Extractor) searchLength(n int) int {
	if e.fraction == 0 || e.fraction == 1 {
		return n
	}
	return max(1, min(n, int(math.Ceil(float64(n)*e.fraction))))
}
