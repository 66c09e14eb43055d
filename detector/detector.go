// Package detector connects the pipeline to a learned impact detector. The
// model itself lives outside this module; it is reached either through a Go
// function or through an external inference command.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-impact/algorithms/spectral"
	"github.com/RyanBlaney/sonido-impact/logging"
	"github.com/RyanBlaney/sonido-impact/status"
)

// Detector maps a feature tensor to one activation value in [0, 1] per
// spectral frame.
type Detector interface {
	Infer(ctx context.Context, features *spectral.FeatureTensor) ([]float64, error)
}

// Func adapts a plain function to Detector.
type Func func(ctx context.Context, features *spectral.FeatureTensor) ([]float64, error)

func (f Func) Infer(ctx context.Context, features *spectral.FeatureTensor) ([]float64, error) {
	return f(ctx, features)
}

// Command runs an external inference program once per clip. The feature
// tensor is written to its stdin as JSON and the program answers on stdout
// with {"activation": [...]}.
type Command struct {
	path    string
	args    []string
	timeout time.Duration
	logger  logging.Logger
}

// CommandConfig describes the inference program.
type CommandConfig struct {
	Command string
	Args    []string
	// Weights is passed to the program as --weights when set. It must exist.
	Weights string
	Timeout time.Duration
}

// NewCommand resolves the program on PATH and checks the weights file.
func NewCommand(cfg CommandConfig) (*Command, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, fmt.Errorf("detector command is empty: %w", status.ErrConfiguration)
	}

	path, err := exec.LookPath(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("detector command %q: %w: %w", cfg.Command, err, status.ErrConfiguration)
	}

	args := append([]string(nil), cfg.Args...)
	if cfg.Weights != "" {
		if _, err := os.Stat(cfg.Weights); err != nil {
			return nil, fmt.Errorf("detector weights %q: %w: %w", cfg.Weights, err, status.ErrConfiguration)
		}
		args = append(args, "--weights", cfg.Weights)
	}

	return &Command{
		path:    path,
		args:    args,
		timeout: cfg.Timeout,
		logger: logging.WithFields(logging.Fields{
			"component": "detector",
			"command":   cfg.Command,
		}),
	}, nil
}

type request struct {
	*spectral.FeatureTensor
}

type response struct {
	Activation []float64 `json:"activation"`
	Error      string    `json:"error,omitempty"`
}

func (c *Command) Infer(ctx context.Context, features *spectral.FeatureTensor) ([]float64, error) {
	if features == nil {
		return nil, errors.New("detector needs a feature tensor")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(request{features})
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.path, c.args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	out, err := cmd.Output()
	if err != nil {
		c.logger.Error(err, "Detector command failed", logging.Fields{
			"stderr": strings.TrimSpace(stderr.String()),
		})
		return nil, fmt.Errorf("run detector: %w", err)
	}

	var resp response
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("decode detector output: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("detector reported: %s", resp.Error)
	}

	c.logger.Debug("Detector inference finished", logging.Fields{
		"frames":      len(resp.Activation),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return resp.Activation, nil
}

var errActivationRange = errors.New("activation outside [0, 1]")

// CheckActivation requires one value per frame, each within [0, 1]. NaN is
// out of range.
func CheckActivation(activation []float64, frames int) error {
	if len(activation) != frames {
		return fmt.Errorf("detector returned %d activations for %d frames", len(activation), frames)
	}
	for i, a := range activation {
		if !(a >= 0 && a <= 1) {
			return fmt.Errorf("frame %d: %w (%g)", i, errActivationRange, a)
		}
	}
	return nil
}
