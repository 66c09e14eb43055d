package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/RyanBlaney/sonido-impact/logging"
	"github.com/RyanBlaney/sonido-impact/status"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path on top of Default and validates it.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults. Unknown keys are
// rejected; an empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w: %w", err, status.ErrConfiguration)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field consistency and returns every failure joined
// together, wrapped as a configuration error.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", cfg.Audio.SampleRate))
	}
	if cfg.Audio.MaxDuration < 0 {
		errs = append(errs, fmt.Errorf("audio.max_duration must not be negative, got %g", cfg.Audio.MaxDuration))
	}

	sp := cfg.Spectral
	if sp.HopSize <= 0 {
		errs = append(errs, fmt.Errorf("spectral.hop_size must be positive, got %d", sp.HopSize))
	}
	if sp.FrameSize <= sp.HopSize {
		errs = append(errs, fmt.Errorf("spectral.frame_size (%d) must exceed spectral.hop_size (%d)", sp.FrameSize, sp.HopSize))
	}
	if sp.MelBins <= 0 {
		errs = append(errs, fmt.Errorf("spectral.mel_bins must be positive, got %d", sp.MelBins))
	}
	if sp.LogEpsilon <= 0 {
		errs = append(errs, fmt.Errorf("spectral.log_epsilon must be positive, got %g", sp.LogEpsilon))
	}
	if !slices.Contains([]WindowType{WindowHann, WindowHamming, WindowRectangular}, sp.Window) {
		errs = append(errs, fmt.Errorf("spectral.window %q is invalid; valid values: hann, hamming, rectangular", sp.Window))
	}
	if n := sp.Normalization; n.Enabled() {
		if len(n.Mean) != len(n.Std) {
			errs = append(errs, fmt.Errorf("spectral.normalization mean (%d) and std (%d) lengths differ", len(n.Mean), len(n.Std)))
		} else if len(n.Mean) != 1 && len(n.Mean) != sp.MelBins {
			errs = append(errs, fmt.Errorf("spectral.normalization needs 1 or %d values, got %d", sp.MelBins, len(n.Mean)))
		}
		for i, s := range n.Std {
			if s == 0 {
				errs = append(errs, fmt.Errorf("spectral.normalization.std[%d] is zero", i))
			}
		}
	}

	en := cfg.Energy
	if en.HopSeconds <= 0 {
		errs = append(errs, fmt.Errorf("energy.hop_seconds must be positive, got %g", en.HopSeconds))
	}
	if en.FrameSeconds <= 0 {
		errs = append(errs, fmt.Errorf("energy.frame_seconds must be positive, got %g", en.FrameSeconds))
	}
	if en.Mode != EnergySum && en.Mode != EnergyPeak {
		errs = append(errs, fmt.Errorf("energy.mode %q is invalid; valid values: sum, peak", en.Mode))
	}

	sg := cfg.Segment
	if sg.ThresholdMultiplier <= 0 {
		errs = append(errs, fmt.Errorf("segment.threshold_multiplier must be positive, got %g", sg.ThresholdMultiplier))
	}
	if sg.BridgeGapSamples < 0 {
		errs = append(errs, fmt.Errorf("segment.bridge_gap_samples must not be negative, got %d", sg.BridgeGapSamples))
	}
	if sg.MergeGapSamples < 0 {
		errs = append(errs, fmt.Errorf("segment.merge_gap_samples must not be negative, got %d", sg.MergeGapSamples))
	}

	if cfg.Select.Policy != SelectMaxEnergy && cfg.Select.Policy != SelectLongest {
		errs = append(errs, fmt.Errorf("select.policy %q is invalid; valid values: max_energy, longest", cfg.Select.Policy))
	}
	if cfg.Select.PadHops < 0 {
		errs = append(errs, fmt.Errorf("select.pad_hops must not be negative, got %d", cfg.Select.PadHops))
	}

	if f := cfg.Extract.SearchWindowFraction; f < 0 || f > 1 {
		errs = append(errs, fmt.Errorf("extract.search_window_fraction must be within [0, 1], got %g", f))
	}

	switch cfg.Locate.ReferenceMode {
	case ReferenceNone, ReferenceHighFrequency:
	case ReferenceActivation, ReferenceImpactTime:
		if !cfg.Detector.Enabled() {
			errs = append(errs, fmt.Errorf("locate.reference_mode %q requires detector.command", cfg.Locate.ReferenceMode))
		}
	default:
		errs = append(errs, fmt.Errorf("locate.reference_mode %q is invalid; valid values: none, activation, impact_time, high_frequency", cfg.Locate.ReferenceMode))
	}
	if t := cfg.Locate.ActivationThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("locate.activation_threshold must be within [0, 1], got %g", t))
	}

	if cfg.Detector.Enabled() && cfg.Detector.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("detector.timeout must be positive, got %v", cfg.Detector.Timeout))
	}

	if strings.TrimSpace(cfg.Export.Label) == "" {
		errs = append(errs, errors.New("export.label is required"))
	}

	if cfg.Batch.Workers <= 0 {
		errs = append(errs, fmt.Errorf("batch.workers must be positive, got %d", cfg.Batch.Workers))
	}
	if len(cfg.Batch.Extensions) == 0 {
		errs = append(errs, errors.New("batch.extensions must list at least one extension"))
	}
	for i, ext := range cfg.Batch.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("batch.extensions[%d] %q must start with a dot", i, ext))
		}
	}
	if cfg.Batch.OutputDir == "" {
		errs = append(errs, errors.New("batch.output_dir is required"))
	}

	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", status.ErrConfiguration, errors.Join(errs...))
	}
	return nil
}
