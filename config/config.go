// Package config holds the deployment constants of the impact locator. They
// are fixed per deployment and loaded once from YAML at startup.
package config

import (
	"time"
)

// EnergyMode selects how an energy frame is reduced to one value.
type EnergyMode string

const (
	// EnergySum sums squared samples over the frame.
	EnergySum EnergyMode = "sum"
	// EnergyPeak keeps the largest squared sample of the frame.
	EnergyPeak EnergyMode = "peak"
)

// SelectionPolicy picks the winning interval among the merged candidates.
type SelectionPolicy string

const (
	SelectMaxEnergy SelectionPolicy = "max_energy"
	SelectLongest   SelectionPolicy = "longest"
)

// ReferenceMode chooses where reference intervals for the selector come from.
type ReferenceMode string

const (
	ReferenceNone          ReferenceMode = "none"
	ReferenceActivation    ReferenceMode = "activation"
	ReferenceImpactTime    ReferenceMode = "impact_time"
	ReferenceHighFrequency ReferenceMode = "high_frequency"
)

// WindowType names the analysis window of the spectral framer.
type WindowType string

const (
	WindowHann        WindowType = "hann"
	WindowHamming     WindowType = "hamming"
	WindowRectangular WindowType = "rectangular"
)

type Config struct {
	Audio    AudioConfig    `yaml:"audio"`
	Spectral SpectralConfig `yaml:"spectral"`
	Energy   EnergyConfig   `yaml:"energy"`
	Segment  SegmentConfig  `yaml:"segment"`
	Select   SelectConfig   `yaml:"select"`
	Extract  ExtractConfig  `yaml:"extract"`
	Locate   LocateConfig   `yaml:"locate"`
	Detector DetectorConfig `yaml:"detector"`
	Export   ExportConfig   `yaml:"export"`
	Batch    BatchConfig    `yaml:"batch"`
	Logging  LoggingConfig  `yaml:"logging"`
	Decoder  DecoderConfig  `yaml:"decoder"`
}

type AudioConfig struct {
	// SampleRate is the working rate of the spectral pipeline and detector.
	SampleRate int `yaml:"sample_rate"`
	// MaxDuration bounds the analysed part of every clip, in seconds. Zero disables it.
	MaxDuration float64 `yaml:"max_duration"`
}

type Normalization struct {
	Mean []float64 `yaml:"mean"`
	Std  []float64 `yaml:"std"`
}

// Enabled reports whether feature normalization statistics were supplied.
func (n Normalization) Enabled() bool {
	return len(n.Mean) > 0 || len(n.Std) > 0
}

type SpectralConfig struct {
	FrameSize     int           `yaml:"frame_size"`
	HopSize       int           `yaml:"hop_size"`
	Window        WindowType    `yaml:"window"`
	MelBins       int           `yaml:"mel_bins"`
	LogEpsilon    float64       `yaml:"log_epsilon"`
	Normalization Normalization `yaml:"normalization"`
}

type EnergyConfig struct {
	FrameSeconds float64    `yaml:"frame_seconds"`
	HopSeconds   float64    `yaml:"hop_seconds"`
	Mode         EnergyMode `yaml:"mode"`
}

// FrameSamples converts the energy frame length to samples at sampleRate.
func (e EnergyConfig) FrameSamples(sampleRate int) int {
	return int(float64(sampleRate) * e.FrameSeconds)
}

// HopSamples converts the energy hop to samples at sampleRate.
func (e EnergyConfig) HopSamples(sampleRate int) int {
	return int(float64(sampleRate) * e.HopSeconds)
}

type SegmentConfig struct {
	ThresholdMultiplier float64 `yaml:"threshold_multiplier"`
	BridgeGapSamples    int     `yaml:"bridge_gap_samples"`
	MergeGapSamples     int     `yaml:"merge_gap_samples"`
}

type SelectConfig struct {
	Policy  SelectionPolicy `yaml:"policy"`
	PadHops int             `yaml:"pad_hops"`
}

type ExtractConfig struct {
	// SearchWindowFraction restricts the argmax to the leading part of the
	// activation curve. 0 and 1 both mean the whole curve.
	SearchWindowFraction float64 `yaml:"search_window_fraction"`
}

type LocateConfig struct {
	ReferenceMode       ReferenceMode `yaml:"reference_mode"`
	ActivationThreshold float64       `yaml:"activation_threshold"`
}

type DetectorConfig struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args"`
	Weights string        `yaml:"weights"`
	Timeout time.Duration `yaml:"timeout"`
}

// Enabled reports whether an external detector is configured.
func (d DetectorConfig) Enabled() bool {
	return d.Command != ""
}

type ExportConfig struct {
	Label     string  `yaml:"label"`
	Elevation float64 `yaml:"elevation"`
	Azimuth   float64 `yaml:"azimuth"`
	Distance  float64 `yaml:"distance"`
}

type BatchConfig struct {
	Workers    int      `yaml:"workers"`
	Extensions []string `yaml:"extensions"`
	SkipFile   string   `yaml:"skip_file"`
	OutputDir  string   `yaml:"output_dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type DecoderConfig struct {
	FFmpegPath  string        `yaml:"ffmpeg_path"`
	FFprobePath string        `yaml:"ffprobe_path"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Default returns the reference deployment constants.
func Default() *Config {
	const workingRate = 44100
	frameSize := workingRate / 120

	return &Config{
		Audio: AudioConfig{
			SampleRate:  workingRate,
			MaxDuration: 8.0,
		},
		Spectral: SpectralConfig{
			FrameSize:  frameSize,
			HopSize:    frameSize / 2,
			Window:     WindowHann,
			MelBins:    64,
			LogEpsilon: 1e-10,
		},
		Energy: EnergyConfig{
			FrameSeconds: 0.05,
			HopSeconds:   0.02,
			Mode:         EnergyPeak,
		},
		Segment: SegmentConfig{
			ThresholdMultiplier: 1.4,
			BridgeGapSamples:    1,
			MergeGapSamples:     5000,
		},
		Select: SelectConfig{
			Policy:  SelectMaxEnergy,
			PadHops: 2,
		},
		Extract: ExtractConfig{
			SearchWindowFraction: 0,
		},
		Locate: LocateConfig{
			ReferenceMode:       ReferenceNone,
			ActivationThreshold: 0.3,
		},
		Detector: DetectorConfig{
			Timeout: 30 * time.Second,
		},
		Export: ExportConfig{
			Label:    "golf_impact",
			Distance: 1,
		},
		Batch: BatchConfig{
			Workers:    4,
			Extensions: []string{".wav"},
			SkipFile:   "skip.csv",
			OutputDir:  "loudest",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Decoder: DecoderConfig{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
			Timeout:     30 * time.Second,
		},
	}
}
