package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/RyanBlaney/sonido-impact/config"
	"github.com/RyanBlaney/sonido-impact/detector"
	"github.com/RyanBlaney/sonido-impact/impact"
	"github.com/RyanBlaney/sonido-impact/logging"
	"github.com/RyanBlaney/sonido-impact/transcode"
)

var version = "0.1.0"

// Globals are shared by every subcommand and override the config file.
type Globals struct {
	Config   string `short:"c" type:"path" env:"IMPACT_CONFIG" help:"Path to YAML config file (optional)"`
	LogLevel string `name:"log-level" help:"Override logging.level (debug, info, warn, error)"`
	Detector string `help:"Inference command, overrides detector.command"`
	Weights  string `type:"path" help:"Detector weights file, overrides detector.weights"`
	NoColor  bool   `name:"no-color" help:"Disable ANSI colors in log output"`

	Version kong.VersionFlag `short:"v" help:"Show version information"`

	stdout io.Writer `kong:"-"`
}

type CLI struct {
	Globals

	Label      LabelCmd      `cmd:"" help:"Locate the impact of every clip in a directory and export the dataset"`
	Locate     LocateCmd     `cmd:"" help:"Locate the impact interval of one clip"`
	ImpactTime ImpactTimeCmd `cmd:"" name:"impact-time" help:"Estimate the impact instant of one clip or video"`
	Curate     CurateCmd     `cmd:"" help:"Copy files admitted or excluded by a reference directory"`
}

func main() {
	cli := &CLI{Globals: Globals{stdout: os.Stdout}}
	kctx := kong.Parse(cli,
		kong.Name("impactlabel"),
		kong.Description("Golf impact localization and dataset labeling"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	err := kctx.Run(&cli.Globals)
	kctx.FatalIfErrorf(err)
}

// load reads the config file, applies flag overrides and configures logging.
func (g *Globals) load() (*config.Config, error) {
	cfg := config.Default()
	if g.Config != "" {
		var err error
		if cfg, err = config.Load(g.Config); err != nil {
			return nil, err
		}
	}

	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	if g.Detector != "" {
		cfg.Detector.Command = g.Detector
	}
	if g.Weights != "" {
		cfg.Detector.Weights = g.Weights
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logging.SetLevel(level)
	if g.NoColor {
		logging.DisableColors()
	}
	return cfg, nil
}

// pipeline builds the decoder and the locator, with the external detector
// when one is configured. inputs are the files or extensions about to be
// decoded; ffmpeg must be runnable when any of them needs it.
func pipeline(ctx context.Context, cfg *config.Config, inputs ...string) (transcode.Source, *impact.Locator, error) {
	var d detector.Detector
	if cfg.Detector.Enabled() {
		cmd, err := detector.NewCommand(detector.CommandConfig{
			Command: cfg.Detector.Command,
			Args:    cfg.Detector.Args,
			Weights: cfg.Detector.Weights,
			Timeout: cfg.Detector.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		d = cmd
	}

	locator, err := impact.NewLocator(cfg, d)
	if err != nil {
		return nil, nil, err
	}

	source := transcode.NewAutoSource(&transcode.DecoderConfig{
		FFmpegPath:  cfg.Decoder.FFmpegPath,
		FFprobePath: cfg.Decoder.FFprobePath,
		Timeout:     cfg.Decoder.Timeout,
		MaxDuration: cfg.Audio.MaxDuration,
	})
	if err := source.Preflight(ctx, inputs...); err != nil {
		return nil, nil, err
	}
	return source, locator, nil
}

func (g *Globals) printJSON(v any) error {
	out := g.stdout
	if out == nil {
		out = os.Stdout
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
