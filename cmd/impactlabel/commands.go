package main

import (
	"context"
	"errors"

	"github.com/RyanBlaney/sonido-impact/dataset"
	"github.com/RyanBlaney/sonido-impact/impact"
	"github.com/RyanBlaney/sonido-impact/logging"
	"github.com/RyanBlaney/sonido-impact/observe"
	"github.com/RyanBlaney/sonido-impact/status"
)

type LabelCmd struct {
	Dir     string `arg:"" type:"existingdir" help:"Directory of clips"`
	Workers int    `short:"w" help:"Concurrent clips, overrides batch.workers"`
}

func (c *LabelCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if c.Workers > 0 {
		cfg.Batch.Workers = c.Workers
	}

	source, locator, err := pipeline(ctx, cfg, cfg.Batch.Extensions...)
	if err != nil {
		return err
	}

	runner := dataset.NewRunner(source, locator, cfg.Batch, cfg.Export, observe.DefaultMetrics())
	report, err := runner.Run(ctx, c.Dir)
	if err != nil {
		return err
	}
	return g.printJSON(report)
}

type LocateCmd struct {
	File string `arg:"" type:"existingfile" help:"Clip to analyse"`
}

type locateOutput struct {
	Clip   string      `json:"clip"`
	Status status.Kind `json:"status"`
	Start  float64     `json:"start,omitempty"`
	End    float64     `json:"end,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func (c *LocateCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	source, locator, err := pipeline(ctx, cfg, c.File)
	if err != nil {
		return err
	}

	out := locateOutput{Clip: c.File}
	w, err := source.Decode(ctx, c.File)
	if err == nil {
		var res *impact.Result
		res, err = locator.Locate(ctx, w)
		if err == nil {
			out.Start, out.End = res.Selection.Interval.Start, res.Selection.Interval.End
		}
	}

	out.Status = status.Classify(err)
	if err != nil {
		if !status.IsClipLocal(err) {
			return err
		}
		out.Error = err.Error()
		logging.WithFields(logging.Fields{
			"component": "cli",
			"clip":      c.File,
		}).Warn("No impact interval", logging.Fields{"status": string(out.Status)})
	}
	return g.printJSON(out)
}

type ImpactTimeCmd struct {
	File string `arg:"" type:"existingfile" help:"Clip or video to analyse"`
}

func (c *ImpactTimeCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if !cfg.Detector.Enabled() {
		return errors.New("impact-time needs a detector: set detector.command or --detector")
	}
	source, locator, err := pipeline(ctx, cfg, c.File)
	if err != nil {
		return err
	}

	w, err := source.Decode(ctx, c.File)
	if err != nil {
		return err
	}
	est, err := locator.ImpactTime(ctx, w)
	if err != nil {
		return err
	}
	return g.printJSON(struct {
		Clip  string  `json:"clip"`
		Time  float64 `json:"impact_time"`
		Frame int     `json:"frame"`
	}{c.File, est.Time, est.Frame})
}

type CurateCmd struct {
	Mode      string `enum:"whitelist,blacklist" default:"whitelist" help:"Admit (whitelist) or exclude (blacklist) reference names"`
	MinBytes  int64  `name:"min-bytes" default:"153600" help:"Smallest WAV kept in whitelist mode, 0 disables"`
	Source    string `arg:"" type:"existingdir" help:"Directory to copy from"`
	Target    string `arg:"" type:"path" help:"Directory to copy into"`
	Reference string `arg:"" type:"existingdir" help:"Directory whose file names form the list"`
}

func (c *CurateCmd) Run(g *Globals) error {
	if _, err := g.load(); err != nil {
		return err
	}
	res, err := dataset.Curate(dataset.CurateOptions{
		Mode:        dataset.CurateMode(c.Mode),
		Source:      c.Source,
		Target:      c.Target,
		Reference:   c.Reference,
		MinWAVBytes: c.MinBytes,
	})
	if err != nil {
		return err
	}
	return g.printJSON(res)
}
