package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-impact/config"
	"github.com/RyanBlaney/sonido-impact/impact"
	"github.com/RyanBlaney/sonido-impact/logging"
	"github.com/RyanBlaney/sonido-impact/observe"
	"github.com/RyanBlaney/sonido-impact/status"
	"github.com/RyanBlaney/sonido-impact/transcode"
)

// Locator is the per-clip pipeline the runner drives.
type Locator interface {
	Locate(ctx context.Context, w *transcode.Waveform) (*impact.Result, error)
}

// ClipResult is the outcome of one clip of a batch.
type ClipResult struct {
	Clip     string          `json:"clip"`
	Status   status.Kind     `json:"status"`
	Interval impact.Interval `json:"interval"`
	Record   string          `json:"record,omitempty"`
	Segment  string          `json:"segment,omitempty"`
	Err      string          `json:"error,omitempty"`
	Elapsed  time.Duration   `json:"elapsed"`
}

// Report is the fold of every clip result of one run, in directory order.
type Report struct {
	RunID     string              `json:"run_id"`
	Dir       string              `json:"dir"`
	Started   time.Time           `json:"started"`
	Finished  time.Time           `json:"finished"`
	Clips     []ClipResult        `json:"clips"`
	Counts    map[status.Kind]int `json:"counts"`
	SkipAdded int                 `json:"skip_added"`
}

// Runner labels every clip of a directory.
type Runner struct {
	source  transcode.Source
	locator Locator
	batch   config.BatchConfig
	export  config.ExportConfig
	metrics *observe.Metrics
	logger  logging.Logger
}

// NewRunner builds a runner. A nil metrics uses observe.DefaultMetrics.
func NewRunner(source transcode.Source, locator Locator, batch config.BatchConfig, export config.ExportConfig, metrics *observe.Metrics) *Runner {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Runner{
		source:  source,
		locator: locator,
		batch:   batch,
		export:  export,
		metrics: metrics,
		logger: logging.WithFields(logging.Fields{
			"component": "batch_runner",
		}),
	}
}

// Run processes the clips of dir. Clip-local failures are recorded in the
// report; a configuration error stops the run and is returned.
func (r *Runner) Run(ctx context.Context, dir string) (*Report, error) {
	logger := r.logger.WithFields(logging.Fields{
		"function": "Run",
		"dir":      dir,
	})

	report := &Report{
		RunID:   uuid.NewString(),
		Dir:     dir,
		Started: time.Now(),
		Counts:  make(map[status.Kind]int),
	}
	ctx = logging.ContextWithFields(ctx, logging.Fields{"run_id": report.RunID})

	clips, err := r.listClips(dir)
	if err != nil {
		return nil, err
	}

	outDir := filepath.Join(dir, r.batch.OutputDir)
	csvDir := filepath.Join(outDir, "csv")
	if err := os.MkdirAll(csvDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	skip, err := LoadSkipList(filepath.Join(dir, r.batch.SkipFile))
	if err != nil {
		return nil, err
	}

	logger.Info("Starting batch", logging.Fields{
		"run_id":  report.RunID,
		"clips":   len(clips),
		"skipped": skip.Len(),
		"workers": r.batch.Workers,
	})

	results := make([]ClipResult, len(clips))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.batch.Workers))

	for i, clip := range clips {
		base := stem(filepath.Base(clip))
		recordPath := filepath.Join(csvDir, base+".csv")

		if skip.Contains(clip) || exists(recordPath) {
			results[i] = ClipResult{Clip: clip, Status: status.KindSkipped}
			continue
		}

		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			res, err := r.processClip(gctx, clip, recordPath, filepath.Join(outDir, base+".wav"))
			results[i] = res
			r.metrics.RecordClip(gctx, string(res.Status), res.Elapsed.Seconds())
			if err != nil && !status.IsClipLocal(err) {
				return fmt.Errorf("clip %q: %w", clip, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error(err, "Batch aborted")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var excluded []string
	for i, res := range results {
		if res.Status == "" {
			continue
		}
		report.Clips = append(report.Clips, results[i])
		report.Counts[res.Status]++
		if res.Status.Excludes() {
			excluded = append(excluded, res.Clip)
		}
	}

	report.SkipAdded, err = skip.Append(excluded...)
	if err != nil {
		return nil, err
	}
	report.Finished = time.Now()

	logger.Info("Batch finished", logging.Fields{
		"run_id":     report.RunID,
		"counts":     report.Counts,
		"skip_added": report.SkipAdded,
		"elapsed":    report.Finished.Sub(report.Started).String(),
	})

	return report, nil
}

func (r *Runner) processClip(ctx context.Context, clip, recordPath, segmentPath string) (ClipResult, error) {
	started := time.Now()
	res := ClipResult{Clip: clip}

	err := r.labelClip(ctx, clip, recordPath, segmentPath, &res)
	res.Status = status.Classify(err)
	res.Elapsed = time.Since(started)

	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "batch_runner",
		"function":  "processClip",
		"clip":      clip,
		"status":    string(res.Status),
	})

	if err != nil {
		res.Err = err.Error()
		if res.Status.Excludes() {
			logger.Debug("Clip produced no interval")
		} else {
			logger.Error(err, "Clip failed")
		}
		return res, err
	}

	res.Record = recordPath
	res.Segment = segmentPath
	r.metrics.RecordInterval(ctx, res.Interval.Length())
	logger.Debug("Clip labeled", logging.Fields{
		"start": res.Interval.Start,
		"end":   res.Interval.End,
	})
	return res, nil
}

func (r *Runner) labelClip(ctx context.Context, clip, recordPath, segmentPath string, res *ClipResult) error {
	w, err := r.source.Decode(ctx, clip)
	if err != nil {
		return err
	}

	located, err := r.locator.Locate(ctx, w)
	if err != nil {
		return err
	}
	res.Interval = located.Selection.Interval

	if err := ExportSegment(segmentPath, w, res.Interval); err != nil {
		return err
	}
	return WriteRecord(recordPath, NewRecord(res.Interval, r.export))
}

// listClips returns the files of dir with a configured extension, sorted.
func (r *Runner) listClips(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("input directory %q: %w: %w", dir, err, status.ErrConfiguration)
		}
		return nil, fmt.Errorf("read %q: %w", dir, err)
	}

	var clips []string
	for _, e := range entries {
		if e.IsDir() || !hasExtension(e.Name(), r.batch.Extensions) {
			continue
		}
		clips = append(clips, filepath.Join(dir, e.Name()))
	}
	slices.Sort(clips)
	return clips, nil
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
