package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/RyanBlaney/sonido-impact/config"
	"github.com/RyanBlaney/sonido-impact/impact"
	"github.com/RyanBlaney/sonido-impact/observe"
	"github.com/RyanBlaney/sonido-impact/status"
	"github.com/RyanBlaney/sonido-impact/transcode"
)

const testRate = 8000

// stubSource returns one second of silence per clip, or an error for clips
// listed in failing.
type stubSource struct {
	failing map[string]error
}

func (s stubSource) Decode(ctx context.Context, path string) (*transcode.Waveform, error) {
	if err, ok := s.failing[filepath.Base(path)]; ok {
		return nil, err
	}
	return &transcode.Waveform{
		Channels:   [][]float64{make([]float64, testRate), make([]float64, testRate)},
		SampleRate: testRate,
		Source:     path,
	}, nil
}

// stubLocator answers per clip base name.
type stubLocator struct {
	outcomes map[string]error
	interval impact.Interval
}

func (l stubLocator) Locate(ctx context.Context, w *transcode.Waveform) (*impact.Result, error) {
	if err := l.outcomes[filepath.Base(w.Source)]; err != nil {
		return nil, err
	}
	res := &impact.Result{ClipDuration: w.Duration()}
	res.Selection.Interval = l.interval
	return res, nil
}

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	m, err := observe.NewMetrics(noop.NewMeterProvider())
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunnerRun(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.wav", "b.wav", "c.wav", "e.WAV", "f.wav", "notes.txt"} {
		touch(t, filepath.Join(dir, name))
	}
	// f already has a record from an earlier run
	touch(t, filepath.Join(dir, "loudest", "csv", "f.csv"))

	cfg := config.Default()
	cfg.Batch.Workers = 2

	source := stubSource{failing: map[string]error{
		"e.WAV": fmt.Errorf("ffmpeg exit 1: %w", status.ErrDecode),
	}}
	locator := stubLocator{
		outcomes: map[string]error{
			"b.wav": fmt.Errorf("select: %w", status.ErrNotDetected),
			"c.wav": fmt.Errorf("energy: %w", status.ErrNoAudio),
		},
		interval: impact.Interval{Start: 0.1, End: 0.2},
	}
	runner := NewRunner(source, locator, cfg.Batch, cfg.Export, testMetrics(t))

	report, err := runner.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}

	if report.RunID == "" {
		t.Error("report has no run id")
	}
	if len(report.Clips) != 5 {
		t.Fatalf("report has %d clips, want 5", len(report.Clips))
	}
	wantOrder := []string{"a.wav", "b.wav", "c.wav", "e.WAV", "f.wav"}
	for i, want := range wantOrder {
		if got := filepath.Base(report.Clips[i].Clip); got != want {
			t.Errorf("clip %d = %s, want %s", i, got, want)
		}
	}

	wantCounts := map[status.Kind]int{
		status.KindSuccess:     1,
		status.KindNotDetected: 1,
		status.KindNoAudio:     1,
		status.KindDecodeError: 1,
		status.KindSkipped:     1,
	}
	for k, want := range wantCounts {
		if got := report.Counts[k]; got != want {
			t.Errorf("Counts[%s] = %d, want %d", k, got, want)
		}
	}
	if report.SkipAdded != 2 {
		t.Errorf("SkipAdded = %d, want 2", report.SkipAdded)
	}

	rec, err := ReadRecord(filepath.Join(dir, "loudest", "csv", "a.csv"))
	if err != nil {
		t.Fatalf("ReadRecord error = %v", err)
	}
	if rec.Start != 0.1 || rec.End != 0.2 || rec.Label != "golf_impact" {
		t.Errorf("record = %+v", rec)
	}

	segment, err := transcode.WAVSource{}.Decode(context.Background(), filepath.Join(dir, "loudest", "a.wav"))
	if err != nil {
		t.Fatalf("decode segment: %v", err)
	}
	if segment.Len() != 800 || segment.NumChannels() != 2 {
		t.Errorf("segment is %d samples x %d channels, want 800 x 2", segment.Len(), segment.NumChannels())
	}

	skip, err := LoadSkipList(filepath.Join(dir, "skip.csv"))
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"b.wav", "c.wav"} {
		if !skip.Contains(filepath.Join(dir, name)) {
			t.Errorf("skip list is missing %s", name)
		}
	}
	if skip.Contains(filepath.Join(dir, "e.WAV")) {
		t.Error("decode failures must not be skip listed")
	}

	// A second run only retries the clip that failed to decode.
	again, err := runner.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("second Run error = %v", err)
	}
	if again.Counts[status.KindSkipped] != 4 || again.Counts[status.KindDecodeError] != 1 {
		t.Errorf("second run counts = %v", again.Counts)
	}
	if again.SkipAdded != 0 {
		t.Errorf("second run SkipAdded = %d, want 0", again.SkipAdded)
	}
}

func TestRunnerAbortsOnConfigurationError(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.wav"))

	cfg := config.Default()
	locator := stubLocator{outcomes: map[string]error{
		"a.wav": fmt.Errorf("frame size 100 must exceed hop size 200: %w", status.ErrConfiguration),
	}}
	runner := NewRunner(stubSource{}, locator, cfg.Batch, cfg.Export, testMetrics(t))

	_, err := runner.Run(context.Background(), dir)
	if !errors.Is(err, status.ErrConfiguration) {
		t.Errorf("Run error = %v, want ErrConfiguration", err)
	}
}

func TestRunnerMissingDirectory(t *testing.T) {
	cfg := config.Default()
	runner := NewRunner(stubSource{}, stubLocator{}, cfg.Batch, cfg.Export, testMetrics(t))

	_, err := runner.Run(context.Background(), filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, status.ErrConfiguration) {
		t.Errorf("Run error = %v, want ErrConfiguration", err)
	}
}
