// Package observe holds the OpenTelemetry instruments recorded by batch
// labeling runs. Tests build their own Metrics with NewMetrics and a private
// MeterProvider; everything else uses DefaultMetrics.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/RyanBlaney/sonido-impact"

// Metrics holds the instruments of one process. All fields are safe for
// concurrent use.
type Metrics struct {
	// Clips counts processed clips. Attribute: status (success, no_audio, ...).
	Clips metric.Int64Counter

	// ClipDuration tracks wall time spent on one clip, decode included.
	ClipDuration metric.Float64Histogram

	// IntervalLength tracks the length of selected impact intervals.
	IntervalLength metric.Float64Histogram
}

// processingBuckets are in seconds and cover short clips through slow ffmpeg
// decodes.
var processingBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// intervalBuckets are in seconds; impacts last tens of milliseconds, merged
// intervals rarely exceed a second.
var intervalBuckets = []float64{
	0.02, 0.05, 0.1, 0.15, 0.2, 0.3, 0.5, 1, 2,
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Clips, err = m.Int64Counter("impact.clips",
		metric.WithDescription("Clips processed by the labeler, by status."),
	); err != nil {
		return nil, err
	}
	if met.ClipDuration, err = m.Float64Histogram("impact.clip.duration",
		metric.WithDescription("Processing time per clip."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(processingBuckets...),
	); err != nil {
		return nil, err
	}
	if met.IntervalLength, err = m.Float64Histogram("impact.interval.length",
		metric.WithDescription("Length of the selected impact interval."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(intervalBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level Metrics built on the global
// MeterProvider. Without an installed SDK the instruments are no-ops.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordClip counts one clip and its processing time.
func (m *Metrics) RecordClip(ctx context.Context, status string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.Clips.Add(ctx, 1, attrs)
	m.ClipDuration.Record(ctx, seconds, attrs)
}

// RecordInterval records the length of a selected interval.
func (m *Metrics) RecordInterval(ctx context.Context, seconds float64) {
	m.IntervalLength.Record(ctx, seconds)
}
