// Package status defines the error kinds produced while locating impacts and
// maps arbitrary errors to the per-clip status recorded in batch reports.
package status

import (
	"errors"
)

var (
	// ErrNoAudio is returned when the energy curve is empty or uniformly zero.
	ErrNoAudio = errors.New("no audio")

	// ErrNotDetected is returned when segmentation or selection produced no
	// interval. It is not fatal for a batch.
	ErrNotDetected = errors.New("not detected")

	// ErrDecode wraps failures of the waveform source.
	ErrDecode = errors.New("decode error")

	// ErrConfiguration marks inconsistent shapes or parameters. Never recovered locally.
	ErrConfiguration = errors.New("configuration error")
)

// Kind is the per-clip outcome written to reports and metrics.
type Kind string

const (
	KindSuccess       Kind = "success"
	KindNoAudio       Kind = "no_audio"
	KindNotDetected   Kind = "not_detected"
	KindDecodeError   Kind = "decode_error"
	KindConfiguration Kind = "configuration_error"
	KindSkipped       Kind = "skipped"
	KindError         Kind = "error"
)

// Classify maps err to its Kind. A nil error is a success.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindSuccess
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNoAudio):
		return KindNoAudio
	case errors.Is(err, ErrNotDetected):
		return KindNotDetected
	case errors.Is(err, ErrDecode):
		return KindDecodeError
	default:
		return KindError
	}
}

// IsClipLocal reports whether err only affects the clip that produced it.
// Configuration errors abort the whole operation.
func IsClipLocal(err error) bool {
	return err != nil && !errors.Is(err, ErrConfiguration)
}

// Excludes reports whether a clip with this outcome belongs on the skip list.
func (k Kind) Excludes() bool {
	return k == KindNoAudio || k == KindNotDetected
}
