package transcode

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/sonido-impact/status"
)

// Source decodes a file into a planar waveform at its native sample rate.
type Source interface {
	Decode(ctx context.Context, path string) (*Waveform, error)
}

// AutoSource picks a decoder by file extension: WAV and MP3 are read
// in-process, everything else (video containers included) goes to ffmpeg.
type AutoSource struct {
	WAV    Source
	MP3    Source
	FFmpeg Source
}

// NewAutoSource wires the in-process decoders and an ffmpeg fallback built
// from cfg. A nil cfg uses DefaultDecoderConfig.
func NewAutoSource(cfg *DecoderConfig) *AutoSource {
	return &AutoSource{
		WAV:    WAVSource{},
		MP3:    MP3Source{},
		FFmpeg: NewDecoder(cfg),
	}
}

func (a *AutoSource) Decode(ctx context.Context, path string) (*Waveform, error) {
	return a.sourceFor(path).Decode(ctx, path)
}

// Preflight checks that the ffmpeg fallback can run when any of paths would
// be routed to it. Paths may be bare extensions such as ".mp4".
func (a *AutoSource) Preflight(ctx context.Context, paths ...string) error {
	checker, ok := a.FFmpeg.(interface {
		CheckAvailability(ctx context.Context) error
	})
	if !ok {
		return nil
	}
	for _, p := range paths {
		if a.inProcess(p) != nil {
			continue
		}
		if err := checker.CheckAvailability(ctx); err != nil {
			return fmt.Errorf("%q needs ffmpeg: %w: %w", p, err, status.ErrConfiguration)
		}
		return nil
	}
	return nil
}

func (a *AutoSource) sourceFor(path string) Source {
	if src := a.inProcess(path); src != nil {
		return src
	}
	return a.FFmpeg
}

// inProcess returns the in-process decoder for path, or nil.
func (a *AutoSource) inProcess(path string) Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return a.WAV
	case ".mp3":
		return a.MP3
	}
	return nil
}
