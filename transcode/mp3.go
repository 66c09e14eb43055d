package transcode

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/RyanBlaney/sonido-impact/logging"
	"github.com/RyanBlaney/sonido-impact/status"
	"github.com/hajimehoshi/go-mp3"
)

// MP3Source decodes MP3 files in-process. go-mp3 always yields 16-bit
// little-endian stereo, so mono sources come back with two equal channels.
type MP3Source struct{}

func (MP3Source) Decode(ctx context.Context, path string) (*Waveform, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := logging.WithFields(logging.Fields{
		"component": "mp3_source",
		"function":  "Decode",
		"filename":  path,
	})

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w: %w", path, err, status.ErrDecode)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("mp3 header of %q: %w: %w", path, err, status.ErrDecode)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3 frames of %q: %w: %w", path, err, status.ErrDecode)
	}

	samples := int16LEToFloat64(raw)
	w := &Waveform{
		Channels:   deinterleave(samples, 2),
		SampleRate: dec.SampleRate(),
		Source:     path,
	}

	logger.Debug("MP3 decoded", logging.Fields{
		"sample_rate": w.SampleRate,
		"samples":     w.Len(),
	})

	return w, nil
}

func int16LEToFloat64(data []byte) []float64 {
	n := len(data) / 2
	out := make([]float64, n)
	for i := range n {
		v := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		out[i] = float64(v) / 32768.0
	}
	return out
}
