package transcode

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/RyanBlaney/sonido-impact/logging"
	"github.com/RyanBlaney/sonido-impact/status"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSource reads PCM WAV files with go-audio.
type WAVSource struct{}

func (WAVSource) Decode(ctx context.Context, path string) (*Waveform, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := logging.WithFields(logging.Fields{
		"component": "wav_source",
		"function":  "Decode",
		"filename":  path,
	})

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w: %w", path, err, status.ErrDecode)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%q is not a valid WAV file: %w", path, status.ErrDecode)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read PCM from %q: %w: %w", path, err, status.ErrDecode)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%q has no usable format header: %w", path, status.ErrDecode)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(dec.BitDepth)
	}
	scale := fullScale(bitDepth)

	interleaved := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		interleaved[i] = float64(v) / scale
	}

	w := &Waveform{
		Channels:   deinterleave(interleaved, buf.Format.NumChannels),
		SampleRate: buf.Format.SampleRate,
		Source:     path,
	}

	logger.Debug("WAV decoded", logging.Fields{
		"sample_rate": w.SampleRate,
		"channels":    w.NumChannels(),
		"bit_depth":   bitDepth,
		"samples":     w.Len(),
	})

	return w, nil
}

// WriteWAV stores w as 16-bit PCM at its own sample rate.
func WriteWAV(path string, w *Waveform) error {
	if w.NumChannels() == 0 || w.SampleRate <= 0 {
		return fmt.Errorf("write %q: empty waveform or sample rate %d", path, w.SampleRate)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	defer out.Close()

	const bitDepth = 16
	channels := w.NumChannels()
	n := w.Len()
	scale := fullScale(bitDepth)

	data := make([]int, n*channels)
	for i := range n {
		for c := range channels {
			data[i*channels+c] = quantize(w.Channels[c][i], scale)
		}
	}

	enc := wav.NewEncoder(out, w.SampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  w.SampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode %q: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize %q: %w", path, err)
	}
	return nil
}

func fullScale(bitDepth int) float64 {
	if bitDepth <= 1 {
		bitDepth = 16
	}
	return math.Pow(2, float64(bitDepth-1))
}

func quantize(v, scale float64) int {
	q := math.Round(v * scale)
	return int(max(-scale, min(scale-1, q)))
}
