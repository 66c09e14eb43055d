package detector

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-impact/algorithms/spectral"
	"github.com/RyanBlaney/sonido-impact/status"
)

func tensor(frames int) *spectral.FeatureTensor {
	data := make([][]float64, frames)
	for i := range data {
		data[i] = []float64{0, 1}
	}
	return &spectral.FeatureTensor{
		Data:       [][][]float64{data},
		Channels:   1,
		Frames:     frames,
		MelBins:    2,
		HopSize:    183,
		FrameSize:  367,
		SampleRate: 44100,
	}
}

func TestFunc(t *testing.T) {
	var d Detector = Func(func(ctx context.Context, f *spectral.FeatureTensor) ([]float64, error) {
		return make([]float64, f.Frames), nil
	})

	got, err := d.Infer(context.Background(), tensor(5))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Errorf("len = %d, want 5", len(got))
	}
}

func TestNewCommandConfiguration(t *testing.T) {
	tests := []struct {
		name string
		cfg  CommandConfig
	}{
		{"empty command", CommandConfig{}},
		{"missing binary", CommandConfig{Command: "definitely-not-a-detector-binary"}},
		{"missing weights", CommandConfig{Command: "sh", Weights: filepath.Join(os.TempDir(), "no-such-weights.pt")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cfg.Command == "sh" && runtime.GOOS == "windows" {
				t.Skip("needs a POSIX shell")
			}
			_, err := NewCommand(tt.cfg)
			if !errors.Is(err, status.ErrConfiguration) {
				t.Errorf("error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestCommandInfer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	weights := filepath.Join(t.TempDir(), "model.pt")
	if err := os.WriteFile(weights, []byte("weights"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		script  string
		frames  int
		want    []float64
		wantErr bool
	}{
		{
			name:   "valid activation",
			script: `cat >/dev/null; echo '{"activation":[0.1,0.9,0.2]}'`,
			frames: 3,
			want:   []float64{0.1, 0.9, 0.2},
		},
		{
			name:    "malformed output",
			script:  `cat >/dev/null; echo 'activation: 0.5'`,
			frames:  1,
			wantErr: true,
		},
		{
			name:    "reported error",
			script:  `cat >/dev/null; echo '{"error":"cuda unavailable"}'`,
			frames:  1,
			wantErr: true,
		},
		{
			name:    "non-zero exit",
			script:  `cat >/dev/null; exit 3`,
			frames:  1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// sh -c <script> --weights <file>: the extra words land in $0 and $1
			cmd, err := NewCommand(CommandConfig{
				Command: "sh",
				Args:    []string{"-c", tt.script},
				Weights: weights,
				Timeout: 10 * time.Second,
			})
			if err != nil {
				t.Fatal(err)
			}

			got, err := cmd.Infer(context.Background(), tensor(tt.frames))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Infer error = %v, wantErr %v", err, tt.wantErr)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("activation = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestCheckActivation(t *testing.T) {
	tests := []struct {
		name       string
		activation []float64
		frames     int
		wantRange  bool
		wantErr    bool
	}{
		{name: "valid", activation: []float64{0, 0.5, 1}, frames: 3},
		{name: "frame count mismatch", activation: []float64{0.1}, frames: 3, wantErr: true},
		{name: "above one", activation: []float64{1.5}, frames: 1, wantErr: true, wantRange: true},
		{name: "negative", activation: []float64{0.2, -0.1}, frames: 2, wantErr: true, wantRange: true},
		{name: "nan", activation: []float64{math.NaN()}, frames: 1, wantErr: true, wantRange: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckActivation(tt.activation, tt.frames)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckActivation error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := errors.Is(err, errActivationRange); got != tt.wantRange {
				t.Errorf("range error = %v, want %v", got, tt.wantRange)
			}
		})
	}
}
