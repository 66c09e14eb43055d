package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/RyanBlaney/sonido-impact/status"
)

func writeSized(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCurate(t *testing.T) {
	src := t.TempDir()
	ref := t.TempDir()

	writeSized(t, filepath.Join(src, "a.wav"), 200*1024)
	writeSized(t, filepath.Join(src, "small.wav"), 1024)
	writeSized(t, filepath.Join(src, "b.txt"), 10)
	writeSized(t, filepath.Join(src, "c.wav"), 200*1024)
	for _, name := range []string{"a.json", "small.json", "b.json"} {
		writeSized(t, filepath.Join(ref, name), 1)
	}

	tests := []struct {
		mode        CurateMode
		wantCopied  []string
		wantSkipped []string
	}{
		{Whitelist, []string{"a.wav", "b.txt"}, []string{"c.wav", "small.wav"}},
		{Blacklist, []string{"c.wav"}, []string{"a.wav", "b.txt", "small.wav"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			target := filepath.Join(t.TempDir(), "out")
			res, err := Curate(CurateOptions{
				Mode:        tt.mode,
				Source:      src,
				Target:      target,
				Reference:   ref,
				MinWAVBytes: DefaultMinWAVBytes,
			})
			if err != nil {
				t.Fatalf("Curate error = %v", err)
			}
			if !slices.Equal(res.Copied, tt.wantCopied) {
				t.Errorf("copied = %v, want %v", res.Copied, tt.wantCopied)
			}
			if !slices.Equal(res.Skipped, tt.wantSkipped) {
				t.Errorf("skipped = %v, want %v", res.Skipped, tt.wantSkipped)
			}
			for _, name := range tt.wantCopied {
				if _, err := os.Stat(filepath.Join(target, name)); err != nil {
					t.Errorf("%s not copied: %v", name, err)
				}
			}
		})
	}
}

func TestCurateRejectsUnknownMode(t *testing.T) {
	_, err := Curate(CurateOptions{Mode: "greylist", Source: t.TempDir(), Target: t.TempDir(), Reference: t.TempDir()})
	if !errors.Is(err, status.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}
