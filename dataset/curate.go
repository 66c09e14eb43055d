package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/RyanBlaney/sonido-impact/logging"
	"github.com/RyanBlaney/sonido-impact/status"
)

// CurateMode decides whether reference names admit or exclude a file.
type CurateMode string

const (
	Whitelist CurateMode = "whitelist"
	Blacklist CurateMode = "blacklist"
)

// DefaultMinWAVBytes is the smallest WAV file kept by whitelist curation.
const DefaultMinWAVBytes = 150 * 1024

type CurateOptions struct {
	Mode      CurateMode
	Source    string
	Target    string
	Reference string
	// MinWAVBytes only applies in whitelist mode. Zero disables the check.
	MinWAVBytes int64
}

// CurateResult lists base file names, sorted.
type CurateResult struct {
	Copied  []string `json:"copied"`
	Skipped []string `json:"skipped"`
}

// Curate copies the regular files of opts.Source into opts.Target. A file is
// matched by its name without extension against the names in opts.Reference.
func Curate(opts CurateOptions) (*CurateResult, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "curate",
		"function":  "Curate",
		"mode":      string(opts.Mode),
	})

	if opts.Mode != Whitelist && opts.Mode != Blacklist {
		return nil, fmt.Errorf("curate mode %q: %w", opts.Mode, status.ErrConfiguration)
	}

	names, err := referenceNames(opts.Reference)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.Target, 0o755); err != nil {
		return nil, fmt.Errorf("create target %q: %w", opts.Target, err)
	}

	entries, err := os.ReadDir(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("read source %q: %w", opts.Source, err)
	}

	res := &CurateResult{}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()

		if opts.Mode == Whitelist && opts.MinWAVBytes > 0 && strings.EqualFold(filepath.Ext(name), ".wav") {
			info, err := e.Info()
			if err != nil {
				return nil, fmt.Errorf("stat %q: %w", name, err)
			}
			if info.Size() < opts.MinWAVBytes {
				res.Skipped = append(res.Skipped, name)
				logger.Debug("Skipped small WAV file", logging.Fields{"file": name, "bytes": info.Size()})
				continue
			}
		}

		_, listed := names[stem(name)]
		if listed != (opts.Mode == Whitelist) {
			res.Skipped = append(res.Skipped, name)
			continue
		}

		if err := copyFile(filepath.Join(opts.Source, name), filepath.Join(opts.Target, name)); err != nil {
			return nil, err
		}
		res.Copied = append(res.Copied, name)
	}

	slices.Sort(res.Copied)
	slices.Sort(res.Skipped)

	logger.Info("Curation finished", logging.Fields{
		"reference": len(names),
		"copied":    len(res.Copied),
		"skipped":   len(res.Skipped),
	})
	return res, nil
}

func referenceNames(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read reference %q: %w", dir, err)
	}
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names[stem(e.Name())] = struct{}{}
		}
	}
	return names, nil
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %q: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %q: %w", src, err)
	}
	return out.Close()
}
