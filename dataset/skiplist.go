package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

// SkipList is the persisted set of clips that produced no interval. It is a
// one-column CSV; entries are only ever appended.
type SkipList struct {
	path    string
	mu      sync.Mutex
	entries map[string]struct{}
}

// LoadSkipList reads path, creating an empty file when it does not exist.
func LoadSkipList(path string) (*SkipList, error) {
	s := &SkipList{path: path, entries: make(map[string]struct{})}

	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open skip list %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read skip list %q: %w", path, err)
		}
		if len(row) > 0 && row[0] != "" {
			s.entries[row[0]] = struct{}{}
		}
	}
	return s, nil
}

func (s *SkipList) Contains(clip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[clip]
	return ok
}

func (s *SkipList) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Append records clips not yet listed, in order, and returns how many were
// new.
func (s *SkipList) Append(clips ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh [][]string
	for _, c := range clips {
		if _, ok := s.entries[c]; ok {
			continue
		}
		s.entries[c] = struct{}{}
		fresh = append(fresh, []string{c})
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, fs.FileMode(0o644))
	if err != nil {
		return 0, fmt.Errorf("open skip list %q: %w", s.path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(fresh); err != nil {
		f.Close()
		return 0, fmt.Errorf("append to skip list %q: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	return len(fresh), nil
}
