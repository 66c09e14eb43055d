// Package dataset turns located clips into a labeled sound-event dataset:
// one CSV record and one trimmed WAV per clip, a skip list of clips that
// produced nothing, and directory curation helpers.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/RyanBlaney/sonido-impact/config"
	"github.com/RyanBlaney/sonido-impact/impact"
)

// Header is the first row of every record file.
var Header = []string{"sound_event_recording", "start_time", "end_time", "ele", "azi", "dist"}

// Record is the single labeled event of a clip.
type Record struct {
	Label     string
	Start     float64
	End       float64
	Elevation float64
	Azimuth   float64
	Distance  float64
}

// NewRecord labels iv with the deployment's fixed label and geometry.
func NewRecord(iv impact.Interval, export config.ExportConfig) Record {
	return Record{
		Label:     export.Label,
		Start:     iv.Start,
		End:       iv.End,
		Elevation: export.Elevation,
		Azimuth:   export.Azimuth,
		Distance:  export.Distance,
	}
}

func (r Record) row() []string {
	return []string{
		r.Label,
		formatFloat(r.Start),
		formatFloat(r.End),
		formatFloat(r.Elevation),
		formatFloat(r.Azimuth),
		formatFloat(r.Distance),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteRecord writes the header and r to path, replacing any existing file.
func WriteRecord(path string, r Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create record %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll([][]string{Header, r.row()}); err != nil {
		f.Close()
		return fmt.Errorf("write record %q: %w", path, err)
	}
	return f.Close()
}

// ReadRecord parses a file written by WriteRecord.
func ReadRecord(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("open record %q: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return Record{}, fmt.Errorf("parse record %q: %w", path, err)
	}
	if len(rows) != 2 || len(rows[1]) != len(Header) {
		return Record{}, fmt.Errorf("record %q: want a header and one %d-column row", path, len(Header))
	}

	row := rows[1]
	values := make([]float64, 5)
	var errs []error
	for i := range values {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("column %s: %w", Header[i+1], err))
		}
		values[i] = v
	}
	if len(errs) > 0 {
		return Record{}, fmt.Errorf("record %q: %w", path, errors.Join(errs...))
	}

	return Record{
		Label:     row[0],
		Start:     values[0],
		End:       values[1],
		Elevation: values[2],
		Azimuth:   values[3],
		Distance:  values[4],
	}, nil
}
