package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/sonido-impact/config"
	"github.com/RyanBlaney/sonido-impact/impact"
)

func TestWriteRecordLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.csv")
	r := NewRecord(impact.Interval{Start: 0.12, End: 0.3}, config.Default().Export)

	if err := WriteRecord(path, r); err != nil {
		t.Fatalf("WriteRecord error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "sound_event_recording,start_time,end_time,ele,azi,dist\ngolf_impact,0.12,0.3,0,0,1\n"
	if string(raw) != want {
		t.Errorf("record file =\n%q\nwant\n%q", raw, want)
	}

	got, err := ReadRecord(path)
	if err != nil {
		t.Fatalf("ReadRecord error = %v", err)
	}
	if got != r {
		t.Errorf("ReadRecord = %+v, want %+v", got, r)
	}
}

func TestReadRecordRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"header only", "sound_event_recording,start_time,end_time,ele,azi,dist\n"},
		{"short row", "sound_event_recording,start_time,end_time,ele,azi,dist\ngolf_impact,0.1,0.2\n"},
		{"bad number", "sound_event_recording,start_time,end_time,ele,azi,dist\ngolf_impact,zero,0.2,0,0,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.csv")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := ReadRecord(path); err == nil {
				t.Error("ReadRecord should fail")
			}
		})
	}
}
