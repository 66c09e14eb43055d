package dataset

import (
	"fmt"

	"github.com/RyanBlaney/sonido-impact/impact"
	"github.com/RyanBlaney/sonido-impact/transcode"
)

// ExportSegment writes samples [round(start*sr), round(end*sr)) of every
// channel of w to path as 16-bit PCM at the clip's own rate.
func ExportSegment(path string, w *transcode.Waveform, iv impact.Interval) error {
	segment := w.Slice(w.SampleIndex(iv.Start), w.SampleIndex(iv.End))
	if segment.Len() == 0 {
		return fmt.Errorf("interval %v selects no samples of %q", iv, w.Source)
	}
	return transcode.WriteWAV(path, segment)
}
