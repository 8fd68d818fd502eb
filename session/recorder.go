package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/winslowb/live-assistant/encoder"
)

// Recorder owns the on-disk session directory: the audio file the capture
// pipeline tees into and the notes report written at shutdown.
type Recorder struct {
	Dir   string
	Sink  encoder.Sink
	start time.Time
}

// New creates root/session_YYYYMMDD_HHMMSS and opens the audio sink inside
// it. format is "wav" or "flac".
func New(root, format string) (*Recorder, error) {
	dir := filepath.Join(root, time.Now().Format("session_20060102_150405"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}
	sink, err := encoder.Open(format, filepath.Join(dir, "audio."+format))
	if err != nil {
		return nil, err
	}
	return &Recorder{Dir: dir, Sink: sink, start: time.Now()}, nil
}

// Elapsed is the time since the recorder was created.
func (r *Recorder) Elapsed() time.Duration {
	return time.Since(r.start)
}

// ElapsedAt converts an absolute event time into seconds since session
// start, clamped at zero.
func (r *Recorder) ElapsedAt(t time.Time) float64 {
	d := t.Sub(r.start).Seconds()
	if d < 0 {
		return 0
	}
	return d
}

// MarkerLabel names a marker placed now.
func (r *Recorder) MarkerLabel() string {
	return fmt.Sprintf("marker at %0.1fs", r.Elapsed().Seconds())
}

// Close finalizes the audio file.
func (r *Recorder) Close() error {
	return r.Sink.Close()
}
