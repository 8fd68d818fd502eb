package encoder

import (
	"fmt"
	"io"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Sink persists raw little-endian s16 mono PCM to disk in some container.
// Write never buffers unbounded state; Close finalizes the container.
type Sink interface {
	io.WriteCloser
	// Path is the file the sink writes to.
	Path() string
	// Samples is the number of PCM samples written so far.
	Samples() uint64
}

// Open creates a sink for the given format, "wav" or "flac".
func Open(format, path string) (Sink, error) {
	switch format {
	case "wav":
		return NewWav(path)
	case "flac":
		return NewFlac(path)
	default:
		return nil, fmt.Errorf("unknown audio format %q", format)
	}
}
