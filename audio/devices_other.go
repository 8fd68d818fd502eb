//go:build !linux

package audio

// ListSources is a stub on platforms without PulseAudio; pass -source
// explicitly and let ffmpeg resolve it.
func ListSources() ([]Source, error) {
	return nil, nil
}
