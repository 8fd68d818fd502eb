//go:build linux

package audio

import (
	"fmt"

	"github.com/jfreymuth/pulse"
)

// ListSources enumerates PulseAudio capture sources. Monitor sources (the
// "*.monitor" duplicates of sinks) are what you pick to capture meeting
// system audio; they are listed like any other source.
func ListSources() ([]Source, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	defer c.Close()

	sources, err := c.ListSources()
	if err != nil {
		return nil, fmt.Errorf("pulse list sources: %w", err)
	}
	var out []Source
	for _, s := range sources {
		out = append(out, Source{ID: s.ID(), Name: s.Name()})
	}
	return out, nil
}
