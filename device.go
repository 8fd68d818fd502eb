package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/winslowb/live-assistant/audio"
)

// selectSource picks a PulseAudio capture source interactively. Monitor
// sources capture what the machine plays, which is what meeting capture
// usually wants.
func selectSource() (audio.Source, error) {
	sources, err := audio.ListSources()
	if err != nil {
		return audio.Source{}, fmt.Errorf("enumerating sources: %w", err)
	}
	if len(sources) == 0 {
		return audio.Source{}, fmt.Errorf("no capture sources found")
	}
	if len(sources) == 1 {
		fmt.Printf("Using source: %s\n", sources[0].Name)
		return sources[0], nil
	}

	// Raw mode for arrow key input
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return audio.Source{}, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	renderList := func() {
		fmt.Print("\r\x1b[J")
		fmt.Print("Select capture source (↑/↓, Enter to confirm):\r\n\r\n")
		for i, s := range sources {
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s\x1b[0m\r\n", s.Name)
			} else {
				fmt.Printf("    %s\r\n", s.Name)
			}
		}
		fmt.Printf("\x1b[%dA", len(sources)+2)
	}

	renderList()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return audio.Source{}, fmt.Errorf("reading input: %w", err)
		}

		if n == 1 {
			switch buf[0] {
			case 13: // Enter
				fmt.Print("\r\x1b[J")
				term.Restore(fd, oldState)
				return sources[cursor], nil
			case 3: // Ctrl+C
				fmt.Printf("\r\n")
				term.Restore(fd, oldState)
				os.Exit(0)
			case 'j':
				if cursor < len(sources)-1 {
					cursor++
				}
			case 'k':
				if cursor > 0 {
					cursor--
				}
			}
		} else if n == 3 && buf[0] == 0x1b && buf[1] == '[' {
			switch buf[2] {
			case 'A': // Up arrow
				if cursor > 0 {
					cursor--
				}
			case 'B': // Down arrow
				if cursor < len(sources)-1 {
					cursor++
				}
			}
		}
		renderList()
	}
}
