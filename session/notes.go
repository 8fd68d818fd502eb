package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// QA is a settled question/answer pair from interview or chat mode.
type QA struct {
	Question string
	Answer   string
}

// TimedEntry is a marker or note with its offset into the session.
type TimedEntry struct {
	At   float64 // seconds since session start
	Text string
}

// Report collects everything the closing notes file needs.
type Report struct {
	SourceLabel  string
	EngineLabel  string
	LLMModel     string
	PromptLabel  string
	ContextFiles []string

	Executive string
	Analysis  string

	QAs   []QA
	Chats []QA

	HaveLists bool
	Actions   []string
	Questions []string
	Decisions []string
	Topics    []string

	Markers    []TimedEntry
	Notes      []TimedEntry
	Transcript []string
}

// WriteNotes renders the markdown session report into the recorder's
// directory and returns its path.
func (r *Recorder) WriteNotes(rep Report) (string, error) {
	now := time.Now()
	path := filepath.Join(r.Dir, now.Format("notes_20060102_150405.md"))

	var b strings.Builder
	fmt.Fprintf(&b, "# Session Notes - %s\n\n", now.Format("2006-01-02 15:04"))

	b.WriteString("## Metadata\n")
	fmt.Fprintf(&b, "- Source: `%s`\n", rep.SourceLabel)
	fmt.Fprintf(&b, "- Engine: `%s`\n", rep.EngineLabel)
	if rep.LLMModel != "" {
		fmt.Fprintf(&b, "- LLM: `%s`\n", rep.LLMModel)
	}
	if rep.PromptLabel != "" {
		fmt.Fprintf(&b, "- Prompt: `%s`\n", rep.PromptLabel)
	}
	if len(rep.ContextFiles) > 0 {
		b.WriteString("- Context Files:\n")
		for _, nm := range rep.ContextFiles {
			fmt.Fprintf(&b, "  - %s\n", nm)
		}
	}
	fmt.Fprintf(&b, "- Duration: `%s`\n", formatDuration(r.Elapsed()))
	fmt.Fprintf(&b, "- Generated: `%s`\n\n", now.Format("2006-01-02T15:04:05"))

	if rep.Executive != "" {
		b.WriteString("## Executive Summary\n")
		b.WriteString(strings.TrimSpace(rep.Executive) + "\n\n")
	}
	if rep.Analysis != "" {
		b.WriteString("## Live Analysis (final snapshot)\n")
		b.WriteString(rep.Analysis)
		b.WriteString("\n\n")
	}
	if len(rep.QAs) > 0 {
		b.WriteString("## Interview Q&A\n")
		for i, qa := range rep.QAs {
			fmt.Fprintf(&b, "\n**Q%d.** %s\n\n%s\n", i+1, qa.Question, qa.Answer)
		}
		b.WriteString("\n")
	}
	if len(rep.Chats) > 0 {
		b.WriteString("## Live Chatbot Exchanges\n")
		for i, qa := range rep.Chats {
			fmt.Fprintf(&b, "\n**You %d.** %s\n\n**Assistant.** %s\n", i+1, qa.Question, qa.Answer)
		}
		b.WriteString("\n")
	}

	if rep.HaveLists {
		writeList(&b, "## Action Items", rep.Actions)
		writeList(&b, "\n## Questions", rep.Questions)
		writeList(&b, "\n## Decisions", rep.Decisions)
		writeList(&b, "\n## Key Topics", rep.Topics)
		b.WriteString("\n")
	} else {
		b.WriteString("## Summary\n- Conversation captured.\n\n")
		b.WriteString("## Key Topics\n—\n\n")
		b.WriteString("## Action Items\n- None captured.\n\n")
		b.WriteString("## Questions\n- None captured.\n\n")
		b.WriteString("## Decisions\n- None captured.\n\n")
	}

	if len(rep.Markers) > 0 {
		b.WriteString("## Markers\n")
		for _, m := range rep.Markers {
			fmt.Fprintf(&b, "- %0.1fs: %s\n", m.At, m.Text)
		}
		b.WriteString("\n")
	}
	if len(rep.Notes) > 0 {
		b.WriteString("## Notes\n")
		for _, n := range rep.Notes {
			fmt.Fprintf(&b, "- %0.1fs: %s\n", n.At, n.Text)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Full Transcript\n\n")
	for _, line := range rep.Transcript {
		b.WriteString(line + "\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("writing notes: %w", err)
	}
	return path, nil
}

func writeList(b *strings.Builder, header string, items []string) {
	b.WriteString(header + "\n")
	if len(items) == 0 {
		b.WriteString("- None captured.\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
