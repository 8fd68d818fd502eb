package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewCreatesSessionDir(t *testing.T) {
	root := t.TempDir()
	r, err := New(root, "wav")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	base := filepath.Base(r.Dir)
	if !strings.HasPrefix(base, "session_") {
		t.Errorf("session dir = %q", base)
	}
	if _, err := os.Stat(filepath.Join(r.Dir, "audio.wav")); err != nil {
		t.Errorf("audio.wav not created: %v", err)
	}
}

func TestNewFlacSink(t *testing.T) {
	r, err := New(t.TempDir(), "flac")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if filepath.Ext(r.Sink.Path()) != ".flac" {
		t.Errorf("sink path = %q", r.Sink.Path())
	}
}

func TestWriteNotesFull(t *testing.T) {
	r, err := New(t.TempDir(), "wav")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	path, err := r.WriteNotes(Report{
		SourceLabel:  "alsa_output.monitor",
		EngineLabel:  "vosk:ws://localhost:2700",
		LLMModel:     "gpt-4o-mini",
		PromptLabel:  "builtin.analyzer",
		ContextFiles: []string{"roadmap.md"},
		Executive:    "**OVERVIEW**\n- Planning sync.",
		Analysis:     "Action Items:\n- ship it",
		QAs:          []QA{{Question: "Why Go?", Answer: "Concurrency."}},
		Chats:        []QA{{Question: "status?", Answer: "on track"}},
		HaveLists:    true,
		Actions:      []string{"ship it"},
		Questions:    nil,
		Decisions:    []string{"go live Friday"},
		Topics:       []string{"rollout"},
		Markers:      []TimedEntry{{At: 3.2, Text: "marker at 3.2s"}},
		Notes:        []TimedEntry{{At: 7.5, Text: "check budget"}},
		Transcript:   []string{"hello team", "let us begin"},
	})
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)

	for _, want := range []string{
		"# Session Notes - ",
		"## Metadata",
		"- Source: `alsa_output.monitor`",
		"- Engine: `vosk:ws://localhost:2700`",
		"- LLM: `gpt-4o-mini`",
		"- Context Files:\n  - roadmap.md",
		"## Executive Summary",
		"## Live Analysis (final snapshot)",
		"**Q1.** Why Go?",
		"**You 1.** status?",
		"**Assistant.** on track",
		"## Action Items\n- ship it",
		"## Questions\n- None captured.",
		"## Decisions\n- go live Friday",
		"## Key Topics\n- rollout",
		"## Markers\n- 3.2s: marker at 3.2s",
		"## Notes\n- 7.5s: check budget",
		"## Full Transcript\n\nhello team\nlet us begin\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("notes missing %q", want)
		}
	}
}

func TestWriteNotesNoLists(t *testing.T) {
	r, err := New(t.TempDir(), "wav")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	path, err := r.WriteNotes(Report{
		SourceLabel: "mic",
		EngineLabel: "none",
		Transcript:  []string{"short session"},
	})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	got := string(data)
	if !strings.Contains(got, "## Summary\n- Conversation captured.") {
		t.Error("placeholder summary missing")
	}
	if !strings.Contains(got, "## Action Items\n- None captured.") {
		t.Error("placeholder action items missing")
	}
	if strings.Contains(got, "## Executive Summary") {
		t.Error("empty executive summary rendered")
	}
}

func TestMarkerLabel(t *testing.T) {
	r, err := New(t.TempDir(), "wav")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if !strings.HasPrefix(r.MarkerLabel(), "marker at ") {
		t.Errorf("label = %q", r.MarkerLabel())
	}
}
