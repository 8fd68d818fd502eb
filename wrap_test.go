package main

import (
	"strings"
	"testing"
)

func TestWrapTextWidth(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog near the riverbank"
	for _, width := range []int{5, 10, 17, 80} {
		for _, line := range wrapText(text, width) {
			if len(line) > width {
				t.Errorf("width %d: line %q is %d chars", width, line, len(line))
			}
		}
	}
}

func TestWrapTextRoundTrip(t *testing.T) {
	text := "pipeline ordering must survive resizing without losing any words at all"
	for _, width := range []int{7, 12, 30} {
		joined := strings.Join(wrapText(text, width), " ")
		if joined != text {
			t.Errorf("width %d: round-trip %q != %q", width, joined, text)
		}
	}
}

func TestWrapTextLongWord(t *testing.T) {
	lines := wrapText("supercalifragilistic", 6)
	for _, line := range lines {
		if len(line) > 6 {
			t.Errorf("line %q exceeds width", line)
		}
	}
	if strings.Join(lines, "") != "supercalifragilistic" {
		t.Errorf("hard split lost text: %v", lines)
	}
}

func TestWrapPrefixedIndentsContinuations(t *testing.T) {
	lines := wrapPrefixed("alpha beta gamma delta epsilon", "• ", 12)
	if !strings.HasPrefix(lines[0], "• ") {
		t.Errorf("first line %q missing bullet", lines[0])
	}
	for _, line := range lines[1:] {
		if !strings.HasPrefix(line, "  ") {
			t.Errorf("continuation %q not indented", line)
		}
		if strings.HasPrefix(line, "   ") {
			t.Errorf("continuation %q over-indented for a 2-column bullet", line)
		}
	}
}

func TestWrapPrefixedRuneWidth(t *testing.T) {
	// "• " is 3 bytes but 2 columns; indent and wrap budget use columns.
	lines := wrapPrefixed("one two three four five six", "• ", 10)
	for i, line := range lines {
		cols := len([]rune(line))
		if cols > 10 {
			t.Errorf("line %d %q is %d columns", i, line, cols)
		}
	}
	joined := strings.TrimPrefix(strings.Join(lines, " "), "• ")
	if strings.Join(strings.Fields(joined), " ") != "one two three four five six" {
		t.Errorf("round-trip lost text: %v", lines)
	}
}

func TestWrapBulletedRoundTrip(t *testing.T) {
	utterances := []string{
		"we agreed to ship the rollout next week",
		"can you send the deck to everyone",
	}
	lines := wrapBulleted(utterances, 18, "• ")
	var rebuilt []string
	var cur []string
	for _, bl := range lines {
		if bl.text == "" {
			if len(cur) > 0 {
				rebuilt = append(rebuilt, strings.Join(cur, " "))
				cur = nil
			}
			continue
		}
		seg := strings.TrimSpace(strings.TrimPrefix(bl.text, "• "))
		cur = append(cur, seg)
	}
	if len(rebuilt) != len(utterances) {
		t.Fatalf("rebuilt %d utterances, want %d", len(rebuilt), len(utterances))
	}
	for i := range utterances {
		if rebuilt[i] != utterances[i] {
			t.Errorf("utterance %d: %q != %q", i, rebuilt[i], utterances[i])
		}
	}
}

func TestLooksLikeQuestion(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"what are we shipping", true},
		{"Is that the final number?", true},
		{"did we close the deal", true},
		{"tell me about how can we scale this", true},
		{"the report is done", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := looksLikeQuestion(tc.in); got != tc.want {
			t.Errorf("looksLikeQuestion(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
