package main

import (
	"strings"
	"unicode/utf8"
)

// wrapText word-wraps text at width. Long unbreakable words are split hard
// so no output line ever exceeds width.
func wrapText(text string, width int) []string {
	if width <= 0 {
		width = 1
	}
	if text == "" {
		return []string{""}
	}

	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		for len(word) > width {
			if cur.Len() > 0 {
				lines = append(lines, cur.String())
				cur.Reset()
			}
			lines = append(lines, word[:width])
			word = word[width:]
		}
		switch {
		case cur.Len() == 0:
			cur.WriteString(word)
		case cur.Len()+1+len(word) <= width:
			cur.WriteByte(' ')
			cur.WriteString(word)
		default:
			lines = append(lines, cur.String())
			cur.Reset()
			cur.WriteString(word)
		}
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// wrapPrefixed wraps text under a leading prefix, indenting continuation
// lines to the prefix width.
func wrapPrefixed(text, prefix string, width int) []string {
	// rune width, not byte length: the bullet is multibyte
	prefixW := utf8.RuneCountInString(prefix)
	body := wrapText(text, max(1, width-prefixW))
	out := make([]string, 0, len(body))
	indent := strings.Repeat(" ", prefixW)
	for i, seg := range body {
		if i == 0 {
			out = append(out, prefix+seg)
		} else {
			out = append(out, indent+seg)
		}
	}
	return out
}

// bulletLine is one wrapped row of the transcript pane.
type bulletLine struct {
	text     string
	question bool
}

// wrapBulleted renders utterances as bulleted blocks with a blank spacer
// between blocks, flagging question-like utterances for styling.
func wrapBulleted(utterances []string, width int, bullet string) []bulletLine {
	var out []bulletLine
	for _, raw := range utterances {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			out = append(out, bulletLine{})
			continue
		}
		q := looksLikeQuestion(raw)
		for _, seg := range wrapPrefixed(raw, bullet, width) {
			out = append(out, bulletLine{text: seg, question: q})
		}
		out = append(out, bulletLine{})
	}
	return out
}

var questionPhrases = []string{
	"what are", "what is", "what do", "what did", "what can", "what should", "what would",
	"how do", "how did", "how can", "how should", "how would", "how are", "how is",
	"why is", "why are", "why do", "why did",
	"when is", "when are", "when will",
	"where is", "where are",
	"who is", "who are", "who will",
	"can we", "can you", "can i",
	"could we", "could you",
	"should we", "should you",
	"would we", "would you",
	"did we", "did you", "do we", "do you",
	"have we", "have you", "has anyone",
	"is that", "is there", "are we", "are there",
	"will we", "will you", "will it",
}

var questionPrefixes = []string{
	"who", "what", "when", "where", "why", "how",
	"do", "does", "did", "is", "are", "can", "could",
	"should", "would", "have", "has", "will",
}

func looksLikeQuestion(raw string) bool {
	text := strings.TrimSpace(raw)
	if text == "" {
		return false
	}
	if strings.Contains(text, "?") {
		return true
	}
	low := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	for _, p := range questionPrefixes {
		if strings.HasPrefix(low, p+" ") {
			return true
		}
	}
	padded := " " + low + " "
	for _, phrase := range questionPhrases {
		if strings.Contains(padded, " "+phrase+" ") {
			return true
		}
	}
	return false
}
