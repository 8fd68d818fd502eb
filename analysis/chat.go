package analysis

import (
	"context"
	"strings"
)

// Exchange is one settled chat turn.
type Exchange struct {
	Question string
	Answer   string
}

// Chat answers a facilitator question grounded in the recent transcript,
// the mounted context, and the last settled exchanges.
func (c *Client) Chat(ctx context.Context, promptMD, question string, transcriptLines []string, history []Exchange, bundle string, labels []string) (string, error) {
	system := strings.TrimSpace(promptMD)
	if system == "" {
		system = "You are a real-time meeting copilot."
	}
	system += "\nUse the latest transcript excerpts and context sources to keep answers grounded."

	messages := []Message{{Role: "system", Content: system}}
	messages = appendContext(messages, bundle, labels, 12000)

	if len(transcriptLines) > 0 {
		lines := transcriptLines
		if len(lines) > 80 {
			lines = lines[len(lines)-80:]
		}
		snippet := tail(strings.Join(lines, "\n"), 6000)
		messages = append(messages, Message{Role: "system", Content: "RECENT TRANSCRIPT:\n" + snippet})
	}

	if len(history) > 6 {
		history = history[len(history)-6:]
	}
	for _, ex := range history {
		if ex.Question != "" {
			messages = append(messages, Message{Role: "user", Content: ex.Question})
		}
		if ex.Answer != "" {
			messages = append(messages, Message{Role: "assistant", Content: ex.Answer})
		}
	}

	messages = append(messages, Message{Role: "user", Content: question})
	return c.Complete(ctx, messages, 500)
}

// ExecutiveSummary runs the full-transcript closing pass. The reply is
// post-processed so a CONTEXT ALIGNMENT section with at least one bullet is
// always present.
func (c *Client) ExecutiveSummary(ctx context.Context, fullText, bundle string, labels []string) (string, error) {
	system := executivePrompt
	if bundle != "" {
		system += "\nUse CONTEXT if provided to ground references, but do not invent details."
	}
	messages := []Message{{Role: "system", Content: system}}
	if len(labels) > 0 {
		capped := labels
		if len(capped) > 12 {
			capped = capped[:12]
		}
		var b strings.Builder
		b.WriteString("CONTEXT SOURCES:\n")
		for _, lbl := range capped {
			b.WriteString("- " + lbl + "\n")
		}
		messages = append(messages, Message{Role: "system", Content: strings.TrimRight(b.String(), "\n")})
	}
	if bundle != "" {
		messages = append(messages, Message{Role: "system", Content: "CONTEXT (may be partial):\n" + tail(bundle, 12000)})
	}
	messages = append(messages, Message{Role: "user", Content: tail(fullText, 20000)})

	out, err := c.Complete(ctx, messages, 800)
	if err != nil {
		return "", err
	}
	return EnsureContextAlignment(out), nil
}

// EnsureContextAlignment appends the CONTEXT ALIGNMENT section, or its
// fallback bullet, when the model omitted them.
func EnsureContextAlignment(summary string) string {
	lines := strings.Split(summary, "\n")
	headerIdx := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "**context alignment**") {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return strings.TrimRight(summary, " \n") + "\n\n**CONTEXT ALIGNMENT**\n" + ContextFallbackBullet + "\n"
	}
	for _, line := range lines[headerIdx+1:] {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "**") {
			break
		}
		if strings.HasPrefix(stripped, "-") {
			return summary
		}
	}
	return strings.TrimRight(summary, " \n") + "\n" + ContextFallbackBullet + "\n"
}
