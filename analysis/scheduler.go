package analysis

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/winslowb/live-assistant/contextstore"
	"github.com/winslowb/live-assistant/transcript"
)

const (
	defaultInterval    = 5 * time.Second
	defaultCallTimeout = 12 * time.Second

	// snippetLines and snippetBytes bound the transcript window sent per
	// tick so prompts stay small as the session grows.
	snippetLines = 60
	snippetBytes = 6000
)

// Snapshot is one published analysis result. Published whole so the
// renderer never sees a half-updated pane.
type Snapshot struct {
	GeneratedAt time.Time
	Text        string
	// Span is the [first, last] transcript sequence the snippet covered.
	Span [2]uint64
}

// Scheduler runs the periodic analysis pass: every interval it snapshots
// the recent transcript, calls the backend once, and on success publishes a
// new Snapshot and merges the parsed lists. A failed tick keeps the last
// good snapshot and reports exactly one diagnostic.
type Scheduler struct {
	client  *Client
	log     *transcript.Log
	store   *contextstore.Store
	prompt  string // custom analyzer prompt markdown, may be empty
	lists   *Lists
	snap    atomic.Pointer[Snapshot]
	onReady func()
	onError func(error)

	Interval    time.Duration
	CallTimeout time.Duration
}

func NewScheduler(client *Client, eventLog *transcript.Log, store *contextstore.Store, prompt string, onReady func(), onError func(error)) *Scheduler {
	return &Scheduler{
		client:      client,
		log:         eventLog,
		store:       store,
		prompt:      prompt,
		lists:       NewLists(),
		onReady:     onReady,
		onError:     onError,
		Interval:    defaultInterval,
		CallTimeout: defaultCallTimeout,
	}
}

// Snapshot returns the latest published result, nil before the first
// successful tick.
func (s *Scheduler) Snapshot() *Snapshot { return s.snap.Load() }

func (s *Scheduler) Lists() *Lists { return s.lists }

// Run ticks until ctx is cancelled. One backend attempt per tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	snippet, span := s.snippet()
	if snippet == "" {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, s.CallTimeout)
	defer cancel()

	text, err := s.analyze(callCtx, snippet)
	if err != nil {
		if s.onError != nil && ctx.Err() == nil {
			s.onError(err)
		}
		return
	}
	a, q, d, t := ParseBlocks(text)
	s.lists.Merge(a, q, d, t)
	s.snap.Store(&Snapshot{GeneratedAt: time.Now(), Text: text, Span: span})
	if s.onReady != nil {
		s.onReady()
	}
}

func (s *Scheduler) snippet() (string, [2]uint64) {
	events, span := s.log.LastFinals(snippetLines)
	var b strings.Builder
	for _, ev := range events {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(ev.Text)
	}
	if p, ok := s.log.Partial(); ok {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p.Text)
	}
	return tail(strings.TrimSpace(b.String()), snippetBytes), span
}

// analyze prefers the custom prompt when one is configured and falls back
// to the built-in extractor prompt if that call fails.
func (s *Scheduler) analyze(ctx context.Context, snippet string) (string, error) {
	bundle, labels := s.store.Bundle()
	if s.prompt != "" {
		text, err := s.client.CompleteWithPrompt(ctx, s.prompt, snippet, bundle, labels)
		if err == nil {
			return text, nil
		}
	}
	return s.client.Analyze(ctx, snippet, bundle, labels)
}

// Analyze runs the built-in extractor prompt over the snippet.
func (c *Client) Analyze(ctx context.Context, snippet, bundle string, labels []string) (string, error) {
	system := analyzerPrompt
	if bundle != "" {
		system += "\nUse the provided CONTEXT when relevant to improve precision."
	}
	messages := []Message{{Role: "system", Content: system}}
	messages = appendContext(messages, bundle, labels, 8000)
	if bundle != "" {
		messages = append(messages, Message{Role: "user", Content: "Reference context (truncated):\n" + tail(bundle, 6000)})
	}
	messages = append(messages, Message{Role: "user", Content: tail(snippet, 6000)})
	return c.Complete(ctx, messages, 300)
}

// CompleteWithPrompt runs a caller-supplied system prompt over one input.
func (c *Client) CompleteWithPrompt(ctx context.Context, promptMD, input, bundle string, labels []string) (string, error) {
	system := promptMD
	if bundle != "" {
		system += "\nUse the provided CONTEXT to tailor answers."
	}
	messages := []Message{{Role: "system", Content: system}}
	messages = appendContext(messages, bundle, labels, 10000)
	if bundle != "" {
		messages = append(messages, Message{Role: "user", Content: "Reference context (truncated):\n" + tail(bundle, 8000)})
	}
	messages = append(messages, Message{Role: "user", Content: input})
	return c.Complete(ctx, messages, 400)
}

func appendContext(messages []Message, bundle string, labels []string, bundleTail int) []Message {
	if len(labels) > 0 {
		if len(labels) > 8 {
			labels = labels[:8]
		}
		var b strings.Builder
		b.WriteString("CONTEXT SOURCES:\n")
		for _, lbl := range labels {
			fmt.Fprintf(&b, "- %s\n", lbl)
		}
		messages = append(messages, Message{Role: "system", Content: strings.TrimRight(b.String(), "\n")})
	}
	if bundle != "" {
		messages = append(messages, Message{Role: "system", Content: "CONTEXT (may be partial):\n" + tail(bundle, bundleTail)})
	}
	return messages
}
