package asr

import (
	"errors"
	"testing"
	"time"

	"github.com/winslowb/live-assistant/transcript"
)

func feed(frames int) chan []byte {
	ch := make(chan []byte, frames)
	for range frames {
		ch <- make([]byte, 4)
	}
	close(ch)
	return ch
}

func runAdapter(t *testing.T, a *Adapter, frames chan []byte) {
	t.Helper()
	go a.Run(frames)
	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("adapter did not stop")
	}
}

func TestAdapterOrdering(t *testing.T) {
	eventLog := transcript.NewLog()
	engine := &FakeEngine{Script: []Hypothesis{
		{Text: "hel"},
		{Text: "hello wor"},
		{Text: "hello world", Final: true},
	}}
	a := NewAdapter(engine, eventLog, nil, nil)
	runAdapter(t, a, feed(3))

	if a.State() != StateStopped {
		t.Errorf("state = %v, want stopped", a.State())
	}
	finals := eventLog.Finals()
	if len(finals) != 1 || finals[0] != "hello world" {
		t.Fatalf("finals = %v", finals)
	}
	if _, live := eventLog.Partial(); live {
		t.Error("final must clear the live partial")
	}

	events := eventLog.EventsSince(0)
	last := uint64(0)
	for _, ev := range events {
		if ev.Seq <= last {
			t.Fatalf("sequence not strictly increasing: %v", events)
		}
		last = ev.Seq
	}
	if events[len(events)-1].Kind != transcript.KindFinal {
		t.Error("final must come after its partials")
	}
}

func TestAdapterFlushTail(t *testing.T) {
	eventLog := transcript.NewLog()
	engine := &FakeEngine{
		Script: []Hypothesis{{Text: "trail"}},
		Tail:   &Hypothesis{Text: "trailing words", Final: true},
	}
	a := NewAdapter(engine, eventLog, nil, nil)
	runAdapter(t, a, feed(1))

	finals := eventLog.Finals()
	if len(finals) != 1 || finals[0] != "trailing words" {
		t.Errorf("finals = %v", finals)
	}
	if !engine.Closed() {
		t.Error("engine not closed")
	}
}

func TestAdapterDegradedNilEngine(t *testing.T) {
	eventLog := transcript.NewLog()
	var notices int
	a := NewAdapter(nil, eventLog, nil, func(error) { notices++ })
	if a.State() != StateDegraded {
		t.Errorf("state = %v, want degraded", a.State())
	}
	runAdapter(t, a, feed(5))

	if notices != 1 {
		t.Errorf("notices = %d, want exactly 1", notices)
	}
	if eventLog.Len() != 0 {
		t.Errorf("degraded adapter emitted %d events", eventLog.Len())
	}
}

func TestAdapterDegradesOnEngineError(t *testing.T) {
	eventLog := transcript.NewLog()
	engine := &FakeEngine{
		Script: []Hypothesis{{Text: "ok", Final: true}},
		Errs:   map[int]error{1: errors.New("conn reset")},
	}
	var notices int
	a := NewAdapter(engine, eventLog, nil, func(error) { notices++ })
	runAdapter(t, a, feed(4))

	if notices != 1 {
		t.Errorf("notices = %d, want exactly 1", notices)
	}
	finals := eventLog.Finals()
	if len(finals) != 1 || finals[0] != "ok" {
		t.Errorf("finals = %v", finals)
	}
}

func TestAdapterEventCallback(t *testing.T) {
	eventLog := transcript.NewLog()
	engine := &FakeEngine{Script: []Hypothesis{
		{Text: "a"},
		{Text: "ab", Final: true},
	}}
	var fired int
	a := NewAdapter(engine, eventLog, func() { fired++ }, nil)
	runAdapter(t, a, feed(2))
	if fired != 2 {
		t.Errorf("onEvent fired %d times, want 2", fired)
	}
}
