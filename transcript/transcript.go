package transcript

import (
	"sync"
	"time"
)

type Kind int

const (
	KindPartial Kind = iota
	KindFinal
	KindMarker
	KindNote
)

func (k Kind) String() string {
	switch k {
	case KindPartial:
		return "partial"
	case KindFinal:
		return "final"
	case KindMarker:
		return "marker"
	case KindNote:
		return "note"
	}
	return "unknown"
}

// Event is one entry in the session event log. Events are immutable once
// created; a Partial is superseded by the next Partial or Final, never
// mutated in place.
type Event struct {
	Seq  uint64
	Kind Kind
	Text string
	At   time.Time
}

// Log is the append-only transcript event log plus a single-slot register
// holding the current live Partial. Sequence numbers are strictly increasing
// and never reused. Writers (recognition adapter, interaction controller)
// serialize through the internal mutex; readers always see a consistent,
// monotonically growing view.
type Log struct {
	mu      sync.RWMutex
	seq     uint64
	events  []Event
	partial *Event // live partial, nil when none
	now     func() time.Time
}

func NewLog() *Log {
	return &Log{now: time.Now}
}

func (l *Log) append(kind Kind, text string) Event {
	l.seq++
	ev := Event{Seq: l.seq, Kind: kind, Text: text, At: l.now()}
	l.events = append(l.events, ev)
	return ev
}

// AppendFinal commits a finalized utterance and clears the live Partial slot.
func (l *Log) AppendFinal(text string) Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.partial = nil
	return l.append(KindFinal, text)
}

func (l *Log) AppendMarker(text string) Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.append(KindMarker, text)
}

func (l *Log) AppendNote(text string) Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.append(KindNote, text)
}

// SetPartial replaces the live Partial. The superseded hypothesis stays in
// the log for audit; only the newest one is live. An empty text clears the
// slot without recording an event.
func (l *Log) SetPartial(text string) (Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if text == "" {
		l.partial = nil
		return Event{}, false
	}
	ev := l.append(KindPartial, text)
	l.partial = &ev
	return ev, true
}

// Partial returns the live Partial, if any.
func (l *Log) Partial() (Event, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.partial == nil {
		return Event{}, false
	}
	return *l.partial, true
}

// EventsSince returns all events with sequence strictly greater than seq,
// in sequence order.
func (l *Log) EventsSince(seq uint64) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	// Seq is dense over the events slice, so binary math beats scanning.
	if seq >= l.seq {
		return nil
	}
	start := len(l.events) - int(l.seq-seq)
	if start < 0 {
		start = 0
	}
	out := make([]Event, len(l.events)-start)
	copy(out, l.events[start:])
	return out
}

// Finals returns all finalized utterance texts in arrival order.
func (l *Log) Finals() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []string
	for _, ev := range l.events {
		if ev.Kind == KindFinal {
			out = append(out, ev.Text)
		}
	}
	return out
}

// LastFinals returns up to max of the most recent Final events in order,
// together with the sequence span [first, last] they cover. The span is
// zero when there are no finals.
func (l *Log) LastFinals(max int) ([]Event, [2]uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var finals []Event
	for i := len(l.events) - 1; i >= 0 && len(finals) < max; i-- {
		if l.events[i].Kind == KindFinal {
			finals = append(finals, l.events[i])
		}
	}
	// reverse into arrival order
	for i, j := 0, len(finals)-1; i < j; i, j = i+1, j-1 {
		finals[i], finals[j] = finals[j], finals[i]
	}
	var span [2]uint64
	if len(finals) > 0 {
		span = [2]uint64{finals[0].Seq, finals[len(finals)-1].Seq}
	}
	return finals, span
}

// Events of the given kinds, in order. Used by the session recorder.
func (l *Log) ByKind(kinds ...Kind) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Event
	for _, ev := range l.events {
		for _, k := range kinds {
			if ev.Kind == k {
				out = append(out, ev)
				break
			}
		}
	}
	return out
}

func (l *Log) LastSeq() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
