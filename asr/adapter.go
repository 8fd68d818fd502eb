package asr

import (
	"sync"
	"sync/atomic"

	"github.com/winslowb/live-assistant/transcript"
)

type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateStreaming
	StateDegraded
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateStreaming:
		return "streaming"
	case StateDegraded:
		return "degraded"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Adapter turns raw engine hypotheses into ordered transcript events. It is
// the single writer of Partial/Final events; ordering comes from the one
// goroutine in Run, not from locking.
//
// With a nil engine the adapter runs in degraded mode: audio still flows to
// the recorder upstream, no events are emitted, and the unavailability
// notice fires exactly once.
type Adapter struct {
	engine Engine
	log    *transcript.Log

	// onEvent signals the render loop that the log grew; onNotice posts the
	// one-time recognition-unavailable condition.
	onEvent  func()
	onNotice func(err error)

	state      atomic.Int32
	noticeOnce sync.Once
	done       chan struct{}
}

func NewAdapter(engine Engine, eventLog *transcript.Log, onEvent func(), onNotice func(error)) *Adapter {
	a := &Adapter{
		engine:   engine,
		log:      eventLog,
		onEvent:  onEvent,
		onNotice: onNotice,
		done:     make(chan struct{}),
	}
	if engine == nil {
		a.state.Store(int32(StateDegraded))
	} else {
		a.state.Store(int32(StateReady))
	}
	return a
}

func (a *Adapter) State() State { return State(a.state.Load()) }

func (a *Adapter) Done() <-chan struct{} { return a.done }

// Degrade moves a running adapter to record-only mode and fires the
// unavailability notice once.
func (a *Adapter) degrade(err error) {
	a.state.Store(int32(StateDegraded))
	a.noticeOnce.Do(func() {
		if a.onNotice != nil {
			a.onNotice(err)
		}
	})
}

// Run consumes the frame stream until it closes, then flushes the engine
// tail and stops. Call it on its own goroutine.
func (a *Adapter) Run(frames <-chan []byte) {
	defer close(a.done)
	defer a.state.Store(int32(StateStopped))

	if a.engine == nil {
		a.degrade(ErrUnavailable)
		for range frames {
			// record-only: keep the pipe moving
		}
		return
	}

	a.state.Store(int32(StateStreaming))
	for frame := range frames {
		if a.State() == StateDegraded {
			continue
		}
		hyp, ok, err := a.engine.Accept(frame)
		if err != nil {
			a.degrade(err)
			continue
		}
		if ok {
			a.emit(hyp)
		}
	}

	if a.State() != StateDegraded {
		if hyp, ok, err := a.engine.Flush(); err == nil && ok {
			a.emit(hyp)
		}
	}
	a.engine.Close()
}

func (a *Adapter) emit(hyp Hypothesis) {
	if hyp.Final {
		if hyp.Text != "" {
			a.log.AppendFinal(hyp.Text)
		} else {
			a.log.SetPartial("")
		}
	} else {
		a.log.SetPartial(hyp.Text)
	}
	if a.onEvent != nil {
		a.onEvent()
	}
}
