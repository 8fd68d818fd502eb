package asr

import "errors"

// ErrUnavailable marks the recognition engine as unusable; the pipeline
// degrades to record-only mode instead of failing the session.
var ErrUnavailable = errors.New("speech recognition unavailable")

// Hypothesis is one recognition result. Partial hypotheses are tentative
// and superseded; a Final commits the utterance.
type Hypothesis struct {
	Text  string
	Final bool
}

// Engine is the speech-recognition boundary: it consumes raw PCM frames
// and yields zero-or-one hypothesis per frame. Implementations own their
// threading; the adapter serializes calls.
type Engine interface {
	// Accept feeds one PCM frame. ok is false when the frame produced no
	// hypothesis.
	Accept(frame []byte) (hyp Hypothesis, ok bool, err error)
	// Flush signals end of stream and returns the trailing final, if any.
	Flush() (hyp Hypothesis, ok bool, err error)
	Close() error
}
