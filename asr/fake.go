package asr

// FakeEngine replays a scripted sequence of hypotheses, one per accepted
// frame, for pipeline tests.
type FakeEngine struct {
	Script []Hypothesis
	Tail   *Hypothesis // returned by Flush
	Errs   map[int]error

	frames int
	closed bool
}

func (f *FakeEngine) Accept(frame []byte) (Hypothesis, bool, error) {
	i := f.frames
	f.frames++
	if err, ok := f.Errs[i]; ok {
		return Hypothesis{}, false, err
	}
	if i < len(f.Script) {
		return f.Script[i], true, nil
	}
	return Hypothesis{}, false, nil
}

func (f *FakeEngine) Flush() (Hypothesis, bool, error) {
	if f.Tail != nil {
		return *f.Tail, true, nil
	}
	return Hypothesis{}, false, nil
}

func (f *FakeEngine) Close() error {
	f.closed = true
	return nil
}

func (f *FakeEngine) Closed() bool { return f.closed }
