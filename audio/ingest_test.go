package audio

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }
func (e errReader) Close() error             { return nil }

func drain(t *testing.T, in *Ingest) []byte {
	t.Helper()
	var got []byte
	for {
		select {
		case frame, ok := <-in.Frames():
			if !ok {
				return got
			}
			got = append(got, frame...)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out draining frames")
		}
	}
}

func TestIngestTeesToSink(t *testing.T) {
	pcm := make([]byte, frameBytes*2+100)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	var sink bytes.Buffer
	in := NewIngestFromReader(io.NopCloser(bytes.NewReader(pcm)), &sink)
	if err := in.Start(); err != nil {
		t.Fatal(err)
	}

	got := drain(t, in)
	<-in.Done()

	if !bytes.Equal(sink.Bytes(), pcm) {
		t.Errorf("sink got %d bytes, want %d", sink.Len(), len(pcm))
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("frames got %d bytes, want %d", len(got), len(pcm))
	}
	if err := in.Err(); err != nil {
		t.Errorf("benign end of stream reported error: %v", err)
	}
}

func TestIngestCaptureLost(t *testing.T) {
	in := NewIngestFromReader(errReader{err: errors.New("pipe burst")}, io.Discard)
	if err := in.Start(); err != nil {
		t.Fatal(err)
	}
	drain(t, in)
	<-in.Done()
	if !errors.Is(in.Err(), ErrCaptureLost) {
		t.Errorf("Err = %v, want ErrCaptureLost", in.Err())
	}
}

func TestIngestStopIsClean(t *testing.T) {
	r, w := io.Pipe()
	in := NewIngestFromReader(r, io.Discard)
	if err := in.Start(); err != nil {
		t.Fatal(err)
	}
	go w.Write(make([]byte, frameBytes))

	done := make(chan struct{})
	go func() {
		drain(t, in)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	in.Stop()
	in.Stop() // idempotent
	<-done

	if err := in.Err(); err != nil {
		t.Errorf("clean stop reported error: %v", err)
	}
}
