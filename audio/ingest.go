package audio

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
)

const (
	SampleRate = 16000
	Channels   = 1

	// frameBytes is 125ms of s16le mono at 16kHz, matching the read
	// granularity the recognition engine is fed at.
	frameBytes = 4000

	frameQueueDepth = 64
)

var (
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	ErrCaptureLost       = errors.New("capture process lost")
)

// Ingest owns the external capture subprocess and tees its PCM byte stream
// to the session audio sink and to the recognition adapter. The subprocess
// is the only component that touches the capture device; this stage only
// observes its stdout and exit.
//
// If the subprocess dies unexpectedly, Err reports ErrCaptureLost exactly
// once and the stage is terminally stopped. There is no silent restart:
// callers must notice Done/Err and surface it.
type Ingest struct {
	source string
	sink   io.Writer

	cmd    *exec.Cmd
	stream io.ReadCloser

	frames  chan []byte
	done    chan struct{}
	dropped atomic.Uint64
	stopped atomic.Bool

	mu  sync.Mutex
	err error
}

// NewIngest prepares an ingest stage capturing from the named PulseAudio
// source. The sink receives every frame as it arrives.
func NewIngest(source string, sink io.Writer) *Ingest {
	return &Ingest{
		source: source,
		sink:   sink,
		frames: make(chan []byte, frameQueueDepth),
		done:   make(chan struct{}),
	}
}

// NewIngestFromReader is NewIngest over an arbitrary PCM stream instead of a
// capture subprocess. Used by tests and by replay tooling.
func NewIngestFromReader(stream io.ReadCloser, sink io.Writer) *Ingest {
	return &Ingest{
		sink:   sink,
		stream: stream,
		frames: make(chan []byte, frameQueueDepth),
		done:   make(chan struct{}),
	}
}

// Start spawns the capture subprocess (unless a stream was injected) and
// begins pumping frames. It returns ErrDeviceUnavailable when the process
// cannot be started.
func (in *Ingest) Start() error {
	if in.stream == nil {
		cmd := exec.Command("ffmpeg",
			"-hide_banner", "-loglevel", "error",
			"-f", "pulse", "-i", in.source,
			"-ac", fmt.Sprint(Channels), "-ar", fmt.Sprint(SampleRate),
			"-f", "s16le", "-",
		)
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		in.cmd = cmd
		in.stream = stdout
	}
	go in.pump()
	return nil
}

func (in *Ingest) pump() {
	defer close(in.done)
	defer close(in.frames)

	buf := make([]byte, frameBytes)
	for {
		n, err := io.ReadFull(in.stream, buf)
		if n > 0 {
			if in.sink != nil {
				// The file sink is written before anything else so the
				// recording survives a wedged consumer.
				if _, werr := in.sink.Write(buf[:n]); werr != nil {
					in.setErr(fmt.Errorf("audio sink: %w", werr))
				}
			}
			frame := make([]byte, n)
			copy(frame, buf[:n])
			select {
			case in.frames <- frame:
			default:
				// Never block capture on a slow recognizer.
				in.dropped.Add(1)
			}
		}
		if err != nil {
			benignEOF := in.cmd == nil && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF))
			if !in.stopped.Load() && !benignEOF {
				// A subprocess closing its stdout while we are still
				// running is capture loss, whatever the exit code.
				in.setErr(ErrCaptureLost)
			}
			break
		}
	}
	if in.cmd != nil {
		in.cmd.Wait()
	}
}

// Frames is the stream of PCM frames for the recognition adapter. The
// channel closes when capture ends for any reason.
func (in *Ingest) Frames() <-chan []byte { return in.frames }

// Done closes once the stage has fully stopped.
func (in *Ingest) Done() <-chan struct{} { return in.done }

// Err reports the terminal failure, if any, after Done is closed.
func (in *Ingest) Err() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.err
}

// Dropped reports how many frames were not delivered to the recognizer
// because its queue was full. Frames are still written to the sink.
func (in *Ingest) Dropped() uint64 { return in.dropped.Load() }

// Stop terminates the capture subprocess and waits for the pump to drain.
// Safe to call more than once.
func (in *Ingest) Stop() {
	if !in.stopped.CompareAndSwap(false, true) {
		<-in.done
		return
	}
	if in.cmd != nil && in.cmd.Process != nil {
		in.cmd.Process.Kill()
	} else if in.stream != nil {
		in.stream.Close()
	}
	<-in.done
}

func (in *Ingest) setErr(err error) {
	in.mu.Lock()
	if in.err == nil {
		in.err = err
	}
	in.mu.Unlock()
}
