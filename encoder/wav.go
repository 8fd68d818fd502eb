package encoder

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
)

const wavHeaderSize = 44

// WavSink streams PCM into a RIFF/WAVE file. The header is written with
// zero sizes up front and patched in place on Close, so a crashed session
// still leaves a recognizable (if unsized) wav on disk.
type WavSink struct {
	mu        sync.Mutex
	f         *os.File
	path      string
	dataBytes uint32
	closed    bool
}

func NewWav(path string) (*WavSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating wav file: %w", err)
	}
	s := &WavSink{f: f, path: path}
	if err := s.writeHeader(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return s, nil
}

func (s *WavSink) writeHeader() error {
	var hdr [wavHeaderSize]byte
	copy(hdr[0:4], "RIFF")
	// sizes at 4 and 40 stay zero until Close
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], Channels)
	binary.LittleEndian.PutUint32(hdr[24:28], SampleRate)
	byteRate := uint32(SampleRate * Channels * BitsPerSample / 8)
	binary.LittleEndian.PutUint32(hdr[28:32], byteRate)
	binary.LittleEndian.PutUint16(hdr[32:34], Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(hdr[34:36], BitsPerSample)
	copy(hdr[36:40], "data")
	_, err := s.f.Write(hdr[:])
	return err
}

func (s *WavSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, os.ErrClosed
	}
	n, err := s.f.Write(p)
	s.dataBytes += uint32(n)
	return n, err
}

func (s *WavSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var sz [4]byte
	binary.LittleEndian.PutUint32(sz[:], 36+s.dataBytes)
	if _, err := s.f.WriteAt(sz[:], 4); err != nil {
		s.f.Close()
		return err
	}
	binary.LittleEndian.PutUint32(sz[:], s.dataBytes)
	if _, err := s.f.WriteAt(sz[:], 40); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

func (s *WavSink) Path() string { return s.path }

func (s *WavSink) Samples() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(s.dataBytes) / (Channels * BitsPerSample / 8)
}
