package encoder

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// FlacSink streams PCM into a FLAC file, encoding a frame per BlockSize
// samples. The final short block is flushed on Close.
type FlacSink struct {
	mu      sync.Mutex
	enc     *flac.Encoder
	path    string
	pending []int32
	carry   byte // odd trailing byte of a Write, half of an s16 sample
	hasOdd  bool
	samples uint64
	closed  bool
}

func NewFlac(path string) (*FlacSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating flac file: %w", err)
	}
	info := &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    SampleRate,
		NChannels:     Channels,
		BitsPerSample: BitsPerSample,
	}
	enc, err := flac.NewEncoder(f, info)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	return &FlacSink{enc: enc, path: path, pending: make([]int32, 0, BlockSize)}, nil
}

func (s *FlacSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, os.ErrClosed
	}
	written := len(p)

	if s.hasOdd && len(p) > 0 {
		sample := int16(binary.LittleEndian.Uint16([]byte{s.carry, p[0]}))
		s.pending = append(s.pending, int32(sample))
		s.hasOdd = false
		p = p[1:]
	}
	for len(p) >= 2 {
		s.pending = append(s.pending, int32(int16(binary.LittleEndian.Uint16(p))))
		p = p[2:]
	}
	if len(p) == 1 {
		s.carry = p[0]
		s.hasOdd = true
	}

	for len(s.pending) >= BlockSize {
		if err := s.encodeBlock(s.pending[:BlockSize]); err != nil {
			return written, err
		}
		s.pending = append(s.pending[:0], s.pending[BlockSize:]...)
	}
	return written, nil
}

func (s *FlacSink) encodeBlock(block []int32) error {
	sub := &frame.Subframe{
		SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
		Samples:   block,
		NSamples:  len(block),
	}
	fr := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    SampleRate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{sub},
	}
	if err := s.enc.WriteFrame(fr); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	s.samples += uint64(len(block))
	return nil
}

func (s *FlacSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	if len(s.pending) > 0 {
		block := append([]int32(nil), s.pending...)
		if err := s.encodeBlock(block); err != nil {
			firstErr = err
		}
		s.pending = nil
	}
	// enc.Close also closes the underlying file.
	if err := s.enc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *FlacSink) Path() string { return s.path }

func (s *FlacSink) Samples() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}
