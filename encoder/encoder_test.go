package encoder

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func sinePCM(samples int) []byte {
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/SampleRate))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func TestWavSinkHeaderPatchedOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.wav")
	s, err := NewWav(path)
	if err != nil {
		t.Fatalf("NewWav: %v", err)
	}

	pcm := sinePCM(5000)
	// feed in uneven chunks like the capture pipeline does
	for i := 0; i < len(pcm); i += 4000 {
		end := i + 4000
		if end > len(pcm) {
			end = len(pcm)
		}
		if _, err := s.Write(pcm[i:end]); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.Samples() != 5000 {
		t.Errorf("Samples = %d, want 5000", s.Samples())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); got != uint32(36+len(pcm)) {
		t.Errorf("riff size = %d, want %d", got, 36+len(pcm))
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", got, len(pcm))
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != SampleRate {
		t.Errorf("sample rate = %d", got)
	}
	if len(data) != wavHeaderSize+len(pcm) {
		t.Errorf("file size = %d, want %d", len(data), wavHeaderSize+len(pcm))
	}
}

func TestWavSinkCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.wav")
	s, err := NewWav(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := s.Write([]byte{0, 0}); err == nil {
		t.Error("Write after Close succeeded")
	}
}

func TestFlacSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.flac")
	s, err := NewFlac(path)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}

	pcm := sinePCM(BlockSize + 123) // forces a final short block
	// odd-length writes exercise the carry byte
	if _, err := s.Write(pcm[:4001]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := s.Write(pcm[4001:]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if want := uint64(BlockSize + 123); s.Samples() != want {
		t.Errorf("Samples = %d, want %d", s.Samples(), want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
}

func TestFlacSinkCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.flac")
	s, err := NewFlac(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write(sinePCM(100)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestOpenUnknownFormat(t *testing.T) {
	if _, err := Open("ogg", filepath.Join(t.TempDir(), "x.ogg")); err == nil {
		t.Fatal("unknown format accepted")
	}
}
