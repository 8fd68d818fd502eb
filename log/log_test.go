package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir(""); SetDebug(false) })
	return tmp
}

func TestInitCreatesFile(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(tmp, "assistant.log")); err != nil {
		t.Errorf("assistant.log not created: %v", err)
	}
}

func TestInfoWritesLine(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Info("capture started")
	Close()

	data, err := os.ReadFile(filepath.Join(tmp, "assistant.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "capture started") {
		t.Errorf("assistant.log missing message, got: %q", string(data))
	}
}

func TestLoggingBeforeInitIsNoop(t *testing.T) {
	SetDir("")
	Info("should go nowhere")
	Warnf("also nowhere: %d", 42)
}

func TestDebugGated(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Debugf("hidden %s", "line")
	SetDebug(true)
	Debugf("visible %s", "line")
	Close()

	data, err := os.ReadFile(filepath.Join(tmp, "assistant.log"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "hidden") {
		t.Error("debug line written while debug disabled")
	}
	if !strings.Contains(string(data), "visible") {
		t.Error("debug line missing while debug enabled")
	}
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close() // should not panic
}
