package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
	debug    bool
)

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

// SetDebug enables debug-level events; otherwise they are dropped.
func SetDebug(on bool) {
	debug = on
}

// Init opens assistant.log inside the session directory. Before Init (or
// after Close) all log calls are no-ops, so startup code can log freely
// before the session directory exists.
func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	pid = os.Getpid()

	var err error
	diagPath := filepath.Join(dir, "assistant.log")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Debugf(format string, args ...any) {
	if logReady && debug {
		diagLog.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

// SessionStart records the capture configuration at startup.
func SessionStart(source, format, asrURL, model string) {
	if !logReady {
		return
	}
	ev := diagLog.Info().
		Str("source", source).
		Str("format", format)
	if asrURL != "" {
		ev = ev.Str("asr_url", asrURL)
	}
	if model != "" {
		ev = ev.Str("llm_model", model)
	}
	ev.Msg("session_start")
}

// SessionEnd records the final transcript size and dropped-frame count.
func SessionEnd(finalLines int, droppedFrames uint64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("final_lines", finalLines).
		Uint64("dropped_frames", droppedFrames).
		Msg("session_end")
}

// AnalysisTick records one scheduler pass.
func AnalysisTick(snippetLen int, err error) {
	if !logReady {
		return
	}
	if err != nil {
		diagLog.Warn().Int("snippet_len", snippetLen).Err(err).Msg("analysis_tick")
		return
	}
	diagLog.Info().Int("snippet_len", snippetLen).Msg("analysis_tick")
}
