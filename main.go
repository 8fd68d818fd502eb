package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/winslowb/live-assistant/analysis"
	"github.com/winslowb/live-assistant/asr"
	"github.com/winslowb/live-assistant/audio"
	"github.com/winslowb/live-assistant/contextstore"
	"github.com/winslowb/live-assistant/log"
	"github.com/winslowb/live-assistant/session"
	"github.com/winslowb/live-assistant/transcript"
)

type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func envOr(flagVal, envKey string) string {
	if flagVal != "" {
		return flagVal
	}
	return os.Getenv(envKey)
}

func readPromptFile(path string) (string, string) {
	if path == "" {
		return "", ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[!] Failed to read prompt file %s: %v\n", path, err)
		return "", ""
	}
	return string(data), filepath.Base(path)
}

func main() {
	var contexts multiFlag
	sourceFlag := flag.String("source", "", "PulseAudio source name (interactive selection when empty)")
	asrURLFlag := flag.String("asr-url", "", "vosk-server websocket URL (or ASR_SERVER_URL)")
	llmModelFlag := flag.String("llm-model", "", "chat completion model name (or LLM_MODEL)")
	baseURLFlag := flag.String("openai-base-url", "", "OpenAI-compatible base URL (or OPENAI_BASE_URL)")
	promptFlag := flag.String("prompt", "", "path to a summary/analyzer prompt markdown file")
	interview := flag.Bool("interview", false, "interview mode: 'i' captures a question span and answers it")
	outdir := flag.String("outdir", ".", "directory to create the session directory under")
	audioFormat := flag.String("audio-format", "wav", "audio container: wav or flac")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Var(&contexts, "context", "context file/dir/URL to mount (repeatable)")
	flag.Parse()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "stdout is not a terminal")
		os.Exit(1)
	}

	asrURL := envOr(*asrURLFlag, "ASR_SERVER_URL")
	apiKey := os.Getenv("OPENAI_API_KEY")
	llmModel := envOr(*llmModelFlag, "LLM_MODEL")
	baseURL := envOr(*baseURLFlag, "OPENAI_BASE_URL")

	source := *sourceFlag
	if source == "" {
		picked, err := selectSource()
		if err != nil {
			fmt.Fprintf(os.Stderr, "[!] %v\n", err)
			os.Exit(1)
		}
		source = picked.Name
	}

	rec, err := session.New(*outdir, *audioFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		os.Exit(1)
	}

	log.SetDir(rec.Dir)
	log.SetDebug(*debug)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		os.Exit(1)
	}
	defer log.Close()
	log.SessionStart(source, *audioFormat, asrURL, llmModel)

	store := contextstore.NewStore()
	for _, c := range contexts {
		mounted, err := store.Mount(c)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[!] Context %s: %v\n", c, err)
			log.Warnf("context mount failed: %s: %v", c, err)
			continue
		}
		for _, src := range mounted {
			log.Infof("context mounted: %s", src.Label)
		}
	}

	summaryPrompt, summaryLabel := readPromptFile(envOr(*promptFlag, "SUMMARY_PROMPT"))
	chatPrompt, chatLabel := readPromptFile(os.Getenv("CHAT_PROMPT"))
	if chatPrompt == "" {
		chatPrompt, chatLabel = analysis.DefaultChatPrompt, "builtin.chatbot"
	}

	eventLog := transcript.NewLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engineLabel := "none"
	var engine asr.Engine
	if asrURL != "" {
		vosk, err := asr.DialVosk(ctx, asrURL)
		if err != nil {
			log.Errorf("asr dial failed: %v", err)
		} else {
			engine = vosk
			engineLabel = "vosk:" + asrURL
		}
	}

	adapter := asr.NewAdapter(engine, eventLog,
		func() { tuiSend(TranscriptChangedMsg{}) },
		func(err error) {
			log.Warnf("asr degraded: %v", err)
			tuiSend(AsrUnavailableMsg{Err: err})
		})

	ingest := audio.NewIngest(source, rec.Sink)
	if err := ingest.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		log.Errorf("capture start failed: %v", err)
		rec.Close()
		os.Exit(1)
	}
	go adapter.Run(ingest.Frames())
	go func() {
		<-ingest.Done()
		if errors.Is(ingest.Err(), audio.ErrCaptureLost) {
			log.Error("capture lost")
			tuiSend(CaptureLostMsg{})
		}
	}()

	var client *analysis.Client
	var sched *analysis.Scheduler
	if apiKey != "" && llmModel != "" {
		client = analysis.NewClient(apiKey, baseURL, llmModel)
		if !*interview {
			sched = analysis.NewScheduler(client, eventLog, store, summaryPrompt,
				func() { tuiSend(AnalysisReadyMsg{}) },
				func(err error) {
					log.AnalysisTick(0, err)
					tuiSend(AnalysisFailedMsg{Err: err})
				})
			go sched.Run(ctx)
		}
	}

	model := newTUIModel(eventLog, sched, client, store, rec, chatPrompt, chatLabel, *interview, summaryPrompt)
	program := tea.NewProgram(model, tea.WithAltScreen())
	setTUIProgram(program)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		program.Quit()
	}()

	finalModel, err := program.Run()
	setTUIProgram(nil)
	signal.Stop(sigCh)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[!] UI error: %v\n", err)
	}

	cancel()
	ingest.Stop()
	<-adapter.Done()

	final, _ := finalModel.(tuiModel)
	finishSession(rec, eventLog, store, client, sched, final, source, engineLabel, llmModel, summaryLabel)
	log.SessionEnd(eventLog.Len(), ingest.Dropped())
}

// finishSession runs the closing executive summary pass and writes the
// notes report and audio file.
func finishSession(rec *session.Recorder, eventLog *transcript.Log, store *contextstore.Store, client *analysis.Client, sched *analysis.Scheduler, final tuiModel, source, engineLabel, llmModel, promptLabel string) {
	finals := eventLog.Finals()
	bundle, labels := store.Bundle()

	var executive, analysisText string
	if sched != nil {
		if snap := sched.Snapshot(); snap != nil {
			analysisText = snap.Text
		}
	}
	if client != nil && len(finals) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
		out, err := client.ExecutiveSummary(ctx, strings.Join(finals, "\n"), bundle, labels)
		cancel()
		if err != nil {
			log.Errorf("executive summary failed: %v", err)
		} else {
			executive = out
		}
	}
	if executive != "" && analysisText == "" {
		analysisText = executive
	}
	if analysisText == "" {
		analysisText = "No information available."
	}

	rep := session.Report{
		SourceLabel:  source,
		EngineLabel:  engineLabel,
		LLMModel:     llmModel,
		PromptLabel:  promptLabel,
		ContextFiles: labels,
		Executive:    executive,
		Analysis:     analysisText,
		QAs:          final.qas,
		Transcript:   finals,
	}
	for _, c := range final.chats {
		if !c.pending {
			rep.Chats = append(rep.Chats, session.QA{Question: c.question, Answer: c.answer})
		}
	}
	for _, ev := range eventLog.ByKind(transcript.KindMarker) {
		rep.Markers = append(rep.Markers, session.TimedEntry{At: rec.ElapsedAt(ev.At), Text: ev.Text})
	}
	for _, ev := range eventLog.ByKind(transcript.KindNote) {
		rep.Notes = append(rep.Notes, session.TimedEntry{At: rec.ElapsedAt(ev.At), Text: ev.Text})
	}

	if sched != nil {
		rep.HaveLists = true
		rep.Actions, rep.Questions, rep.Decisions, rep.Topics = sched.Lists().Get()
	}
	if (sched == nil || sched.Lists().Empty()) && len(finals) > 0 {
		rep.HaveLists = true
		rep.Actions, rep.Questions, rep.Decisions, rep.Topics = analysis.ExtractHeuristics(strings.Join(finals, "\n"))
	}

	path, err := rec.WriteNotes(rep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		log.Errorf("notes write failed: %v", err)
	} else {
		fmt.Printf("[+] Notes saved: %s\n", path)
	}
	if err := rec.Close(); err != nil {
		log.Errorf("audio close failed: %v", err)
	} else {
		fmt.Printf("[+] Audio saved: %s\n", rec.Sink.Path())
	}
}
