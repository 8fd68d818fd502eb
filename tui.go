package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/winslowb/live-assistant/analysis"
	"github.com/winslowb/live-assistant/contextstore"
	"github.com/winslowb/live-assistant/log"
	"github.com/winslowb/live-assistant/session"
	"github.com/winslowb/live-assistant/transcript"
)

// TUI message types
type TranscriptChangedMsg struct{}
type AnalysisReadyMsg struct{}
type AnalysisFailedMsg struct{ Err error }
type AsrUnavailableMsg struct{ Err error }
type CaptureLostMsg struct{}
type StatusMsg struct {
	Text     string
	Sticky   bool
	Duration time.Duration
}
type chatAnswerMsg struct {
	id   int
	text string
}
type interviewAnswerMsg struct {
	question string
	answer   string
}
type contextMountedMsg struct {
	labels []string
	err    error
}
type statusExpireMsg struct{ gen int }

type inputMode int

const (
	modeNone inputMode = iota
	modeNote
	modeChat
	modeContext
	modeSearch
	modeFilter
)

const (
	minWidth  = 20
	minHeight = 6
)

type chatEntry struct {
	question string
	answer   string
	pending  bool
}

type tuiModel struct {
	eventLog *transcript.Log
	sched    *analysis.Scheduler
	client   *analysis.Client
	store    *contextstore.Store
	rec      *session.Recorder

	chatPrompt      string
	chatPromptLabel string
	interviewMode   bool
	interviewPrompt string

	lastSeq uint64
	finals  []string

	chats        []chatEntry
	qas          []session.QA
	capturing    bool
	captureStart int
	answering    bool

	width, height int
	activePane    string // "left" or "right"
	leftOffset    int
	leftFollow    bool
	rightOffset   int
	rightFollow   bool

	search    string
	searchIdx int
	filter    string

	mode  inputMode
	input textinput.Model
	spin  spinner.Model

	status       string
	statusSticky bool
	statusGen    int

	asrNotice   string
	captureLost bool
	quitting    bool
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")).Bold(true)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11"))
	sepStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	leftStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	rightStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Faint(true)
	qStyle       = lipgloss.NewStyle().Bold(true).Underline(true)
	matchStyle   = lipgloss.NewStyle().Reverse(true)
	statusStyle  = lipgloss.NewStyle().Reverse(true)
	boldRight    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Faint(true)
)

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

func setTUIProgram(p *tea.Program) {
	tuiMu.Lock()
	tuiProgram = p
	tuiMu.Unlock()
}

// tuiSend delivers a message to the running program, dropping it when the
// UI is not up yet.
func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func newTUIModel(eventLog *transcript.Log, sched *analysis.Scheduler, client *analysis.Client, store *contextstore.Store, rec *session.Recorder, chatPrompt, chatPromptLabel string, interviewMode bool, interviewPrompt string) tuiModel {
	ti := textinput.New()
	ti.CharLimit = 512
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return tuiModel{
		eventLog:        eventLog,
		sched:           sched,
		client:          client,
		store:           store,
		rec:             rec,
		chatPrompt:      chatPrompt,
		chatPromptLabel: chatPromptLabel,
		interviewMode:   interviewMode,
		interviewPrompt: interviewPrompt,
		activePane:      "left",
		rightFollow:     true,
		searchIdx:       -1,
		input:           ti,
		spin:            sp,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampOffsets()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case TranscriptChangedMsg:
		m.drainEvents()
		if m.leftFollow {
			m.leftOffset = m.leftMaxOffset()
		}
		return m, nil

	case AnalysisReadyMsg, AnalysisFailedMsg:
		return m, nil

	case AsrUnavailableMsg:
		m.asrNotice = "ASR unavailable (recording only)"
		return m, nil

	case CaptureLostMsg:
		m.captureLost = true
		return m.pushStatus("Audio capture lost; recording stopped. Press q to finish.", 0, true)

	case StatusMsg:
		return m.pushStatus(msg.Text, msg.Duration, msg.Sticky)

	case statusExpireMsg:
		if msg.gen == m.statusGen && !m.statusSticky {
			m.status = ""
		}
		return m, nil

	case chatAnswerMsg:
		if msg.id >= 0 && msg.id < len(m.chats) {
			m.chats[msg.id].answer = msg.text
			m.chats[msg.id].pending = false
		}
		return m.pushStatus("Chat answer ready (press Esc).", 0, true)

	case interviewAnswerMsg:
		m.answering = false
		m.qas = append(m.qas, session.QA{Question: msg.question, Answer: msg.answer})
		return m.pushStatus("Interview answer ready (press Esc).", 0, true)

	case contextMountedMsg:
		if msg.err != nil {
			return m.pushStatus("Context load failed: "+msg.err.Error(), 6*time.Second, true)
		}
		label := ""
		if len(msg.labels) > 0 {
			label = msg.labels[0]
		}
		return m.pushStatus("Context added: "+label, 4*time.Second, true)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *tuiModel) drainEvents() {
	for _, ev := range m.eventLog.EventsSince(m.lastSeq) {
		if ev.Kind == transcript.KindFinal {
			m.finals = append(m.finals, ev.Text)
		}
		m.lastSeq = ev.Seq
	}
}

func (m tuiModel) pushStatus(text string, d time.Duration, sticky bool) (tea.Model, tea.Cmd) {
	m.status = text
	m.statusSticky = sticky
	m.statusGen++
	if sticky {
		return m, nil
	}
	if d <= 0 {
		d = 3 * time.Second
	}
	gen := m.statusGen
	return m, tea.Tick(d, func(time.Time) tea.Msg { return statusExpireMsg{gen: gen} })
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.mode != modeNone {
		return m.handleInputKey(msg)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "m":
		label := m.rec.MarkerLabel()
		m.eventLog.AppendMarker(label)
		return m.pushStatus("Marker added.", 2*time.Second, false)

	case "n":
		if m.search != "" {
			m.searchAdvance(1)
			return m, nil
		}
		return m.enterInput(modeNote, "note> "), nil

	case "N":
		if m.search != "" {
			m.searchAdvance(-1)
		}
		return m, nil

	case "c":
		return m.enterInput(modeChat, "chat> "), nil

	case "C":
		return m.enterInput(modeContext, "context path/url> "), nil

	case "i", "I":
		if !m.interviewMode {
			return m, nil
		}
		return m.toggleInterview()

	case "y":
		if err := clipboard.WriteAll(strings.Join(m.finals, "\n")); err != nil {
			return m.pushStatus("Copy failed: "+err.Error(), 4*time.Second, false)
		}
		return m.pushStatus("Transcript copied.", 2*time.Second, false)

	case "j":
		m.scroll(1)
		return m, nil

	case "k":
		m.scroll(-1)
		return m, nil

	case "/":
		return m.enterInput(modeSearch, "search> "), nil

	case "\\":
		return m.enterInput(modeFilter, "filter> "), nil

	case "tab":
		if m.activePane == "left" {
			m.activePane = "right"
			m.rightFollow = true
			return m.pushStatus("Analysis pane focused (press Esc to return).", 3*time.Second, false)
		}
		m.activePane = "left"
		return m.pushStatus("Transcript pane focused.", 3*time.Second, false)

	case "esc":
		if m.statusSticky {
			m.status = ""
			m.statusSticky = false
			return m, nil
		}
		if m.activePane == "right" {
			m.activePane = "left"
		}
		m.status = ""
		return m, nil
	}
	return m, nil
}

func (m tuiModel) enterInput(mode inputMode, prompt string) tuiModel {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue("")
	m.input.Focus()
	return m
}

func (m tuiModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.input.Blur()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = modeNone
		m.input.Blur()
		return m.submitInput(mode, value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tuiModel) submitInput(mode inputMode, value string) (tea.Model, tea.Cmd) {
	switch mode {
	case modeNote:
		if value != "" {
			m.eventLog.AppendNote(value)
			return m.pushStatus("Note added.", 2*time.Second, false)
		}
		return m, nil

	case modeChat:
		if value == "" {
			return m, nil
		}
		if m.client == nil {
			m.chats = append(m.chats, chatEntry{question: value, answer: "Chatbot disabled. Set OPENAI_API_KEY and -llm-model."})
			return m.pushStatus("Chatbot disabled; set OPENAI_API_KEY and -llm-model.", 0, true)
		}
		id := len(m.chats)
		history := settledExchanges(m.chats)
		m.chats = append(m.chats, chatEntry{question: value, pending: true})
		finals := append([]string(nil), m.finals...)
		return m, m.chatCmd(id, value, finals, history)

	case modeContext:
		if value == "" {
			return m.pushStatus("Context entry cancelled.", 3*time.Second, false)
		}
		id, ok := contextstore.CanonicalID(value)
		if !ok {
			return m.pushStatus("Invalid context path or URL.", 4*time.Second, true)
		}
		if m.store.Mounted(id) {
			return m.pushStatus("Context already loaded.", 4*time.Second, false)
		}
		model, cmd := m.pushStatus("Loading context…", 2*time.Second, false)
		return model, tea.Batch(cmd, mountCmd(m.store, value))

	case modeSearch:
		m.search = value
		m.searchIdx = -1
		if value != "" {
			m.searchAdvance(1)
		}
		return m, nil

	case modeFilter:
		m.filter = value
		m.leftFollow = true
		m.leftOffset = m.leftMaxOffset()
		return m, nil
	}
	return m, nil
}

func settledExchanges(chats []chatEntry) []analysis.Exchange {
	var out []analysis.Exchange
	for _, c := range chats {
		if !c.pending {
			out = append(out, analysis.Exchange{Question: c.question, Answer: c.answer})
		}
	}
	return out
}

func (m tuiModel) chatCmd(id int, question string, finals []string, history []analysis.Exchange) tea.Cmd {
	client := m.client
	store := m.store
	prompt := m.chatPrompt
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		bundle, labels := store.Bundle()
		ans, err := client.Chat(ctx, prompt, question, finals, history, bundle, labels)
		if err != nil {
			log.Errorf("chat request failed: %v", err)
			ans = "(No answer returned)"
		}
		return chatAnswerMsg{id: id, text: ans}
	}
}

func mountCmd(store *contextstore.Store, raw string) tea.Cmd {
	return func() tea.Msg {
		mounted, err := store.Mount(raw)
		if err != nil {
			log.Errorf("context mount failed: %v", err)
			return contextMountedMsg{err: err}
		}
		labels := make([]string, len(mounted))
		for i, src := range mounted {
			labels[i] = src.Label
		}
		log.Infof("context mounted: %s", strings.Join(labels, ", "))
		return contextMountedMsg{labels: labels}
	}
}

func (m tuiModel) toggleInterview() (tea.Model, tea.Cmd) {
	if !m.capturing {
		m.capturing = true
		m.captureStart = len(m.finals)
		return m.pushStatus("Interview capture started.", 2*time.Second, false)
	}
	m.capturing = false
	question := strings.TrimSpace(strings.Join(m.finals[m.captureStart:], " "))
	if question == "" {
		return m.pushStatus("No question captured.", 3*time.Second, false)
	}
	if m.client == nil {
		m.qas = append(m.qas, session.QA{Question: question, Answer: "(LLM backend not configured)"})
		return m, nil
	}
	m.answering = true
	client := m.client
	store := m.store
	prompt := m.interviewPrompt
	if prompt == "" {
		prompt = "You are an interview assistant."
	}
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		bundle, labels := store.Bundle()
		ans, err := client.CompleteWithPrompt(ctx, prompt, question, bundle, labels)
		if err != nil {
			log.Errorf("interview answer failed: %v", err)
			ans = "(No answer returned)"
		}
		return interviewAnswerMsg{question: question, answer: ans}
	}
}

// layout geometry

func (m tuiModel) bodyHeight() int {
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

func (m tuiModel) leftWidth() int {
	const minPane = 10
	w := m.width * 58 / 100
	if m.width >= minPane*2 {
		if w < minPane {
			w = minPane
		}
		if w > m.width-minPane {
			w = m.width - minPane
		}
		return w
	}
	if m.width > 1 {
		return m.width - 1
	}
	return 1
}

func (m tuiModel) visibleFinals() []string {
	if m.filter == "" {
		return m.finals
	}
	low := strings.ToLower(m.filter)
	var out []string
	for _, f := range m.finals {
		if strings.Contains(strings.ToLower(f), low) {
			out = append(out, f)
		}
	}
	return out
}

func (m tuiModel) leftRows() int {
	rows := m.bodyHeight()
	if _, ok := m.eventLog.Partial(); ok {
		rows-- // last row is reserved for the live partial
	}
	if rows < 0 {
		rows = 0
	}
	return rows
}

func (m tuiModel) leftLines() []bulletLine {
	return wrapBulleted(m.visibleFinals(), m.leftWidth()-2, "• ")
}

func (m tuiModel) leftMaxOffset() int {
	n := len(m.leftLines()) - m.leftRows()
	if n < 0 {
		return 0
	}
	return n
}

func (m *tuiModel) scroll(delta int) {
	if m.activePane == "left" {
		maxOff := m.leftMaxOffset()
		m.leftFollow = false
		m.leftOffset += delta
		if m.leftOffset < 0 {
			m.leftOffset = 0
		}
		if m.leftOffset >= maxOff {
			m.leftOffset = maxOff
			m.leftFollow = true
		}
		return
	}
	m.rightFollow = false
	m.rightOffset += delta
	if m.rightOffset < 0 {
		m.rightOffset = 0
	}
}

func (m *tuiModel) clampOffsets() {
	if maxOff := m.leftMaxOffset(); m.leftOffset > maxOff {
		m.leftOffset = maxOff
	}
}

func (m *tuiModel) searchAdvance(dir int) {
	lines := m.leftLines()
	total := len(lines)
	if total == 0 || m.search == "" {
		return
	}
	q := strings.ToLower(m.search)
	start := m.searchIdx + dir
	if m.searchIdx == -1 {
		if dir > 0 {
			start = 0
		} else {
			start = total - 1
		}
	}
	for i := 0; i < total; i++ {
		j := ((start+dir*i)%total + total) % total
		if strings.Contains(strings.ToLower(lines[j].text), q) {
			m.searchIdx = j
			m.leftFollow = false
			maxOff := m.leftMaxOffset()
			m.leftOffset = j
			if m.leftOffset > maxOff {
				m.leftOffset = maxOff
			}
			return
		}
	}
	m.searchIdx = -1
}

// rendering

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.width < minWidth || m.height < minHeight {
		return fmt.Sprintf("Terminal too small (%dx%d, need %dx%d)", m.width, m.height, minWidth, minHeight)
	}

	focus := "Transcript"
	if m.activePane == "right" {
		focus = "Analysis"
	}
	title := padLine(fmt.Sprintf("live-assistant  Focus:%s", focus), m.width)

	leftW := m.leftWidth()
	rightW := m.width - leftW
	body := m.bodyHeight()

	left := m.renderLeft(leftW-2, body)
	right := m.renderRight(rightW-1, body)

	var rows []string
	for i := 0; i < body; i++ {
		l, r := "", ""
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		rows = append(rows, padANSI(l, leftW-1)+sepStyle.Render("│")+r)
	}

	footer := m.renderFooter()

	return titleStyle.Render(title) + "\n" +
		strings.Join(rows, "\n") + "\n" +
		footer
}

func (m tuiModel) renderLeft(width, body int) []string {
	var out []string

	rows := body
	partial, hasPartial := m.eventLog.Partial()
	if hasPartial {
		rows--
	}

	lines := m.leftLines()
	offset := m.leftOffset
	if m.leftFollow {
		offset = m.leftMaxOffset()
	}
	if offset > len(lines) {
		offset = len(lines)
	}
	end := offset + rows
	if end > len(lines) {
		end = len(lines)
	}
	for _, bl := range lines[offset:end] {
		seg := truncLine(bl.text, width)
		switch {
		case m.search != "" && strings.Contains(strings.ToLower(bl.text), strings.ToLower(m.search)):
			seg = matchStyle.Render(seg)
		case bl.question:
			seg = qStyle.Render(seg)
		default:
			seg = leftStyle.Render(seg)
		}
		out = append(out, seg)
	}
	for len(out) < rows {
		out = append(out, "")
	}

	if hasPartial {
		text := partial.Text
		if len(text) > width-1 && width > 1 {
			text = text[:width-1]
		}
		out = append(out, partialStyle.Render(text+"…"))
	}
	return out
}

func (m tuiModel) renderRight(width, body int) []string {
	var lines []string
	add := func(text string, style lipgloss.Style) {
		for _, seg := range wrapText(text, width) {
			lines = append(lines, style.Render(seg))
		}
	}
	blank := func() { lines = append(lines, "") }

	var header []string
	if m.asrNotice != "" {
		header = append(header, m.asrNotice)
	}
	if m.captureLost {
		header = append(header, "capture lost")
	}
	if m.interviewMode {
		state := "idle"
		if m.capturing {
			state = "capturing"
		} else if m.answering {
			state = "answering " + m.spin.View()
		}
		header = append(header, "Interview: "+state)
	}
	if n := len(m.store.Sources()); n > 0 {
		header = append(header, fmt.Sprintf("CTX: %d", n))
	}
	if m.client != nil {
		state := "idle"
		if hasPending(m.chats) {
			state = "pending " + m.spin.View()
		} else if len(m.chats) > 0 {
			state = "ready"
		}
		header = append(header, "Chat: "+state)
	}
	if len(header) > 0 {
		add(strings.Join(header, " · "), boldRight)
		blank()
	}

	if m.status != "" {
		add(m.status, statusStyle)
		blank()
	}

	analysisText := "Waiting for analysis..."
	if m.sched == nil {
		analysisText = "Analysis unavailable. Set OPENAI_API_KEY to enable live analysis."
		if m.interviewMode {
			analysisText = "Interview mode: press 'i' to capture a question; press 'i' again to stop and generate an answer."
		}
	} else if snap := m.sched.Snapshot(); snap != nil {
		analysisText = snap.Text
	}
	for _, line := range strings.Split(analysisText, "\n") {
		add(line, rightStyle)
	}

	if len(m.chats) > 0 {
		blank()
		header := "Chatbot"
		if m.chatPromptLabel != "" && m.chatPromptLabel != "builtin.chatbot" {
			header = "Chatbot [" + m.chatPromptLabel + "]"
		}
		add(header, boldRight)
		chats := m.chats
		if len(chats) > 12 {
			chats = chats[len(chats)-12:]
		}
		for _, c := range chats {
			add("You> "+c.question, rightStyle)
			if c.pending {
				add("Bot> "+m.spin.View(), pendingStyle)
			} else {
				ans := c.answer
				if ans == "" {
					ans = "(No answer)"
				}
				add("Bot> "+ans, rightStyle)
			}
			blank()
		}
	}

	if len(m.qas) > 0 {
		blank()
		add("Interview Q&A", boldRight)
		for i, qa := range m.qas {
			add(fmt.Sprintf("Q%d. %s", i+1, qa.Question), rightStyle)
			add(qa.Answer, rightStyle)
			blank()
		}
	}

	offset := m.rightOffset
	maxOff := len(lines) - body
	if maxOff < 0 {
		maxOff = 0
	}
	if m.rightFollow || offset > maxOff {
		offset = maxOff
	}
	end := offset + body
	if end > len(lines) {
		end = len(lines)
	}
	return lines[offset:end]
}

func (m tuiModel) renderFooter() string {
	if m.mode != modeNone {
		return footerStyle.Render(padANSI(m.input.View(), m.width))
	}
	elapsed := formatElapsed(m.rec.Elapsed())
	footer := fmt.Sprintf("q Quit  m Mark  n Note  c Chat  C Context  Tab focus  Esc back  / search (n/N next/prev)  \\ filter  j/k scroll  y copy   t=%s", elapsed)
	return footerStyle.Render(padLine(footer, m.width))
}

func hasPending(chats []chatEntry) bool {
	for _, c := range chats {
		if c.pending {
			return true
		}
	}
	return false
}

func padLine(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// padANSI pads a styled line to width using its printable width.
func padANSI(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

func truncLine(s string, width int) string {
	if width > 0 && len(s) > width {
		return s[:width]
	}
	return s
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
