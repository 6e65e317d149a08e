package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"voiceforge-desktop/internal/events"
)

// Backend is the subset of the command relay the monitor drives.
// *commands.Relay satisfies it.
type Backend interface {
	Ping(ctx context.Context) (string, error)
	IsListening(ctx context.Context) (bool, error)
	ListenStart(ctx context.Context) error
	ListenStop(ctx context.Context) error
	Analyze(ctx context.Context, seconds uint32, template *string) (string, error)
	GetStreamingTranscript(ctx context.Context) (string, error)
	GetSessions(ctx context.Context, limit uint32) (string, error)
}

// EventSource delivers local events. *events.Hub satisfies it.
type EventSource interface {
	Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]events.Event, uint64, error)
}

// Options tunes the monitor.
type Options struct {
	Endpoint        string
	AnalyzeSeconds  uint32
	AnalyzeTemplate string
	PollInterval    time.Duration
	SessionsLimit   uint32
}

const (
	maxEventLines   = 8
	maxLiveChunks   = 200
	fetchBatch      = 64
	fetchRetryDelay = time.Second
	// chromeHeight is the number of rows outside the transcript viewport.
	chromeHeight = 9 + maxEventLines
)

type pingMsg struct {
	reply string
	err   error
}

type listeningMsg struct {
	listening bool
	err       error
}

type listenToggledMsg struct {
	started bool
	err     error
}

type analyzeMsg struct {
	result string
	err    error
}

type transcriptMsg struct {
	view streamingView
	err  error
}

type sessionsMsg struct {
	count int
	err   error
}

type eventsMsg struct {
	events []events.Event
	cursor uint64
	err    error
}

type pollTickMsg struct{}

type fetchRetryMsg struct{}

// Model is the top-level bubbletea model for the monitor.
type Model struct {
	ctx     context.Context
	backend Backend
	source  EventSource
	opts    Options
	keys    KeyMap
	theme   Theme

	width  int
	height int
	ready  bool

	spinner    spinner.Model
	transcript viewport.Model
	busy       string

	daemonUp   bool
	listening  bool
	sessions   int
	partial    string
	finals     []string
	live       []string
	analysis   string
	lastStatus string
	lastErr    string
	eventLines []string
	cursor     uint64
}

// NewModel builds a monitor bound to backend and source. ctx bounds every
// command the monitor issues.
func NewModel(ctx context.Context, backend Backend, source EventSource, opts Options) Model {
	if opts.AnalyzeSeconds == 0 {
		opts.AnalyzeSeconds = 30
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 1500 * time.Millisecond
	}
	if opts.SessionsLimit == 0 {
		opts.SessionsLimit = 20
	}
	return Model{
		ctx:        ctx,
		backend:    backend,
		source:     source,
		opts:       opts,
		keys:       DefaultKeyMap,
		theme:      DefaultTheme,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		transcript: viewport.New(80, 5),
	}
}

// Init starts the spinner, the first refresh, the event long-poll and the
// transcript poll ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh(), m.fetchEvents(), m.pollTick())
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pingMsg:
		m.daemonUp = msg.err == nil && msg.reply == "pong"
		m.setErr(msg.err)
		return m, nil

	case listeningMsg:
		if msg.err != nil {
			m.setErr(msg.err)
			return m, nil
		}
		m.listening = msg.listening
		if m.listening {
			return m, m.fetchTranscript()
		}
		return m, nil

	case listenToggledMsg:
		m.busy = ""
		if msg.err != nil {
			m.setErr(msg.err)
			return m, nil
		}
		m.lastErr = ""
		m.listening = msg.started
		if msg.started {
			m.live = nil
			m.partial = ""
		}
		m.syncTranscript()
		return m, nil

	case analyzeMsg:
		m.busy = ""
		if msg.err != nil {
			m.setErr(msg.err)
			return m, nil
		}
		m.lastErr = ""
		m.analysis = msg.result
		return m, m.fetchSessions()

	case transcriptMsg:
		if msg.err != nil {
			m.setErr(msg.err)
			return m, nil
		}
		m.finals = msg.view.Finals
		m.partial = msg.view.Partial
		m.syncTranscript()
		return m, nil

	case sessionsMsg:
		if msg.err != nil {
			m.setErr(msg.err)
			return m, nil
		}
		m.sessions = msg.count
		return m, nil

	case eventsMsg:
		if msg.err != nil {
			if m.ctx.Err() != nil {
				return m, nil
			}
			m.setErr(msg.err)
			return m, tea.Tick(fetchRetryDelay, func(time.Time) tea.Msg { return fetchRetryMsg{} })
		}
		m.cursor = msg.cursor
		cmds := []tea.Cmd{m.fetchEvents()}
		for _, evt := range msg.events {
			cmds = append(cmds, m.applyEvent(evt))
		}
		return m, tea.Batch(cmds...)

	case fetchRetryMsg:
		return m, m.fetchEvents()

	case pollTickMsg:
		cmds := []tea.Cmd{m.pollTick()}
		if m.listening {
			cmds = append(cmds, m.fetchTranscript())
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Listen):
		if m.busy != "" {
			return m, nil
		}
		if m.listening {
			m.busy = "stopping"
			return m, m.listenStop()
		}
		m.busy = "starting"
		return m, m.listenStart()
	case key.Matches(msg, m.keys.Analyze):
		if m.busy != "" {
			return m, nil
		}
		m.busy = "analyzing"
		return m, m.analyze()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	}
	var cmd tea.Cmd
	m.transcript, cmd = m.transcript.Update(msg)
	return m, cmd
}

// applyEvent folds one local event into the model.
func (m *Model) applyEvent(evt events.Event) tea.Cmd {
	m.eventLines = append(m.eventLines, formatEvent(evt))
	if extra := len(m.eventLines) - maxEventLines; extra > 0 {
		m.eventLines = m.eventLines[extra:]
	}
	switch payload := evt.Payload.(type) {
	case events.ListenState:
		m.listening = payload.IsListening
	case events.AnalysisDone:
		m.lastStatus = payload.Status
	case events.TranscriptChunk:
		if payload.IsFinal {
			m.live = append(m.live, fmt.Sprintf("%s: %s", payload.Speaker, payload.Text))
			if extra := len(m.live) - maxLiveChunks; extra > 0 {
				m.live = m.live[extra:]
			}
			m.partial = ""
		} else {
			m.partial = payload.Text
		}
		m.syncTranscript()
	case events.TranscriptUpdated:
		return m.fetchSessions()
	}
	return nil
}

func (m *Model) setErr(err error) {
	if err != nil {
		m.lastErr = err.Error()
	}
}

func (m *Model) resize() {
	m.transcript.Width = max(m.width, 20)
	m.transcript.Height = max(m.height-chromeHeight, 3)
	m.syncTranscript()
}

func (m *Model) syncTranscript() {
	lines := slices.Clone(m.finals)
	if len(lines) == 0 {
		lines = slices.Clone(m.live)
	}
	if m.partial != "" {
		lines = append(lines, m.theme.Muted.Render("… "+m.partial))
	}
	if len(lines) == 0 {
		lines = append(lines, m.theme.Muted.Render("No transcript yet."))
	}
	m.transcript.SetContent(strings.Join(lines, "\n"))
	m.transcript.GotoBottom()
}

func (m Model) refresh() tea.Cmd {
	return tea.Batch(m.ping(), m.checkListening(), m.fetchSessions())
}

func (m Model) ping() tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		reply, err := backend.Ping(ctx)
		return pingMsg{reply: reply, err: err}
	}
}

func (m Model) checkListening() tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		listening, err := backend.IsListening(ctx)
		return listeningMsg{listening: listening, err: err}
	}
}

func (m Model) listenStart() tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		return listenToggledMsg{started: true, err: backend.ListenStart(ctx)}
	}
}

func (m Model) listenStop() tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		return listenToggledMsg{started: false, err: backend.ListenStop(ctx)}
	}
}

func (m Model) analyze() tea.Cmd {
	backend, ctx := m.backend, m.ctx
	seconds := m.opts.AnalyzeSeconds
	var template *string
	if m.opts.AnalyzeTemplate != "" {
		t := m.opts.AnalyzeTemplate
		template = &t
	}
	return func() tea.Msg {
		result, err := backend.Analyze(ctx, seconds, template)
		return analyzeMsg{result: result, err: err}
	}
}

func (m Model) fetchTranscript() tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		raw, err := backend.GetStreamingTranscript(ctx)
		if err != nil {
			return transcriptMsg{err: err}
		}
		view, err := parseStreamingTranscript(raw)
		return transcriptMsg{view: view, err: err}
	}
}

func (m Model) fetchSessions() tea.Cmd {
	backend, ctx, limit := m.backend, m.ctx, m.opts.SessionsLimit
	return func() tea.Msg {
		raw, err := backend.GetSessions(ctx, limit)
		if err != nil {
			return sessionsMsg{err: err}
		}
		count, err := countSessions(raw)
		return sessionsMsg{count: count, err: err}
	}
}

func (m Model) fetchEvents() tea.Cmd {
	if m.source == nil {
		return nil
	}
	source, ctx, cursor := m.source, m.ctx, m.cursor
	return func() tea.Msg {
		batch, next, err := source.Fetch(ctx, cursor, fetchBatch, true)
		return eventsMsg{events: batch, cursor: next, err: err}
	}
}

func (m Model) pollTick() tea.Cmd {
	return tea.Tick(m.opts.PollInterval, func(time.Time) tea.Msg { return pollTickMsg{} })
}

func formatEvent(evt events.Event) string {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		payload = []byte("?")
	}
	return fmt.Sprintf("%s #%d %s %s", evt.Timestamp.Local().Format("15:04:05"), evt.Sequence, evt.Name, payload)
}
