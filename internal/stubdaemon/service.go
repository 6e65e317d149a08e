package stubdaemon

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"voiceforge-desktop/internal/bus"
	"voiceforge-desktop/internal/logging"
	"voiceforge-desktop/internal/signals"
)

// AnalyzeMaxSeconds is the largest window Analyze accepts.
const AnalyzeMaxSeconds = 3600

const maxSessions = 500

// Emitter sends a signal from the service object. *dbus.Conn satisfies it.
type Emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...any) error
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEnvelope wraps JSON replies in the versioned success/error envelope.
func WithEnvelope(enabled bool) Option {
	return func(s *Service) {
		s.envelope = enabled
	}
}

// WithChunkInterval sets how often TranscriptChunk is emitted while
// listening. Zero disables chunks.
func WithChunkInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval >= 0 {
			s.chunkInterval = interval
		}
	}
}

// Service implements the daemon methods. Exported methods returning
// *dbus.Error form the bus surface.
type Service struct {
	endpoint      bus.Endpoint
	emitter       Emitter
	logger        *slog.Logger
	envelope      bool
	chunkInterval time.Duration

	analyzeMu sync.Mutex

	mu         sync.Mutex
	listening  bool
	stopChunks chan struct{}
	chunksDone chan struct{}
	chunkCount int
	lastFinal  time.Duration
	partial    string
	finals     []finalChunk
	sessions   []sessionSummary
	details    map[uint32]sessionDetail
	models     map[string]string
}

// New constructs a Service that emits signals through emitter.
func New(endpoint bus.Endpoint, emitter Emitter, opts ...Option) *Service {
	summaries, details := seedSessions(time.Now())
	s := &Service{
		endpoint:      endpoint,
		emitter:       emitter,
		logger:        logging.NewNop(),
		chunkInterval: 1500 * time.Millisecond,
		sessions:      summaries,
		details:       details,
		models:        map[string]string{"stt": "small", "llm": "anthropic/claude-haiku-4-5"},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "stubd")
	return s
}

// Ping answers the liveness probe.
func (s *Service) Ping() (string, *dbus.Error) {
	return "pong", nil
}

// Status returns a one-line summary.
func (s *Service) Status() (string, *dbus.Error) {
	s.mu.Lock()
	listening := s.listening
	count := len(s.sessions)
	s.mu.Unlock()
	state := "idle"
	if listening {
		state = "listening"
	}
	text := fmt.Sprintf("%s | sessions: %d | stt: %s", state, count, s.model("stt"))
	if s.envelope {
		return successJSON(map[string]any{"text": text}), nil
	}
	return text, nil
}

// GetSettings returns the settings object.
func (s *Service) GetSettings() (string, *dbus.Error) {
	return s.reply("settings", mustJSON(settingsFixture)), nil
}

// GetSessions returns up to lastN session summaries, newest first.
func (s *Service) GetSessions(lastN uint32) (string, *dbus.Error) {
	s.mu.Lock()
	n := min(int(lastN), maxSessions, len(s.sessions))
	out := slices.Clone(s.sessions[len(s.sessions)-n:])
	s.mu.Unlock()
	slices.Reverse(out)
	return s.reply("sessions", mustJSON(out)), nil
}

// GetSessionDetail returns segments and analysis for id, or {} when unknown.
func (s *Service) GetSessionDetail(id uint32) (string, *dbus.Error) {
	s.mu.Lock()
	detail, ok := s.details[id]
	s.mu.Unlock()
	payload := "{}"
	if ok {
		payload = mustJSON(detail)
	}
	return s.reply("session_detail", payload), nil
}

// GetAnalytics returns aggregate counters for a period such as "7d".
func (s *Service) GetAnalytics(period string) (string, *dbus.Error) {
	s.mu.Lock()
	sessions := len(s.sessions)
	s.mu.Unlock()
	payload := mustJSON(map[string]any{
		"days":           analyticsDays(period),
		"sessions":       sessions,
		"analyses":       sessions,
		"total_cost_usd": 0.002 * float64(sessions),
	})
	return s.reply("analytics", payload), nil
}

// GetIndexedPaths returns the indexed document paths.
func (s *Service) GetIndexedPaths() (string, *dbus.Error) {
	return s.reply("indexed_paths", mustJSON(indexedPathsFixture)), nil
}

// GetStreamingTranscript returns the current partial text and finals.
func (s *Service) GetStreamingTranscript() (string, *dbus.Error) {
	s.mu.Lock()
	snapshot := streamingTranscript{Partial: s.partial, Finals: slices.Clone(s.finals)}
	s.mu.Unlock()
	if snapshot.Finals == nil {
		snapshot.Finals = []finalChunk{}
	}
	return s.reply("streaming_transcript", mustJSON(snapshot)), nil
}

// GetApiVersion returns the contract version.
func (s *Service) GetApiVersion() (string, *dbus.Error) {
	return schemaVersion, nil
}

// GetCapabilities advertises supported features.
func (s *Service) GetCapabilities() (string, *dbus.Error) {
	features := make(map[string]bool, len(capabilityFeatures)+1)
	for k, v := range capabilityFeatures {
		features[k] = v
	}
	features["envelope_v1"] = s.envelope
	return mustJSON(map[string]any{"api_version": schemaVersion, "features": features}), nil
}

// SwapModel records a model change for "stt" or "llm".
func (s *Service) SwapModel(modelType, modelName string) (string, *dbus.Error) {
	kind := strings.ToLower(strings.TrimSpace(modelType))
	name := strings.TrimSpace(modelName)
	if kind != "stt" && kind != "llm" {
		return "error: model_type must be stt or llm", nil
	}
	if name == "" {
		return "error: model_name is required", nil
	}
	s.mu.Lock()
	s.models[kind] = name
	s.mu.Unlock()
	s.logger.Info("model swapped", logging.String("model_type", kind), logging.String("model_name", name))
	return "ok", nil
}

// IsListening reports the listen state.
func (s *Service) IsListening() (bool, *dbus.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening, nil
}

// ListenStart enters the listening state and announces it.
func (s *Service) ListenStart() *dbus.Error {
	s.mu.Lock()
	if !s.listening {
		s.listening = true
		s.partial = ""
		s.finals = nil
		s.chunkCount = 0
		s.lastFinal = 0
		if s.chunkInterval > 0 {
			s.stopChunks = make(chan struct{})
			s.chunksDone = make(chan struct{})
			go s.chunkLoop(s.stopChunks, s.chunksDone, time.Now())
		}
	}
	s.mu.Unlock()
	s.logger.Info("listening started")
	s.emit(signals.ListenStateChanged.Member, true)
	return nil
}

// ListenStop leaves the listening state. The state signal is always sent.
func (s *Service) ListenStop() *dbus.Error {
	s.stopListening()
	s.logger.Info("listening stopped")
	s.emit(signals.ListenStateChanged.Member, false)
	return nil
}

// Analyze produces a canned analysis of the last seconds of audio.
func (s *Service) Analyze(seconds uint32, template string) (string, *dbus.Error) {
	if seconds < 1 || seconds > AnalyzeMaxSeconds {
		return errorJSON("INVALID_SECONDS", fmt.Sprintf("seconds must be 1..%d, got %d", AnalyzeMaxSeconds, seconds), false), nil
	}
	s.analyzeMu.Lock()
	result := s.recordAnalysis(seconds, strings.TrimSpace(template))
	s.analyzeMu.Unlock()

	s.emit(signals.AnalysisDone.Member, "ok")
	s.emit(signals.TranscriptUpdated.Member, uint32(0))
	if s.envelope {
		return successJSON(map[string]any{"text": result}), nil
	}
	return result, nil
}

// Close stops the chunk ticker.
func (s *Service) Close() error {
	s.stopListening()
	return nil
}

func (s *Service) recordAnalysis(seconds uint32, template string) string {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	var id uint32 = 1
	if n := len(s.sessions); n > 0 {
		id = s.sessions[n-1].ID + 1
	}
	segments := make([]segment, 0, len(s.finals))
	for i, final := range s.finals {
		segments = append(segments, segment{
			StartSec: final.Start,
			EndSec:   final.End,
			Speaker:  fmt.Sprintf("SPEAKER_%02d", i%2),
			Text:     final.Text,
		})
	}
	s.sessions = append(s.sessions, sessionSummary{
		ID:            id,
		StartedAt:     now.Add(-time.Duration(seconds) * time.Second).Format(time.RFC3339),
		EndedAt:       now.Format(time.RFC3339),
		DurationSec:   float64(seconds),
		SegmentsCount: len(segments),
	})
	s.details[id] = sessionDetail{
		Segments: segments,
		Analysis: &analysis{
			Model:           s.models["llm"],
			Questions:       []string{},
			Answers:         []string{},
			Recommendations: []string{"Review the transcript"},
			ActionItems:     []string{},
		},
	}
	if len(s.sessions) > maxSessions {
		drop := s.sessions[0]
		s.sessions = s.sessions[1:]
		delete(s.details, drop.ID)
	}
	summary := fmt.Sprintf("Analysis of the last %ds: %d segments, session %d", seconds, len(segments), id)
	if template != "" {
		summary += fmt.Sprintf(" (template %s)", template)
	}
	return summary
}

func (s *Service) stopListening() {
	s.mu.Lock()
	s.listening = false
	stop, done := s.stopChunks, s.chunksDone
	s.stopChunks, s.chunksDone = nil, nil
	s.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}

func (s *Service) chunkLoop(stop <-chan struct{}, done chan<- struct{}, started time.Time) {
	defer close(done)
	ticker := time.NewTicker(s.chunkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s.emitChunk(now.Sub(started))
		}
	}
}

// emitChunk alternates partial and final chunks between two speakers.
func (s *Service) emitChunk(elapsed time.Duration) {
	s.mu.Lock()
	idx := s.chunkCount
	s.chunkCount++
	text := chunkPhrases[(idx/2)%len(chunkPhrases)]
	speaker := fmt.Sprintf("SPEAKER_%02d", (idx/2)%2)
	final := idx%2 == 1
	if final {
		s.finals = append(s.finals, finalChunk{Text: text, Start: s.lastFinal.Seconds(), End: elapsed.Seconds()})
		s.lastFinal = elapsed
		s.partial = ""
	} else {
		s.partial = text
	}
	s.mu.Unlock()
	s.emit(signals.TranscriptChunk.Member, text, speaker, uint32(elapsed.Milliseconds()), final)
}

func (s *Service) emit(member string, values ...any) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(s.endpoint.Path, s.endpoint.Method(member), values...); err != nil {
		logging.Failure{EventType: "signal_emit_failed", Impact: "clients miss this notification"}.Warn(s.logger, "signal emit failed",
			logging.String(logging.FieldSignal, member),
			logging.Error(err),
		)
	}
}

func (s *Service) model(kind string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.models[kind]
}

func (s *Service) reply(key, payload string) string {
	if !s.envelope {
		return payload
	}
	return wrapKey(key, payload)
}

