package events

import "time"

// Local event names.
const (
	NameListenStateChanged = "listen-state-changed"
	NameAnalysisDone       = "analysis-done"
	NameTranscriptChunk    = "transcript-chunk"
	NameTranscriptUpdated  = "transcript-updated"
)

// Event is one local notification.
type Event struct {
	Sequence  uint64    `json:"seq"`
	Timestamp time.Time `json:"ts"`
	Name      string    `json:"name"`
	Payload   any       `json:"payload"`
}

// ListenState is the payload of listen-state-changed.
type ListenState struct {
	IsListening bool `json:"is_listening"`
}

// AnalysisDone is the payload of analysis-done.
type AnalysisDone struct {
	Status string `json:"status"`
}

// TranscriptChunk is the payload of transcript-chunk.
type TranscriptChunk struct {
	Text        string `json:"text"`
	Speaker     string `json:"speaker"`
	TimestampMs uint32 `json:"timestamp_ms"`
	IsFinal     bool   `json:"is_final"`
}

// TranscriptUpdated is the payload of transcript-updated.
type TranscriptUpdated struct {
	SessionID uint32 `json:"session_id"`
}

// Emitter delivers a named payload to the interface layer. Implementations
// must not block the caller on consumers and never report failure.
type Emitter interface {
	Emit(name string, payload any)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(name string, payload any)

// Emit calls f.
func (f EmitterFunc) Emit(name string, payload any) {
	if f != nil {
		f(name, payload)
	}
}
