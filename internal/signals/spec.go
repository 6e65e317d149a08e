package signals

import (
	"fmt"
	"strings"
	"sync"

	"voiceforge-desktop/internal/bus"
	"voiceforge-desktop/internal/events"
)

// Decoder turns a signal body into a local event payload.
type Decoder func(body []any) (any, error)

// Spec binds a daemon signal member to the local event it produces.
type Spec struct {
	Member string
	Event  string
	Decode Decoder
}

// Built-in daemon signals.
var (
	ListenStateChanged = Spec{Member: "ListenStateChanged", Event: events.NameListenStateChanged, Decode: decodeListenState}
	AnalysisDone       = Spec{Member: "AnalysisDone", Event: events.NameAnalysisDone, Decode: decodeAnalysisDone}
	TranscriptChunk    = Spec{Member: "TranscriptChunk", Event: events.NameTranscriptChunk, Decode: decodeTranscriptChunk}
	TranscriptUpdated  = Spec{Member: "TranscriptUpdated", Event: events.NameTranscriptUpdated, Decode: decodeTranscriptUpdated}
)

func decodeListenState(body []any) (any, error) {
	var isListening bool
	if err := bus.Store(body, &isListening); err != nil {
		return nil, err
	}
	return events.ListenState{IsListening: isListening}, nil
}

func decodeAnalysisDone(body []any) (any, error) {
	var status string
	if err := bus.Store(body, &status); err != nil {
		return nil, err
	}
	return events.AnalysisDone{Status: status}, nil
}

func decodeTranscriptChunk(body []any) (any, error) {
	var chunk events.TranscriptChunk
	if err := bus.Store(body, &chunk.Text, &chunk.Speaker, &chunk.TimestampMs, &chunk.IsFinal); err != nil {
		return nil, err
	}
	return chunk, nil
}

func decodeTranscriptUpdated(body []any) (any, error) {
	var sessionID uint32
	if err := bus.Store(body, &sessionID); err != nil {
		return nil, err
	}
	return events.TranscriptUpdated{SessionID: sessionID}, nil
}

// Registry maps signal members to their specs.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec
	order []string
}

// NewRegistry returns a registry seeded with the built-in signals.
func NewRegistry() *Registry {
	r := &Registry{specs: make(map[string]Spec)}
	for _, spec := range []Spec{ListenStateChanged, AnalysisDone, TranscriptChunk, TranscriptUpdated} {
		r.specs[spec.Member] = spec
		r.order = append(r.order, spec.Member)
	}
	return r
}

// Register adds or replaces a spec.
func (r *Registry) Register(spec Spec) error {
	spec.Member = strings.TrimSpace(spec.Member)
	spec.Event = strings.TrimSpace(spec.Event)
	if !bus.ValidMember(spec.Member) {
		return fmt.Errorf("invalid signal member %q", spec.Member)
	}
	if spec.Event == "" {
		return fmt.Errorf("signal %s: event name required", spec.Member)
	}
	if spec.Decode == nil {
		return fmt.Errorf("signal %s: decoder required", spec.Member)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.specs[spec.Member]; !exists {
		r.order = append(r.order, spec.Member)
	}
	r.specs[spec.Member] = spec
	return nil
}

// Lookup returns the spec for member.
func (r *Registry) Lookup(member string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[member]
	return spec, ok
}

// Members lists registered members in registration order.
func (r *Registry) Members() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Resolve returns the specs for enabled members in the given order. An empty
// list selects every registered signal.
func (r *Registry) Resolve(enabled []string) ([]Spec, error) {
	if len(enabled) == 0 {
		enabled = r.Members()
	}
	specs := make([]Spec, 0, len(enabled))
	seen := make(map[string]struct{}, len(enabled))
	for _, member := range enabled {
		if _, dup := seen[member]; dup {
			continue
		}
		seen[member] = struct{}{}
		spec, ok := r.Lookup(member)
		if !ok {
			return nil, fmt.Errorf("unknown signal %q (known: %s)", member, strings.Join(r.Members(), ", "))
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
