package signals

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"voiceforge-desktop/internal/bus"
	"voiceforge-desktop/internal/events"
	"voiceforge-desktop/internal/logging"
)

// Stream yields signal bodies for one subscribed member.
type Stream interface {
	Next(ctx context.Context) ([]any, bool)
	Close() error
}

// Source opens signal streams.
type Source interface {
	Subscribe(ctx context.Context, member string) (Stream, error)
}

// SessionSource adapts a bus session to Source.
type SessionSource struct {
	Session *bus.Session
}

// Subscribe opens a bus subscription for member.
func (s SessionSource) Subscribe(ctx context.Context, member string) (Stream, error) {
	sub, err := s.Session.Subscribe(ctx, member)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// State is a loop's lifecycle position.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateSubscribed State = "subscribed"
	StateRestarting State = "restarting"
	StateEnded      State = "ended"
)

// LoopStatus is a snapshot of one subscription loop.
type LoopStatus struct {
	Member    string `json:"member"`
	Event     string `json:"event"`
	State     State  `json:"state"`
	Emitted   uint64 `json:"emitted"`
	Dropped   uint64 `json:"dropped"`
	Restarts  int    `json:"restarts"`
	LastError string `json:"last_error,omitempty"`
}

// Option configures the relay.
type Option func(*Relay)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRestart restarts ended loops after delay until the relay context ends.
func WithRestart(delay time.Duration) Option {
	return func(r *Relay) {
		r.restart = true
		if delay > 0 {
			r.restartDelay = delay
		}
	}
}

// Relay runs one loop per spec.
type Relay struct {
	source       Source
	emitter      events.Emitter
	specs        []Spec
	logger       *slog.Logger
	restart      bool
	restartDelay time.Duration

	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	status  map[string]*LoopStatus
}

// NewRelay constructs a relay for specs.
func NewRelay(source Source, emitter events.Emitter, specs []Spec, opts ...Option) (*Relay, error) {
	if source == nil {
		return nil, errors.New("signals: source required")
	}
	if emitter == nil {
		return nil, errors.New("signals: emitter required")
	}
	r := &Relay{
		source:       source,
		emitter:      emitter,
		specs:        append([]Spec(nil), specs...),
		logger:       logging.NewNop(),
		restartDelay: 5 * time.Second,
		status:       make(map[string]*LoopStatus, len(specs)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "signals")
	for _, spec := range r.specs {
		r.status[spec.Member] = &LoopStatus{Member: spec.Member, Event: spec.Event, State: StateIdle}
	}
	return r, nil
}

// Start launches every loop. Loops run until their stream ends or ctx is
// cancelled. Start returns immediately.
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return errors.New("signals: relay already started")
	}
	r.started = true
	r.mu.Unlock()

	for _, spec := range r.specs {
		r.wg.Add(1)
		go r.supervise(ctx, spec)
	}
	r.logger.Info("signal relay started", logging.Int("loops", len(r.specs)), logging.Bool("restart", r.restart))
	return nil
}

// Wait blocks until every loop has ended.
func (r *Relay) Wait() {
	r.wg.Wait()
}

// States returns a snapshot of every loop in spec order.
func (r *Relay) States() []LoopStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LoopStatus, 0, len(r.specs))
	for _, spec := range r.specs {
		out = append(out, *r.status[spec.Member])
	}
	return out
}

func (r *Relay) supervise(ctx context.Context, spec Spec) {
	defer r.wg.Done()
	logger := r.logger.With(logging.String(logging.FieldSignal, spec.Member))
	for {
		r.runLoop(ctx, spec, logger)
		if !r.restart || ctx.Err() != nil {
			r.setState(spec.Member, StateEnded)
			return
		}
		r.setState(spec.Member, StateRestarting)
		timer := time.NewTimer(r.restartDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.setState(spec.Member, StateEnded)
			return
		case <-timer.C:
		}
		r.update(spec.Member, func(s *LoopStatus) { s.Restarts++ })
		logger.Info("restarting signal loop", logging.Duration("delay", r.restartDelay))
	}
}

func (r *Relay) runLoop(ctx context.Context, spec Spec, logger *slog.Logger) {
	r.setState(spec.Member, StateConnecting)
	stream, err := r.source.Subscribe(ctx, spec.Member)
	if err != nil {
		r.update(spec.Member, func(s *LoopStatus) { s.LastError = err.Error() })
		logging.Failure{
			EventType: "signal_subscribe_failed",
			Hint:      "check that the daemon is running on the session bus",
			Impact:    "live " + spec.Event + " updates unavailable",
		}.Warn(logger, "signal subscription failed", logging.Error(err))
		return
	}
	defer stream.Close()

	r.setState(spec.Member, StateSubscribed)
	logger.Debug("signal loop subscribed", logging.String(logging.FieldEvent, spec.Event))

	for {
		body, ok := stream.Next(ctx)
		if !ok {
			if ctx.Err() == nil {
				logger.Info("signal stream ended")
			}
			return
		}
		payload, err := spec.Decode(body)
		if err != nil {
			r.update(spec.Member, func(s *LoopStatus) { s.Dropped++ })
			logger.Debug("dropping malformed signal", logging.Error(err))
			continue
		}
		r.emitter.Emit(spec.Event, payload)
		r.update(spec.Member, func(s *LoopStatus) { s.Emitted++ })
	}
}

func (r *Relay) setState(member string, state State) {
	r.update(member, func(s *LoopStatus) { s.State = state })
}

func (r *Relay) update(member string, fn func(*LoopStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.status[member]; ok {
		fn(s)
	}
}
