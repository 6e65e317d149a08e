package notifications

import (
	"context"
	"log/slog"
	"sync"

	"voiceforge-desktop/internal/events"
	"voiceforge-desktop/internal/logging"
)

const sinkQueue = 32

var notifyFailure = logging.Failure{
	EventType: "notification_failed",
	Hint:      "check notifications.ntfy_topic and network access",
	Impact:    "push notification not delivered",
}

// Sink adapts a Service to events.Sink. Events are queued and sent from one
// goroutine; when the queue is full the event is dropped.
type Sink struct {
	svc    Service
	logger *slog.Logger
	queue  chan events.Event
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewSink starts the sender. It stops when ctx ends or Close is called.
func NewSink(ctx context.Context, svc Service, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Sink{
		svc:    svc,
		logger: logging.NewComponentLogger(logger, "notifications"),
		queue:  make(chan events.Event, sinkQueue),
		done:   make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// Append queues evt without blocking.
func (s *Sink) Append(evt events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- evt:
	default:
		s.logger.Debug("notification queue full; dropping event", logging.String(logging.FieldEvent, evt.Name))
	}
}

// Close stops accepting events and waits for queued ones to be sent.
func (s *Sink) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *Sink) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-s.queue:
			if !ok {
				return
			}
			if err := s.svc.Notify(ctx, evt); err != nil {
				notifyFailure.Warn(s.logger, "notification failed",
					logging.Error(err),
					logging.String(logging.FieldEvent, evt.Name),
				)
			}
		}
	}
}
