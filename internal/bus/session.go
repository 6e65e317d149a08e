package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"voiceforge-desktop/internal/logging"
	"voiceforge-desktop/internal/services"
)

// Dialer opens a session-bus connection.
type Dialer func(ctx context.Context) (*dbus.Conn, error)

// DialSession connects to the user's session bus with a private connection.
// ctx only gates the dial. The connection outlives it and stays open until
// Session.Close.
func DialSession(ctx context.Context) (*dbus.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return dbus.ConnectSessionBus()
}

// Option configures a Session.
type Option func(*Session)

// WithDialer overrides how connections are opened.
func WithDialer(d Dialer) Option {
	return func(s *Session) {
		if d != nil {
			s.dial = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSignalBuffer sets the per-subscription channel capacity.
func WithSignalBuffer(size int) Option {
	return func(s *Session) {
		if size > 0 {
			s.signalBuffer = size
		}
	}
}

// Session lazily shares one connection between all callers.
type Session struct {
	endpoint     Endpoint
	dial         Dialer
	logger       *slog.Logger
	signalBuffer int

	mu   sync.Mutex
	conn *dbus.Conn
}

// NewSession constructs a Session for endpoint. No connection is made until
// the first call or subscription.
func NewSession(endpoint Endpoint, opts ...Option) *Session {
	s := &Session{
		endpoint:     endpoint,
		dial:         DialSession,
		logger:       logging.NewNop(),
		signalBuffer: 64,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "bus")
	return s
}

// Endpoint returns the fixed endpoint identity.
func (s *Session) Endpoint() Endpoint {
	return s.endpoint
}

// Conn returns the shared connection, dialing it on first use. A failed dial
// is not remembered; the next caller retries.
func (s *Session) Conn(ctx context.Context) (*dbus.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		if s.conn.Connected() {
			return s.conn, nil
		}
		_ = s.conn.Close()
		s.conn = nil
		s.logger.Debug("session bus connection lost, redialing", logging.String("endpoint", s.endpoint.String()))
	}
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrConnection, "connect", fmt.Sprintf("session bus connection failed: %v", err), err)
	}
	s.conn = conn
	s.logger.Debug("session bus connected", logging.String("endpoint", s.endpoint.String()))
	return conn, nil
}

// Call performs one request/reply against the endpoint and returns the raw
// reply body.
func (s *Session) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	conn, err := s.Conn(ctx)
	if err != nil {
		return nil, err
	}
	obj := conn.Object(s.endpoint.Service, s.endpoint.Path)
	call := obj.CallWithContext(ctx, s.endpoint.Method(method), 0, args...)
	if call.Err != nil {
		return nil, classifyCallError(method, call.Err)
	}
	return call.Body, nil
}

func classifyCallError(method string, err error) error {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		return services.Wrap(services.ErrTransport, method, dbusErr.Error(), err)
	}
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) && dbusErrPtr != nil {
		return services.Wrap(services.ErrTransport, method, dbusErrPtr.Error(), err)
	}
	if errors.Is(err, dbus.ErrClosed) {
		return services.Wrap(services.ErrConnection, method, "", err)
	}
	return services.Wrap(services.ErrTransport, method, "", err)
}

// Subscribe installs a match rule for member and returns its stream.
func (s *Session) Subscribe(ctx context.Context, member string) (*Subscription, error) {
	if !ValidMember(member) {
		return nil, services.Wrap(services.ErrValidation, "subscribe", fmt.Sprintf("invalid signal member %q", member), nil)
	}
	conn, err := s.Conn(ctx)
	if err != nil {
		return nil, err
	}
	opts := []dbus.MatchOption{
		dbus.WithMatchSender(s.endpoint.Service),
		dbus.WithMatchObjectPath(s.endpoint.Path),
		dbus.WithMatchInterface(s.endpoint.Interface),
		dbus.WithMatchMember(member),
	}
	if err := conn.AddMatchSignalContext(ctx, opts...); err != nil {
		return nil, services.Wrap(services.ErrTransport, "subscribe", fmt.Sprintf("add match for %s: %v", member, err), err)
	}
	ch := make(chan *dbus.Signal, s.signalBuffer)
	conn.Signal(ch)
	s.logger.Debug("signal subscribed",
		logging.String(logging.FieldSignal, member),
		logging.String("rule", s.endpoint.MatchRule(member)),
	)
	return &Subscription{
		member: member,
		name:   s.endpoint.Method(member),
		path:   s.endpoint.Path,
		conn:   conn,
		ch:     ch,
		opts:   opts,
	}, nil
}

// Close tears down the shared connection. Open subscription streams end.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
