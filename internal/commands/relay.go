package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"voiceforge-desktop/internal/bus"
	"voiceforge-desktop/internal/logging"
	"voiceforge-desktop/internal/services"
)

// Caller issues one request/reply call against the daemon endpoint.
// *bus.Session satisfies it.
type Caller interface {
	Call(ctx context.Context, method string, args ...any) ([]any, error)
}

// Exporter renders a stored session to a file through the external CLI.
type Exporter interface {
	Export(ctx context.Context, sessionID uint32, format string) (string, error)
}

// Option configures the relay.
type Option func(*Relay)

// WithTimeout bounds every bus call. Zero leaves calls unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Relay) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithExporter wires the session exporter.
func WithExporter(exporter Exporter) Option {
	return func(r *Relay) {
		r.exporter = exporter
	}
}

// Relay forwards interface operations to the daemon.
type Relay struct {
	caller   Caller
	exporter Exporter
	timeout  time.Duration
	logger   *slog.Logger
}

// New constructs a relay over caller.
func New(caller Caller, opts ...Option) (*Relay, error) {
	if caller == nil {
		return nil, errors.New("commands: caller required")
	}
	r := &Relay{caller: caller, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "commands")
	return r, nil
}

func (r *Relay) invoke(ctx context.Context, method string, args ...any) ([]any, error) {
	ctx = services.WithMethod(ctx, method)
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	logger := logging.WithContext(ctx, r.logger)

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	body, err := r.caller.Call(callCtx, method, args...)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = services.Wrap(services.ErrTimeout, method, fmt.Sprintf("%s timed out after %s", method, r.timeout), err)
		}
		err = uniform(method, err)
		logger.Debug("daemon call failed",
			logging.Duration("elapsed", elapsed),
			logging.String("error_kind", services.Kind(err)),
			logging.Error(err),
		)
		return nil, err
	}
	logger.Debug("daemon call completed", logging.Duration("elapsed", elapsed), logging.Int("reply_values", len(body)))
	return body, nil
}

func uniform(method string, err error) error {
	var typed *services.Error
	if errors.As(err, &typed) {
		return err
	}
	return services.Wrap(services.ErrTransport, method, "", err)
}

func (r *Relay) callString(ctx context.Context, method string, args ...any) (string, error) {
	body, err := r.invoke(ctx, method, args...)
	if err != nil {
		return "", err
	}
	var out string
	if err := bus.Store(body, &out); err != nil {
		return "", decodeError(method, err)
	}
	return out, nil
}

func (r *Relay) callBool(ctx context.Context, method string, args ...any) (bool, error) {
	body, err := r.invoke(ctx, method, args...)
	if err != nil {
		return false, err
	}
	var out bool
	if err := bus.Store(body, &out); err != nil {
		return false, decodeError(method, err)
	}
	return out, nil
}

func (r *Relay) callUnit(ctx context.Context, method string, args ...any) error {
	_, err := r.invoke(ctx, method, args...)
	return err
}

func decodeError(method string, err error) error {
	return services.Wrap(services.ErrDecode, method, fmt.Sprintf("decode %s reply: %v", method, err), err)
}
