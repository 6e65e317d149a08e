package logging

import (
	"log/slog"
	"time"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func Uint64(key string, value uint64) Attr { return slog.Uint64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Error keys err under "error". A nil err is still logged so the line shape
// does not change.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func attrsToArgs(attrs []Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

// NewNop returns a logger that drops everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with component. A nil logger yields a nop.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

const defaultHint = "see the voiceforge-desktop log for details"

// Failure describes a bridge operation that failed or degraded. EventType is
// a stable snake_case key for filtering; Hint tells the user what to check;
// Impact says what stops working. An empty Hint falls back to a generic one
// and an empty Impact is omitted.
type Failure struct {
	EventType string
	Hint      string
	Impact    string
}

func (f Failure) attrs(extra []Attr) []any {
	hint := f.Hint
	if hint == "" {
		hint = defaultHint
	}
	args := make([]any, 0, len(extra)+3)
	args = append(args, String(FieldEventType, f.EventType), String(FieldErrorHint, hint))
	if f.Impact != "" {
		args = append(args, String(FieldImpact, f.Impact))
	}
	return append(args, attrsToArgs(extra)...)
}

// Warn logs a degraded operation.
func (f Failure) Warn(logger *slog.Logger, msg string, attrs ...Attr) {
	if logger != nil {
		logger.Warn(msg, f.attrs(attrs)...)
	}
}

// Error logs a failed operation.
func (f Failure) Error(logger *slog.Logger, msg string, attrs ...Attr) {
	if logger != nil {
		logger.Error(msg, f.attrs(attrs)...)
	}
}
