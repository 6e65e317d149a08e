package services

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrConnection   = errors.New("connection error")
	ErrTransport    = errors.New("transport error")
	ErrDecode       = errors.New("decode error")
	ErrValidation   = errors.New("validation error")
	ErrExternalTool = errors.New("external tool error")
	ErrTimeout      = errors.New("timeout")
)

// Error is the single failure value surfaced to interface callers. Its text is
// the human-readable message only; the marker and cause remain reachable via
// errors.Is and errors.As for classification.
type Error struct {
	Op      string
	Message string
	marker  error
	cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	if e.marker != nil {
		return e.marker.Error()
	}
	return "bridge failure"
}

// Unwrap exposes both the marker and the underlying cause.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	var errs []error
	if e.marker != nil {
		errs = append(errs, e.marker)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// Marker returns the classification sentinel attached to the error.
func (e *Error) Marker() error {
	if e == nil {
		return nil
	}
	return e.marker
}

// Wrap builds a uniform Error tagged with marker. When message is blank the
// cause's text becomes the message, so remote diagnostics reach the caller
// unchanged. A context deadline in the cause is reclassified as a timeout.
func Wrap(marker error, op, message string, err error) error {
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		marker = ErrTimeout
	}
	if strings.TrimSpace(message) == "" && err != nil {
		message = err.Error()
	}
	return &Error{Op: op, Message: message, marker: marker, cause: err}
}

// Kind names the failure class for display and structured logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "transport"
	}
}
