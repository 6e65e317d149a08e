package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"voiceforge-desktop/internal/services"
)

func TestWrapUsesCauseTextAsMessage(t *testing.T) {
	base := errors.New("org.freedesktop.DBus.Error.ServiceUnknown: name not provided")
	err := services.Wrap(services.ErrTransport, "GetSettings", "", base)
	if err.Error() != base.Error() {
		t.Fatalf("expected message %q, got %q", base.Error(), err.Error())
	}
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected cause to be reachable, got %v", err)
	}
	var typed *services.Error
	if !errors.As(err, &typed) || typed.Op != "GetSettings" {
		t.Fatalf("expected *services.Error with op, got %#v", err)
	}
}

func TestWrapExplicitMessageWins(t *testing.T) {
	err := services.Wrap(services.ErrExternalTool, "export", "no such session\n", errors.New("exit status 1"))
	if err.Error() != "no such session\n" {
		t.Fatalf("expected verbatim message, got %q", err.Error())
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker")
	}
}

func TestWrapDeadlineBecomesTimeout(t *testing.T) {
	err := services.Wrap(services.ErrTransport, "Ping", "", fmt.Errorf("call: %w", context.DeadlineExceeded))
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
	if errors.Is(err, services.ErrTransport) {
		t.Fatalf("transport marker should be replaced")
	}
}

func TestKind(t *testing.T) {
	cases := map[string]error{
		"":              nil,
		"connection":    services.Wrap(services.ErrConnection, "", "no bus", nil),
		"decode":        services.Wrap(services.ErrDecode, "", "bad shape", nil),
		"validation":    services.Wrap(services.ErrValidation, "", "format must be md or pdf", nil),
		"external_tool": services.Wrap(services.ErrExternalTool, "", "boom", nil),
		"timeout":       services.Wrap(services.ErrTimeout, "", "slow", nil),
		"transport":     errors.New("plain"),
	}
	for want, err := range cases {
		if got := services.Kind(err); got != want {
			t.Fatalf("Kind(%v) = %q, want %q", err, got, want)
		}
	}
}
