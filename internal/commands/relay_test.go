package commands_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"

	"voiceforge-desktop/internal/commands"
	"voiceforge-desktop/internal/services"
)

type recordedCall struct {
	method string
	args   []any
}

type stubCaller struct {
	mu      sync.Mutex
	replies map[string][]any
	errs    map[string]error
	calls   []recordedCall
	block   bool
}

func (s *stubCaller) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	s.mu.Lock()
	s.calls = append(s.calls, recordedCall{method: method, args: append([]any(nil), args...)})
	block := s.block
	s.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := s.errs[method]; ok {
		return nil, err
	}
	return s.replies[method], nil
}

func (s *stubCaller) last(t *testing.T) recordedCall {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		t.Fatal("expected at least one call")
	}
	return s.calls[len(s.calls)-1]
}

func newRelay(t *testing.T, caller commands.Caller, opts ...commands.Option) *commands.Relay {
	t.Helper()
	relay, err := commands.New(caller, opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return relay
}

func TestNewRequiresCaller(t *testing.T) {
	if _, err := commands.New(nil); err == nil {
		t.Fatal("expected error for nil caller")
	}
}

func TestStringRepliesReturnedVerbatim(t *testing.T) {
	canned := `{"ok":true,"data":{"nested":"kept \"as-is\""}}`
	ctx := context.Background()
	tests := []struct {
		method string
		args   []any
		invoke func(*commands.Relay) (string, error)
	}{
		{commands.MethodPing, nil, func(r *commands.Relay) (string, error) { return r.Ping(ctx) }},
		{commands.MethodGetSettings, nil, func(r *commands.Relay) (string, error) { return r.GetSettings(ctx) }},
		{commands.MethodGetSessions, []any{uint32(5)}, func(r *commands.Relay) (string, error) { return r.GetSessions(ctx, 5) }},
		{commands.MethodGetSessionDetail, []any{uint32(42)}, func(r *commands.Relay) (string, error) { return r.GetSessionDetail(ctx, 42) }},
		{commands.MethodGetAnalytics, []any{"30d"}, func(r *commands.Relay) (string, error) { return r.GetAnalytics(ctx, "30d") }},
		{commands.MethodGetStreamingTranscript, nil, func(r *commands.Relay) (string, error) { return r.GetStreamingTranscript(ctx) }},
		{commands.MethodStatus, nil, func(r *commands.Relay) (string, error) { return r.Status(ctx) }},
		{commands.MethodGetIndexedPaths, nil, func(r *commands.Relay) (string, error) { return r.GetIndexedPaths(ctx) }},
		{commands.MethodGetAPIVersion, nil, func(r *commands.Relay) (string, error) { return r.GetAPIVersion(ctx) }},
		{commands.MethodGetCapabilities, nil, func(r *commands.Relay) (string, error) { return r.GetCapabilities(ctx) }},
		{commands.MethodSwapModel, []any{"llm", "qwen"}, func(r *commands.Relay) (string, error) { return r.SwapModel(ctx, "llm", "qwen") }},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			caller := &stubCaller{replies: map[string][]any{tt.method: {canned}}}
			got, err := tt.invoke(newRelay(t, caller))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != canned {
				t.Fatalf("reply reinterpreted: got %q want %q", got, canned)
			}
			call := caller.last(t)
			if call.method != tt.method {
				t.Fatalf("expected method %s, got %s", tt.method, call.method)
			}
			if len(call.args) != len(tt.args) || (len(tt.args) > 0 && !reflect.DeepEqual(call.args, tt.args)) {
				t.Fatalf("unexpected args %#v, want %#v", call.args, tt.args)
			}
		})
	}
}

func TestGetSessionsConcreteScenario(t *testing.T) {
	caller := &stubCaller{replies: map[string][]any{commands.MethodGetSessions: {`[{"id":1}]`}}}
	got, err := newRelay(t, caller).GetSessions(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetSessions returned error: %v", err)
	}
	if got != `[{"id":1}]` {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestIsListeningReturnsBool(t *testing.T) {
	for _, want := range []bool{true, false} {
		caller := &stubCaller{replies: map[string][]any{commands.MethodIsListening: {want}}}
		got, err := newRelay(t, caller).IsListening(context.Background())
		if err != nil {
			t.Fatalf("IsListening returned error: %v", err)
		}
		if got != want {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestUnitCommandsSucceedWithoutPayload(t *testing.T) {
	caller := &stubCaller{}
	relay := newRelay(t, caller)
	if err := relay.ListenStart(context.Background()); err != nil {
		t.Fatalf("ListenStart returned error: %v", err)
	}
	if caller.last(t).method != commands.MethodListenStart {
		t.Fatal("expected ListenStart call")
	}
	if err := relay.ListenStop(context.Background()); err != nil {
		t.Fatalf("ListenStop returned error: %v", err)
	}
	if caller.last(t).method != commands.MethodListenStop {
		t.Fatal("expected ListenStop call")
	}
}

func TestAnalyzeDefaultsTemplate(t *testing.T) {
	caller := &stubCaller{replies: map[string][]any{commands.MethodAnalyze: {`{"summary":"x"}`}}}
	relay := newRelay(t, caller)

	if _, err := relay.Analyze(context.Background(), 30, nil); err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if args := caller.last(t).args; !reflect.DeepEqual(args, []any{uint32(30), ""}) {
		t.Fatalf("expected template defaulted to empty string, got %#v", args)
	}

	tmpl := "standup"
	if _, err := relay.Analyze(context.Background(), 60, &tmpl); err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if args := caller.last(t).args; !reflect.DeepEqual(args, []any{uint32(60), "standup"}) {
		t.Fatalf("unexpected args %#v", args)
	}
}

func TestRemoteErrorSurfacesUniformMessage(t *testing.T) {
	remote := dbus.Error{Name: "org.freedesktop.DBus.Error.ServiceUnknown", Body: []any{"The name com.voiceforge.App was not provided"}}
	caller := &stubCaller{errs: map[string]error{commands.MethodGetSettings: remote}}
	_, err := newRelay(t, caller).GetSettings(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var typed *services.Error
	if !errors.As(err, &typed) {
		t.Fatalf("expected *services.Error, got %T", err)
	}
	if err.Error() != "The name com.voiceforge.App was not provided" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport classification")
	}
}

func TestConnectionErrorPassesThrough(t *testing.T) {
	connErr := services.Wrap(services.ErrConnection, "connect", "session bus connection failed: no address", nil)
	caller := &stubCaller{errs: map[string]error{commands.MethodPing: connErr}}
	_, err := newRelay(t, caller).Ping(context.Background())
	if !errors.Is(err, services.ErrConnection) {
		t.Fatalf("expected connection error, got %v", err)
	}
	if err.Error() != "session bus connection failed: no address" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestShapeMismatchIsDecodeError(t *testing.T) {
	tests := map[string][]any{
		"wrong type":  {uint32(7)},
		"extra value": {"a", "b"},
		"empty":       nil,
	}
	for name, reply := range tests {
		t.Run(name, func(t *testing.T) {
			caller := &stubCaller{replies: map[string][]any{commands.MethodPing: reply}}
			_, err := newRelay(t, caller).Ping(context.Background())
			if !errors.Is(err, services.ErrDecode) {
				t.Fatalf("expected decode error, got %v", err)
			}
		})
	}

	caller := &stubCaller{replies: map[string][]any{commands.MethodIsListening: {"yes"}}}
	if _, err := newRelay(t, caller).IsListening(context.Background()); !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected decode error for bool reply, got %v", err)
	}
}

func TestTimeoutBecomesUniformError(t *testing.T) {
	caller := &stubCaller{block: true}
	relay := newRelay(t, caller, commands.WithTimeout(20*time.Millisecond))
	_, err := relay.GetSessions(context.Background(), 1)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	var typed *services.Error
	if !errors.As(err, &typed) {
		t.Fatalf("expected *services.Error, got %T", err)
	}
}

type stubExporter struct {
	id     uint32
	format string
	path   string
	err    error
}

func (s *stubExporter) Export(_ context.Context, id uint32, format string) (string, error) {
	s.id, s.format = id, format
	return s.path, s.err
}

func TestExportSessionDelegates(t *testing.T) {
	exporter := &stubExporter{path: "/tmp/session-3.md"}
	relay := newRelay(t, &stubCaller{}, commands.WithExporter(exporter))
	got, err := relay.ExportSession(context.Background(), 3, "MD")
	if err != nil {
		t.Fatalf("ExportSession returned error: %v", err)
	}
	if got != "/tmp/session-3.md" || exporter.id != 3 || exporter.format != "MD" {
		t.Fatalf("unexpected delegation: %q %+v", got, exporter)
	}
}

func TestExportSessionWithoutExporter(t *testing.T) {
	_, err := newRelay(t, &stubCaller{}).ExportSession(context.Background(), 1, "md")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
