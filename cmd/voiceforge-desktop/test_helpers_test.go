package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"voiceforge-desktop/internal/config"
	"voiceforge-desktop/internal/signals"
	"voiceforge-desktop/internal/testsupport"
)

// fakeCaller answers daemon methods from canned bodies and records calls.
type fakeCaller struct {
	mu      sync.Mutex
	replies map[string][]any
	errs    map[string]error
	calls   []fakeCall
}

type fakeCall struct {
	method string
	args   []any
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{
		replies: map[string][]any{
			"Ping":                   {"pong"},
			"GetApiVersion":          {"1.0"},
			"IsListening":            {false},
			"ListenStart":            {},
			"ListenStop":             {},
			"Status":                 {"idle | sessions: 1 | stt: small"},
			"GetSettings":            {`{"model_size":"small","default_llm":"anthropic/claude-haiku"}`},
			"GetStreamingTranscript": {`{"partial":"","finals":[]}`},
		},
		errs: map[string]error{},
	}
}

func (f *fakeCaller) Call(_ context.Context, method string, args ...any) ([]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{method: method, args: args})
	if err := f.errs[method]; err != nil {
		return nil, err
	}
	body, ok := f.replies[method]
	if !ok {
		return nil, fmt.Errorf("no reply prepared for %s", method)
	}
	return body, nil
}

func (f *fakeCaller) set(method string, body ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[method] = body
}

func (f *fakeCaller) callsTo(method string) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeCall
	for _, call := range f.calls {
		if call.method == method {
			out = append(out, call)
		}
	}
	return out
}

// fakeSource serves prepared signal bodies per member. Members without
// bodies fail to subscribe.
type fakeSource struct {
	bodies map[string][][]any
}

func (f fakeSource) Subscribe(_ context.Context, member string) (signals.Stream, error) {
	bodies, ok := f.bodies[member]
	if !ok {
		return nil, fmt.Errorf("add match for %s: access denied", member)
	}
	ch := make(chan []any, len(bodies))
	for _, body := range bodies {
		ch <- body
	}
	close(ch)
	return &fakeStream{ch: ch}, nil
}

type fakeStream struct {
	ch chan []any
}

func (s *fakeStream) Next(ctx context.Context) ([]any, bool) {
	select {
	case <-ctx.Done():
		return nil, false
	case body, ok := <-s.ch:
		return body, ok
	}
}

func (s *fakeStream) Close() error { return nil }

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	caller     *fakeCaller
	source     signals.Source
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		caller:     newFakeCaller(),
		source:     fakeSource{},
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommandWithDeps(cliDeps{caller: env.caller, source: env.source})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
