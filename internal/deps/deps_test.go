package deps_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"voiceforge-desktop/internal/deps"
	"voiceforge-desktop/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := testsupport.WriteScript(t, binDir, "present", "echo 'voiceforge 0.9.1'\n")
	notExec := filepath.Join(binDir, "plain")
	if err := os.WriteFile(notExec, []byte("data"), 0o644); err != nil {
		t.Fatalf("write plain file: %v", err)
	}
	reqs := []deps.Requirement{
		{Name: "Present", Command: present, VersionArgs: []string{"--version"}},
		{Name: "Missing", Command: "clearly-not-present-binary", Optional: true},
		{Name: "Blank", Command: "  "},
		{Name: "Plain", Command: notExec},
	}

	results := deps.CheckBinaries(context.Background(), reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available || results[0].Path != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Version != "voiceforge 0.9.1" {
		t.Fatalf("unexpected version %q", results[0].Version)
	}
	if results[0].Detail != "" || results[0].Severity() != "ok" {
		t.Fatalf("unexpected detail for available dependency: %#v", results[0])
	}

	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" || results[1].Severity() != "warn" {
		t.Fatalf("unexpected missing status: %#v", results[1])
	}

	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank status: %#v", results[2])
	}

	if results[3].Available || results[3].Severity() != "error" {
		t.Fatalf("expected non-executable file to be unavailable, got %#v", results[3])
	}
}

func TestCheckBinariesResolvesFromPath(t *testing.T) {
	testsupport.NewConfig(t, testsupport.WithStubbedBinaries("voiceforge"))
	results := deps.CheckBinaries(context.Background(), []deps.Requirement{{Name: "VoiceForge CLI", Command: "voiceforge"}})
	if !results[0].Available {
		t.Fatalf("expected stub on PATH to resolve, got %#v", results[0])
	}
	if results[0].Version != "" {
		t.Fatalf("expected no version without VersionArgs, got %q", results[0].Version)
	}
}
