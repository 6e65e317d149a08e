package daemonctl_test

import (
	"context"
	"testing"

	"voiceforge-desktop/internal/daemonctl"
	"voiceforge-desktop/internal/deps"
	"voiceforge-desktop/internal/signals"
	"voiceforge-desktop/internal/testsupport"
)

func findCheck(t *testing.T, snap *daemonctl.Snapshot, label string) daemonctl.StatusLine {
	t.Helper()
	for _, line := range snap.Checks {
		if line.Label == label {
			return line
		}
	}
	t.Fatalf("check %q not found in %+v", label, snap.Checks)
	return daemonctl.StatusLine{}
}

func TestBuildStatusSnapshotReachable(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithExportScript("echo 'voiceforge 1.2.0'\n"), testsupport.WithJournal())
	daemon := &fakeDaemon{version: "1.0", listening: true}
	loops := []signals.LoopStatus{
		{Member: "ListenStateChanged", State: signals.StateSubscribed},
		{Member: "AnalysisDone", State: signals.StateEnded},
	}

	snap, err := daemonctl.BuildStatusSnapshot(context.Background(), daemon, "com.voiceforge.App /com/voiceforge/App com.voiceforge.App", cfg, loops)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot returned error: %v", err)
	}
	if !snap.Reachable || snap.APIVersion != "1.0" || snap.Listening == nil || !*snap.Listening {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if findCheck(t, snap, "Daemon").Severity != "ok" {
		t.Fatal("expected daemon ok")
	}
	if line := findCheck(t, snap, "Signals"); line.Severity != "warn" || line.Detail != "1/2 subscribed" {
		t.Fatalf("unexpected signals line %+v", line)
	}
	if findCheck(t, snap, "Recording").Detail != "Listening" {
		t.Fatal("expected listening line")
	}
	if findCheck(t, snap, "Event Journal").Severity != "ok" {
		t.Fatal("expected journal configured")
	}
	if len(snap.Dependencies) != 1 || !snap.Dependencies[0].Available || snap.Dependencies[0].Version != "voiceforge 1.2.0" {
		t.Fatalf("unexpected dependencies %+v", snap.Dependencies)
	}
	if snap.DependencySummary.Severity != "ok" {
		t.Fatalf("unexpected summary %+v", snap.DependencySummary)
	}
}

func TestBuildStatusSnapshotUnreachable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Export.Binary = "clearly-not-present-voiceforge"
	daemon := &fakeDaemon{failFirst: 1 << 30}

	snap, err := daemonctl.BuildStatusSnapshot(context.Background(), daemon, "endpoint", cfg, nil)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot returned error: %v", err)
	}
	if snap.Reachable || snap.Error == "" || snap.Listening != nil {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if line := findCheck(t, snap, "Daemon"); line.Severity != "warn" {
		t.Fatalf("unexpected daemon line %+v", line)
	}
	if snap.DependencySummary.Severity != "warn" || snap.DependencySummary.MissingOptional != 1 {
		t.Fatalf("unexpected summary %+v", snap.DependencySummary)
	}
}

func TestBuildStatusSnapshotRequiresConfig(t *testing.T) {
	if _, err := daemonctl.BuildStatusSnapshot(context.Background(), &fakeDaemon{}, "", nil, nil); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestBuildDependencySummary(t *testing.T) {
	summary := daemonctl.BuildDependencySummary(nil)
	if summary.Severity != "info" {
		t.Fatalf("unexpected empty summary %+v", summary)
	}
	summary = daemonctl.BuildDependencySummary([]deps.Status{
		{Name: "a", Available: true},
		{Name: "b", Available: false},
		{Name: "c", Available: false, Optional: true},
	})
	if summary.Severity != "error" || summary.MissingRequired != 1 || summary.MissingOptional != 1 || summary.Available != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Detail != "1/3 available (missing: 1 required, 1 optional)" {
		t.Fatalf("unexpected detail %q", summary.Detail)
	}
}
