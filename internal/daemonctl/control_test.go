package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"voiceforge-desktop/internal/daemonctl"
	"voiceforge-desktop/internal/services"
	"voiceforge-desktop/internal/testsupport"
)

type fakeDaemon struct {
	mu         sync.Mutex
	pings      int
	failFirst  int
	reply      string
	upWhenFile string
	version    string
	listening  bool
	listenErr  error
}

func (f *fakeDaemon) Ping(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	if f.upWhenFile != "" {
		if _, err := os.Stat(f.upWhenFile); err != nil {
			return "", services.Wrap(services.ErrTransport, "Ping", "The name com.voiceforge.App was not provided", nil)
		}
	}
	if f.pings <= f.failFirst {
		return "", services.Wrap(services.ErrConnection, "connect", "session bus connection failed", nil)
	}
	if f.reply == "" {
		return daemonctl.PingReply, nil
	}
	return f.reply, nil
}

func (f *fakeDaemon) GetAPIVersion(context.Context) (string, error) {
	return f.version, nil
}

func (f *fakeDaemon) IsListening(context.Context) (bool, error) {
	return f.listening, f.listenErr
}

func TestProbe(t *testing.T) {
	ok, err := daemonctl.Probe(context.Background(), &fakeDaemon{})
	if !ok || err != nil {
		t.Fatalf("expected healthy probe, got %v %v", ok, err)
	}
	ok, err = daemonctl.Probe(context.Background(), &fakeDaemon{reply: "busy"})
	if ok || err == nil {
		t.Fatalf("expected unexpected reply to fail, got %v %v", ok, err)
	}
}

func TestWaitForDaemonRetriesUntilPong(t *testing.T) {
	daemon := &fakeDaemon{failFirst: 3}
	if err := daemonctl.WaitForDaemon(context.Background(), daemon, 2*time.Second, 5*time.Millisecond); err != nil {
		t.Fatalf("WaitForDaemon returned error: %v", err)
	}
	if daemon.pings != 4 {
		t.Fatalf("expected 4 pings, got %d", daemon.pings)
	}
}

func TestWaitForDaemonTimesOut(t *testing.T) {
	daemon := &fakeDaemon{failFirst: 1 << 30}
	err := daemonctl.WaitForDaemon(context.Background(), daemon, 40*time.Millisecond, 5*time.Millisecond)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestEnsureRunningAlreadyRunning(t *testing.T) {
	result, err := daemonctl.EnsureRunning(context.Background(), &fakeDaemon{}, daemonctl.LaunchOptions{Binary: "/nonexistent"}, time.Second)
	if err != nil {
		t.Fatalf("EnsureRunning returned error: %v", err)
	}
	if result.State != daemonctl.StartStateAlreadyRunning || result.Launched {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestEnsureRunningLaunchesDaemon(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "daemon-up")
	binary := testsupport.WriteScript(t, dir, "voiceforge", "[ \"$1\" = \"daemon\" ] && touch '"+marker+"'\n")

	daemon := &fakeDaemon{upWhenFile: marker}
	result, err := daemonctl.EnsureRunning(context.Background(), daemon, daemonctl.LaunchOptions{Binary: binary}, 3*time.Second)
	if err != nil {
		t.Fatalf("EnsureRunning returned error: %v", err)
	}
	if result.State != daemonctl.StartStateStarted || !result.Launched {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestLaunchMissingBinary(t *testing.T) {
	err := daemonctl.Launch(daemonctl.LaunchOptions{Binary: filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if err := daemonctl.Launch(daemonctl.LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty binary")
	}
}
