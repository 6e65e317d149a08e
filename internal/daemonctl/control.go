package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"voiceforge-desktop/internal/services"
)

// Pinger checks daemon liveness. *commands.Relay satisfies it.
type Pinger interface {
	Ping(ctx context.Context) (string, error)
}

// PingReply is the liveness answer of a healthy daemon.
const PingReply = "pong"

// ErrDaemonNotRunning indicates the daemon did not answer on the session bus.
var ErrDaemonNotRunning = errors.New("daemon not running")

const defaultPollInterval = 250 * time.Millisecond

// Probe pings the daemon once and reports whether it answered "pong".
func Probe(ctx context.Context, pinger Pinger) (bool, error) {
	reply, err := pinger.Ping(ctx)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(reply) != PingReply {
		return false, fmt.Errorf("unexpected ping reply %q", reply)
	}
	return true, nil
}

// WaitForDaemon polls Ping until the daemon answers or timeout elapses. The
// last ping error is wrapped in the returned error.
func WaitForDaemon(ctx context.Context, pinger Pinger, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var lastErr error
	for {
		ok, err := Probe(waitCtx, pinger)
		if ok {
			return nil
		}
		lastErr = err
		timer := time.NewTimer(interval)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			if lastErr == nil || errors.Is(lastErr, context.DeadlineExceeded) || errors.Is(lastErr, context.Canceled) {
				lastErr = ErrDaemonNotRunning
			}
			return services.Wrap(services.ErrTimeout, "wait", fmt.Sprintf("daemon did not answer within %s: %v", timeout, lastErr), lastErr)
		case <-timer.C:
		}
	}
}

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	// Binary is the VoiceForge CLI that hosts the daemon.
	Binary string
	// Args default to ["daemon"].
	Args []string
}

// StartState describes the outcome of EnsureRunning.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState `json:"state"`
	Launched bool       `json:"launched"`
}

// Launch starts a detached daemon process.
func Launch(opts LaunchOptions) error {
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		return fmt.Errorf("resolve executable: daemon binary is empty")
	}
	args := opts.Args
	if len(args) == 0 {
		args = []string{"daemon"}
	}
	proc := exec.Command(binary, args...) //nolint:gosec
	if err := proc.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "launch", fmt.Sprintf("launch daemon: %v", err), err)
	}
	return proc.Process.Release()
}

// EnsureRunning pings the daemon and, if it does not answer, launches it and
// waits up to waitTimeout for it to come up.
func EnsureRunning(ctx context.Context, pinger Pinger, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	if ok, _ := Probe(ctx, pinger); ok {
		return StartResult{State: StartStateAlreadyRunning}, nil
	}
	if err := Launch(opts); err != nil {
		return StartResult{}, err
	}
	if err := WaitForDaemon(ctx, pinger, waitTimeout, 0); err != nil {
		return StartResult{Launched: true}, err
	}
	return StartResult{State: StartStateStarted, Launched: true}, nil
}
