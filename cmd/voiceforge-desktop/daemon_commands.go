package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"voiceforge-desktop/internal/commands"
	"voiceforge-desktop/internal/daemonctl"
	"voiceforge-desktop/internal/events"
	"voiceforge-desktop/internal/signals"
)

func newPingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRelay(func(relay *commands.Relay) error {
				reply, err := relay.Ping(cmd.Context())
				if err != nil {
					return err
				}
				return writeReply(cmd, ctx, reply)
			})
		},
	}
}

func newWaitCommand(ctx *commandContext) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Wait until the daemon answers ping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("timeout") {
				timeout = ctx.configValue().DaemonWait()
			}
			return ctx.withRelay(func(relay *commands.Relay) error {
				if err := daemonctl.WaitForDaemon(cmd.Context(), relay, timeout, 0); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon is ready")
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "How long to wait (default from daemon.wait_seconds)")
	return cmd
}

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Daemon lifecycle helpers",
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Launch `voiceforge daemon` unless it already answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			return ctx.withRelay(func(relay *commands.Relay) error {
				result, err := daemonctl.EnsureRunning(cmd.Context(), relay, daemonctl.LaunchOptions{Binary: cfg.Export.Binary}, cfg.DaemonWait())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, result)
				}
				stdout := cmd.OutOrStdout()
				if result.Launched {
					fmt.Fprintln(stdout, "Daemon not running, launching...")
				}
				switch result.State {
				case daemonctl.StartStateStarted:
					fmt.Fprintln(stdout, "Daemon started")
				case daemonctl.StartStateAlreadyRunning:
					fmt.Fprintln(stdout, "Daemon already running")
				}
				return nil
			})
		},
	}

	statusCmd := replyCommand(ctx, "status", "Print the daemon's own status line", func(cmd *cobra.Command, relay *commands.Relay) (string, error) {
		return relay.Status(cmd.Context())
	})

	daemonCmd.AddCommand(startCmd, statusCmd)
	return daemonCmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var probeSignals bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon reachability, dependencies and bridge settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			endpoint, err := ctx.endpoint()
			if err != nil {
				return err
			}
			relay, err := ctx.relay()
			if err != nil {
				return err
			}
			var loops []signals.LoopStatus
			if probeSignals {
				loops, err = probeSubscriptions(cmd.Context(), ctx)
				if err != nil {
					return err
				}
			}
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), relay, endpoint.String(), cfg, loops)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, snap)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Bridge Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, renderStatusLine("Endpoint", statusInfo, snap.Endpoint, colorize))
			for _, line := range snap.Checks {
				fmt.Fprintln(stdout, renderStatusLine(line.Label, statusKindFromSeverity(line.Severity), line.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range dependencyLines(snap.Dependencies, snap.DependencySummary, colorize) {
				fmt.Fprintln(stdout, line)
			}

			if len(snap.Signals) > 0 {
				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Signal Subscriptions", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprint(stdout, renderTable(
					[]string{"Signal", "Event", "State", "Emitted", "Dropped", "Last Error"},
					signalRows(snap),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&probeSignals, "signals", false, "Briefly subscribe to every enabled signal and report the result")
	return cmd
}

const probeWindow = 2 * time.Second

// probeSubscriptions starts the signal relay long enough for every loop to
// leave the connecting state, then stops it and returns the loop states.
func probeSubscriptions(parent context.Context, ctx *commandContext) ([]signals.LoopStatus, error) {
	cfg := ctx.configValue()
	specs, err := signals.NewRegistry().Resolve(cfg.Signals.Enabled)
	if err != nil {
		return nil, err
	}
	source, err := ctx.signalSource()
	if err != nil {
		return nil, err
	}
	probeCtx, cancel := context.WithTimeout(parent, probeWindow)
	defer cancel()
	relay, err := signals.NewRelay(source, events.EmitterFunc(func(string, any) {}), specs, signals.WithLogger(ctx.loggerValue()))
	if err != nil {
		return nil, err
	}
	if err := relay.Start(probeCtx); err != nil {
		return nil, err
	}
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for settled := false; !settled; {
		select {
		case <-probeCtx.Done():
			settled = true
		case <-ticker.C:
			settled = true
			for _, loop := range relay.States() {
				if loop.State == signals.StateIdle || loop.State == signals.StateConnecting {
					settled = false
				}
			}
		}
	}
	states := relay.States()
	cancel()
	relay.Wait()
	if errors.Is(parent.Err(), context.Canceled) {
		return nil, parent.Err()
	}
	return states, nil
}
