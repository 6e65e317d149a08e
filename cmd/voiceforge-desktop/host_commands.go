package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"voiceforge-desktop/internal/events"
	"voiceforge-desktop/internal/logging"
	"voiceforge-desktop/internal/notifications"
	"voiceforge-desktop/internal/signals"
	"voiceforge-desktop/internal/tui"
)

// host is the long-running interface host: a signal relay feeding the event
// hub, the optional journal and ntfy sinks, guarded by the single-instance
// lock.
type host struct {
	lock    *flock.Flock
	hub     *events.Hub
	journal *events.Journal
	notify  *notifications.Sink
	relay   *signals.Relay
}

func openHost(runCtx context.Context, ctx *commandContext) (*host, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", cfg.LockPath(), err)
	}
	if !locked {
		return nil, fmt.Errorf("another voiceforge-desktop host is running (lock %s)", cfg.LockPath())
	}

	h := &host{lock: lock, hub: events.NewHub(cfg.Events.BufferSize)}
	journal, err := events.NewJournal(cfg.Events.JournalPath)
	if err != nil {
		h.close()
		return nil, err
	}
	if journal != nil {
		h.journal = journal
		h.hub.AddSink(journal)
	}
	if svc := notifications.NewService(cfg); svc.Enabled() {
		h.notify = notifications.NewSink(runCtx, svc, ctx.loggerValue())
		h.hub.AddSink(h.notify)
	}

	specs, err := signals.NewRegistry().Resolve(cfg.Signals.Enabled)
	if err != nil {
		h.close()
		return nil, err
	}
	source, err := ctx.signalSource()
	if err != nil {
		h.close()
		return nil, err
	}
	opts := []signals.Option{signals.WithLogger(ctx.loggerValue())}
	if cfg.Signals.Restart {
		opts = append(opts, signals.WithRestart(cfg.SignalRestartDelay()))
	}
	relay, err := signals.NewRelay(source, h.hub, specs, opts...)
	if err != nil {
		h.close()
		return nil, err
	}
	h.relay = relay
	return h, nil
}

func (h *host) close() {
	if h.notify != nil {
		h.notify.Close()
	}
	if h.journal != nil {
		_ = h.journal.Close()
	}
	_ = h.lock.Unlock()
}

// eventPrinter is a hub sink that writes each event as it is published.
type eventPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	json bool
}

func (p *eventPrinter) Append(evt events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.json {
		_ = json.NewEncoder(p.w).Encode(evt)
		return
	}
	fmt.Fprintln(p.w, formatEventLine(evt))
}

func formatEventLine(evt events.Event) string {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		payload = []byte("null")
	}
	return fmt.Sprintf("%s #%d %-22s %s", evt.Timestamp.Local().Format(time.TimeOnly), evt.Sequence, evt.Name, payload)
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Relay daemon signals as local events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := openHost(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			defer h.close()
			h.hub.AddSink(&eventPrinter{w: cmd.OutOrStdout(), json: ctx.jsonOutput()})

			if err := h.relay.Start(cmd.Context()); err != nil {
				return err
			}
			h.relay.Wait()
			if cmd.Context().Err() != nil {
				return nil
			}
			return endedError(h.relay.States())
		},
	}
}

// endedError summarizes why every loop stopped.
func endedError(loops []signals.LoopStatus) error {
	reasons := make([]string, 0, len(loops))
	for _, loop := range loops {
		if loop.LastError != "" {
			reasons = append(reasons, fmt.Sprintf("%s: %s", loop.Member, loop.LastError))
		}
	}
	if len(reasons) == 0 {
		return errors.New("all signal subscriptions ended")
	}
	return fmt.Errorf("all signal subscriptions ended (%s)", strings.Join(reasons, "; "))
}

func newMonitorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Open the terminal monitor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			relay, err := ctx.relay()
			if err != nil {
				return err
			}
			endpoint, err := ctx.endpoint()
			if err != nil {
				return err
			}
			h, err := openHost(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			defer h.close()

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if err := h.relay.Start(runCtx); err != nil {
				return err
			}
			err = tui.Run(runCtx, relay, h.hub, tui.Options{
				Endpoint:        endpoint.Service,
				AnalyzeSeconds:  uint32(max(cfg.Monitor.AnalyzeSeconds, 0)),
				AnalyzeTemplate: cfg.Monitor.AnalyzeTemplate,
				PollInterval:    time.Duration(cfg.Monitor.StreamingPollMillis) * time.Millisecond,
				SessionsLimit:   uint32(max(cfg.Monitor.SessionsLimit, 0)),
			})
			cancel()
			h.relay.Wait()
			if err != nil {
				logging.Failure{EventType: "monitor_failed"}.Error(ctx.loggerValue(), "monitor exited", logging.Error(err))
			}
			return err
		},
	}
}

func newEventsCommand(ctx *commandContext) *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the local event journal",
	}

	var limit int
	var follow bool
	var path string
	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the most recent journal events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(path)
			if target == "" {
				target = ctx.configValue().Events.JournalPath
			}
			if target == "" {
				return errors.New("no event journal configured (set events.journal_path or pass --path)")
			}
			printer := &eventPrinter{w: cmd.OutOrStdout(), json: ctx.jsonOutput()}
			recent, err := events.ReadJournal(target, limit)
			if err != nil {
				return err
			}
			for _, evt := range recent {
				printer.Append(evt)
			}
			if !follow {
				if len(recent) == 0 && !ctx.jsonOutput() {
					fmt.Fprintln(cmd.OutOrStdout(), "No events recorded")
				}
				return nil
			}
			return events.Follow(cmd.Context(), target, false, printer.Append)
		},
	}
	tailCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of recent events to print (0 for all)")
	tailCmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing events as they are appended")
	tailCmd.Flags().StringVar(&path, "path", "", "Journal path (default from events.journal_path)")

	eventsCmd.AddCommand(tailCmd)
	return eventsCmd
}

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Push notification utilities",
	}
	notifyCmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test notification to the configured ntfy topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := notifications.NewService(ctx.configValue())
			if !svc.Enabled() {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications disabled (set notifications.ntfy_topic)")
				return nil
			}
			if err := svc.TestNotification(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	})
	return notifyCmd
}
