package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"voiceforge-desktop/internal/commands"
	"voiceforge-desktop/internal/services"
)

type sessionRow struct {
	ID            uint32  `json:"id"`
	StartedAt     string  `json:"started_at"`
	DurationSec   float64 `json:"duration_sec"`
	SegmentsCount int     `json:"segments_count"`
}

// replyCommand builds a command that prints one string reply verbatim.
func replyCommand(ctx *commandContext, use, short string, call func(*cobra.Command, *commands.Relay) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRelay(func(relay *commands.Relay) error {
				reply, err := call(cmd, relay)
				if err != nil {
					return err
				}
				return writeReply(cmd, ctx, reply)
			})
		},
	}
}

func newQueryCommands(ctx *commandContext) []*cobra.Command {
	settingsCmd := replyCommand(ctx, "settings", "Print daemon settings JSON", func(cmd *cobra.Command, relay *commands.Relay) (string, error) {
		return relay.GetSettings(cmd.Context())
	})
	transcriptCmd := replyCommand(ctx, "transcript", "Print the streaming transcript JSON", func(cmd *cobra.Command, relay *commands.Relay) (string, error) {
		return relay.GetStreamingTranscript(cmd.Context())
	})
	indexedCmd := replyCommand(ctx, "indexed-paths", "Print indexed document paths JSON", func(cmd *cobra.Command, relay *commands.Relay) (string, error) {
		return relay.GetIndexedPaths(cmd.Context())
	})
	versionCmd := replyCommand(ctx, "api-version", "Print the daemon API version", func(cmd *cobra.Command, relay *commands.Relay) (string, error) {
		return relay.GetAPIVersion(cmd.Context())
	})
	capabilitiesCmd := replyCommand(ctx, "capabilities", "Print daemon capabilities JSON", func(cmd *cobra.Command, relay *commands.Relay) (string, error) {
		return relay.GetCapabilities(cmd.Context())
	})

	var period string
	analyticsCmd := replyCommand(ctx, "analytics", "Print usage analytics JSON", func(cmd *cobra.Command, relay *commands.Relay) (string, error) {
		if !cmd.Flags().Changed("period") {
			period = ctx.configValue().Monitor.AnalyticsPeriod
		}
		return relay.GetAnalytics(cmd.Context(), period)
	})
	analyticsCmd.Flags().StringVar(&period, "period", "", "Period such as 7d or 30d (default from monitor.analytics_period)")

	listeningCmd := &cobra.Command{
		Use:   "listening",
		Short: "Report whether the daemon is recording",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRelay(func(relay *commands.Relay) error {
				listening, err := relay.IsListening(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]bool{"is_listening": listening})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Listening: %s\n", yesNo(listening))
				return nil
			})
		},
	}

	return []*cobra.Command{
		settingsCmd,
		newSessionsCommand(ctx),
		newSessionCommand(ctx),
		analyticsCmd,
		listeningCmd,
		transcriptCmd,
		indexedCmd,
		versionCmd,
		capabilitiesCmd,
	}
}

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit uint32
	var raw bool
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recent sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = uint32(max(ctx.configValue().Monitor.SessionsLimit, 0))
			}
			return ctx.withRelay(func(relay *commands.Relay) error {
				reply, err := relay.GetSessions(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if raw || ctx.jsonOutput() {
					return writeReply(cmd, ctx, reply)
				}
				var sessions []sessionRow
				if err := json.Unmarshal([]byte(reply), &sessions); err != nil {
					return writeReply(cmd, ctx, reply)
				}
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded")
					return nil
				}
				rows := make([][]string, 0, len(sessions))
				for _, s := range sessions {
					rows = append(rows, []string{
						strconv.FormatUint(uint64(s.ID), 10),
						s.StartedAt,
						fmt.Sprintf("%.1fs", s.DurationSec),
						strconv.Itoa(s.SegmentsCount),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Started", "Duration", "Segments"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().Uint32Var(&limit, "limit", 20, "Maximum sessions to list (default from monitor.sessions_limit)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the daemon reply verbatim")
	return cmd
}

func newSessionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "session <id>",
		Short: "Print one session's segments and analysis JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			return ctx.withRelay(func(relay *commands.Relay) error {
				reply, err := relay.GetSessionDetail(cmd.Context(), id)
				if err != nil {
					return err
				}
				return writeReply(cmd, ctx, reply)
			})
		},
	}
}

func parseSessionID(raw string) (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "session", fmt.Sprintf("invalid session id %q", raw), err)
	}
	return uint32(id), nil
}
