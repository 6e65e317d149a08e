package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voiceforge-desktop/internal/commands"
	"voiceforge-desktop/internal/config"
	"voiceforge-desktop/internal/services"
)

func newControlCommands(ctx *commandContext) []*cobra.Command {
	listenCmd := &cobra.Command{
		Use:   "listen",
		Short: "Start or stop recording",
	}
	listenCmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start recording into the ring buffer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRelay(func(relay *commands.Relay) error {
				if err := relay.ListenStart(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Listening started")
				return nil
			})
		},
	})
	listenCmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop recording",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRelay(func(relay *commands.Relay) error {
				if err := relay.ListenStop(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Listening stopped")
				return nil
			})
		},
	})

	return []*cobra.Command{listenCmd, newAnalyzeCommand(ctx), newSwapModelCommand(ctx)}
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var seconds uint32
	var template string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the last N seconds of audio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if !cmd.Flags().Changed("seconds") {
				seconds = uint32(max(cfg.Monitor.AnalyzeSeconds, 0))
			}
			if seconds < 1 || seconds > config.MaxAnalyzeSeconds {
				return services.Wrap(services.ErrValidation, "analyze", fmt.Sprintf("seconds must be between 1 and %d", config.MaxAnalyzeSeconds), nil)
			}
			var tmpl *string
			switch {
			case cmd.Flags().Changed("template"):
				tmpl = &template
			case cfg.Monitor.AnalyzeTemplate != "":
				tmpl = &cfg.Monitor.AnalyzeTemplate
			}
			return ctx.withRelay(func(relay *commands.Relay) error {
				reply, err := relay.Analyze(cmd.Context(), seconds, tmpl)
				if err != nil {
					return err
				}
				return writeReply(cmd, ctx, reply)
			})
		},
	}
	cmd.Flags().Uint32Var(&seconds, "seconds", 30, "Seconds of audio to analyze, 1..3600 (default from monitor.analyze_seconds)")
	cmd.Flags().StringVar(&template, "template", "", "Analysis template name")
	return cmd
}

func newSwapModelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "swap-model <stt|llm> <name>",
		Short: "Hot-swap the speech or language model",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRelay(func(relay *commands.Relay) error {
				reply, err := relay.SwapModel(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return writeReply(cmd, ctx, reply)
			})
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a session to Markdown or PDF through the VoiceForge CLI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			return ctx.withRelay(func(relay *commands.Relay) error {
				out, err := relay.ExportSession(cmd.Context(), id, format)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"session_id": id, "format": format, "output": out})
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "Export format: md or pdf")
	return cmd
}
