package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"voiceforge-desktop/internal/bus"
	"voiceforge-desktop/internal/config"
	"voiceforge-desktop/internal/logging"
	"voiceforge-desktop/internal/stubdaemon"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath    string
		envelope      bool
		chunkInterval time.Duration
	)
	cmd := &cobra.Command{
		Use:           "voiceforge-stubd",
		Short:         "Serve the VoiceForge daemon contract with canned replies",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, _, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(logging.Options{
				Format: cfg.Logging.Format,
				Level:  cfg.Logging.Level,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			endpoint, err := bus.NewEndpoint(cfg.Daemon.ServiceName, cfg.Daemon.ObjectPath, cfg.Daemon.InterfaceName)
			if err != nil {
				return fmt.Errorf("daemon endpoint: %w", err)
			}
			conn, err := bus.DialSession(cmd.Context())
			if err != nil {
				return fmt.Errorf("connect session bus: %w", err)
			}
			defer conn.Close()

			if !cmd.Flags().Changed("envelope") {
				envelope = envFlag(os.Getenv("VOICEFORGE_IPC_ENVELOPE"))
			}
			svc := stubdaemon.New(endpoint, conn,
				stubdaemon.WithLogger(logger),
				stubdaemon.WithEnvelope(envelope),
				stubdaemon.WithChunkInterval(chunkInterval),
			)
			return stubdaemon.Serve(cmd.Context(), conn, svc)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().BoolVar(&envelope, "envelope", false, "Wrap JSON replies in the versioned envelope (default from VOICEFORGE_IPC_ENVELOPE)")
	cmd.Flags().DurationVar(&chunkInterval, "chunk-interval", 1500*time.Millisecond, "Interval between TranscriptChunk signals while listening (0 disables)")
	return cmd
}

func envFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
