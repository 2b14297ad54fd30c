package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/nfrund/chatgate/internal/app"
	"github.com/nfrund/chatgate/internal/config"
	"github.com/nfrund/chatgate/internal/logging"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return err
	}
	logging.New(cfg.LogFormat, cfg.LogLevel)

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to start", "error", err)
		return err
	}
	defer func() {
		// Stop background work before the components it uses are closed.
		stop()
		a.Shutdown()
	}()

	slog.Info("Starting chatgate", "version", version, "env", cfg.AppEnv, "store", cfg.StoreBackend)
	return a.Start(ctx)
}
