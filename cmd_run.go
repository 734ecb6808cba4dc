package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"adsb_speech/internal/daemon"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the announcement daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loader, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			d, err := daemon.New(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := d.Start(sigCtx); err != nil {
				return err
			}
			loader.Watch(d.ApplyConfig)

			<-sigCtx.Done()
			slog.Info("Received interrupt signal, shutting down...")
			d.Stop()
			slog.Info("Shutdown complete")
			return nil
		},
	}
}

// commandCtx returns the command's context, or a background one when run
// outside Execute
func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
