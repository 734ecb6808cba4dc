package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"adsb_speech/internal/config"
	"adsb_speech/internal/logging"

	"github.com/spf13/cobra"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	loader     *config.Loader
	configErr  error
}

func (c *commandContext) ensureConfig() (*config.Config, *config.Loader, error) {
	c.configOnce.Do(func() {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			os.Setenv(config.ConfigPathEnv, path)
		}

		cfg, loader, err := config.NewLoader()
		if err != nil {
			// The logger isn't configured yet
			slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("Failed to load configuration", "error", err)
			c.configErr = err
			return
		}
		logging.Init(cfg.Log.Level, cfg.Log.Format)
		c.config, c.loader = cfg, loader
	})
	return c.config, c.loader, c.configErr
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "adsb_speech",
		Short:         "Announce nearby aircraft as speakable phrases",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, _, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to config file (YAML)")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newSayCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newLookupCommand(ctx))

	return rootCmd
}
