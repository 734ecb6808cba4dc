package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loader, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(loader.Settings())
			if err != nil {
				return fmt.Errorf("failed to encode configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			if cfg.File != "" {
				fmt.Fprintf(out, "# %s\n", cfg.File)
			} else {
				fmt.Fprintln(out, "# defaults and environment only")
			}
			_, err = out.Write(data)
			return err
		},
	}
}
