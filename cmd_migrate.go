package main

import (
	"fmt"
	"strconv"

	"adsb_speech/internal/cache"
	"adsb_speech/internal/migrate"

	"github.com/spf13/cobra"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite a FlightXML2 cache into the AeroAPI v4 layout",
		Long: "Converts cached FlightXML2 documents in place. Holds the daemon lock,\n" +
			"so stop a running daemon first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			result, err := migrate.Run(migrate.Options{
				FlightsDir:  cfg.Cache.FlightsDir,
				MetadataDir: cfg.Cache.MetadataDir,
				LockPath:    cfg.LockPath,
				DryRun:      dryRun,
			})
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(cache.Categories))
			for _, category := range cache.Categories {
				c := result[category]
				rows = append(rows, []string{
					string(category),
					strconv.Itoa(c.Converted),
					strconv.Itoa(c.Removed),
					strconv.Itoa(c.Unchanged),
					strconv.Itoa(c.Skipped),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Category", "Converted", "Removed", "Unchanged", "Skipped"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), "Dry run: no files were changed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without writing them")
	return cmd
}
