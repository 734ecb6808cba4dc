package main

import (
	"fmt"

	"adsb_speech/internal/cache"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the metadata cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:       "ls [flights|aircraft|airline]",
		Short:     "List cached documents",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(cache.Flights), string(cache.Aircraft), string(cache.Airline)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			categories := cache.Categories
			if len(args) == 1 {
				category, err := parseCategory(args[0])
				if err != nil {
					return err
				}
				categories = []cache.Category{category}
			}

			store := cache.New(cfg.Cache.FlightsDir, cfg.Cache.MetadataDir)
			var rows [][]string
			var total int64
			for _, category := range categories {
				entries, err := store.List(category)
				if err != nil {
					return err
				}
				for _, e := range entries {
					rows = append(rows, []string{
						string(e.Category),
						e.Key,
						humanize.Bytes(uint64(e.Size)),
						humanize.Time(e.ModTime),
					})
					total += e.Size
				}
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "Cache is empty")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Category", "Key", "Size", "Modified"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%s in %s documents\n", humanize.Bytes(uint64(total)), humanize.Comma(int64(len(rows))))
			return nil
		},
	})

	return cacheCmd
}

func parseCategory(name string) (cache.Category, error) {
	for _, c := range cache.Categories {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown cache category %q (must be flights, aircraft, or airline)", name)
}
