package main

import (
	"fmt"
	"strings"

	"adsb_speech/internal/daemon"
	"adsb_speech/internal/models"

	"github.com/spf13/cobra"
)

func newSayCommand(ctx *commandContext) *cobra.Command {
	var (
		icao     string
		flight   string
		heading  float64
		altitude int
	)

	cmd := &cobra.Command{
		Use:   "say",
		Short: "Compose the phrase for a single track",
		Example: `  adsb_speech say --icao 400F01 --flight BAW123 --heading 45 --altitude 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			track := &models.TrackRecord{
				ICAO:     strings.ToUpper(strings.TrimSpace(icao)),
				Flight:   strings.TrimSpace(flight),
				Heading:  &heading,
				Altitude: &altitude,
			}
			if track.ICAO == "" {
				return fmt.Errorf("--icao is required")
			}

			composer := daemon.NewComposer(cfg, daemon.NewEngine(cfg))
			result, err := composer.Compose(commandCtx(cmd), track)
			if err != nil {
				return err
			}

			if result.Suppressed {
				fmt.Fprintf(cmd.OutOrStdout(), "(suppressed general aviation flight %s)\n", track.Designator())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&icao, "icao", "", "ICAO 24-bit address (hex)")
	cmd.Flags().StringVar(&flight, "flight", "", "Flight designator or tail number")
	cmd.Flags().Float64Var(&heading, "heading", 0, "Heading in degrees")
	cmd.Flags().IntVar(&altitude, "altitude", 0, "Altitude in feet")
	return cmd
}
