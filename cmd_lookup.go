package main

import (
	"fmt"
	"strings"

	"adsb_speech/internal/daemon"

	"github.com/spf13/cobra"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Resolve metadata through the cache and the FlightAware API",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "route <ident>",
		Short: "Show the route of a flight designator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			ident := strings.ToUpper(args[0])
			route, err := daemon.NewEngine(cfg).ResolveRoute(commandCtx(cmd), ident)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Origin", optional(route.Origin)},
				{"Destination", optional(route.Destination)},
				{"Aircraft type", optional(route.AircraftType)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{ident, ""}, rows, nil))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "type <code>",
		Short: "Show the manufacturer and type name of an aircraft type code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			code := strings.ToUpper(args[0])
			name, ok, err := daemon.NewEngine(cfg).ResolveAircraftType(commandCtx(cmd), code)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("aircraft type %s not found", code)
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	})

	var short bool
	airline := &cobra.Command{
		Use:   "airline <code>",
		Short: "Show the name of an airline by ICAO code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			code := strings.ToUpper(args[0])
			name, ok, err := daemon.NewEngine(cfg).ResolveAirlineName(commandCtx(cmd), code, short)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("airline %s not found", code)
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
	airline.Flags().BoolVar(&short, "short", false, "Print the spoken short name without the country")
	cmd.AddCommand(airline)

	return cmd
}

func optional(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
