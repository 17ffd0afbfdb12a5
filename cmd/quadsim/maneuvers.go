package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quadsim/internal/dashboard"
	"quadsim/internal/maneuver"
)

var dashboardOut string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render Grafana dashboards for the GreptimeDB tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboard.Render(dashboardOut)
	},
}

var maneuversCmd = &cobra.Command{
	Use:   "maneuvers",
	Short: "List the built-in maneuvers",
	RunE: func(cmd *cobra.Command, args []string) error {
		bi := maneuver.BuiltIn()
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, name := range maneuver.Names() {
			fmt.Fprintf(tw, "%s\t%s\n", name, bi[name].Description)
		}
		return tw.Flush()
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardOut, "out", "build", "Output directory")
}
