package main

import (
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"quadsim/internal/logging"
	"quadsim/internal/plot"
	"quadsim/internal/sim"
)

var (
	plotInput  string
	plotOut    string
	plotWidth  float64
	plotHeight float64
	plotDPI    int
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Draw a trajectory log as PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		states, err := sim.LoadTrajectory(plotInput)
		if err != nil {
			return err
		}
		opts := plot.DefaultOptions()
		opts.Width = vg.Length(plotWidth) * vg.Inch
		opts.Height = vg.Length(plotHeight) * vg.Inch
		opts.DPI = plotDPI
		if err := plot.SavePNG(plotOut, states, opts); err != nil {
			return err
		}
		logging.FromContext(cmd.Context()).Info("plot written", "path", plotOut, "states", len(states))
		return nil
	},
}

func init() {
	plotCmd.Flags().StringVar(&plotInput, "input", "", "Path to trajectory log file (JSONL)")
	plotCmd.Flags().StringVar(&plotOut, "out", "quad_dynamics.png", "PNG output path")
	plotCmd.Flags().Float64Var(&plotWidth, "width", 12, "Figure width in inches")
	plotCmd.Flags().Float64Var(&plotHeight, "height", 10, "Figure height in inches")
	plotCmd.Flags().IntVar(&plotDPI, "dpi", 100, "Resolution")
	plotCmd.MarkFlagRequired("input")
}
