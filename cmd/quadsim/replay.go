package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quadsim/internal/logging"
	"quadsim/internal/sim"
)

var (
	replayInput  string
	replaySpeed  float64
	replayOutput string
	replayOut    string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a trajectory log file",
	Long:  "replay feeds states from a JSONL trajectory back into GreptimeDB, a file or STDOUT, paced by their time stamps.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		ws, err := newWriters(nil, writerOptions{Output: replayOutput, Path: replayOut})
		if err != nil {
			return err
		}
		defer ws.Close()
		n, err := sim.ReplayLogFile(replayInput, ws.Writer, replaySpeed)
		logging.FromContext(cmd.Context()).Info("replay finished", "input", replayInput, "states", n)
		if err != nil {
			return err
		}
		if ws.TUI != nil {
			ws.TUI.Wait()
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to trajectory log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 for no pacing)")
	replayCmd.Flags().StringVar(&replayOutput, "output", outputStdout, "Output: stdout, json, file, csv, greptime or tui")
	replayCmd.Flags().StringVar(&replayOut, "out", "", "Output path for file and csv outputs")
	replayCmd.MarkFlagRequired("input")
}
