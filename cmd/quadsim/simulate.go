package main

import (
	"github.com/spf13/cobra"

	"quadsim/internal/admin"
	"quadsim/internal/config"
	"quadsim/internal/dynamics"
	"quadsim/internal/logging"
	"quadsim/internal/plot"
	"quadsim/internal/sim"
)

var (
	simConfigPath string
	simSchemaPath string
	simManeuver   string
	simDuration   float64
	simOutput     string
	simOutPath    string
	simLogFile    string
	simPlotPath   string
	simAdminAddr  string
	simBatchSize  int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Integrate a maneuver and record the trajectory",
	Long:  "simulate loads a vehicle configuration, integrates the selected command source over the configured grid and writes every state to the chosen output.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logging.FromContext(ctx)

		cfg, err := loadConfig(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}
		applyOverrides(cfg, simManeuver, simDuration)

		src, err := dynamics.SourceFromConfig(*cfg)
		if err != nil {
			return err
		}
		in, err := dynamics.New(*cfg, src, dynamics.WithLogger(log))
		if err != nil {
			return err
		}

		ws, err := newWriters(cfg, writerOptions{Output: simOutput, Path: simOutPath, LogFile: simLogFile})
		if err != nil {
			return err
		}
		defer ws.Close()

		runner := &sim.Runner{Writer: ws.Writer, BatchSize: simBatchSize}
		res, runErr := runner.Run(ctx, in)

		if simPlotPath != "" && res.Trajectory.Len() > 0 {
			if err := plot.SavePNG(simPlotPath, res.Trajectory.States(), plot.DefaultOptions()); err != nil {
				log.Error("plot failed", "path", simPlotPath, "err", err)
			} else {
				log.Info("plot written", "path", simPlotPath)
			}
		}

		if simAdminAddr != "" {
			srv := admin.NewServer(*cfg, runner)
			srv.SetResult(res, runErr)
			status, _ := ws.Writer.(sim.AdminStatusWriter)
			if err := serveAdmin(ctx, srv, simAdminAddr, status); err != nil {
				return err
			}
		}
		if ws.TUI != nil {
			ws.TUI.Wait()
		}
		return runErr
	},
}

// applyOverrides applies the --maneuver and --duration flags. A maneuver
// selects open-loop mode, replacing fixed speeds and any maneuver file.
func applyOverrides(cfg *config.Config, maneuverName string, duration float64) {
	if maneuverName != "" {
		cfg.Command.Mode = config.ModeOpenLoop
		cfg.Command.Maneuver = maneuverName
		cfg.Command.ManeuverFile = ""
	}
	if duration > 0 {
		cfg.Simulation.Duration = duration
	}
}

func init() {
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/quadsim.yaml", "Path to vehicle configuration YAML (empty for built-in defaults)")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "", "Path to CUE schema file (embedded schema when empty)")
	simulateCmd.Flags().StringVar(&simManeuver, "maneuver", "", "Built-in maneuver overriding the configuration")
	simulateCmd.Flags().Float64Var(&simDuration, "duration", 0, "Simulated time in seconds overriding the configuration")
	simulateCmd.Flags().StringVar(&simOutput, "output", outputStdout, "Output: stdout, json, file, csv, greptime or tui")
	simulateCmd.Flags().StringVar(&simOutPath, "out", "", "Output path for file and csv outputs")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export the trajectory as JSONL in addition to the output")
	simulateCmd.Flags().StringVar(&simPlotPath, "plot", "", "Write the trajectory figure to this PNG path")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin", "", "Serve the admin UI on this address after the run")
	simulateCmd.Flags().IntVar(&simBatchSize, "batch", sim.DefaultBatchSize, "States per writer batch")
}
