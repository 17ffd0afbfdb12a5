// ColorStdoutWriter prints human-friendly, colorized states to STDOUT.
package sim

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"quadsim/internal/config"
	"quadsim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

const rad2deg = 180 / math.Pi

// ColorStdoutWriter prints states using ANSI colors.
type ColorStdoutWriter struct {
	cfg  *config.Config
	out  io.Writer
	once sync.Once
	// Every prints one state in Every; values < 2 print all of them.
	Every int
	n     int
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.Config) *ColorStdoutWriter {
	return &ColorStdoutWriter{cfg: cfg, out: os.Stdout}
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	v, s, c := w.cfg.Vehicle, w.cfg.Simulation, w.cfg.Command

	fmt.Fprintln(w.out, "Vehicle:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Mass (kg):\t%g\n", v.Mass)
	fmt.Fprintf(tw, "Inertia x/y/z (kg·m²):\t%g / %g / %g\n", v.Inertia.X, v.Inertia.Y, v.Inertia.Z)
	fmt.Fprintf(tw, "Arm Length (m):\t%g\n", v.ArmLength)
	fmt.Fprintf(tw, "Motor Angle (deg):\t%g\n", v.MotorAngleDeg)
	fmt.Fprintf(tw, "Thrust Coeff:\t%g\n", v.ThrustCoeff)
	fmt.Fprintf(tw, "Drag Coeff:\t%g\n", v.DragCoeff)
	tw.Flush()

	fmt.Fprintln(w.out, "\nSimulation:")
	tw = tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Gravity (m/s²):\t%g\n", s.Gravity)
	fmt.Fprintf(tw, "Duration (s):\t%g\n", s.Duration)
	fmt.Fprintf(tw, "Timestep (s):\t%g\n", s.Timestep)
	fmt.Fprintf(tw, "Mode:\t%s\n", c.Mode)
	if c.Mode == config.ModeOpenLoop {
		name := c.Maneuver
		if c.ManeuverFile != "" {
			name = c.ManeuverFile
		}
		fmt.Fprintf(tw, "Maneuver:\t%s%s%s\n", colorCyan, name, colorReset)
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}

// Write outputs a single state in colorized format.
func (w *ColorStdoutWriter) Write(s telemetry.State) error {
	w.once.Do(w.printOverview)
	w.n++
	if w.Every > 1 && (w.n-1)%w.Every != 0 {
		return nil
	}

	zColor := colorGreen
	if s.Z < 0 {
		zColor = colorYellow
	}
	fmt.Fprintf(w.out, "%s[t=%7.2fs]%s ", colorGray, s.T, colorReset)
	fmt.Fprintf(w.out, "%spos=(%.3f,%.3f,%s%.3f%s)%s ", colorBlue, s.X, s.Y, zColor, s.Z, colorBlue, colorReset)
	fmt.Fprintf(w.out, "%svel=(%.3f,%.3f,%.3f)%s ", colorCyan, s.DX, s.DY, s.DZ, colorReset)
	fmt.Fprintf(w.out, "%satt=(%.2f°,%.2f°,%.2f°)%s ", colorMagenta, s.Phi*rad2deg, s.Theta*rad2deg, s.Psi*rad2deg, colorReset)
	fmt.Fprintf(w.out, "%srates=(%.3f,%.3f,%.3f)%s ", colorYellow, s.P, s.Q, s.R, colorReset)
	fmt.Fprintf(w.out, "%sω=(%.1f,%.1f,%.1f,%.1f)%s ", colorGray, s.Omega1, s.Omega2, s.Omega3, s.Omega4, colorReset)
	fmt.Fprintf(w.out, "%sF_T=%.3f%s", colorGreen, s.Thrust, colorReset)
	fmt.Fprintln(w.out)
	return nil
}

// WriteBatch outputs multiple states.
func (w *ColorStdoutWriter) WriteBatch(states []telemetry.State) error {
	for _, s := range states {
		_ = w.Write(s)
	}
	return nil
}

// WriteRun prints the run outcome.
func (w *ColorStdoutWriter) WriteRun(row telemetry.RunRow) error {
	w.once.Do(w.printOverview)
	statusColor := colorGreen
	if row.Status != telemetry.RunCompleted {
		statusColor = colorRed
	}
	fmt.Fprintf(w.out, "%s[%s]%s %sRUN%s id=%s maneuver=%s samples=%d %sstatus=%s%s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, colorReset, row.RunID, row.Maneuver, row.Samples,
		statusColor, row.Status, colorReset)
	if row.Error != "" {
		fmt.Fprintf(w.out, " %serror=%q%s", colorRed, row.Error, colorReset)
	}
	fmt.Fprintln(w.out)
	return nil
}
