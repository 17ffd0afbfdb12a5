package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"quadsim/internal/telemetry"
)

// RunsTableName is the GreptimeDB table holding one row per run.
const RunsTableName = "quad_runs"

const defaultGreptimePort = 4001

// greptimeClient is the subset of the ingester client the writer uses.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes trajectories to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client   greptimeClient
	table    string
	runTable string
	timeout  time.Duration

	runID string
	epoch time.Time
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port") and
// writes into database.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GreptimeDBWriter{
		client:   client,
		table:    telemetry.TrajectoryTableName,
		runTable: RunsTableName,
		timeout:  10 * time.Second,
		epoch:    time.Now().UTC(),
	}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	if endpoint == "" {
		return "", 0, fmt.Errorf("greptimedb endpoint is empty")
	}
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		// no port given
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid greptimedb port %q: %w", portStr, err)
	}
	return host, port, nil
}

// BeginRun sets the run tag and the wall-clock origin of sample times.
func (w *GreptimeDBWriter) BeginRun(runID string, start time.Time) {
	w.runID = runID
	w.epoch = start.UTC()
}

func (w *GreptimeDBWriter) writeContext() (context.Context, context.CancelFunc) {
	if w.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), w.timeout)
}

// Write inserts a single state.
func (w *GreptimeDBWriter) Write(s telemetry.State) error {
	return w.WriteBatch([]telemetry.State{s})
}

// WriteBatch inserts multiple states.
func (w *GreptimeDBWriter) WriteBatch(states []telemetry.State) error {
	if len(states) == 0 {
		return nil
	}

	tbl, err := table.New(w.table)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("run_id", types.STRING); err != nil {
		return err
	}
	for _, f := range telemetry.Fields {
		if err := tbl.AddFieldColumn(f, types.FLOAT64); err != nil {
			return err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}

	for _, s := range states {
		vals := s.Values()
		row := make([]any, 0, len(vals)+2)
		row = append(row, w.runID)
		for _, v := range vals {
			row = append(row, v)
		}
		row = append(row, w.sampleTime(s.T))
		if err := tbl.AddRow(row...); err != nil {
			return err
		}
	}

	ctx, cancel := w.writeContext()
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		slog.Error("greptimedb write failed", "table", w.table, "err", err)
		return err
	}
	slog.Debug("greptimedb wrote rows", "table", w.table, "rows", len(states))
	return nil
}

func (w *GreptimeDBWriter) sampleTime(t float64) time.Time {
	return w.epoch.Add(time.Duration(t * float64(time.Second)))
}

// WriteRun inserts the run metadata row.
func (w *GreptimeDBWriter) WriteRun(r telemetry.RunRow) error {
	tbl, err := table.New(w.runTable)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("run_id", types.STRING); err != nil {
		return err
	}
	for _, c := range []string{"maneuver", "mode", "status", "error"} {
		if err := tbl.AddFieldColumn(c, types.STRING); err != nil {
			return err
		}
	}
	if err := tbl.AddFieldColumn("samples", types.INT64); err != nil {
		return err
	}
	for _, c := range []string{"duration", "timestep", "gravity", "m", "I_x", "I_y", "I_z", "l", "angle_motor1_2", "c_T", "c_RD"} {
		if err := tbl.AddFieldColumn(c, types.FLOAT64); err != nil {
			return err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}

	k := r.Constants
	if err := tbl.AddRow(
		r.RunID, r.Maneuver, r.Mode, r.Status, r.Error, int64(r.Samples),
		r.Duration, r.Timestep, r.Gravity,
		k.Mass, k.Ix, k.Iy, k.Iz, k.ArmLength, k.MotorAngle, k.ThrustCoef, k.DragCoef,
		r.Timestamp,
	); err != nil {
		return err
	}

	ctx, cancel := w.writeContext()
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		slog.Error("greptimedb run write failed", "table", w.runTable, "err", err)
		return err
	}
	return nil
}
