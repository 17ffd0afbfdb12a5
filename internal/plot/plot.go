// Package plot draws a trajectory as the 3x2 panel figure: inertial
// position, velocity and acceleration on the left, Euler angles, body rates
// and body angular accelerations (in degrees) on the right.
package plot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"quadsim/internal/telemetry"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("plot: empty trajectory")

const rad2deg = 180 / math.Pi

// Series is one line of a panel.
type Series struct {
	Field string
	Label string
}

// Panel is one subplot.
type Panel struct {
	YLabel  string
	Degrees bool
	Series  []Series
}

// Layout holds the panels row by row, left column first.
var Layout = [3][2]Panel{
	{
		{YLabel: "Inertial Pos.", Series: []Series{{"x", "x [m]"}, {"y", "y [m]"}, {"z", "z [m]"}}},
		{YLabel: "Euler Angles", Degrees: true, Series: []Series{{"phi", "phi [deg]"}, {"theta", "theta [deg]"}, {"psi", "psi [deg]"}}},
	},
	{
		{YLabel: "Inertial Vel.", Series: []Series{{"dx", "dx [m/s]"}, {"dy", "dy [m/s]"}, {"dz", "dz [m/s]"}}},
		{YLabel: "Body Rates", Degrees: true, Series: []Series{{"p", "p [deg/s]"}, {"q", "q [deg/s]"}, {"r", "r [deg/s]"}}},
	},
	{
		{YLabel: "Inertial Acc.", Series: []Series{{"ddx", "ddx [m/s²]"}, {"ddy", "ddy [m/s²]"}, {"ddz", "ddz [m/s²]"}}},
		{YLabel: "Body Acc.", Degrees: true, Series: []Series{{"dp", "dp [deg/s²]"}, {"dq", "dq [deg/s²]"}, {"dr", "dr [deg/s²]"}}},
	},
}

// Options controls the figure size and resolution.
type Options struct {
	Width  vg.Length
	Height vg.Length
	DPI    int
	Title  string
}

// DefaultOptions is a 12x10 inch figure at 100 DPI.
func DefaultOptions() Options {
	return Options{
		Width:  12 * vg.Inch,
		Height: 10 * vg.Inch,
		DPI:    100,
		Title:  "Quadrotor Dynamics",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.DPI <= 0 {
		o.DPI = d.DPI
	}
	return o
}

// Figure builds one plot per Layout panel, indexed [row][col].
func Figure(states []telemetry.State) ([][]*plot.Plot, error) {
	if len(states) == 0 {
		return nil, ErrNoData
	}
	plots := make([][]*plot.Plot, len(Layout))
	for row := range Layout {
		plots[row] = make([]*plot.Plot, len(Layout[row]))
		for col, panel := range Layout[row] {
			p, err := panelPlot(states, panel)
			if err != nil {
				return nil, err
			}
			if row == len(Layout)-1 {
				p.X.Label.Text = "Time [s]"
			}
			plots[row][col] = p
		}
	}
	return plots, nil
}

func panelPlot(states []telemetry.State, panel Panel) (*plot.Plot, error) {
	p := plot.New()
	p.Y.Label.Text = panel.YLabel
	p.Legend.Top = true
	p.Legend.TextStyle.Font.Size = vg.Points(8)
	p.Add(plotter.NewGrid())

	for i, s := range panel.Series {
		pts := make(plotter.XYs, len(states))
		for k, st := range states {
			v, err := st.Field(s.Field)
			if err != nil {
				return nil, err
			}
			if panel.Degrees {
				v *= rad2deg
			}
			pts[k].X = st.T
			pts[k].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("plot %s: %w", s.Field, err)
		}
		line.LineStyle.Width = vg.Points(1.2)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Label, line)
	}
	return p, nil
}

// Render draws the figure for states and writes it to w as PNG.
func Render(w io.Writer, states []telemetry.State, opts Options) error {
	plots, err := Figure(states)
	if err != nil {
		return err
	}
	opts = opts.withDefaults()

	c := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(opts.DPI))
	dc := draw.New(c)

	top := vg.Points(10)
	if opts.Title != "" {
		title := plot.New().Title.TextStyle
		title.Font.Size = vg.Points(16)
		title.XAlign = draw.XCenter
		title.YAlign = draw.YTop
		dc.FillText(title, vg.Point{X: dc.Center().X, Y: dc.Max.Y - vg.Points(8)}, opts.Title)
		top = vg.Points(36)
	}

	tiles := draw.Tiles{
		Rows:      len(Layout),
		Cols:      len(Layout[0]),
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    top,
		PadBottom: vg.Points(6),
		PadLeft:   vg.Points(6),
		PadRight:  vg.Points(6),
	}
	canvases := plot.Align(plots, tiles, dc)
	for row := range plots {
		for col := range plots[row] {
			plots[row][col].Draw(canvases[row][col])
		}
	}

	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}

// SavePNG renders states to the PNG file at path, creating parent
// directories.
func SavePNG(path string, states []telemetry.State, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := Render(bw, states, opts); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
