package plot

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/plot/vg"

	"quadsim/internal/telemetry"
)

func states(n int) []telemetry.State {
	out := make([]telemetry.State, n)
	for i := range out {
		t := float64(i) * 0.05
		out[i] = telemetry.State{T: t, X: t, Z: math.Sin(t), Phi: 0.1 * t, P: 0.2}
	}
	return out
}

func TestFigureLayout(t *testing.T) {
	plots, err := Figure(states(10))
	if err != nil {
		t.Fatalf("Figure: %v", err)
	}
	if len(plots) != 3 || len(plots[0]) != 2 {
		t.Fatalf("expected 3x2 plots, got %dx%d", len(plots), len(plots[0]))
	}
	if plots[0][0].Y.Label.Text != "Inertial Pos." || plots[0][1].Y.Label.Text != "Euler Angles" {
		t.Fatalf("unexpected top row labels")
	}
	if plots[2][0].X.Label.Text != "Time [s]" || plots[2][1].X.Label.Text != "Time [s]" {
		t.Fatalf("bottom row should carry the time axis label")
	}
	if plots[0][0].X.Label.Text != "" {
		t.Fatalf("only the bottom row carries the time label")
	}
	// angular panels are scaled to degrees
	if hi := plots[1][1].Y.Max; hi < 11.4 || hi > 11.5 {
		t.Fatalf("body rate panel should span 0.2 rad/s in degrees, got max %v", hi)
	}
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Width: 6 * vg.Inch, Height: 5 * vg.Inch, DPI: 50}
	if err := Render(&buf, states(40), opts); err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 250 {
		t.Fatalf("unexpected image size %v", b)
	}
}

func TestRenderEmpty(t *testing.T) {
	if err := Render(&bytes.Buffer{}, nil, DefaultOptions()); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "dynamics.png")
	if err := SavePNG(path, states(5), Options{DPI: 20}); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("png not written: %v", err)
	}
}
