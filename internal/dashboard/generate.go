package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"quadsim/internal/plot"
	"quadsim/internal/sim"
	"quadsim/internal/telemetry"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Panel is one Grafana time series panel.
type Panel struct {
	Title   string
	Unit    string
	Columns []string
	X, Y    int
}

// Data is the template input.
type Data struct {
	Trajectory string
	Runs       string
	Panels     []Panel
}

var units = [3][2]string{
	{"lengthm", "radian"},
	{"velocityms", "rad/s"},
	{"accMS2", "rad/s²"},
}

// NewData lays the plot panels out on a two column grid.
func NewData() Data {
	d := Data{Trajectory: telemetry.TrajectoryTableName, Runs: sim.RunsTableName}
	for row := range plot.Layout {
		for col, p := range plot.Layout[row] {
			cols := make([]string, len(p.Series))
			for i, s := range p.Series {
				cols[i] = s.Field
			}
			d.Panels = append(d.Panels, Panel{
				Title:   p.YLabel,
				Unit:    units[row][col],
				Columns: cols,
				X:       col * 12,
				Y:       row * 8,
			})
		}
	}
	return d
}

// Render writes the rendered dashboards to outDir.
func Render(outDir string) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
		"add":  func(a, b int) int { return a + b },
		"join": strings.Join,
	}

	names, err := templates.ReadDir("templates")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	data := NewData()
	for _, e := range names {
		name := e.Name()
		t, err := template.New(name).Funcs(funcMap).ParseFS(templates, "templates/"+name)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return err
		}
		if !json.Valid(buf.Bytes()) {
			return fmt.Errorf("%s: rendered dashboard is not valid JSON", name)
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
			return err
		}
	}
	return nil
}
