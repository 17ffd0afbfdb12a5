package admin

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"quadsim/internal/config"
	"quadsim/internal/dynamics"
	"quadsim/internal/logging"
	"quadsim/internal/plot"
	"quadsim/internal/sim"
	"quadsim/internal/telemetry"
)

// Server exposes the last run over HTTP and can start new runs of the
// loaded configuration.
type Server struct {
	Runner *sim.Runner

	cfg config.Config
	tpl *template.Template
	mux *http.ServeMux

	mu      sync.RWMutex
	last    *sim.Result
	lastErr error
	running sync.Mutex
}

//go:embed templates/index.html
var content embed.FS

func NewServer(cfg config.Config, runner *sim.Runner) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	if runner == nil {
		runner = &sim.Runner{}
	}
	s := &Server{Runner: runner, cfg: cfg, tpl: tpl, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /trajectory", s.handleTrajectory)
	s.mux.HandleFunc("GET /summary", s.handleSummary)
	s.mux.HandleFunc("GET /config", s.handleConfig)
	s.mux.HandleFunc("GET /fields", s.handleFields)
	s.mux.HandleFunc("GET /plot.png", s.handlePlot)
	s.mux.HandleFunc("POST /run", s.handleRun)
}

// Handler returns the server's request router.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

// SetResult records the outcome of a run made outside the server.
func (s *Server) SetResult(res *sim.Result, err error) {
	s.mu.Lock()
	s.last, s.lastErr = res, err
	s.mu.Unlock()
}

// Last returns the most recent run and its error.
func (s *Server) Last() (*sim.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.lastErr
}

// Rerun integrates the loaded configuration again. Runs are serialized.
func (s *Server) Rerun(ctx context.Context) (*sim.Result, error) {
	s.running.Lock()
	defer s.running.Unlock()

	src, err := dynamics.SourceFromConfig(s.cfg)
	if err != nil {
		return nil, err
	}
	in, err := dynamics.New(s.cfg, src, dynamics.WithLogger(logging.FromContext(ctx)))
	if err != nil {
		return nil, err
	}
	res, err := s.Runner.Run(ctx, in)
	s.SetResult(res, err)
	return res, err
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logWriteError(r, err)
	}
}

// writeBody copies a rendered page or image to the client.
func writeBody(w http.ResponseWriter, r *http.Request, contentType string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	if _, err := buf.WriteTo(w); err != nil {
		logWriteError(r, err)
	}
}

func logWriteError(r *http.Request, err error) {
	logging.FromContext(r.Context()).Warn("admin response write failed", "path", r.URL.Path, "err", err)
}

func (s *Server) lastOrNotFound(w http.ResponseWriter) *sim.Result {
	res, _ := s.Last()
	if res == nil {
		http.Error(w, "no run yet", http.StatusNotFound)
	}
	return res
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Config  config.Config
		Run     *telemetry.RunRow
		Summary dynamics.Summary
	}{Config: s.cfg}
	if res, _ := s.Last(); res != nil {
		data.Run = &res.Run
		data.Summary = res.Trajectory.Summary()
	}
	var buf bytes.Buffer
	if err := s.tpl.Execute(&buf, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeBody(w, r, "text/html; charset=utf-8", &buf)
}

// handleTrajectory returns every state, or with ?fields=a,b only the named
// columns keyed by field.
func (s *Server) handleTrajectory(w http.ResponseWriter, r *http.Request) {
	res := s.lastOrNotFound(w)
	if res == nil {
		return
	}
	q := r.URL.Query().Get("fields")
	if q == "" {
		writeJSON(w, r, http.StatusOK, res.Trajectory.States())
		return
	}
	cols := make(map[string][]float64)
	for _, f := range strings.Split(q, ",") {
		f = strings.TrimSpace(f)
		col, err := res.Trajectory.Column(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cols[f] = col
	}
	writeJSON(w, r, http.StatusOK, cols)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	res := s.lastOrNotFound(w)
	if res == nil {
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"run":     res.Run,
		"summary": res.Trajectory.Summary(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.cfg)
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, telemetry.Fields)
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	res := s.lastOrNotFound(w)
	if res == nil {
		return
	}
	var buf bytes.Buffer
	if err := plot.Render(&buf, res.Trajectory.States(), plot.DefaultOptions()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeBody(w, r, "image/png", &buf)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.Rerun(r.Context())
	if res == nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, r, status, res.Run)
}
