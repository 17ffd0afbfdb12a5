package sim

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/muesli/reflow/wordwrap"

	"quadsim/internal/config"
	"quadsim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a log line for the viewport.
type logMsg struct{ line string }

// stateMsg carries the latest state.
type stateMsg struct{ telemetry.State }

// runMsg carries the finished run row.
type runMsg struct{ telemetry.RunRow }

// adminMsg reports admin UI status.
type adminMsg struct{ active bool }

const (
	maxLogLines     = 1000
	historyCapacity = 600
	graphHeight     = 8
)

// graphChannels are cycled with "g"; any other field can be picked with "/".
var graphChannels = []string{"z", "x", "y", "phi", "theta", "psi", "F_T"}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// TUIWriter renders a trajectory using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.Config) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements TraceWriter.
func (w *TUIWriter) Write(s telemetry.State) error {
	line := fmt.Sprintf("%s[t=%7.2fs]%s %spos=(%.3f,%.3f,%.3f)%s %satt=(%.2f°,%.2f°,%.2f°)%s %sω=(%.1f,%.1f,%.1f,%.1f)%s",
		colorGray, s.T, colorReset,
		colorBlue, s.X, s.Y, s.Z, colorReset,
		colorMagenta, s.Phi*rad2deg, s.Theta*rad2deg, s.Psi*rad2deg, colorReset,
		colorYellow, s.Omega1, s.Omega2, s.Omega3, s.Omega4, colorReset,
	)
	w.program.Send(logMsg{line: line})
	w.program.Send(stateMsg{s})
	return nil
}

// WriteBatch outputs multiple states.
func (w *TUIWriter) WriteBatch(states []telemetry.State) error {
	for _, s := range states {
		_ = w.Write(s)
	}
	return nil
}

// WriteRun implements RunWriter.
func (w *TUIWriter) WriteRun(row telemetry.RunRow) error {
	w.program.Send(runMsg{row})
	return nil
}

// SetAdminStatus updates the admin UI indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// Wait blocks until the user quits the TUI.
func (w *TUIWriter) Wait() {
	w.sendSignal.Store(false)
	if w.done != nil {
		<-w.done
	}
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg        *config.Config
	table      table.Model
	vp         viewport.Model
	logs       []string
	last       telemetry.State
	haveState  bool
	run        *telemetry.RunRow
	history    map[string][]float64
	channel    string
	fieldInput textinput.Model
	picking    bool
	admin      bool
	wrap       bool
	autoscroll bool
	summary    bool
	help       bool
	width      int
	height     int
}

func newTUIModel(cfg *config.Config) tuiModel {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	v, s := cfg.Vehicle, cfg.Simulation
	cols := []table.Column{
		{Title: "Vehicle", Width: 16},
		{Title: "Value", Width: 10},
		{Title: "Simulation", Width: 16},
		{Title: "Value", Width: 10},
	}
	rows := []table.Row{
		{"Mass (kg)", fmt.Sprintf("%g", v.Mass), "Gravity", fmt.Sprintf("%g", s.Gravity)},
		{"Arm (m)", fmt.Sprintf("%g", v.ArmLength), "Duration (s)", fmt.Sprintf("%g", s.Duration)},
		{"Motor Angle", fmt.Sprintf("%g°", v.MotorAngleDeg), "Timestep (s)", fmt.Sprintf("%g", s.Timestep)},
		{"c_T", fmt.Sprintf("%.3g", v.ThrustCoeff), "Maneuver", ManeuverLabel(*cfg)},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	return tuiModel{
		cfg:        cfg,
		table:      t,
		vp:         viewport.New(0, 0),
		history:    make(map[string][]float64),
		channel:    graphChannels[0],
		autoscroll: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		if m.picking {
			switch msg.Type {
			case tea.KeyEnter:
				name := strings.TrimSpace(m.fieldInput.Value())
				if _, err := (telemetry.State{}).Field(name); err == nil {
					m.channel = name
				}
				m.picking = false
				m.updateViewportHeight()
			case tea.KeyEsc:
				m.picking = false
				m.updateViewportHeight()
			default:
				var cmd tea.Cmd
				m.fieldInput, cmd = m.fieldInput.Update(msg)
				return m, cmd
			}
			return m, nil
		}
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case "g":
			m.channel = nextChannel(m.channel)
			return m, nil
		case "/":
			m.fieldInput = textinput.New()
			m.fieldInput.Placeholder = "field, e.g. dtheta"
			m.fieldInput.SetValue(m.channel)
			m.fieldInput.CursorEnd()
			m.fieldInput.Focus()
			m.picking = true
			m.updateViewportHeight()
			return m, nil
		case "t":
			m.summary = !m.summary
			m.updateViewportHeight()
			return m, nil
		case "h", "?":
			m.help = !m.help
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	case stateMsg:
		m.last = msg.State
		m.haveState = true
		m.record(msg.State)
	case runMsg:
		row := msg.RunRow
		m.run = &row
		m.updateViewportHeight()
	case adminMsg:
		m.admin = msg.active
	}
	return m, nil
}

// record appends every field of s to its bounded history.
func (m *tuiModel) record(s telemetry.State) {
	if m.history == nil {
		m.history = make(map[string][]float64)
	}
	for i, v := range s.Values() {
		name := telemetry.Fields[i]
		if isAngular(name) {
			v *= rad2deg
		}
		h := append(m.history[name], v)
		if len(h) > historyCapacity {
			h = h[len(h)-historyCapacity:]
		}
		m.history[name] = h
	}
}

func nextChannel(cur string) string {
	for i, c := range graphChannels {
		if c == cur {
			return graphChannels[(i+1)%len(graphChannels)]
		}
	}
	return graphChannels[0]
}

// isAngular reports whether a field is an angle, angular rate or angular
// acceleration, displayed in degrees.
func isAngular(name string) bool {
	switch name {
	case "phi", "theta", "psi",
		"dphi", "dtheta", "dpsi",
		"ddphi", "ddtheta", "ddpsi",
		"p", "q", "r", "dp", "dq", "dr":
		return true
	}
	return false
}

func (m *tuiModel) updateViewportHeight() {
	used := lipgloss.Height(m.renderHeader()) + lipgloss.Height(m.renderGraph()) + lipgloss.Height(m.renderBottom()) + 3
	h := m.height - used
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	lines := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		if m.wrap && m.vp.Width > 0 {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := dividerStyle.Render(strings.Repeat("─", max(m.vp.Width, 1)))
	sections := []string{
		m.renderHeader(),
		divider,
		m.renderGraph(),
		divider,
		m.vp.View(),
		divider,
		m.renderBottom(),
	}
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	return titleStyle.Render("Quadrotor Dynamics") + "\n" + m.table.View()
}

func (m tuiModel) renderGraph() string {
	data := m.history[m.channel]
	unit := ""
	if isAngular(m.channel) {
		unit = " [deg]"
	}
	caption := m.channel + unit
	if len(data) < 2 {
		return labelStyle.Render(caption + ": waiting for data")
	}
	w := m.width - 10
	if w < 20 {
		w = 20
	}
	return asciigraph.Plot(data,
		asciigraph.Height(graphHeight),
		asciigraph.Width(w),
		asciigraph.Caption(caption))
}

func (m tuiModel) renderSummary() string {
	if !m.haveState {
		return "no samples yet"
	}
	s := m.last
	text := fmt.Sprintf("t=%.2fs position=(%.3f, %.3f, %.3f) m velocity=(%.3f, %.3f, %.3f) m/s attitude=(%.2f, %.2f, %.2f) deg rates=(%.2f, %.2f, %.2f) deg/s thrust=%.3f N moments=(%.4f, %.4f, %.4f) N·m",
		s.T, s.X, s.Y, s.Z, s.DX, s.DY, s.DZ,
		s.Phi*rad2deg, s.Theta*rad2deg, s.Psi*rad2deg,
		s.P*rad2deg, s.Q*rad2deg, s.R*rad2deg,
		s.Thrust, s.MomentX, s.MomentY, s.MomentZ)
	if m.width > 0 {
		text = wordwrap.String(text, m.width)
	}
	return text
}

func (m tuiModel) renderBottom() string {
	var b strings.Builder
	if m.picking {
		b.WriteString("Graph field: " + m.fieldInput.View() + "\n")
	}
	if m.summary {
		b.WriteString(m.renderSummary() + "\n")
	}
	status := labelStyle.Render("running")
	if m.run != nil {
		if m.run.Status == telemetry.RunCompleted {
			status = okStyle.Render("completed")
		} else {
			status = errStyle.Render("aborted: " + m.run.Error)
		}
		status += labelStyle.Render(fmt.Sprintf(" (%d samples)", m.run.Samples))
	}
	admin := labelStyle.Render("admin off")
	if m.admin {
		admin = okStyle.Render("admin on")
	}
	samples := len(m.history["t"])
	b.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s  %s",
		labelStyle.Render("samples"), valueStyle.Render(fmt.Sprint(samples)),
		labelStyle.Render("graph"), valueStyle.Render(m.channel),
		labelStyle.Render("run"), status,
		admin))
	b.WriteString("\n" + labelStyle.Render("q quit · g graph · / pick field · t summary · w wrap · s scroll · ? help"))
	return b.String()
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		titleStyle.Render("Keyboard shortcuts"),
		"  q / ctrl+c  quit",
		"  g           cycle graph channel (" + strings.Join(graphChannels, ", ") + ")",
		"  /           graph any trajectory field",
		"  t           toggle state summary",
		"  w           toggle line wrapping",
		"  s           toggle autoscroll; j/k and pgup/pgdown scroll when off",
		"  ? / h       toggle this help",
	}
	return strings.Join(lines, "\n")
}
