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
	"github.com/muesli/reflow/wordwrap"

	"dronegrid-sim/internal/config"
	"dronegrid-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
	Quit()
}

// snapshotMsg carries the per-tick simulation snapshot.
type snapshotMsg struct{ telemetry.Snapshot }

// eventLogMsg carries one formatted event log line.
type eventLogMsg struct{ line string }

// commandResultMsg reports the outcome of a dispatched command.
type commandResultMsg struct{ err error }

const maxLogLines = 200

var (
	tuiTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	tuiBorderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	tuiDroneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	tuiTargetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	tuiFoundStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tuiEmptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	tuiErrStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// TUIWriter renders the grid, drone table, and event log in a bubbletea
// program. Commands typed into its input box are handed to the dispatch
// callback, so the UI layer only ever drives the core's public command
// surface.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. dispatch
// may be nil to disable command input.
func NewTUIWriter(cfg *config.SimulationConfig, dispatch func(string) error) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg, dispatch), tea.WithAltScreen())
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

// Write implements TelemetryWriter. Individual rows are ignored; the TUI
// renders from snapshots.
func (w *TUIWriter) Write(telemetry.DroneRow) error { return nil }

// WriteBatch implements the batch upgrade with the same no-op semantics.
func (w *TUIWriter) WriteBatch([]telemetry.DroneRow) error { return nil }

// WriteSnapshot forwards the tick snapshot to the UI.
func (w *TUIWriter) WriteSnapshot(snap telemetry.Snapshot) error {
	w.program.Send(snapshotMsg{snap})
	return nil
}

// WriteEvent appends the event to the UI log.
func (w *TUIWriter) WriteEvent(e telemetry.EventRow) error {
	line := fmt.Sprintf("[%04d] %s %s", e.Tick, e.Type, formatPayload(e.Payload))
	w.program.Send(eventLogMsg{line: line})
	return nil
}

// WriteEvents appends multiple events to the UI log.
func (w *TUIWriter) WriteEvents(rows []telemetry.EventRow) error {
	for _, e := range rows {
		_ = w.WriteEvent(e)
	}
	return nil
}

// Close stops the UI without signalling the process.
func (w *TUIWriter) Close() {
	w.sendSignal.Store(false)
	w.program.Quit()
	<-w.done
}

func formatPayload(payload map[string]any) string {
	if len(payload) == 0 {
		return ""
	}
	parts := make([]string, 0, len(payload))
	for _, k := range []string{"drone", "behavior", "direction", "x", "y", "target_x", "target_y", "others", "found", "targets"} {
		if v, ok := payload[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, " ")
}

type tuiModel struct {
	cfg      *config.SimulationConfig
	dispatch func(string) error

	snap     telemetry.Snapshot
	drones   table.Model
	log      viewport.Model
	input    textinput.Model
	logLines []string
	lastErr  error
	width    int
	height   int
	ready    bool
}

func newTUIModel(cfg *config.SimulationConfig, dispatch func(string) error) tuiModel {
	columns := []table.Column{
		{Title: "Drone", Width: 10},
		{Title: "Pos", Width: 10},
		{Title: "Behavior", Width: 12},
		{Title: "Status", Width: 10},
	}
	t := table.New(table.WithColumns(columns), table.WithHeight(6))
	ti := textinput.New()
	ti.Placeholder = "drone 1 up=3 and right=2"
	ti.Prompt = "command> "
	ti.Focus()
	return tuiModel{
		cfg:      cfg,
		dispatch: dispatch,
		drones:   t,
		log:      viewport.New(60, 8),
		input:    ti,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.log.Width = max(20, m.width-4)
		m.log.Height = max(4, m.height/4)
		m.ready = true
		m.refreshLog()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if text == "" || m.dispatch == nil {
				return m, nil
			}
			m.lastErr = m.dispatch(text)
			return m, nil
		}

	case snapshotMsg:
		m.snap = msg.Snapshot
		rows := make([]table.Row, len(m.snap.Drones))
		for i, d := range m.snap.Drones {
			rows[i] = table.Row{d.DroneID, fmt.Sprintf("(%d,%d)", d.X, d.Y), d.Behavior, d.Status}
		}
		m.drones.SetRows(rows)
		return m, nil

	case eventLogMsg:
		m.logLines = append(m.logLines, msg.line)
		if len(m.logLines) > maxLogLines {
			m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
		}
		m.refreshLog()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.log, cmd = m.log.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *tuiModel) refreshLog() {
	width := m.log.Width
	if width <= 0 {
		width = 60
	}
	m.log.SetContent(wordwrap.String(strings.Join(m.logLines, "\n"), width))
	m.log.GotoBottom()
}

func (m tuiModel) View() string {
	if !m.ready {
		return "initializing..."
	}
	title := tuiTitleStyle.Render(fmt.Sprintf("dronegrid-sim  tick %d  targets left %d",
		m.snap.Tick, unfoundCount(m.snap.Targets)))
	gridPane := tuiBorderStyle.Render(renderGrid(m.snap))
	tablePane := tuiBorderStyle.Render(m.drones.View())
	logPane := tuiBorderStyle.Render(m.log.View())
	inputLine := m.input.View()
	if m.lastErr != nil {
		inputLine += "  " + tuiErrStyle.Render(m.lastErr.Error())
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top, gridPane, tablePane)
	return lipgloss.JoinVertical(lipgloss.Left, title, top, logPane, inputLine)
}

func unfoundCount(targets []telemetry.TargetState) int {
	n := 0
	for _, t := range targets {
		if !t.Found {
			n++
		}
	}
	return n
}

// renderGrid draws the occupancy view: drones as D, unfound targets as T,
// found targets as t, empty cells as dots. A cell holding several drones
// shows their count.
func renderGrid(snap telemetry.Snapshot) string {
	if snap.Width == 0 || snap.Height == 0 {
		return "waiting for first tick..."
	}
	droneCount := make(map[[2]int]int)
	for _, d := range snap.Drones {
		droneCount[[2]int{d.X, d.Y}]++
	}
	targets := make(map[[2]int]bool)
	for _, t := range snap.Targets {
		targets[[2]int{t.X, t.Y}] = t.Found
	}
	var b strings.Builder
	for y := 0; y < snap.Height; y++ {
		for x := 0; x < snap.Width; x++ {
			key := [2]int{x, y}
			switch {
			case droneCount[key] > 1:
				b.WriteString(tuiDroneStyle.Render(fmt.Sprintf("%d", min(droneCount[key], 9))))
			case droneCount[key] == 1:
				b.WriteString(tuiDroneStyle.Render("D"))
			default:
				if found, ok := targets[key]; ok {
					if found {
						b.WriteString(tuiFoundStyle.Render("t"))
					} else {
						b.WriteString(tuiTargetStyle.Render("T"))
					}
				} else {
					b.WriteString(tuiEmptyStyle.Render("·"))
				}
			}
			if x < snap.Width-1 {
				b.WriteString(" ")
			}
		}
		if y < snap.Height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
