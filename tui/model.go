// Package tui provides the live link monitor for the nrflink CLI. It is built on
// the bubbletea/lipgloss stack and shows the latest sensor values, link
// statistics and a log of recent receive attempts.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	proto "github.com/ystepanoff/nrflink/protocol"
	"github.com/ystepanoff/nrflink/transport"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	headerCellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			PaddingRight(1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			PaddingRight(1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingLeft(1)

	aliveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	deadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

const (
	refreshInterval = time.Second
	aliveWindow     = 30 * time.Second
	maxLogLines     = 50
)

// Event is one receive attempt forwarded to the monitor.
type Event struct {
	At     time.Time
	Report *proto.SensorReport
	Err    error
}

type eventMsg Event

type tickMsg time.Time

type closedMsg struct{}

// Model is the bubbletea model for the monitor.
type Model struct {
	events <-chan Event
	stats  func() transport.Stats
	now    func() time.Time

	latest  map[string]proto.Reading
	log     []string
	current transport.Stats
	closed  bool
	width   int
	height  int
}

// New returns a Model reading from events. stats may be nil.
func New(events <-chan Event, stats func() transport.Stats) Model {
	return Model{
		events: events,
		stats:  stats,
		now:    time.Now,
		latest: make(map[string]proto.Reading),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), tick())
}

func waitForEvent(ch <-chan Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return eventMsg(e)
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "c":
			m.log = nil
		}
		return m, nil

	case eventMsg:
		m = m.apply(Event(msg))
		if m.stats != nil {
			m.current = m.stats()
		}
		return m, waitForEvent(m.events)

	case tickMsg:
		if m.stats != nil {
			m.current = m.stats()
		}
		return m, tick()

	case closedMsg:
		m.closed = true
		return m, nil
	}
	return m, nil
}

func (m Model) apply(e Event) Model {
	var line string
	switch {
	case e.Err != nil:
		line = errorStyle.Render(fmt.Sprintf("%s  %v", e.At.Format("15:04:05"), e.Err))
	case e.Report != nil:
		latest := make(map[string]proto.Reading, len(m.latest))
		for k, v := range m.latest {
			latest[k] = v
		}
		readings := e.Report.Readings(e.At)
		parts := make([]string, 0, len(readings))
		for _, r := range readings {
			latest[r.Sensor] = r
			parts = append(parts, fmt.Sprintf("%s=%g", r.Sensor, r.Value))
		}
		m.latest = latest
		line = fmt.Sprintf("%s  %s %s", e.At.Format("15:04:05"), e.Report.Type, strings.Join(parts, " "))
	default:
		return m
	}
	logLines := append(append([]string(nil), m.log...), line)
	if len(logLines) > maxLogLines {
		logLines = logLines[len(logLines)-maxLogLines:]
	}
	m.log = logLines
	return m
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading…"
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("  nrflink monitor  "))
	sb.WriteString("  ")
	if m.current.IsAlive(m.now(), aliveWindow) {
		sb.WriteString(aliveStyle.Render("● link alive"))
	} else {
		sb.WriteString(deadStyle.Render("● no peer"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(m.renderSensors())
	sb.WriteString("\n\n")
	sb.WriteString(statusBarStyle.Render(m.current.String()))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", m.width))
	sb.WriteString("\n")

	logHeight := m.height - len(m.latest) - 9
	if logHeight < 1 {
		logHeight = 1
	}
	lines := m.log
	if len(lines) > logHeight {
		lines = lines[len(lines)-logHeight:]
	}
	if len(lines) == 0 {
		sb.WriteString(dimStyle.Render("  Waiting for messages…"))
	} else {
		sb.WriteString(strings.Join(lines, "\n"))
	}
	sb.WriteString("\n")

	status := "q: quit  c: clear log"
	if m.closed {
		status = "receiver stopped  |  " + status
	}
	sb.WriteString(statusBarStyle.Render(status))
	return sb.String()
}

func (m Model) renderSensors() string {
	if len(m.latest) == 0 {
		return dimStyle.Render("  No readings yet.")
	}
	names := make([]string, 0, len(m.latest))
	for name := range m.latest {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := []string{strings.Join([]string{
		headerCellStyle.Width(16).Render("SENSOR"),
		headerCellStyle.Width(12).Render("VALUE"),
		headerCellStyle.Width(10).Render("AGE"),
	}, "")}
	now := m.now()
	for _, name := range names {
		r := m.latest[name]
		rows = append(rows, strings.Join([]string{
			rowStyle.Width(16).Render(name),
			rowStyle.Width(12).Render(fmt.Sprintf("%g", r.Value)),
			rowStyle.Width(10).Render(now.Sub(r.ReceivedAt).Truncate(time.Second).String()),
		}, ""))
	}
	return strings.Join(rows, "\n")
}
