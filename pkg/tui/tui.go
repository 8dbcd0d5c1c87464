// Package tui provides a terminal user interface for mpeparse
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/mpeparse/pkg/converter"
	"github.com/james-see/mpeparse/pkg/live"
	"github.com/james-see/mpeparse/pkg/mpe"
)

// maxLines bounds the event log
const maxLines = 500

var (
	acidGreen  = lipgloss.Color("#39FF14")
	acidYellow = lipgloss.Color("#FFFF00")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(acidGreen).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(acidGreen).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(acidYellow).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(acidGreen).
			Padding(1, 2)

	kindStyles = [mpe.NumKinds]lipgloss.Style{
		mpe.KindNoteOn:    lipgloss.NewStyle().Foreground(acidGreen).Bold(true),
		mpe.KindNoteOff:   lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57")),
		mpe.KindPitchBend: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF00FF")),
		mpe.KindPressure:  lipgloss.NewStyle().Foreground(acidYellow),
		mpe.KindSlide:     lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF")),
		mpe.KindControl:   lipgloss.NewStyle().Foreground(silverGray),
	}
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StatePorts
	StateDecoding
	StateEvents
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
}

var menuItems = []MenuItem{
	{Title: "Decode MIDI file", Description: "Show the expression events in a Standard MIDI File"},
	{Title: "Monitor input port", Description: "Decode a live MIDI input as it plays"},
	{Title: "Exit", Description: "Exit the application"},
}

const (
	menuDecode = iota
	menuMonitor
	menuExit
)

// Model represents the TUI model
type Model struct {
	state      State
	menuIndex  int
	filePicker filepicker.Model
	spinner    spinner.Model
	events     viewport.Model

	ports     []string
	portIndex int

	source string // file or port being shown
	lines  []string
	err    error

	live   <-chan mpe.Event
	cancel context.CancelFunc

	width  int
	height int
}

type decodeDoneMsg struct {
	timeline *converter.Timeline
	err      error
}

type portsMsg []string

type liveEventMsg mpe.Event

type liveDoneMsg struct{}

// New creates a new TUI model
func New() Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".mid", ".midi", ".smf"}
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(acidGreen)

	return Model{
		state:      StateMenu,
		filePicker: fp,
		spinner:    s,
		events:     viewport.New(80, 20),
	}
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs to receive all messages
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.source = path
			m.state = StateDecoding
			return m, tea.Batch(m.spinner.Tick, decodeFile(path))
		}
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		m.events.Width = msg.Width - 8
		m.events.Height = msg.Height - 16
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StatePorts:
			return m.updatePorts(msg)
		case StateEvents:
			return m.updateEvents(msg)
		case StateDecoding:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case decodeDoneMsg:
		m.state = StateEvents
		m.err = msg.err
		m.lines = nil
		if msg.timeline != nil {
			for _, ev := range msg.timeline.Events {
				m = m.appendLine(formatTimed(ev))
			}
		}
		m.events.GotoTop()
		return m, nil

	case portsMsg:
		m.ports = msg
		m.portIndex = 0
		return m, nil

	case liveEventMsg:
		if m.live == nil {
			return m, nil
		}
		m = m.appendLine(formatEvent(mpe.Event(msg)))
		m.events.GotoBottom()
		return m, waitForEvent(m.live)

	case liveDoneMsg:
		m.live = nil
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		switch m.menuIndex {
		case menuDecode:
			m.state = StateFilePicker
			return m, m.filePicker.Init()
		case menuMonitor:
			m.state = StatePorts
			m.ports = nil
			return m, listPorts
		case menuExit:
			return m, tea.Quit
		}
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updatePorts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.portIndex > 0 {
			m.portIndex--
		}
	case "down", "j":
		if m.portIndex < len(m.ports)-1 {
			m.portIndex++
		}
	case "r":
		return m, listPorts
	case "enter":
		if len(m.ports) == 0 {
			return m, nil
		}
		ctx, cancel := context.WithCancel(context.Background())
		m.source = m.ports[m.portIndex]
		d := live.Listen(ctx, live.PortListener(m.source))
		m.live = d.Subscribe()
		m.cancel = cancel
		m.lines = nil
		m.err = nil
		m.events.SetContent("")
		m.state = StateEvents
		return m, waitForEvent(m.live)
	case "esc":
		m.state = StateMenu
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateEvents(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m = m.stopLive()
		m.state = StateMenu
		return m, nil
	case "c":
		m.lines = nil
		m.events.SetContent("")
		return m, nil
	case "q", "ctrl+c":
		m = m.stopLive()
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.events, cmd = m.events.Update(msg)
	return m, cmd
}

func (m Model) stopLive() Model {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.live = nil
	return m
}

func (m Model) appendLine(line string) Model {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLines {
		m.lines = m.lines[len(m.lines)-maxLines:]
	}
	m.events.SetContent(strings.Join(m.lines, "\n"))
	return m
}

func decodeFile(path string) tea.Cmd {
	return func() tea.Msg {
		tl, err := converter.NewMIDIConverter().ParseMIDIFile(path)
		return decodeDoneMsg{timeline: tl, err: err}
	}
}

func listPorts() tea.Msg {
	return portsMsg(live.ListPorts())
}

func waitForEvent(c <-chan mpe.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-c
		if !ok {
			return liveDoneMsg{}
		}
		return liveEventMsg(e)
	}
}

func formatEvent(e mpe.Event) string {
	if int(e.Kind) < len(kindStyles) {
		return kindStyles[e.Kind].Render(e.String())
	}
	return e.String()
}

func formatTimed(ev converter.TimedEvent) string {
	return fmt.Sprintf("%10.1fms  %s", ev.Millis, formatEvent(ev.Event))
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StatePorts:
		s.WriteString(m.viewPorts())
	case StateDecoding:
		s.WriteString(m.viewDecoding())
	case StateEvents:
		s.WriteString(m.viewEvents())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" MPE PARSE "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(acidYellow).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT MIDI FILE "))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewPorts() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT INPUT PORT "))
	s.WriteString("\n\n")
	if len(m.ports) == 0 {
		s.WriteString(statusStyle.Render("No MIDI input ports found"))
	}
	for i, p := range m.ports {
		if i == m.portIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", p)))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", p)))
		}
		s.WriteString("\n")
	}
	s.WriteString(helpStyle.Render("r: rescan • esc: back to menu"))

	return boxStyle.Render(s.String())
}

func (m Model) viewDecoding() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" DECODING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Decoding %s...\n", m.spinner.View(), filepath.Base(m.source)))

	return boxStyle.Render(s.String())
}

func (m Model) viewEvents() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" %s ", strings.ToUpper(filepath.Base(m.source)))))
	s.WriteString("\n\n")
	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s", m.err.Error())))
		s.WriteString("\n")
	}
	s.WriteString(m.events.View())
	s.WriteString("\n")
	status := fmt.Sprintf("%d events", len(m.lines))
	if m.live != nil {
		status = fmt.Sprintf("%s Listening • %s", m.spinner.View(), status)
	}
	s.WriteString(statusStyle.Render(status))
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("c: clear • esc: back to menu"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
   __  __ ___ ___   ___  _   ___  ___ ___ 
  |  \/  | _ \ __| | _ \/_\ | _ \/ __| __|
  | |\/| |  _/ _|  |  _/ _ \|   /\__ \ _| 
  |_|  |_|_| |___| |_|/_/ \_\_|_\|___/___|
`
	return lipgloss.NewStyle().Foreground(acidGreen).Render(logo)
}

// Run starts the TUI application
func Run() error {
	p := tea.NewProgram(New(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
