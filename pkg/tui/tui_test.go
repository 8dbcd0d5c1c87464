package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/james-see/mpeparse/pkg/converter"
	"github.com/james-see/mpeparse/pkg/mpe"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestMenuNavigation(t *testing.T) {
	m := New()
	m = update(t, m, key("down"))
	if m.menuIndex != menuMonitor {
		t.Fatalf("menuIndex = %d, want %d", m.menuIndex, menuMonitor)
	}
	m = update(t, m, key("enter"))
	if m.state != StatePorts {
		t.Errorf("state = %v, want StatePorts", m.state)
	}
	m = update(t, m, key("esc"))
	if m.state != StateMenu {
		t.Errorf("state = %v, want StateMenu", m.state)
	}
}

func TestDecodeDoneShowsEvents(t *testing.T) {
	m := New()
	m.state = StateDecoding
	m.source = "riff.mid"

	tl := &converter.Timeline{Events: []converter.TimedEvent{
		{Millis: 0, Event: mpe.NoteOn(1, 60, 1)},
		{Millis: 250, Event: mpe.Slide(1, 0.5)},
	}}
	m = update(t, m, decodeDoneMsg{timeline: tl})

	if m.state != StateEvents {
		t.Fatalf("state = %v, want StateEvents", m.state)
	}
	if len(m.lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(m.lines))
	}
	view := m.View()
	if !strings.Contains(view, "2 events") {
		t.Errorf("view missing event count:\n%s", view)
	}
}

func TestLineLimit(t *testing.T) {
	m := New()
	for i := 0; i < maxLines+50; i++ {
		m = m.appendLine("x")
	}
	if len(m.lines) != maxLines {
		t.Errorf("lines = %d, want %d", len(m.lines), maxLines)
	}
}

func TestLiveEvents(t *testing.T) {
	c := make(chan mpe.Event, 1)
	m := New()
	m.state = StateEvents
	m.live = c

	c <- mpe.PitchBend(0, 1)
	msg := waitForEvent(c)()
	m = update(t, m, msg)
	if len(m.lines) != 1 || !strings.Contains(m.lines[0], "pitch-bend") {
		t.Fatalf("lines = %q", m.lines)
	}

	close(c)
	m = update(t, m, waitForEvent(c)())
	if m.live != nil {
		t.Error("live channel should be cleared once closed")
	}
}
