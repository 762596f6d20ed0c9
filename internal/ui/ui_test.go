package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModel(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC)

	newModel := func() *Model {
		m := NewModel()
		m.now = func() time.Time { return fixed }
		m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
		return m
	}

	t.Run("status replaces banner and pushes history", func(t *testing.T) {
		m := newModel()

		m.Update(StatusMsg("♡ Album · Song One"))
		if m.Current() != "♡ Album · Song One" {
			t.Fatalf("unexpected banner %q", m.Current())
		}
		if m.HistoryLen() != 0 {
			t.Errorf("first status should not create history, got %d", m.HistoryLen())
		}

		m.Update(StatusMsg("♥ Album · Song Two"))
		if m.HistoryLen() != 1 {
			t.Errorf("expected 1 history item, got %d", m.HistoryLen())
		}
	})

	t.Run("repeated status is ignored", func(t *testing.T) {
		m := newModel()
		m.Update(StatusMsg("same"))
		m.Update(StatusMsg("same"))
		if m.HistoryLen() != 0 {
			t.Errorf("expected no history, got %d", m.HistoryLen())
		}
	})

	t.Run("notice is rendered", func(t *testing.T) {
		m := newModel()
		m.Update(NoticeMsg("keepalive suspended"))
		if !strings.Contains(m.View(), "keepalive suspended") {
			t.Errorf("view should contain notice, got %q", m.View())
		}
	})

	t.Run("clear key empties history", func(t *testing.T) {
		m := newModel()
		m.Update(StatusMsg("one"))
		m.Update(StatusMsg("two"))
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
		if m.HistoryLen() != 0 {
			t.Errorf("expected cleared history, got %d", m.HistoryLen())
		}
	})

	t.Run("quit key", func(t *testing.T) {
		m := newModel()
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
		if !m.Quit() {
			t.Error("expected quit flag")
		}
		if cmd == nil {
			t.Error("expected quit command")
		}
	})
}
