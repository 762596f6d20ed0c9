package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const historySize = 50

// Model represents the status view state.
type Model struct {
	current string
	notice  bool
	updated time.Time
	history list.Model
	help    help.Model
	keys    keyMap
	width   int
	quit    bool
	now     func() time.Time
}

// NewModel creates an empty status view.
func NewModel() *Model {
	delegate := list.NewDefaultDelegate()
	history := list.New(nil, delegate, 0, 0)
	history.Title = "Earlier"
	history.SetShowHelp(false)
	history.SetShowStatusBar(false)

	return &Model{
		current: "waiting for playback…",
		history: history,
		help:    help.New(),
		keys:    newKeyMap(),
		now:     time.Now,
	}
}

// Quit reports whether the user asked to leave.
func (m *Model) Quit() bool { return m.quit }

// Current returns the text in the banner.
func (m *Model) Current() string { return m.current }

// HistoryLen returns the number of earlier texts kept.
func (m *Model) HistoryLen() int { return len(m.history.Items()) }

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.history.SetSize(msg.Width, max(msg.Height-8, 3))
		return m, nil

	case Msg:
		return m, m.push(msg)

	case tea.KeyMsg:
		if m.history.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.quit):
			m.quit = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.clear):
			m.history.SetItems(nil)
			return m, nil
		case key.Matches(msg, m.keys.help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

// push moves the current text into history and shows the new one.
func (m *Model) push(msg Msg) tea.Cmd {
	text := strings.TrimSpace(msg.Text())
	if text == "" || (text == m.current && msg.Kind() == MsgStatus) {
		return nil
	}

	var cmd tea.Cmd
	if !m.updated.IsZero() {
		cmd = m.history.InsertItem(0, statusItem{text: m.current, notice: m.notice, at: m.updated})
		if n := len(m.history.Items()); n > historySize {
			m.history.RemoveItem(n - 1)
		}
	}

	m.current = text
	m.notice = msg.Kind() == MsgNotice
	m.updated = m.now()
	return cmd
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("spotkey"))
	b.WriteString("\n")

	text := m.current
	if m.notice {
		text = styles.warn.Render(text)
	} else {
		text = styles.ok.Render(text)
	}
	b.WriteString(styles.banner.Render(text))
	b.WriteString("\n")

	if !m.updated.IsZero() {
		b.WriteString(styles.help.Render("updated " + m.updated.Format(time.Kitchen)))
		b.WriteString("\n")
	}

	if len(m.history.Items()) > 0 {
		b.WriteString("\n")
		b.WriteString(m.history.View())
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().MarginTop(1).Render(m.help.View(m.keys)))
	return b.String()
}
