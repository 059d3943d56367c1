package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/meridian-hooks/meridian/internal/statestore"
)

type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Toggle  key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "toggle absent keys"),
	),
}

type changedMsg struct{}

type snapshotMsg struct {
	entries []statestore.Entry
	err     error
	at      time.Time
}

// Model is the live state view.
type Model struct {
	files   *statestore.FileStore
	changes <-chan struct{}
	now     func() time.Time

	entries  []statestore.Entry
	err      error
	updated  time.Time
	width    int
	showAll  bool
	quitting bool
}

// NewModel creates a view over files that refreshes whenever changes
// delivers a value. changes may be nil for a view refreshed by hand.
func NewModel(files *statestore.FileStore, changes <-chan struct{}) Model {
	return Model{files: files, changes: changes, now: time.Now, showAll: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForChange())
}

func (m Model) load() tea.Cmd {
	files, now := m.files, m.now
	return func() tea.Msg {
		entries, err := statestore.Snapshot(files)
		return snapshotMsg{entries: entries, err: err, at: now()}
	}
}

func (m Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	changes := m.changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			return m, m.load()
		case key.Matches(msg, keys.Toggle):
			m.showAll = !m.showAll
		}
		return m, nil

	case changedMsg:
		return m, tea.Batch(m.load(), m.waitForChange())

	case snapshotMsg:
		m.entries, m.err, m.updated = msg.entries, msg.err, msg.at
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("meridian state"))
	if !m.updated.IsZero() {
		b.WriteString(helpStyle.Render("  updated " + m.updated.Format("15:04:05")))
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(flagStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
	} else {
		b.WriteString(Render(m.entries, Options{Width: m.width, Styled: true, All: m.showAll}))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(helpLine(keys.Quit, keys.Refresh, keys.Toggle)))
	return b.String()
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
