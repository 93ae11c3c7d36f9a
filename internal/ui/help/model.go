// Package help renders the expanded keyboard reference as a full
// screen view layered over the inbox or reader.
package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tempmail/internal/keys"
	"github.com/nhle/tempmail/internal/theme"
)

// Model wraps the bubbles help component configured for the full
// binding list.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates the help view for the given bindings.
func New(keyMap *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.ShowAll = true
	h.Width = width
	return Model{
		keys:   keyMap,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command. The view is static.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update is a no-op; dismissal is handled by the root model.
func (m Model) Update(_ tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the binding groups inside a framed panel.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorBlue).
		Render("tempmail keys")

	m.help.Width = m.width - 4
	bindings := m.help.View(m.keys)

	footer := theme.HelpStyle.Render("press ? or esc to go back")

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		bindings,
		"",
		footer,
	)

	return theme.ReaderPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
