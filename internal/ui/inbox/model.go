// Package inbox renders the paginated message list for the active
// mailbox.
package inbox

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tempmail/internal/keys"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/theme"
)

// OpenMessageMsg is emitted when the user opens a message from the list.
type OpenMessageMsg struct {
	ID string
}

// Model is the inbox list view.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	cursor model.PageCursor

	width  int
	height int
}

// New creates an inbox model with an empty message list.
func New(keyMap *keys.KeyMap) Model {
	l := list.New([]list.Item{}, MessageDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(false)

	return Model{
		list: l,
		keys: keyMap,
	}
}

// SetMessages replaces the list contents with the given page of
// messages.
func (m *Model) SetMessages(messages []model.Message, cursor model.PageCursor) {
	items := make([]list.Item, len(messages))
	for i, msg := range messages {
		items[i] = MessageItem{Message: msg}
	}

	selected := m.list.Index()
	m.list.SetItems(items)
	if selected >= len(items) {
		selected = len(items) - 1
	}
	if selected >= 0 {
		m.list.Select(selected)
	}

	m.cursor = cursor
}

// Selected returns the currently highlighted message, if any.
func (m Model) Selected() (model.Message, bool) {
	item, ok := m.list.SelectedItem().(MessageItem)
	if !ok {
		return model.Message{}, false
	}
	return item.Message, true
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}

// Update handles key events and list navigation.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, m.keys.Select) {
			if selected, ok := m.Selected(); ok {
				return m, func() tea.Msg {
					return OpenMessageMsg{ID: selected.ID}
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the inbox list, or a placeholder when the page is empty.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return theme.HelpStyle.Render("  Inbox is empty. Waiting for mail…")
	}
	return m.list.View()
}

// PageStatus returns a short "page x/y (n messages)" string for the
// status bar.
func (m Model) PageStatus() string {
	if m.cursor.Total == 0 {
		return "no messages"
	}
	return fmt.Sprintf(
		"page %d/%d (%d messages)",
		m.cursor.Page,
		m.cursor.TotalPages(),
		m.cursor.Total,
	)
}
