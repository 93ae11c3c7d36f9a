package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Pagination
	NextPage key.Binding
	PrevPage key.Binding

	// Clipboard
	CopyAddress key.Binding

	// Message actions
	DeleteMessage key.Binding
	SaveRaw       key.Binding

	// Account lifecycle
	NewAccount    key.Binding
	DeleteAccount key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open message"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh inbox"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]", "right"),
			key.WithHelp("]", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("[", "left"),
			key.WithHelp("[", "previous page"),
		),
		CopyAddress: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy address"),
		),
		DeleteMessage: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete message"),
		),
		SaveRaw: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save .eml"),
		),
		NewAccount: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new account"),
		),
		DeleteAccount: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete account"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Refresh,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Refresh, k.NextPage, k.PrevPage, k.CopyAddress},
		{k.DeleteMessage, k.SaveRaw},
		{k.NewAccount, k.DeleteAccount, k.Help},
	}
}
