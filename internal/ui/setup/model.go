// Package setup renders the account creation form shown when no
// mailbox session exists yet.
package setup

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/theme"
)

// SubmittedMsg carries the credentials chosen in the form.
type SubmittedMsg struct {
	Username string
	Password string
	Domain   string
}

// AbortedMsg signals the user cancelled the form.
type AbortedMsg struct{}

// Model is the account setup form view. The form fields are bound via
// pointers shared by every copy of the model.
type Model struct {
	form    *huh.Form
	spinner spinner.Model

	username *string
	password *string
	domain   *string

	creating  bool
	statusMsg string

	width  int
	height int
}

// New builds the setup form. Username and password are pre-filled with
// generated defaults and the first cached domain is pre-selected.
func New(defaults model.Credentials, domains []model.Domain, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	username := defaults.Username
	password := defaults.Password
	domain := ""
	if len(domains) > 0 {
		domain = domains[0].Domain
	}

	m := Model{
		spinner:  sp,
		username: &username,
		password: &password,
		domain:   &domain,
		width:    width,
		height:   height,
	}

	options := make([]huh.Option[string], len(domains))
	for i, d := range domains {
		options[i] = huh.NewOption(d.Domain, d.Domain)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Description("The local part of your disposable address").
				Value(m.username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				Description("Kept only for this session's login").
				EchoMode(huh.EchoModePassword).
				Value(m.password).
				Validate(validateRequired("Password")),
			huh.NewSelect[string]().
				Title("Domain").
				Description("Domain for the new mailbox").
				Options(options...).
				Value(m.domain),
		),
	).WithWidth(formWidth(width))

	return m
}

// Init starts the embedded form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// SetCreating toggles the in-progress spinner while the account request
// is in flight.
func (m *Model) SetCreating(creating bool) {
	m.creating = creating
}

// SetStatus shows a transient error or info line under the form.
func (m *Model) SetStatus(status string) {
	m.statusMsg = status
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.form = m.form.WithWidth(formWidth(width))
}

// Update drives the form and emits SubmittedMsg when it completes.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.creating {
		if tick, ok := msg.(spinner.TickMsg); ok {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(tick)
			return m, cmd
		}
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		submitted := SubmittedMsg{
			Username: *m.username,
			Password: *m.password,
			Domain:   *m.domain,
		}
		return m, func() tea.Msg { return submitted }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return AbortedMsg{} }
	}

	return m, cmd
}

// Spinner returns the tick command for the creating state.
func (m Model) Spinner() tea.Cmd {
	return m.spinner.Tick
}

// View renders the form, or the spinner while creation is in flight.
func (m Model) View() string {
	title := theme.HeaderStyle.Render(" New Mailbox ")

	var body string
	if m.creating {
		body = fmt.Sprintf("%s Creating account…", m.spinner.View())
	} else {
		body = m.form.View()
	}

	if m.statusMsg != "" {
		body += "\n" + theme.ErrorStyle.Render(m.statusMsg)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, "", body)
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func formWidth(width int) int {
	if width > 80 {
		return 80
	}
	if width < 20 {
		return 20
	}
	return width
}
