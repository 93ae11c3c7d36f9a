package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/tempmail/internal/keys"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/session"
	appsync "github.com/nhle/tempmail/internal/sync"
	"github.com/nhle/tempmail/internal/ui"
	helpview "github.com/nhle/tempmail/internal/ui/help"
	"github.com/nhle/tempmail/internal/ui/inbox"
	"github.com/nhle/tempmail/internal/ui/reader"
	"github.com/nhle/tempmail/internal/ui/setup"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewReader
	ViewSetup
	ViewHelp
)

// Model is the root Bubble Tea model that manages view routing, layout,
// and access to the mailbox session.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout

	manager *session.Manager
	poller  *appsync.Poller
	logger  logrus.FieldLogger
	keys    *keys.KeyMap

	inboxView  inbox.Model
	readerView reader.Model
	setupView  setup.Model
	helpView   helpview.Model

	setupReady bool
	ready      bool
	statusMsg  string
}

// New creates the root application model.
func New(mgr *session.Manager, p *appsync.Poller, logger logrus.FieldLogger) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewInbox,
		manager:     mgr,
		poller:      p,
		logger:      logger,
		keys:        k,
		inboxView:   inbox.New(k),
		readerView:  reader.New(k),
		helpView:    helpview.New(k, 80, 24),
	}
}

// Init attempts to rehydrate a previous session. On success the poller
// starts immediately; otherwise the account setup form is shown.
func (m Model) Init() tea.Cmd {
	return m.restoreSession()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.inboxView.SetSize(contentWidth, contentHeight)
		m.readerView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		if m.setupReady {
			m.setupView.SetSize(contentWidth, contentHeight)
		}
		// Forward to the active view so huh forms can lay out.
		return m.updateActiveView(msg)

	case restoreResultMsg:
		if msg.restored {
			m.currentView = ViewInbox
			m.reloadInbox()
			return m, m.poller.Start()
		}
		if msg.err != nil {
			m.logger.WithError(msg.err).Warn("session restore failed")
		}
		return m, m.prepareSetup()

	case setupReadyMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Cannot reach mail service: %v", msg.err)
		}
		m.setupView = setup.New(
			msg.defaults,
			msg.domains,
			m.layout.ContentWidth(),
			m.layout.ContentHeight(),
		)
		m.setupReady = true
		m.previousView = m.currentView
		m.currentView = ViewSetup
		return m, m.setupView.Init()

	case setup.SubmittedMsg:
		m.setupView.SetCreating(true)
		m.setupView.SetStatus("")
		return m, tea.Batch(
			m.setupView.Spinner(),
			m.createAccount(msg.Username, msg.Password, msg.Domain),
		)

	case setup.AbortedMsg:
		// Nothing to go back to without a session; re-arm the form.
		if _, ok := m.manager.Account(); ok {
			m.currentView = ViewInbox
			return m, nil
		}
		return m, m.prepareSetup()

	case accountCreatedMsg:
		m.setupView.SetCreating(false)
		if msg.err != nil {
			m.setupView.SetStatus(accountErrorText(msg.err))
			return m, m.setupView.Init()
		}
		m.currentView = ViewInbox
		m.statusMsg = ""
		m.reloadInbox()
		return m, m.poller.Start()

	case appsync.RefreshResultMsg:
		if msg.Err != nil {
			m.statusMsg = "Refresh failed; showing cached messages"
		} else if !msg.Skipped {
			m.statusMsg = ""
		}
		m.reloadInbox()
		return m, m.poller.WaitForNextResult()

	case inbox.OpenMessageMsg:
		return m.openMessage(msg.ID)

	case detailLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Cannot load message: %v", msg.err)
			return m, nil
		}
		m.readerView.SetDetail(msg.detail)
		m.previousView = m.currentView
		m.currentView = ViewReader
		return m, tea.Batch(m.markSeen(msg.detail.ID), m.openMessageExtras(msg.detail))

	case attachmentsLoadedMsg:
		if msg.err != nil {
			m.logger.WithError(msg.err).WithField("id", msg.id).
				Warn("listing attachments failed")
			return m, nil
		}
		if d := m.readerView.Detail(); d != nil && d.ID == msg.id {
			m.readerView.SetAttachments(msg.attachments)
		}
		return m, nil

	case seenMarkedMsg:
		if msg.err != nil {
			m.logger.WithError(msg.err).WithField("id", msg.id).
				Warn("marking message seen failed")
		}
		m.reloadInbox()
		return m, nil

	case messageDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Delete failed: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "Message deleted"
		if m.currentView == ViewReader {
			m.currentView = ViewInbox
		}
		m.reloadInbox()
		return m, nil

	case accountDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Account delete failed: %v", msg.err)
			return m, nil
		}
		if !msg.cleared {
			m.statusMsg = "Service refused to delete the account"
			return m, nil
		}
		m.poller.Stop()
		m.statusMsg = "Account deleted"
		return m, m.prepareSetup()

	case sourceSavedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Save failed: %v", msg.err)
		} else {
			m.statusMsg = "Saved " + msg.path
		}
		return m, nil

	case addressCopiedMsg:
		if msg.err != nil {
			m.statusMsg = "Copy failed; clipboard unavailable"
		} else {
			m.statusMsg = "Address copied"
		}
		return m, nil

	case pageFetchedMsg:
		if msg.err != nil {
			m.statusMsg = pageErrorText(msg.err)
		} else {
			m.statusMsg = ""
		}
		m.reloadInbox()
		return m, nil

	case tea.KeyMsg:
		if model, cmd, handled := m.handleGlobalKeys(msg); handled {
			return model, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that apply regardless of the active
// view. The setup form keeps full keyboard focus except for ctrl+c.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.poller.Stop()
		return m, tea.Quit, true
	}

	if m.currentView == ViewSetup {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.currentView == ViewInbox {
			m.poller.Stop()
			return m, tea.Quit, true
		}

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
		} else {
			m.previousView = m.currentView
			m.currentView = ViewHelp
		}
		return m, nil, true

	case key.Matches(msg, m.keys.Back):
		switch m.currentView {
		case ViewReader, ViewHelp:
			m.currentView = ViewInbox
			return m, nil, true
		}

	case key.Matches(msg, m.keys.Refresh):
		m.poller.Refresh(m.manager.Cursor().Page)
		m.statusMsg = "Refreshing…"
		return m, nil, true

	case key.Matches(msg, m.keys.NextPage):
		if m.currentView == ViewInbox {
			cursor := m.manager.Cursor()
			if cursor.Page < cursor.TotalPages() {
				return m, m.fetchPage(cursor.Page + 1), true
			}
			return m, nil, true
		}

	case key.Matches(msg, m.keys.PrevPage):
		if m.currentView == ViewInbox {
			cursor := m.manager.Cursor()
			if cursor.Page > 1 {
				return m, m.fetchPage(cursor.Page - 1), true
			}
			return m, nil, true
		}

	case key.Matches(msg, m.keys.CopyAddress):
		return m, m.copyAddress(), true

	case key.Matches(msg, m.keys.DeleteMessage):
		if id, ok := m.activeMessageID(); ok {
			return m, m.deleteMessage(id), true
		}

	case key.Matches(msg, m.keys.SaveRaw):
		if id, ok := m.activeMessageID(); ok {
			return m, m.saveRawSource(id), true
		}

	case key.Matches(msg, m.keys.NewAccount):
		if m.currentView == ViewInbox {
			return m, m.prepareSetup(), true
		}

	case key.Matches(msg, m.keys.DeleteAccount):
		if m.currentView == ViewInbox {
			return m, m.deleteAccount(), true
		}
	}

	return m, nil, false
}

// activeMessageID resolves the message the current view is acting on.
func (m Model) activeMessageID() (string, bool) {
	switch m.currentView {
	case ViewInbox:
		if selected, ok := m.inboxView.Selected(); ok {
			return selected.ID, true
		}
	case ViewReader:
		if d := m.readerView.Detail(); d != nil {
			return d.ID, true
		}
	}
	return "", false
}

// reloadInbox refreshes the list view from the session state.
func (m *Model) reloadInbox() {
	m.inboxView.SetMessages(m.manager.Messages(), m.manager.Cursor())
}

// openMessage routes to the reader, serving from the detail cache when
// the message was already enriched.
func (m Model) openMessage(id string) (tea.Model, tea.Cmd) {
	if detail, ok := m.manager.Detail(id); ok {
		m.readerView.SetDetail(detail)
		m.previousView = m.currentView
		m.currentView = ViewReader
		return m, tea.Batch(m.markSeen(id), m.openMessageExtras(detail))
	}
	return m, m.fetchDetail(id)
}

// openMessageExtras kicks off the attachment inventory load for
// messages that carry attachments.
func (m Model) openMessageExtras(detail *model.MessageDetail) tea.Cmd {
	if detail == nil || !detail.HasAttachments {
		return nil
	}
	return m.loadAttachments(detail.ID)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	case ViewReader:
		m.readerView, cmd = m.readerView.Update(msg)
	case ViewSetup:
		if m.setupReady {
			m.setupView, cmd = m.setupView.Update(msg)
		}
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	address := "no mailbox"
	if account, ok := m.manager.Account(); ok {
		address = account.Address
	}

	header := m.layout.RenderHeader(address, m.pollStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewInbox:
		return m.inboxView.View()
	case ViewReader:
		return m.readerView.View()
	case ViewSetup:
		if m.setupReady {
			return m.setupView.View()
		}
		return "Preparing setup..."
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// pollStatus returns a short string describing the refresh state.
func (m Model) pollStatus() string {
	if m.manager.Loading() {
		return "creating account"
	}
	if m.manager.Refreshing() {
		return "refreshing"
	}

	state, lastSync, _ := m.poller.Status()
	switch state {
	case appsync.Errored:
		return "⚠ unreachable"
	case appsync.Running:
		return "refreshing"
	default:
		if lastSync.IsZero() {
			return "waiting for mail"
		}
		return "synced " + lastSync.Local().Format(time.Kitchen)
	}
}

// keyHints returns keyboard shortcut hints for the status bar. A
// transient status message takes precedence.
func (m Model) keyHints() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewReader:
		return "esc back | d delete | s save .eml | j/k scroll"
	case ViewSetup:
		return "enter submit | esc regenerate"
	case ViewHelp:
		return "? close help | esc back"
	default:
		hints := "q quit | ? help | enter open | r refresh | y copy address"
		if pageStatus := m.inboxView.PageStatus(); pageStatus != "" {
			return pageStatus + " | " + hints
		}
		return hints
	}
}

// accountErrorText maps account creation failures to a short form line.
func accountErrorText(err error) string {
	if session.IsAccountCreationError(err) {
		return "Account creation rejected; the address may be taken"
	}
	if session.IsAuthError(err) {
		return "Account created but login failed; try again"
	}
	if session.IsNetworkError(err) {
		return "Mail service unreachable; check your connection"
	}
	return err.Error()
}

// pageErrorText maps pagination failures to a status bar line.
func pageErrorText(err error) string {
	if err == session.ErrFetchInFlight {
		return "A refresh is already running"
	}
	return fmt.Sprintf("Page load failed: %v", err)
}
