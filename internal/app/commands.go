package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tempmail/internal/eml"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/session"
)

// restoreResultMsg carries the outcome of session rehydration.
type restoreResultMsg struct {
	restored bool
	err      error
}

// setupReadyMsg carries generated credentials and the domain list for
// the account creation form.
type setupReadyMsg struct {
	defaults model.Credentials
	domains  []model.Domain
	err      error
}

type accountCreatedMsg struct {
	err error
}

type detailLoadedMsg struct {
	detail *model.MessageDetail
	err    error
}

type seenMarkedMsg struct {
	id  string
	err error
}

type messageDeletedMsg struct {
	id  string
	err error
}

type accountDeletedMsg struct {
	cleared bool
	err     error
}

type attachmentsLoadedMsg struct {
	id          string
	attachments []eml.Attachment
	err         error
}

type sourceSavedMsg struct {
	path string
	err  error
}

type addressCopiedMsg struct {
	err error
}

type pageFetchedMsg struct {
	err error
}

// restoreSession attempts to rehydrate a persisted session.
func (m Model) restoreSession() tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		restored, err := mgr.Restore(context.Background())
		return restoreResultMsg{restored: restored, err: err}
	}
}

// prepareSetup generates fresh credentials and loads the domain list
// for the account form. Domains come from the cache when available.
func (m Model) prepareSetup() tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		defaults := session.GenerateRandomAccount()

		domains := mgr.Domains()
		if len(domains) == 0 {
			fetched, err := mgr.FetchDomains(context.Background())
			if err != nil {
				return setupReadyMsg{defaults: defaults, err: err}
			}
			domains = fetched
		}

		return setupReadyMsg{defaults: defaults, domains: domains}
	}
}

// createAccount registers the mailbox, persists the session snapshot,
// and loads the first inbox page.
func (m Model) createAccount(username, password, domain string) tea.Cmd {
	mgr := m.manager
	logger := m.logger
	return func() tea.Msg {
		ctx := context.Background()

		if _, err := mgr.CreateAccount(ctx, username, password, domain); err != nil {
			return accountCreatedMsg{err: err}
		}

		if err := mgr.SaveSnapshot(); err != nil {
			// The session is live; persistence failure only costs
			// the next restart.
			logger.WithError(err).Warn("saving session snapshot failed")
		}

		if err := mgr.FetchMessages(ctx, 1); err != nil {
			logger.WithError(err).Warn("initial inbox fetch failed")
		}

		return accountCreatedMsg{}
	}
}

// fetchDetail loads a message's full content from the service.
func (m Model) fetchDetail(id string) tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		detail, err := mgr.FetchMessageDetail(context.Background(), id)
		return detailLoadedMsg{detail: detail, err: err}
	}
}

// markSeen flags a message as read.
func (m Model) markSeen(id string) tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		err := mgr.MarkSeen(context.Background(), id)
		return seenMarkedMsg{id: id, err: err}
	}
}

// loadAttachments downloads the raw source of a message and parses
// its attachment inventory for the reader.
func (m Model) loadAttachments(id string) tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		raw, err := mgr.FetchMessageSource(context.Background(), id)
		if err != nil {
			return attachmentsLoadedMsg{id: id, err: err}
		}

		parsed, err := eml.Parse(raw)
		if err != nil {
			return attachmentsLoadedMsg{id: id, err: err}
		}
		return attachmentsLoadedMsg{id: id, attachments: parsed.Attachments}
	}
}

// deleteMessage removes a message from the mailbox.
func (m Model) deleteMessage(id string) tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		err := mgr.DeleteMessage(context.Background(), id)
		return messageDeletedMsg{id: id, err: err}
	}
}

// deleteAccount destroys the remote account and local session state.
func (m Model) deleteAccount() tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		cleared, err := mgr.DeleteAccount(context.Background())
		return accountDeletedMsg{cleared: cleared, err: err}
	}
}

// saveRawSource downloads the raw RFC 822 source and writes it to the
// downloads directory as an .eml file.
func (m Model) saveRawSource(id string) tea.Cmd {
	mgr := m.manager
	var subject string
	if detail, ok := mgr.Detail(id); ok {
		subject = detail.Subject
	}

	return func() tea.Msg {
		raw, err := mgr.FetchMessageSource(context.Background(), id)
		if err != nil {
			return sourceSavedMsg{err: err}
		}

		path := filepath.Join(downloadDir(), eml.SuggestFilename(subject, id))
		if err := eml.Save(path, raw); err != nil {
			return sourceSavedMsg{err: err}
		}
		return sourceSavedMsg{path: path}
	}
}

// copyAddress puts the mailbox address on the system clipboard.
func (m Model) copyAddress() tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		account, ok := mgr.Account()
		if !ok {
			return addressCopiedMsg{err: os.ErrNotExist}
		}
		return addressCopiedMsg{err: clipboard.WriteAll(account.Address)}
	}
}

// fetchPage loads the given inbox page.
func (m Model) fetchPage(page int) tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		err := mgr.FetchMessages(context.Background(), page)
		return pageFetchedMsg{err: err}
	}
}

// downloadDir picks a destination for saved .eml files, preferring the
// user's Downloads directory.
func downloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	downloads := filepath.Join(home, "Downloads")
	if info, err := os.Stat(downloads); err == nil && info.IsDir() {
		return downloads
	}
	return home
}
