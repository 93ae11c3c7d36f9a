package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/tempmail/internal/mailtm"
	"github.com/nhle/tempmail/internal/model"
)

// enrichConcurrency bounds the number of detail fetches running at
// once during eager enrichment.
const enrichConcurrency = 4

// Config holds the collaborators for a Manager.
type Config struct {
	API       *mailtm.Client
	Snapshots SnapshotStore
	Archive   Archive
	Logger    logrus.FieldLogger
	PageSize  int
}

// Manager owns all mutable state for one disposable mailbox: the
// account, its bearer token, the cached domain list, the current page
// of message summaries, the per-id detail cache, and the pagination
// cursor. It mediates every call to the remote API.
//
// Detail caching is eager: FetchMessages enriches every new summary
// with its full detail so opening a message is instant. The cache is
// never evicted for the life of the session; a disposable mailbox sees
// few enough messages that this is accepted.
type Manager struct {
	api       *mailtm.Client
	snapshots SnapshotStore
	archive   Archive
	log       logrus.FieldLogger
	pageSize  int

	mu            sync.Mutex
	account       *model.Account
	token         string
	tokenValid    bool
	username      string
	password      string
	domains       []model.Domain
	messages      []model.Message
	details       map[string]*model.MessageDetail
	cursor        model.PageCursor
	loading       bool
	refreshing    bool
	fetchInFlight bool
}

// NewManager creates a session manager. The Archive and SnapshotStore
// are optional; without them the session lives only in memory.
func NewManager(cfg Config) *Manager {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Manager{
		api:       cfg.API,
		snapshots: cfg.Snapshots,
		archive:   cfg.Archive,
		log:       log,
		pageSize:  pageSize,
		details:   make(map[string]*model.MessageDetail),
	}
}

// FetchDomains replaces the cached domain list wholesale. On failure
// the previously cached list is left untouched.
func (m *Manager) FetchDomains(ctx context.Context) ([]model.Domain, error) {
	domains, err := m.api.Domains(ctx)
	if err != nil {
		return nil, &NetworkError{Op: "fetching domains", Err: err}
	}

	m.mu.Lock()
	m.domains = domains
	m.mu.Unlock()

	return append([]model.Domain(nil), domains...), nil
}

// CreateAccount registers username@domain on the service, obtains a
// token for it, and only then commits the account into session state.
// If domain is empty the first cached domain is used, fetching the
// domain list first when the cache is empty. The session is never
// observably active without a paired token: a failure at the token
// step leaves the session unset even though the remote account may
// already exist.
func (m *Manager) CreateAccount(
	ctx context.Context,
	username, password, domain string,
) (model.Account, error) {
	m.mu.Lock()
	m.loading = true
	haveDomains := len(m.domains) > 0
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	if !haveDomains {
		if _, err := m.FetchDomains(ctx); err != nil {
			return model.Account{}, err
		}
	}

	if domain == "" {
		m.mu.Lock()
		if len(m.domains) > 0 {
			domain = m.domains[0].Domain
		}
		m.mu.Unlock()
	}
	if domain == "" {
		return model.Account{}, &AccountCreationError{
			Address: username,
			Err:     fmt.Errorf("no domain available"),
		}
	}

	address := username + "@" + domain

	account, err := m.api.CreateAccount(ctx, address, password)
	if err != nil {
		return model.Account{}, &AccountCreationError{Address: address, Err: err}
	}

	if _, err := m.GetToken(ctx, address, password); err != nil {
		return model.Account{}, err
	}

	m.mu.Lock()
	m.account = account
	m.username = username
	m.password = password
	m.messages = nil
	m.details = make(map[string]*model.MessageDetail)
	m.cursor = model.PageCursor{}
	m.mu.Unlock()

	return *account, nil
}

// GetToken authenticates against the service and stores the returned
// bearer token. A 2xx response without a token field is still a
// failure.
func (m *Manager) GetToken(
	ctx context.Context,
	address, password string,
) (string, error) {
	resp, err := m.api.Token(ctx, address, password)
	if err != nil {
		return "", &AuthError{Reason: "token exchange failed", Err: err}
	}
	if resp.Token == "" {
		return "", &AuthError{Reason: "token response missing token field"}
	}

	m.mu.Lock()
	m.token = resp.Token
	m.tokenValid = true
	m.mu.Unlock()

	return resp.Token, nil
}

// FetchMessages replaces the cached summary page wholesale and updates
// the pagination cursor, then eagerly fetches details for summaries
// not yet cached. Per-detail failures are logged and skipped; only a
// failed listing fails the operation. While a fetch is outstanding,
// further calls return ErrFetchInFlight.
func (m *Manager) FetchMessages(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}

	m.mu.Lock()
	if m.account == nil || m.token == "" {
		m.mu.Unlock()
		return &FetchError{Op: "listing messages", Err: fmt.Errorf("no active session")}
	}
	if m.fetchInFlight {
		m.mu.Unlock()
		return ErrFetchInFlight
	}
	m.fetchInFlight = true
	m.refreshing = true
	token := m.token
	accountID := m.account.ID
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.fetchInFlight = false
		m.refreshing = false
		m.mu.Unlock()
	}()

	result, err := m.api.Messages(ctx, token, page, m.pageSize)
	if err != nil {
		return &FetchError{Op: "listing messages", Err: err}
	}

	m.mu.Lock()
	m.messages = result.Items
	m.cursor = model.PageCursor{
		Page:     page,
		PageSize: m.pageSize,
		Total:    result.Total,
	}
	var missing []string
	for _, msg := range result.Items {
		if _, ok := m.details[msg.ID]; !ok {
			missing = append(missing, msg.ID)
		}
	}
	m.mu.Unlock()

	m.enrich(ctx, token, accountID, missing)
	return nil
}

// enrich fetches details for the given message ids with bounded
// concurrency and inserts them into the cache and archive. Failures
// are reported per item, never propagated.
func (m *Manager) enrich(
	ctx context.Context,
	token, accountID string,
	ids []string,
) {
	if len(ids) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)

	for _, id := range ids {
		g.Go(func() error {
			detail, err := m.api.Message(gctx, token, id)
			if err != nil {
				m.log.WithError(err).
					WithField("message_id", id).
					Warn("fetching message detail")
				return nil
			}

			m.mu.Lock()
			m.details[detail.ID] = detail
			m.mu.Unlock()

			if m.archive != nil {
				if err := m.archive.SaveDetail(gctx, accountID, *detail); err != nil {
					m.log.WithError(err).
						WithField("message_id", id).
						Warn("archiving message detail")
				}
			}
			return nil
		})
	}

	_ = g.Wait()
}

// FetchMessageDetail fetches one message's full content directly from
// the service. It neither consults nor populates the detail cache;
// caching is FetchMessages' responsibility.
func (m *Manager) FetchMessageDetail(
	ctx context.Context,
	id string,
) (*model.MessageDetail, error) {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	detail, err := m.api.Message(ctx, token, id)
	if err != nil {
		return nil, &FetchError{Op: "fetching message " + id, Err: err}
	}
	return detail, nil
}

// FetchMessageSource downloads the raw RFC 822 source of a message.
func (m *Manager) FetchMessageSource(
	ctx context.Context,
	id string,
) ([]byte, error) {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	src, err := m.api.MessageSource(ctx, token, id)
	if err != nil {
		return nil, &FetchError{Op: "fetching source of message " + id, Err: err}
	}
	return src, nil
}

// MarkSeen flags a message as read on the server and in local state.
func (m *Manager) MarkSeen(ctx context.Context, id string) error {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if err := m.api.MarkSeen(ctx, token, id); err != nil {
		return &NetworkError{Op: "marking message seen", Err: err}
	}

	m.mu.Lock()
	for i := range m.messages {
		if m.messages[i].ID == id {
			m.messages[i].Seen = true
		}
	}
	if detail, ok := m.details[id]; ok {
		detail.Seen = true
	}
	m.mu.Unlock()

	return nil
}

// DeleteMessage removes a message from the mailbox and drops it from
// the summary list, the detail cache, and the archive.
func (m *Manager) DeleteMessage(ctx context.Context, id string) error {
	m.mu.Lock()
	token := m.token
	var accountID string
	if m.account != nil {
		accountID = m.account.ID
	}
	m.mu.Unlock()

	if err := m.api.DeleteMessage(ctx, token, id); err != nil {
		return &NetworkError{Op: "deleting message", Err: err}
	}

	m.mu.Lock()
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.ID != id {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	delete(m.details, id)
	if m.cursor.Total > 0 {
		m.cursor.Total--
	}
	m.mu.Unlock()

	if m.archive != nil && accountID != "" {
		if err := m.archive.DeleteDetail(ctx, accountID, id); err != nil {
			m.log.WithError(err).
				WithField("message_id", id).
				Warn("removing archived message")
		}
	}

	return nil
}

// CheckToken asks the service whether the current token still works.
// It never returns an error; every failure, transport included,
// reads as an invalid token.
func (m *Manager) CheckToken(ctx context.Context) bool {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if token == "" {
		return false
	}

	if err := m.api.Me(ctx, token); err != nil {
		m.log.WithError(err).Debug("token check failed")
		m.mu.Lock()
		m.tokenValid = false
		m.mu.Unlock()
		return false
	}

	m.mu.Lock()
	m.tokenValid = true
	m.mu.Unlock()
	return true
}

// DeleteAccount deletes the active account. Only the service's
// specific no-content success clears session state and the persisted
// snapshot and returns true; any other response leaves all state
// untouched and returns false. With no active account it is a no-op
// returning false.
func (m *Manager) DeleteAccount(ctx context.Context) (bool, error) {
	m.mu.Lock()
	if m.account == nil || m.token == "" {
		m.mu.Unlock()
		return false, nil
	}
	token := m.token
	accountID := m.account.ID
	m.mu.Unlock()

	status, err := m.api.DeleteAccount(ctx, token, accountID)
	if err != nil {
		return false, &NetworkError{Op: "deleting account", Err: err}
	}
	if status != http.StatusNoContent {
		return false, nil
	}

	m.ClearState()
	return true, nil
}

// SaveSnapshot persists the active session. The stored username is
// derived from the address's local part.
func (m *Manager) SaveSnapshot() error {
	if m.snapshots == nil {
		return nil
	}

	m.mu.Lock()
	if m.account == nil || m.token == "" {
		m.mu.Unlock()
		return fmt.Errorf("no active session to persist")
	}
	snap := Snapshot{
		Account:  *m.account,
		Token:    m.token,
		Username: localPart(m.account.Address),
		Password: m.password,
	}
	m.mu.Unlock()

	return m.snapshots.Save(snap)
}

// LoadSnapshot returns the persisted snapshot, or nil when none
// exists.
func (m *Manager) LoadSnapshot() (*Snapshot, error) {
	if m.snapshots == nil {
		return nil, nil
	}
	return m.snapshots.Load()
}

// Restore rehydrates the session from the persisted snapshot. The
// account and token are restored tentatively, then validated with
// CheckToken; on failure all state is cleared and (false, nil) is
// returned so the caller can fall back to a fresh random identity.
// On success the detail cache is warmed from the archive.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	snap, err := m.LoadSnapshot()
	if err != nil {
		return false, err
	}
	if snap == nil {
		return false, nil
	}

	m.mu.Lock()
	account := snap.Account
	m.account = &account
	m.token = snap.Token
	m.username = snap.Username
	m.password = snap.Password
	m.mu.Unlock()

	if !m.CheckToken(ctx) {
		m.ClearState()
		return false, nil
	}

	if m.archive != nil {
		details, err := m.archive.LoadDetails(ctx, snap.Account.ID)
		if err != nil {
			m.log.WithError(err).Warn("warming detail cache from archive")
		} else {
			m.mu.Lock()
			for i := range details {
				d := details[i]
				m.details[d.ID] = &d
			}
			m.mu.Unlock()
		}
	}

	return true, nil
}

// ClearState resets the account, token, message collection, detail
// cache, and pagination cursor, and removes the persisted snapshot and
// archived messages.
func (m *Manager) ClearState() {
	m.mu.Lock()
	var accountID string
	if m.account != nil {
		accountID = m.account.ID
	}
	m.account = nil
	m.token = ""
	m.tokenValid = false
	m.username = ""
	m.password = ""
	m.messages = nil
	m.details = make(map[string]*model.MessageDetail)
	m.cursor = model.PageCursor{}
	m.mu.Unlock()

	if m.snapshots != nil {
		if err := m.snapshots.Clear(); err != nil {
			m.log.WithError(err).Warn("clearing persisted snapshot")
		}
	}
	if m.archive != nil && accountID != "" {
		if err := m.archive.DeleteAccountData(context.Background(), accountID); err != nil {
			m.log.WithError(err).Warn("clearing message archive")
		}
	}
}

// Account returns the active account, if any.
func (m *Manager) Account() (model.Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.account == nil {
		return model.Account{}, false
	}
	return *m.account, true
}

// Credentials returns the username/password of the active session.
func (m *Manager) Credentials() model.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.Credentials{Username: m.username, Password: m.password}
}

// TokenValid reports the result of the most recent token check or
// exchange.
func (m *Manager) TokenValid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenValid
}

// Domains returns the cached domain list.
func (m *Manager) Domains() []model.Domain {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Domain(nil), m.domains...)
}

// Messages returns the current page of message summaries.
func (m *Manager) Messages() []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Message(nil), m.messages...)
}

// Detail returns the cached detail for a message id, if present.
func (m *Manager) Detail(id string) (*model.MessageDetail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	detail, ok := m.details[id]
	if !ok {
		return nil, false
	}
	copied := *detail
	return &copied, true
}

// Cursor returns the pagination state of the most recent successful
// listing.
func (m *Manager) Cursor() model.PageCursor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor
}

// Loading reports whether an account-creation call is in progress.
// Advisory, for UI display only.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Refreshing reports whether a message fetch is in progress.
// Advisory, for UI display only.
func (m *Manager) Refreshing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshing
}

// localPart returns the part of an address before the '@'.
func localPart(address string) string {
	if i := strings.Index(address, "@"); i >= 0 {
		return address[:i]
	}
	return address
}
