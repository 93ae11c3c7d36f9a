package session

import (
	"context"

	"github.com/nhle/tempmail/internal/model"
)

// Snapshot is the serialized session state used to rehydrate across
// program runs. The password is the plaintext chosen or generated at
// account creation; it is persisted only so the session can
// re-authenticate after the token expires. Stores are expected to keep
// it out of plain files unless explicitly configured otherwise.
type Snapshot struct {
	Account  model.Account `json:"account"`
	Token    string        `json:"token"`
	Username string        `json:"username"`
	Password string        `json:"password"`
}

// SnapshotStore persists at most one session snapshot.
type SnapshotStore interface {
	// Save stores the snapshot, replacing any previous one.
	Save(snap Snapshot) error

	// Load returns the stored snapshot, or nil when none exists.
	Load() (*Snapshot, error)

	// Clear removes the stored snapshot. Clearing an absent snapshot
	// is not an error.
	Clear() error
}

// Archive is an optional write-through cache of fetched message
// details, keyed by account. It warms the in-memory detail cache on
// rehydration so a restart does not refetch bodies.
type Archive interface {
	SaveDetail(ctx context.Context, accountID string, detail model.MessageDetail) error
	LoadDetails(ctx context.Context, accountID string) ([]model.MessageDetail, error)
	DeleteDetail(ctx context.Context, accountID, messageID string) error
	DeleteAccountData(ctx context.Context, accountID string) error
}
