package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"

	"github.com/nhle/tempmail/internal/session"
)

const (
	serviceName = "tempmail"
	snapshotKey = "session-snapshot"
)

// Store persists the session snapshot in the system keyring. The
// snapshot carries the account's plaintext password, so the on-disk
// file backend is excluded unless explicitly allowed.
type Store struct {
	allowInsecureFile bool
}

// NewStore creates a snapshot store. allowInsecureFile opts in to the
// keyring file backend, which keeps the snapshot in a locally
// encrypted file with a fixed key; without it, a missing OS keychain
// makes Save fail instead of silently downgrading.
func NewStore(allowInsecureFile bool) *Store {
	return &Store{allowInsecureFile: allowInsecureFile}
}

// openKeyring returns a configured keyring instance.
func (s *Store) openKeyring() (keyring.Keyring, error) {
	backends := []keyring.BackendType{
		keyring.KeychainBackend,
		keyring.SecretServiceBackend,
		keyring.WinCredBackend,
		keyring.PassBackend,
	}
	if s.allowInsecureFile {
		backends = append(backends, keyring.FileBackend)
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		AllowedBackends:          backends,
		FileDir:                  defaultFileDir(),
		FilePasswordFunc:         keyring.FixedStringPrompt("tempmail-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// defaultFileDir returns the directory for the file-backend store.
func defaultFileDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".tempmail-credentials")
	}
	return filepath.Join(home, ".config", "tempmail", "credentials")
}

// Save stores the snapshot, replacing any previous one.
func (s *Store) Save(snap session.Snapshot) error {
	ring, err := s.openKeyring()
	if err != nil {
		return err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	if err := ring.Set(keyring.Item{Key: snapshotKey, Data: data}); err != nil {
		return fmt.Errorf("storing snapshot: %w", err)
	}

	return nil
}

// Load returns the stored snapshot, or nil when none exists.
func (s *Store) Load() (*session.Snapshot, error) {
	ring, err := s.openKeyring()
	if err != nil {
		return nil, err
	}

	item, err := ring.Get(snapshotKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var snap session.Snapshot
	if err := json.Unmarshal(item.Data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}

	return &snap, nil
}

// Clear removes the stored snapshot. A missing snapshot is not an
// error.
func (s *Store) Clear() error {
	ring, err := s.openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Remove(snapshotKey); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("deleting snapshot: %w", err)
	}

	return nil
}
