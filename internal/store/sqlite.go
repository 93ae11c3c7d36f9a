package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/tempmail/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite
// database. The full message detail is kept as a JSON payload; a few
// columns are broken out for inspection and ordering.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SaveDetail inserts or replaces one archived message detail.
func (s *SQLiteStore) SaveDetail(
	ctx context.Context,
	accountID string,
	detail model.MessageDetail,
) error {
	payload, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshaling message %s: %w", detail.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO messages (
			id, account_id, from_name, from_address,
			subject, seen, created_at, fetched_at, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		detail.ID, accountID, detail.From.Name, detail.From.Address,
		detail.Subject, boolToInt(detail.Seen),
		detail.CreatedAt.UTC(), time.Now().UTC(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("archiving message %s: %w", detail.ID, err)
	}

	return nil
}

// LoadDetails retrieves all archived message details for an account,
// newest first.
func (s *SQLiteStore) LoadDetails(
	ctx context.Context,
	accountID string,
) ([]model.MessageDetail, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT payload FROM messages WHERE account_id = ? ORDER BY created_at DESC",
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying archived messages: %w", err)
	}
	defer rows.Close()

	var details []model.MessageDetail
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}

		var detail model.MessageDetail
		if err := json.Unmarshal([]byte(payload), &detail); err != nil {
			return nil, fmt.Errorf("unmarshaling archived message: %w", err)
		}
		details = append(details, detail)
	}

	return details, rows.Err()
}

// DeleteDetail removes one archived message.
func (s *SQLiteStore) DeleteDetail(
	ctx context.Context,
	accountID, messageID string,
) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM messages WHERE account_id = ? AND id = ?",
		accountID, messageID,
	)
	if err != nil {
		return fmt.Errorf("deleting archived message %s: %w", messageID, err)
	}
	return nil
}

// DeleteAccountData removes every archived message for an account.
func (s *SQLiteStore) DeleteAccountData(
	ctx context.Context,
	accountID string,
) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM messages WHERE account_id = ?", accountID,
	)
	if err != nil {
		return fmt.Errorf("deleting archive for account %s: %w", accountID, err)
	}
	return nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
