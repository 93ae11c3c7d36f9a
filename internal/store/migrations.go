package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id           TEXT NOT NULL,
	account_id   TEXT NOT NULL,
	from_name    TEXT NOT NULL DEFAULT '',
	from_address TEXT NOT NULL DEFAULT '',
	subject      TEXT NOT NULL DEFAULT '',
	seen         INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL,
	fetched_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	payload      TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (account_id, id)
);

CREATE INDEX IF NOT EXISTS idx_messages_account ON messages(account_id);
CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
