package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations for the SQLite
// backend. Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS shards (
	tag         TEXT PRIMARY KEY,
	next_id     INTEGER NOT NULL DEFAULT 1 CHECK(next_id >= 1),
	description TEXT NOT NULL DEFAULT '',
	tasks_json  TEXT NOT NULL DEFAULT '[]',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_shards_updated_at ON shards(updated_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
