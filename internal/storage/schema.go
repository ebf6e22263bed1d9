package storage

// Schema version for migration management
const SchemaVersion = 1

// KVTableSQL creates the namespaced key/value table.
// encoding records how value was written so the compress setting can be
// toggled without rewriting old rows.
const KVTableSQL = `
CREATE TABLE IF NOT EXISTS kv_store (
    namespace TEXT NOT NULL,
    key TEXT NOT NULL,
    value BLOB NOT NULL,
    encoding TEXT NOT NULL DEFAULT 'raw' CHECK(encoding IN ('raw', 'snappy')),
    updated_at INTEGER NOT NULL,

    PRIMARY KEY (namespace, key)
);
`

// SchemaVersionTableSQL creates the schema version table for migration tracking
const SchemaVersionTableSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

// KVIndexesSQL creates indexes on the kv table
const KVIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_kv_store_updated_at ON kv_store(updated_at);
`

// AllTableSchemas returns all table creation statements in order
func AllTableSchemas() []string {
	return []string{
		SchemaVersionTableSQL,
		KVTableSQL,
	}
}

// AllIndexes returns all index creation statements
func AllIndexes() []string {
	return []string{
		KVIndexesSQL,
	}
}

// ConnectionPragmas returns the pragmas every connection is opened with, in
// the _pragma DSN form. busy_timeout comes first so the others wait for locks.
func ConnectionPragmas() []string {
	return []string{
		"busy_timeout(5000)",
		"journal_mode(WAL)",   // Write-Ahead Logging for better concurrency
		"synchronous(NORMAL)", // Balance between safety and performance
	}
}
