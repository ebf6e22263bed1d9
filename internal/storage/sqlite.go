package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"focusync/internal/utils"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func logger() *utils.Logger {
	return utils.Component("storage")
}

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	db        *sql.DB
	path      string
	namespace string
	compress  bool
}

// OpenSQLite creates or opens the database at opts.Path and prepares the schema.
// Failures are reported as ErrUnavailable: nothing can be persisted.
func OpenSQLite(opts Options) (*SQLiteStore, error) {
	if opts.Path == "" {
		return nil, newError(ErrUnavailable, "open", "", errors.New("no database path configured"))
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
		return nil, newError(ErrUnavailable, "open", "", fmt.Errorf("failed to create database directory: %w", err))
	}

	db, err := openDB(opts.Path, 0)
	if err != nil {
		return nil, newError(ErrUnavailable, "open", "", err)
	}

	store := &SQLiteStore{
		db:        db,
		path:      opts.Path,
		namespace: opts.Namespace,
		compress:  opts.Compress,
	}

	if err := store.initializeSchema(); err != nil {
		db.Close()
		return nil, newError(ErrUnavailable, "open", "", fmt.Errorf("failed to initialize schema: %w", err))
	}

	if opts.MaxBytes > 0 {
		if err := store.applyQuota(opts.MaxBytes); err != nil {
			store.db.Close()
			return nil, newError(ErrUnavailable, "open", "", err)
		}
	}

	logger().Debug("opened %s (namespace %s)", opts.Path, opts.Namespace)
	return store, nil
}

// openDB opens path with the connection pragmas in the DSN, so connections
// database/sql opens later get them too. maxPages > 0 caps the file size.
func openDB(path string, maxPages int64) (*sql.DB, error) {
	query := url.Values{}
	for _, pragma := range ConnectionPragmas() {
		query.Add("_pragma", pragma)
	}
	if maxPages > 0 {
		query.Add("_pragma", fmt.Sprintf("max_page_count(%d)", maxPages))
	}

	db, err := sql.Open("sqlite", path+"?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only has one writer anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// initializeSchema creates tables and indexes and records the schema version
func (s *SQLiteStore) initializeSchema() error {
	for _, schema := range AllTableSchemas() {
		if _, err := s.db.Exec(schema); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	for _, index := range AllIndexes() {
		if _, err := s.db.Exec(index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", SchemaVersion).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check schema version: %w", err)
	}
	if count > 0 {
		return nil
	}

	_, err = s.db.Exec(
		"INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)",
		SchemaVersion,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert schema version: %w", err)
	}
	return nil
}

// applyQuota caps the database size. max_page_count only holds for the
// connection that set it, so the database is reopened with the cap in the
// DSN. Writes past the cap fail with SQLITE_FULL.
func (s *SQLiteStore) applyQuota(maxBytes int64) error {
	var pageSize int64
	if err := s.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return fmt.Errorf("failed to read page size: %w", err)
	}
	pages := maxBytes / pageSize
	if pages < 1 {
		pages = 1
	}

	db, err := openDB(s.path, pages)
	if err != nil {
		return fmt.Errorf("failed to set max_page_count: %w", err)
	}
	s.db.Close()
	s.db = db
	return nil
}

// Path returns the filesystem path to the database file
func (s *SQLiteStore) Path() string {
	return s.path
}

// Namespace returns the namespace all keys are scoped to
func (s *SQLiteStore) Namespace() string {
	return s.namespace
}

// querier is satisfied by *sql.DB and by the *sql.Conn an Update runs on
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, found, err := s.get(ctx, s.db, key)
	if err != nil {
		return nil, false, classify("get", key, err)
	}
	return value, found, nil
}

func (s *SQLiteStore) get(ctx context.Context, q querier, key string) ([]byte, bool, error) {
	var (
		data     []byte
		encoding string
	)
	err := q.QueryRowContext(ctx,
		"SELECT value, encoding FROM kv_store WHERE namespace = ? AND key = ?",
		s.namespace, key,
	).Scan(&data, &encoding)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	value, err := decodeValue(data, encoding)
	if err != nil {
		return nil, false, newError(ErrUnknown, "get", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.set(ctx, s.db, key, value); err != nil {
		return classify("set", key, err)
	}
	return nil
}

func (s *SQLiteStore) set(ctx context.Context, q querier, key string, value []byte) error {
	data, encoding := encodeValue(value, s.compress)
	_, err := q.ExecContext(ctx, `
		INSERT INTO kv_store (namespace, key, value, encoding, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET
			value = excluded.value,
			encoding = excluded.encoding,
			updated_at = excluded.updated_at
	`, s.namespace, key, data, encoding, time.Now().UnixMilli())
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := s.delete(ctx, s.db, key); err != nil {
		return classify("delete", key, err)
	}
	return nil
}

func (s *SQLiteStore) delete(ctx context.Context, q querier, key string) error {
	_, err := q.ExecContext(ctx,
		"DELETE FROM kv_store WHERE namespace = ? AND key = ?",
		s.namespace, key,
	)
	return err
}

// Update runs fn inside a BEGIN IMMEDIATE transaction, which takes the
// database write lock up front. A concurrent Update from another handle on
// the same file waits for it (up to busy_timeout) instead of interleaving.
func (s *SQLiteStore) Update(ctx context.Context, key string, fn UpdateFunc) (err error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return classify("update", key, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return classify("update", key, err)
	}
	defer func() {
		if err != nil {
			// SQLITE_FULL may already have rolled back; that error is moot
			conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	value, found, err := s.get(ctx, conn, key)
	if err != nil {
		return classify("update", key, err)
	}

	next, err := fn(value, found)
	if errors.Is(err, SkipWrite) {
		if _, err := conn.ExecContext(ctx, "ROLLBACK"); err != nil {
			return classify("update", key, err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	if next == nil {
		err = s.delete(ctx, conn, key)
	} else {
		err = s.set(ctx, conn, key, next)
	}
	if err != nil {
		return classify("update", key, err)
	}

	if _, err = conn.ExecContext(ctx, "COMMIT"); err != nil {
		return classify("update", key, err)
	}
	return nil
}

// Keys lists every key in the namespace, used by status reporting
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key FROM kv_store WHERE namespace = ? ORDER BY key",
		s.namespace,
	)
	if err != nil {
		return nil, classify("keys", "", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, classify("keys", "", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("keys", "", err)
	}
	return keys, nil
}

// Vacuum runs VACUUM to reclaim space after large deletes
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return classify("vacuum", "", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// classify maps a driver error onto one of the storage error kinds
func classify(op, key string, err error) *Error {
	var serr *Error
	if errors.As(err, &serr) {
		return serr
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_FULL:
			return newError(ErrQuotaExceeded, op, key, err)
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_READONLY, sqlite3.SQLITE_NOTADB:
			return newError(ErrUnavailable, op, key, err)
		}
	}
	if errors.Is(err, sql.ErrConnDone) {
		return newError(ErrUnavailable, op, key, err)
	}
	return newError(ErrUnknown, op, key, err)
}
