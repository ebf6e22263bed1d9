package backend

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Table identifies a remote resource collection
type Table string

const (
	TableTasks            Table = "tasks"
	TableReminders        Table = "reminders"
	TablePomodoroSessions Table = "pomodoro_sessions"
)

// Tables returns every known table in a stable order
func Tables() []Table {
	return []Table{TableTasks, TableReminders, TablePomodoroSessions}
}

// Valid reports whether t is one of the known tables
func (t Table) Valid() bool {
	switch t {
	case TableTasks, TableReminders, TablePomodoroSessions:
		return true
	}
	return false
}

// Column names shared by every table
const (
	ColumnID        = "id"
	ColumnUserID    = "user_id"
	ColumnUpdatedAt = "updated_at"
)

// Row is a single remote record keyed by column name
type Row map[string]any

// Clone returns a shallow copy of the row
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Keys returns the row's column names sorted alphabetically
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the string value of a column, or "" when absent or not a string
func (r Row) String(column string) string {
	if v, ok := r[column].(string); ok {
		return v
	}
	return ""
}

// Time parses a timestamp column. Both time.Time values and RFC 3339 strings
// are accepted since rows arrive either from memory or from JSON.
func (r Row) Time(column string) (*time.Time, error) {
	switch v := r[column].(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &v, nil
	case *time.Time:
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("column %s: invalid timestamp %q: %w", column, v, err)
		}
		return &t, nil
	default:
		return nil, fmt.Errorf("column %s: unsupported timestamp type %T", column, v)
	}
}

// RemoteStore is the row-oriented hosted database the sync engine writes to.
// Implementations return *BackendError so callers can tell "not found" apart
// from other failures.
type RemoteStore interface {
	// Select fetches one row by primary key. Returns a not-found BackendError
	// when the row does not exist.
	Select(ctx context.Context, table Table, key string, columns ...string) (Row, error)
	// Upsert inserts the row or replaces the existing row with the same key.
	Upsert(ctx context.Context, table Table, key string, row Row) error
	// Update patches the given columns of an existing row.
	Update(ctx context.Context, table Table, key string, fields Row) error
	// Delete removes a row by primary key.
	Delete(ctx context.Context, table Table, key string) error
	// CurrentIdentity returns the signed in user id, or "" when there is no session.
	CurrentIdentity(ctx context.Context) (string, error)
}

// RowLister is implemented by remotes that can return a whole table.
// Listing is optional; the sync engine never needs it.
type RowLister interface {
	// List returns the rows of table visible to the current session,
	// ordered by primary key.
	List(ctx context.Context, table Table) ([]Row, error)
}

// Pinger is implemented by remotes with a cheap reachability check
type Pinger interface {
	Ping(ctx context.Context) error
}
