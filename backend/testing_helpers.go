package backend

// This file contains shared test helpers and mocks used across tests.
// MockRemote is exported so the offline engine, resource and CLI tests can
// share one in-memory remote.

import (
	"context"
	"net/http"
	"sort"
	"sync"
)

// MockRemote implements RemoteStore in memory for testing
type MockRemote struct {
	mu       sync.Mutex
	rows     map[Table]map[string]Row
	identity string
	calls    map[string]int

	// FailFunc, when set, is consulted before every operation. A non-nil
	// return value is returned to the caller instead of performing the call.
	FailFunc func(op string, table Table, key string) error
	// IdentityErr is returned by CurrentIdentity when set
	IdentityErr error
}

// NewMockRemote creates a new mock remote instance
func NewMockRemote() *MockRemote {
	return &MockRemote{
		rows:  make(map[Table]map[string]Row),
		calls: make(map[string]int),
	}
}

// SetIdentity sets the user returned by CurrentIdentity ("" means signed out)
func (m *MockRemote) SetIdentity(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = userID
}

// Put stores a row directly, bypassing call accounting
func (m *MockRemote) Put(table Table, key string, row Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tableLocked(table)[key] = row.Clone()
}

// Row returns a copy of the stored row
func (m *MockRemote) Row(table Table, key string) (Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[table][key]
	return row.Clone(), ok
}

// Count returns the number of rows stored for a table
func (m *MockRemote) Count(table Table) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows[table])
}

// Calls returns how many times op was invoked ("Select", "Upsert", ...)
func (m *MockRemote) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of calls across every operation
func (m *MockRemote) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func (m *MockRemote) tableLocked(table Table) map[string]Row {
	rows, ok := m.rows[table]
	if !ok {
		rows = make(map[string]Row)
		m.rows[table] = rows
	}
	return rows
}

func (m *MockRemote) begin(op string, table Table, key string) error {
	m.calls[op]++
	if m.FailFunc != nil {
		return m.FailFunc(op, table, key)
	}
	return nil
}

func (m *MockRemote) Select(ctx context.Context, table Table, key string, columns ...string) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("Select", table, key); err != nil {
		return nil, err
	}

	row, ok := m.rows[table][key]
	if !ok {
		return nil, NewNotFoundError("Select", table, key)
	}
	if len(columns) == 0 {
		return row.Clone(), nil
	}
	out := make(Row, len(columns))
	for _, c := range columns {
		if v, ok := row[c]; ok {
			out[c] = v
		}
	}
	return out, nil
}

func (m *MockRemote) Upsert(ctx context.Context, table Table, key string, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("Upsert", table, key); err != nil {
		return err
	}

	merged := m.tableLocked(table)[key].Clone()
	if merged == nil {
		merged = Row{}
	}
	for k, v := range row {
		merged[k] = v
	}
	merged[ColumnID] = key
	m.tableLocked(table)[key] = merged
	return nil
}

func (m *MockRemote) Update(ctx context.Context, table Table, key string, fields Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("Update", table, key); err != nil {
		return err
	}

	row, ok := m.rows[table][key]
	if !ok {
		return NewNotFoundError("Update", table, key)
	}
	for k, v := range fields {
		row[k] = v
	}
	return nil
}

func (m *MockRemote) Delete(ctx context.Context, table Table, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("Delete", table, key); err != nil {
		return err
	}

	if _, ok := m.rows[table][key]; !ok {
		return NewNotFoundError("Delete", table, key)
	}
	delete(m.rows[table], key)
	return nil
}

func (m *MockRemote) CurrentIdentity(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["CurrentIdentity"]++
	if m.IdentityErr != nil {
		return "", m.IdentityErr
	}
	return m.identity, nil
}

// ErrMockUnavailable is a ready-made transient failure for FailFunc hooks
var ErrMockUnavailable = NewBackendError("Mock", http.StatusServiceUnavailable, "service unavailable")

// ErrMockOffline is a transport failure: no response was received
var ErrMockOffline = NewBackendError("Mock", 0, "connection refused")

// FailAll makes every call, including Ping, fail with err. Pass nil to
// restore normal behaviour.
func (m *MockRemote) FailAll(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		m.FailFunc = nil
		return
	}
	m.FailFunc = func(string, Table, string) error { return err }
}

// List returns every row of table ordered by key
func (m *MockRemote) List(ctx context.Context, table Table) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("List", table, ""); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(m.rows[table]))
	for k := range m.rows[table] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Row, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.rows[table][k].Clone())
	}
	return out, nil
}

// Ping fails only when FailFunc rejects the "Ping" operation
func (m *MockRemote) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.begin("Ping", "", "")
}
