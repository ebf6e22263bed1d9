// Package offline implements the offline mutation queue and the engine that
// flushes it to the remote store.
//
// Writes made while disconnected are recorded as Mutations in a durable,
// coalescing queue. A later Flush resolves the acting identity, applies each
// mutation with last-writer-wins conflict detection and retry, persists
// whatever is still pending and prunes the local resource cache.
// Delivery is at-least-once; every apply is idempotent.
package offline

import (
	"encoding/json"
	"fmt"
	"time"

	"focusync/backend"
)

// MutationType is the kind of write a mutation performs
type MutationType string

const (
	Insert MutationType = "insert"
	Update MutationType = "update"
	Delete MutationType = "delete"
)

// Valid reports whether t is a known mutation type
func (t MutationType) Valid() bool {
	switch t {
	case Insert, Update, Delete:
		return true
	}
	return false
}

// Mutation is one queued intent to insert, update or delete a row.
type Mutation struct {
	ID         string
	Table      backend.Table
	Type       MutationType
	PrimaryKey string
	Payload    Payload    // nil for most deletes
	Timestamp  time.Time  // local enqueue time
	UpdatedAt  *time.Time // local row's last-modified time, tasks only
}

// mutationJSON is the storage layout of a Mutation
type mutationJSON struct {
	ID         string          `json:"id"`
	Table      backend.Table   `json:"table"`
	Type       MutationType    `json:"type"`
	PrimaryKey string          `json:"primary_key"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

func (m Mutation) MarshalJSON() ([]byte, error) {
	out := mutationJSON{
		ID:         m.ID,
		Table:      m.Table,
		Type:       m.Type,
		PrimaryKey: m.PrimaryKey,
		Timestamp:  m.Timestamp,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.Payload != nil {
		raw, err := json.Marshal(m.Payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload of mutation %s: %w", m.ID, err)
		}
		out.Payload = raw
	}
	return json.Marshal(out)
}

func (m *Mutation) UnmarshalJSON(data []byte) error {
	var in mutationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if !in.Table.Valid() {
		return fmt.Errorf("mutation %s: unknown table %q", in.ID, in.Table)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("mutation %s: unknown type %q", in.ID, in.Type)
	}

	payload, err := DecodePayload(in.Table, in.Payload)
	if err != nil {
		return fmt.Errorf("mutation %s: %w", in.ID, err)
	}

	*m = Mutation{
		ID:         in.ID,
		Table:      in.Table,
		Type:       in.Type,
		PrimaryKey: in.PrimaryKey,
		Payload:    payload,
		Timestamp:  in.Timestamp,
		UpdatedAt:  in.UpdatedAt,
	}
	return nil
}

// Clone returns a copy that shares no mutable state with m
func (m Mutation) Clone() Mutation {
	out := m
	if m.Payload != nil {
		out.Payload = m.Payload.Clone()
	}
	if m.UpdatedAt != nil {
		t := *m.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

func (m Mutation) String() string {
	return fmt.Sprintf("%s %s/%s (%s)", m.Type, m.Table, m.PrimaryKey, m.ID)
}

// rowKey identifies a row across tables
type rowKey struct {
	table backend.Table
	key   string
}

func (m Mutation) row() rowKey {
	return rowKey{table: m.Table, key: m.PrimaryKey}
}

// Intent is what a caller asks the queue to record.
type Intent struct {
	Table      backend.Table
	Type       MutationType
	PrimaryKey string
	Payload    Payload
	UpdatedAt  *time.Time
}

func (in Intent) validate() error {
	if !in.Table.Valid() {
		return fmt.Errorf("%w: unknown table %q", ErrInvalidIntent, in.Table)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown mutation type %q", ErrInvalidIntent, in.Type)
	}
	if in.PrimaryKey == "" {
		return fmt.Errorf("%w: primary key is required", ErrInvalidIntent)
	}
	if in.Payload == nil && in.Type != Delete {
		return fmt.Errorf("%w: %s requires a payload", ErrInvalidIntent, in.Type)
	}
	if in.Payload != nil && in.Payload.Table() != in.Table {
		return fmt.Errorf("%w: %s payload used for table %s", ErrInvalidIntent, in.Payload.Table(), in.Table)
	}
	return nil
}

func cloneAll(ms []Mutation) []Mutation {
	out := make([]Mutation, len(ms))
	for i, m := range ms {
		out[i] = m.Clone()
	}
	return out
}
