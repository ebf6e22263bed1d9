package offline

import (
	"encoding/json"
	"fmt"
	"time"

	"focusync/backend"
)

// Payload is the typed column delta carried by a mutation. There is one
// implementation per table; nil fields are not part of the delta.
type Payload interface {
	// Table is the table this payload shape belongs to.
	Table() backend.Table
	// Columns renders the delta as a remote row. Columns listed in Nulls
	// are present with a nil value.
	Columns() backend.Row
	// Merge returns a new payload with next's fields laid over the receiver.
	Merge(next Payload) Payload
	// ReplaceOwner returns a copy whose owner column is userID when it
	// currently equals placeholder.
	ReplaceOwner(placeholder, userID string) Payload
	// Clone returns a deep copy.
	Clone() Payload
}

// Ptr returns a pointer to v, handy for building payload literals.
func Ptr[T any](v T) *T {
	return &v
}

// NullColumns lists columns that must be written as NULL (clearing a due
// date, un-completing a task). JSON omits nil pointers, so clears need their own list.
type NullColumns struct {
	Nulls []string `json:"nulls,omitempty"`
}

// TaskPayload is the column delta for the tasks table.
type TaskPayload struct {
	ID          *string    `json:"id,omitempty"`
	UserID      *string    `json:"user_id,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *int       `json:"priority,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	NullColumns
}

// ReminderPayload is the column delta for the reminders table.
type ReminderPayload struct {
	ID        *string    `json:"id,omitempty"`
	UserID    *string    `json:"user_id,omitempty"`
	TaskID    *string    `json:"task_id,omitempty"`
	Title     *string    `json:"title,omitempty"`
	RemindAt  *time.Time `json:"remind_at,omitempty"`
	Repeat    *string    `json:"repeat,omitempty"`
	Done      *bool      `json:"done,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	NullColumns
}

// PomodoroPayload is the column delta for the pomodoro_sessions table.
type PomodoroPayload struct {
	ID              *string    `json:"id,omitempty"`
	UserID          *string    `json:"user_id,omitempty"`
	TaskID          *string    `json:"task_id,omitempty"`
	Kind            *string    `json:"kind,omitempty"` // focus, short_break, long_break
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	Completed       *bool      `json:"completed,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
	NullColumns
}

func (p *TaskPayload) Table() backend.Table     { return backend.TableTasks }
func (p *ReminderPayload) Table() backend.Table { return backend.TableReminders }
func (p *PomodoroPayload) Table() backend.Table { return backend.TablePomodoroSessions }

func (p *TaskPayload) Columns() backend.Row     { return columnsOf(p, p.Nulls) }
func (p *ReminderPayload) Columns() backend.Row { return columnsOf(p, p.Nulls) }
func (p *PomodoroPayload) Columns() backend.Row { return columnsOf(p, p.Nulls) }

func (p *TaskPayload) Clone() Payload     { return cloneVia(p) }
func (p *ReminderPayload) Clone() Payload { return cloneVia(p) }
func (p *PomodoroPayload) Clone() Payload { return cloneVia(p) }

func (p *TaskPayload) Merge(next Payload) Payload     { return mergeVia(p, next) }
func (p *ReminderPayload) Merge(next Payload) Payload { return mergeVia(p, next) }
func (p *PomodoroPayload) Merge(next Payload) Payload { return mergeVia(p, next) }

func (p *TaskPayload) ReplaceOwner(placeholder, userID string) Payload {
	out := cloneVia(p)
	out.UserID = replaceOwner(out.UserID, placeholder, userID)
	return out
}

func (p *ReminderPayload) ReplaceOwner(placeholder, userID string) Payload {
	out := cloneVia(p)
	out.UserID = replaceOwner(out.UserID, placeholder, userID)
	return out
}

func (p *PomodoroPayload) ReplaceOwner(placeholder, userID string) Payload {
	out := cloneVia(p)
	out.UserID = replaceOwner(out.UserID, placeholder, userID)
	return out
}

func replaceOwner(current *string, placeholder, userID string) *string {
	if current == nil || placeholder == "" || userID == "" || *current != placeholder {
		return current
	}
	return Ptr(userID)
}

// NewPayload returns an empty payload for table
func NewPayload(table backend.Table) (Payload, error) {
	switch table {
	case backend.TableTasks:
		return &TaskPayload{}, nil
	case backend.TableReminders:
		return &ReminderPayload{}, nil
	case backend.TablePomodoroSessions:
		return &PomodoroPayload{}, nil
	default:
		return nil, fmt.Errorf("no payload type for table %q", table)
	}
}

// DecodePayload decodes raw JSON into the payload type for table.
// Empty input decodes to nil.
func DecodePayload(table backend.Table, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	p, err := NewPayload(table)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", table, err)
	}
	return p, nil
}

// PayloadFromRow builds a payload for table from a cached or remote row.
func PayloadFromRow(table backend.Table, row backend.Row) (Payload, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encode %s row: %w", table, err)
	}
	return DecodePayload(table, data)
}

// The payload structs only hold JSON-safe types, so the JSON round trips
// below cannot fail and errors are dropped.

func columnsOf(p any, nulls []string) backend.Row {
	data, _ := json.Marshal(p)
	row := backend.Row{}
	_ = json.Unmarshal(data, &row)
	delete(row, "nulls")
	for _, col := range nulls {
		row[col] = nil
	}
	return row
}

func cloneVia[T any](p *T) *T {
	out := new(T)
	data, _ := json.Marshal(p)
	_ = json.Unmarshal(data, out)
	return out
}

// mergeVia overlays next onto base. A column set in next is removed from
// base's nulls; a column nulled in next drops base's value.
func mergeVia[T any](base *T, next Payload) *T {
	if next == nil {
		return cloneVia(base)
	}

	baseMap := map[string]json.RawMessage{}
	nextMap := map[string]json.RawMessage{}
	data, _ := json.Marshal(base)
	_ = json.Unmarshal(data, &baseMap)
	data, _ = json.Marshal(next)
	_ = json.Unmarshal(data, &nextMap)

	var baseNulls, nextNulls []string
	_ = json.Unmarshal(baseMap["nulls"], &baseNulls)
	_ = json.Unmarshal(nextMap["nulls"], &nextNulls)
	delete(baseMap, "nulls")
	delete(nextMap, "nulls")

	for k, v := range nextMap {
		baseMap[k] = v
	}

	nulls := make([]string, 0, len(baseNulls)+len(nextNulls))
	seen := map[string]bool{}
	for _, col := range baseNulls {
		if _, set := nextMap[col]; !set && !seen[col] {
			nulls = append(nulls, col)
			seen[col] = true
		}
	}
	for _, col := range nextNulls {
		delete(baseMap, col)
		if !seen[col] {
			nulls = append(nulls, col)
			seen[col] = true
		}
	}
	if len(nulls) > 0 {
		baseMap["nulls"], _ = json.Marshal(nulls)
	}

	out := new(T)
	data, _ = json.Marshal(baseMap)
	_ = json.Unmarshal(data, out)
	return out
}
