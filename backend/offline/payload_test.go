package offline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusync/backend"
)

func TestPayloadColumns(t *testing.T) {
	p := &TaskPayload{
		Title:       Ptr("Write report"),
		Priority:    Ptr(1),
		NullColumns: NullColumns{Nulls: []string{"due_at"}},
	}

	cols := p.Columns()
	assert.Equal(t, "Write report", cols["title"])
	assert.EqualValues(t, 1, cols["priority"])
	v, ok := cols["due_at"]
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.NotContains(t, cols, "nulls")
	assert.NotContains(t, cols, "description")
}

func TestPayloadMerge(t *testing.T) {
	base := &TaskPayload{
		ID:          Ptr("t1"),
		Title:       Ptr("old"),
		DueAt:       Ptr(baseTime),
		NullColumns: NullColumns{Nulls: []string{"description"}},
	}
	next := &TaskPayload{
		Title:       Ptr("new"),
		Description: Ptr("now set"),
		NullColumns: NullColumns{Nulls: []string{"due_at"}},
	}

	merged := base.Merge(next).(*TaskPayload)
	assert.Equal(t, "t1", *merged.ID)
	assert.Equal(t, "new", *merged.Title)
	assert.Equal(t, "now set", *merged.Description)
	assert.Nil(t, merged.DueAt)
	assert.Equal(t, []string{"due_at"}, merged.Nulls)

	// inputs untouched
	assert.Equal(t, "old", *base.Title)
	assert.NotNil(t, base.DueAt)
}

func TestPayloadReplaceOwner(t *testing.T) {
	tests := []struct {
		name  string
		owner *string
		want  *string
	}{
		{"placeholder replaced", Ptr("offline-user"), Ptr("u1")},
		{"real owner kept", Ptr("u2"), Ptr("u2")},
		{"no owner", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &ReminderPayload{UserID: tt.owner, Title: Ptr("stretch")}
			got := p.ReplaceOwner("offline-user", "u1").(*ReminderPayload)
			assert.Equal(t, tt.want, got.UserID)
			assert.Equal(t, tt.owner, p.UserID)
		})
	}
}

func TestPayloadClone(t *testing.T) {
	p := &PomodoroPayload{Kind: Ptr("focus"), DurationSeconds: Ptr(1500)}
	c := p.Clone().(*PomodoroPayload)
	*c.Kind = "short_break"
	assert.Equal(t, "focus", *p.Kind)
}

func TestPayloadFromRow(t *testing.T) {
	row := backend.Row{
		"id":         "t1",
		"title":      "Buy milk",
		"updated_at": baseTime.Add(time.Minute).Format(time.RFC3339Nano),
		"tags":       []any{"home"},
	}
	p, err := PayloadFromRow(backend.TableTasks, row)
	require.NoError(t, err)

	tp := p.(*TaskPayload)
	assert.Equal(t, "Buy milk", *tp.Title)
	assert.Equal(t, []string{"home"}, tp.Tags)
	assert.True(t, tp.UpdatedAt.Equal(baseTime.Add(time.Minute)))
}

func TestNewPayloadUnknownTable(t *testing.T) {
	_, err := NewPayload("mind_maps")
	assert.Error(t, err)
}
