package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"focusync/backend"
	"focusync/backend/offline"
	"focusync/internal/sync"
)

func TestShowTasks(t *testing.T) {
	rows := []backend.Row{
		{"id": "11111111-aaaa", "title": "Buy milk", "status": "todo", "priority": float64(3)},
		{"id": "22222222-bbbb", "title": "Ship release", "status": "done", "due_at": "2024-03-01T00:00:00Z"},
	}

	var buf bytes.Buffer
	ShowTasks(&buf, rows, map[string]bool{"11111111-aaaa": true})
	out := buf.String()

	for _, want := range []string{"Buy milk", "!3", "11111111", "Ship release", "✓", "due "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "*") {
		t.Errorf("pending row not marked: %q", lines[0])
	}
}

func TestShowTasksEmpty(t *testing.T) {
	var buf bytes.Buffer
	ShowTasks(&buf, nil, nil)
	if !strings.Contains(buf.String(), "No tasks") {
		t.Errorf("got %q", buf.String())
	}
}

func TestShowSessions(t *testing.T) {
	rows := []backend.Row{
		{"id": "s1", "kind": "focus", "started_at": "2024-03-01T09:00:00Z", "duration_seconds": float64(1500)},
		{"id": "s2", "kind": "short_break", "started_at": "2024-03-01T09:30:00Z", "ended_at": "2024-03-01T09:35:00Z", "completed": true},
	}
	var buf bytes.Buffer
	ShowSessions(&buf, rows, nil)
	out := buf.String()
	for _, want := range []string{"running", "25m0s", "completed", "short_break"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestShowQueue(t *testing.T) {
	ms := []offline.Mutation{
		{ID: "m1", Table: backend.TableTasks, Type: offline.Insert, PrimaryKey: "task-1",
			Payload: &offline.TaskPayload{Title: offline.Ptr("x")}, Timestamp: time.Now()},
		{ID: "m2", Table: backend.TableReminders, Type: offline.Delete, PrimaryKey: "rem-1", Timestamp: time.Now()},
	}
	var buf bytes.Buffer
	ShowQueue(&buf, ms)
	out := buf.String()
	for _, want := range []string{"2 queued change(s)", "insert", "tasks", "title", "delete", "reminders"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	ShowQueue(&buf, nil)
	if !strings.Contains(buf.String(), "Queue is empty") {
		t.Errorf("got %q", buf.String())
	}
}

func TestShowSyncStatus(t *testing.T) {
	var buf bytes.Buffer
	ShowSyncStatus(&buf, "supabase", sync.Status{Online: false, Pending: 3})
	out := buf.String()
	for _, want := range []string{"supabase", "offline", "3 unsynced change(s)", "none this session"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	ShowSyncStatus(&buf, "supabase", sync.Status{Online: true, LastFlush: time.Now(), LastError: errors.New("boom")})
	if !strings.Contains(buf.String(), "online") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("got %q", buf.String())
	}
}

func TestShowFlushResult(t *testing.T) {
	tests := []struct {
		name string
		res  offline.FlushResult
		want string
	}{
		{"empty", offline.FlushResult{}, "Nothing to sync"},
		{"no identity", offline.FlushResult{Pending: []offline.Mutation{{ID: "m1"}}}, "Not signed in"},
		{"applied", offline.FlushResult{
			UserID:         "user-1",
			IdentitySource: offline.IdentityRemote,
			Applied:        []offline.Mutation{{ID: "m1"}},
		}, "Synced as user-1 (remote)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ShowFlushResult(&buf, tt.res)
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("got %q, want containing %q", buf.String(), tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello world", 5); got != "hell…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("hi", 5); got != "hi" {
		t.Errorf("truncate = %q", got)
	}
}

func TestIDCompletion(t *testing.T) {
	complete := IDCompletion(func() ([]backend.Row, error) {
		return []backend.Row{{"id": "abc", "title": "Buy milk"}, {"id": "xyz"}}, nil
	})

	got, directive := complete(&cobra.Command{}, nil, "a")
	if len(got) != 1 || got[0] != "abc\tBuy milk" {
		t.Errorf("completions = %v", got)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v", directive)
	}

	got, _ = complete(&cobra.Command{}, []string{"abc"}, "")
	if got != nil {
		t.Errorf("second arg completions = %v, want none", got)
	}
}
