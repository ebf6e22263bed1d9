package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"focusync/backend"
	"focusync/backend/offline"
	"focusync/internal/sync"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("39")).Padding(0, 1)
)

// GetTerminalWidth returns the current terminal width, defaulting to 80 if unable to detect
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return width
}

// boxWidth clamps the terminal width to a readable box
func boxWidth() int {
	w := GetTerminalWidth() - 2
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return string(r[:min(len(r), width)])
	}
	return string(r[:width-1]) + "…"
}

func formatTime(row backend.Row, column string) string {
	t, err := row.Time(column)
	if err != nil || t == nil {
		return ""
	}
	local := t.Local()
	if local.Hour() == 0 && local.Minute() == 0 {
		return local.Format("2006-01-02")
	}
	return local.Format("2006-01-02 15:04")
}

// PendingKeys collects the primary keys with queued changes per table
func PendingKeys(ms []offline.Mutation) map[backend.Table]map[string]bool {
	out := map[backend.Table]map[string]bool{}
	for _, m := range ms {
		if out[m.Table] == nil {
			out[m.Table] = map[string]bool{}
		}
		out[m.Table][m.PrimaryKey] = true
	}
	return out
}

func pendingMark(pending map[string]bool, key string) string {
	if pending[key] {
		return pendingStyle.Render("*")
	}
	return " "
}

func statusSymbol(status string) string {
	switch status {
	case "done":
		return okStyle.Render("✓")
	case "in_progress":
		return warnStyle.Render("●")
	default:
		return "○"
	}
}

// ShowTasks prints tasks one per line. Rows with unsynced changes are
// marked with *.
func ShowTasks(w io.Writer, rows []backend.Row, pending map[string]bool) {
	if len(rows) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No tasks"))
		return
	}
	width := boxWidth()
	for _, r := range rows {
		key := r.String(backend.ColumnID)
		line := fmt.Sprintf("%s %s %s", pendingMark(pending, key), statusSymbol(r.String("status")),
			truncate(r.String("title"), width/2))
		if p, ok := r["priority"].(float64); ok && p > 0 {
			line += warnStyle.Render(fmt.Sprintf(" !%d", int(p)))
		}
		if due := formatTime(r, "due_at"); due != "" {
			line += dimStyle.Render(" due " + due)
		}
		fmt.Fprintf(w, "%s %s\n", line, dimStyle.Render(shortID(key)))
	}
}

// ShowReminders prints reminders ordered as given
func ShowReminders(w io.Writer, rows []backend.Row, pending map[string]bool) {
	if len(rows) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No reminders"))
		return
	}
	for _, r := range rows {
		key := r.String(backend.ColumnID)
		done := "○"
		if d, _ := r["done"].(bool); d {
			done = okStyle.Render("✓")
		}
		line := fmt.Sprintf("%s %s %s %s", pendingMark(pending, key), done,
			formatTime(r, "remind_at"), r.String("title"))
		if rep := r.String("repeat"); rep != "" && rep != "none" {
			line += dimStyle.Render(" (" + rep + ")")
		}
		fmt.Fprintf(w, "%s %s\n", line, dimStyle.Render(shortID(key)))
	}
}

// ShowSessions prints pomodoro sessions; running ones are highlighted
func ShowSessions(w io.Writer, rows []backend.Row, pending map[string]bool) {
	if len(rows) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No sessions"))
		return
	}
	for _, r := range rows {
		key := r.String(backend.ColumnID)
		state := dimStyle.Render("stopped")
		if ended, _ := r.Time("ended_at"); ended == nil {
			state = okStyle.Render("running")
		} else if c, _ := r["completed"].(bool); c {
			state = okStyle.Render("completed")
		}
		dur := ""
		if secs, ok := r["duration_seconds"].(float64); ok {
			dur = (time.Duration(secs) * time.Second).String()
		}
		fmt.Fprintf(w, "%s %-11s %s %-8s %s %s\n", pendingMark(pending, key), r.String("kind"),
			formatTime(r, "started_at"), dur, state, dimStyle.Render(shortID(key)))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ShowSyncStatus prints connectivity, the queue length and the last flush
func ShowSyncStatus(w io.Writer, remoteName string, st sync.Status) {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Sync status: "+remoteName) + "\n")

	if st.Online {
		b.WriteString("Remote:   " + okStyle.Render("online") + "\n")
	} else {
		b.WriteString("Remote:   " + errStyle.Render("offline") + "\n")
	}

	pending := fmt.Sprintf("%d", st.Pending)
	if st.Pending > 0 {
		pending = warnStyle.Render(pending + " unsynced change(s)")
	}
	b.WriteString("Queue:    " + pending + "\n")

	switch {
	case st.Flushing:
		b.WriteString("Flush:    running")
	case st.LastFlush.IsZero():
		b.WriteString("Flush:    " + dimStyle.Render("none this session"))
	case st.LastError != nil:
		b.WriteString("Flush:    " + errStyle.Render(st.LastError.Error()))
	default:
		b.WriteString("Flush:    " + st.LastFlush.Format(time.RFC3339))
	}

	fmt.Fprintln(w, boxStyle.Width(boxWidth()).Render(b.String()))
}

// ShowQueue prints queued mutations oldest first
func ShowQueue(w io.Writer, ms []offline.Mutation) {
	if len(ms) == 0 {
		fmt.Fprintln(w, okStyle.Render("Queue is empty"))
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d queued change(s)", len(ms))))
	for i, m := range ms {
		fields := ""
		if m.Payload != nil {
			fields = dimStyle.Render(strings.Join(m.Payload.Columns().Keys(), ","))
		}
		fmt.Fprintf(w, "%3d. %-6s %-17s %s %s %s\n", i+1, m.Type, m.Table, shortID(m.PrimaryKey),
			m.Timestamp.Local().Format("2006-01-02 15:04:05"), fields)
	}
}

// ShowFlushResult summarizes one flush
func ShowFlushResult(w io.Writer, res offline.FlushResult) {
	if res.Processed() == 0 && len(res.Pending) == 0 {
		fmt.Fprintln(w, okStyle.Render("Nothing to sync"))
		return
	}
	if res.UserID == "" && len(res.Pending) > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("Not signed in: %d change(s) kept for later", len(res.Pending))))
		return
	}

	fmt.Fprintf(w, "Synced as %s (%s) in %s\n", res.UserID, res.IdentitySource, res.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  %s applied, %s skipped (remote newer), %s pending\n",
		okStyle.Render(fmt.Sprint(len(res.Applied))),
		dimStyle.Render(fmt.Sprint(len(res.Skipped))),
		warnStyle.Render(fmt.Sprint(len(res.Pending))))
	for _, f := range res.Failures {
		fmt.Fprintln(w, "  "+errStyle.Render(f.Error()))
	}
}
