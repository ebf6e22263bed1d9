package resources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focusync/backend"
	"focusync/backend/offline"
)

// Session kinds
const (
	KindFocus      = "focus"
	KindShortBreak = "short_break"
	KindLongBreak  = "long_break"
)

// DefaultFocusDuration is the planned length of a focus session
const DefaultFocusDuration = 25 * time.Minute

// Pomodoro reads and writes the pomodoro_sessions table
type Pomodoro struct {
	s *store
}

func NewPomodoro(opts Options) *Pomodoro {
	return &Pomodoro{s: newStore(opts, backend.TablePomodoroSessions, "pomodoro")}
}

func validKind(kind string) bool {
	switch kind {
	case KindFocus, KindShortBreak, KindLongBreak:
		return true
	}
	return false
}

// Start records a running session. taskID may be empty; planned <= 0 uses
// DefaultFocusDuration.
func (p *Pomodoro) Start(ctx context.Context, taskID, kind string, planned time.Duration) (Result, error) {
	if kind == "" {
		kind = KindFocus
	}
	if !validKind(kind) {
		return Result{}, fmt.Errorf("invalid session kind %q (want %s, %s or %s)", kind, KindFocus, KindShortBreak, KindLongBreak)
	}
	if planned <= 0 {
		planned = DefaultFocusDuration
	}

	now := p.s.now()
	payload := &offline.PomodoroPayload{
		ID:              offline.Ptr(p.s.opts.NewID()),
		UserID:          offline.Ptr(p.s.opts.OfflineUserID),
		Kind:            offline.Ptr(kind),
		StartedAt:       offline.Ptr(now),
		DurationSeconds: offline.Ptr(int(planned / time.Second)),
		Completed:       offline.Ptr(false),
		CreatedAt:       offline.Ptr(now),
		UpdatedAt:       offline.Ptr(now),
	}
	if taskID != "" {
		payload.TaskID = offline.Ptr(taskID)
	}
	return p.s.create(ctx, *payload.ID, payload, nil)
}

// Stop ends a running session. duration_seconds becomes the actual length;
// completed says whether the session ran its course.
func (p *Pomodoro) Stop(ctx context.Context, key string, completed bool) (Result, error) {
	row, err := p.s.get(ctx, key)
	if err != nil {
		return Result{}, err
	}
	if ended, _ := row.Time("ended_at"); ended != nil {
		return Result{}, errors.New("session " + key + " already stopped")
	}

	now := p.s.now()
	payload := offline.PomodoroPayload{
		EndedAt:   offline.Ptr(now),
		Completed: offline.Ptr(completed),
		UpdatedAt: offline.Ptr(now),
	}
	if started, err := row.Time("started_at"); err == nil && started != nil {
		payload.DurationSeconds = offline.Ptr(int(now.Sub(*started) / time.Second))
	}
	return p.s.update(ctx, key, &payload, nil)
}

// Active returns sessions that have not been stopped
func (p *Pomodoro) Active(ctx context.Context) ([]backend.Row, error) {
	rows, err := p.s.list(ctx)
	if err != nil {
		return nil, err
	}
	var out []backend.Row
	for _, r := range rows {
		if ended, _ := r.Time("ended_at"); ended == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (p *Pomodoro) Delete(ctx context.Context, key string) (Result, error) {
	return p.s.delete(ctx, key)
}

func (p *Pomodoro) Get(ctx context.Context, key string) (backend.Row, error) {
	return p.s.get(ctx, key)
}

func (p *Pomodoro) List(ctx context.Context) ([]backend.Row, error) {
	return p.s.list(ctx)
}
