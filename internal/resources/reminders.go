package resources

import (
	"context"
	"errors"

	"focusync/backend"
	"focusync/backend/offline"
)

// Repeat rules understood by the app
var RepeatRules = []string{"none", "daily", "weekly", "monthly"}

// Reminders reads and writes the reminders table
type Reminders struct {
	s *store
}

func NewReminders(opts Options) *Reminders {
	return &Reminders{s: newStore(opts, backend.TableReminders, "reminder")}
}

func validateRepeat(repeat *string) error {
	if repeat == nil {
		return nil
	}
	for _, r := range RepeatRules {
		if *repeat == r {
			return nil
		}
	}
	return errors.New("invalid repeat rule: " + *repeat)
}

// Create adds a reminder; title and remind_at are required
func (r *Reminders) Create(ctx context.Context, p offline.ReminderPayload) (Result, error) {
	if p.Title == nil || *p.Title == "" {
		return Result{}, errors.New("reminder title is required")
	}
	if p.RemindAt == nil {
		return Result{}, errors.New("reminder time is required")
	}
	if err := validateRepeat(p.Repeat); err != nil {
		return Result{}, err
	}

	now := r.s.now()
	if p.ID == nil {
		p.ID = offline.Ptr(r.s.opts.NewID())
	}
	if p.UserID == nil {
		p.UserID = offline.Ptr(r.s.opts.OfflineUserID)
	}
	if p.Done == nil {
		p.Done = offline.Ptr(false)
	}
	p.RemindAt = offline.Ptr(p.RemindAt.UTC())
	p.CreatedAt = offline.Ptr(now)
	p.UpdatedAt = offline.Ptr(now)

	return r.s.create(ctx, *p.ID, &p, nil)
}

func (r *Reminders) Update(ctx context.Context, key string, p offline.ReminderPayload) (Result, error) {
	if p.Title != nil && *p.Title == "" {
		return Result{}, errors.New("reminder title cannot be empty")
	}
	if err := validateRepeat(p.Repeat); err != nil {
		return Result{}, err
	}
	p.ID = nil
	p.UserID = nil
	p.CreatedAt = nil
	p.UpdatedAt = offline.Ptr(r.s.now())

	return r.s.update(ctx, key, &p, nil)
}

// Dismiss marks a reminder done
func (r *Reminders) Dismiss(ctx context.Context, key string) (Result, error) {
	return r.Update(ctx, key, offline.ReminderPayload{Done: offline.Ptr(true)})
}

func (r *Reminders) Delete(ctx context.Context, key string) (Result, error) {
	return r.s.delete(ctx, key)
}

func (r *Reminders) Get(ctx context.Context, key string) (backend.Row, error) {
	return r.s.get(ctx, key)
}

func (r *Reminders) List(ctx context.Context) ([]backend.Row, error) {
	return r.s.list(ctx)
}
