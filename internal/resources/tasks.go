package resources

import (
	"context"
	"errors"

	"focusync/backend"
	"focusync/backend/offline"
	"focusync/internal/utils"
)

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// Tasks reads and writes the tasks table. Every write stamps updated_at,
// which the flush uses for last-writer-wins.
type Tasks struct {
	s *store
}

func NewTasks(opts Options) *Tasks {
	return &Tasks{s: newStore(opts, backend.TableTasks, "task")}
}

func validateTask(p *offline.TaskPayload) error {
	if p.Title != nil && *p.Title == "" {
		return errors.New("task title cannot be empty")
	}
	if p.Status != nil {
		if err := utils.ValidateStatus(*p.Status); err != nil {
			return err
		}
	}
	if p.Priority != nil {
		if err := utils.ValidatePriority(*p.Priority); err != nil {
			return err
		}
	}
	return nil
}

// Create adds a task. ID, owner, status and timestamps are filled in when
// p leaves them unset.
func (t *Tasks) Create(ctx context.Context, p offline.TaskPayload) (Result, error) {
	if p.Title == nil {
		return Result{}, errors.New("task title is required")
	}
	if err := validateTask(&p); err != nil {
		return Result{}, err
	}

	now := t.s.now()
	if p.ID == nil {
		p.ID = offline.Ptr(t.s.opts.NewID())
	}
	if p.UserID == nil {
		p.UserID = offline.Ptr(t.s.opts.OfflineUserID)
	}
	if p.Status == nil {
		p.Status = offline.Ptr(StatusTodo)
	}
	if *p.Status == StatusDone && p.CompletedAt == nil {
		p.CompletedAt = offline.Ptr(now)
	}
	p.CreatedAt = offline.Ptr(now)
	p.UpdatedAt = offline.Ptr(now)

	return t.s.create(ctx, *p.ID, &p, p.UpdatedAt)
}

// Update changes the fields set in p. Moving a task out of done clears
// completed_at.
func (t *Tasks) Update(ctx context.Context, key string, p offline.TaskPayload) (Result, error) {
	if err := validateTask(&p); err != nil {
		return Result{}, err
	}
	p.ID = nil
	p.UserID = nil
	p.CreatedAt = nil

	now := t.s.now()
	if p.Status != nil {
		if *p.Status == StatusDone {
			if p.CompletedAt == nil {
				p.CompletedAt = offline.Ptr(now)
			}
		} else {
			p.CompletedAt = nil
			p.Nulls = append(p.Nulls, "completed_at")
		}
	}
	p.UpdatedAt = offline.Ptr(now)

	return t.s.update(ctx, key, &p, p.UpdatedAt)
}

// Complete marks a task done
func (t *Tasks) Complete(ctx context.Context, key string) (Result, error) {
	return t.Update(ctx, key, offline.TaskPayload{Status: offline.Ptr(StatusDone)})
}

func (t *Tasks) Delete(ctx context.Context, key string) (Result, error) {
	return t.s.delete(ctx, key)
}

func (t *Tasks) Get(ctx context.Context, key string) (backend.Row, error) {
	return t.s.get(ctx, key)
}

func (t *Tasks) List(ctx context.Context) ([]backend.Row, error) {
	return t.s.list(ctx)
}
