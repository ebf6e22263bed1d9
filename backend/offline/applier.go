package offline

import (
	"context"
	"fmt"
	"sync"

	"focusync/backend"
	"focusync/internal/utils"
)

// DefaultOfflineUserID is the owner written into rows created before any
// identity is known. It is replaced with the real user id when applied.
const DefaultOfflineUserID = "offline-user"

// Outcome is the result of applying one mutation
type Outcome int

const (
	Applied Outcome = iota
	Skipped         // remote already holds a newer write
)

func (o Outcome) String() string {
	if o == Skipped {
		return "skipped"
	}
	return "applied"
}

// Applier applies a single mutation to the remote store on behalf of userID.
type Applier interface {
	Apply(ctx context.Context, m Mutation, userID string) (Outcome, error)
}

// LWWApplier applies mutations with last-writer-wins conflict detection on
// the tasks table.
type LWWApplier struct {
	remote      backend.RemoteStore
	placeholder string
	locks       *rowLocks
	log         *utils.Logger
}

// NewLWWApplier creates an applier writing to remote. Owner columns equal to
// placeholder are re-owned to the acting user; an empty placeholder means
// DefaultOfflineUserID.
func NewLWWApplier(remote backend.RemoteStore, placeholder string) *LWWApplier {
	if placeholder == "" {
		placeholder = DefaultOfflineUserID
	}
	return &LWWApplier{
		remote:      remote,
		placeholder: placeholder,
		locks:       newRowLocks(),
		log:         utils.Component("applier"),
	}
}

func (a *LWWApplier) Apply(ctx context.Context, m Mutation, userID string) (Outcome, error) {
	unlock := a.locks.lock(m.row())
	defer unlock()

	var fields backend.Row
	if m.Payload != nil {
		fields = m.Payload.ReplaceOwner(a.placeholder, userID).Columns()
	}

	if m.Table == backend.TableTasks && m.Type != Delete && m.UpdatedAt != nil {
		newer, err := a.remoteIsNewer(ctx, m)
		if err != nil {
			return Applied, err
		}
		if newer {
			a.log.Debug("skipping %s: remote copy is newer", m)
			return Skipped, nil
		}
	}

	switch m.Type {
	case Insert:
		if fields == nil {
			fields = backend.Row{}
		}
		fields[backend.ColumnID] = m.PrimaryKey
		if err := a.remote.Upsert(ctx, m.Table, m.PrimaryKey, fields); err != nil {
			return Applied, err
		}
	case Update:
		if err := a.remote.Update(ctx, m.Table, m.PrimaryKey, fields); err != nil {
			if !backend.IsNotFound(err) {
				return Applied, err
			}
			a.log.Debug("update of missing row %s/%s ignored", m.Table, m.PrimaryKey)
		}
	case Delete:
		if err := a.remote.Delete(ctx, m.Table, m.PrimaryKey); err != nil && !backend.IsNotFound(err) {
			return Applied, err
		}
	default:
		return Applied, fmt.Errorf("unknown mutation type %q", m.Type)
	}
	return Applied, nil
}

// remoteIsNewer reports whether the remote row was modified strictly after
// the local edit. A missing row or missing timestamp is never newer.
func (a *LWWApplier) remoteIsNewer(ctx context.Context, m Mutation) (bool, error) {
	row, err := a.remote.Select(ctx, m.Table, m.PrimaryKey, backend.ColumnUpdatedAt)
	if err != nil {
		if backend.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	remote, err := row.Time(backend.ColumnUpdatedAt)
	if err != nil {
		return false, err
	}
	return remote != nil && remote.After(*m.UpdatedAt), nil
}

// rowLocks hands out one mutex per row. Entries are dropped once no
// goroutine holds or waits for them.
type rowLocks struct {
	mu    sync.Mutex
	locks map[rowKey]*rowLock
}

type rowLock struct {
	mu   sync.Mutex
	refs int
}

func newRowLocks() *rowLocks {
	return &rowLocks{locks: make(map[rowKey]*rowLock)}
}

func (r *rowLocks) lock(key rowKey) func() {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &rowLock{}
		r.locks[key] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, key)
		}
		r.mu.Unlock()
	}
}
