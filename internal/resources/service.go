// Package resources is the write and read surface for tasks, reminders and
// pomodoro sessions. Writes go straight to the remote when it is reachable
// and into the offline queue otherwise; reads overlay locally queued
// changes on top of what the remote returns.
package resources

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"focusync/backend"
	"focusync/backend/offline"
	"focusync/internal/utils"
)

// Connectivity reports whether the remote can be used right now
type Connectivity interface {
	Online(ctx context.Context) bool
}

// Static is a Connectivity with a fixed answer
type Static bool

func (s Static) Online(context.Context) bool { return bool(s) }

// Options wires the façades
type Options struct {
	Remote        backend.RemoteStore
	Engine        *offline.Engine
	Connectivity  Connectivity
	OfflineUserID string
	RemoteName    string // names the remote in authentication errors

	// Now and NewID default to time.Now and uuid.NewString
	Now   func() time.Time
	NewID func() string

	// OnQueued runs after every write that went to the offline queue
	OnQueued func()
}

// Result describes where a write went
type Result struct {
	Row    backend.Row
	Queued bool // true when stored offline for a later flush
}

// store holds what every façade shares: one table, one write path
type store struct {
	opts  Options
	table backend.Table
	kind  string // user facing name, e.g. "task"
	log   *utils.Logger
}

func newStore(opts Options, table backend.Table, kind string) *store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Connectivity == nil {
		opts.Connectivity = Static(false)
	}
	if opts.OfflineUserID == "" {
		opts.OfflineUserID = offline.DefaultOfflineUserID
	}
	if opts.RemoteName == "" {
		opts.RemoteName = "remote"
	}
	return &store{opts: opts, table: table, kind: kind, log: utils.Component(kind)}
}

func (s *store) now() time.Time {
	return s.opts.Now().UTC()
}

// queueState is what the offline queue currently holds for one row
type queueState struct {
	pending bool
	deleted bool
}

func (s *store) queued(ctx context.Context, key string) queueState {
	var st queueState
	for _, m := range s.opts.Engine.QueuedMutations(ctx) {
		if m.Table != s.table || m.PrimaryKey != key {
			continue
		}
		st.pending = true
		if m.Type == offline.Delete {
			st.deleted = true
		}
	}
	return st
}

// online reports whether a write for key may go straight to the remote.
// Rows with queued changes always go through the queue to keep their order.
func (s *store) online(ctx context.Context, key string) bool {
	if s.opts.Remote == nil || !s.opts.Connectivity.Online(ctx) {
		return false
	}
	return !s.queued(ctx, key).pending
}

// fallback reports whether a failed remote write should be queued instead
func (s *store) fallback(op, key string, err error) bool {
	if backend.IsTransportError(err) {
		s.log.Info("%s %s: remote unreachable, queueing (%v)", op, key, err)
		return true
	}
	return false
}

// remoteError maps a remote failure onto the error shown to the user
func (s *store) remoteError(key string, err error) error {
	switch {
	case backend.IsNotFound(err):
		return utils.ErrRecordNotFound(s.kind, key)
	case backend.IsUnauthorized(err):
		return utils.ErrAuthenticationFailed(s.opts.RemoteName, err)
	}
	return err
}

func (s *store) create(ctx context.Context, key string, p offline.Payload, updatedAt *time.Time) (Result, error) {
	if s.online(ctx, key) {
		owner, err := s.opts.Remote.CurrentIdentity(ctx)
		switch {
		case err != nil:
			if !s.fallback("create", key, err) {
				return Result{}, s.remoteError(key, err)
			}
		case owner == "":
			// No session: the queue holds the row until someone signs in
			s.log.Debug("create %s: no signed in user, queueing", key)
		default:
			row := p.ReplaceOwner(s.opts.OfflineUserID, owner).Columns()
			err := s.opts.Remote.Upsert(ctx, s.table, key, row)
			if err == nil {
				row[backend.ColumnID] = key
				return Result{Row: row}, nil
			}
			if !s.fallback("create", key, err) {
				return Result{}, s.remoteError(key, err)
			}
		}
	}

	if _, err := s.opts.Engine.Enqueue(ctx, offline.Intent{
		Table:      s.table,
		Type:       offline.Insert,
		PrimaryKey: key,
		Payload:    p,
		UpdatedAt:  updatedAt,
	}); err != nil {
		return Result{}, err
	}
	row := p.Columns()
	if err := s.opts.Engine.Cache().Put(ctx, s.table, key, row); err != nil {
		return Result{}, err
	}
	row[backend.ColumnID] = key
	s.queuedWrite()
	return Result{Row: row, Queued: true}, nil
}

func (s *store) update(ctx context.Context, key string, p offline.Payload, updatedAt *time.Time) (Result, error) {
	if s.queued(ctx, key).deleted {
		return Result{}, utils.ErrRecordNotFound(s.kind, key)
	}

	if s.online(ctx, key) {
		fields := p.Columns()
		err := s.opts.Remote.Update(ctx, s.table, key, fields)
		switch {
		case err == nil:
			fields[backend.ColumnID] = key
			return Result{Row: fields}, nil
		case !s.fallback("update", key, err):
			return Result{}, s.remoteError(key, err)
		}
	}

	if _, err := s.opts.Engine.Enqueue(ctx, offline.Intent{
		Table:      s.table,
		Type:       offline.Update,
		PrimaryKey: key,
		Payload:    p,
		UpdatedAt:  updatedAt,
	}); err != nil {
		return Result{}, err
	}
	row, err := s.opts.Engine.Cache().Patch(ctx, s.table, key, p.Columns())
	if err != nil {
		return Result{}, err
	}
	s.queuedWrite()
	return Result{Row: row, Queued: true}, nil
}

func (s *store) delete(ctx context.Context, key string) (Result, error) {
	if s.queued(ctx, key).deleted {
		return Result{}, utils.ErrRecordNotFound(s.kind, key)
	}

	if s.online(ctx, key) {
		err := s.opts.Remote.Delete(ctx, s.table, key)
		switch {
		case err == nil:
			return Result{Row: backend.Row{backend.ColumnID: key}}, nil
		case !s.fallback("delete", key, err):
			return Result{}, s.remoteError(key, err)
		}
	}

	if _, err := s.opts.Engine.Enqueue(ctx, offline.Intent{
		Table:      s.table,
		Type:       offline.Delete,
		PrimaryKey: key,
	}); err != nil {
		return Result{}, err
	}
	if err := s.opts.Engine.Cache().Remove(ctx, s.table, key); err != nil {
		return Result{}, err
	}
	s.queuedWrite()
	return Result{Row: backend.Row{backend.ColumnID: key}, Queued: true}, nil
}

func (s *store) queuedWrite() {
	if s.opts.OnQueued != nil {
		s.opts.OnQueued()
	}
}

// get returns the remote row with locally queued changes laid over it
func (s *store) get(ctx context.Context, key string) (backend.Row, error) {
	if s.queued(ctx, key).deleted {
		return nil, utils.ErrRecordNotFound(s.kind, key)
	}

	local, hasLocal, err := s.opts.Engine.Cache().Get(ctx, s.table, key)
	if err != nil {
		return nil, err
	}

	var remote backend.Row
	if s.opts.Remote != nil && s.opts.Connectivity.Online(ctx) {
		remote, err = s.opts.Remote.Select(ctx, s.table, key)
		switch {
		case err == nil:
		case backend.IsNotFound(err), backend.IsTransportError(err):
			remote = nil
		default:
			return nil, s.remoteError(key, err)
		}
	}

	if remote == nil && !hasLocal {
		return nil, utils.ErrRecordNotFound(s.kind, key)
	}
	return overlay(remote, local), nil
}

// list returns remote rows plus locally created ones, overlaid with
// queued changes and without rows deleted offline. Offline, only local
// rows are returned.
func (s *store) list(ctx context.Context) ([]backend.Row, error) {
	local, err := s.opts.Engine.Cache().List(ctx, s.table)
	if err != nil {
		return nil, err
	}

	rows := map[string]backend.Row{}
	if lister, ok := s.opts.Remote.(backend.RowLister); ok && s.opts.Connectivity.Online(ctx) {
		remote, err := lister.List(ctx, s.table)
		switch {
		case err == nil:
			for _, r := range remote {
				rows[r.String(backend.ColumnID)] = r
			}
		case backend.IsTransportError(err):
			s.log.Debug("list: remote unreachable, showing local rows only")
		default:
			return nil, s.remoteError("", err)
		}
	}
	for _, r := range local {
		key := r.String(backend.ColumnID)
		rows[key] = overlay(rows[key], r)
	}
	for _, m := range s.opts.Engine.QueuedMutations(ctx) {
		if m.Table == s.table && m.Type == offline.Delete {
			delete(rows, m.PrimaryKey)
		}
	}

	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]backend.Row, 0, len(keys))
	for _, k := range keys {
		out = append(out, rows[k])
	}
	return out, nil
}

func overlay(base, top backend.Row) backend.Row {
	out := base.Clone()
	if out == nil {
		out = backend.Row{}
	}
	for k, v := range top {
		out[k] = v
	}
	return out
}
