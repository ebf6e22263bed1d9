package offline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"focusync/internal/storage"
	"focusync/internal/utils"
)

// DiscardConfirmation must equal ConfirmDiscard for ClearQueuedMutations to run.
type DiscardConfirmation string

// ConfirmDiscard acknowledges that clearing the queue loses unsynced changes.
const ConfirmDiscard DiscardConfirmation = "discard-unsynced-changes"

// Queue is the coalescing mutation queue. Every read-modify-write of the
// stored queue is one storage Update, which serializes writers across
// processes sharing the database; mu orders them within this process.
type Queue struct {
	mu    sync.Mutex
	store *QueueStore
	now   func() time.Time
	newID func() string
	log   *utils.Logger
}

// QueueOption configures a Queue
type QueueOption func(*Queue)

// WithClock overrides the clock used for enqueue timestamps
func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) {
		q.now = now
	}
}

// WithIDGenerator overrides how mutation ids are generated
func WithIDGenerator(newID func() string) QueueOption {
	return func(q *Queue) {
		q.newID = newID
	}
}

// NewQueue creates a queue persisted through store
func NewQueue(store *QueueStore, opts ...QueueOption) *Queue {
	q := &Queue{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
		log:   utils.Component("queue"),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue records an intent. The mutation is durably stored when Enqueue
// returns; storage failures are returned as *storage.Error.
//
// Prior mutations for the same row are coalesced away:
//   - delete and insert drop every prior mutation for the row
//   - update drops a prior update (payloads are not merged)
//   - update on a row whose insert is still queued becomes that insert,
//     with the update's fields laid over the insert payload
func (q *Queue) Enqueue(ctx context.Context, in Intent) (Mutation, error) {
	if err := in.validate(); err != nil {
		return Mutation{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	var (
		m       Mutation
		pending int
	)
	err := q.store.update(ctx, func(current []Mutation) ([]Mutation, error) {
		m = Mutation{
			ID:         q.newID(),
			Table:      in.Table,
			Type:       in.Type,
			PrimaryKey: in.PrimaryKey,
			Timestamp:  q.nextTimestamp(current),
		}
		if in.Payload != nil {
			m.Payload = in.Payload.Clone()
		}
		if in.UpdatedAt != nil {
			t := in.UpdatedAt.UTC()
			m.UpdatedAt = &t
		}

		var next []Mutation
		next, m = coalesce(current, m)
		next = append(next, m)
		sortByTimestamp(next)
		pending = len(next)
		return next, nil
	})
	if err != nil {
		return Mutation{}, err
	}

	q.log.Debug("queued %s (%d pending)", m, pending)
	return m.Clone(), nil
}

// coalesce removes the prior mutations m supersedes and returns the
// remaining queue together with m, possibly promoted to an insert.
func coalesce(current []Mutation, m Mutation) ([]Mutation, Mutation) {
	kept := make([]Mutation, 0, len(current)+1)
	for _, prior := range current {
		if prior.row() != m.row() {
			kept = append(kept, prior)
			continue
		}

		switch m.Type {
		case Delete, Insert:
			continue
		case Update:
			switch prior.Type {
			case Update:
				continue
			case Insert:
				// the row only exists locally, so it must still reach the remote as an insert
				m.Type = Insert
				if prior.Payload != nil {
					m.Payload = prior.Payload.Merge(m.Payload)
				}
				continue
			}
		}
		kept = append(kept, prior)
	}
	return kept, m
}

// nextTimestamp returns the clock's time, nudged past the newest queued
// timestamp so enqueue order survives the sort even on coarse clocks.
func (q *Queue) nextTimestamp(current []Mutation) time.Time {
	ts := q.now().UTC()
	for _, m := range current {
		if !ts.After(m.Timestamp) {
			ts = m.Timestamp.Add(time.Nanosecond)
		}
	}
	return ts
}

func sortByTimestamp(ms []Mutation) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Timestamp.Before(ms[j].Timestamp)
	})
}

// Mutations returns a snapshot of the queue, oldest first
func (q *Queue) Mutations(ctx context.Context) []Mutation {
	ms := q.store.Read(ctx)
	sortByTimestamp(ms)
	return ms
}

// Len returns the number of queued mutations
func (q *Queue) Len(ctx context.Context) int {
	return len(q.store.Read(ctx))
}

// Clear discards every queued mutation. Unsynced changes are lost, so the
// caller has to pass ConfirmDiscard.
func (q *Queue) Clear(ctx context.Context, confirm DiscardConfirmation) error {
	if confirm != ConfirmDiscard {
		return ErrClearNotConfirmed
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	discarded := 0
	err := q.store.update(ctx, func(current []Mutation) ([]Mutation, error) {
		discarded = len(current)
		return nil, nil
	})
	if err != nil {
		return err
	}
	q.log.Info("%d queued mutations cleared", discarded)
	return nil
}

// removeProcessed drops the mutations whose ids are in done from the stored
// queue and returns what remains. Mutations enqueued since the caller's
// snapshot are kept.
func (q *Queue) removeProcessed(ctx context.Context, done map[string]bool) ([]Mutation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var remaining []Mutation
	err := q.store.update(ctx, func(current []Mutation) ([]Mutation, error) {
		remaining = make([]Mutation, 0, len(current))
		for _, m := range current {
			if !done[m.ID] {
				remaining = append(remaining, m)
			}
		}
		sortByTimestamp(remaining)
		if len(remaining) == len(current) {
			return nil, storage.SkipWrite
		}
		return remaining, nil
	})
	if err != nil {
		return nil, err
	}
	return remaining, nil
}
