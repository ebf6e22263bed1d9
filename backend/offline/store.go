package offline

import (
	"context"
	"encoding/json"
	"errors"

	"focusync/internal/storage"
	"focusync/internal/utils"
)

// QueueKey is the storage key holding the serialized mutation queue
const QueueKey = "offline-mutation-queue"

// QueueStore persists the mutation queue as one JSON document.
type QueueStore struct {
	store storage.Store
	log   *utils.Logger
}

// NewQueueStore creates a queue store on top of store
func NewQueueStore(store storage.Store) *QueueStore {
	return &QueueStore{
		store: store,
		log:   utils.Component("queue"),
	}
}

// Read returns the persisted queue. It never fails: storage errors yield an
// empty queue, and an undecodable queue is reset to empty. Every call
// decodes fresh records, so callers may modify the result freely.
func (qs *QueueStore) Read(ctx context.Context) []Mutation {
	data, found, err := qs.store.Get(ctx, QueueKey)
	if err != nil {
		qs.log.Warn("reading queued mutations failed, treating queue as empty: %v", err)
		return []Mutation{}
	}
	ms, err := decodeQueue(data, found)
	if err != nil {
		qs.log.Warn("queued mutations are unreadable, resetting queue: %v", err)
		qs.reset(ctx)
	}
	return ms
}

// reset deletes the stored queue if it is still undecodable
func (qs *QueueStore) reset(ctx context.Context) {
	err := qs.store.Update(ctx, QueueKey, func(data []byte, found bool) ([]byte, error) {
		if _, err := decodeQueue(data, found); err == nil {
			return nil, storage.SkipWrite
		}
		return nil, nil
	})
	if err != nil {
		qs.log.Warn("resetting queue failed: %v", err)
	}
}

// decodeQueue parses a stored queue. On error it returns an empty queue.
func decodeQueue(data []byte, found bool) ([]Mutation, error) {
	if !found {
		return []Mutation{}, nil
	}
	var ms []Mutation
	if err := json.Unmarshal(data, &ms); err != nil {
		return []Mutation{}, err
	}
	if ms == nil {
		ms = []Mutation{}
	}
	return ms, nil
}

func encodeQueue(ms []Mutation) ([]byte, error) {
	if len(ms) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(ms)
	if err != nil {
		return nil, &storage.Error{Kind: storage.ErrUnknown, Op: "encode", Key: QueueKey, Err: err}
	}
	return data, nil
}

// update replaces the stored queue with fn's result in one atomic storage
// update, so writers in other processes cannot interleave with it. An empty
// result removes the key. A failed read never reaches fn, so it cannot be
// followed by a write that wipes the queue. fn may return storage.SkipWrite
// to leave the queue as it is.
func (qs *QueueStore) update(ctx context.Context, fn func(current []Mutation) ([]Mutation, error)) error {
	return qs.store.Update(ctx, QueueKey, func(data []byte, found bool) ([]byte, error) {
		current, derr := decodeQueue(data, found)
		if derr != nil {
			qs.log.Warn("queued mutations are unreadable, resetting queue: %v", derr)
		}
		next, err := fn(current)
		if errors.Is(err, storage.SkipWrite) && derr != nil {
			// still drop the unreadable queue
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return encodeQueue(next)
	})
}
