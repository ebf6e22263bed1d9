package offline

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"focusync/backend"
	"focusync/internal/storage"
)

// EngineConfig wires an Engine
type EngineConfig struct {
	Store  storage.Store
	Remote backend.RemoteStore

	// Applier overrides the default last-writer-wins applier.
	Applier       Applier
	OfflineUserID string
	RetryDelays   []time.Duration
	MaxPerFlush   int
	Sleep         SleepFunc
	QueueOptions  []QueueOption
}

// Engine is the process-wide entry point to the offline queue. Concurrent
// Flush calls share a single in-flight flush.
type Engine struct {
	queue    *Queue
	cache    *ResourceCache
	identity *IdentityResolver
	flusher  *Flusher
	group    singleflight.Group
}

// NewEngine builds the queue, cache, identity resolver and flusher on top
// of cfg.Store.
func NewEngine(cfg EngineConfig) *Engine {
	queue := NewQueue(NewQueueStore(cfg.Store), cfg.QueueOptions...)
	cache := NewResourceCache(cfg.Store)
	identity := NewIdentityResolver(cfg.Remote, cfg.Store)

	applier := cfg.Applier
	if applier == nil {
		applier = NewLWWApplier(cfg.Remote, cfg.OfflineUserID)
	}

	return &Engine{
		queue:    queue,
		cache:    cache,
		identity: identity,
		flusher: NewFlusher(FlusherConfig{
			Queue:       queue,
			Cache:       cache,
			Applier:     applier,
			Identity:    identity,
			RetryDelays: cfg.RetryDelays,
			MaxPerFlush: cfg.MaxPerFlush,
			Sleep:       cfg.Sleep,
		}),
	}
}

// Enqueue durably records an intent for a later flush
func (e *Engine) Enqueue(ctx context.Context, in Intent) (Mutation, error) {
	return e.queue.Enqueue(ctx, in)
}

// Flush drains the queue. A call made while another flush is running waits
// for that flush and receives its result; its own options are ignored.
// Cancelling the ctx of the call that started the flush stops further
// attempts; the queue is still persisted before the flush ends.
func (e *Engine) Flush(ctx context.Context, opts FlushOptions) (FlushResult, error) {
	ch := e.group.DoChan("flush", func() (interface{}, error) {
		return e.flusher.Flush(ctx, opts)
	})

	select {
	case <-ctx.Done():
		return FlushResult{}, ctx.Err()
	case res := <-ch:
		return res.Val.(FlushResult), res.Err
	}
}

// QueuedMutations returns a snapshot of the queue, oldest first
func (e *Engine) QueuedMutations(ctx context.Context) []Mutation {
	return e.queue.Mutations(ctx)
}

// PendingCount returns the number of queued mutations
func (e *Engine) PendingCount(ctx context.Context) int {
	return e.queue.Len(ctx)
}

// ClearQueuedMutations discards every queued mutation. confirm must be
// ConfirmDiscard.
func (e *Engine) ClearQueuedMutations(ctx context.Context, confirm DiscardConfirmation) error {
	return e.queue.Clear(ctx, confirm)
}

// Cache returns the resource cache the façades read and write
func (e *Engine) Cache() *ResourceCache {
	return e.cache
}

// LastKnownUser returns the identity remembered from the last flush
func (e *Engine) LastKnownUser(ctx context.Context) string {
	return e.identity.LastKnown(ctx)
}
