package offline

import (
	"context"
	"errors"
	"time"

	"focusync/backend"
	"focusync/internal/utils"
)

// DefaultRetryDelays are the waits before each apply attempt: one immediate
// try and three retries.
var DefaultRetryDelays = []time.Duration{0, time.Second, 3 * time.Second, 5 * time.Second}

// FlushOptions tune a single flush
type FlushOptions struct {
	// UserID acts as the identity when set, skipping session lookup.
	UserID string
	// MaxMutations caps how many mutations are attempted; 0 uses the
	// flusher's configured limit (unlimited by default).
	MaxMutations int
}

// FlushResult partitions the queue snapshot a flush worked on.
type FlushResult struct {
	Applied []Mutation
	Skipped []Mutation
	Pending []Mutation
	// Failures holds the last error of every mutation that exhausted its retries.
	Failures       []*ApplyError
	UserID         string
	IdentitySource IdentitySource
	Duration       time.Duration
}

// Processed returns how many mutations left the queue
func (r FlushResult) Processed() int {
	return len(r.Applied) + len(r.Skipped)
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FlusherConfig holds the dependencies and limits of a Flusher
type FlusherConfig struct {
	Queue       *Queue
	Cache       *ResourceCache
	Applier     Applier
	Identity    *IdentityResolver
	RetryDelays []time.Duration // nil uses DefaultRetryDelays
	MaxPerFlush int             // 0 = unlimited
	Sleep       SleepFunc       // nil uses a context-aware timer
}

// Flusher drains the queue into the remote store. Callers must not run two
// flushes at once; Engine takes care of that.
type Flusher struct {
	queue       *Queue
	cache       *ResourceCache
	applier     Applier
	identity    *IdentityResolver
	delays      []time.Duration
	maxPerFlush int
	sleep       SleepFunc
	log         *utils.Logger
}

// NewFlusher creates a flusher from cfg
func NewFlusher(cfg FlusherConfig) *Flusher {
	f := &Flusher{
		queue:       cfg.Queue,
		cache:       cfg.Cache,
		applier:     cfg.Applier,
		identity:    cfg.Identity,
		delays:      cfg.RetryDelays,
		maxPerFlush: cfg.MaxPerFlush,
		sleep:       cfg.Sleep,
		log:         utils.Component("flush"),
	}
	if len(f.delays) == 0 {
		f.delays = DefaultRetryDelays
	}
	if f.sleep == nil {
		f.sleep = sleepContext
	}
	return f
}

// Flush applies queued mutations oldest first. Mutations that keep failing
// stay queued without blocking the rest of the batch, so per-mutation
// failures are reported in the result rather than as an error. The returned
// error is non-nil only when the remaining queue could not be persisted.
func (f *Flusher) Flush(ctx context.Context, opts FlushOptions) (FlushResult, error) {
	start := time.Now()
	var result FlushResult

	snapshot := f.queue.Mutations(ctx)
	if len(snapshot) == 0 {
		return result, nil
	}

	result.UserID, result.IdentitySource = f.identity.Resolve(ctx, opts.UserID)
	if result.UserID == "" {
		f.log.Info("no identity available, %d mutation(s) stay queued", len(snapshot))
		result.Pending = snapshot
		result.Duration = time.Since(start)
		return result, nil
	}

	limit := opts.MaxMutations
	if limit <= 0 {
		limit = f.maxPerFlush
	}

	done := make(map[string]bool)
	for i, m := range snapshot {
		if ctx.Err() != nil || (limit > 0 && i >= limit) {
			result.Pending = append(result.Pending, snapshot[i:]...)
			break
		}

		outcome, err := f.applyWithRetry(ctx, m, result.UserID)
		if err != nil {
			f.log.Warn("%v", err)
			result.Failures = append(result.Failures, err)
			result.Pending = append(result.Pending, m)
			continue
		}

		done[m.ID] = true
		if outcome == Skipped {
			result.Skipped = append(result.Skipped, m)
		} else {
			result.Applied = append(result.Applied, m)
		}
	}

	// The queue may have grown while the remote was busy; only drop what
	// this flush processed.
	remaining, err := f.queue.removeProcessed(context.WithoutCancel(ctx), done)
	if err != nil {
		result.Duration = time.Since(start)
		return result, err
	}

	f.cleanCache(context.WithoutCancel(ctx), result, remaining)

	result.Duration = time.Since(start)
	f.log.Info("flush done as %s: %d applied, %d skipped, %d pending",
		result.UserID, len(result.Applied), len(result.Skipped), len(result.Pending))
	return result, nil
}

func (f *Flusher) applyWithRetry(ctx context.Context, m Mutation, userID string) (Outcome, *ApplyError) {
	var lastErr error
	attempts := 0
	for _, delay := range f.delays {
		if err := f.sleep(ctx, delay); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}

		attempts++
		outcome, err := f.applier.Apply(ctx, m, userID)
		if err == nil {
			return outcome, nil
		}
		lastErr = err
		f.log.Debug("attempt %d for %s failed: %v", attempts, m, err)

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}
	return Applied, &ApplyError{Mutation: m, Attempts: attempts, Err: lastErr}
}

// cleanCache drops cached rows of processed mutations, one rewrite per
// table. Rows that still have a queued mutation keep their optimistic copy.
func (f *Flusher) cleanCache(ctx context.Context, result FlushResult, remaining []Mutation) {
	if f.cache == nil {
		return
	}

	queued := make(map[rowKey]bool, len(remaining))
	for _, m := range remaining {
		queued[m.row()] = true
	}

	byTable := make(map[backend.Table][]string)
	for _, group := range [][]Mutation{result.Applied, result.Skipped} {
		for _, m := range group {
			if queued[m.row()] {
				continue
			}
			byTable[m.Table] = append(byTable[m.Table], m.PrimaryKey)
		}
	}

	for _, table := range backend.Tables() {
		keys := byTable[table]
		if len(keys) == 0 {
			continue
		}
		if err := f.cache.Remove(ctx, table, keys...); err != nil {
			f.log.Warn("cleaning %s cache failed: %v", table, err)
		}
	}
}
