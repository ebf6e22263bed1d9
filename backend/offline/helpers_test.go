package offline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"focusync/backend"
	"focusync/internal/storage"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// stepClock returns baseTime, then advances one second per call
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: baseTime}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(time.Second)
	return t
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("m%d", n)
	}
}

// recordingSleep records requested delays without waiting
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleep) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type testEnv struct {
	store  *storage.MemoryStore
	remote *backend.MockRemote
	sleep  *recordingSleep
	engine *Engine
}

func newTestEnv(t *testing.T, mutate ...func(*EngineConfig)) *testEnv {
	t.Helper()
	env := &testEnv{
		store:  storage.NewMemoryStore(storage.Options{}),
		remote: backend.NewMockRemote(),
		sleep:  &recordingSleep{},
	}
	cfg := EngineConfig{
		Store:        env.store,
		Remote:       env.remote,
		Sleep:        env.sleep.Sleep,
		QueueOptions: []QueueOption{WithClock(newStepClock().Now), WithIDGenerator(sequentialIDs())},
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	env.engine = NewEngine(cfg)
	return env
}

func taskInsert(key, title string) Intent {
	return Intent{
		Table:      backend.TableTasks,
		Type:       Insert,
		PrimaryKey: key,
		Payload: &TaskPayload{
			ID:     Ptr(key),
			UserID: Ptr(DefaultOfflineUserID),
			Title:  Ptr(title),
		},
	}
}

func taskUpdate(key, title string) Intent {
	return Intent{
		Table:      backend.TableTasks,
		Type:       Update,
		PrimaryKey: key,
		Payload:    &TaskPayload{Title: Ptr(title)},
	}
}

func deleteOf(table backend.Table, key string) Intent {
	return Intent{Table: table, Type: Delete, PrimaryKey: key}
}

// applierFunc adapts a function to the Applier interface
type applierFunc func(ctx context.Context, m Mutation, userID string) (Outcome, error)

func (f applierFunc) Apply(ctx context.Context, m Mutation, userID string) (Outcome, error) {
	return f(ctx, m, userID)
}

func ids(ms []Mutation) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.PrimaryKey
	}
	return out
}
