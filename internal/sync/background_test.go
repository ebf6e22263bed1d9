package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusync/backend"
)

func TestRunBackgroundFlush(t *testing.T) {
	c, engine, remote := newTestCoordinator(t)
	enqueueTask(t, engine, "t1", "Buy milk")

	require.NoError(t, RunBackgroundFlush(context.Background(), c, time.Second))

	_, ok := remote.Row(backend.TableTasks, "t1")
	assert.True(t, ok)
	assert.Zero(t, engine.PendingCount(context.Background()))
}

func TestRunBackgroundFlushOfflineKeepsQueue(t *testing.T) {
	c, engine, remote := newTestCoordinator(t)
	enqueueTask(t, engine, "t1", "Buy milk")
	remote.FailAll(backend.ErrMockOffline)

	require.NoError(t, RunBackgroundFlush(context.Background(), c, time.Second))
	assert.Equal(t, 1, engine.PendingCount(context.Background()))
}
