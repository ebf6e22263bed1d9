// Package sync decides when the offline queue is flushed: on demand after
// a write, periodically, and when the remote comes back after an outage.
package sync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"focusync/backend"
	"focusync/backend/offline"
	"focusync/internal/config"
	"focusync/internal/utils"
)

// DefaultReconnectCheck is how often Run probes while the remote is offline
const DefaultReconnectCheck = 30 * time.Second

// Flusher is the part of the offline engine the coordinator drives
type Flusher interface {
	Flush(ctx context.Context, opts offline.FlushOptions) (offline.FlushResult, error)
	PendingCount(ctx context.Context) int
}

// Status is a snapshot of the coordinator for display
type Status struct {
	Online     bool
	Pending    int
	Flushing   bool
	LastFlush  time.Time // zero when no flush finished yet
	LastResult *offline.FlushResult
	LastError  error
}

// Coordinator orchestrates automatic flushing of the offline queue
type Coordinator struct {
	config config.SyncConfig
	engine Flusher
	pinger backend.Pinger

	// ReconnectCheck overrides DefaultReconnectCheck; set before Run
	ReconnectCheck time.Duration

	// Goroutine management
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	flushing atomic.Bool
	online   atomic.Bool

	mu         sync.Mutex
	lastFlush  time.Time
	lastResult *offline.FlushResult
	lastErr    error
	pingErr    error

	logger   *utils.Logger
	shutdown atomic.Bool
}

// NewCoordinator creates a coordinator. pinger decides whether the remote
// is reachable; the engine is only flushed while it is.
func NewCoordinator(cfg config.SyncConfig, engine Flusher, pinger backend.Pinger) (*Coordinator, error) {
	if engine == nil || pinger == nil {
		return nil, errors.New("engine and pinger are required")
	}
	if !cfg.Enabled {
		return nil, utils.ErrSyncNotEnabled()
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = config.DefaultProbeTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		config:         cfg,
		engine:         engine,
		pinger:         pinger,
		ReconnectCheck: DefaultReconnectCheck,
		ctx:            ctx,
		cancel:         cancel,
		logger:         utils.Component("sync"),
	}, nil
}

// Online probes the remote, bounded by the configured probe timeout, and
// records the answer.
func (c *Coordinator) Online(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, c.config.ProbeTimeout)
	defer cancel()

	err := c.pinger.Ping(probeCtx)
	online := err == nil
	c.mu.Lock()
	c.pingErr = err
	c.mu.Unlock()
	if prev := c.online.Swap(online); prev != online {
		if online {
			c.logger.Info("remote is reachable")
		} else {
			c.logger.Info("remote is unreachable: %v", err)
		}
	}
	return online
}

// PingError returns why the last connectivity check failed, nil when it
// succeeded or none ran yet
func (c *Coordinator) PingError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pingErr
}

// FlushNow flushes in the caller's goroutine when the remote is reachable.
// The returned bool is false when the remote was offline and nothing ran.
func (c *Coordinator) FlushNow(ctx context.Context, opts offline.FlushOptions) (offline.FlushResult, bool, error) {
	if !c.Online(ctx) {
		return offline.FlushResult{}, false, nil
	}
	if opts.MaxMutations == 0 {
		opts.MaxMutations = c.config.MaxPerFlush
	}
	res, err := c.engine.Flush(ctx, opts)
	c.record(res, err)
	return res, true, err
}

// TriggerFlush starts a background flush and returns immediately. It does
// nothing while another triggered flush runs or after Shutdown.
func (c *Coordinator) TriggerFlush() {
	if c.shutdown.Load() {
		return
	}
	if !c.flushing.CompareAndSwap(false, true) {
		return
	}

	c.wg.Add(1)
	go c.doFlush()
}

func (c *Coordinator) doFlush() {
	defer c.wg.Done()
	defer c.flushing.Store(false)

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic in background flush: %v", r)
		}
	}()

	if c.engine.PendingCount(c.ctx) == 0 {
		return
	}
	if !c.Online(c.ctx) {
		c.logger.Debug("skipping flush: offline")
		return
	}

	res, err := c.engine.Flush(c.ctx, offline.FlushOptions{MaxMutations: c.config.MaxPerFlush})
	c.record(res, err)
	if err != nil {
		c.logger.Warn("background flush failed: %v", err)
		return
	}
	if n := res.Processed(); n > 0 {
		c.logger.Info("background flush: %d applied, %d skipped, %d pending",
			len(res.Applied), len(res.Skipped), len(res.Pending))
	}
}

func (c *Coordinator) record(res offline.FlushResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastFlush = time.Now()
	c.lastErr = err
	if err == nil {
		r := res
		c.lastResult = &r
	}
}

// Run flushes at startup, every sync interval, and whenever the remote
// becomes reachable again. It returns when ctx is done or after Shutdown.
func (c *Coordinator) Run(ctx context.Context) {
	interval := c.config.Interval
	if interval <= 0 {
		interval = config.DefaultSyncInterval
	}
	reconnect := c.ReconnectCheck
	if reconnect <= 0 || reconnect > interval {
		reconnect = interval
	}

	flushTicker := time.NewTicker(interval)
	defer flushTicker.Stop()
	probeTicker := time.NewTicker(reconnect)
	defer probeTicker.Stop()

	c.TriggerFlush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.ctx.Done():
			return
		case <-flushTicker.C:
			c.TriggerFlush()
		case <-probeTicker.C:
			wasOnline := c.online.Load()
			if c.Online(ctx) && !wasOnline {
				c.TriggerFlush()
			}
		}
	}
}

// Status reports connectivity, queue length and the last flush
func (c *Coordinator) Status(ctx context.Context) Status {
	st := Status{
		Online:   c.Online(ctx),
		Pending:  c.engine.PendingCount(ctx),
		Flushing: c.flushing.Load(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	st.LastFlush = c.lastFlush
	st.LastResult = c.lastResult
	st.LastError = c.lastErr
	return st
}

// Shutdown stops Run and waits up to timeout for a triggered flush. A flush
// still running after timeout is cancelled; its queue is persisted anyway.
func (c *Coordinator) Shutdown(timeout time.Duration) {
	c.shutdown.Store(true)

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		c.logger.Warn("pending flush did not complete within %v", timeout)
		c.cancel()
		<-done
	}
	c.cancel()
}
