// Package app wires configuration, storage, the remote client, the offline
// engine and the sync coordinator into one object the CLI drives.
package app

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"focusync/backend"
	"focusync/backend/offline"
	"focusync/backend/rest"
	"focusync/internal/config"
	"focusync/internal/credentials"
	"focusync/internal/resources"
	"focusync/internal/storage"
	"focusync/internal/sync"
	"focusync/internal/utils"
)

// ShutdownTimeout bounds how long Close waits for a triggered flush
const ShutdownTimeout = 5 * time.Second

// Remote is what the app needs from the hosted database
type Remote interface {
	backend.RemoteStore
	backend.Pinger
}

// Options overrides parts of the wiring, mainly for tests
type Options struct {
	// Store replaces the storage opened from config
	Store storage.Store
	// Remote replaces the HTTP client built from config and credentials
	Remote Remote
	// SpawnBackground lets offline writes start a detached flush process
	SpawnBackground bool
	// BackgroundArgs are passed to the detached process (e.g. --config)
	BackgroundArgs []string
	// Sleep replaces the retry sleep of the engine
	Sleep offline.SleepFunc
}

// App holds the application state
type App struct {
	config      *config.Config
	store       storage.Store
	remote      Remote
	remoteErr   error
	engine      *offline.Engine
	coordinator *sync.Coordinator
	probe       resources.Connectivity

	Tasks     *resources.Tasks
	Reminders *resources.Reminders
	Pomodoro  *resources.Pomodoro

	spawnOnce gosync.Once
	opts      Options
	log       *utils.Logger
}

// New builds the app from cfg
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	a := &App{config: cfg, opts: opts, log: utils.Component("app")}

	a.store = opts.Store
	if a.store == nil {
		a.store = storage.OpenOrUnavailable(storage.Options{
			Driver:    cfg.Storage.Driver,
			Path:      cfg.Storage.Path,
			Namespace: cfg.Storage.Namespace,
			MaxBytes:  cfg.Storage.MaxBytes,
			Compress:  cfg.Storage.Compress,
		})
	}

	a.remote = opts.Remote
	if a.remote == nil {
		a.remote, a.remoteErr = newRemote(cfg.Remote)
		if a.remoteErr != nil {
			a.log.Debug("remote disabled: %v", a.remoteErr)
		}
	}

	engineCfg := offline.EngineConfig{
		Store:         a.store,
		OfflineUserID: cfg.Sync.OfflineUserID,
		RetryDelays:   cfg.Sync.RetryDelays,
		MaxPerFlush:   cfg.Sync.MaxPerFlush,
		Sleep:         opts.Sleep,
	}
	if a.remote != nil {
		engineCfg.Remote = a.remote
	}
	a.engine = offline.NewEngine(engineCfg)

	switch {
	case a.remote == nil:
		a.probe = resources.Static(false)
	case cfg.Sync.Enabled:
		coordinator, err := sync.NewCoordinator(cfg.Sync, a.engine, a.remote)
		if err != nil {
			return nil, fmt.Errorf("failed to create sync coordinator: %w", err)
		}
		a.coordinator = coordinator
		a.probe = coordinator
	default:
		a.probe = &pingProbe{pinger: a.remote, timeout: cfg.Sync.ProbeTimeout}
	}

	resOpts := resources.Options{
		Engine:        a.engine,
		Connectivity:  a.probe,
		OfflineUserID: cfg.Sync.OfflineUserID,
		RemoteName:    cfg.Remote.Name,
		OnQueued:      a.afterQueuedWrite,
	}
	if a.remote != nil {
		resOpts.Remote = a.remote
	}
	a.Tasks = resources.NewTasks(resOpts)
	a.Reminders = resources.NewReminders(resOpts)
	a.Pomodoro = resources.NewPomodoro(resOpts)

	return a, nil
}

// newRemote builds the HTTP client using credentials from keyring or env
func newRemote(cfg config.RemoteConfig) (Remote, error) {
	creds, err := credentials.NewResolver().Resolve(cfg.Name, cfg.Username)
	if err != nil {
		return nil, err
	}
	client, err := rest.NewClient(rest.Config{
		URL:         cfg.URL,
		APIKey:      creds.APIKey,
		AccessToken: creds.AccessToken,
		Timeout:     cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// pingProbe answers connectivity when sync is disabled
type pingProbe struct {
	pinger  backend.Pinger
	timeout time.Duration
}

func (p *pingProbe) Online(ctx context.Context) bool {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.pinger.Ping(ctx) == nil
}

func (a *App) afterQueuedWrite() {
	if a.coordinator == nil || !a.config.Sync.BackgroundFlush || !a.opts.SpawnBackground {
		return
	}
	a.spawnOnce.Do(func() {
		if err := sync.SpawnBackgroundFlush(a.opts.BackgroundArgs...); err != nil {
			a.log.Debug("failed to spawn background flush: %v", err)
		}
	})
}

// Config returns the loaded configuration
func (a *App) Config() *config.Config {
	return a.config
}

// Engine returns the offline engine
func (a *App) Engine() *offline.Engine {
	return a.engine
}

// Coordinator returns the sync coordinator, nil when sync is disabled
func (a *App) Coordinator() *sync.Coordinator {
	return a.coordinator
}

// RequireRemote returns why the remote cannot be used, or nil
func (a *App) RequireRemote() error {
	if a.remote == nil {
		if a.remoteErr != nil {
			return a.remoteErr
		}
		return utils.ErrCredentialsNotFound(a.config.Remote.Name)
	}
	return nil
}

// Flush pushes the offline queue now. The bool is false when the remote
// was unreachable and nothing was attempted.
func (a *App) Flush(ctx context.Context, opts offline.FlushOptions) (offline.FlushResult, bool, error) {
	if err := a.RequireRemote(); err != nil {
		return offline.FlushResult{}, false, err
	}
	if a.coordinator == nil {
		return offline.FlushResult{}, false, utils.ErrSyncNotEnabled()
	}
	res, ran, err := a.coordinator.FlushNow(ctx, opts)
	return res, ran, WrapStorageError(err)
}

// vacuumer is implemented by stores that can hand freed space back
type vacuumer interface {
	Vacuum(ctx context.Context) error
}

// ClearQueue discards every queued mutation and compacts the store. It
// returns how many mutations were dropped.
func (a *App) ClearQueue(ctx context.Context, confirm offline.DiscardConfirmation) (int, error) {
	count := a.engine.PendingCount(ctx)
	if err := a.engine.ClearQueuedMutations(ctx, confirm); err != nil {
		return 0, WrapStorageError(err)
	}
	if v, ok := a.store.(vacuumer); ok {
		if err := v.Vacuum(ctx); err != nil {
			a.log.Debug("vacuum after clearing the queue failed: %v", err)
		}
	}
	return count, nil
}

// Status reports connectivity and queue state
func (a *App) Status(ctx context.Context) sync.Status {
	if a.coordinator != nil {
		return a.coordinator.Status(ctx)
	}
	return sync.Status{
		Online:  a.probe.Online(ctx),
		Pending: a.engine.PendingCount(ctx),
	}
}

// Close waits briefly for a triggered flush and closes storage
func (a *App) Close() error {
	if a.coordinator != nil {
		a.coordinator.Shutdown(ShutdownTimeout)
	}
	return a.store.Close()
}

// WrapStorageError attaches a user facing suggestion to storage failures.
// Errors that already carry a suggestion pass through unchanged.
func WrapStorageError(err error) error {
	if err == nil {
		return nil
	}
	var ews *utils.ErrorWithSuggestion
	if errors.As(err, &ews) {
		return err
	}
	switch {
	case errors.Is(err, storage.ErrQuotaExceeded):
		return utils.ErrStorageFull(err)
	case errors.Is(err, storage.ErrUnavailable):
		return utils.ErrStorageUnavailable(err)
	}
	return err
}
