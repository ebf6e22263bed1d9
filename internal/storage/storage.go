// Package storage provides the durable key/value medium the offline queue
// and resource caches live in. Every store is scoped to a namespace so
// several profiles can share one database file.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Store is a namespaced key/value store that survives restarts.
type Store interface {
	// Get returns the value for key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Update replaces the value of key with the result of fn, atomically
	// with respect to every other Update on the same medium, including
	// ones made by other processes sharing the database file.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	// Close releases the underlying medium.
	Close() error
}

// UpdateFunc receives the current value of a key (found is false when it is
// absent) and returns the value to store. A nil result deletes the key.
// Returning SkipWrite leaves the key untouched; any other error aborts the
// update and is returned from Update as is. fn must not call back into the
// store.
type UpdateFunc func(value []byte, found bool) ([]byte, error)

// SkipWrite is returned by an UpdateFunc that has nothing to change.
var SkipWrite = errors.New("skip write")

// Error kinds. Use errors.Is(err, ErrQuotaExceeded) and friends.
var (
	ErrUnavailable   = errors.New("offline storage unavailable")
	ErrQuotaExceeded = errors.New("offline storage quota exceeded")
	ErrUnknown       = errors.New("offline storage failure")
)

// Error is returned by every Store operation that fails.
type Error struct {
	Kind error  // one of ErrUnavailable, ErrQuotaExceeded, ErrUnknown
	Op   string // "open", "get", "set", "delete", "update"
	Key  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Key != "" {
		msg = fmt.Sprintf("%s (key %q)", msg, e.Key)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the error kind so errors.Is(err, ErrQuotaExceeded) works
// without exposing the cause.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func newError(kind error, op, key string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Key: key, Err: cause}
}

// Options selects and configures a Store implementation.
type Options struct {
	Driver    string // "sqlite" or "memory"
	Path      string // database file for the sqlite driver
	Namespace string
	MaxBytes  int64 // 0 = unlimited
	Compress  bool  // snappy-compress stored values
}

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"

	DefaultNamespace = "focusync"
)

// Open opens the store described by opts.
func Open(opts Options) (Store, error) {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}

	switch opts.Driver {
	case DriverSQLite, "":
		return OpenSQLite(opts)
	case DriverMemory:
		return NewMemoryStore(opts), nil
	default:
		return nil, newError(ErrUnavailable, "open", "", fmt.Errorf("unknown storage driver %q", opts.Driver))
	}
}

// OpenOrUnavailable opens the store described by opts and degrades to an
// Unavailable store when the medium cannot be opened. Reads from the
// degraded store look empty to the queue; writes fail with ErrUnavailable.
func OpenOrUnavailable(opts Options) Store {
	store, err := Open(opts)
	if err != nil {
		logger().Warn("offline storage disabled: %v", err)
		return &Unavailable{Err: err}
	}
	return store
}
