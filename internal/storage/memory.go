package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MemoryStore is a Store kept in process memory. It does not survive
// restarts; it backs tests and the "memory" driver.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string][]byte
	maxBytes int64
	used     int64
	compress bool
}

// NewMemoryStore creates an empty in-memory store. MaxBytes and Compress
// from opts are honoured; Path is ignored.
func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		values:   make(map[string][]byte),
		maxBytes: opts.MaxBytes,
		compress: opts.Compress,
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, newError(ErrUnknown, "get", key, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, found, err := m.get(key)
	if err != nil {
		return nil, false, newError(ErrUnknown, "get", key, err)
	}
	return value, found, nil
}

func (m *MemoryStore) get(key string) ([]byte, bool, error) {
	data, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	encoding := encodingRaw
	if m.compress {
		encoding = encodingSnappy
	}
	value, err := decodeValue(data, encoding)
	if err != nil {
		return nil, false, err
	}
	// callers must not alias stored bytes
	return append([]byte(nil), value...), true, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return newError(ErrUnknown, "set", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.set("set", key, value)
}

func (m *MemoryStore) set(op, key string, value []byte) error {
	data, _ := encodeValue(append([]byte(nil), value...), m.compress)

	size := int64(len(key) + len(data))
	prev := int64(0)
	if old, ok := m.values[key]; ok {
		prev = int64(len(key) + len(old))
	}
	if m.maxBytes > 0 && m.used-prev+size > m.maxBytes {
		return newError(ErrQuotaExceeded, op, key,
			fmt.Errorf("%d bytes would exceed quota of %d", m.used-prev+size, m.maxBytes))
	}

	m.values[key] = data
	m.used += size - prev
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return newError(ErrUnknown, "delete", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.delete(key)
	return nil
}

func (m *MemoryStore) delete(key string) {
	if old, ok := m.values[key]; ok {
		m.used -= int64(len(key) + len(old))
		delete(m.values, key)
	}
}

// Update runs fn with the store locked, so it is atomic against every other
// call on this MemoryStore.
func (m *MemoryStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return newError(ErrUnknown, "update", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	value, found, err := m.get(key)
	if err != nil {
		return newError(ErrUnknown, "update", key, err)
	}

	next, err := fn(value, found)
	if errors.Is(err, SkipWrite) {
		return nil
	}
	if err != nil {
		return err
	}

	if next == nil {
		m.delete(key)
		return nil
	}
	return m.set("update", key, next)
}

// Has reports whether key is present, without decoding it
func (m *MemoryStore) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.values[key]
	return ok
}

// Used returns the number of bytes counted against the quota
func (m *MemoryStore) Used() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}

func (m *MemoryStore) Close() error {
	return nil
}

// Unavailable stands in for a storage medium that could not be opened.
// Every operation fails with ErrUnavailable.
type Unavailable struct {
	Err error // why the medium is unavailable
}

func (u *Unavailable) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, newError(ErrUnavailable, "get", key, u.Err)
}

func (u *Unavailable) Set(ctx context.Context, key string, value []byte) error {
	return newError(ErrUnavailable, "set", key, u.Err)
}

func (u *Unavailable) Delete(ctx context.Context, key string) error {
	return newError(ErrUnavailable, "delete", key, u.Err)
}

func (u *Unavailable) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return newError(ErrUnavailable, "update", key, u.Err)
}

func (u *Unavailable) Close() error {
	return nil
}
