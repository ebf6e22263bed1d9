package offline

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"focusync/backend"
	"focusync/internal/storage"
	"focusync/internal/utils"
)

// CacheKeyPrefix prefixes the storage key of every per-table cache
const CacheKeyPrefix = "offline-cache:"

// ResourceCache holds the locally visible rows of each table, keyed by
// primary key. Façades write optimistic rows into it; a flush removes the
// rows whose mutations reached the remote.
type ResourceCache struct {
	mu    sync.Mutex
	store storage.Store
	log   *utils.Logger
}

// NewResourceCache creates a cache stored in store
func NewResourceCache(store storage.Store) *ResourceCache {
	return &ResourceCache{
		store: store,
		log:   utils.Component("cache"),
	}
}

func cacheKey(table backend.Table) string {
	return CacheKeyPrefix + string(table)
}

func (c *ResourceCache) load(ctx context.Context, table backend.Table) (map[string]backend.Row, error) {
	data, found, err := c.store.Get(ctx, cacheKey(table))
	if err != nil {
		return nil, err
	}
	return c.decode(table, data, found), nil
}

func (c *ResourceCache) decode(table backend.Table, data []byte, found bool) map[string]backend.Row {
	rows := map[string]backend.Row{}
	if !found {
		return rows
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		c.log.Warn("cache for %s is unreadable, dropping it: %v", table, err)
		return map[string]backend.Row{}
	}
	return rows
}

// update applies fn to the cached rows of table in one atomic storage
// update. fn may return storage.SkipWrite when it changed nothing.
func (c *ResourceCache) update(ctx context.Context, table backend.Table, fn func(rows map[string]backend.Row) error) error {
	key := cacheKey(table)
	return c.store.Update(ctx, key, func(data []byte, found bool) ([]byte, error) {
		rows := c.decode(table, data, found)
		if err := fn(rows); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}
		out, err := json.Marshal(rows)
		if err != nil {
			return nil, &storage.Error{Kind: storage.ErrUnknown, Op: "encode", Key: key, Err: err}
		}
		return out, nil
	})
}

// Get returns the cached row for key
func (c *ResourceCache) Get(ctx context.Context, table backend.Table, key string) (backend.Row, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.load(ctx, table)
	if err != nil {
		return nil, false, err
	}
	row, ok := rows[key]
	return row, ok, nil
}

// List returns every cached row of table ordered by primary key
func (c *ResourceCache) List(ctx context.Context, table backend.Table) ([]backend.Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.load(ctx, table)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]backend.Row, 0, len(keys))
	for _, k := range keys {
		out = append(out, rows[k])
	}
	return out, nil
}

// Put replaces the cached row for key
func (c *ResourceCache) Put(ctx context.Context, table backend.Table, key string, row backend.Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row = row.Clone()
	if row == nil {
		row = backend.Row{}
	}
	row[backend.ColumnID] = key
	return c.update(ctx, table, func(rows map[string]backend.Row) error {
		rows[key] = row
		return nil
	})
}

// Patch overlays fields onto the cached row for key, creating it if needed,
// and returns the resulting row.
func (c *ResourceCache) Patch(ctx context.Context, table backend.Table, key string, fields backend.Row) (backend.Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var row backend.Row
	err := c.update(ctx, table, func(rows map[string]backend.Row) error {
		row = rows[key].Clone()
		if row == nil {
			row = backend.Row{}
		}
		for k, v := range fields {
			row[k] = v
		}
		row[backend.ColumnID] = key
		rows[key] = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row.Clone(), nil
}

// Remove drops the cached rows for keys. Missing keys are ignored.
func (c *ResourceCache) Remove(ctx context.Context, table backend.Table, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.update(ctx, table, func(rows map[string]backend.Row) error {
		removed := 0
		for _, k := range keys {
			if _, ok := rows[k]; ok {
				delete(rows, k)
				removed++
			}
		}
		if removed == 0 {
			return storage.SkipWrite
		}
		return nil
	})
}
