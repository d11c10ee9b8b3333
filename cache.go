package grid

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache is the interface for caching query results.
// Users should implement this interface with their preferred caching solution
// (e.g., Redis, Memcached, in-memory).
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// CacheKey identifies the cached result of a statement.
type CacheKey struct {
	Table     string
	Operation string
	Query     string
}

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	return k.Table + ":" + k.Operation + ":" + k.Query
}

// WithCache caches the rows of FetchAll, FetchOne and Count in c for ttl.
// Insert, Update, Delete and Scrub invalidate the cached results of their
// table and of every table joining it. RawQuery bypasses the cache.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(g *Grid) {
		g.cache = c
		g.cacheTTL = ttl
	}
}

// cached returns the rows cached under key.
func (g *Grid) cached(ctx context.Context, key CacheKey) ([]Row, bool) {
	if g.cache == nil {
		return nil, false
	}
	data, err := g.cache.Get(ctx, key.String())
	if err != nil || data == nil {
		return nil, false
	}
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var rows []Row
	if err := dec.Decode(&rows); err != nil {
		return nil, false
	}
	return rows, true
}

// store caches rows under key. Cache failures only cost a later miss.
func (g *Grid) store(ctx context.Context, key CacheKey, rows []Row) {
	if g.cache == nil {
		return
	}
	data, err := msgpack.Marshal(rows)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key.String(), data, g.cacheTTL); err != nil {
		g.logger.Warn("grid cache", "op", "set", "key", key.String(), "error", err)
	}
}

// invalidate drops the cached results that may read table.
func (g *Grid) invalidate(ctx context.Context, table string) {
	if g.cache == nil {
		return
	}
	reg := g.Registry()
	tables := []string{table}
	for _, t := range reg.Tables() {
		if _, ok := reg.Assoc(t).Find(table); ok && t != table {
			tables = append(tables, t)
		}
	}
	for _, t := range tables {
		if err := g.cache.DeletePrefix(ctx, t+":"); err != nil {
			g.logger.Warn("grid cache", "op", "delete", "table", t, "error", err)
		}
	}
}

// PurgeCache empties the cache set with WithCache.
func (g *Grid) PurgeCache(ctx context.Context) error {
	if g.cache == nil {
		return nil
	}
	return g.cache.Clear(ctx)
}

// MemoryCache is an in-process Cache. It is safe for concurrent use.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, nil
	}
	return e.value, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// DeletePrefix implements Cache.
func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

// Clear implements Cache.
func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	return nil
}

// Len returns the number of entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
