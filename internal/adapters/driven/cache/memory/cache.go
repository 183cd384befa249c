// Package memory provides an in-memory embedding cache with TTL expiry
// and LRU eviction.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.EmbeddingCache = (*Cache)(nil)

// Default configuration values.
const (
	DefaultMaxEntries = 10000
	DefaultTTL        = 24 * time.Hour
)

// Config holds configuration for the in-memory cache.
type Config struct {
	// MaxEntries is the entry count cap; the least recently used entry
	// is evicted when the cap is exceeded (default: 10000).
	MaxEntries int

	// TTL is the entry lifetime; expired entries read as misses
	// (default: 24h).
	TTL time.Duration
}

// entry is one cached vector with its expiry deadline.
type entry struct {
	key       string
	vector    []float32
	expiresAt time.Time
}

// Cache is an in-memory implementation of driven.EmbeddingCache.
// Reads refresh recency; expired entries are removed lazily on access.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	order      *list.List // front = most recently used
	entries    map[string]*list.Element

	now func() time.Time
}

// NewCache creates a new in-memory embedding cache.
func NewCache(cfg Config) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	return &Cache{
		maxEntries: cfg.MaxEntries,
		ttl:        cfg.TTL,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
		now:        time.Now,
	}
}

// Get returns the cached vector for the key, or domain.ErrNotFound when
// the key is absent or its entry has expired.
func (c *Cache) Get(_ context.Context, key string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}

	e := el.Value.(*entry)
	if c.now().After(e.expiresAt) {
		c.remove(el)
		return nil, domain.ErrNotFound
	}

	c.order.MoveToFront(el)
	return e.vector, nil
}

// Put stores a vector under the key, evicting the least recently used
// entries once the cap is exceeded. Storing an existing key refreshes
// both the vector and the expiry deadline.
func (c *Cache) Put(_ context.Context, key string, vector []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		e.vector = vector
		e.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return nil
	}

	el := c.order.PushFront(&entry{key: key, vector: vector, expiresAt: expiresAt})
	c.entries[key] = el

	for c.order.Len() > c.maxEntries {
		c.remove(c.order.Back())
	}
	return nil
}

// Len returns the number of entries currently held, including entries
// that have expired but not yet been evicted.
func (c *Cache) Len(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len(), nil
}

// Close releases resources.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
	return nil
}

// remove drops an element from both the recency list and the index.
// Callers must hold the lock.
func (c *Cache) remove(el *list.Element) {
	if el == nil {
		return
	}
	c.order.Remove(el)
	delete(c.entries, el.Value.(*entry).key)
}
