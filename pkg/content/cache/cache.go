// Package cache implements a read-through LRU cache in front of a content store.
//
// Static files are immutable for the purposes of the server, so entries never
// expire; they are evicted only to honor the entry and byte limits. Files
// larger than the per-entry limit bypass the cache.
package cache

import (
	"bytes"
	"container/list"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/marmos91/dittoweb/pkg/content"
	"github.com/marmos91/dittoweb/pkg/metrics"
)

// Default limits used when a Config field is zero.
const (
	DefaultMaxEntries    = 256
	DefaultMaxBytes      = 64 << 20 // 64MB
	DefaultMaxEntryBytes = 4 << 20  // 4MB
)

// Config bounds the cache.
type Config struct {
	MaxEntries    int
	MaxBytes      int64
	MaxEntryBytes int64
	Metrics       metrics.CacheMetrics
}

// CachedContentStore wraps a content.ContentStore with an LRU of file bodies.
//
// Thread Safety:
// Safe for concurrent use. Two workers missing the same key may both read the
// backend; the second insert replaces the first.
type CachedContentStore struct {
	backend content.ContentStore
	cfg     Config

	mu    sync.Mutex
	items map[string]*list.Element
	lru   *list.List
	size  int64
}

type cacheEntry struct {
	key  string
	data []byte
}

// New wraps backend. Zero limits take the package defaults.
func New(backend content.ContentStore, cfg Config) *CachedContentStore {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.MaxEntryBytes <= 0 {
		cfg.MaxEntryBytes = DefaultMaxEntryBytes
	}
	if cfg.MaxEntryBytes > cfg.MaxBytes {
		cfg.MaxEntryBytes = cfg.MaxBytes
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoopCacheMetrics()
	}

	return &CachedContentStore{
		backend: backend,
		cfg:     cfg,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Name reports the wrapped backend's name.
func (c *CachedContentStore) Name() string {
	return c.backend.Name()
}

// Backend returns the wrapped store.
func (c *CachedContentStore) Backend() content.ContentStore {
	return c.backend
}

func (c *CachedContentStore) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheEntry).data, true
}

func (c *CachedContentStore) put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		c.size += int64(len(data)) - int64(len(entry.data))
		entry.data = data
		c.lru.MoveToFront(elem)
	} else {
		c.items[key] = c.lru.PushFront(&cacheEntry{key: key, data: data})
		c.size += int64(len(data))
	}

	for c.lru.Len() > c.cfg.MaxEntries || c.size > c.cfg.MaxBytes {
		c.evictLRU()
	}
	c.cfg.Metrics.SetSize(c.lru.Len(), c.size)
}

func (c *CachedContentStore) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*cacheEntry)
	c.lru.Remove(elem)
	delete(c.items, entry.key)
	c.size -= int64(len(entry.data))
	c.cfg.Metrics.RecordEviction()
}

// load returns the body of p from the cache or the backend.
func (c *CachedContentStore) load(ctx context.Context, p string) ([]byte, error) {
	key, err := content.CleanPath(p)
	if err != nil {
		return nil, err
	}

	if data, ok := c.get(key); ok {
		c.cfg.Metrics.RecordHit()
		return data, nil
	}
	c.cfg.Metrics.RecordMiss()

	data, err := content.ReadAll(ctx, c.backend, key, c.cfg.MaxEntryBytes)
	if err != nil {
		return nil, err
	}
	c.put(key, data)
	return data, nil
}

// ReadContent serves p from the cache, filling it on a miss. Files over the
// per-entry limit are streamed from the backend uncached.
func (c *CachedContentStore) ReadContent(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := c.load(ctx, p)
	if errors.Is(err, content.ErrTooLarge) {
		return c.backend.ReadContent(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// GetContentSize answers from the cache when possible.
func (c *CachedContentStore) GetContentSize(ctx context.Context, p string) (uint64, error) {
	if key, err := content.CleanPath(p); err == nil {
		if data, ok := c.get(key); ok {
			return uint64(len(data)), nil
		}
	}
	return c.backend.GetContentSize(ctx, p)
}

// ContentExists answers from the cache when possible.
func (c *CachedContentStore) ContentExists(ctx context.Context, p string) (bool, error) {
	if key, err := content.CleanPath(p); err == nil {
		if _, ok := c.get(key); ok {
			return true, nil
		}
	}
	return c.backend.ContentExists(ctx, p)
}

// Invalidate drops p from the cache.
func (c *CachedContentStore) Invalidate(p string) {
	key, err := content.CleanPath(p)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		c.lru.Remove(elem)
		delete(c.items, key)
		c.size -= int64(len(entry.data))
		c.cfg.Metrics.SetSize(c.lru.Len(), c.size)
	}
}

// Stats returns the number of cached entries and their total size.
func (c *CachedContentStore) Stats() (entries int, bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len(), c.size
}
