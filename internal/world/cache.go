package world

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// ParseCache caches parse results for a single run, keyed by path and
// modification time so a stale entry is never returned. Bounded LRU;
// owned by a run context, never process-wide.
type ParseCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	order   *list.List
}

type cacheItem struct {
	key    string
	parsed *ParsedFile
}

// NewParseCache creates a bounded parse cache. Size <= 0 defaults to 4096.
func NewParseCache(maxSize int) *ParseCache {
	if maxSize <= 0 {
		maxSize = 4096
	}
	return &ParseCache{
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

func cacheKey(path string, modTime time.Time) string {
	return fmt.Sprintf("%s|%d", path, modTime.UnixNano())
}

// Get returns a cached parse result for (path, modTime), if present.
func (c *ParseCache) Get(path string, modTime time.Time) (*ParsedFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[cacheKey(path, modTime)]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheItem).parsed, true
}

// Put stores a parse result, evicting the least recently used entry when full.
func (c *ParseCache) Put(path string, modTime time.Time, parsed *ParsedFile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(path, modTime)
	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheItem).parsed = parsed
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheItem{key: key, parsed: parsed})
	c.entries[key] = elem

	for c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheItem).key)
	}
}

// Len returns the current number of cached entries.
func (c *ParseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
