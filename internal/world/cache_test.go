package world

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCacheHitAndMiss(t *testing.T) {
	cache := NewParseCache(4)
	mtime := time.Unix(1000, 0)
	pf := &ParsedFile{Path: "a.go", Language: "go"}

	_, ok := cache.Get("a.go", mtime)
	assert.False(t, ok)

	cache.Put("a.go", mtime, pf)
	got, ok := cache.Get("a.go", mtime)
	require.True(t, ok)
	assert.Same(t, pf, got)

	// A newer mtime is a different key; the stale entry must not serve.
	_, ok = cache.Get("a.go", mtime.Add(time.Second))
	assert.False(t, ok)
}

func TestParseCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewParseCache(2)
	mtime := time.Unix(1000, 0)

	cache.Put("a.go", mtime, &ParsedFile{Path: "a.go"})
	cache.Put("b.go", mtime, &ParsedFile{Path: "b.go"})

	// Touch a.go so b.go becomes the eviction candidate.
	_, ok := cache.Get("a.go", mtime)
	require.True(t, ok)

	cache.Put("c.go", mtime, &ParsedFile{Path: "c.go"})
	assert.Equal(t, 2, cache.Len())

	_, ok = cache.Get("b.go", mtime)
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = cache.Get("a.go", mtime)
	assert.True(t, ok)
}

func TestParseCacheBounded(t *testing.T) {
	cache := NewParseCache(8)
	mtime := time.Unix(1000, 0)
	for i := 0; i < 100; i++ {
		path := fmt.Sprintf("file%d.go", i)
		cache.Put(path, mtime, &ParsedFile{Path: path})
	}
	assert.Equal(t, 8, cache.Len())
}
