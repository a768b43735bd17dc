package resolver

import (
	"fmt"
	"sync"
)

type cacheKey struct {
	path string
	mode Mode
}

// Cache holds loaded and resolved schemas keyed by absolute file path.
//
// Entries are filled lazily and never invalidated or evicted. There are no
// locks around a fill: concurrent first-time lookups of the same file may each
// load and resolve it, and the first stored result wins. Resolution depends
// only on file contents, so every caller observes an equal tree.
//
// Cached trees are shared between callers and must be treated as read-only.
type Cache struct {
	loaded   sync.Map // string -> map[string]any
	resolved sync.Map // cacheKey -> map[string]any
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

var defaultCache = NewCache()

// DefaultCache returns the process-wide cache used by resolvers configured
// without one.
func DefaultCache() *Cache {
	return defaultCache
}

func (c *Cache) loadedSchema(path string) (map[string]any, bool) {
	v, ok := c.loaded.Load(path)
	if !ok {
		return nil, false
	}
	return v.(map[string]any), true
}

func (c *Cache) storeLoaded(path string, schema map[string]any) map[string]any {
	actual, _ := c.loaded.LoadOrStore(path, schema)
	return actual.(map[string]any)
}

func (c *Cache) resolvedSchema(key cacheKey) (map[string]any, bool) {
	v, ok := c.resolved.Load(key)
	if !ok {
		return nil, false
	}
	return v.(map[string]any), true
}

func (c *Cache) storeResolved(key cacheKey, schema map[string]any) map[string]any {
	actual, _ := c.resolved.LoadOrStore(key, schema)
	return actual.(map[string]any)
}

// Len returns the number of resolved entries.
func (c *Cache) Len() int {
	n := 0
	c.resolved.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Warm loads and resolves paths in order using r's settings and stores the
// results in c. It stops at the first failure.
func (c *Cache) Warm(r *Resolver, paths ...string) error {
	warm := *r
	warm.cache = c
	for _, p := range paths {
		if _, err := warm.LoadAndResolve(p); err != nil {
			return fmt.Errorf("resolver: warming %s: %w", p, err)
		}
	}
	return nil
}
