package tableloader

import (
	"slices"
	"sync"

	"github.com/chazu/utitree/pkg/hierarchy"
)

// Cache provides thread-safe caching of decoded tables keyed by format and
// content digest
type Cache struct {
	mu    sync.RWMutex
	items map[string][]hierarchy.Record
}

// NewCache creates a new cache instance
func NewCache() *Cache {
	return &Cache{
		items: make(map[string][]hierarchy.Record),
	}
}

func cacheKey(src *Source) string {
	return src.Format + ":" + src.Digest
}

// Get returns the records decoded from an identical source, if any
func (c *Cache) Get(src *Source) ([]hierarchy.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records, found := c.items[cacheKey(src)]
	return slices.Clone(records), found
}

// Set stores the records decoded from src
func (c *Cache) Set(src *Source, records []hierarchy.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[cacheKey(src)] = slices.Clone(records)
}

// Size returns the number of cached tables
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}
