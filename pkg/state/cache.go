package state

import (
	"sync"

	"github.com/aretw0/weft/pkg/domain"
)

// Cache freezes hook reads for a single render coordinate.
type Cache struct {
	mu      sync.Mutex
	coord   domain.Coordinate
	entries map[int]any
}

// NewCache creates an empty cache for a coordinate.
func NewCache(coord domain.Coordinate) *Cache {
	return &Cache{coord: coord, entries: make(map[int]any)}
}

// Coordinate returns the render coordinate the cache belongs to.
func (c *Cache) Coordinate() domain.Coordinate { return c.coord }

// Remember stores value for the hook index unless a value is already cached,
// and returns the cached value.
func (c *Cache) Remember(index int, value any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries[index]; ok {
		return v
	}
	c.entries[index] = value
	return value
}

// Lookup returns the value cached for a hook index.
func (c *Cache) Lookup(index int) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[index]
	return v, ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clone returns a copy of the cache scoped to coord.
// Entries are only carried over when coord is the cache's own coordinate.
func (c *Cache) Clone(coord domain.Coordinate) *Cache {
	out := NewCache(coord)
	if c == nil || c.coord != coord {
		return out
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range c.entries {
		out.entries[k] = v
	}
	return out
}
