package records

import "sync"

// Record is anything the Record Store assigns an identity to.
type Record interface {
	RecordID() string
}

// Cache holds the last fetched collection of one resource, in server order.
type Cache[T Record] struct {
	mu     sync.RWMutex
	items  []T
	loaded bool
}

// Replace swaps the whole collection, as after a list call.
func (c *Cache[T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(make([]T, 0, len(items)), items...)
	c.loaded = true
}

func (c *Cache[T]) Append(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
}

// Put replaces the record with the given id. It reports whether a record
// was replaced.
func (c *Cache[T]) Put(id string, item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].RecordID() == id {
			c.items[i] = item
			return true
		}
	}
	return false
}

func (c *Cache[T]) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0]
	for _, it := range c.items {
		if it.RecordID() != id {
			kept = append(kept, it)
		}
	}
	// clear the tail so removed records can be collected
	var zero T
	for i := len(kept); i < len(c.items); i++ {
		c.items[i] = zero
	}
	c.items = kept
}

func (c *Cache[T]) Find(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if it.RecordID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// All returns a copy of the cached collection.
func (c *Cache[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

// Loaded reports whether a list call has filled the cache.
func (c *Cache[T]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}
