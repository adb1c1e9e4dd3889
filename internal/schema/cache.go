package schema

import "sync"

// cache is a memoization map safe for concurrent use. Values are stored and
// returned whole, a reader never observes a partially written entry.
type cache[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

func newCache[V any]() *cache[V] {
	return &cache[V]{items: make(map[string]V)}
}

func (c *cache[V]) get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *cache[V]) set(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = v
}

func (c *cache[V]) delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *cache[V]) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]V)
}

func (c *cache[V]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
