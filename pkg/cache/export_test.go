package cache

import "time"

// SetClock replaces the time source.
func (c *LRUCache[K, V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}
