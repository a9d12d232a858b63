package vehicle

import (
	"strings"
	"sync"
)

// Cache memoizes derived capabilities per VIN for the process lifetime.
// It is injected into the resolver so tests can reset or replace it.
// Safe for concurrent use; entries are never evicted.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Capabilities
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]Capabilities)}
}

// Get looks up a VIN. Keys are case-insensitive.
func (c *Cache) Get(vin string) (Capabilities, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	caps, ok := c.entries[strings.ToUpper(vin)]
	return caps, ok
}

func (c *Cache) Put(vin string, caps Capabilities) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[strings.ToUpper(vin)] = caps
}

// Reset drops all entries.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Capabilities)
}

// Len reports the number of cached VINs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
