package orchestrator

import (
	"sync"
	"time"

	"github.com/jobatlas/jobatlas/internal/jobs"
)

const (
	DefaultCacheTTL      = 10 * time.Minute
	DefaultCacheCapacity = 1000
)

type cacheEntry struct {
	value    *jobs.SearchResult
	storedAt time.Time
}

// Cache memoizes orchestrator outputs keyed by the normalized request. It is
// written only after a search fully completes, so a single mutex is enough.
// When the capacity bound is exceeded the oldest entry is evicted first.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	order    []string
	ttl      time.Duration
	capacity int
	stop     chan struct{}
	stopOnce sync.Once

	now func() time.Time
}

func NewCache(ttl time.Duration, capacity int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}

	c := &Cache{
		entries:  make(map[string]cacheEntry),
		ttl:      ttl,
		capacity: capacity,
		stop:     make(chan struct{}),
		now:      time.Now,
	}

	go c.cleanUp(ttl)

	return c
}

func (c *Cache) Get(key string) (*jobs.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		return nil, false
	}
	return entry.value, true
}

func (c *Cache) Put(key string, value *jobs.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{value: value, storedAt: c.now()}

	for len(c.entries) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stop terminates the background janitor.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) cleanUp(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.dropExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) dropExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	kept := c.order[:0]
	for _, key := range c.order {
		entry, ok := c.entries[key]
		if !ok {
			continue
		}
		if now.Sub(entry.storedAt) > c.ttl {
			delete(c.entries, key)
			continue
		}
		kept = append(kept, key)
	}
	c.order = kept
}
