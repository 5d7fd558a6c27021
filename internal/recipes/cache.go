package recipes

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// Cache memoizes lookup results per video so repeated feed taps do not
// re-run web searches. Entries expire after the TTL; when full, the oldest
// entry is evicted.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cachedResult
	ttl     time.Duration
	maxSize int
	hits    int64
	misses  int64
}

type cachedResult struct {
	result    Result
	timestamp time.Time
}

// NewCache creates a result cache with the given TTL and max entry count.
func NewCache(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		entries: make(map[string]*cachedResult),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

func cacheKey(video VideoMeta) string {
	h := sha256.New()
	h.Write([]byte(video.ID))
	h.Write([]byte{0})
	h.Write([]byte(video.Title))
	h.Write([]byte{0})
	h.Write([]byte(video.Description))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get returns a cached result if present and fresh.
func (c *Cache) Get(video VideoMeta) (Result, bool) {
	key := cacheKey(video)

	c.mu.Lock()
	defer c.mu.Unlock()

	cached, exists := c.entries[key]
	if !exists || time.Since(cached.timestamp) > c.ttl {
		c.misses++
		return Result{}, false
	}
	c.hits++
	return cached.result, true
}

// Set stores a lookup result.
func (c *Cache) Set(video VideoMeta, result Result) {
	key := cacheKey(video)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		var oldestKey string
		var oldestTime time.Time
		for k, v := range c.entries {
			if oldestTime.IsZero() || v.timestamp.Before(oldestTime) {
				oldestKey = k
				oldestTime = v.timestamp
			}
		}
		if oldestKey != "" {
			delete(c.entries, oldestKey)
		}
	}

	c.entries[key] = &cachedResult{result: result, timestamp: time.Now()}
}

// Stats returns hit/miss counters.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
