package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// cacheEntry represents a cached reply.
type cacheEntry struct {
	expiry time.Time
	reply  string
}

// responseCache provides thread-safe TTL caching of generated replies keyed by prompt.
type responseCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	now     func() time.Time
	ttl     time.Duration
	mu      sync.RWMutex
	once    sync.Once
}

// newResponseCache creates a new cache with the specified TTL.
func newResponseCache(ttl time.Duration) *responseCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &responseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup(5 * time.Minute)

	return cache
}

func cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// get retrieves a reply if it exists and hasn't expired.
func (c *responseCache) get(prompt string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[cacheKey(prompt)]
	if !exists || c.now().After(entry.expiry) {
		return "", false
	}
	return entry.reply, true
}

// set stores a reply.
func (c *responseCache) set(prompt, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(prompt)] = cacheEntry{
		reply:  reply,
		expiry: c.now().Add(c.ttl),
	}
}

func (c *responseCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiry) {
			delete(c.entries, key)
		}
	}
}

// cleanup periodically removes expired entries.
func (c *responseCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

// size returns the number of entries in the cache.
func (c *responseCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *responseCache) Close() {
	c.once.Do(func() { close(c.stopCh) })
}
