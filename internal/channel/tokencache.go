package channel

import (
	"sync"
	"time"
)

// TokenCache keeps short-lived credentials between sends.
type TokenCache interface {
	Get(key string) (string, bool)
	Set(key, token string, ttl time.Duration)
}

type cachedToken struct {
	token   string
	expires time.Time
}

// MemoryTokenCache keeps tokens in-memory and guards access with a RWMutex.
type MemoryTokenCache struct {
	mu      sync.RWMutex
	clock   func() time.Time
	entries map[string]cachedToken
}

// NewMemoryTokenCache returns an empty cache. A nil clock means time.Now.
func NewMemoryTokenCache(clock func() time.Time) *MemoryTokenCache {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryTokenCache{
		clock:   clock,
		entries: make(map[string]cachedToken),
	}
}

// Get returns the token stored under key unless it has expired.
func (c *MemoryTokenCache) Get(key string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.clock().Before(entry.expires) {
		return "", false
	}
	return entry.token, true
}

// Set stores token under key for ttl. Non-positive ttls are ignored.
func (c *MemoryTokenCache) Set(key, token string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cachedToken{token: token, expires: c.clock().Add(ttl)}
	c.mu.Unlock()
}
