package cache

import (
	"context"
	"sync"
	"time"

	apperrors "admin-portal/pkg/errors"
)

type memoryEntry struct {
	value      string
	expiryTime time.Time
}

// MemoryCache is a process-local Store used when no Redis is configured
type MemoryCache struct {
	entries map[string]memoryEntry
	mutex   sync.RWMutex
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	c.mutex.RLock()
	entry, found := c.entries[key]
	c.mutex.RUnlock()

	if found && c.now().Before(entry.expiryTime) {
		return entry.value, nil
	}
	return "", apperrors.ErrCacheMiss
}

func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mutex.Lock()
	c.entries[key] = memoryEntry{value: value, expiryTime: c.now().Add(ttl)}
	c.mutex.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mutex.Lock()
	delete(c.entries, key)
	c.mutex.Unlock()
	return nil
}

func (c *MemoryCache) Ping(context.Context) error {
	return nil
}

// Sweep removes expired entries
func (c *MemoryCache) Sweep() {
	now := c.now()
	c.mutex.Lock()
	for key, entry := range c.entries {
		if now.After(entry.expiryTime) {
			delete(c.entries, key)
		}
	}
	c.mutex.Unlock()
}
