package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Key derives a stable cache key from a normalized URL.
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "wikilens:v1:" + hex.EncodeToString(hash[:])
}

// Memory is an in-process TTL cache for fetched source text.
type Memory struct {
	cache *gocache.Cache
}

// NewMemory creates a memory cache with the given default TTL.
func NewMemory(defaultTTL time.Duration) *Memory {
	cleanup := defaultTTL
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &Memory{cache: gocache.New(defaultTTL, cleanup)}
}

// Get retrieves a cached value.
func (c *Memory) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a value under the cache's default TTL.
func (c *Memory) Set(key string, value []byte) {
	c.cache.SetDefault(key, value)
}

// Clear drops all entries.
func (c *Memory) Clear() {
	c.cache.Flush()
}
