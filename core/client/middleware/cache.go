package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/leofalp/aistream/core/client"
	"github.com/leofalp/aistream/providers/ai"
)

// Default cache settings.
const (
	defaultCacheTTL        = 5 * time.Minute
	defaultCacheMaxEntries = 256
)

// CacheConfig configures the response cache.
type CacheConfig struct {
	// TTL is how long a response stays valid. Default: 5m.
	TTL time.Duration
	// MaxEntries bounds the cache size; the oldest entry is evicted first.
	// Default: 256.
	MaxEntries int
	// Now overrides the clock in tests.
	Now func() time.Time
}

type cacheEntry struct {
	response *ai.ChatResponse
	storedAt time.Time
}

// responseCache is a mutex-guarded TTL map keyed by request hash.
type responseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	now     func() time.Time
	entries map[string]cacheEntry
}

func (c *responseCache) get(key string) (*ai.ChatResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.response, true
}

func (c *responseCache) put(key string, response *ai.ChatResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.max {
		c.evictLocked(now)
	}
	c.entries[key] = cacheEntry{response: response, storedAt: now}
}

// evictLocked drops expired entries, then the oldest one if still full.
func (c *responseCache) evictLocked(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) >= c.ttl {
			delete(c.entries, key)
			continue
		}
		if oldestKey == "" || entry.storedAt.Before(oldest) {
			oldestKey, oldest = key, entry.storedAt
		}
	}
	if len(c.entries) >= c.max && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// NewCacheMiddleware serves repeated identical Complete calls from memory.
// The key is a SHA-256 of the JSON-encoded request, so messages and every
// option take part. Streams are never cached. Failed calls are not stored.
//
// Callers get a copy of the cached response; mutating it does not affect
// later hits.
func NewCacheMiddleware(config CacheConfig) client.MiddlewareConfig {
	cache := &responseCache{
		ttl:     config.TTL,
		max:     config.MaxEntries,
		now:     config.Now,
		entries: make(map[string]cacheEntry),
	}
	if cache.ttl <= 0 {
		cache.ttl = defaultCacheTTL
	}
	if cache.max <= 0 {
		cache.max = defaultCacheMaxEntries
	}
	if cache.now == nil {
		cache.now = time.Now
	}

	return client.MiddlewareConfig{
		Complete: func(next client.CompleteFunc) client.CompleteFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				key, err := requestKey(request)
				if err != nil {
					return next(ctx, request)
				}

				if cached, ok := cache.get(key); ok {
					return copyResponse(cached), nil
				}

				response, err := next(ctx, request)
				if err != nil {
					return nil, err
				}
				cache.put(key, copyResponse(response))
				return response, nil
			}
		},
	}
}

func requestKey(request ai.ChatRequest) (string, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func copyResponse(response *ai.ChatResponse) *ai.ChatResponse {
	clone := *response
	clone.Message.Parts = slices.Clone(response.Message.Parts)
	if response.Usage != nil {
		usage := *response.Usage
		clone.Usage = &usage
	}
	return &clone
}
