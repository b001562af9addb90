package ratesource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iwvelando/loan-review/pkg/constants"
	"github.com/iwvelando/loan-review/pkg/datetime"
	"go.uber.org/zap"
)

// Provider is anything that can look up a reference rate.
type Provider interface {
	ReferenceRate(ctx context.Context, modality string, contractDate time.Time) (float64, error)
}

// Cache stores reference rates by key.
type Cache interface {
	Get(ctx context.Context, key string) (float64, bool)
	Set(ctx context.Context, key string, rate float64, ttl time.Duration) error
}

// CacheKey identifies the rate of a modality for the month containing contractDate.
func CacheKey(modality string, contractDate time.Time) string {
	return fmt.Sprintf("loan-review:rate:%s:%s", normalizeID(modality), datetime.MonthKey(contractDate))
}

// CachedProvider serves repeated lookups from a Cache. Only successful lookups
// are stored, so an outage is never remembered as a rate.
type CachedProvider struct {
	next   Provider
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProvider wraps next with cache.
func NewCachedProvider(logger *zap.Logger, next Provider, cache Cache, ttl time.Duration) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}
	return &CachedProvider{next: next, cache: cache, ttl: ttl, logger: logger}
}

// ReferenceRate implements Provider.
func (p *CachedProvider) ReferenceRate(ctx context.Context, modality string, contractDate time.Time) (float64, error) {
	key := CacheKey(modality, contractDate)
	if rate, ok := p.cache.Get(ctx, key); ok && rate > 0 {
		p.logger.Debug("reference rate served from cache",
			zap.String("op", "ratesource.CachedProvider"),
			zap.String("key", key),
		)
		return rate, nil
	}

	rate, err := p.next.ReferenceRate(ctx, modality, contractDate)
	if err != nil {
		return 0, err
	}

	if err := p.cache.Set(ctx, key, rate, p.ttl); err != nil {
		p.logger.Warn("failed to cache reference rate",
			zap.String("op", "ratesource.CachedProvider"),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return rate, nil
}

// MemoryCache provides in-process caching with expiration.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	now  func() time.Time
}

type memoryEntry struct {
	rate       float64
	expiration time.Time
}

// NewMemoryCache creates an empty memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]memoryEntry), now: time.Now}
}

// Get retrieves a rate that has not expired.
func (c *MemoryCache) Get(_ context.Context, key string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok || c.now().After(entry.expiration) {
		return 0, false
	}
	return entry.rate, true
}

// Set stores a rate for ttl.
func (c *MemoryCache) Set(_ context.Context, key string, rate float64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = memoryEntry{rate: rate, expiration: c.now().Add(ttl)}
	return nil
}

// Purge drops expired entries and returns how many were removed.
func (c *MemoryCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.data {
		if now.After(entry.expiration) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
