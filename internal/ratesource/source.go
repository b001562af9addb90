package ratesource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/loan-review/pkg/constants"
	"go.uber.org/zap"
)

// CacheSettings selects and tunes the reference rate cache.
type CacheSettings struct {
	Backend string        `mapstructure:"backend" yaml:"backend"` // none, memory, redis
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Redis   RedisOptions  `mapstructure:"redis" yaml:"redis"`
}

// Settings configures the reference rate source.
type Settings struct {
	BaseURL      string            `mapstructure:"baseURL" yaml:"baseURL"`
	Timeout      time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	Retries      int               `mapstructure:"retries" yaml:"retries"`
	RetryBackoff time.Duration     `mapstructure:"retryBackoff" yaml:"retryBackoff"`
	Series       map[string]string `mapstructure:"series" yaml:"series"`
	Cache        CacheSettings     `mapstructure:"cache" yaml:"cache"`
}

// Source is the assembled provider: SGS client plus optional cache.
type Source struct {
	Provider
	catalog *Catalog
	closers []func() error
}

// New builds a Source from settings. A Redis cache that cannot be reached
// degrades to the memory cache rather than failing startup.
func New(ctx context.Context, logger *zap.Logger, settings Settings) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := NewCatalog(settings.Series)
	if err != nil {
		return nil, err
	}

	client := NewClient(logger, Options{
		BaseURL:      settings.BaseURL,
		Timeout:      settings.Timeout,
		Retries:      settings.Retries,
		RetryBackoff: settings.RetryBackoff,
		Catalog:      catalog,
	})

	source := &Source{Provider: client, catalog: catalog}

	backend := strings.ToLower(strings.TrimSpace(settings.Cache.Backend))
	switch backend {
	case "", constants.CacheBackendNone:
		return source, nil
	case constants.CacheBackendMemory:
		source.Provider = NewCachedProvider(logger, client, NewMemoryCache(), settings.Cache.TTL)
	case constants.CacheBackendRedis:
		redisCache, err := NewRedisCache(ctx, settings.Cache.Redis)
		if err != nil {
			logger.Warn("redis cache unavailable, falling back to memory cache",
				zap.String("op", "ratesource.New"),
				zap.Error(err),
			)
			source.Provider = NewCachedProvider(logger, client, NewMemoryCache(), settings.Cache.TTL)
			return source, nil
		}
		source.Provider = NewCachedProvider(logger, client, redisCache, settings.Cache.TTL)
		source.closers = append(source.closers, redisCache.Close)
	default:
		return nil, fmt.Errorf("unsupported cache backend %q, expected %s, %s or %s",
			settings.Cache.Backend, constants.CacheBackendNone, constants.CacheBackendMemory, constants.CacheBackendRedis)
	}

	logger.Debug("reference rate cache enabled",
		zap.String("op", "ratesource.New"),
		zap.String("backend", backend),
	)
	return source, nil
}

// Catalog returns the modality catalog in use.
func (s *Source) Catalog() *Catalog {
	return s.catalog
}

// Close releases cache connections.
func (s *Source) Close() error {
	var firstErr error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
