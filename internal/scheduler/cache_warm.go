package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/zonewatch/internal/logger"
)

// CacheWarmer fills the host zone cache from the stored aggregates on startup
type CacheWarmer struct {
	cache  ZoneCacheWarmer
	logger logger.Logger
}

// NewCacheWarmer creates a new cache warmer
func NewCacheWarmer(cache ZoneCacheWarmer, log logger.Logger) *CacheWarmer {
	return &CacheWarmer{
		cache:  cache,
		logger: log,
	}
}

// Warm loads every aggregate host into the cache
func (cw *CacheWarmer) Warm(ctx context.Context) error {
	cw.logger.Info("warming zone cache from redis")

	n, err := cw.cache.Warm(ctx)
	if err != nil {
		return err
	}

	if n == 0 {
		cw.logger.Info("no aggregate hosts found in redis")
		return nil
	}

	cw.logger.Info("warmed zone cache",
		logger.Int("hosts", n))

	return nil
}
