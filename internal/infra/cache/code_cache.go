// Package cache stores the WeChat code -> openid mapping so a retried code resolves
// without a second code2session call. WeChat codes are single use.
package cache

import (
	"log/slog"

	"bazaar/config"
	"bazaar/internal/domain/service"
)

const keyPrefix = "bazaar:wechat-code:"

// NewCodeCache returns a redis-backed cache when an address is configured and an
// in-process LRU otherwise. The LRU is per replica, so retries that land on another
// replica still reach the provider.
func NewCodeCache(cfg *config.Config, logger *slog.Logger) (service.CodeCache, error) {
	if cfg.Redis != nil && cfg.Redis.Addr != "" {
		cache, err := NewRedisCodeCache(cfg.Redis)
		if err != nil {
			return nil, err
		}

		logger.Info("WeChat code cache backed by redis", slog.String("addr", cfg.Redis.Addr))

		return cache, nil
	}

	size := 0
	if cfg.CodeCache != nil {
		size = cfg.CodeCache.LRUSize
	}

	logger.Info("WeChat code cache kept in process", slog.Int("size", size))

	return NewLRUCodeCache(size)
}
