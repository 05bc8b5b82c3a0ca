package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"bazaar/config"
	"bazaar/internal/errors"
)

type RedisCodeCache struct {
	client *redis.Client
}

func NewRedisCodeCache(cfg *config.RedisConfig) (*RedisCodeCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, errors.Wrap(err, "failed to connect to redis")
	}

	return &RedisCodeCache{client: client}, nil
}

func (c *RedisCodeCache) Get(ctx context.Context, code string) (string, bool, error) {
	accountID, err := c.client.Get(ctx, keyPrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "redis get failed")
	}

	return accountID, true, nil
}

func (c *RedisCodeCache) Set(ctx context.Context, code, providerAccountID string, ttl time.Duration) error {
	if err := c.client.Set(ctx, keyPrefix+code, providerAccountID, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set failed")
	}

	return nil
}

func (c *RedisCodeCache) Close() error {
	return c.client.Close()
}
