package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/domain/repository"
)

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
}

// NewCacheRepository создает кеш поверх Redis. Все ключи получают
// префикс prefix, промах возвращается как nil без ошибки.
func NewCacheRepository(redis *Redis, prefix string) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
		prefix: prefix,
	}
}

func (r *cacheRepository) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	key = r.key(key)
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key), zap.Int("bytes", len(val)))
	return val, nil
}

// Set сохраняет значение. Пустой тайл тоже кешируется: это валидный ответ.
func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	key = r.key(key)
	if value == nil {
		value = []byte{}
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}
