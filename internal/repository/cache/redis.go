package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/config"
)

const clientName = "streetmap-tiles"

// Redis - общий клиент для кеша тайлов и стримов заданий
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// redisOptions собирает опции клиента. PoolSize 0 оставляет размер пула
// go-redis по умолчанию.
func redisOptions(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:       fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:   cfg.Password,
		DB:         cfg.DB,
		PoolSize:   cfg.PoolSize,
		ClientName: clientName,
	}
}

func NewRedis(cfg *config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	opts := redisOptions(cfg)
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	logger.Info("Redis connected",
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB),
		zap.Int("pool_size", opts.PoolSize),
	)

	return &Redis{
		client: client,
		logger: logger,
	}, nil
}

func (r *Redis) Close() error {
	r.logger.Info("Closing Redis connection")
	return r.client.Close()
}

// Health пингует Redis и предупреждает о тайм-аутах пула
func (r *Redis) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return err
	}
	if stats := r.client.PoolStats(); stats.Timeouts > 0 {
		r.logger.Warn("Redis pool timeouts",
			zap.Uint32("timeouts", stats.Timeouts),
			zap.Uint32("total_conns", stats.TotalConns))
	}
	return nil
}

// Client возвращает клиент для репозиториев стримов
func (r *Redis) Client() *redis.Client {
	return r.client
}

// NewRedisFromClient оборачивает уже созданный клиент (используется в тестах)
func NewRedisFromClient(client *redis.Client, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, logger: logger}
}
