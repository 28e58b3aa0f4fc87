package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kosench/linkpulse/internal/config"
)

// Проверяем, что клиенты реализуют интерфейсы
var (
	_ RateLimiter   = (*RedisClient)(nil)
	_ HealthChecker = (*RedisClient)(nil)
	_ RateLimiter   = (*MemoryLimiter)(nil)
)

// RedisClient - общий счетчик лимитов для нескольких инстансов сервиса
type RedisClient struct {
	client     *redis.Client
	keyBuilder *KeyBuilder
}

// NewRedisClient создает клиент и сразу проверяет подключение
func NewRedisClient(cfg config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, NewCacheError("connect", "", fmt.Errorf("%w: %v", ErrCacheConnectionFailed, err))
	}

	return &RedisClient{
		client:     client,
		keyBuilder: NewKeyBuilder(cfg.Namespace),
	}, nil
}

// IncrementRateLimit увеличивает счетчик окна. TTL ставится только
// на первом запросе окна, иначе окно сдвигалось бы при каждом вызове.
func (r *RedisClient) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if key == "" {
		return 0, NewCacheError("incr", key, ErrInvalidCacheKey)
	}

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, NewCacheError("incr", key, err)
	}

	return incr.Val(), nil
}

// HealthCheck проверяет соединение с Redis
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return NewCacheError("ping", "", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RedisClient) Close() error {
	if err := r.client.Close(); err != nil {
		return NewCacheError("close", "", err)
	}
	return nil
}

// GetKeyBuilder возвращает построитель ключей
func (r *RedisClient) GetKeyBuilder() *KeyBuilder {
	return r.keyBuilder
}
