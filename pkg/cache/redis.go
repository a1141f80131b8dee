// Пакет cache хранит сериализованные отправки и отчёты в Redis
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss возвращается, когда ключ отсутствует в Redis
var ErrCacheMiss = errors.New("cache miss")

// RedisClient оборачивает *redis.Client; все ключи получают префикс prefix
type RedisClient struct {
	client *redis.Client
	prefix string
}

// NewRedisClient подключается к Redis с опциями opts
func NewRedisClient(opts *redis.Options, prefix string) *RedisClient {
	return &RedisClient{client: redis.NewClient(opts), prefix: prefix}
}

func (r *RedisClient) key(k string) string {
	return r.prefix + k
}

// Set сохраняет value под ключом key на время expiration
func (r *RedisClient) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return r.client.Set(ctx, r.key(key), value, expiration).Err()
}

// Get возвращает значение по ключу или ErrCacheMiss, если его нет
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Invalidate удаляет ключ после изменения записи
func (r *RedisClient) Invalidate(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Ping проверяет доступность Redis для /readyz
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close закрывает пул соединений
func (r *RedisClient) Close() error {
	return r.client.Close()
}
