package tokenstore

import (
	"context"
	"fmt"
	"time"

	"FreshCart/config"

	"github.com/redis/go-redis/v9"
)

// sessionTTL Redis 中会话数据的过期时间
const sessionTTL = 30 * 24 * time.Hour

type RedisBackend struct {
	Client *redis.Client
}

// NewRedisBackend 初始化并返回一个新的 RedisBackend 实例
func NewRedisBackend(cfg *config.RedisConfig) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// PING 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("redis client connection test failed: %w", err)
	}

	return &RedisBackend{Client: client}, nil
}

func (r *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *RedisBackend) Set(ctx context.Context, key, value string) error {
	return r.Client.Set(ctx, key, value, sessionTTL).Err()
}

func (r *RedisBackend) Del(ctx context.Context, keys ...string) error {
	return r.Client.Del(ctx, keys...).Err()
}

// Close 关闭 Redis 连接
func (r *RedisBackend) Close() error {
	return r.Client.Close()
}
