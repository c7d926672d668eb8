package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKey 缓存键
const DefaultKey = "orda:news:latest"

// Redis 基于 Redis 的缓存，多实例部署时共享
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

var _ IssueStore = (*Redis)(nil)

// NewRedis 创建 Redis 缓存，ttl <= 0 表示永不过期
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, key: DefaultKey, ttl: ttl}
}

func (r *Redis) Latest(ctx context.Context) (*Entry, bool, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("decode cache entry: %w", err)
	}
	return &e, true, nil
}

func (r *Redis) Put(ctx context.Context, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.key, data, ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
