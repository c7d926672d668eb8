// Package cache 保存最近一次流水线产出的议题，供新闻接口优先读取。
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iWorld-y/orda/app/orda/pkg/config"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

// Entry 缓存内容
type Entry struct {
	RunID     string                `json:"run_id"`
	Issues    []model.EnrichedIssue `json:"issues"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// IssueStore 最新议题缓存，由流水线写入、新闻接口读取
type IssueStore interface {
	// Latest 返回缓存内容，未命中或已过期时 ok 为 false
	Latest(ctx context.Context) (e *Entry, ok bool, err error)
	Put(ctx context.Context, e *Entry) error
	Invalidate(ctx context.Context) error
	Ping(ctx context.Context) error
}

// New 根据配置创建缓存，provider 为 redis 时连接 Redis
func New(cfg config.CacheConfig) (IssueStore, func(), error) {
	ttl := config.Duration(cfg.TTL, time.Hour)
	if cfg.TTL != "" && config.Duration(cfg.TTL, 0) == 0 {
		return nil, nil, fmt.Errorf("invalid cache ttl: %s", cfg.TTL)
	}
	switch cfg.Provider {
	case "memory", "":
		return NewMemory(ttl), func() {}, nil
	case "redis":
		if cfg.Addr == "" {
			return nil, nil, fmt.Errorf("redis cache requires an address")
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		return NewRedis(rdb, ttl), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache provider: %s", cfg.Provider)
	}
}
