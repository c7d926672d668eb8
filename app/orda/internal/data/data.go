package data

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/iWorld-y/orda/app/orda/internal/biz"
	"github.com/iWorld-y/orda/app/orda/internal/conf"
	"github.com/iWorld-y/orda/app/orda/pkg/cache"
	"github.com/iWorld-y/orda/app/orda/pkg/config"
	"github.com/iWorld-y/orda/app/orda/pkg/snapshot"
	"github.com/iWorld-y/orda/app/orda/pkg/storage"
)

const defaultCacheTTL = "1h"

// Data 数据层资源，未配置数据库时 store 为 nil
type Data struct {
	store *storage.Storage
}

// NewData 连接数据库并初始化表结构
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(logger)
	if c == nil || c.Database == nil || c.Database.Source == "" {
		helper.Warn("database is not configured, falling back to cache and snapshots")
		return &Data{}, func() {}, nil
	}
	if c.Database.Driver != "" && c.Database.Driver != "postgres" {
		return nil, nil, fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	store, err := storage.Open(c.Database.Source)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		helper.Info("closing the data resources")
		store.Close()
	}
	return &Data{store: store}, cleanup, nil
}

// Storage 底层存储，可能为 nil
func (d *Data) Storage() *storage.Storage {
	return d.store
}

// Ping 检查数据库连接
func (d *Data) Ping(ctx context.Context) error {
	if d.store == nil {
		return biz.ErrDatabaseUnavailable
	}
	return d.store.Ping(ctx)
}

// NewIssueStore 配置了 Redis 时使用 Redis，否则使用进程内缓存
func NewIssueStore(c *conf.Data, logger log.Logger) (cache.IssueStore, func(), error) {
	ttl := defaultCacheTTL
	if c != nil && c.Redis != nil && c.Redis.Ttl != "" {
		ttl = c.Redis.Ttl
	}
	d := config.Duration(ttl, 0)
	if d == 0 {
		return nil, nil, fmt.Errorf("invalid cache ttl: %s", ttl)
	}

	if c == nil || c.Redis == nil || c.Redis.Addr == "" {
		return cache.NewMemory(d), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       int(c.Redis.Db),
	})
	cleanup := func() {
		log.NewHelper(logger).Info("closing the redis client")
		_ = rdb.Close()
	}
	return cache.NewRedis(rdb, d), cleanup, nil
}

// NewSnapshotStore 创建快照存储
func NewSnapshotStore(c *conf.Data) (snapshot.Store, error) {
	cfg := config.SnapshotConfig{Provider: "dir", Dir: "data/snapshots"}
	if c != nil && c.Snapshot != nil {
		s := c.Snapshot
		cfg = config.SnapshotConfig{
			Provider:  s.Provider,
			Dir:       s.Dir,
			Bucket:    s.Bucket,
			Prefix:    s.Prefix,
			Region:    s.Region,
			Endpoint:  s.Endpoint,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
		}
		if cfg.Dir == "" {
			cfg.Dir = "data/snapshots"
		}
	}
	return snapshot.New(context.Background(), cfg)
}
