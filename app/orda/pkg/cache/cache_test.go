package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iWorld-y/orda/app/orda/pkg/config"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

func sampleEntry() *Entry {
	return &Entry{
		RunID: "run-1",
		Issues: []model.EnrichedIssue{{
			ScoredIssue: model.ScoredIssue{Issue: model.Issue{Number: 1, Title: "금리 인상"}, Rank: 1},
			Analysis:    model.Analysis{Confidence: 6.5},
		}},
		UpdatedAt: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	m := NewMemory(time.Hour)
	m.now = func() time.Time { return now }

	if _, ok, _ := m.Latest(ctx); ok {
		t.Fatal("empty cache should miss")
	}
	if err := m.Put(ctx, sampleEntry()); err != nil {
		t.Fatal(err)
	}
	e, ok, err := m.Latest(ctx)
	if err != nil || !ok || e.RunID != "run-1" || len(e.Issues) != 1 {
		t.Fatalf("Latest() = %+v, %v, %v", e, ok, err)
	}

	now = now.Add(2 * time.Hour)
	if _, ok, _ := m.Latest(ctx); ok {
		t.Error("expired entry should miss")
	}
}

func TestMemoryInvalidate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	_ = m.Put(ctx, sampleEntry())
	_ = m.Invalidate(ctx)
	if _, ok, _ := m.Latest(ctx); ok {
		t.Error("invalidated cache should miss")
	}
}

// 需要本地 Redis，不可用时跳过
func TestRedisRoundTrip(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}
	defer client.Close()

	r := NewRedis(client, time.Minute)
	r.key = "orda-test-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	ctx = context.Background()
	defer r.Invalidate(ctx)

	if _, ok, err := r.Latest(ctx); ok || err != nil {
		t.Fatalf("miss expected, got ok=%v err=%v", ok, err)
	}
	if err := r.Put(ctx, sampleEntry()); err != nil {
		t.Fatal(err)
	}
	e, ok, err := r.Latest(ctx)
	if err != nil || !ok {
		t.Fatalf("Latest() ok=%v err=%v", ok, err)
	}
	if e.Issues[0].Title != "금리 인상" || !e.UpdatedAt.Equal(sampleEntry().UpdatedAt) {
		t.Errorf("entry = %+v", e)
	}
}

func TestNewFromConfig(t *testing.T) {
	store, cleanup, err := New(config.CacheConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if _, ok := store.(*Memory); !ok {
		t.Errorf("default provider = %T, want *Memory", store)
	}

	store, cleanup, err = New(config.CacheConfig{Provider: "redis", Addr: "127.0.0.1:6379", TTL: "10m"})
	if err != nil {
		t.Fatal(err)
	}
	cleanup()
	if _, ok := store.(*Redis); !ok {
		t.Errorf("redis provider = %T, want *Redis", store)
	}

	for _, cfg := range []config.CacheConfig{
		{Provider: "redis"},
		{Provider: "memcached"},
		{TTL: "later"},
	} {
		if _, _, err := New(cfg); err == nil {
			t.Errorf("New(%+v) succeeded, want error", cfg)
		}
	}
}
