package cache

import (
	"context"
	"sync"
	"time"
)

// Memory 进程内缓存
type Memory struct {
	mu      sync.RWMutex
	entry   *Entry
	expires time.Time
	ttl     time.Duration
	now     func() time.Time
}

var _ IssueStore = (*Memory)(nil)

// NewMemory 创建内存缓存，ttl <= 0 表示永不过期
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now}
}

func (m *Memory) Latest(context.Context) (*Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.entry == nil {
		return nil, false, nil
	}
	if m.ttl > 0 && m.now().After(m.expires) {
		return nil, false, nil
	}
	cp := *m.entry
	return &cp, true, nil
}

func (m *Memory) Put(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entry = &cp
	m.expires = m.now().Add(m.ttl)
	return nil
}

func (m *Memory) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = nil
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }
