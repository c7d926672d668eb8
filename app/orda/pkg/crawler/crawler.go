// Package crawler 采集 BigKinds 首页的热点议题。
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/iWorld-y/orda/app/orda/pkg/logger"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
	"github.com/iWorld-y/orda/app/orda/pkg/retry"
)

// ErrNoIssues 一次爬取没有得到任何议题
var ErrNoIssues = errors.New("crawler: no issues collected")

// Crawler 议题爬虫
type Crawler interface {
	Crawl(ctx context.Context) ([]model.Issue, error)
}

// Stable 在整体失败或结果为空时重试的包装器
type Stable struct {
	inner  Crawler
	policy retry.Policy
}

// NewStable 包装 inner，第 n 次失败后等待 delay*n
func NewStable(inner Crawler, attempts int, delay time.Duration) *Stable {
	if attempts <= 0 {
		attempts = 3
	}
	return &Stable{
		inner: inner,
		policy: retry.Policy{
			MaxAttempts: attempts,
			Backoff:     retry.Linear(delay),
		},
	}
}

// Crawl 执行爬取
func (s *Stable) Crawl(ctx context.Context) ([]model.Issue, error) {
	attempt := 0
	return retry.Value(ctx, s.policy, func(ctx context.Context) ([]model.Issue, error) {
		attempt++
		logger.Log.Infof("爬取尝试 %d/%d", attempt, s.policy.MaxAttempts)
		issues, err := s.inner.Crawl(ctx)
		if err != nil {
			logger.Log.Errorf("爬取失败 (尝试 %d): %v", attempt, err)
			return nil, err
		}
		if len(issues) == 0 {
			logger.Log.Warnf("爬取完成但没有议题 (尝试 %d)", attempt)
			return nil, ErrNoIssues
		}
		logger.Log.Infof("爬取成功 (尝试 %d): %d 条议题", attempt, len(issues))
		return issues, nil
	})
}

// File 从 JSON 文件读取议题，用于离线运行
type File struct {
	Path string
}

// Crawl 读取文件
func (f File) Crawl(context.Context) ([]model.Issue, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var issues []model.Issue
	if err := json.Unmarshal(data, &issues); err != nil {
		return nil, fmt.Errorf("parse issues file: %w", err)
	}
	for i := range issues {
		if issues[i].Number == 0 {
			issues[i].Number = i + 1
		}
		if issues[i].Key == "" {
			issues[i].Key = fmt.Sprintf("%s_%d", issues[i].Category, issues[i].Number)
		}
		if issues[i].CrawledAt.IsZero() {
			issues[i].CrawledAt = time.Now()
		}
	}
	return issues, nil
}
