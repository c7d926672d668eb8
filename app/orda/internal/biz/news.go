package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/orda/app/orda/pkg/cache"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
	"github.com/iWorld-y/orda/app/orda/pkg/snapshot"
)

// 最新议题的数据来源
const (
	SourceCache    = "cache"
	SourceDatabase = "database"
	SourceSnapshot = "snapshot"
	SourceNone     = "none"
)

// IssueSet 一次运行产出的议题
type IssueSet struct {
	RunID     string
	Issues    []model.EnrichedIssue
	UpdatedAt time.Time
	Source    string
}

// NewsRepo 新闻仓库接口
type NewsRepo interface {
	// LatestIssues 最近一次成功运行的议题，没有时返回 nil
	LatestIssues(ctx context.Context) (*IssueSet, error)
	GetIssue(ctx context.Context, id int64) (*model.EnrichedIssue, error)
	// LatestRun 最近一次运行，没有时返回 nil
	LatestRun(ctx context.Context) (*model.RunResult, error)
}

// NewsUseCase 新闻业务逻辑
type NewsUseCase struct {
	repo      NewsRepo
	cache     cache.IssueStore
	snapshots snapshot.Store
	log       *log.Helper
}

// NewNewsUseCase 创建新闻业务逻辑实例
func NewNewsUseCase(repo NewsRepo, issues cache.IssueStore, snaps snapshot.Store, logger log.Logger) *NewsUseCase {
	return &NewsUseCase{repo: repo, cache: issues, snapshots: snaps, log: log.NewHelper(logger)}
}

// Latest 依次尝试缓存、数据库、快照，都没有时返回空集合
func (uc *NewsUseCase) Latest(ctx context.Context) *IssueSet {
	if e, ok, err := uc.cache.Latest(ctx); err != nil {
		uc.log.Warnf("read cache failed: %v", err)
	} else if ok && len(e.Issues) > 0 {
		return &IssueSet{RunID: e.RunID, Issues: e.Issues, UpdatedAt: e.UpdatedAt, Source: SourceCache}
	}

	set, err := uc.repo.LatestIssues(ctx)
	if err != nil {
		uc.log.Warnf("read latest issues from database failed: %v", err)
	} else if set != nil && len(set.Issues) > 0 {
		uc.fillCache(ctx, set)
		return set
	}

	if uc.snapshots != nil {
		s, err := uc.snapshots.Latest(ctx)
		switch {
		case errors.Is(err, snapshot.ErrNotFound):
		case err != nil:
			uc.log.Warnf("read latest snapshot failed: %v", err)
		case len(s.SelectedIssues()) > 0:
			updated := s.FileInfo.CreatedAt
			if s.CompletedAt != nil {
				updated = *s.CompletedAt
			}
			set := &IssueSet{RunID: s.ID, Issues: s.SelectedIssues(), UpdatedAt: updated, Source: SourceSnapshot}
			uc.fillCache(ctx, set)
			return set
		}
	}

	return &IssueSet{Issues: []model.EnrichedIssue{}, Source: SourceNone}
}

func (uc *NewsUseCase) fillCache(ctx context.Context, set *IssueSet) {
	err := uc.cache.Put(ctx, &cache.Entry{RunID: set.RunID, Issues: set.Issues, UpdatedAt: set.UpdatedAt})
	if err != nil {
		uc.log.Warnf("write cache failed: %v", err)
	}
}

// Issue 按 ID 获取议题，数据库不可用时在缓存中查找
func (uc *NewsUseCase) Issue(ctx context.Context, id int64) (*model.EnrichedIssue, error) {
	is, err := uc.repo.GetIssue(ctx, id)
	if err == nil || !errors.Is(err, ErrDatabaseUnavailable) {
		return is, err
	}
	if e, ok, cerr := uc.cache.Latest(ctx); cerr == nil && ok {
		for i := range e.Issues {
			if e.Issues[i].ID == id {
				return &e.Issues[i], nil
			}
		}
	}
	return nil, errors.NotFound("ISSUE_NOT_FOUND", "issue not found")
}

// PipelineStatus 最近一次运行，没有时返回 nil
func (uc *NewsUseCase) PipelineStatus(ctx context.Context) (*model.RunResult, error) {
	run, err := uc.repo.LatestRun(ctx)
	if errors.Is(err, ErrDatabaseUnavailable) {
		return nil, nil
	}
	return run, err
}
