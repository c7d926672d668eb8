package biz

import (
	"context"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/orda/app/orda/pkg/cache"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
	"github.com/iWorld-y/orda/app/orda/pkg/snapshot"
)

// mockNewsRepo 模拟新闻仓库
type mockNewsRepo struct {
	set   *IssueSet
	err   error
	run   *model.RunResult
	issue *model.EnrichedIssue
}

func (m *mockNewsRepo) LatestIssues(ctx context.Context) (*IssueSet, error) {
	return m.set, m.err
}

func (m *mockNewsRepo) GetIssue(ctx context.Context, id int64) (*model.EnrichedIssue, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.issue == nil || m.issue.ID != id {
		return nil, errors.NotFound("ISSUE_NOT_FOUND", "issue not found")
	}
	return m.issue, nil
}

func (m *mockNewsRepo) LatestRun(ctx context.Context) (*model.RunResult, error) {
	return m.run, m.err
}

// mockSnapshots 模拟快照存储
type mockSnapshots struct {
	s *snapshot.Snapshot
}

func (m *mockSnapshots) Save(ctx context.Context, s *snapshot.Snapshot) (string, error) {
	m.s = s
	return "mem", nil
}

func (m *mockSnapshots) Latest(ctx context.Context) (*snapshot.Snapshot, error) {
	if m.s == nil {
		return nil, snapshot.ErrNotFound
	}
	return m.s, nil
}

func issue(id int64, title string) model.EnrichedIssue {
	return model.EnrichedIssue{ID: id, ScoredIssue: model.ScoredIssue{Issue: model.Issue{Title: title}}}
}

func TestNewsUseCase_LatestFallbackChain(t *testing.T) {
	ctx := context.Background()
	logger := log.DefaultLogger

	t.Run("cache", func(t *testing.T) {
		c := cache.NewMemory(time.Hour)
		_ = c.Put(ctx, &cache.Entry{RunID: "r1", Issues: []model.EnrichedIssue{issue(1, "cached")}})
		uc := NewNewsUseCase(&mockNewsRepo{err: ErrDatabaseUnavailable}, c, &mockSnapshots{}, logger)
		if got := uc.Latest(ctx); got.Source != SourceCache || got.Issues[0].Title != "cached" {
			t.Errorf("Latest() = %+v", got)
		}
	})

	t.Run("database fills cache", func(t *testing.T) {
		c := cache.NewMemory(time.Hour)
		repo := &mockNewsRepo{set: &IssueSet{RunID: "r2", Issues: []model.EnrichedIssue{issue(2, "db")}, Source: SourceDatabase}}
		uc := NewNewsUseCase(repo, c, &mockSnapshots{}, logger)
		if got := uc.Latest(ctx); got.Source != SourceDatabase {
			t.Errorf("Latest() source = %s, want database", got.Source)
		}
		if e, ok, _ := c.Latest(ctx); !ok || e.RunID != "r2" {
			t.Error("database result should populate the cache")
		}
	})

	t.Run("snapshot", func(t *testing.T) {
		run := &model.RunResult{ID: "r3", StartedAt: time.Now(), Issues: []model.EnrichedIssue{issue(0, "file")}}
		snaps := &mockSnapshots{s: snapshot.Build(run, snapshot.Meta{}, time.Now())}
		uc := NewNewsUseCase(&mockNewsRepo{err: ErrDatabaseUnavailable}, cache.NewMemory(time.Hour), snaps, logger)
		if got := uc.Latest(ctx); got.Source != SourceSnapshot || got.RunID != "r3" || len(got.Issues) != 1 {
			t.Errorf("Latest() = %+v", got)
		}
	})

	t.Run("none", func(t *testing.T) {
		uc := NewNewsUseCase(&mockNewsRepo{}, cache.NewMemory(time.Hour), &mockSnapshots{}, logger)
		got := uc.Latest(ctx)
		if got.Source != SourceNone || got.Issues == nil || len(got.Issues) != 0 {
			t.Errorf("Latest() = %+v", got)
		}
	})
}

func TestNewsUseCase_Issue(t *testing.T) {
	ctx := context.Background()
	is := issue(7, "found")

	uc := NewNewsUseCase(&mockNewsRepo{issue: &is}, cache.NewMemory(time.Hour), nil, log.DefaultLogger)
	if got, err := uc.Issue(ctx, 7); err != nil || got.Title != "found" {
		t.Errorf("Issue(7) = %+v, %v", got, err)
	}
	if _, err := uc.Issue(ctx, 8); !errors.IsNotFound(err) {
		t.Errorf("Issue(8) err = %v, want not found", err)
	}

	c := cache.NewMemory(time.Hour)
	_ = c.Put(ctx, &cache.Entry{Issues: []model.EnrichedIssue{is}})
	uc = NewNewsUseCase(&mockNewsRepo{err: ErrDatabaseUnavailable}, c, nil, log.DefaultLogger)
	if got, err := uc.Issue(ctx, 7); err != nil || got.ID != 7 {
		t.Errorf("Issue from cache = %+v, %v", got, err)
	}
}

func TestNewsUseCase_PipelineStatus(t *testing.T) {
	uc := NewNewsUseCase(&mockNewsRepo{err: ErrDatabaseUnavailable}, cache.NewMemory(time.Hour), nil, log.DefaultLogger)
	run, err := uc.PipelineStatus(context.Background())
	if err != nil || run != nil {
		t.Errorf("PipelineStatus() = %+v, %v", run, err)
	}
}
