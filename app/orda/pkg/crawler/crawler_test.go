package crawler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iWorld-y/orda/app/orda/pkg/model"
	"github.com/iWorld-y/orda/app/orda/pkg/retry"
)

// fakeSession 按类别和序号返回预设结果，failures 记录某议题还需失败的次数
type fakeSession struct {
	badCategory string
	failures    map[string]int
	dismissed   int
	closed      bool
}

func (f *fakeSession) SelectCategory(_ context.Context, category string) error {
	if category == f.badCategory {
		return errors.New("category not found")
	}
	return nil
}

func (f *fakeSession) ReadIssue(_ context.Context, slide int) (string, string, error) {
	return "", "", errors.New("unset")
}

func (f *fakeSession) Dismiss(context.Context) { f.dismissed++ }

func (f *fakeSession) Close() { f.closed = true }

type scriptedSession struct {
	fakeSession
	category string
	read     func(category string, slide int) (string, string, error)
}

func (s *scriptedSession) SelectCategory(ctx context.Context, category string) error {
	if err := s.fakeSession.SelectCategory(ctx, category); err != nil {
		return err
	}
	s.category = category
	return nil
}

func (s *scriptedSession) ReadIssue(_ context.Context, slide int) (string, string, error) {
	return s.read(s.category, slide)
}

func newTestCrawler(s session, categories []string, perCategory int) *BigKinds {
	b := NewBigKinds(Options{Categories: categories, IssuesPerCategory: perCategory})
	b.newSession = func(context.Context) (session, error) { return s, nil }
	b.backoff = retry.Constant(0)
	fixed := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }
	return b
}

func TestBigKindsNumbersAcrossCategories(t *testing.T) {
	attempts := map[string]int{}
	s := &scriptedSession{
		fakeSession: fakeSession{badCategory: "문화"},
		read: func(category string, slide int) (string, string, error) {
			key := fmt.Sprintf("%s/%d", category, slide)
			attempts[key]++
			// 경제 第 2 条前两次失败，第三次成功
			if key == "경제/2" && attempts[key] < 3 {
				return "", "", errors.New("timeout")
			}
			return fmt.Sprintf("%s 제목 %d", category, slide), " 내용 ", nil
		},
	}
	b := newTestCrawler(s, []string{"정치", "문화", "경제"}, 2)

	issues, err := b.Crawl(context.Background())
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if len(issues) != 4 {
		t.Fatalf("len = %d, want 4", len(issues))
	}
	want := []struct {
		num int
		key string
	}{{1, "정치_1"}, {2, "정치_2"}, {3, "경제_3"}, {4, "경제_4"}}
	for i, w := range want {
		if issues[i].Number != w.num || issues[i].Key != w.key {
			t.Errorf("issues[%d] = %d/%s, want %d/%s", i, issues[i].Number, issues[i].Key, w.num, w.key)
		}
	}
	if issues[3].Title != "경제 제목 2" || issues[3].Content != "내용" {
		t.Errorf("issues[3] = %+v", issues[3])
	}
	if attempts["경제/2"] != 3 {
		t.Errorf("attempts = %d, want 3", attempts["경제/2"])
	}
	if !s.closed {
		t.Error("session should be closed")
	}
}

func TestBigKindsAbortsCategoryAfterConsecutiveFailures(t *testing.T) {
	calls := map[int]int{}
	s := &scriptedSession{read: func(_ string, slide int) (string, string, error) {
		calls[slide]++
		if slide == 1 {
			return "첫 이슈", "", nil
		}
		return "", "", errors.New("no element")
	}}
	b := newTestCrawler(s, []string{"사회"}, 10)

	issues, err := b.Crawl(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 1 {
		t.Errorf("len = %d, want 1", len(issues))
	}
	// 第 2、3、4 条各重试 3 次后放弃类别
	if calls[4] != 3 || calls[5] != 0 {
		t.Errorf("calls = %v", calls)
	}
}

type countingCrawler struct {
	results [][]model.Issue
	errs    []error
	calls   int
}

func (c *countingCrawler) Crawl(context.Context) ([]model.Issue, error) {
	i := c.calls
	c.calls++
	var err error
	if i < len(c.errs) {
		err = c.errs[i]
	}
	var res []model.Issue
	if i < len(c.results) {
		res = c.results[i]
	}
	return res, err
}

func TestStableRetriesEmptyAndFailed(t *testing.T) {
	inner := &countingCrawler{
		errs:    []error{errors.New("chrome crashed"), nil, nil},
		results: [][]model.Issue{nil, {}, {{Title: "ok"}}},
	}
	s := NewStable(inner, 3, 0)
	issues, err := s.Crawl(context.Background())
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if len(issues) != 1 || inner.calls != 3 {
		t.Errorf("issues = %d, calls = %d", len(issues), inner.calls)
	}
}

func TestStableGivesUp(t *testing.T) {
	inner := &countingCrawler{}
	s := NewStable(inner, 2, 0)
	if _, err := s.Crawl(context.Background()); !errors.Is(err, ErrNoIssues) {
		t.Errorf("err = %v, want ErrNoIssues", err)
	}
	if inner.calls != 2 {
		t.Errorf("calls = %d", inner.calls)
	}
}

func TestFileCrawler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issues.json")
	data := `[{"카테고리":"경제","제목":"금리 인상","내용":"기준금리 0.25%p 인상"}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	issues, err := File{Path: path}.Crawl(context.Background())
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if len(issues) != 1 || issues[0].Number != 1 || issues[0].Key != "경제_1" || issues[0].CrawledAt.IsZero() {
		t.Errorf("issues = %+v", issues)
	}
}
