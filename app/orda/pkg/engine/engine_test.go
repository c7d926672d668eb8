package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/iWorld-y/orda/app/orda/pkg/cache"
	"github.com/iWorld-y/orda/app/orda/pkg/filter"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
	"github.com/iWorld-y/orda/app/orda/pkg/snapshot"
)

type fakeCrawler struct {
	issues []model.Issue
	err    error
}

func (f *fakeCrawler) Crawl(context.Context) ([]model.Issue, error) { return f.issues, f.err }

type fakeSelector struct {
	take int
}

func (f *fakeSelector) Select(_ context.Context, issues []model.Issue) filter.Result {
	var out []model.ScoredIssue
	for i, is := range issues {
		if i >= f.take {
			break
		}
		out = append(out, model.ScoredIssue{Issue: is, RelevanceScore: 8, Rank: i + 1})
	}
	return filter.Result{Selected: out, Method: filter.MethodNoLLM}
}

type fakeAnalyzer struct {
	confidences []float64
	block       chan struct{}
}

func (f *fakeAnalyzer) AnalyzeAll(_ context.Context, issues []model.ScoredIssue, progress func(done, total int)) []model.EnrichedIssue {
	if f.block != nil {
		<-f.block
	}
	out := make([]model.EnrichedIssue, len(issues))
	for i, is := range issues {
		out[i] = model.EnrichedIssue{ScoredIssue: is, Analysis: model.Analysis{Confidence: f.confidences[i%len(f.confidences)]}}
		progress(i+1, len(issues))
	}
	return out
}

type fakeStore struct {
	mu       sync.Mutex
	created  []string
	finished []*model.RunResult
	saved    int
	saveErr  error
}

func (f *fakeStore) CreateRun(_ context.Context, run *model.RunResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, run.ID)
	return nil
}

func (f *fakeStore) FinishRun(_ context.Context, run *model.RunResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *run
	f.finished = append(f.finished, &cp)
	return nil
}

func (f *fakeStore) SaveIssues(_ context.Context, _ string, issues []model.EnrichedIssue) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	for i := range issues {
		issues[i].ID = int64(i + 100)
	}
	f.saved += len(issues)
	return nil
}

type memSnapshots struct {
	saved []*snapshot.Snapshot
}

func (m *memSnapshots) Save(_ context.Context, s *snapshot.Snapshot) (string, error) {
	m.saved = append(m.saved, s)
	return "mem://" + s.FileInfo.FileName, nil
}

func (m *memSnapshots) Latest(context.Context) (*snapshot.Snapshot, error) {
	if len(m.saved) == 0 {
		return nil, snapshot.ErrNotFound
	}
	return m.saved[len(m.saved)-1], nil
}

func sampleIssues() []model.Issue {
	return []model.Issue{
		{Number: 1, Category: "경제", Title: "금리"},
		{Number: 2, Category: "경제", Title: "환율"},
		{Number: 3, Category: "국제", Title: "유가"},
	}
}

func newTestEngine(d Deps) *Engine {
	e := NewEngine(d)
	clock := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	e.newID = func() string { return "run-1" }
	return e
}

func TestRunSuccess(t *testing.T) {
	store := &fakeStore{}
	issues := cache.NewMemory(time.Hour)
	snaps := &memSnapshots{}
	e := newTestEngine(Deps{
		Crawler:   &fakeCrawler{issues: sampleIssues()},
		Filter:    &fakeSelector{take: 2},
		Analyzer:  &fakeAnalyzer{confidences: []float64{6.0, 7.25}},
		Store:     store,
		Cache:     issues,
		Snapshots: snaps,
	})

	var progress []int
	run, err := e.Run(context.Background(), RunOptions{ProgressCallback: func(_ string, p int) {
		progress = append(progress, p)
	}})
	if err != nil {
		t.Fatal(err)
	}

	if run.Status != model.RunSuccess || run.TotalCrawled != 3 || run.FilteredCount != 2 || run.AnalyzedCount != 2 {
		t.Errorf("unexpected run: %+v", run)
	}
	if run.AverageConfidence != 6.63 {
		t.Errorf("AverageConfidence = %v, want 6.63", run.AverageConfidence)
	}
	if diff := cmp.Diff([]string{StepCrawlAndFilter, StepRAGAnalysis, StepAPIPreparation}, run.StepsCompleted); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"경제", "국제"}, run.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 10, 40, 60, 80, 80, 90, 100}, progress); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}

	if len(store.created) != 1 || len(store.finished) != 1 || store.finished[0].Status != model.RunSuccess {
		t.Errorf("store not updated: %+v", store)
	}
	if run.Issues[0].ID != 100 {
		t.Errorf("issue IDs not filled: %d", run.Issues[0].ID)
	}

	entry, ok, err := issues.Latest(context.Background())
	if err != nil || !ok || entry.RunID != "run-1" || len(entry.Issues) != 2 {
		t.Errorf("cache not populated: %+v %v %v", entry, ok, err)
	}
	if len(snaps.saved) != 1 || snaps.saved[0].APIReadyData.Data.SelectedCount != 2 {
		t.Errorf("snapshot not saved: %+v", snaps.saved)
	}
}

func TestRunNoFilteredIssues(t *testing.T) {
	store := &fakeStore{}
	snaps := &memSnapshots{}
	e := newTestEngine(Deps{
		Crawler:   &fakeCrawler{issues: sampleIssues()},
		Filter:    &fakeSelector{take: 0},
		Analyzer:  &fakeAnalyzer{confidences: []float64{1}},
		Store:     store,
		Snapshots: snaps,
	})

	run, err := e.Run(context.Background(), RunOptions{})
	if !errors.Is(err, ErrNoFilteredIssues) {
		t.Fatalf("err = %v, want ErrNoFilteredIssues", err)
	}
	if run.Status != model.RunFailed || len(run.Errors) != 1 || run.CompletedAt == nil {
		t.Errorf("unexpected run: %+v", run)
	}
	if len(store.finished) != 1 || store.finished[0].Status != model.RunFailed {
		t.Error("failed run should be recorded")
	}
	if len(snaps.saved) != 0 {
		t.Error("failed run should not be snapshotted")
	}
	if e.Busy() {
		t.Error("engine should be idle after failure")
	}
}

func TestRunCrawlError(t *testing.T) {
	e := newTestEngine(Deps{
		Crawler:  &fakeCrawler{err: errors.New("browser crashed")},
		Filter:   &fakeSelector{take: 5},
		Analyzer: &fakeAnalyzer{confidences: []float64{1}},
	})
	run, err := e.Run(context.Background(), RunOptions{})
	if err == nil || run.Status != model.RunFailed {
		t.Fatalf("expected failed run, got %v / %+v", err, run)
	}
}

func TestRunSaveIssuesErrorIsRecorded(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("db down")}
	e := newTestEngine(Deps{
		Crawler:  &fakeCrawler{issues: sampleIssues()},
		Filter:   &fakeSelector{take: 1},
		Analyzer: &fakeAnalyzer{confidences: []float64{5}},
		Store:    store,
	})
	run, err := e.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != model.RunSuccess || len(run.Errors) != 1 {
		t.Errorf("unexpected run: %+v", run)
	}
}

func TestRunInProgress(t *testing.T) {
	block := make(chan struct{})
	e := newTestEngine(Deps{
		Crawler:  &fakeCrawler{issues: sampleIssues()},
		Filter:   &fakeSelector{take: 1},
		Analyzer: &fakeAnalyzer{confidences: []float64{5}, block: block},
	})

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := e.Run(context.Background(), RunOptions{ProgressCallback: func(_ string, p int) {
			if p == 40 {
				close(started)
			}
		}})
		done <- err
	}()

	<-started
	if !e.Busy() {
		t.Error("engine should be busy")
	}
	if _, err := e.Run(context.Background(), RunOptions{}); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("err = %v, want ErrRunInProgress", err)
	}
	close(block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if e.Busy() {
		t.Error("engine should be idle")
	}
}
