package biz

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/orda/app/orda/pkg/catalog"
	"github.com/iWorld-y/orda/app/orda/pkg/engine"
	"github.com/iWorld-y/orda/app/orda/pkg/llm"
	"github.com/iWorld-y/orda/app/orda/pkg/market"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
	"github.com/iWorld-y/orda/app/orda/pkg/simulation"
	"github.com/iWorld-y/orda/app/orda/pkg/storage"
)

// mockRunner 模拟流水线
type mockRunner struct {
	mu      sync.Mutex
	busy    bool
	calls   int
	release chan struct{}
}

func (m *mockRunner) Run(ctx context.Context, opts engine.RunOptions) (*model.RunResult, error) {
	m.mu.Lock()
	m.calls++
	m.busy = true
	m.mu.Unlock()
	opts.ProgressCallback("starting", 0)
	if m.release != nil {
		<-m.release
	}
	opts.ProgressCallback("completed", 100)
	m.mu.Lock()
	m.busy = false
	m.mu.Unlock()
	return &model.RunResult{ID: "run"}, nil
}

func (m *mockRunner) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (p *recordingPublisher) Publish(ev ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func TestPipelineUseCase_Refresh(t *testing.T) {
	runner := &mockRunner{busy: true}
	pub := &recordingPublisher{}
	uc := NewPipelineUseCase(runner, pub, log.DefaultLogger)

	if err := uc.Refresh(context.Background()); !errors.Is(err, ErrPipelineRunning) {
		t.Fatalf("Refresh() while busy err = %v", err)
	}

	runner.busy = false
	if err := uc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	uc.Wait()
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, want 1", runner.calls)
	}
	if len(pub.events) != 2 || pub.events[1].Progress != 100 {
		t.Errorf("events = %+v", pub.events)
	}
}

type stubAnalyzer struct{ query string }

func (s *stubAnalyzer) Analyze(ctx context.Context, query string) model.Analysis {
	s.query = query
	return model.Analysis{Industries: []model.Candidate{{Name: "반도체"}}, PastIssues: []model.Candidate{}, Confidence: 5}
}

type stubExplainer struct{ err error }

func (s stubExplainer) Explain(ctx context.Context, news string, a model.Analysis) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "설명", nil
}

type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, url string) (*Article, error) {
	if url == "bad" {
		return nil, stderrors.New("timeout")
	}
	return &Article{URL: url, Title: "제목", Text: "본문"}, nil
}

func TestAnalysisUseCase_Analyze(t *testing.T) {
	ctx := context.Background()
	an := &stubAnalyzer{}
	uc := NewAnalysisUseCase(an, stubExplainer{}, stubFetcher{}, log.DefaultLogger)

	res, err := uc.Analyze(ctx, "  금리 인상  ", "")
	if err != nil {
		t.Fatal(err)
	}
	if an.query != "금리 인상" || res.Explanation != "설명" || res.Confidence != 5 {
		t.Errorf("Analyze() = %+v (query %q)", res, an.query)
	}

	res, err = uc.Analyze(ctx, "", "https://example.com/a")
	if err != nil || res.Title != "제목" || an.query != "제목\n본문" {
		t.Errorf("Analyze(url) = %+v, %v (query %q)", res, err, an.query)
	}

	if _, err := uc.Analyze(ctx, "", ""); !errors.IsBadRequest(err) {
		t.Errorf("empty input err = %v", err)
	}
	if _, err := uc.Analyze(ctx, "", "bad"); !errors.IsBadRequest(err) {
		t.Errorf("fetch failure err = %v", err)
	}

	uc = NewAnalysisUseCase(an, stubExplainer{err: llm.ErrNoModel}, stubFetcher{}, log.DefaultLogger)
	res, err = uc.Analyze(ctx, "text", "")
	if err != nil || res.Explanation != "" {
		t.Errorf("without model = %+v, %v", res, err)
	}
}

type flatProvider struct{}

func (flatProvider) DailyCloses(ctx context.Context, tickers []string, start, end time.Time) (map[string]market.Series, error) {
	out := make(map[string]market.Series)
	for _, t := range tickers {
		out[t] = market.Series{
			{Date: market.Day(start.AddDate(0, 0, 5)), Close: 100},
			{Date: market.Day(end.AddDate(0, 0, -5)), Close: 110},
		}
	}
	return out, nil
}

type mockSimulationRepo struct {
	saved []storage.SimulationRecord
	err   error
}

func (m *mockSimulationRepo) SaveSimulation(ctx context.Context, rec storage.SimulationRecord) error {
	m.saved = append(m.saved, rec)
	return m.err
}

func TestSimulationUseCase_Run(t *testing.T) {
	ctx := context.Background()
	repo := &mockSimulationRepo{err: stderrors.New("db down")}
	uc := NewSimulationUseCase(simulation.New(nil, flatProvider{}, nil), repo, log.DefaultLogger)

	_, err := uc.Run(ctx, simulation.Request{ScenarioID: "PN_006", Amount: 1})
	if !errors.IsBadRequest(err) {
		t.Fatalf("invalid request err = %v", err)
	}
	if errors.FromError(err).Metadata["errors"] == "" {
		t.Error("validation detail missing from metadata")
	}

	res, err := uc.Run(ctx, simulation.Request{
		ScenarioID: "PN_006", Amount: 1_000_000, Period: 3,
		Stocks: []simulation.Selection{{Code: "005930", Name: "삼성전자", Allocation: 100}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Results.TotalReturnPct != 10 || len(repo.saved) != 1 {
		t.Errorf("Run() = %+v, saved %d", res.Results, len(repo.saved))
	}

	if _, err := uc.Recommended("PN_999"); !errors.IsNotFound(err) {
		t.Errorf("Recommended err = %v", err)
	}
}

type mockCatalogRepo struct {
	limit int
}

func (m *mockCatalogRepo) ListIndustries(ctx context.Context, search string, limit int) ([]*Industry, error) {
	m.limit = limit
	return []*Industry{{KrxName: "반도체"}}, nil
}

func (m *mockCatalogRepo) ListPastIssues(ctx context.Context, search, industry string, limit int) ([]*PastIssue, error) {
	m.limit = limit
	return nil, nil
}

func (m *mockCatalogRepo) Stats(ctx context.Context) (*DatabaseStats, error) {
	return &DatabaseStats{}, nil
}

func (m *mockCatalogRepo) Import(ctx context.Context, industries, pastIssues []catalog.Entry) (int, int, error) {
	return len(industries), len(pastIssues), nil
}

func TestCatalogUseCase_Limits(t *testing.T) {
	repo := &mockCatalogRepo{}
	uc := NewCatalogUseCase(repo, log.DefaultLogger)
	for in, want := range map[int]int{0: 100, -1: 100, 50: 50, 5000: 1000} {
		if _, err := uc.Industries(context.Background(), "", in); err != nil {
			t.Fatal(err)
		}
		if repo.limit != want {
			t.Errorf("limit(%d) = %d, want %d", in, repo.limit, want)
		}
	}
	if _, err := uc.ImportFiles(context.Background(), "/nonexistent.csv", ""); err == nil {
		t.Error("expected open error")
	}
}

func TestHealthUseCase_Check(t *testing.T) {
	uc := NewHealthUseCase([]HealthCheck{
		{Name: "database", Check: func(context.Context) (any, error) { return nil, ErrDatabaseUnavailable }},
		{Name: "cache", Check: func(context.Context) (any, error) { return "memory", nil }},
	}, log.DefaultLogger)
	r := uc.Check(context.Background())
	if r.Status != StatusOK || r.Components["database"].Status != StatusDisabled {
		t.Errorf("Check() = %+v", r)
	}

	uc = NewHealthUseCase([]HealthCheck{
		{Name: "vector", Check: func(context.Context) (any, error) { return nil, stderrors.New("unreachable") }},
	}, log.DefaultLogger)
	r = uc.Check(context.Background())
	if r.Status != StatusDegraded || r.Components["vector"].Status != StatusError {
		t.Errorf("Check() = %+v", r)
	}
}
