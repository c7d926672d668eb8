// Package engine 串联爬取、过滤、RAG 分析与结果发布。
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/iWorld-y/orda/app/orda/pkg/cache"
	"github.com/iWorld-y/orda/app/orda/pkg/crawler"
	"github.com/iWorld-y/orda/app/orda/pkg/filter"
	"github.com/iWorld-y/orda/app/orda/pkg/logger"
	"github.com/iWorld-y/orda/app/orda/pkg/metrics"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
	"github.com/iWorld-y/orda/app/orda/pkg/scoring"
	"github.com/iWorld-y/orda/app/orda/pkg/snapshot"
)

// 完成的步骤名
const (
	StepCrawlAndFilter = "crawling_and_filtering"
	StepRAGAnalysis    = "rag_analysis"
	StepAPIPreparation = "api_preparation"
)

var (
	// ErrRunInProgress 已有流水线在运行
	ErrRunInProgress = errors.New("pipeline is already running")
	// ErrNoFilteredIssues 过滤后没有议题
	ErrNoFilteredIssues = errors.New("no filtered issues")
)

// Selector 关联性过滤
type Selector interface {
	Select(ctx context.Context, issues []model.Issue) filter.Result
}

// Analyzer 批量 RAG 分析
type Analyzer interface {
	AnalyzeAll(ctx context.Context, issues []model.ScoredIssue, progress func(done, total int)) []model.EnrichedIssue
}

// Store 运行记录与议题的持久化
type Store interface {
	CreateRun(ctx context.Context, run *model.RunResult) error
	FinishRun(ctx context.Context, run *model.RunResult) error
	SaveIssues(ctx context.Context, runID string, issues []model.EnrichedIssue) error
}

// Deps 引擎依赖，Store / Cache / Snapshots / Metrics 可为 nil
type Deps struct {
	Crawler   crawler.Crawler
	Filter    Selector
	Analyzer  Analyzer
	Store     Store
	Cache     cache.IssueStore
	Snapshots snapshot.Store
	Metrics   *metrics.Metrics
	Meta      snapshot.Meta
}

// Engine 流水线引擎，同一时间只允许一次运行
type Engine struct {
	Deps
	running atomic.Bool
	now     func() time.Time
	newID   func() string
}

// NewEngine 创建引擎实例
func NewEngine(d Deps) *Engine {
	return &Engine{
		Deps:  d,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// RunOptions 运行选项
type RunOptions struct {
	ProgressCallback func(status string, progress int)
}

func (o RunOptions) report(status string, progress int) {
	if o.ProgressCallback != nil {
		o.ProgressCallback(status, progress)
	}
}

// Busy 是否有运行中的流水线
func (e *Engine) Busy() bool {
	return e.running.Load()
}

// Run 执行一次完整流水线，失败时返回的 RunResult 仍记录了失败信息
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*model.RunResult, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer e.running.Store(false)
	e.Metrics.SetRunInProgress(true)
	defer e.Metrics.SetRunInProgress(false)

	run := &model.RunResult{
		ID:             e.newID(),
		StartedAt:      e.now(),
		Status:         model.RunRunning,
		StepsCompleted: []string{},
		Errors:         []string{},
	}
	logger.Log.Infof("流水线开始 (ID: %s)", run.ID)
	opts.report("starting", 0)

	if e.Store != nil {
		if err := e.Store.CreateRun(ctx, run); err != nil {
			logger.Log.Errorf("无法创建运行记录: %v", err)
		}
	}

	if err := e.execute(ctx, run, opts); err != nil {
		e.fail(ctx, run, err)
		opts.report("failed: "+err.Error(), 100)
		return run, err
	}

	e.finish(ctx, run)
	opts.report("completed", 100)
	return run, nil
}

func (e *Engine) execute(ctx context.Context, run *model.RunResult, opts RunOptions) error {
	// 1. 爬取 + 过滤
	opts.report("crawling", 10)
	issues, err := e.Crawler.Crawl(ctx)
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}
	run.TotalCrawled = len(issues)
	run.Categories = categories(issues)
	for _, c := range run.Categories {
		e.Metrics.AddCrawled(c, countCategory(issues, c))
	}

	selected := e.Filter.Select(ctx, issues)
	run.FilteredCount = len(selected.Selected)
	if run.FilteredCount == 0 {
		return ErrNoFilteredIssues
	}
	run.StepsCompleted = append(run.StepsCompleted, StepCrawlAndFilter)
	logger.Log.Infof("过滤完成: %d/%d 条议题 (%s)", run.FilteredCount, run.TotalCrawled, selected.Method)
	opts.report(fmt.Sprintf("filtered %d of %d issues", run.FilteredCount, run.TotalCrawled), 40)

	// 2. RAG 分析 40% -> 80%
	enriched := e.Analyzer.AnalyzeAll(ctx, selected.Selected, func(done, total int) {
		opts.report(fmt.Sprintf("analyzed %d/%d", done, total), 40+done*40/total)
	})
	if err := ctx.Err(); err != nil {
		return err
	}
	run.AnalyzedCount = len(enriched)
	run.AverageConfidence = averageConfidence(enriched)
	run.StepsCompleted = append(run.StepsCompleted, StepRAGAnalysis)
	opts.report("rag analysis completed", 80)

	// 3. 持久化
	opts.report("saving results", 90)
	if e.Store != nil {
		if err := e.Store.SaveIssues(ctx, run.ID, enriched); err != nil {
			logger.Log.Errorf("保存议题失败: %v", err)
			run.Errors = append(run.Errors, fmt.Sprintf("save issues: %v", err))
		}
	}
	run.Issues = enriched
	run.StepsCompleted = append(run.StepsCompleted, StepAPIPreparation)
	return nil
}

func (e *Engine) finish(ctx context.Context, run *model.RunResult) {
	completed := e.now()
	run.CompletedAt = &completed
	run.Status = model.RunSuccess

	if e.Cache != nil {
		entry := &cache.Entry{RunID: run.ID, Issues: run.Issues, UpdatedAt: completed}
		if err := e.Cache.Put(ctx, entry); err != nil {
			logger.Log.Warnf("写入缓存失败: %v", err)
		}
	}
	if e.Snapshots != nil {
		loc, err := e.Snapshots.Save(ctx, snapshot.Build(run, e.Meta, completed))
		if err != nil {
			logger.Log.Warnf("保存快照失败: %v", err)
		} else {
			logger.Log.Infof("流水线结果已保存: %s", loc)
		}
	}
	e.record(ctx, run)
	logger.Log.Infof("流水线完成 (ID: %s): %d 条议题, 平均可信度 %.2f, 耗时 %s",
		run.ID, run.AnalyzedCount, run.AverageConfidence, run.ExecutionTime())
}

func (e *Engine) fail(ctx context.Context, run *model.RunResult, err error) {
	completed := e.now()
	run.CompletedAt = &completed
	run.Status = model.RunFailed
	run.Errors = append(run.Errors, "pipeline failed: "+err.Error())
	logger.Log.Errorf("流水线失败 (ID: %s): %v", run.ID, err)

	// 调用方取消时仍需写回运行状态
	e.record(context.WithoutCancel(ctx), run)
}

func (e *Engine) record(ctx context.Context, run *model.RunResult) {
	status := metrics.StatusSuccess
	if run.Status != model.RunSuccess {
		status = metrics.StatusFailure
	}
	e.Metrics.ObserveRun(status, run.ExecutionTime().Seconds())

	if e.Store != nil {
		if err := e.Store.FinishRun(ctx, run); err != nil {
			logger.Log.Errorf("更新运行记录失败: %v", err)
		}
	}
}

func categories(issues []model.Issue) []string {
	seen := make(map[string]bool)
	var out []string
	for _, is := range issues {
		if !seen[is.Category] {
			seen[is.Category] = true
			out = append(out, is.Category)
		}
	}
	return out
}

func countCategory(issues []model.Issue, category string) int {
	n := 0
	for _, is := range issues {
		if is.Category == category {
			n++
		}
	}
	return n
}

func averageConfidence(issues []model.EnrichedIssue) float64 {
	if len(issues) == 0 {
		return 0
	}
	var sum float64
	for _, is := range issues {
		sum += is.Confidence
	}
	return scoring.Round2(sum / float64(len(issues)))
}
