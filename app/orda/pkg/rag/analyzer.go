// Package rag 为新闻议题检索相关产业与过去事件，并计算分析置信度。
//
// 每个类别有两个候选来源：向量索引与对话模型。两者并发执行，由
// scoring.Blender 融合为前 N 个候选，任何来源的失败只会让结果变少，
// 不会向调用方返回错误。
package rag

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/orda/app/orda/pkg/catalog"
	"github.com/iWorld-y/orda/app/orda/pkg/llm"
	"github.com/iWorld-y/orda/app/orda/pkg/metrics"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
	"github.com/iWorld-y/orda/app/orda/pkg/scoring"
	"github.com/iWorld-y/orda/app/orda/pkg/vector"
)

// Options 分析器参数
type Options struct {
	TopK               int
	TopN               int
	Workers            int
	PromptCatalogLimit int
	Policy             scoring.ConfidencePolicy
	Metrics            *metrics.Metrics
}

type classPipeline struct {
	vector  *VectorSource
	ai      *LLMSource
	blender scoring.Blender
}

func (p *classPipeline) run(ctx context.Context, query string) []model.Candidate {
	var (
		hits  []scoring.VectorHit
		picks []scoring.AIPick
		g     errgroup.Group
	)
	g.Go(func() error {
		hits = p.vector.Search(ctx, query)
		return nil
	})
	g.Go(func() error {
		picks = p.ai.Recommend(ctx, query)
		return nil
	})
	_ = g.Wait()
	return p.blender.Blend(hits, picks)
}

// Analyzer RAG 分析器
type Analyzer struct {
	industries *classPipeline
	pastIssues *classPipeline
	policy     scoring.ConfidencePolicy
	workers    int
	metrics    *metrics.Metrics
}

// NewAnalyzer 创建分析器，index 或 client 缺失时对应来源退化为空
func NewAnalyzer(index vector.Index, client *llm.Client, industries, pastIssues *catalog.Catalog, opts Options) *Analyzer {
	if opts.TopN <= 0 {
		opts.TopN = scoring.DefaultTopN
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if industries == nil {
		industries = catalog.New(model.ClassIndustry, nil)
	}
	if pastIssues == nil {
		pastIssues = catalog.New(model.ClassPastIssue, nil)
	}
	newPipeline := func(cat *catalog.Catalog, periods bool) *classPipeline {
		return &classPipeline{
			vector:  NewVectorSource(index, cat, opts.TopK, opts.Metrics),
			ai:      NewLLMSource(client, cat, opts.PromptCatalogLimit, opts.Metrics),
			blender: scoring.Blender{Catalog: cat, TopN: opts.TopN, Periods: periods},
		}
	}
	return &Analyzer{
		industries: newPipeline(industries, false),
		pastIssues: newPipeline(pastIssues, true),
		policy:     opts.Policy,
		workers:    opts.Workers,
		metrics:    opts.Metrics,
	}
}

// Analyze 分析一段查询文本
func (a *Analyzer) Analyze(ctx context.Context, query string) model.Analysis {
	var (
		res model.Analysis
		g   errgroup.Group
	)
	g.Go(func() error {
		res.Industries = a.industries.run(ctx, query)
		return nil
	})
	g.Go(func() error {
		res.PastIssues = a.pastIssues.run(ctx, query)
		return nil
	})
	_ = g.Wait()

	if res.Industries == nil {
		res.Industries = []model.Candidate{}
	}
	if res.PastIssues == nil {
		res.PastIssues = []model.Candidate{}
	}
	res.Confidence = scoring.ConfidenceWith(a.policy, res.Industries, res.PastIssues)
	a.metrics.ObserveConfidence(res.Confidence)
	return res
}

// AnalyzeIssue 分析单条议题
func (a *Analyzer) AnalyzeIssue(ctx context.Context, issue model.ScoredIssue) model.EnrichedIssue {
	return model.EnrichedIssue{
		ScoredIssue: issue,
		Analysis:    a.Analyze(ctx, issue.Query()),
	}
}

// AnalyzeAll 并发分析多条议题，输出顺序与输入一致
func (a *Analyzer) AnalyzeAll(ctx context.Context, issues []model.ScoredIssue, progress func(done, total int)) []model.EnrichedIssue {
	out := make([]model.EnrichedIssue, len(issues))
	done := make(chan struct{}, len(issues))

	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, issue := range issues {
		g.Go(func() error {
			out[i] = a.AnalyzeIssue(ctx, issue)
			done <- struct{}{}
			return nil
		})
	}

	finished := make(chan struct{})
	go func() {
		n := 0
		for range done {
			n++
			if progress != nil {
				progress(n, len(issues))
			}
		}
		close(finished)
	}()

	_ = g.Wait()
	close(done)
	<-finished
	return out
}
