// Package filter 按股市关联性为议题打分并选出前 N 条。
package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/orda/app/orda/pkg/llm"
	"github.com/iWorld-y/orda/app/orda/pkg/logger"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

// 选择方式
const (
	MethodLLM   = "llm"
	MethodNoLLM = "no_llm"
)

const (
	defaultTarget = 5
	defaultScore  = 5.0
)

var relevanceTemplate = prompt.FromMessages(schema.GoTemplate,
	schema.SystemMessage("당신은 한국 주식시장 전문 애널리스트입니다. 반드시 JSON 형식으로만 응답하세요."),
	schema.UserMessage(`다음 뉴스가 한국 주식시장에 미칠 영향을 평가하세요.

카테고리: {{.category}}
제목: {{.title}}
내용: {{.content}}

각 항목을 1~10점으로 평가하세요.
{"직접적_기업영향": 0, "산업_전반영향": 0, "거시경제_영향": 0, "투자심리_영향": 0, "종합점수": 0, "분석근거": "한두 문장"}`),
)

// Result 过滤结果
type Result struct {
	Selected []model.ScoredIssue
	Method   string
}

// Filter 关联性过滤器
type Filter struct {
	client  *llm.Client
	target  int
	workers int
}

// New 创建过滤器，client 未启用时按原顺序截取
func New(client *llm.Client, target, workers int) *Filter {
	if target <= 0 {
		target = defaultTarget
	}
	if workers <= 0 {
		workers = 1
	}
	return &Filter{client: client, target: target, workers: workers}
}

// Select 为每条议题打分，稳定排序后取前 target 条并编号
func (f *Filter) Select(ctx context.Context, issues []model.Issue) Result {
	if !f.client.Enabled() {
		n := min(f.target, len(issues))
		out := make([]model.ScoredIssue, n)
		for i := 0; i < n; i++ {
			out[i] = model.ScoredIssue{Issue: issues[i], Rank: i + 1}
		}
		return Result{Selected: out, Method: MethodNoLLM}
	}

	scored := make([]model.ScoredIssue, len(issues))
	var g errgroup.Group
	g.SetLimit(f.workers)
	for i, issue := range issues {
		g.Go(func() error {
			rel := f.assess(ctx, issue)
			scored[i] = model.ScoredIssue{Issue: issue, RelevanceScore: rel.Total, Relevance: rel}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})
	if len(scored) > f.target {
		scored = scored[:f.target]
	}
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return Result{Selected: scored, Method: MethodLLM}
}

func (f *Filter) assess(ctx context.Context, issue model.Issue) model.Relevance {
	msgs, err := relevanceTemplate.Format(ctx, map[string]any{
		"category": issue.Category,
		"title":    issue.Title,
		"content":  issue.Content,
	})
	if err == nil {
		var r relevanceReply
		if err = f.client.GenerateJSON(ctx, msgs, &r); err == nil {
			return r.toRelevance()
		}
	}
	logger.Log.Warnf("关联性评估失败 [%s]: %v", issue.Title, err)
	return model.Relevance{
		Company:   defaultScore,
		Industry:  defaultScore,
		Macro:     defaultScore,
		Sentiment: defaultScore,
		Total:     defaultScore,
		Reason:    fmt.Sprintf("분석 실패: %v", err),
	}
}

// relevanceReply 模型回复，缺失的分数按 5 分处理
type relevanceReply map[string]json.RawMessage

func (r relevanceReply) score(key string) float64 {
	raw, ok := r[key]
	if !ok {
		return defaultScore
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return max(1, min(10, f))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return max(1, min(10, f))
		}
	}
	return defaultScore
}

func (r relevanceReply) toRelevance() model.Relevance {
	var reason string
	if raw, ok := r["분석근거"]; ok {
		_ = json.Unmarshal(raw, &reason)
	}
	return model.Relevance{
		Company:   r.score("직접적_기업영향"),
		Industry:  r.score("산업_전반영향"),
		Macro:     r.score("거시경제_영향"),
		Sentiment: r.score("투자심리_영향"),
		Total:     r.score("종합점수"),
		Reason:    reason,
	}
}
