package biz

import (
	"context"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/orda/app/orda/pkg/llm"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

// maxArticleRunes 送入分析的正文上限
const maxArticleRunes = 5000

// Article 抽取出的网页正文
type Article struct {
	URL   string
	Title string
	Text  string
}

// ArticleFetcher 网页正文抽取
type ArticleFetcher interface {
	Fetch(ctx context.Context, url string) (*Article, error)
}

// TextAnalyzer RAG 分析
type TextAnalyzer interface {
	Analyze(ctx context.Context, query string) model.Analysis
}

// Explainer 综合解读
type Explainer interface {
	Explain(ctx context.Context, news string, a model.Analysis) (string, error)
}

// AnalysisResult 临时文本的分析结果
type AnalysisResult struct {
	Title       string
	Explanation string
	model.Analysis
}

// AnalysisUseCase 对任意新闻文本做 RAG 分析
type AnalysisUseCase struct {
	analyzer  TextAnalyzer
	explainer Explainer
	fetcher   ArticleFetcher
	log       *log.Helper
}

// NewAnalysisUseCase 创建分析业务逻辑实例
func NewAnalysisUseCase(analyzer TextAnalyzer, explainer Explainer, fetcher ArticleFetcher, logger log.Logger) *AnalysisUseCase {
	return &AnalysisUseCase{analyzer: analyzer, explainer: explainer, fetcher: fetcher, log: log.NewHelper(logger)}
}

// Analyze content 与 url 二选一，content 优先
func (uc *AnalysisUseCase) Analyze(ctx context.Context, content, url string) (*AnalysisResult, error) {
	var title string
	content = strings.TrimSpace(content)
	if content == "" && url != "" {
		a, err := uc.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, errors.BadRequest("ARTICLE_FETCH_FAILED", err.Error())
		}
		title, content = a.Title, a.Text
		if title != "" {
			content = title + "\n" + content
		}
	}
	if content == "" {
		return nil, errors.BadRequest("EMPTY_CONTENT", "content or url is required")
	}
	if r := []rune(content); len(r) > maxArticleRunes {
		content = string(r[:maxArticleRunes])
	}

	res := &AnalysisResult{Title: title, Analysis: uc.analyzer.Analyze(ctx, content)}
	explanation, err := uc.explainer.Explain(ctx, content, res.Analysis)
	switch {
	case errors.Is(err, llm.ErrNoModel):
	case err != nil:
		uc.log.Warnf("explain analysis failed: %v", err)
	default:
		res.Explanation = explanation
	}
	return res, nil
}
