package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/orda/app/orda/pkg/llm"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

var explainTemplate = prompt.FromMessages(schema.GoTemplate,
	schema.SystemMessage("당신은 전문 금융 애널리스트입니다. 주어진 현재 뉴스, 과거 유사 이슈, 관련 산업 정보를 바탕으로 투자자 입장에서 이해하기 쉽게 종합적인 분석을 제공해주세요. 투자 추천은 절대 하지 마세요."),
	schema.UserMessage(`## 현재 뉴스:
{{.news}}

## 과거 유사 이슈 (관련성 순):
{{.past}}

## 관련 산업 정보 (관련성 순):
{{.industries}}

위 정보를 바탕으로 2~3문단으로 명확하고 쉽게 종합 분석을 작성해주세요.`),
)

// Explainer 基于分析结果生成面向投资者的文字解读
type Explainer struct {
	client *llm.Client
}

// NewExplainer 创建解读器
func NewExplainer(client *llm.Client) *Explainer {
	return &Explainer{client: client}
}

// Explain 生成解读文本，未配置模型时返回 llm.ErrNoModel
func (e *Explainer) Explain(ctx context.Context, news string, a model.Analysis) (string, error) {
	if !e.client.Enabled() {
		return "", llm.ErrNoModel
	}
	msgs, err := explainTemplate.Format(ctx, map[string]any{
		"news":       news,
		"past":       bulletList(a.PastIssues),
		"industries": bulletList(a.Industries),
	})
	if err != nil {
		return "", fmt.Errorf("format prompt: %w", err)
	}
	return e.client.GenerateText(ctx, msgs)
}

func bulletList(cs []model.Candidate) string {
	if len(cs) == 0 {
		return "없음"
	}
	var sb strings.Builder
	for _, c := range cs {
		fmt.Fprintf(&sb, "- %s (%.1f)", c.Name, c.FinalScore)
		if c.Period != "" && c.Period != model.NoPeriod {
			fmt.Fprintf(&sb, " [%s]", c.Period)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
