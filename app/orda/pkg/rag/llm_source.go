package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/orda/app/orda/pkg/catalog"
	"github.com/iWorld-y/orda/app/orda/pkg/llm"
	"github.com/iWorld-y/orda/app/orda/pkg/logger"
	"github.com/iWorld-y/orda/app/orda/pkg/metrics"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
	"github.com/iWorld-y/orda/app/orda/pkg/scoring"
)

// DefaultPromptCatalogLimit 提示词中列出的目录名称上限
const DefaultPromptCatalogLimit = 50

const maxPicks = 10

type classPrompt struct {
	label     string // 提示词中的实体称呼
	entityKey string // 回复 JSON 中的名称字段
}

var classPrompts = map[model.EntityClass]classPrompt{
	model.ClassIndustry:  {label: "산업", entityKey: "industry"},
	model.ClassPastIssue: {label: "과거 이슈", entityKey: "issue"},
}

var candidateTemplate = prompt.FromMessages(schema.GoTemplate,
	schema.SystemMessage("당신은 한국 주식시장 전문 애널리스트입니다. 반드시 JSON 형식으로만 응답하세요."),
	schema.UserMessage(`다음 뉴스와 가장 관련성이 높은 {{.label}}을(를) 아래 목록에서만 골라 최대 {{.max}}개 추천하세요.

## 뉴스
{{.query}}

## 선택 가능한 {{.label}} 목록
{{range .names}}- {{.}}
{{end}}
각 항목에 대해 1~10 사이의 정수 관련성 점수와 한 문장의 근거를 제시하세요.
응답 형식:
{"candidates": [{"{{.key}}": "이름", "score": 8, "reason": "근거"}]}`),
)

// LLMSource 让对话模型从目录中挑选候选
type LLMSource struct {
	client  *llm.Client
	catalog *catalog.Catalog
	limit   int
	metrics *metrics.Metrics
}

// NewLLMSource 创建 LLM 来源，client 未启用时始终返回空结果
func NewLLMSource(client *llm.Client, cat *catalog.Catalog, limit int, m *metrics.Metrics) *LLMSource {
	if limit <= 0 {
		limit = DefaultPromptCatalogLimit
	}
	return &LLMSource{client: client, catalog: cat, limit: limit, metrics: m}
}

// Recommend 返回模型推荐的候选，失败时返回空列表
func (s *LLMSource) Recommend(ctx context.Context, query string) []scoring.AIPick {
	if !s.client.Enabled() || s.catalog == nil || s.catalog.Len() == 0 {
		return nil
	}
	class := s.catalog.Class()
	cp := classPrompts[class]

	msgs, err := candidateTemplate.Format(ctx, map[string]any{
		"label": cp.label,
		"key":   cp.entityKey,
		"max":   maxPicks,
		"query": query,
		"names": s.catalog.Names(s.limit),
	})
	if err != nil {
		logger.Log.Errorf("构造候选提示词失败 [%s]: %v", class, err)
		return nil
	}

	var resp candidateList
	if err := s.client.GenerateJSON(ctx, msgs, &resp); err != nil {
		logger.Log.Warnf("LLM 候选生成失败 [%s]: %v", class, err)
		s.metrics.IncSourceFailure(metrics.SourceLLM, string(class))
		return nil
	}

	picks := make([]scoring.AIPick, 0, len(resp))
	for _, c := range resp {
		name := catalog.Normalize(c.name(cp.entityKey))
		if name == "" || !c.hasScore {
			continue
		}
		picks = append(picks, scoring.AIPick{
			Name:   name,
			Score:  max(0, min(scoring.MaxAIScore, c.Score)),
			Reason: strings.TrimSpace(c.Reason),
		})
	}
	return picks
}

// candidateList 兼容 {"candidates": [...]} 与裸数组两种回复
type candidateList []rawCandidate

func (l *candidateList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, (*[]rawCandidate)(l))
	}
	var wrapper struct {
		Candidates []rawCandidate `json:"candidates"`
	}
	if err := json.Unmarshal(b, &wrapper); err != nil {
		return err
	}
	*l = wrapper.Candidates
	return nil
}

// rawCandidate 模型返回的单个候选，字段形态不固定
type rawCandidate struct {
	names    map[string]string
	Score    float64
	hasScore bool
	Reason   string
}

func (c rawCandidate) name(entityKey string) string {
	if v := c.names[entityKey]; v != "" {
		return v
	}
	return c.names["name"]
}

func (c *rawCandidate) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	c.names = make(map[string]string, 2)
	for k, v := range fields {
		switch k {
		case "score":
			if f, ok := parseScore(v); ok {
				c.Score, c.hasScore = f, true
			}
		case "reason":
			c.Reason = parseText(v)
		default:
			if s := parseText(v); s != "" {
				c.names[k] = s
			}
		}
	}
	return nil
}

// parseScore 接受数字、数字字符串或 {"value": n}
func parseScore(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	var obj struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && len(obj.Value) > 0 {
		return parseScore(obj.Value)
	}
	return 0, false
}

func parseText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return fmt.Sprint(f)
	}
	return ""
}
