// Package scoring blends vector-similarity and language-model signals into a
// ranked candidate list, and aggregates per-item analysis confidence.
//
// Both channels are brought to a 0-10 scale before blending:
//
//	final = round(vector_similarity/10*0.3 + ai_score*0.7, 1)
package scoring

import (
	"math"
	"sort"

	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

const (
	// VectorWeight 向量相似度（归一到 0-10）的权重
	VectorWeight = 0.3
	// AIWeight LLM 评分的权重
	AIWeight = 0.7
	// DefaultTopN 每个类别保留的候选数量
	DefaultTopN = 3
	// MaxAIScore LLM 评分上限
	MaxAIScore = 10.0
)

// Catalog 权威名称目录
type Catalog interface {
	IsValidName(name string) bool
	DescriptionOf(name string) string
	// PeriodOf 返回时间范围，没有时返回空串
	PeriodOf(name string) string
}

// VectorHit 向量检索得到的一个候选
type VectorHit struct {
	Name        string
	Similarity  float64 // [0,100]
	Description string
	Period      string
}

// AIPick LLM 推荐的一个候选
type AIPick struct {
	Name   string
	Score  float64 // [0,10]
	Reason string
}

// Round1 保留一位小数
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 保留两位小数
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SimilarityFromDistance 将 [0,1] 的距离转换为百分比相似度
func SimilarityFromDistance(distance float64) float64 {
	distance = clamp(distance, 0, 1)
	return Round1((1 - distance) * 100)
}

// FinalScore 计算融合分数
func FinalScore(vectorSimilarity, aiScore float64) float64 {
	return Round1(vectorSimilarity/10*VectorWeight + aiScore*AIWeight)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Blender 合并两个来源的候选
type Blender struct {
	Catalog Catalog
	TopN    int
	// Periods 为 true 时输出 period 字段（过去事件）
	Periods bool
}

// Blend 以名称为键合并向量结果与 LLM 结果，按 final_score 降序截取前 TopN。
// 同分时保持插入顺序：先向量结果顺序，再 LLM 新增顺序。
func (b Blender) Blend(hits []VectorHit, picks []AIPick) []model.Candidate {
	topN := b.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	entries := make([]model.Candidate, 0, len(hits)+len(picks))
	index := make(map[string]int, len(hits)+len(picks))

	for _, h := range hits {
		if _, ok := index[h.Name]; ok || h.Name == "" {
			continue
		}
		c := model.Candidate{
			Name:        h.Name,
			VectorScore: Round1(clamp(h.Similarity, 0, 100)),
			Description: h.Description,
		}
		if b.Periods {
			c.Period = periodOrNone(h.Period)
		}
		index[h.Name] = len(entries)
		entries = append(entries, c)
	}

	for _, p := range picks {
		score := clamp(p.Score, 0, MaxAIScore)
		if i, ok := index[p.Name]; ok {
			entries[i].AIScore = score
			entries[i].AIReason = p.Reason
			continue
		}
		if b.Catalog == nil || !b.Catalog.IsValidName(p.Name) {
			continue
		}
		c := model.Candidate{
			Name:        p.Name,
			AIScore:     score,
			AIReason:    p.Reason,
			Description: b.Catalog.DescriptionOf(p.Name),
		}
		if b.Periods {
			c.Period = periodOrNone(b.Catalog.PeriodOf(p.Name))
		}
		index[p.Name] = len(entries)
		entries = append(entries, c)
	}

	for i := range entries {
		entries[i].FinalScore = FinalScore(entries[i].VectorScore, entries[i].AIScore)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].FinalScore > entries[j].FinalScore
	})
	if len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}

func periodOrNone(p string) string {
	if p == "" {
		return model.NoPeriod
	}
	return p
}
