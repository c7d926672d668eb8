// Package vector defines the similarity index used by the RAG vector source.
package vector

import (
	"context"
	"math"
)

// 命名空间，与目录类别一一对应
const (
	NamespaceIndustry  = "industry"
	NamespacePastIssue = "past_issue"
)

// Document 待写入索引的文档
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Match 检索结果，Distance 在 [0,1] 之间，越小越相近
type Match struct {
	ID       string
	Text     string
	Metadata map[string]string
	Distance float64
}

// Stats 索引统计
type Stats struct {
	Dimension  int            `json:"dimension"`
	Total      int            `json:"total_vector_count"`
	Namespaces map[string]int `json:"namespaces"`
}

// Index 向量索引
type Index interface {
	Query(ctx context.Context, text, namespace string, k int) ([]Match, error)
	Upsert(ctx context.Context, namespace string, docs []Document) error
	Stats(ctx context.Context) (Stats, error)
}

// DistanceFromCosine 将余弦相似度 [-1,1] 转换为 [0,1] 的距离
func DistanceFromCosine(score float64) float64 {
	if math.IsNaN(score) {
		return 1
	}
	return math.Max(0, math.Min(1, 1-score))
}

// CosineSimilarity 计算两个向量的余弦相似度，长度不同或零向量时返回 0
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
