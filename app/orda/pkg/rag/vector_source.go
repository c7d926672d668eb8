package rag

import (
	"context"
	"strings"

	"github.com/iWorld-y/orda/app/orda/pkg/catalog"
	"github.com/iWorld-y/orda/app/orda/pkg/logger"
	"github.com/iWorld-y/orda/app/orda/pkg/metrics"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
	"github.com/iWorld-y/orda/app/orda/pkg/scoring"
	"github.com/iWorld-y/orda/app/orda/pkg/vector"
)

// DefaultTopK 向量检索返回的文档数
const DefaultTopK = 10

type markers struct {
	name   string
	detail string
	period string
}

var classMarkers = map[model.EntityClass]markers{
	model.ClassIndustry:  {name: catalog.MarkerIndustryName, detail: catalog.MarkerIndustryDetail},
	model.ClassPastIssue: {name: catalog.MarkerIssueName, detail: catalog.MarkerIssueContent, period: catalog.MarkerIssuePeriod},
}

// VectorSource 从向量索引中检索候选，只保留目录中存在的名称
type VectorSource struct {
	index   vector.Index
	catalog *catalog.Catalog
	k       int
	metrics *metrics.Metrics
}

// NewVectorSource 创建向量来源，index 为 nil 时始终返回空结果
func NewVectorSource(index vector.Index, cat *catalog.Catalog, k int, m *metrics.Metrics) *VectorSource {
	if k <= 0 {
		k = DefaultTopK
	}
	return &VectorSource{index: index, catalog: cat, k: k, metrics: m}
}

// Search 检索与 query 相近的候选，按距离从近到远，名称去重
func (s *VectorSource) Search(ctx context.Context, query string) []scoring.VectorHit {
	if s.index == nil || s.catalog == nil {
		return nil
	}
	class := s.catalog.Class()
	matches, err := s.index.Query(ctx, query, catalog.Namespace(class), s.k)
	if err != nil {
		logger.Log.Warnf("向量检索失败 [%s]: %v", class, err)
		s.metrics.IncSourceFailure(metrics.SourceVector, string(class))
		return nil
	}

	mk := classMarkers[class]
	seen := make(map[string]struct{}, len(matches))
	hits := make([]scoring.VectorHit, 0, len(matches))
	for _, m := range matches {
		doc := parseDocument(m, mk)
		entry, ok := s.catalog.Lookup(doc.name)
		if !ok {
			logger.Log.Debugf("丢弃目录外名称 [%s]: %q", class, doc.name)
			continue
		}
		if _, dup := seen[entry.Name]; dup {
			continue
		}
		seen[entry.Name] = struct{}{}

		hit := scoring.VectorHit{
			Name:        entry.Name,
			Similarity:  scoring.SimilarityFromDistance(m.Distance),
			Description: doc.detail,
		}
		if hit.Description == "" {
			hit.Description = entry.Description
		}
		if class == model.ClassPastIssue {
			hit.Period = firstNonEmpty(doc.period, entry.Period, model.NoPeriod)
		}
		hits = append(hits, hit)
	}
	return hits
}

type parsedDoc struct {
	name   string
	detail string
	period string
}

// parseDocument 按标记解析文档文本，缺失的字段从元数据补齐
func parseDocument(m vector.Match, mk markers) parsedDoc {
	var (
		d        parsedDoc
		inDetail bool
		detail   []string
	)
	for _, raw := range strings.Split(m.Text, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case mk.name != "" && strings.HasPrefix(line, mk.name):
			d.name = strings.TrimSpace(strings.TrimPrefix(line, mk.name))
			inDetail = false
		case mk.period != "" && strings.HasPrefix(line, mk.period):
			d.period = strings.TrimSpace(strings.TrimPrefix(line, mk.period))
			inDetail = false
		case mk.detail != "" && strings.HasPrefix(line, mk.detail):
			detail = append(detail, strings.TrimSpace(strings.TrimPrefix(line, mk.detail)))
			inDetail = true
		case inDetail && !isFieldLine(line):
			detail = append(detail, line)
		default:
			inDetail = false
		}
	}
	d.detail = strings.TrimSpace(strings.Join(detail, "\n"))

	if d.name == "" {
		d.name = m.Metadata["name"]
	}
	if d.detail == "" {
		d.detail = m.Metadata["description"]
	}
	if d.period == "" {
		d.period = m.Metadata["period"]
	}
	d.name = catalog.Normalize(d.name)
	return d
}

// trailerMarkers 出现在详情之后、不属于详情的字段
var trailerMarkers = []string{"관련 산업:"}

func isFieldLine(line string) bool {
	for _, p := range trailerMarkers {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
