// Package snapshot 将每次流水线的完整结果存档为 JSON 文件，
// 数据库不可用时新闻接口以最新快照作为后备数据源。
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iWorld-y/orda/app/orda/pkg/config"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

// ErrNotFound 没有任何快照
var ErrNotFound = errors.New("snapshot: not found")

const (
	fileSuffix     = "_Pipeline_Results.json"
	fileTimeLayout = "2006.01.02_15.04.05"
	version        = "orda-pipeline/1"
)

// Snapshot 快照文件内容
type Snapshot struct {
	model.RunResult
	ExecutionTime string   `json:"execution_time"`
	APIReadyData  APIData  `json:"api_ready_data"`
	FileInfo      FileInfo `json:"file_info"`
}

// APIData 新闻接口直接使用的数据
type APIData struct {
	Success  bool        `json:"success"`
	Data     APIIssues   `json:"data"`
	Metadata APIMetadata `json:"metadata"`
}

// APIIssues 入选议题
type APIIssues struct {
	TotalCrawled      int                   `json:"total_crawled"`
	SelectedCount     int                   `json:"selected_count"`
	SelectionCriteria string                `json:"selection_criteria"`
	SelectedIssues    []model.EnrichedIssue `json:"selected_issues"`
}

// APIMetadata 处理元数据
type APIMetadata struct {
	CrawledAt           time.Time `json:"crawled_at"`
	CategoriesProcessed []string  `json:"categories_processed"`
	AIFilterApplied     bool      `json:"ai_filter_applied"`
	RAGAnalysisApplied  bool      `json:"rag_analysis_applied"`
	FilterModel         string    `json:"filter_model"`
	RAGModel            string    `json:"rag_model"`
	RAGConfidence       float64   `json:"rag_confidence"`
}

// FileInfo 文件信息
type FileInfo struct {
	FileName  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
	Version   string    `json:"pipeline_version"`
}

// Meta 构建快照所需的附加信息
type Meta struct {
	FilterModel string
	RAGModel    string
	AIFilter    bool
}

// Store 快照存储
type Store interface {
	// Save 保存快照并返回其位置
	Save(ctx context.Context, s *Snapshot) (string, error)
	Latest(ctx context.Context) (*Snapshot, error)
}

// FileName 快照文件名
func FileName(t time.Time) string {
	return t.Format(fileTimeLayout) + fileSuffix
}

func isSnapshotName(name string) bool {
	return strings.HasSuffix(name, fileSuffix)
}

// Build 由运行结果构建快照
func Build(run *model.RunResult, meta Meta, now time.Time) *Snapshot {
	top := *run
	top.Issues = nil

	s := &Snapshot{
		RunResult: top,
		APIReadyData: APIData{
			Success: true,
			Data: APIIssues{
				TotalCrawled:      run.TotalCrawled,
				SelectedCount:     len(run.Issues),
				SelectionCriteria: "주식시장 영향도 + RAG 분석",
				SelectedIssues:    run.Issues,
			},
			Metadata: APIMetadata{
				CrawledAt:           run.StartedAt,
				CategoriesProcessed: run.Categories,
				AIFilterApplied:     meta.AIFilter,
				RAGAnalysisApplied:  true,
				FilterModel:         meta.FilterModel,
				RAGModel:            meta.RAGModel,
				RAGConfidence:       run.AverageConfidence,
			},
		},
		FileInfo: FileInfo{
			FileName:  FileName(now),
			CreatedAt: now,
			Version:   version,
		},
	}
	if d := run.ExecutionTime(); d > 0 {
		s.ExecutionTime = d.Round(time.Millisecond).String()
	}
	return s
}

// SelectedIssues 快照中的入选议题
func (s *Snapshot) SelectedIssues() []model.EnrichedIssue {
	return s.APIReadyData.Data.SelectedIssues
}

// New 根据配置创建快照存储
func New(ctx context.Context, cfg config.SnapshotConfig) (Store, error) {
	switch cfg.Provider {
	case "dir", "":
		return NewDir(cfg.Dir), nil
	case "s3":
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown snapshot provider: %s", cfg.Provider)
	}
}
