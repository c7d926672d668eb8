package biz

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/orda/app/orda/pkg/catalog"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Industry 产业
type Industry struct {
	KrxName     string `json:"krx_name"`
	Description string `json:"description"`
}

// PastIssue 过去事件
type PastIssue struct {
	ID                string `json:"id"`
	IssueName         string `json:"issue_name"`
	Contents          string `json:"contents"`
	RelatedIndustries string `json:"related_industries"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
}

// DatabaseStats 数据库统计
type DatabaseStats struct {
	Industries        int     `json:"industries"`
	PastIssues        int     `json:"past_issues"`
	CurrentIssues     int     `json:"current_issues"`
	SimulationResults int     `json:"simulation_results"`
	DBSizeMB          float64 `json:"db_size_mb"`
}

// ImportResult 导入结果
type ImportResult struct {
	Industries int `json:"industries"`
	PastIssues int `json:"past_issues"`
}

// CatalogRepo 目录仓库接口
type CatalogRepo interface {
	ListIndustries(ctx context.Context, search string, limit int) ([]*Industry, error)
	ListPastIssues(ctx context.Context, search, industry string, limit int) ([]*PastIssue, error)
	Stats(ctx context.Context) (*DatabaseStats, error)
	Import(ctx context.Context, industries, pastIssues []catalog.Entry) (int, int, error)
}

// CatalogUseCase 目录数据业务逻辑
type CatalogUseCase struct {
	repo CatalogRepo
	log  *log.Helper
}

// NewCatalogUseCase 创建目录业务逻辑实例
func NewCatalogUseCase(repo CatalogRepo, logger log.Logger) *CatalogUseCase {
	return &CatalogUseCase{repo: repo, log: log.NewHelper(logger)}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

func (uc *CatalogUseCase) Industries(ctx context.Context, search string, limit int) ([]*Industry, error) {
	return uc.repo.ListIndustries(ctx, search, clampLimit(limit))
}

func (uc *CatalogUseCase) PastIssues(ctx context.Context, search, industry string, limit int) ([]*PastIssue, error) {
	return uc.repo.ListPastIssues(ctx, search, industry, clampLimit(limit))
}

func (uc *CatalogUseCase) Stats(ctx context.Context) (*DatabaseStats, error) {
	return uc.repo.Stats(ctx)
}

// ImportFiles 读取两个 CSV 文件并导入数据库
func (uc *CatalogUseCase) ImportFiles(ctx context.Context, industriesCSV, pastIssuesCSV string) (*ImportResult, error) {
	industries, err := readEntries(industriesCSV, catalog.ReadIndustries)
	if err != nil {
		return nil, err
	}
	past, err := readEntries(pastIssuesCSV, catalog.ReadPastIssues)
	if err != nil {
		return nil, err
	}
	ni, np, err := uc.repo.Import(ctx, industries, past)
	if err != nil {
		return nil, err
	}
	uc.log.Infof("imported %d industries and %d past issues", ni, np)
	return &ImportResult{Industries: ni, PastIssues: np}, nil
}

func readEntries(path string, read func(io.Reader) ([]catalog.Entry, error)) ([]catalog.Entry, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return read(f)
}
