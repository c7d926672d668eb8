package service

import (
	"context"

	"github.com/iWorld-y/orda/app/orda/internal/biz"
)

type ListIndustriesReq struct {
	Search string `json:"search"`
	Limit  int    `json:"limit"`
}

type ListIndustriesReply struct {
	Success    bool            `json:"success"`
	Industries []*biz.Industry `json:"industries"`
	Count      int             `json:"count"`
}

type ListPastIssuesReq struct {
	Search   string `json:"search"`
	Industry string `json:"industry"`
	Limit    int    `json:"limit"`
}

type ListPastIssuesReply struct {
	Success    bool             `json:"success"`
	PastIssues []*biz.PastIssue `json:"past_issues"`
	Count      int              `json:"count"`
}

type StatsReply struct {
	Success bool               `json:"success"`
	Stats   *biz.DatabaseStats `json:"stats"`
}

type ImportReply struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Result  *biz.ImportResult `json:"result"`
}

func (s *OrdaService) ListIndustries(ctx context.Context, req *ListIndustriesReq) (*ListIndustriesReply, error) {
	list, err := s.ucCatalog.Industries(ctx, req.Search, req.Limit)
	if err != nil {
		return nil, err
	}
	list = nonNil(list)
	return &ListIndustriesReply{Success: true, Industries: list, Count: len(list)}, nil
}

func (s *OrdaService) ListPastIssues(ctx context.Context, req *ListPastIssuesReq) (*ListPastIssuesReply, error) {
	list, err := s.ucCatalog.PastIssues(ctx, req.Search, req.Industry, req.Limit)
	if err != nil {
		return nil, err
	}
	list = nonNil(list)
	return &ListPastIssuesReply{Success: true, PastIssues: list, Count: len(list)}, nil
}

func (s *OrdaService) DatabaseStats(ctx context.Context, _ *Empty) (*StatsReply, error) {
	st, err := s.ucCatalog.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsReply{Success: true, Stats: st}, nil
}

// ImportCatalogs 从配置的 CSV 文件导入目录
func (s *OrdaService) ImportCatalogs(ctx context.Context, _ *Empty) (*ImportReply, error) {
	res, err := s.ucCatalog.ImportFiles(ctx, s.imports.Industries, s.imports.PastIssues)
	if err != nil {
		return nil, err
	}
	return &ImportReply{Success: true, Message: "데이터 가져오기가 완료되었습니다.", Result: res}, nil
}

func (s *OrdaService) Health(ctx context.Context, _ *Empty) (*biz.HealthReport, error) {
	return s.ucHealth.Check(ctx), nil
}
