package service

import (
	"context"
	"time"

	"github.com/iWorld-y/orda/app/orda/internal/biz"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

type NewsData struct {
	Issues      []model.EnrichedIssue `json:"issues"`
	Count       int                   `json:"count"`
	Source      string                `json:"source"`
	LastUpdated *time.Time            `json:"last_updated"`
}

type LatestNewsReply struct {
	Success bool     `json:"success"`
	Data    NewsData `json:"data"`
	Message string   `json:"message,omitempty"`
}

type GetIssueReq struct {
	Id int64 `json:"id"`
}

type GetIssueReply struct {
	Success bool                 `json:"success"`
	Data    *model.EnrichedIssue `json:"data"`
}

type PipelineStatusReply struct {
	Success bool             `json:"success"`
	Running bool             `json:"running"`
	Data    *model.RunResult `json:"data"`
	Message string           `json:"message,omitempty"`
}

type RefreshReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *OrdaService) LatestNews(ctx context.Context, _ *Empty) (*LatestNewsReply, error) {
	set := s.ucNews.Latest(ctx)
	reply := &LatestNewsReply{
		Success: true,
		Data: NewsData{
			Issues: set.Issues,
			Count:  len(set.Issues),
			Source: set.Source,
		},
	}
	if !set.UpdatedAt.IsZero() {
		reply.Data.LastUpdated = &set.UpdatedAt
	}
	if set.Source == biz.SourceNone {
		reply.Message = "분석된 뉴스가 아직 없습니다. 파이프라인 실행 후 다시 시도하세요."
	}
	return reply, nil
}

func (s *OrdaService) GetIssue(ctx context.Context, req *GetIssueReq) (*GetIssueReply, error) {
	is, err := s.ucNews.Issue(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	return &GetIssueReply{Success: true, Data: is}, nil
}

func (s *OrdaService) PipelineStatus(ctx context.Context, _ *Empty) (*PipelineStatusReply, error) {
	run, err := s.ucNews.PipelineStatus(ctx)
	if err != nil {
		return nil, err
	}
	reply := &PipelineStatusReply{Success: true, Running: s.ucPipeline.Busy(), Data: run}
	if run == nil {
		reply.Message = "파이프라인 실행 기록이 없습니다. 첫 실행을 기다리는 중입니다."
	}
	return reply, nil
}

// RefreshPipeline 后台启动一次流水线
func (s *OrdaService) RefreshPipeline(ctx context.Context, _ *Empty) (*RefreshReply, error) {
	if err := s.ucPipeline.Refresh(ctx); err != nil {
		return nil, err
	}
	return &RefreshReply{Success: true, Message: "파이프라인이 백그라운드에서 시작되었습니다."}, nil
}
