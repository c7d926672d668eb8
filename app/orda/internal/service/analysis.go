package service

import (
	"context"

	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

type AnalyzeReq struct {
	Content string `json:"content"`
	Url     string `json:"url"`
}

type AnalyzeReply struct {
	Success     bool              `json:"success"`
	Title       string            `json:"title,omitempty"`
	Explanation string            `json:"explanation"`
	Confidence  float64           `json:"confidence"`
	Industries  []model.Candidate `json:"industries"`
	PastIssues  []model.Candidate `json:"past_issues"`
}

func (s *OrdaService) Analyze(ctx context.Context, req *AnalyzeReq) (*AnalyzeReply, error) {
	res, err := s.ucAnalysis.Analyze(ctx, req.Content, req.Url)
	if err != nil {
		return nil, err
	}
	return &AnalyzeReply{
		Success:     true,
		Title:       res.Title,
		Explanation: res.Explanation,
		Confidence:  res.Confidence,
		Industries:  nonNil(res.Industries),
		PastIssues:  nonNil(res.PastIssues),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
