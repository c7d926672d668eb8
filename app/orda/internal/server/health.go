package server

import (
	"context"

	"github.com/iWorld-y/orda/app/orda/internal/biz"
	"github.com/iWorld-y/orda/app/orda/internal/conf"
	"github.com/iWorld-y/orda/app/orda/internal/data"
	"github.com/iWorld-y/orda/app/orda/pkg/cache"
	"github.com/iWorld-y/orda/app/orda/pkg/engine"
	"github.com/iWorld-y/orda/app/orda/pkg/simulation"
)

// NewHealthChecks 组装各组件的健康检查
func NewHealthChecks(d *data.Data, issues cache.IssueStore, comps *engine.Components, c *conf.Pipeline, sim *simulation.Simulator) []biz.HealthCheck {
	crawler := PipelineConfig(c).Crawler
	return []biz.HealthCheck{
		{Name: "database", Check: func(ctx context.Context) (any, error) {
			if err := d.Ping(ctx); err != nil {
				return nil, err
			}
			return "connected", nil
		}},
		{Name: "cache", Check: func(ctx context.Context) (any, error) {
			if err := issues.Ping(ctx); err != nil {
				return nil, err
			}
			_, ok, err := issues.Latest(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]bool{"has_data": ok}, nil
		}},
		{Name: "vector_index", Check: func(ctx context.Context) (any, error) {
			st, err := comps.Index.Stats(ctx)
			if err != nil {
				return nil, err
			}
			return st, nil
		}},
		{Name: "catalog", Check: func(context.Context) (any, error) {
			return map[string]int{
				"industries":  comps.Industries.Len(),
				"past_issues": comps.PastIssues.Len(),
			}, nil
		}},
		{Name: "crawler", Check: func(context.Context) (any, error) {
			return map[string]any{
				"source":     crawler.Source,
				"categories": crawler.Categories,
				"running":    comps.Engine.Busy(),
			}, nil
		}},
		{Name: "simulation", Check: func(context.Context) (any, error) {
			return map[string]int{"scenarios": len(sim.Scenarios())}, nil
		}},
	}
}
