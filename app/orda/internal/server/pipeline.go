package server

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/orda/app/orda/internal/biz"
	"github.com/iWorld-y/orda/app/orda/internal/conf"
	"github.com/iWorld-y/orda/app/orda/internal/data"
	"github.com/iWorld-y/orda/app/orda/internal/service"
	"github.com/iWorld-y/orda/app/orda/pkg/cache"
	"github.com/iWorld-y/orda/app/orda/pkg/config"
	"github.com/iWorld-y/orda/app/orda/pkg/engine"
	ordaLogger "github.com/iWorld-y/orda/app/orda/pkg/logger"
	"github.com/iWorld-y/orda/app/orda/pkg/metrics"
	"github.com/iWorld-y/orda/app/orda/pkg/snapshot"
)

// PipelineConfig 将 internal/conf.Pipeline 转换为 pkg/config.Config
func PipelineConfig(c *conf.Pipeline) *config.Config {
	cfg := &config.Config{}
	if c == nil {
		cfg.ApplyDefaults()
		return cfg
	}
	if c.Llm != nil {
		cfg.LLM = config.LLMConfig{
			BaseURL:   c.Llm.BaseUrl,
			APIKey:    c.Llm.ApiKey,
			Model:     c.Llm.Model,
			FastModel: c.Llm.FastModel,
		}
	}
	if c.Embedding != nil {
		cfg.Embedding = config.EmbeddingConfig{
			BaseURL: c.Embedding.BaseUrl,
			APIKey:  c.Embedding.ApiKey,
			Model:   c.Embedding.Model,
		}
	}
	if c.Vector != nil {
		cfg.Vector.Provider = c.Vector.Provider
		if c.Vector.Pinecone != nil {
			cfg.Vector.Pinecone = config.PineconeConfig{Host: c.Vector.Pinecone.Host, APIKey: c.Vector.Pinecone.ApiKey}
		}
		if c.Vector.Sqlite != nil {
			cfg.Vector.SQLite = config.SQLiteConfig{Path: c.Vector.Sqlite.Path}
		}
	}
	if c.Rag != nil {
		cfg.RAG = config.RAGConfig{
			TopK:               int(c.Rag.TopK),
			TopN:               int(c.Rag.TopN),
			Workers:            int(c.Rag.Workers),
			PromptCatalogLimit: int(c.Rag.PromptCatalogLimit),
			ConfidencePolicy:   c.Rag.ConfidencePolicy,
		}
	}
	if c.Crawler != nil {
		cfg.Crawler = config.CrawlerConfig{
			Source:            c.Crawler.Source,
			File:              c.Crawler.File,
			Categories:        c.Crawler.Categories,
			IssuesPerCategory: int(c.Crawler.IssuesPerCategory),
			Headless:          c.Crawler.Headless,
			Timeout:           c.Crawler.Timeout,
			MaxAttempts:       int(c.Crawler.MaxAttempts),
		}
	}
	if c.Filter != nil {
		cfg.Filter.TargetCount = int(c.Filter.TargetCount)
	}
	if c.Catalog != nil {
		cfg.Catalog = config.CatalogConfig{
			IndustriesCSV: c.Catalog.IndustriesCsv,
			PastIssuesCSV: c.Catalog.PastIssuesCsv,
		}
	}
	if c.Log != nil {
		cfg.Log = config.LogConfig{Level: c.Log.Level, File: c.Log.File}
	}
	if c.Concurrency != nil {
		cfg.Concurrency = config.ConcurrencyConfig{QPS: int(c.Concurrency.Qps), RPM: int(c.Concurrency.Rpm)}
	}
	cfg.ApplyDefaults()
	return cfg
}

// NewPipeline 初始化流水线组件
func NewPipeline(c *conf.Pipeline, d *data.Data, issues cache.IssueStore, snaps snapshot.Store, m *metrics.Metrics, logger log.Logger) (*engine.Components, func(), error) {
	helper := log.NewHelper(logger)
	cfg := PipelineConfig(c)

	if err := ordaLogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		helper.Errorf("failed to init pipeline logger: %v", err)
		_ = ordaLogger.InitLogger("info", "")
	}

	comps, err := engine.Build(context.Background(), cfg, d.Storage(), issues, snaps, m)
	if err != nil {
		helper.Errorf("failed to build pipeline: %v", err)
		return nil, nil, err
	}
	cleanup := func() {
		helper.Info("closing the pipeline components")
		comps.Close()
	}
	return comps, cleanup, nil
}

func NewPipelineRunner(c *engine.Components) biz.PipelineRunner { return c.Engine }

func NewTextAnalyzer(c *engine.Components) biz.TextAnalyzer { return c.Analyzer }

func NewExplainer(c *engine.Components) biz.Explainer { return c.Explainer }

// NewImportPaths 导入接口使用流水线配置的目录文件
func NewImportPaths(c *conf.Pipeline) service.ImportPaths {
	cfg := PipelineConfig(c)
	return service.ImportPaths{Industries: cfg.Catalog.IndustriesCSV, PastIssues: cfg.Catalog.PastIssuesCSV}
}
