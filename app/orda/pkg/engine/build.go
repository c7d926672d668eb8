package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/iWorld-y/orda/app/orda/pkg/cache"
	"github.com/iWorld-y/orda/app/orda/pkg/catalog"
	"github.com/iWorld-y/orda/app/orda/pkg/config"
	"github.com/iWorld-y/orda/app/orda/pkg/crawler"
	"github.com/iWorld-y/orda/app/orda/pkg/embedding"
	"github.com/iWorld-y/orda/app/orda/pkg/filter"
	"github.com/iWorld-y/orda/app/orda/pkg/llm"
	"github.com/iWorld-y/orda/app/orda/pkg/logger"
	"github.com/iWorld-y/orda/app/orda/pkg/metrics"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
	"github.com/iWorld-y/orda/app/orda/pkg/rag"
	"github.com/iWorld-y/orda/app/orda/pkg/scoring"
	"github.com/iWorld-y/orda/app/orda/pkg/snapshot"
	"github.com/iWorld-y/orda/app/orda/pkg/storage"
	"github.com/iWorld-y/orda/app/orda/pkg/vector"
	"github.com/iWorld-y/orda/app/orda/pkg/vector/factory"
)

// stableCrawlDelay 整体重爬的基础间隔
const stableCrawlDelay = 5 * time.Second

// Components 由配置组装出的流水线组件
type Components struct {
	Engine     *Engine
	Analyzer   *rag.Analyzer
	Explainer  *rag.Explainer
	Index      vector.Index
	Industries *catalog.Catalog
	PastIssues *catalog.Catalog

	closeIndex func()
}

// Close 释放本地资源
func (c *Components) Close() {
	if c.closeIndex != nil {
		c.closeIndex()
	}
}

// Build 按配置组装流水线。store、issues、snaps、m 都可以为 nil
func Build(ctx context.Context, cfg *config.Config, store *storage.Storage, issues cache.IssueStore, snaps snapshot.Store, m *metrics.Metrics) (*Components, error) {
	limiter := llm.NewLimiter(cfg.Concurrency)

	ragChat, err := llm.NewChatModel(ctx, cfg.LLM, cfg.LLM.Model)
	if err != nil && !errors.Is(err, llm.ErrNoModel) {
		return nil, err
	}
	filterChat, err := llm.NewChatModel(ctx, cfg.LLM, cfg.LLM.FastModel)
	if err != nil && !errors.Is(err, llm.ErrNoModel) {
		return nil, err
	}
	ragClient := llm.New(ragChat, limiter)
	filterClient := llm.New(filterChat, limiter)
	if !ragClient.Enabled() {
		logger.Log.Warn("未配置 LLM API Key，RAG 只使用向量检索，过滤按原顺序截取")
	}

	embedder := embedding.NewClient(embedding.Config{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
	})
	index, closeIndex, err := factory.NewIndex(cfg.Vector, embedder)
	if err != nil {
		return nil, fmt.Errorf("向量索引初始化失败: %w", err)
	}

	industries, pastIssues, err := LoadCatalogs(ctx, cfg.Catalog, store)
	if err != nil {
		closeIndex()
		return nil, err
	}
	logger.Log.Infof("目录加载完成: 产业 %d 条, 过去事件 %d 条", industries.Len(), pastIssues.Len())

	analyzer := rag.NewAnalyzer(index, ragClient, industries, pastIssues, rag.Options{
		TopK:               cfg.RAG.TopK,
		TopN:               cfg.RAG.TopN,
		Workers:            cfg.RAG.Workers,
		PromptCatalogLimit: cfg.RAG.PromptCatalogLimit,
		Policy:             scoring.ParseConfidencePolicy(cfg.RAG.ConfidencePolicy),
		Metrics:            m,
	})

	d := Deps{
		Crawler:   NewCrawler(cfg.Crawler),
		Filter:    filter.New(filterClient, cfg.Filter.TargetCount, cfg.RAG.Workers),
		Analyzer:  analyzer,
		Cache:     issues,
		Snapshots: snaps,
		Metrics:   m,
		Meta: snapshot.Meta{
			FilterModel: cfg.LLM.FastModel,
			RAGModel:    cfg.LLM.Model,
			AIFilter:    filterClient.Enabled(),
		},
	}
	if store != nil {
		d.Store = store
	}

	return &Components{
		Engine:     NewEngine(d),
		Analyzer:   analyzer,
		Explainer:  rag.NewExplainer(ragClient),
		Index:      index,
		Industries: industries,
		PastIssues: pastIssues,
		closeIndex: closeIndex,
	}, nil
}

// NewCrawler 按配置选择爬虫
func NewCrawler(cfg config.CrawlerConfig) crawler.Crawler {
	if cfg.Source == "file" {
		return crawler.File{Path: cfg.File}
	}
	bk := crawler.NewBigKinds(crawler.Options{
		Categories:        cfg.Categories,
		IssuesPerCategory: cfg.IssuesPerCategory,
		Headless:          cfg.Headless,
		Timeout:           config.Duration(cfg.Timeout, 15*time.Second),
	})
	return crawler.NewStable(bk, cfg.MaxAttempts, stableCrawlDelay)
}

// LoadCatalogs 优先从数据库加载目录，数据库为空或不可用时读取 CSV
func LoadCatalogs(ctx context.Context, cfg config.CatalogConfig, store *storage.Storage) (industries, pastIssues *catalog.Catalog, err error) {
	if store != nil {
		ind, past, err := store.LoadCatalogs(ctx)
		switch {
		case err != nil:
			logger.Log.Warnf("从数据库加载目录失败，改用 CSV: %v", err)
		case ind.Len() > 0 && past.Len() > 0:
			return ind, past, nil
		}
	}

	industries, err = loadCSV(model.ClassIndustry, cfg.IndustriesCSV)
	if err != nil {
		return nil, nil, err
	}
	pastIssues, err = loadCSV(model.ClassPastIssue, cfg.PastIssuesCSV)
	if err != nil {
		return nil, nil, err
	}
	return industries, pastIssues, nil
}

func loadCSV(class model.EntityClass, path string) (*catalog.Catalog, error) {
	if path == "" {
		logger.Log.Warnf("未配置 %s 目录文件", class)
		return catalog.New(class, nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s catalog: %w", class, err)
	}
	defer f.Close()
	return catalog.Load(class, f)
}

// indexBatch 单次写入索引的文档数
const indexBatch = 100

// IndexCatalogs 将目录切块后写入各自的索引命名空间，返回写入的块数
func IndexCatalogs(ctx context.Context, index vector.Index, catalogs ...*catalog.Catalog) (int, error) {
	var total int
	for _, c := range catalogs {
		ns := catalog.Namespace(c.Class())
		docs := vector.DefaultSplitter.SplitDocuments(c.Documents())
		for start := 0; start < len(docs); start += indexBatch {
			end := min(start+indexBatch, len(docs))
			if err := index.Upsert(ctx, ns, docs[start:end]); err != nil {
				return total, fmt.Errorf("upsert %s [%d:%d]: %w", ns, start, end, err)
			}
			total += end - start
		}
		logger.Log.Infof("命名空间 [%s] 写入 %d 个文档块 (目录 %d 条)", ns, len(docs), c.Len())
	}
	return total, nil
}
