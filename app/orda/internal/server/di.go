package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/orda/app/orda/internal/biz"
	"github.com/iWorld-y/orda/app/orda/internal/data"
	"github.com/iWorld-y/orda/app/orda/internal/service"
)

// ProviderSet 是 Orda 服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,
	NewProgressHub,
	NewScheduler,
	NewMetrics,
	NewTracerProvider,
	NewHealthChecks,
	wire.Bind(new(biz.ProgressPublisher), new(*ProgressHub)),

	// Pipeline providers
	NewPipeline,
	NewPipelineRunner,
	NewTextAnalyzer,
	NewExplainer,
	NewImportPaths,
	NewSimulator,

	// Data providers
	data.NewData,
	data.NewIssueStore,
	data.NewSnapshotStore,
	data.NewNewsRepo,
	data.NewCatalogRepo,
	data.NewSimulationRepo,
	data.NewArticleFetcher,

	// UseCase providers
	biz.NewNewsUseCase,
	biz.NewPipelineUseCase,
	biz.NewAnalysisUseCase,
	biz.NewSimulationUseCase,
	biz.NewCatalogUseCase,
	biz.NewHealthUseCase,

	// Service providers
	service.NewOrdaService,
)
