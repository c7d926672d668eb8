package service

import (
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/orda/app/orda/internal/biz"
)

// OrdaService 对外 HTTP 接口
type OrdaService struct {
	ucNews       *biz.NewsUseCase
	ucPipeline   *biz.PipelineUseCase
	ucAnalysis   *biz.AnalysisUseCase
	ucSimulation *biz.SimulationUseCase
	ucCatalog    *biz.CatalogUseCase
	ucHealth     *biz.HealthUseCase
	imports      ImportPaths
	log          *log.Helper
}

// ImportPaths 导入接口读取的 CSV 路径
type ImportPaths struct {
	Industries string
	PastIssues string
}

func NewOrdaService(
	ucNews *biz.NewsUseCase,
	ucPipeline *biz.PipelineUseCase,
	ucAnalysis *biz.AnalysisUseCase,
	ucSimulation *biz.SimulationUseCase,
	ucCatalog *biz.CatalogUseCase,
	ucHealth *biz.HealthUseCase,
	imports ImportPaths,
	logger log.Logger,
) *OrdaService {
	return &OrdaService{
		ucNews:       ucNews,
		ucPipeline:   ucPipeline,
		ucAnalysis:   ucAnalysis,
		ucSimulation: ucSimulation,
		ucCatalog:    ucCatalog,
		ucHealth:     ucHealth,
		imports:      imports,
		log:          log.NewHelper(logger),
	}
}

// Empty 无参数请求
type Empty struct{}
