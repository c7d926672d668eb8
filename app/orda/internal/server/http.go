package server

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/auth/jwt"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/middleware/selector"
	"github.com/go-kratos/kratos/v2/middleware/tracing"
	"github.com/go-kratos/kratos/v2/transport/http"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/iWorld-y/orda/app/orda/internal/conf"
	"github.com/iWorld-y/orda/app/orda/internal/service"
)

// NewHTTPServer 创建 HTTP 服务并挂载指标与进度推送接口
func NewHTTPServer(c *conf.Server, auth *conf.Auth, s *service.OrdaService, hub *ProgressHub, gatherer prometheus.Gatherer, tp trace.TracerProvider, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			tracing.Server(tracing.WithTracerProvider(tp)),
			logging.Server(logger),
			adminAuth(auth),
		),
	}
	if c != nil && c.Http != nil {
		if c.Http.Addr != "" {
			opts = append(opts, http.Address(c.Http.Addr))
		}
		if c.Http.Timeout != "" {
			if d, err := time.ParseDuration(c.Http.Timeout); err == nil {
				opts = append(opts, http.Timeout(d))
			}
		}
		if len(c.Http.CorsOrigins) > 0 {
			opts = append(opts, http.Filter(corsFilter(c.Http.CorsOrigins)))
		}
	}

	srv := http.NewServer(opts...)
	registerRoutes(srv, s)

	srv.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv.HandleFunc("/api/pipeline/progress", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		hub.ServeHTTP(w, r)
	})
	return srv
}

// registerRoutes 注册业务路由
func registerRoutes(srv *http.Server, s *service.OrdaService) {
	r := srv.Route("/")
	handle(r, "GET", "/health", OperationHealth, s.Health)

	handle(r, "GET", "/api/news/latest", OperationLatestNews, s.LatestNews)
	handle(r, "GET", "/api/news/issue/{id}", OperationGetIssue, s.GetIssue)
	handle(r, "GET", "/api/news/pipeline-status", OperationPipelineStatus, s.PipelineStatus)
	handle(r, "POST", "/api/pipeline/refresh", OperationRefreshPipeline, s.RefreshPipeline)

	handle(r, "POST", "/api/analysis/analyze", OperationAnalyze, s.Analyze)

	handle(r, "GET", "/api/simulation/scenarios", OperationScenarios, s.Scenarios)
	handle(r, "GET", "/api/simulation/scenarios/{id}/recommended-stocks", OperationRecommendedStocks, s.RecommendedStocks)
	handle(r, "POST", "/api/simulation/validate-simulation", OperationValidateSimulation, s.ValidateSimulation)
	handle(r, "POST", "/api/simulation/run-simulation", OperationRunSimulation, s.RunSimulation)
	handle(r, "GET", "/api/simulation/companies", OperationCompanies, s.Companies)

	handle(r, "GET", "/api/database/industries", OperationListIndustries, s.ListIndustries)
	handle(r, "GET", "/api/database/past-issues", OperationListPastIssues, s.ListPastIssues)
	handle(r, "GET", "/api/database/stats", OperationDatabaseStats, s.DatabaseStats)
	handle(r, "POST", "/api/database/import", OperationImportCatalogs, s.ImportCatalogs)
}

// adminAuth 管理操作校验 HS256 令牌
func adminAuth(auth *conf.Auth) middleware.Middleware {
	key := []byte(JWTKey(auth))
	return selector.Server(
		jwt.Server(func(*jwtv5.Token) (any, error) {
			return key, nil
		}, jwt.WithSigningMethod(jwtv5.SigningMethodHS256)),
	).Match(func(ctx context.Context, operation string) bool {
		return adminOperations[operation]
	}).Build()
}

// JWTKey 未配置时使用默认密钥
func JWTKey(auth *conf.Auth) string {
	if auth != nil && auth.JwtKey != "" {
		return auth.JwtKey
	}
	return "default-secret"
}
