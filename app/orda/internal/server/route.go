package server

import (
	"context"
	nethttp "net/http"

	"github.com/go-kratos/kratos/v2/transport/http"
)

// 接口操作名，用于中间件匹配
const (
	OperationHealth             = "/orda.v1.Orda/Health"
	OperationLatestNews         = "/orda.v1.Orda/LatestNews"
	OperationGetIssue           = "/orda.v1.Orda/GetIssue"
	OperationPipelineStatus     = "/orda.v1.Orda/PipelineStatus"
	OperationRefreshPipeline    = "/orda.v1.Orda/RefreshPipeline"
	OperationAnalyze            = "/orda.v1.Orda/Analyze"
	OperationScenarios          = "/orda.v1.Orda/Scenarios"
	OperationRecommendedStocks  = "/orda.v1.Orda/RecommendedStocks"
	OperationValidateSimulation = "/orda.v1.Orda/ValidateSimulation"
	OperationRunSimulation      = "/orda.v1.Orda/RunSimulation"
	OperationCompanies          = "/orda.v1.Orda/Companies"
	OperationListIndustries     = "/orda.v1.Orda/ListIndustries"
	OperationListPastIssues     = "/orda.v1.Orda/ListPastIssues"
	OperationDatabaseStats      = "/orda.v1.Orda/DatabaseStats"
	OperationImportCatalogs     = "/orda.v1.Orda/ImportCatalogs"
)

// adminOperations 需要管理员令牌的操作
var adminOperations = map[string]bool{
	OperationRefreshPipeline: true,
	OperationImportCatalogs:  true,
}

// handle 将业务方法注册为路由：先经过中间件链（含鉴权），再绑定请求体、查询参数与路径变量
func handle[Req, Reply any](r *http.Router, method, path, operation string, fn func(context.Context, *Req) (*Reply, error)) {
	r.Handle(method, path, func(ctx http.Context) error {
		http.SetOperation(ctx, operation)
		h := ctx.Middleware(func(c context.Context, req any) (any, error) {
			in := req.(*Req)
			if hasBody(ctx.Request()) {
				if err := ctx.Bind(in); err != nil {
					return nil, err
				}
			}
			if err := ctx.BindQuery(in); err != nil {
				return nil, err
			}
			if err := ctx.BindVars(in); err != nil {
				return nil, err
			}
			return fn(c, in)
		})
		out, err := h(ctx, new(Req))
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, out)
	})
}

// hasBody GET 与不带内容的请求不解码请求体
func hasBody(r *nethttp.Request) bool {
	if r.Method == nethttp.MethodGet || r.Body == nil || r.Body == nethttp.NoBody {
		return false
	}
	return r.ContentLength != 0 || r.Header.Get("Content-Type") != ""
}
