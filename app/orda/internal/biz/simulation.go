package biz

import (
	"context"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/orda/app/orda/pkg/simulation"
	"github.com/iWorld-y/orda/app/orda/pkg/storage"
)

// SimulationRepo 模拟结果仓库接口
type SimulationRepo interface {
	SaveSimulation(ctx context.Context, rec storage.SimulationRecord) error
}

// SimulationUseCase 模拟投资业务逻辑
type SimulationUseCase struct {
	sim  *simulation.Simulator
	repo SimulationRepo
	log  *log.Helper
}

// NewSimulationUseCase 创建模拟投资业务逻辑实例
func NewSimulationUseCase(sim *simulation.Simulator, repo SimulationRepo, logger log.Logger) *SimulationUseCase {
	return &SimulationUseCase{sim: sim, repo: repo, log: log.NewHelper(logger)}
}

func (uc *SimulationUseCase) Scenarios() []simulation.ScenarioView {
	return uc.sim.Scenarios()
}

func (uc *SimulationUseCase) Recommended(scenarioID string) (map[string][]simulation.Stock, error) {
	rec, ok := uc.sim.Recommended(scenarioID)
	if !ok {
		return nil, errors.NotFound("RECOMMENDATION_NOT_FOUND", "해당 시나리오의 추천 종목을 찾을 수 없습니다.")
	}
	return rec, nil
}

func (uc *SimulationUseCase) Validate(req simulation.Request) simulation.Validation {
	return uc.sim.Validate(req)
}

func (uc *SimulationUseCase) Companies(sector, query string) []simulation.Company {
	return uc.sim.Companies(sector, query)
}

// Run 校验后执行模拟并保存结果，保存失败只记录日志
func (uc *SimulationUseCase) Run(ctx context.Context, req simulation.Request) (*simulation.Result, error) {
	v := uc.sim.Validate(req)
	if !v.Valid {
		return nil, errors.BadRequest("INVALID_SIMULATION", strings.Join(v.Errors, " ")).WithMetadata(map[string]string{
			"errors":   strings.Join(v.Errors, "\n"),
			"warnings": strings.Join(v.Warnings, "\n"),
		})
	}

	res, err := uc.sim.Run(ctx, req)
	if err != nil {
		return nil, errors.InternalServer("SIMULATION_FAILED", "시뮬레이션 실행 중 오류: "+err.Error())
	}

	rec := storage.SimulationRecord{
		ScenarioID:     req.ScenarioID,
		Amount:         req.Amount,
		Period:         req.Period,
		Stocks:         req.Stocks,
		TotalReturnPct: res.Results.TotalReturnPct,
		FinalAmount:    res.Results.FinalAmount,
	}
	if err := uc.repo.SaveSimulation(ctx, rec); err != nil {
		uc.log.Warnf("save simulation result failed: %v", err)
	}
	return res, nil
}
