package data

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/orda/app/orda/internal/biz"
	"github.com/iWorld-y/orda/app/orda/pkg/storage"
)

type simulationRepo struct {
	data *Data
	log  *log.Helper
}

// NewSimulationRepo 创建模拟结果仓库
func NewSimulationRepo(data *Data, logger log.Logger) biz.SimulationRepo {
	return &simulationRepo{data: data, log: log.NewHelper(logger)}
}

func (r *simulationRepo) SaveSimulation(ctx context.Context, rec storage.SimulationRecord) error {
	if r.data.store == nil {
		return biz.ErrDatabaseUnavailable
	}
	return r.data.store.SaveSimulation(ctx, rec)
}
