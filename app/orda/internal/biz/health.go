package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// 组件状态
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusError    = "error"
	StatusDisabled = "disabled"
)

const healthTimeout = 3 * time.Second

// HealthCheck 单个组件的检查，Check 返回附加信息
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) (detail any, err error)
}

// ComponentHealth 组件状态
type ComponentHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail any    `json:"detail,omitempty"`
}

// HealthReport 整体状态
type HealthReport struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthUseCase 健康检查
type HealthUseCase struct {
	checks []HealthCheck
	log    *log.Helper
}

// NewHealthUseCase 创建健康检查实例
func NewHealthUseCase(checks []HealthCheck, logger log.Logger) *HealthUseCase {
	return &HealthUseCase{checks: checks, log: log.NewHelper(logger)}
}

// Check 逐个检查组件，未启用的组件不影响整体状态
func (uc *HealthUseCase) Check(ctx context.Context) *HealthReport {
	r := &HealthReport{
		Status:     StatusOK,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth, len(uc.checks)),
	}
	for _, c := range uc.checks {
		cctx, cancel := context.WithTimeout(ctx, healthTimeout)
		detail, err := c.Check(cctx)
		cancel()

		h := ComponentHealth{Name: c.Name, Status: StatusOK, Detail: detail}
		switch {
		case errors.Is(err, ErrDatabaseUnavailable):
			h.Status = StatusDisabled
		case err != nil:
			h.Status = StatusError
			h.Detail = err.Error()
			r.Status = StatusDegraded
			uc.log.Warnf("health check %s failed: %v", c.Name, err)
		}
		r.Components[c.Name] = h
	}
	return r
}
