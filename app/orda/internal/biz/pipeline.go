package biz

import (
	"context"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/orda/app/orda/pkg/engine"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

// ErrPipelineRunning 已有运行中的流水线
var ErrPipelineRunning = errors.Conflict("PIPELINE_RUNNING", "pipeline is already running")

// ProgressEvent 流水线进度
type ProgressEvent struct {
	Status   string    `json:"status"`
	Progress int       `json:"progress"`
	Time     time.Time `json:"time"`
}

// ProgressPublisher 进度推送
type ProgressPublisher interface {
	Publish(ev ProgressEvent)
}

// PipelineRunner 流水线执行器
type PipelineRunner interface {
	Run(ctx context.Context, opts engine.RunOptions) (*model.RunResult, error)
	Busy() bool
}

// PipelineUseCase 流水线触发
type PipelineUseCase struct {
	runner    PipelineRunner
	publisher ProgressPublisher
	log       *log.Helper
	wg        sync.WaitGroup
}

// NewPipelineUseCase 创建流水线业务逻辑实例
func NewPipelineUseCase(runner PipelineRunner, publisher ProgressPublisher, logger log.Logger) *PipelineUseCase {
	return &PipelineUseCase{runner: runner, publisher: publisher, log: log.NewHelper(logger)}
}

// Busy 是否在运行
func (uc *PipelineUseCase) Busy() bool {
	return uc.runner.Busy()
}

// Run 同步执行一次
func (uc *PipelineUseCase) Run(ctx context.Context) (*model.RunResult, error) {
	run, err := uc.runner.Run(ctx, engine.RunOptions{ProgressCallback: uc.publish})
	if errors.Is(err, engine.ErrRunInProgress) {
		return nil, ErrPipelineRunning
	}
	return run, err
}

// Refresh 在后台启动一次运行，不等待结果
func (uc *PipelineUseCase) Refresh(ctx context.Context) error {
	if uc.runner.Busy() {
		return ErrPipelineRunning
	}
	bg := context.WithoutCancel(ctx)
	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		run, err := uc.Run(bg)
		switch {
		case errors.Is(err, ErrPipelineRunning):
			uc.log.Warn("pipeline refresh skipped: already running")
		case err != nil:
			uc.log.Errorf("pipeline refresh failed: %v", err)
		default:
			uc.log.Infof("pipeline %s finished with %d issues", run.ID, run.AnalyzedCount)
		}
	}()
	return nil
}

// Wait 等待后台运行结束
func (uc *PipelineUseCase) Wait() {
	uc.wg.Wait()
}

func (uc *PipelineUseCase) publish(status string, progress int) {
	if uc.publisher == nil {
		return
	}
	uc.publisher.Publish(ProgressEvent{Status: status, Progress: progress, Time: time.Now()})
}
