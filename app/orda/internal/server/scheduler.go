package server

import (
	"context"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/orda/app/orda/internal/biz"
	"github.com/iWorld-y/orda/app/orda/internal/conf"
	"github.com/iWorld-y/orda/app/orda/pkg/config"
)

// Scheduler 按固定间隔触发流水线，实现 transport.Server
type Scheduler struct {
	uc       *biz.PipelineUseCase
	interval time.Duration
	stop     chan struct{}
	once     sync.Once
	log      *log.Helper
}

// NewScheduler 间隔为空或非法时不定时运行
func NewScheduler(c *conf.Pipeline, uc *biz.PipelineUseCase, logger log.Logger) *Scheduler {
	var interval time.Duration
	if c != nil {
		interval = config.Duration(c.Interval, 0)
	}
	return &Scheduler{uc: uc, interval: interval, stop: make(chan struct{}), log: log.NewHelper(logger)}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		s.log.Info("pipeline scheduler disabled")
		return nil
	}
	s.log.Infof("pipeline scheduler started, interval %s", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	err := s.uc.Refresh(ctx)
	switch {
	case errors.Is(err, biz.ErrPipelineRunning):
		s.log.Info("scheduled pipeline skipped: previous run still in progress")
	case err != nil:
		s.log.Errorf("scheduled pipeline failed to start: %v", err)
	}
}

// Stop 停止定时并等待运行中的流水线结束
func (s *Scheduler) Stop(ctx context.Context) error {
	s.once.Do(func() { close(s.stop) })
	done := make(chan struct{})
	go func() {
		s.uc.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
