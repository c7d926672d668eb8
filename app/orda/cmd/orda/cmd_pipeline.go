package main

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"

	"github.com/iWorld-y/orda/app/orda/internal/data"
	"github.com/iWorld-y/orda/app/orda/internal/server"
	"github.com/iWorld-y/orda/app/orda/pkg/cache"
	"github.com/iWorld-y/orda/app/orda/pkg/config"
	"github.com/iWorld-y/orda/app/orda/pkg/engine"
	ordaLogger "github.com/iWorld-y/orda/app/orda/pkg/logger"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
	"github.com/iWorld-y/orda/app/orda/pkg/snapshot"
	"github.com/iWorld-y/orda/app/orda/pkg/storage"
)

var pipelineConf string

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the crawl, filter and RAG analysis pipeline once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var (
			comps   *engine.Components
			cleanup func()
			err     error
		)
		if pipelineConf != "" {
			comps, cleanup, err = standalonePipeline(cmd.Context(), pipelineConf)
		} else {
			comps, cleanup, err = servicePipeline()
		}
		if err != nil {
			return err
		}
		defer cleanup()

		helper := log.NewHelper(newLogger())
		run, err := comps.Engine.Run(cmd.Context(), engine.RunOptions{
			ProgressCallback: func(status string, progress int) {
				helper.Infof("[%3d%%] %s", progress, status)
			},
		})
		if run != nil {
			printRun(cmd, run)
		}
		return err
	},
}

func init() {
	pipelineCmd.Flags().StringVar(&pipelineConf, "pipeline-conf", "", "standalone pipeline yaml, bypasses the service config, eg: --pipeline-conf pipeline.yaml")
}

// servicePipeline 复用服务配置中的数据库、缓存与快照
func servicePipeline() (*engine.Components, func(), error) {
	bc, closeConf, err := loadBootstrap()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger()

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	cleanups = append(cleanups, closeConf)

	d, cleanupData, err := data.NewData(bc.Data, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, cleanupData)
	issues, cleanupCache, err := data.NewIssueStore(bc.Data, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, cleanupCache)
	snaps, err := data.NewSnapshotStore(bc.Data)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	comps, cleanupPipeline, err := server.NewPipeline(bc.Pipeline, d, issues, snaps, nil, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, cleanupPipeline)
	return comps, cleanup, nil
}

// standalonePipeline 只依赖流水线自身的 yaml 配置
func standalonePipeline(ctx context.Context, path string) (*engine.Components, func(), error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load pipeline config: %w", err)
	}
	if err := ordaLogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var store *storage.Storage
	if cfg.DB.Host != "" {
		store, err = storage.NewStorage(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { store.Close() })
	} else {
		ordaLogger.Log.Warn("未配置数据库，运行结果只写入缓存与快照")
	}

	issues, closeCache, err := cache.New(cfg.Cache)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, closeCache)

	snaps, err := snapshot.New(ctx, cfg.Snapshot)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	comps, err := engine.Build(ctx, cfg, store, issues, snaps, nil)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, comps.Close)
	return comps, cleanup, nil
}

func printRun(cmd *cobra.Command, run *model.RunResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "pipeline:    %s\n", run.ID)
	fmt.Fprintf(out, "status:      %s\n", run.Status)
	fmt.Fprintf(out, "crawled:     %d\n", run.TotalCrawled)
	fmt.Fprintf(out, "filtered:    %d\n", run.FilteredCount)
	fmt.Fprintf(out, "analyzed:    %d\n", run.AnalyzedCount)
	fmt.Fprintf(out, "confidence:  %.2f\n", run.AverageConfidence)
	fmt.Fprintf(out, "duration:    %s\n", run.ExecutionTime())
	for _, e := range run.Errors {
		fmt.Fprintf(out, "error:       %s\n", e)
	}
}
