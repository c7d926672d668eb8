//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/iWorld-y/orda/app/orda/pkg/catalog"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("orda"),
		postgres.WithUsername("orda"),
		postgres.WithPassword("orda"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	run := &model.RunResult{ID: "run-1", StartedAt: time.Now(), Status: model.RunRunning}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	issues := []model.EnrichedIssue{{
		ScoredIssue: model.ScoredIssue{
			Issue:          model.Issue{Number: 1, Key: "경제_1", Category: "경제", Title: "금리\x00 인상", CrawledAt: time.Now()},
			RelevanceScore: 8,
			Rank:           1,
		},
		Analysis: model.Analysis{
			Industries: []model.Candidate{{Name: "금융", FinalScore: 7.1}},
			Confidence: 7.1,
		},
	}}
	if err := s.SaveIssues(ctx, run.ID, issues); err != nil {
		t.Fatalf("SaveIssues() error = %v", err)
	}
	if issues[0].ID == 0 {
		t.Error("SaveIssues should fill ids")
	}

	done := time.Now()
	run.CompletedAt = &done
	run.Status = model.RunSuccess
	run.StepsCompleted = []string{"crawling_and_filtering"}
	if err := s.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	var status string
	if err := s.DB().QueryRowContext(ctx, `SELECT status FROM pipeline_runs WHERE id = $1`, run.ID).Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != "success" {
		t.Errorf("status = %s", status)
	}
}

func TestImportAndLoadCatalogs(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if _, err := s.ImportIndustries(ctx, []catalog.Entry{{Name: "반도체", Description: "칩"}, {Name: "화학"}}); err != nil {
		t.Fatal(err)
	}
	// 重复导入覆盖描述
	if _, err := s.ImportIndustries(ctx, []catalog.Entry{{Name: "반도체", Description: "메모리"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ImportPastIssues(ctx, []catalog.Entry{{ID: "1", Name: "IMF 외환위기", StartDate: "1997-11", EndDate: "2001-08"}}); err != nil {
		t.Fatal(err)
	}

	ind, past, err := s.LoadCatalogs(ctx)
	if err != nil {
		t.Fatalf("LoadCatalogs() error = %v", err)
	}
	if ind.Len() != 2 || ind.DescriptionOf("반도체") != "메모리" {
		t.Errorf("industries = %v", ind.Names(0))
	}
	if past.PeriodOf("IMF 외환위기") != "1997-11 ~ 2001-08" {
		t.Errorf("period = %q", past.PeriodOf("IMF 외환위기"))
	}

	if err := s.SaveSimulation(ctx, SimulationRecord{ScenarioID: "PN_006", Amount: 1000000, Period: 6, Stocks: []string{"005930"}}); err != nil {
		t.Errorf("SaveSimulation() error = %v", err)
	}
}
