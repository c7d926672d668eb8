package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/orda/app/orda/internal/biz"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

const issueColumns = `id, issue_number, issue_key, category, title, content, crawled_at,
	relevance_score, relevance, rank, industries, past_issues, confidence, created_at`

type newsRepo struct {
	data *Data
	log  *log.Helper
}

// NewNewsRepo 创建新闻仓库
func NewNewsRepo(data *Data, logger log.Logger) biz.NewsRepo {
	return &newsRepo{data: data, log: log.NewHelper(logger)}
}

func (r *newsRepo) db() (*sql.DB, error) {
	if r.data.store == nil {
		return nil, biz.ErrDatabaseUnavailable
	}
	return r.data.store.DB(), nil
}

func (r *newsRepo) LatestIssues(ctx context.Context) (*biz.IssueSet, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	var (
		runID     string
		completed sql.NullTime
	)
	err = db.QueryRowContext(ctx, `
		SELECT id, completed_at FROM pipeline_runs
		WHERE status = $1 ORDER BY started_at DESC LIMIT 1`, string(model.RunSuccess)).Scan(&runID, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT `+issueColumns+` FROM news_issues WHERE run_id = $1 ORDER BY rank, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query issues: %w", err)
	}
	defer rows.Close()

	set := &biz.IssueSet{RunID: runID, Source: biz.SourceDatabase, UpdatedAt: completed.Time}
	for rows.Next() {
		is, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		set.Issues = append(set.Issues, *is)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

func (r *newsRepo) GetIssue(ctx context.Context, id int64) (*model.EnrichedIssue, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	is, err := scanIssue(db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM news_issues WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, kerrors.NotFound("ISSUE_NOT_FOUND", "issue not found")
	}
	if err != nil {
		return nil, err
	}
	return is, nil
}

func (r *newsRepo) LatestRun(ctx context.Context) (*model.RunResult, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}

	var (
		run               model.RunResult
		status            string
		completed         sql.NullTime
		steps, errs, cats []byte
	)
	err = db.QueryRowContext(ctx, `
		SELECT id, status, started_at, completed_at, steps_completed, errors, categories,
			total_crawled, filtered_count, analyzed_count, average_confidence
		FROM pipeline_runs ORDER BY started_at DESC LIMIT 1`).Scan(
		&run.ID, &status, &run.StartedAt, &completed, &steps, &errs, &cats,
		&run.TotalCrawled, &run.FilteredCount, &run.AnalyzedCount, &run.AverageConfidence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}

	run.Status = model.RunStatus(status)
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	for _, f := range []struct {
		raw []byte
		dst *[]string
	}{{steps, &run.StepsCompleted}, {errs, &run.Errors}, {cats, &run.Categories}} {
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", run.ID, err)
		}
	}
	return &run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*model.EnrichedIssue, error) {
	var (
		is                    model.EnrichedIssue
		crawled               sql.NullTime
		created               time.Time
		rel, industries, past []byte
	)
	err := row.Scan(&is.ID, &is.Number, &is.Key, &is.Category, &is.Title, &is.Content, &crawled,
		&is.RelevanceScore, &rel, &is.Rank, &industries, &past, &is.Confidence, &created)
	if err != nil {
		return nil, err
	}
	is.CrawledAt = crawled.Time
	is.UpdatedAt = created
	if err := json.Unmarshal(rel, &is.Relevance); err != nil {
		return nil, fmt.Errorf("decode relevance: %w", err)
	}
	if err := json.Unmarshal(industries, &is.Industries); err != nil {
		return nil, fmt.Errorf("decode industries: %w", err)
	}
	if err := json.Unmarshal(past, &is.PastIssues); err != nil {
		return nil, fmt.Errorf("decode past issues: %w", err)
	}
	return &is, nil
}
