// Package storage 负责流水线结果与目录数据的 PostgreSQL 持久化。
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "github.com/lib/pq"

	"github.com/iWorld-y/orda/app/orda/pkg/catalog"
	"github.com/iWorld-y/orda/app/orda/pkg/config"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
)

// Storage PostgreSQL 存储
type Storage struct {
	db *sql.DB
}

// DSN 由配置生成连接串
func DSN(cfg config.DBConfig) string {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, port, cfg.User, cfg.Password, cfg.Name, sslmode)
}

// NewStorage 连接数据库并初始化表结构
func NewStorage(cfg config.DBConfig) (*Storage, error) {
	return Open(DSN(cfg))
}

// Open 使用连接串打开存储
func Open(dsn string) (*Storage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// DB 底层连接，供只读查询复用
func (s *Storage) DB() *sql.DB { return s.db }

// Close 关闭连接
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping 检查连接
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS industries (
			id SERIAL PRIMARY KEY,
			krx_name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS past_issues (
			id TEXT PRIMARY KEY,
			issue_name TEXT NOT NULL,
			contents TEXT NOT NULL DEFAULT '',
			related_industries TEXT NOT NULL DEFAULT '',
			industry_reason TEXT NOT NULL DEFAULT '',
			start_date TEXT NOT NULL DEFAULT '',
			end_date TEXT NOT NULL DEFAULT '',
			evidence_source TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS pipeline_runs (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ,
			steps_completed JSONB NOT NULL DEFAULT '[]',
			errors JSONB NOT NULL DEFAULT '[]',
			categories JSONB NOT NULL DEFAULT '[]',
			total_crawled INTEGER NOT NULL DEFAULT 0,
			filtered_count INTEGER NOT NULL DEFAULT 0,
			analyzed_count INTEGER NOT NULL DEFAULT 0,
			average_confidence DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS news_issues (
			id SERIAL PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES pipeline_runs(id),
			issue_number INTEGER NOT NULL,
			issue_key TEXT NOT NULL,
			category TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			crawled_at TIMESTAMPTZ,
			relevance_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			relevance JSONB NOT NULL DEFAULT '{}',
			rank INTEGER NOT NULL,
			industries JSONB NOT NULL DEFAULT '[]',
			past_issues JSONB NOT NULL DEFAULT '[]',
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_news_issues_run ON news_issues(run_id, rank)`,
		`CREATE TABLE IF NOT EXISTS simulation_results (
			id SERIAL PRIMARY KEY,
			scenario_id TEXT NOT NULL,
			investment_amount BIGINT NOT NULL,
			investment_period INTEGER NOT NULL,
			selected_stocks JSONB NOT NULL,
			total_return_pct DOUBLE PRECISION NOT NULL,
			final_amount BIGINT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}
	return nil
}

// CreateRun 写入一条运行中的记录
func (s *Storage) CreateRun(ctx context.Context, run *model.RunResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (id, status, started_at)
		VALUES ($1, $2, $3)`,
		run.ID, string(run.Status), run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pipeline run: %w", err)
	}
	return nil
}

// FinishRun 更新运行的最终状态与统计
func (s *Storage) FinishRun(ctx context.Context, run *model.RunResult) error {
	steps, _ := json.Marshal(nonNil(run.StepsCompleted))
	errs, _ := json.Marshal(nonNil(run.Errors))
	cats, _ := json.Marshal(nonNil(run.Categories))
	_, err := s.db.ExecContext(ctx, `
		UPDATE pipeline_runs SET
			status = $2, completed_at = $3, steps_completed = $4, errors = $5, categories = $6,
			total_crawled = $7, filtered_count = $8, analyzed_count = $9, average_confidence = $10
		WHERE id = $1`,
		run.ID, string(run.Status), run.CompletedAt, string(steps), string(errs), string(cats),
		run.TotalCrawled, run.FilteredCount, run.AnalyzedCount, run.AverageConfidence)
	if err != nil {
		return fmt.Errorf("failed to update pipeline run: %w", err)
	}
	return nil
}

// SaveIssues 在一个事务中保存运行的分析结果，并回填 ID
func (s *Storage) SaveIssues(ctx context.Context, runID string, issues []model.EnrichedIssue) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = fmt.Errorf("%w: %v", err, rerr)
			}
		}
	}()

	for i := range issues {
		is := &issues[i]
		rel, err := json.Marshal(is.Relevance)
		if err != nil {
			return err
		}
		ind, err := json.Marshal(nonNil(is.Industries))
		if err != nil {
			return err
		}
		past, err := json.Marshal(nonNil(is.PastIssues))
		if err != nil {
			return err
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO news_issues (run_id, issue_number, issue_key, category, title, content, crawled_at,
				relevance_score, relevance, rank, industries, past_issues, confidence)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id`,
			runID, is.Number, is.Key, sanitize(is.Category), sanitize(is.Title), sanitize(is.Content), is.CrawledAt,
			is.RelevanceScore, string(rel), is.Rank, string(ind), string(past), is.Confidence,
		).Scan(&is.ID)
		if err != nil {
			return fmt.Errorf("failed to insert news issue: %w", err)
		}
	}
	return tx.Commit()
}

// ImportIndustries 按产业名 upsert
func (s *Storage) ImportIndustries(ctx context.Context, entries []catalog.Entry) (n int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = fmt.Errorf("%w: %v", err, rerr)
			}
		}
	}()

	for _, e := range entries {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO industries (krx_name, description) VALUES ($1, $2)
			ON CONFLICT (krx_name) DO UPDATE SET description = EXCLUDED.description`,
			sanitize(e.Name), sanitize(e.Description))
		if err != nil {
			return 0, fmt.Errorf("failed to import industry %s: %w", e.Name, err)
		}
		n++
	}
	return n, tx.Commit()
}

// ImportPastIssues 按 ID upsert
func (s *Storage) ImportPastIssues(ctx context.Context, entries []catalog.Entry) (n int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = fmt.Errorf("%w: %v", err, rerr)
			}
		}
	}()

	for _, e := range entries {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO past_issues (id, issue_name, contents, related_industries, industry_reason,
				start_date, end_date, evidence_source)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				issue_name = EXCLUDED.issue_name, contents = EXCLUDED.contents,
				related_industries = EXCLUDED.related_industries, industry_reason = EXCLUDED.industry_reason,
				start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date,
				evidence_source = EXCLUDED.evidence_source`,
			e.ID, sanitize(e.Name), sanitize(e.Description), sanitize(e.RelatedIndustries),
			sanitize(e.IndustryReason), e.StartDate, e.EndDate, sanitize(e.EvidenceSource))
		if err != nil {
			return 0, fmt.Errorf("failed to import past issue %s: %w", e.ID, err)
		}
		n++
	}
	return n, tx.Commit()
}

// LoadCatalogs 从数据库构建两个目录
func (s *Storage) LoadCatalogs(ctx context.Context) (industries, pastIssues *catalog.Catalog, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT krx_name, description FROM industries ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("query industries: %w", err)
	}
	var ind []catalog.Entry
	for rows.Next() {
		var e catalog.Entry
		if err := rows.Scan(&e.Name, &e.Description); err != nil {
			rows.Close()
			return nil, nil, err
		}
		ind = append(ind, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, issue_name, contents, related_industries, industry_reason, start_date, end_date, evidence_source
		FROM past_issues ORDER BY created_at, id`)
	if err != nil {
		return nil, nil, fmt.Errorf("query past issues: %w", err)
	}
	defer rows.Close()
	var past []catalog.Entry
	for rows.Next() {
		var e catalog.Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.RelatedIndustries, &e.IndustryReason,
			&e.StartDate, &e.EndDate, &e.EvidenceSource); err != nil {
			return nil, nil, err
		}
		e.Period = catalog.FormatPeriod(e.StartDate, e.EndDate)
		past = append(past, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return catalog.New(model.ClassIndustry, ind), catalog.New(model.ClassPastIssue, past), nil
}

// SimulationRecord 一次模拟投资的存档
type SimulationRecord struct {
	ScenarioID     string
	Amount         int64
	Period         int
	Stocks         any
	TotalReturnPct float64
	FinalAmount    int64
	CreatedAt      time.Time
}

// SaveSimulation 保存模拟结果
func (s *Storage) SaveSimulation(ctx context.Context, r SimulationRecord) error {
	stocks, err := json.Marshal(r.Stocks)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO simulation_results (scenario_id, investment_amount, investment_period, selected_stocks,
			total_return_pct, final_amount)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ScenarioID, r.Amount, r.Period, string(stocks), r.TotalReturnPct, r.FinalAmount)
	if err != nil {
		return fmt.Errorf("failed to insert simulation result: %w", err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// sanitize PostgreSQL 文本不接受 NUL 与非法 UTF-8
func sanitize(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.ReplaceAll(s, "\x00", "")
}
