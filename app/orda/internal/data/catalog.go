package data

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/orda/app/orda/internal/biz"
	"github.com/iWorld-y/orda/app/orda/pkg/catalog"
)

type catalogRepo struct {
	data *Data
	log  *log.Helper
}

// NewCatalogRepo 创建目录仓库
func NewCatalogRepo(data *Data, logger log.Logger) biz.CatalogRepo {
	return &catalogRepo{data: data, log: log.NewHelper(logger)}
}

func (r *catalogRepo) ListIndustries(ctx context.Context, search string, limit int) ([]*biz.Industry, error) {
	if r.data.store == nil {
		return nil, biz.ErrDatabaseUnavailable
	}
	rows, err := r.data.store.DB().QueryContext(ctx, `
		SELECT krx_name, description FROM industries
		WHERE $1 = '' OR krx_name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
		ORDER BY id LIMIT $2`, search, limit)
	if err != nil {
		return nil, fmt.Errorf("query industries: %w", err)
	}
	defer rows.Close()

	list := make([]*biz.Industry, 0)
	for rows.Next() {
		var in biz.Industry
		if err := rows.Scan(&in.KrxName, &in.Description); err != nil {
			return nil, err
		}
		list = append(list, &in)
	}
	return list, rows.Err()
}

func (r *catalogRepo) ListPastIssues(ctx context.Context, search, industry string, limit int) ([]*biz.PastIssue, error) {
	if r.data.store == nil {
		return nil, biz.ErrDatabaseUnavailable
	}
	rows, err := r.data.store.DB().QueryContext(ctx, `
		SELECT id, issue_name, contents, related_industries, start_date, end_date FROM past_issues
		WHERE ($1 = '' OR issue_name ILIKE '%' || $1 || '%' OR contents ILIKE '%' || $1 || '%')
			AND ($2 = '' OR related_industries ILIKE '%' || $2 || '%')
		ORDER BY start_date DESC, id LIMIT $3`, search, industry, limit)
	if err != nil {
		return nil, fmt.Errorf("query past issues: %w", err)
	}
	defer rows.Close()

	list := make([]*biz.PastIssue, 0)
	for rows.Next() {
		var p biz.PastIssue
		if err := rows.Scan(&p.ID, &p.IssueName, &p.Contents, &p.RelatedIndustries, &p.StartDate, &p.EndDate); err != nil {
			return nil, err
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

func (r *catalogRepo) Stats(ctx context.Context) (*biz.DatabaseStats, error) {
	if r.data.store == nil {
		return nil, biz.ErrDatabaseUnavailable
	}
	var (
		st   biz.DatabaseStats
		size int64
	)
	err := r.data.store.DB().QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM industries),
			(SELECT COUNT(*) FROM past_issues),
			(SELECT COUNT(*) FROM news_issues),
			(SELECT COUNT(*) FROM simulation_results),
			pg_database_size(current_database())`).Scan(
		&st.Industries, &st.PastIssues, &st.CurrentIssues, &st.SimulationResults, &size)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	st.DBSizeMB = float64(size) / (1024 * 1024)
	return &st, nil
}

func (r *catalogRepo) Import(ctx context.Context, industries, pastIssues []catalog.Entry) (int, int, error) {
	if r.data.store == nil {
		return 0, 0, biz.ErrDatabaseUnavailable
	}
	ni, err := r.data.store.ImportIndustries(ctx, industries)
	if err != nil {
		return 0, 0, err
	}
	np, err := r.data.store.ImportPastIssues(ctx, pastIssues)
	if err != nil {
		return ni, 0, err
	}
	return ni, np, nil
}
