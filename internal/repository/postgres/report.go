package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"marketscope/internal/domain/report"
	"marketscope/pkg/errors"
)

// Compile-time check
var _ report.Repository = (*ReportRepository)(nil)

// ReportRepository implements report.Repository using sqlx
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Insert stores the research report for a query. A query holds at most one
// report, so re-aggregation replaces the stored content; the document URL is
// cleared because the previous render no longer matches.
func (r *ReportRepository) Insert(ctx context.Context, rep *report.Report) error {
	query := `
		INSERT INTO research_reports (
			id, query_id, title, summary, insights, recommendations, document_url, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (query_id) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			insights = EXCLUDED.insights,
			recommendations = EXCLUDED.recommendations,
			document_url = EXCLUDED.document_url,
			created_at = EXCLUDED.created_at`

	_, err := r.db.ExecContext(ctx, query,
		rep.ID, rep.QueryID, rep.Title, rep.Summary, rep.Insights,
		rep.Recommendations, rep.DocumentURL, rep.CreatedAt,
	)

	return err
}

// GetByQuery retrieves the report for a query
func (r *ReportRepository) GetByQuery(ctx context.Context, queryID uuid.UUID) (*report.Report, error) {
	var rep report.Report

	query := `SELECT * FROM research_reports WHERE query_id = $1`

	err := r.db.GetContext(ctx, &rep, query, queryID)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &rep, nil
}

// UpdateDocumentURL attaches the rendered document reference to the report
func (r *ReportRepository) UpdateDocumentURL(ctx context.Context, queryID uuid.UUID, url string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE research_reports SET document_url = $2 WHERE query_id = $1`, queryID, url)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.ErrNotFound
	}

	return nil
}
