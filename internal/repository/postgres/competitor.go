package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"marketscope/internal/domain/competitor"
)

// Compile-time check
var _ competitor.Repository = (*CompetitorRepository)(nil)

// CompetitorRepository implements competitor.Repository using sqlx
type CompetitorRepository struct {
	db *sqlx.DB
}

// NewCompetitorRepository creates a new competitor repository
func NewCompetitorRepository(db *sqlx.DB) *CompetitorRepository {
	return &CompetitorRepository{db: db}
}

// Insert stores one competitor record
func (r *CompetitorRepository) Insert(ctx context.Context, rec *competitor.Record) error {
	query := `
		INSERT INTO competitor_records (
			id, query_id, competitor_name, price, rating, url, features, provenance, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.QueryID, rec.CompetitorName, rec.Price, rec.Rating,
		rec.URL, rec.Features, rec.Provenance, rec.CreatedAt,
	)

	return err
}

// ListByQuery retrieves all competitor records for a query
func (r *CompetitorRepository) ListByQuery(ctx context.Context, queryID uuid.UUID) ([]competitor.Record, error) {
	var records []competitor.Record

	query := `
		SELECT * FROM competitor_records
		WHERE query_id = $1
		ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &records, query, queryID)
	if err != nil {
		return nil, err
	}

	return records, nil
}

// CountByQuery returns how many competitor records exist for a query
func (r *CompetitorRepository) CountByQuery(ctx context.Context, queryID uuid.UUID) (int, error) {
	var count int

	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM competitor_records WHERE query_id = $1`, queryID)
	if err != nil {
		return 0, err
	}

	return count, nil
}
