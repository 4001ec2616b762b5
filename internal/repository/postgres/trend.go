package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"marketscope/internal/domain/trend"
)

// Compile-time check
var _ trend.Repository = (*TrendRepository)(nil)

// TrendRepository implements trend.Repository using sqlx
type TrendRepository struct {
	db *sqlx.DB
}

// NewTrendRepository creates a new trend repository
func NewTrendRepository(db *sqlx.DB) *TrendRepository {
	return &TrendRepository{db: db}
}

// Insert stores one trend record
func (r *TrendRepository) Insert(ctx context.Context, rec *trend.Record) error {
	query := `
		INSERT INTO trend_records (
			id, query_id, keyword, search_volume, trend_direction, time_period,
			data_points, provenance, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.QueryID, rec.Keyword, rec.SearchVolume, rec.Direction,
		rec.TimePeriod, rec.DataPoints, rec.Provenance, rec.CreatedAt,
	)

	return err
}

// ListByQuery retrieves all trend records for a query
func (r *TrendRepository) ListByQuery(ctx context.Context, queryID uuid.UUID) ([]trend.Record, error) {
	var records []trend.Record

	query := `
		SELECT * FROM trend_records
		WHERE query_id = $1
		ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &records, query, queryID)
	if err != nil {
		return nil, err
	}

	return records, nil
}

// CountByQuery returns how many trend records exist for a query
func (r *TrendRepository) CountByQuery(ctx context.Context, queryID uuid.UUID) (int, error) {
	var count int

	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM trend_records WHERE query_id = $1`, queryID)
	if err != nil {
		return 0, err
	}

	return count, nil
}
