package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"marketscope/internal/domain/sentiment"
)

// Compile-time check
var _ sentiment.Repository = (*SentimentRepository)(nil)

// SentimentRepository implements sentiment.Repository using sqlx
type SentimentRepository struct {
	db *sqlx.DB
}

// NewSentimentRepository creates a new sentiment repository
func NewSentimentRepository(db *sqlx.DB) *SentimentRepository {
	return &SentimentRepository{db: db}
}

// Insert stores one sentiment record
func (r *SentimentRepository) Insert(ctx context.Context, rec *sentiment.Record) error {
	query := `
		INSERT INTO sentiment_records (
			id, query_id, source, sentiment, confidence, content, topics, provenance, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.QueryID, rec.Source, rec.Sentiment, rec.Confidence,
		rec.Content, rec.Topics, rec.Provenance, rec.CreatedAt,
	)

	return err
}

// ListByQuery retrieves all sentiment records for a query
func (r *SentimentRepository) ListByQuery(ctx context.Context, queryID uuid.UUID) ([]sentiment.Record, error) {
	var records []sentiment.Record

	query := `
		SELECT * FROM sentiment_records
		WHERE query_id = $1
		ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &records, query, queryID)
	if err != nil {
		return nil, err
	}

	return records, nil
}

// CountByQuery returns how many sentiment records exist for a query
func (r *SentimentRepository) CountByQuery(ctx context.Context, queryID uuid.UUID) (int, error) {
	var count int

	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM sentiment_records WHERE query_id = $1`, queryID)
	if err != nil {
		return 0, err
	}

	return count, nil
}
