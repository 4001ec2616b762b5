package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"marketscope/internal/domain/research"
	"marketscope/pkg/errors"
)

// Compile-time check
var _ research.Repository = (*QueryRepository)(nil)

// QueryRepository implements research.Repository using sqlx
type QueryRepository struct {
	db *sqlx.DB
}

// NewQueryRepository creates a new research query repository
func NewQueryRepository(db *sqlx.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// Create inserts a new research query
func (r *QueryRepository) Create(ctx context.Context, q *research.Query) error {
	query := `
		INSERT INTO research_queries (
			id, subject_text, subject_type, status, owner_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	_, err := r.db.ExecContext(ctx, query,
		q.ID, q.SubjectText, q.SubjectType, q.Status, q.OwnerID, q.CreatedAt, q.UpdatedAt,
	)

	return err
}

// GetByID retrieves a research query by ID
func (r *QueryRepository) GetByID(ctx context.Context, id uuid.UUID) (*research.Query, error) {
	var q research.Query

	query := `SELECT * FROM research_queries WHERE id = $1`

	err := r.db.GetContext(ctx, &q, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrQueryNotFound
	}
	if err != nil {
		return nil, err
	}

	return &q, nil
}

// ListByOwner retrieves the most recent queries for an owner
func (r *QueryRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]research.Query, error) {
	var queries []research.Query

	query := `
		SELECT * FROM research_queries
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	err := r.db.SelectContext(ctx, &queries, query, ownerID, limit)
	if err != nil {
		return nil, err
	}

	return queries, nil
}

// UpdateStatus transitions the query lifecycle status
func (r *QueryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status research.Status) error {
	query := `
		UPDATE research_queries
		SET status = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.ErrQueryNotFound
	}

	return nil
}

// Delete removes a query. Derived rows go with it via ON DELETE CASCADE.
func (r *QueryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM research_queries WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.ErrQueryNotFound
	}

	return nil
}
