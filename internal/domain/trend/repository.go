package trend

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for trend records
type Repository interface {
	Insert(ctx context.Context, record *Record) error
	ListByQuery(ctx context.Context, queryID uuid.UUID) ([]Record, error)
	CountByQuery(ctx context.Context, queryID uuid.UUID) (int, error)
}
