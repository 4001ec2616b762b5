package report

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for research reports
type Repository interface {
	Insert(ctx context.Context, report *Report) error
	GetByQuery(ctx context.Context, queryID uuid.UUID) (*Report, error)
	UpdateDocumentURL(ctx context.Context, queryID uuid.UUID, url string) error
}
