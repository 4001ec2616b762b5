package research

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for research queries
type Repository interface {
	Create(ctx context.Context, query *Query) error
	GetByID(ctx context.Context, id uuid.UUID) (*Query, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]Query, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	// Delete removes the query and, through the enforced cascade,
	// every derived row that references it.
	Delete(ctx context.Context, id uuid.UUID) error
}

// Feed publishes status transitions for consumers subscribed to a query
type Feed interface {
	PublishStatus(ctx context.Context, event StatusEvent) error
	SubscribeStatus(ctx context.Context, queryID uuid.UUID) (<-chan StatusEvent, func(), error)
}
