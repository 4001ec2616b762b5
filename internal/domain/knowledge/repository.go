package knowledge

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Repository defines data access for knowledge chunks (pgvector)
type Repository interface {
	Insert(ctx context.Context, chunk *Chunk) error
	ListByQuery(ctx context.Context, queryID uuid.UUID, limit int) ([]Chunk, error)

	// SearchSimilar returns chunks for the query ordered by cosine similarity,
	// filtered to matches at or above the threshold.
	SearchSimilar(ctx context.Context, queryID uuid.UUID, embedding pgvector.Vector, threshold float64, limit int) ([]Match, error)
}
