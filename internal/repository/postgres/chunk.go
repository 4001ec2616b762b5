package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"marketscope/internal/domain/knowledge"
)

// Compile-time check
var _ knowledge.Repository = (*ChunkRepository)(nil)

// ChunkRepository implements knowledge.Repository using sqlx and pgvector
type ChunkRepository struct {
	db *sqlx.DB
}

// NewChunkRepository creates a new knowledge chunk repository
func NewChunkRepository(db *sqlx.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// Insert stores one embedded chunk
func (r *ChunkRepository) Insert(ctx context.Context, c *knowledge.Chunk) error {
	query := `
		INSERT INTO research_chunks (
			id, query_id, content, embedding, metadata, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.QueryID, c.Content, c.Embedding, c.Metadata, c.CreatedAt,
	)

	return err
}

// ListByQuery retrieves chunks for a query in insertion order
func (r *ChunkRepository) ListByQuery(ctx context.Context, queryID uuid.UUID, limit int) ([]knowledge.Chunk, error) {
	var chunks []knowledge.Chunk

	query := `
		SELECT * FROM research_chunks
		WHERE query_id = $1
		ORDER BY created_at ASC
		LIMIT $2`

	err := r.db.SelectContext(ctx, &chunks, query, queryID, limit)
	if err != nil {
		return nil, err
	}

	return chunks, nil
}

// SearchSimilar performs semantic search using pgvector cosine similarity
func (r *ChunkRepository) SearchSimilar(ctx context.Context, queryID uuid.UUID, embedding pgvector.Vector, threshold float64, limit int) ([]knowledge.Match, error) {
	var matches []knowledge.Match

	query := `
		SELECT *, 1 - (embedding <=> $2) as similarity
		FROM research_chunks
		WHERE query_id = $1
		  AND 1 - (embedding <=> $2) >= $3
		ORDER BY embedding <=> $2
		LIMIT $4`

	err := r.db.SelectContext(ctx, &matches, query, queryID, embedding, threshold, limit)
	if err != nil {
		return nil, err
	}

	return matches, nil
}
