package knowledge

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketscope/internal/adapters/config"
	"marketscope/internal/domain/competitor"
	"marketscope/internal/domain/knowledge"
	"marketscope/internal/domain/sentiment"
	"marketscope/internal/domain/trend"
)

type fakeChunkRepo struct {
	mu     sync.Mutex
	chunks []*knowledge.Chunk
}

func (r *fakeChunkRepo) Insert(_ context.Context, chunk *knowledge.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.chunks {
		if existing.ID == chunk.ID {
			return fmt.Errorf("pq: duplicate key value violates unique constraint %q", "knowledge_chunks_pkey")
		}
	}
	copied := *chunk
	r.chunks = append(r.chunks, &copied)
	return nil
}

func (r *fakeChunkRepo) ListByQuery(_ context.Context, queryID uuid.UUID, limit int) ([]knowledge.Chunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []knowledge.Chunk
	for _, c := range r.chunks {
		if c.QueryID == queryID && len(out) < limit {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeChunkRepo) SearchSimilar(_ context.Context, queryID uuid.UUID, _ pgvector.Vector, _ float64, limit int) ([]knowledge.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []knowledge.Match
	for _, c := range r.chunks {
		if c.QueryID == queryID && len(out) < limit {
			out = append(out, knowledge.Match{Chunk: *c, Similarity: 1})
		}
	}
	return out, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) GenerateEmbedding(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (fakeEmbedder) GenerateBatchEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1, 0}
	}
	return out, nil
}

func (fakeEmbedder) Dimensions() int { return 3 }
func (fakeEmbedder) Name() string    { return "fake-embedder" }

type listSentimentRepo struct{ rows []sentiment.Record }

func (r *listSentimentRepo) Insert(_ context.Context, _ *sentiment.Record) error { return nil }
func (r *listSentimentRepo) ListByQuery(_ context.Context, _ uuid.UUID) ([]sentiment.Record, error) {
	return r.rows, nil
}
func (r *listSentimentRepo) CountByQuery(_ context.Context, _ uuid.UUID) (int, error) {
	return len(r.rows), nil
}

type listCompetitorRepo struct{ rows []competitor.Record }

func (r *listCompetitorRepo) Insert(_ context.Context, _ *competitor.Record) error { return nil }
func (r *listCompetitorRepo) ListByQuery(_ context.Context, _ uuid.UUID) ([]competitor.Record, error) {
	return r.rows, nil
}
func (r *listCompetitorRepo) CountByQuery(_ context.Context, _ uuid.UUID) (int, error) {
	return len(r.rows), nil
}

type listTrendRepo struct{ rows []trend.Record }

func (r *listTrendRepo) Insert(_ context.Context, _ *trend.Record) error { return nil }
func (r *listTrendRepo) ListByQuery(_ context.Context, _ uuid.UUID) ([]trend.Record, error) {
	return r.rows, nil
}
func (r *listTrendRepo) CountByQuery(_ context.Context, _ uuid.UUID) (int, error) {
	return len(r.rows), nil
}

func newTestService(chunks *fakeChunkRepo, sentiments []sentiment.Record) *Service {
	return NewService(
		chunks,
		&listSentimentRepo{rows: sentiments},
		&listCompetitorRepo{},
		&listTrendRepo{},
		fakeEmbedder{},
		config.AgentsConfig{ChunkSize: 500, SearchLimit: 5, MatchThreshold: 0.7},
	)
}

func TestProcess_StoresOneChunkPerRow(t *testing.T) {
	queryID := uuid.New()
	rows := []sentiment.Record{
		{QueryID: queryID, Source: "Twitter/X", Sentiment: sentiment.ClassPositive, Confidence: 0.9, Content: "Love the battery life."},
		{QueryID: queryID, Source: "Reddit", Sentiment: sentiment.ClassNegative, Confidence: 0.7, Content: "Setup was painful."},
		{QueryID: queryID, Source: "Reviews", Sentiment: sentiment.ClassNeutral, Confidence: 0.5, Content: "Does what it says."},
	}
	chunks := &fakeChunkRepo{}
	svc := newTestService(chunks, rows)

	stored, err := svc.Process(context.Background(), queryID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored, "every chunk must survive the primary key")

	seen := make(map[uuid.UUID]bool)
	for _, c := range chunks.chunks {
		assert.NotEqual(t, uuid.Nil, c.ID)
		assert.False(t, seen[c.ID])
		seen[c.ID] = true
		assert.Equal(t, queryID, c.QueryID)
		assert.False(t, c.CreatedAt.IsZero())
		assert.Contains(t, c.Metadata, "processed_at")
	}
}

func TestProcess_NoRowsIsNotAnError(t *testing.T) {
	chunks := &fakeChunkRepo{}
	svc := newTestService(chunks, nil)

	stored, err := svc.Process(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, stored)
	assert.Empty(t, chunks.chunks)
}
