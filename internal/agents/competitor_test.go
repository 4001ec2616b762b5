package agents

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketscope/internal/domain/competitor"
	"marketscope/internal/domain/research"
)

type fakeCompetitorRepo struct {
	mu      sync.Mutex
	records []competitor.Record
}

func (r *fakeCompetitorRepo) Insert(_ context.Context, record *competitor.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == record.ID {
			return fmt.Errorf("pq: duplicate key value violates unique constraint %q", "competitor_records_pkey")
		}
	}
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeCompetitorRepo) ListByQuery(_ context.Context, queryID uuid.UUID) ([]competitor.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []competitor.Record
	for _, rec := range r.records {
		if rec.QueryID == queryID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeCompetitorRepo) CountByQuery(_ context.Context, queryID uuid.UUID) (int, error) {
	rows, _ := r.ListByQuery(context.Background(), queryID)
	return len(rows), nil
}

func TestCompetitorAgent_PlaceholderTier(t *testing.T) {
	repo := &fakeCompetitorRepo{}
	agent := NewCompetitorAgent(repo, nil, nil)
	input := testInput()

	result, err := agent.Run(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, research.ProvenancePlaceholder, result.Provenance)
	assert.Equal(t, 3, result.Count)

	rows, _ := repo.ListByQuery(context.Background(), input.QueryID)
	require.Len(t, rows, 3)
	assert.Equal(t, input.SubjectText+" Alternative A", rows[0].CompetitorName)
	require.NotNil(t, rows[0].Price)
	assert.Equal(t, "89.99", rows[0].Price.String())
	assert.NotEqual(t, uuid.Nil, rows[0].ID)
	assert.NotEqual(t, rows[0].ID, rows[1].ID)
	assert.False(t, rows[0].CreatedAt.IsZero())
}

func TestCompetitorAgent_GenerativeTier(t *testing.T) {
	repo := &fakeCompetitorRepo{}
	provider := &fakeChatProvider{
		name: "openai",
		content: `{"competitors": [
			{"name": "RivalCo", "price": 79.5, "rating": 4.2, "url": "https://rival.example", "features": ["sync", "export"]}
		]}`,
	}
	agent := NewCompetitorAgent(repo, provider, nil)
	input := testInput()

	result, err := agent.Run(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, research.ProvenanceGenerative, result.Provenance)

	rows, _ := repo.ListByQuery(context.Background(), input.QueryID)
	require.Len(t, rows, 1)
	assert.Equal(t, "RivalCo", rows[0].CompetitorName)
	require.NotNil(t, rows[0].Price)
	assert.Equal(t, "79.5", rows[0].Price.String())
	require.NotNil(t, rows[0].Rating)
	assert.InDelta(t, 4.2, *rows[0].Rating, 0.001)
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		text string
		want string // empty means no match
	}{
		{"Now only $49.99 for a limited time", "49.99"},
		{"Priced at $1,299.00 retail", "1299"},
		{"costs $5", "5"},
		{"completely free", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := extractPrice(tt.text)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestExtractRating(t *testing.T) {
	tests := []struct {
		text string
		want float64 // negative means no match
	}{
		{"Rated 4.2/5 by customers", 4.2},
		{"an average of 3.8 stars", 3.8},
		{"5 stars across the board", 5},
		{"no rating mentioned", -1},
		{"9.5 stars is out of range", -1},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := extractRating(tt.text)
			if tt.want < 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 0.001)
		})
	}
}
