package agents

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketscope/internal/adapters/ai"
	"marketscope/internal/domain/research"
	"marketscope/internal/domain/sentiment"
)

type fakeSentimentRepo struct {
	mu      sync.Mutex
	records []sentiment.Record
}

func (r *fakeSentimentRepo) Insert(_ context.Context, record *sentiment.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == record.ID {
			return fmt.Errorf("pq: duplicate key value violates unique constraint %q", "sentiment_records_pkey")
		}
	}
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeSentimentRepo) ListByQuery(_ context.Context, queryID uuid.UUID) ([]sentiment.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentiment.Record
	for _, rec := range r.records {
		if rec.QueryID == queryID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeSentimentRepo) CountByQuery(_ context.Context, queryID uuid.UUID) (int, error) {
	rows, _ := r.ListByQuery(context.Background(), queryID)
	return len(rows), nil
}

type fakeChatProvider struct {
	name    string
	content string
	err     error
}

func (p *fakeChatProvider) Name() string     { return p.name }
func (p *fakeChatProvider) Configured() bool { return true }

func (p *fakeChatProvider) Chat(_ context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &ai.ChatResponse{Model: p.name, Content: p.content}, nil
}

func testInput() Input {
	return Input{
		QueryID:     uuid.New(),
		SubjectText: "SmartWidget",
		SubjectType: research.SubjectProduct,
	}
}

func TestSentimentAgent_PlaceholderTierWithoutProviders(t *testing.T) {
	repo := &fakeSentimentRepo{}
	agent := NewSentimentAgent(repo, nil, nil)
	input := testInput()

	result, err := agent.Run(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, research.ProvenancePlaceholder, result.Provenance)
	assert.Equal(t, 3, result.Count, "every placeholder row must survive the primary key")

	rows, err := repo.ListByQuery(context.Background(), input.QueryID)
	require.NoError(t, err)
	require.Len(t, rows, result.Count)
	seen := make(map[uuid.UUID]bool)
	for _, row := range rows {
		assert.Equal(t, research.ProvenancePlaceholder, row.Provenance)
		assert.True(t, row.Sentiment.Valid())
		assert.Contains(t, row.Content, input.SubjectText)
		assert.NotEqual(t, uuid.Nil, row.ID)
		assert.False(t, seen[row.ID], "row IDs must be unique")
		seen[row.ID] = true
		assert.False(t, row.CreatedAt.IsZero())
	}
}

func TestSentimentAgent_GenerativeTier(t *testing.T) {
	repo := &fakeSentimentRepo{}
	provider := &fakeChatProvider{
		name: "openai",
		content: `{"sentiments": [
			{"source": "Reddit", "sentiment": "positive", "confidence": 0.9, "content": "love it", "topics": ["ux"]},
			{"source": "News", "sentiment": "negative", "confidence": 0.7, "content": "overpriced", "topics": ["price"]}
		]}`,
	}
	agent := NewSentimentAgent(repo, provider, nil)
	input := testInput()

	result, err := agent.Run(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, research.ProvenanceGenerative, result.Provenance)
	assert.Equal(t, 2, result.Count)

	rows, _ := repo.ListByQuery(context.Background(), input.QueryID)
	require.Len(t, rows, 2)
	assert.Equal(t, sentiment.ClassPositive, rows[0].Sentiment)
	assert.Equal(t, []string{"ux"}, []string(rows[0].Topics))
}

func TestSentimentAgent_MalformedJSONIsRepaired(t *testing.T) {
	repo := &fakeSentimentRepo{}
	// Trailing comma and markdown fence, typical model noise
	provider := &fakeChatProvider{
		name:    "openai",
		content: "```json\n{\"sentiments\": [{\"source\": \"Forums\", \"sentiment\": \"neutral\", \"confidence\": 0.6, \"content\": \"ok\", \"topics\": [],}]}\n```",
	}
	agent := NewSentimentAgent(repo, provider, nil)

	result, err := agent.Run(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, research.ProvenanceGenerative, result.Provenance)
	assert.Equal(t, 1, result.Count)
}

func TestSentimentAgent_ProviderFailureFallsBack(t *testing.T) {
	repo := &fakeSentimentRepo{}
	provider := &fakeChatProvider{name: "openai", err: context.DeadlineExceeded}
	agent := NewSentimentAgent(repo, provider, nil)

	result, err := agent.Run(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, research.ProvenancePlaceholder, result.Provenance)
	assert.GreaterOrEqual(t, result.Count, 1)
}

func TestScoreSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want sentiment.Class
	}{
		{"positive", "This is a great product, love it", sentiment.ClassPositive},
		{"negative", "Terrible quality, very disappointed", sentiment.ClassNegative},
		{"neutral", "It arrived on Tuesday", sentiment.ClassNeutral},
		{"mixed leans neutral", "good camera but bad battery", sentiment.ClassNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, confidence := scoreSentiment(tt.text)
			assert.Equal(t, tt.want, class)
			assert.GreaterOrEqual(t, confidence, 0.5)
			assert.LessOrEqual(t, confidence, 0.95)
		})
	}
}

func TestExtractTopics(t *testing.T) {
	topics := extractTopics("Loving the new #Camera on this phone #photography")
	assert.Equal(t, []string{"camera", "photography"}, topics)

	assert.Nil(t, extractTopics("no hashtags here"))
}
