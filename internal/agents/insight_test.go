package agents

import (
	"context"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketscope/internal/domain/report"
	"marketscope/internal/domain/research"
	"marketscope/internal/domain/sentiment"
	"marketscope/pkg/errors"
)

type fakeReportRepo struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*report.Report
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[uuid.UUID]*report.Report)}
}

func (r *fakeReportRepo) Insert(_ context.Context, rep *report.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[rep.QueryID] = rep
	return nil
}

func (r *fakeReportRepo) GetByQuery(_ context.Context, queryID uuid.UUID) (*report.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.reports[queryID]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return rep, nil
}

func (r *fakeReportRepo) UpdateDocumentURL(_ context.Context, queryID uuid.UUID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.reports[queryID]
	if !ok {
		return errors.ErrNotFound
	}
	rep.DocumentURL = &url
	return nil
}

func TestInsightAggregator_ZeroRowsStillProducesReport(t *testing.T) {
	reports := newFakeReportRepo()
	agg := NewInsightAggregator(&fakeSentimentRepo{}, &fakeCompetitorRepo{}, &fakeTrendRepo{}, reports, nil)
	input := testInput()

	rep, err := agg.Aggregate(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "Market Analysis Report: "+input.SubjectText, rep.Title)
	assert.NotEmpty(t, rep.Summary)
	assert.NotEmpty(t, rep.Recommendations, "stored report must always carry recommendations")

	stored, err := reports.GetByQuery(context.Background(), input.QueryID)
	require.NoError(t, err)
	assert.Equal(t, rep.Title, stored.Title)
}

func TestInsightAggregator_ModelReport(t *testing.T) {
	reports := newFakeReportRepo()
	provider := &fakeChatProvider{
		name: "gemini",
		content: `{
			"summary": "Strong position with price pressure from rivals.",
			"insights": [
				{"category": "pricing", "title": "Undercut on price", "description": "Rival at $79", "priority": "high", "impact": "Revenue risk"}
			],
			"recommendations": [
				{"action": "Launch bundle discount", "rationale": "Counter rival pricing", "timeline": "immediate", "priority": "high"}
			]
		}`,
	}
	agg := NewInsightAggregator(&fakeSentimentRepo{}, &fakeCompetitorRepo{}, &fakeTrendRepo{}, reports, provider)
	input := testInput()

	rep, err := agg.Aggregate(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "Strong position with price pressure from rivals.", rep.Summary)
	require.Len(t, rep.Insights, 1)
	assert.Equal(t, report.PriorityHigh, rep.Insights[0].Priority)
	require.Len(t, rep.Recommendations, 1)
	assert.Equal(t, report.TimelineImmediate, rep.Recommendations[0].Timeline)
}

func TestInsightAggregator_EmptyRecommendationsAreBackfilled(t *testing.T) {
	reports := newFakeReportRepo()
	provider := &fakeChatProvider{
		name:    "gemini",
		content: `{"summary": "Analysis done.", "insights": [], "recommendations": []}`,
	}
	agg := NewInsightAggregator(&fakeSentimentRepo{}, &fakeCompetitorRepo{}, &fakeTrendRepo{}, reports, provider)

	rep, err := agg.Aggregate(context.Background(), testInput())
	require.NoError(t, err)
	assert.NotEmpty(t, rep.Recommendations)
}

func TestInsightAggregator_ProviderFailureUsesFallback(t *testing.T) {
	reports := newFakeReportRepo()
	provider := &fakeChatProvider{name: "gemini", err: context.DeadlineExceeded}
	agg := NewInsightAggregator(&fakeSentimentRepo{}, &fakeCompetitorRepo{}, &fakeTrendRepo{}, reports, provider)

	rep, err := agg.Aggregate(context.Background(), testInput())
	require.NoError(t, err)
	assert.NotEmpty(t, rep.Summary)
	assert.Len(t, rep.Recommendations, 3)
}

func TestInsightPrompt_IncludesCollectedRows(t *testing.T) {
	input := testInput()

	sentiments := &fakeSentimentRepo{}
	competitors := &fakeCompetitorRepo{}
	trends := &fakeTrendRepo{}

	for _, entry := range sentimentFallback(input.SubjectText) {
		require.NoError(t, sentiments.Insert(context.Background(), &sentiment.Record{
			ID:         uuid.New(),
			QueryID:    input.QueryID,
			Source:     entry.Source,
			Sentiment:  sentiment.Class(entry.Sentiment),
			Confidence: entry.Confidence,
			Content:    entry.Content,
			Topics:     pq.StringArray(entry.Topics),
			Provenance: research.ProvenancePlaceholder,
		}))
	}

	loaded, _ := sentiments.ListByQuery(context.Background(), input.QueryID)
	compRows, _ := competitors.ListByQuery(context.Background(), input.QueryID)
	trendRows, _ := trends.ListByQuery(context.Background(), input.QueryID)

	prompt := insightPrompt(input, loaded, compRows, trendRows)
	assert.Contains(t, prompt, input.SubjectText)
	assert.Contains(t, prompt, "Twitter/X")
	assert.Contains(t, prompt, "No competitor data available")
	assert.Contains(t, prompt, "No trend data available")
}

func TestInsightPrompt_TruncatesContentOnRuneBoundary(t *testing.T) {
	input := testInput()
	rows := []sentiment.Record{{
		ID:         uuid.New(),
		QueryID:    input.QueryID,
		Source:     "Reddit",
		Sentiment:  sentiment.ClassPositive,
		Confidence: 0.8,
		Content:    strings.Repeat("é", 120),
	}}

	prompt := insightPrompt(input, rows, nil, nil)

	assert.True(t, utf8.ValidString(prompt))
	assert.Contains(t, prompt, strings.Repeat("é", 100))
	assert.NotContains(t, prompt, strings.Repeat("é", 101))
}

func TestInsightAggregator_ReAggregationReplacesReport(t *testing.T) {
	reports := newFakeReportRepo()
	provider := &fakeChatProvider{
		name:    "gemini",
		content: `{"summary": "First pass.", "insights": [], "recommendations": [{"action": "Watch pricing", "rationale": "Rival launch", "timeline": "immediate", "priority": "high"}]}`,
	}
	agg := NewInsightAggregator(&fakeSentimentRepo{}, &fakeCompetitorRepo{}, &fakeTrendRepo{}, reports, provider)
	input := testInput()

	first, err := agg.Aggregate(context.Background(), input)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, first.ID)

	provider.content = `{"summary": "Second pass.", "insights": [], "recommendations": [{"action": "Cut price", "rationale": "Demand shift", "timeline": "short-term", "priority": "medium"}]}`

	second, err := agg.Aggregate(context.Background(), input)
	require.NoError(t, err)

	stored, err := reports.GetByQuery(context.Background(), input.QueryID)
	require.NoError(t, err)
	assert.Equal(t, "Second pass.", stored.Summary)
	assert.Equal(t, second.Summary, stored.Summary)
	require.Len(t, stored.Recommendations, 1)
	assert.Equal(t, "Cut price", stored.Recommendations[0].Action)
}
