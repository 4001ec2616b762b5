package report

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketscope/internal/domain/competitor"
	"marketscope/internal/domain/report"
	"marketscope/internal/domain/research"
	"marketscope/internal/domain/sentiment"
	"marketscope/internal/domain/trend"
	"marketscope/pkg/errors"
)

type fakeQueryRepo struct{ query *research.Query }

func (r *fakeQueryRepo) Create(context.Context, *research.Query) error { return nil }
func (r *fakeQueryRepo) GetByID(_ context.Context, id uuid.UUID) (*research.Query, error) {
	if r.query == nil || r.query.ID != id {
		return nil, errors.ErrQueryNotFound
	}
	return r.query, nil
}
func (r *fakeQueryRepo) ListByOwner(context.Context, uuid.UUID, int) ([]research.Query, error) {
	return nil, nil
}
func (r *fakeQueryRepo) UpdateStatus(context.Context, uuid.UUID, research.Status) error { return nil }
func (r *fakeQueryRepo) Delete(context.Context, uuid.UUID) error                        { return nil }

type fakeSentimentRepo struct{ rows []sentiment.Record }

func (r *fakeSentimentRepo) Insert(context.Context, *sentiment.Record) error { return nil }
func (r *fakeSentimentRepo) ListByQuery(context.Context, uuid.UUID) ([]sentiment.Record, error) {
	return r.rows, nil
}
func (r *fakeSentimentRepo) CountByQuery(context.Context, uuid.UUID) (int, error) {
	return len(r.rows), nil
}

type fakeCompetitorRepo struct{ rows []competitor.Record }

func (r *fakeCompetitorRepo) Insert(context.Context, *competitor.Record) error { return nil }
func (r *fakeCompetitorRepo) ListByQuery(context.Context, uuid.UUID) ([]competitor.Record, error) {
	return r.rows, nil
}
func (r *fakeCompetitorRepo) CountByQuery(context.Context, uuid.UUID) (int, error) {
	return len(r.rows), nil
}

type fakeTrendRepo struct{ rows []trend.Record }

func (r *fakeTrendRepo) Insert(context.Context, *trend.Record) error { return nil }
func (r *fakeTrendRepo) ListByQuery(context.Context, uuid.UUID) ([]trend.Record, error) {
	return r.rows, nil
}
func (r *fakeTrendRepo) CountByQuery(context.Context, uuid.UUID) (int, error) {
	return len(r.rows), nil
}

type fakeReportRepo struct {
	rep         *report.Report
	documentURL string
}

func (r *fakeReportRepo) Insert(context.Context, *report.Report) error { return nil }
func (r *fakeReportRepo) GetByQuery(context.Context, uuid.UUID) (*report.Report, error) {
	if r.rep == nil {
		return nil, errors.ErrNotFound
	}
	return r.rep, nil
}
func (r *fakeReportRepo) UpdateDocumentURL(_ context.Context, _ uuid.UUID, url string) error {
	r.documentURL = url
	return nil
}

func decodeDataURL(t *testing.T, url string) string {
	t.Helper()
	require.True(t, strings.HasPrefix(url, "data:text/html;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:text/html;base64,"))
	require.NoError(t, err)
	return string(raw)
}

func newTestRenderer(queries *fakeQueryRepo, sentiments *fakeSentimentRepo, competitors *fakeCompetitorRepo, trends *fakeTrendRepo, reports *fakeReportRepo) *Renderer {
	r := NewRenderer(queries, sentiments, competitors, trends, reports)
	r.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestRender_FullReport(t *testing.T) {
	queryID := uuid.New()
	price := decimal.NewFromFloat(89.99)
	rating := 4.1
	volume := int64(45000)

	queries := &fakeQueryRepo{query: &research.Query{
		ID:          queryID,
		SubjectText: "iPhone 15",
		SubjectType: research.SubjectProduct,
		Status:      research.StatusCompleted,
	}}
	sentiments := &fakeSentimentRepo{rows: []sentiment.Record{
		{QueryID: queryID, Source: "Twitter/X", Sentiment: sentiment.ClassPositive, Confidence: 0.78, Content: "People like the camera."},
	}}
	competitors := &fakeCompetitorRepo{rows: []competitor.Record{
		{QueryID: queryID, CompetitorName: "Galaxy S24", Price: &price, Rating: &rating, Features: pq.StringArray{"AMOLED display", "S Pen"}},
	}}
	trends := &fakeTrendRepo{rows: []trend.Record{
		{QueryID: queryID, Keyword: "iphone 15 review", SearchVolume: &volume, Direction: trend.DirectionIncreasing, TimePeriod: "last_30_days"},
	}}
	reports := &fakeReportRepo{rep: &report.Report{
		QueryID: queryID,
		Title:   "Market Analysis Report: iPhone 15",
		Summary: "Strong demand with positive sentiment.",
		Insights: report.Insights{
			{Category: "sentiment", Title: "Positive Market Sentiment", Description: "Sentiment skews positive.", Priority: report.PriorityHigh, Impact: "Supports premium pricing."},
		},
		Recommendations: report.Recommendations{
			{Action: "Monitor competitor pricing", Rationale: "Rival launch expected.", Timeline: report.TimelineShortTerm, Priority: report.PriorityMedium},
		},
	}}

	renderer := newTestRenderer(queries, sentiments, competitors, trends, reports)

	url, err := renderer.Render(context.Background(), queryID)
	require.NoError(t, err)

	html := decodeDataURL(t, url)
	assert.Contains(t, html, "iPhone 15")
	assert.Contains(t, html, "Query Type: PRODUCT | Generated: 2026-08-01")
	assert.Contains(t, html, "Strong demand with positive sentiment.")
	assert.Contains(t, html, "Twitter/X")
	assert.Contains(t, html, "78%")
	assert.Contains(t, html, "Galaxy S24")
	assert.Contains(t, html, "89.99")
	assert.Contains(t, html, "AMOLED display")
	assert.Contains(t, html, "iphone 15 review")
	assert.Contains(t, html, "Positive Market Sentiment")
	assert.Contains(t, html, "Monitor competitor pricing")

	assert.Equal(t, url, reports.documentURL)
}

func TestRender_NoReportRowStillRenders(t *testing.T) {
	queryID := uuid.New()
	queries := &fakeQueryRepo{query: &research.Query{
		ID:          queryID,
		SubjectText: "Tesla",
		SubjectType: research.SubjectCompany,
		Status:      research.StatusProcessing,
	}}
	reports := &fakeReportRepo{}

	renderer := newTestRenderer(queries, &fakeSentimentRepo{}, &fakeCompetitorRepo{}, &fakeTrendRepo{}, reports)

	url, err := renderer.Render(context.Background(), queryID)
	require.NoError(t, err)

	html := decodeDataURL(t, url)
	assert.Contains(t, html, "Tesla")
	assert.Contains(t, html, "Comprehensive market analysis completed")
	assert.NotContains(t, html, "Key Insights")

	// Nothing to attach the URL to without a stored report row
	assert.Empty(t, reports.documentURL)
}

func TestRender_UnknownQuery(t *testing.T) {
	renderer := newTestRenderer(&fakeQueryRepo{}, &fakeSentimentRepo{}, &fakeCompetitorRepo{}, &fakeTrendRepo{}, &fakeReportRepo{})

	_, err := renderer.Render(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrQueryNotFound))
}
