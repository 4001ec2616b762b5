package agents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"marketscope/internal/adapters/ai"
	"marketscope/internal/adapters/search"
	"marketscope/internal/domain/research"
	"marketscope/internal/domain/trend"
	"marketscope/pkg/logger"
)

type trendEntry struct {
	Keyword        string            `json:"keyword"`
	SearchVolume   *int64            `json:"searchVolume"`
	TrendDirection string            `json:"trendDirection"`
	TimePeriod     string            `json:"timePeriod"`
	DataPoints     []trend.DataPoint `json:"dataPoints"`
}

type trendModelResponse struct {
	Trends []trendEntry `json:"trends"`
}

// TrendAgent collects keyword trend observations about a subject.
// Live tier uses web search match counts as a volume proxy across a fixed
// keyword set; generative tier asks the chat provider; placeholder tier
// stores a subject-aware fixed set.
type TrendAgent struct {
	repo     trend.Repository
	provider ai.ChatProvider
	web      search.WebSearcher
	log      *logger.Logger

	now func() time.Time
}

var _ Producer = (*TrendAgent)(nil)

// NewTrendAgent creates a trend producer
func NewTrendAgent(repo trend.Repository, provider ai.ChatProvider, web search.WebSearcher) *TrendAgent {
	return &TrendAgent{
		repo:     repo,
		provider: provider,
		web:      web,
		log:      logger.Get().With("component", "trend_agent"),
		now:      time.Now,
	}
}

// Kind returns the agent kind
func (a *TrendAgent) Kind() Kind { return KindTrend }

// Run collects trend records for the input subject, walking the tiers until
// one of them produces rows
func (a *TrendAgent) Run(ctx context.Context, input Input) (*Result, error) {
	if a.web != nil && a.web.Configured() {
		result, err := a.runLive(ctx, input)
		if err == nil {
			return result, nil
		}
		a.log.Warnw("Live trend tier failed, falling back", "query_id", input.QueryID, "error", err)
	}

	if a.provider != nil && a.provider.Configured() {
		result, err := a.runGenerative(ctx, input)
		if err == nil {
			return result, nil
		}
		a.log.Warnw("Generative trend tier failed, falling back", "query_id", input.QueryID, "error", err)
	}

	return a.store(ctx, input, trendFallback(input.SubjectText, a.now()), research.ProvenancePlaceholder)
}

// runLive probes a fixed keyword set and records the engine's total match
// count as a volume proxy. One probe gives one data point, so the direction
// is reported as stable.
func (a *TrendAgent) runLive(ctx context.Context, input Input) (*Result, error) {
	keywords := []string{
		input.SubjectText + " market",
		input.SubjectText + " reviews",
		input.SubjectText + " alternatives",
	}

	now := a.now()
	records := make([]trend.Record, 0, len(keywords))
	for _, kw := range keywords {
		page, err := a.web.Search(ctx, kw, 1)
		if err != nil {
			a.log.Warnw("Trend probe failed", "keyword", kw, "error", err)
			continue
		}
		if page.TotalResults == 0 {
			continue
		}
		volume := page.TotalResults
		records = append(records, trend.Record{
			Keyword:      kw,
			SearchVolume: &volume,
			Direction:    trend.DirectionStable,
			TimePeriod:   "30d",
			DataPoints: trend.DataPoints{
				{Date: now.Format("2006-01-02"), Volume: volume, Interest: 50},
			},
		})
	}
	if len(records) == 0 {
		return nil, errNoLiveSignal
	}
	return a.store(ctx, input, records, research.ProvenanceLive)
}

func (a *TrendAgent) runGenerative(ctx context.Context, input Input) (*Result, error) {
	resp, err := a.provider.Chat(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: trendSystemPrompt},
			{Role: ai.RoleUser, Content: trendPrompt(input.SubjectText, input.SubjectType)},
		},
		Temperature: 0.7,
		MaxTokens:   1500,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	var parsed trendModelResponse
	if err := decodeModelJSON(resp.Content, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Trends) == 0 {
		return nil, errEmptyModelResponse
	}

	records := make([]trend.Record, 0, len(parsed.Trends))
	for _, e := range parsed.Trends {
		direction := trend.Direction(e.TrendDirection)
		if !direction.Valid() {
			direction = trend.DirectionStable
		}
		records = append(records, trend.Record{
			Keyword:      e.Keyword,
			SearchVolume: e.SearchVolume,
			Direction:    direction,
			TimePeriod:   e.TimePeriod,
			DataPoints:   trend.DataPoints(e.DataPoints),
		})
	}
	return a.store(ctx, input, records, research.ProvenanceGenerative)
}

func (a *TrendAgent) store(ctx context.Context, input Input, records []trend.Record, provenance research.Provenance) (*Result, error) {
	stored := 0
	for i := range records {
		records[i].ID = uuid.New()
		records[i].QueryID = input.QueryID
		records[i].Provenance = provenance
		records[i].CreatedAt = time.Now().UTC()
		if err := a.repo.Insert(ctx, &records[i]); err != nil {
			a.log.Errorw("Failed to insert trend record", "query_id", input.QueryID, "error", err)
			continue
		}
		stored++
	}
	if stored == 0 {
		return nil, errNothingStored
	}

	a.log.Infow("Trend analysis completed",
		"query_id", input.QueryID,
		"count", stored,
		"provenance", provenance)
	return &Result{Success: true, Count: stored, Provenance: provenance}, nil
}
