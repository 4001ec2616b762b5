package agents

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"marketscope/internal/adapters/ai"
	"marketscope/internal/adapters/search"
	"marketscope/internal/domain/competitor"
	"marketscope/internal/domain/research"
	"marketscope/pkg/logger"
)

type competitorEntry struct {
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	Rating   *float64 `json:"rating"`
	URL      string   `json:"url"`
	Features []string `json:"features"`
}

type competitorModelResponse struct {
	Competitors []competitorEntry `json:"competitors"`
}

var (
	priceRe  = regexp.MustCompile(`\$([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)
	ratingRe = regexp.MustCompile(`(?:^|[^0-9.])([0-5](?:\.[0-9])?)\s*(?:/\s*5|stars?|★)`)
)

// CompetitorAgent collects competitor observations about a subject.
// Live tier searches the web for alternatives and extracts price and rating
// from result snippets; generative tier asks the chat provider; placeholder
// tier stores a fixed trio.
type CompetitorAgent struct {
	repo     competitor.Repository
	provider ai.ChatProvider
	web      search.WebSearcher
	log      *logger.Logger
}

var _ Producer = (*CompetitorAgent)(nil)

// NewCompetitorAgent creates a competitor producer
func NewCompetitorAgent(repo competitor.Repository, provider ai.ChatProvider, web search.WebSearcher) *CompetitorAgent {
	return &CompetitorAgent{
		repo:     repo,
		provider: provider,
		web:      web,
		log:      logger.Get().With("component", "competitor_agent"),
	}
}

// Kind returns the agent kind
func (a *CompetitorAgent) Kind() Kind { return KindCompetitor }

// Run collects competitor records for the input subject, walking the tiers
// until one of them produces rows
func (a *CompetitorAgent) Run(ctx context.Context, input Input) (*Result, error) {
	if a.web != nil && a.web.Configured() {
		result, err := a.runLive(ctx, input)
		if err == nil {
			return result, nil
		}
		a.log.Warnw("Live competitor tier failed, falling back", "query_id", input.QueryID, "error", err)
	}

	if a.provider != nil && a.provider.Configured() {
		result, err := a.runGenerative(ctx, input)
		if err == nil {
			return result, nil
		}
		a.log.Warnw("Generative competitor tier failed, falling back", "query_id", input.QueryID, "error", err)
	}

	return a.store(ctx, input, competitorFallback(input.SubjectText), research.ProvenancePlaceholder)
}

func (a *CompetitorAgent) runLive(ctx context.Context, input Input) (*Result, error) {
	page, err := a.web.Search(ctx, input.SubjectText+" alternatives comparison price", 8)
	if err != nil {
		return nil, err
	}

	records := make([]competitor.Record, 0, len(page.Results))
	for _, r := range page.Results {
		url := r.Link
		record := competitor.Record{
			CompetitorName: r.Title,
			Price:          extractPrice(r.Snippet),
			Rating:         extractRating(r.Snippet),
			URL:            &url,
			Features:       pq.StringArray{},
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, errNoLiveSignal
	}
	return a.store(ctx, input, records, research.ProvenanceLive)
}

func (a *CompetitorAgent) runGenerative(ctx context.Context, input Input) (*Result, error) {
	resp, err := a.provider.Chat(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: competitorSystemPrompt},
			{Role: ai.RoleUser, Content: competitorPrompt(input.SubjectText, input.SubjectType)},
		},
		Temperature: 0.7,
		MaxTokens:   1500,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	var parsed competitorModelResponse
	if err := decodeModelJSON(resp.Content, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Competitors) == 0 {
		return nil, errEmptyModelResponse
	}

	records := make([]competitor.Record, 0, len(parsed.Competitors))
	for _, e := range parsed.Competitors {
		record := competitor.Record{
			CompetitorName: e.Name,
			Rating:         e.Rating,
			Features:       pq.StringArray(e.Features),
		}
		if e.Price != nil {
			price := decimal.NewFromFloat(*e.Price)
			record.Price = &price
		}
		if e.URL != "" {
			url := e.URL
			record.URL = &url
		}
		records = append(records, record)
	}
	return a.store(ctx, input, records, research.ProvenanceGenerative)
}

func (a *CompetitorAgent) store(ctx context.Context, input Input, records []competitor.Record, provenance research.Provenance) (*Result, error) {
	stored := 0
	for i := range records {
		records[i].ID = uuid.New()
		records[i].QueryID = input.QueryID
		records[i].Provenance = provenance
		records[i].CreatedAt = time.Now().UTC()
		if records[i].Features == nil {
			records[i].Features = pq.StringArray{}
		}
		if err := a.repo.Insert(ctx, &records[i]); err != nil {
			a.log.Errorw("Failed to insert competitor record", "query_id", input.QueryID, "error", err)
			continue
		}
		stored++
	}
	if stored == 0 {
		return nil, errNothingStored
	}

	a.log.Infow("Competitor analysis completed",
		"query_id", input.QueryID,
		"count", stored,
		"provenance", provenance)
	return &Result{Success: true, Count: stored, Provenance: provenance}, nil
}

// extractPrice finds the first dollar amount in text
func extractPrice(text string) *decimal.Decimal {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return nil
	}
	return &d
}

// extractRating finds a star rating like "4.2/5" or "4.2 stars" in text
func extractRating(text string) *float64 {
	m := ratingRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 0 || v > 5 {
		return nil
	}
	return &v
}
