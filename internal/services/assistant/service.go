// Package assistant answers free-form questions about a research query,
// grounded in the collected rows and retrieved knowledge chunks.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"marketscope/internal/adapters/ai"
	"marketscope/internal/domain/competitor"
	"marketscope/internal/domain/knowledge"
	"marketscope/internal/domain/report"
	"marketscope/internal/domain/sentiment"
	"marketscope/internal/domain/trend"
	"marketscope/pkg/errors"
	"marketscope/pkg/logger"
)

// Action tags a reply with a UI step the dashboard should take
type Action string

const (
	ActionNone           Action = ""
	ActionGenerateReport Action = "generate_report"
	ActionShowComparison Action = "show_comparison"
	ActionShowTrends     Action = "show_trends"
)

// Reply is the assistant's answer to one question
type Reply struct {
	Response   string  `json:"response"`
	Action     Action  `json:"action,omitempty"`
	HasContext bool    `json:"has_context"`
	DataUsed   DataUse `json:"agent_data_used"`
}

// DataUse counts the context rows that fed the answer
type DataUse struct {
	Sentiment   int `json:"sentiment"`
	Competitors int `json:"competitors"`
	Trends      int `json:"trends"`
	Insights    int `json:"insights"`
	Chunks      int `json:"rag_chunks"`
}

const contextRowLimit = 5

// Service builds conversational answers from the stored research data
type Service struct {
	sentiments  sentiment.Repository
	competitors competitor.Repository
	trends      trend.Repository
	reports     report.Repository
	chunks      knowledge.Repository
	provider    ai.ChatProvider
	log         *logger.Logger
}

// NewService creates the assistant
func NewService(
	sentiments sentiment.Repository,
	competitors competitor.Repository,
	trends trend.Repository,
	reports report.Repository,
	chunks knowledge.Repository,
	provider ai.ChatProvider,
) *Service {
	return &Service{
		sentiments:  sentiments,
		competitors: competitors,
		trends:      trends,
		reports:     reports,
		chunks:      chunks,
		provider:    provider,
		log:         logger.Get().With("component", "assistant"),
	}
}

// Ask answers the question. When queryID is non-nil the stored research data
// for that query grounds the answer; otherwise the assistant falls back to
// general guidance. A provider failure never surfaces: the fixed fallback
// reply is returned instead.
func (s *Service) Ask(ctx context.Context, queryID *uuid.UUID, question string) (*Reply, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "question cannot be empty")
	}

	var contextBlock string
	var used DataUse
	if queryID != nil {
		contextBlock, used = s.buildContext(ctx, *queryID)
	}

	reply := &Reply{
		Action:     RouteAction(question),
		HasContext: contextBlock != "",
		DataUsed:   used,
	}

	if s.provider == nil || !s.provider.Configured() {
		reply.Response = fallbackResponse(question)
		return reply, nil
	}

	resp, err := s.provider.Chat(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: systemPrompt(contextBlock)},
			{Role: ai.RoleUser, Content: userPrompt(question)},
		},
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		s.log.Warnw("Assistant provider call failed, using fallback", "error", err)
		reply.Response = fallbackResponse(question)
		return reply, nil
	}

	reply.Response = resp.Content
	return reply, nil
}

// buildContext renders recent rows, report insights and knowledge chunks
// into the grounding block for the system prompt
func (s *Service) buildContext(ctx context.Context, queryID uuid.UUID) (string, DataUse) {
	var b strings.Builder
	var used DataUse

	sentiments, err := s.sentiments.ListByQuery(ctx, queryID)
	if err != nil {
		s.log.Warnw("Failed to load sentiment context", "query_id", queryID, "error", err)
	}
	if len(sentiments) > 0 {
		used.Sentiment = len(sentiments)
		var total float64
		for _, rec := range sentiments {
			total += rec.Confidence
		}
		fmt.Fprintf(&b, "\n\nSENTIMENT ANALYSIS:\nAverage sentiment confidence: %.1f%%\n",
			total/float64(len(sentiments))*100)
		b.WriteString("Recent sentiment data: ")
		for i, rec := range head(sentiments, 3) {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s (%s)", rec.Sentiment, rec.Source)
		}
		b.WriteString("\n")
	}

	competitors, err := s.competitors.ListByQuery(ctx, queryID)
	if err != nil {
		s.log.Warnw("Failed to load competitor context", "query_id", queryID, "error", err)
	}
	if len(competitors) > 0 {
		used.Competitors = len(competitors)
		b.WriteString("\n\nCOMPETITOR ANALYSIS:\n")
		for _, rec := range head(competitors, 3) {
			price := "N/A"
			if rec.Price != nil {
				price = "$" + rec.Price.StringFixed(2)
			}
			rating := "N/A"
			if rec.Rating != nil {
				rating = fmt.Sprintf("%.1f", *rec.Rating)
			}
			fmt.Fprintf(&b, "%s: %s, Rating: %s/5\n", rec.CompetitorName, price, rating)
		}
	}

	trends, err := s.trends.ListByQuery(ctx, queryID)
	if err != nil {
		s.log.Warnw("Failed to load trend context", "query_id", queryID, "error", err)
	}
	if len(trends) > 0 {
		used.Trends = len(trends)
		b.WriteString("\n\nTREND ANALYSIS:\n")
		for _, rec := range head(trends, 3) {
			volume := "N/A"
			if rec.SearchVolume != nil {
				volume = fmt.Sprintf("%d", *rec.SearchVolume)
			}
			fmt.Fprintf(&b, "%s: %s searches, trending %s\n", rec.Keyword, volume, rec.Direction)
		}
	}

	rep, err := s.reports.GetByQuery(ctx, queryID)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		s.log.Warnw("Failed to load report context", "query_id", queryID, "error", err)
	}
	if rep != nil && len(rep.Insights) > 0 {
		used.Insights = 1
		b.WriteString("\n\nKEY INSIGHTS:\n")
		for _, ins := range head(rep.Insights, 3) {
			fmt.Fprintf(&b, "%s: %s\n", ins.Title, ins.Description)
		}
	}

	chunks, err := s.chunks.ListByQuery(ctx, queryID, contextRowLimit)
	if err != nil {
		s.log.Warnw("Failed to load knowledge context", "query_id", queryID, "error", err)
	}
	if len(chunks) > 0 {
		used.Chunks = len(chunks)
		b.WriteString("\n\nRETRIEVED KNOWLEDGE:\n")
		for _, c := range chunks {
			b.WriteString(c.Content)
			b.WriteString("\n\n")
		}
	}

	if b.Len() > 0 {
		fmt.Fprintf(&b, "\nBased on agent analysis: %d sentiment points, %d competitors tracked, %d trend indicators processed.",
			used.Sentiment, used.Competitors, used.Trends)
	}
	return b.String(), used
}

// RouteAction maps a question to the dashboard step it implies. The rules
// are intentionally simple keyword heuristics.
func RouteAction(question string) Action {
	lowered := strings.ToLower(question)
	switch {
	case strings.Contains(lowered, "sentiment") && strings.Contains(lowered, "trend"):
		return ActionShowTrends
	case strings.Contains(lowered, "competitor") &&
		(strings.Contains(lowered, "report") || strings.Contains(lowered, "comparison")):
		return ActionShowComparison
	case strings.Contains(lowered, "price") && strings.Contains(lowered, "drop"):
		return ActionGenerateReport
	default:
		return ActionNone
	}
}

func systemPrompt(contextBlock string) string {
	return fmt.Sprintf(`You are an expert AI Market Research Assistant with access to real-time market intelligence. Your role is to provide actionable, data-driven insights for business decision-making.

CAPABILITIES:
- Analyze market sentiment from multiple sources
- Track competitor pricing, features, and positioning
- Identify emerging market trends and opportunities
- Generate strategic recommendations based on data

CONTEXT DATA FROM AI AGENTS:%s

INSTRUCTIONS:
- Always provide specific, actionable insights
- Reference actual data points when available
- Be concise but comprehensive in your analysis
- Focus on business implications and opportunities
- If no specific data is available, provide general market research guidance
- Maintain a professional, analytical tone
- Use the retrieved knowledge and agent data to provide accurate, contextual responses`, contextBlock)
}

func userPrompt(question string) string {
	return fmt.Sprintf(`User Question: %s

Please provide a detailed, data-driven response based on the available market intelligence and retrieved context.`, question)
}

func fallbackResponse(question string) string {
	return fmt.Sprintf(`I apologize, but I'm currently unable to access the full market intelligence data. However, I can still help with general market research guidance:

For your query %q, here are some general recommendations:

1. **Market Analysis Framework**: Consider analyzing competitor positioning, pricing strategies, and customer sentiment across multiple channels.

2. **Data Collection**: Gather information from social media, review platforms, industry reports, and direct customer feedback.

3. **Trend Monitoring**: Track search volumes, social mentions, and industry publications for emerging patterns.

4. **Competitive Intelligence**: Monitor competitor product launches, pricing changes, and marketing campaigns.

Please try again in a moment, or provide more specific details about what you'd like to research.`, question)
}

func head[T any](items []T, n int) []T {
	if len(items) < n {
		return items
	}
	return items[:n]
}
