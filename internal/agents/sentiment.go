package agents

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"marketscope/internal/adapters/ai"
	"marketscope/internal/adapters/search"
	"marketscope/internal/domain/research"
	"marketscope/internal/domain/sentiment"
	"marketscope/pkg/logger"
)

// sentimentEntry is the shape shared by the generative response and the
// placeholder dataset
type sentimentEntry struct {
	Source     string   `json:"source"`
	Sentiment  string   `json:"sentiment"`
	Confidence float64  `json:"confidence"`
	Content    string   `json:"content"`
	Topics     []string `json:"topics"`
}

type sentimentModelResponse struct {
	Sentiments []sentimentEntry `json:"sentiments"`
}

// SentimentAgent collects sentiment observations about a subject.
// Live tier scores recent tweets with a keyword lexicon; generative tier
// asks the chat provider for entries; placeholder tier stores a fixed trio.
type SentimentAgent struct {
	repo     sentiment.Repository
	provider ai.ChatProvider
	tweets   search.TweetSearcher
	log      *logger.Logger
}

var _ Producer = (*SentimentAgent)(nil)

// NewSentimentAgent creates a sentiment producer
func NewSentimentAgent(repo sentiment.Repository, provider ai.ChatProvider, tweets search.TweetSearcher) *SentimentAgent {
	return &SentimentAgent{
		repo:     repo,
		provider: provider,
		tweets:   tweets,
		log:      logger.Get().With("component", "sentiment_agent"),
	}
}

// Kind returns the agent kind
func (a *SentimentAgent) Kind() Kind { return KindSentiment }

// Run collects sentiment records for the input subject, walking the tiers
// until one of them produces rows
func (a *SentimentAgent) Run(ctx context.Context, input Input) (*Result, error) {
	if a.tweets != nil && a.tweets.Configured() {
		result, err := a.runLive(ctx, input)
		if err == nil {
			return result, nil
		}
		a.log.Warnw("Live sentiment tier failed, falling back", "query_id", input.QueryID, "error", err)
	}

	if a.provider != nil && a.provider.Configured() {
		result, err := a.runGenerative(ctx, input)
		if err == nil {
			return result, nil
		}
		a.log.Warnw("Generative sentiment tier failed, falling back", "query_id", input.QueryID, "error", err)
	}

	return a.store(ctx, input, sentimentFallback(input.SubjectText), research.ProvenancePlaceholder)
}

func (a *SentimentAgent) runLive(ctx context.Context, input Input) (*Result, error) {
	tweets, err := a.tweets.SearchRecent(ctx, input.SubjectText, 10)
	if err != nil {
		return nil, err
	}

	entries := make([]sentimentEntry, 0, len(tweets))
	for _, t := range tweets {
		class, confidence := scoreSentiment(t.Text)
		entries = append(entries, sentimentEntry{
			Source:     "Twitter/X",
			Sentiment:  string(class),
			Confidence: confidence,
			Content:    t.Text,
			Topics:     extractTopics(t.Text),
		})
	}
	if len(entries) == 0 {
		return nil, errNoLiveSignal
	}
	return a.store(ctx, input, entries, research.ProvenanceLive)
}

func (a *SentimentAgent) runGenerative(ctx context.Context, input Input) (*Result, error) {
	resp, err := a.provider.Chat(ctx, ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: sentimentSystemPrompt},
			{Role: ai.RoleUser, Content: sentimentPrompt(input.SubjectText, input.SubjectType)},
		},
		Temperature: 0.7,
		MaxTokens:   1500,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	var parsed sentimentModelResponse
	if err := decodeModelJSON(resp.Content, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Sentiments) == 0 {
		return nil, errEmptyModelResponse
	}
	return a.store(ctx, input, parsed.Sentiments, research.ProvenanceGenerative)
}

func (a *SentimentAgent) store(ctx context.Context, input Input, entries []sentimentEntry, provenance research.Provenance) (*Result, error) {
	stored := 0
	for _, e := range entries {
		class := sentiment.Class(e.Sentiment)
		if !class.Valid() {
			class = sentiment.ClassNeutral
		}
		record := &sentiment.Record{
			ID:         uuid.New(),
			QueryID:    input.QueryID,
			Source:     e.Source,
			Sentiment:  class,
			Confidence: e.Confidence,
			Content:    e.Content,
			Topics:     pq.StringArray(e.Topics),
			Provenance: provenance,
			CreatedAt:  time.Now().UTC(),
		}
		if err := a.repo.Insert(ctx, record); err != nil {
			a.log.Errorw("Failed to insert sentiment record", "query_id", input.QueryID, "error", err)
			continue
		}
		stored++
	}
	if stored == 0 {
		return nil, errNothingStored
	}

	a.log.Infow("Sentiment analysis completed",
		"query_id", input.QueryID,
		"count", stored,
		"provenance", provenance)
	return &Result{Success: true, Count: stored, Provenance: provenance}, nil
}

var positiveWords = []string{
	"great", "love", "excellent", "amazing", "best", "good", "awesome",
	"recommend", "fantastic", "impressive", "happy", "perfect", "wonderful",
}

var negativeWords = []string{
	"bad", "hate", "terrible", "awful", "worst", "poor", "disappointed",
	"broken", "useless", "horrible", "overpriced", "scam", "avoid",
}

// scoreSentiment classifies text with a keyword lexicon. Confidence grows
// with the margin between positive and negative hits, capped at 0.95.
func scoreSentiment(text string) (sentiment.Class, float64) {
	lowered := strings.ToLower(text)

	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(lowered, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lowered, w) {
			neg++
		}
	}

	switch {
	case pos > neg:
		return sentiment.ClassPositive, confidenceFor(pos - neg)
	case neg > pos:
		return sentiment.ClassNegative, confidenceFor(neg - pos)
	default:
		return sentiment.ClassNeutral, 0.5
	}
}

func confidenceFor(margin int) float64 {
	c := 0.6 + 0.1*float64(margin)
	if c > 0.95 {
		c = 0.95
	}
	return c
}

// extractTopics pulls hashtags from the text as topic labels
func extractTopics(text string) []string {
	var topics []string
	for _, word := range strings.Fields(text) {
		if strings.HasPrefix(word, "#") && len(word) > 1 {
			topics = append(topics, strings.TrimPrefix(strings.ToLower(word), "#"))
		}
	}
	return topics
}
