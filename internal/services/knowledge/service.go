package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"marketscope/internal/adapters/config"
	"marketscope/internal/adapters/embeddings"
	"marketscope/internal/domain/competitor"
	"marketscope/internal/domain/knowledge"
	"marketscope/internal/domain/sentiment"
	"marketscope/internal/domain/trend"
	"marketscope/internal/metrics"
	"marketscope/pkg/errors"
	"marketscope/pkg/logger"
)

// Service turns collected research rows into embedded knowledge chunks and
// answers similarity searches over them
type Service struct {
	chunks      knowledge.Repository
	sentiments  sentiment.Repository
	competitors competitor.Repository
	trends      trend.Repository
	embedder    embeddings.Provider
	cfg         config.AgentsConfig
	log         *logger.Logger
}

// NewService creates the knowledge service. embedder may be nil when no
// embedding key is configured; Process and Search then report
// ErrNoProviderConfigured.
func NewService(
	chunks knowledge.Repository,
	sentiments sentiment.Repository,
	competitors competitor.Repository,
	trends trend.Repository,
	embedder embeddings.Provider,
	cfg config.AgentsConfig,
) *Service {
	return &Service{
		chunks:      chunks,
		sentiments:  sentiments,
		competitors: competitors,
		trends:      trends,
		embedder:    embedder,
		cfg:         cfg,
		log:         logger.Get().With("component", "knowledge_service"),
	}
}

// Process serializes every collected row for the query into text, chunks it,
// embeds the chunks in one batch and stores them. Returns the number of
// chunks stored.
func (s *Service) Process(ctx context.Context, queryID uuid.UUID) (int, error) {
	if s.embedder == nil {
		return 0, errors.Wrap(errors.ErrNoProviderConfigured, "no embedding provider for knowledge processing")
	}

	texts, err := s.collectTexts(ctx, queryID)
	if err != nil {
		return 0, err
	}
	if len(texts) == 0 {
		s.log.Infow("No rows to process", "query_id", queryID)
		return 0, nil
	}

	var allChunks []string
	for _, text := range texts {
		allChunks = append(allChunks, ChunkText(text, s.cfg.ChunkSize)...)
	}

	vectors, err := s.embedder.GenerateBatchEmbeddings(ctx, allChunks)
	if err != nil {
		return 0, errors.Wrap(err, "failed to embed chunks")
	}

	processedAt := time.Now().UTC().Format(time.RFC3339)
	stored := 0
	for i, content := range allChunks {
		chunk := &knowledge.Chunk{
			ID:        uuid.New(),
			QueryID:   queryID,
			Content:   content,
			Embedding: pgvector.NewVector(vectors[i]),
			Metadata:  knowledge.Metadata{"processed_at": processedAt},
			CreatedAt: time.Now().UTC(),
		}
		if err := s.chunks.Insert(ctx, chunk); err != nil {
			s.log.Errorw("Failed to store chunk", "query_id", queryID, "error", err)
			continue
		}
		stored++
	}

	metrics.ChunksStored.Add(float64(stored))
	s.log.Infow("Knowledge processing completed", "query_id", queryID, "chunks", stored)
	return stored, nil
}

// Search embeds the question and returns the most similar stored chunks for
// the query, using the configured threshold and limit when the caller passes
// zero values.
func (s *Service) Search(ctx context.Context, queryID uuid.UUID, question string, limit int) ([]knowledge.Match, error) {
	if s.embedder == nil {
		return nil, errors.Wrap(errors.ErrNoProviderConfigured, "no embedding provider for knowledge search")
	}
	if strings.TrimSpace(question) == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "search question cannot be empty")
	}
	if limit <= 0 {
		limit = s.cfg.SearchLimit
	}

	vector, err := s.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed search question")
	}

	matches, err := s.chunks.SearchSimilar(ctx, queryID, pgvector.NewVector(vector), s.cfg.MatchThreshold, limit)
	if err != nil {
		return nil, err
	}

	s.log.Debugw("Knowledge search completed",
		"query_id", queryID,
		"matches", len(matches))
	return matches, nil
}

// collectTexts renders each stored row into one retrievable text block
func (s *Service) collectTexts(ctx context.Context, queryID uuid.UUID) ([]string, error) {
	sentiments, err := s.sentiments.ListByQuery(ctx, queryID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load sentiment rows")
	}
	competitors, err := s.competitors.ListByQuery(ctx, queryID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load competitor rows")
	}
	trends, err := s.trends.ListByQuery(ctx, queryID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load trend rows")
	}

	texts := make([]string, 0, len(sentiments)+len(competitors)+len(trends))
	for _, rec := range sentiments {
		texts = append(texts, fmt.Sprintf(
			"Sentiment from %s: %s (%.2f confidence). Content: %s. Topics: %s",
			rec.Source, rec.Sentiment, rec.Confidence, rec.Content, strings.Join(rec.Topics, ", ")))
	}
	for _, rec := range competitors {
		price := "unknown"
		if rec.Price != nil {
			price = "$" + rec.Price.StringFixed(2)
		}
		rating := "unknown"
		if rec.Rating != nil {
			rating = fmt.Sprintf("%.1f", *rec.Rating)
		}
		url := ""
		if rec.URL != nil {
			url = *rec.URL
		}
		texts = append(texts, fmt.Sprintf(
			"Competitor %s: Price %s, Rating %s. Features: %s. URL: %s",
			rec.CompetitorName, price, rating, strings.Join(rec.Features, ", "), url))
	}
	for _, rec := range trends {
		volume := int64(0)
		if rec.SearchVolume != nil {
			volume = *rec.SearchVolume
		}
		texts = append(texts, fmt.Sprintf(
			"Trend keyword %q: %d searches, %s trend over %s.",
			rec.Keyword, volume, rec.Direction, rec.TimePeriod))
	}
	return texts, nil
}
