package embeddings

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"marketscope/pkg/errors"
	"marketscope/pkg/logger"
)

// OpenAIProvider implements embedding generation using the official OpenAI Go SDK
type OpenAIProvider struct {
	client     openai.Client
	model      openai.EmbeddingModel
	dimensions int
	timeout    time.Duration
	log        *logger.Logger
}

// NewOpenAIProvider creates a new OpenAI embedding provider
func NewOpenAIProvider(apiKey string, model string, timeout time.Duration) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrNoProviderConfigured, "openai API key is required for embeddings")
	}

	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAIProvider{
		client:     client,
		model:      openai.EmbeddingModel(model),
		dimensions: getDimensions(model),
		timeout:    timeout,
		log:        logger.Get().With("component", "openai_embeddings", "model", model),
	}, nil
}

// GenerateEmbedding creates a vector embedding for the given text
func (p *OpenAIProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "text cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	response, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Model: p.model,
	})
	if err != nil {
		return nil, errors.Wrap(err, "openai API call failed")
	}

	if len(response.Data) == 0 {
		return nil, errors.Wrap(errors.ErrInternal, "no embedding data returned")
	}

	// Convert []float64 to []float32 for pgvector compatibility
	embeddingData := response.Data[0].Embedding
	result := make([]float32, len(embeddingData))
	for i, val := range embeddingData {
		result[i] = float32(val)
	}

	p.log.Debugw("Generated embedding",
		"text_length", len(text),
		"embedding_dims", len(result),
		"tokens_used", response.Usage.TotalTokens)

	return result, nil
}

// GenerateBatchEmbeddings creates embeddings for multiple texts in one API call
func (p *OpenAIProvider) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "texts cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	response, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model: p.model,
	})
	if err != nil {
		return nil, errors.Wrap(err, "openai batch API call failed")
	}

	if len(response.Data) != len(texts) {
		return nil, errors.Wrapf(errors.ErrInternal, "expected %d embeddings, got %d", len(texts), len(response.Data))
	}

	embeddings := make([][]float32, len(response.Data))
	for i, data := range response.Data {
		result := make([]float32, len(data.Embedding))
		for j, val := range data.Embedding {
			result[j] = float32(val)
		}
		embeddings[i] = result
	}

	p.log.Debugw("Generated batch embeddings",
		"batch_size", len(texts),
		"tokens_used", response.Usage.TotalTokens)

	return embeddings, nil
}

// Dimensions returns the dimensionality of embeddings
func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}

// Name returns the model name
func (p *OpenAIProvider) Name() string {
	return string(p.model)
}

// getDimensions returns embedding dimensions for known OpenAI models
func getDimensions(model string) int {
	switch model {
	case openai.EmbeddingModelTextEmbedding3Large:
		return 3072
	case openai.EmbeddingModelTextEmbedding3Small, openai.EmbeddingModelTextEmbeddingAda002:
		return 1536
	default:
		return 1536
	}
}
