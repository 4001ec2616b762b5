package ai

import (
	"context"
	"time"

	"google.golang.org/genai"

	"marketscope/pkg/errors"
)

const defaultGeminiModel = "gemini-1.5-flash"

// Ensure GeminiProvider implements ChatProvider
var _ ChatProvider = (*GeminiProvider)(nil)

// GeminiProvider implements chat completions using the official GenAI SDK
type GeminiProvider struct {
	apiKey  string
	timeout time.Duration
}

// NewGeminiProvider creates a Gemini chat provider
func NewGeminiProvider(apiKey string, timeout time.Duration) *GeminiProvider {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &GeminiProvider{apiKey: apiKey, timeout: timeout}
}

// Name returns the provider identifier
func (p *GeminiProvider) Name() string { return "gemini" }

// Configured reports whether an API key is present
func (p *GeminiProvider) Configured() bool { return p.apiKey != "" }

// Chat sends a generateContent request
func (p *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.apiKey == "" {
		return nil, errors.Wrap(errors.ErrNoProviderConfigured, "gemini API key not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}

	model := req.Model
	if model == "" {
		model = defaultGeminiModel
	}

	cfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}

	// Gemini takes the system prompt as a separate instruction; user and
	// assistant turns are flattened into the prompt text.
	var prompt string
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			cfg.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: msg.Content}},
			}
		default:
			if prompt != "" {
				prompt += "\n\n"
			}
			prompt += msg.Content
		}
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "gemini generation failed")
	}

	text := result.Text()
	if text == "" {
		return nil, errors.Wrap(errors.ErrExternal, "gemini returned empty response")
	}

	resp := &ChatResponse{
		Model:   model,
		Content: text,
	}
	if result.UsageMetadata != nil {
		resp.Usage = Usage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}

	return resp, nil
}
