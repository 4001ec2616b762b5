package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"marketscope/pkg/errors"
)

const (
	openaiAPIURL = "https://api.openai.com/v1/chat/completions"
	groqAPIURL   = "https://api.groq.com/openai/v1/chat/completions"

	defaultOpenAIModel = "gpt-4o-mini"
	defaultGroqModel   = "llama-3.1-8b-instant"
)

// Ensure OpenAIProvider implements ChatProvider
var _ ChatProvider = (*OpenAIProvider)(nil)

// OpenAIProvider implements chat completions against the OpenAI wire format.
// Groq exposes the same format, so the Groq provider reuses this type with a
// different base URL.
type OpenAIProvider struct {
	name         string
	apiURL       string
	apiKey       string
	defaultModel string
	timeout      time.Duration
	limiter      *rate.Limiter
}

// NewOpenAIProvider creates an OpenAI chat provider
func NewOpenAIProvider(apiKey string, timeout time.Duration, reqPerMinute int) *OpenAIProvider {
	return newOpenAICompatible("openai", openaiAPIURL, defaultOpenAIModel, apiKey, timeout, reqPerMinute)
}

// NewGroqProvider creates a Groq chat provider (OpenAI-compatible endpoint)
func NewGroqProvider(apiKey string, timeout time.Duration, reqPerMinute int) *OpenAIProvider {
	return newOpenAICompatible("groq", groqAPIURL, defaultGroqModel, apiKey, timeout, reqPerMinute)
}

func newOpenAICompatible(name, apiURL, model, apiKey string, timeout time.Duration, reqPerMinute int) *OpenAIProvider {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if reqPerMinute <= 0 {
		reqPerMinute = 60
	}

	burst := reqPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &OpenAIProvider{
		name:         name,
		apiURL:       apiURL,
		apiKey:       apiKey,
		defaultModel: model,
		timeout:      timeout,
		limiter:      rate.NewLimiter(rate.Limit(float64(reqPerMinute)/60.0), burst),
	}
}

// Name returns the provider identifier
func (p *OpenAIProvider) Name() string { return p.name }

// Configured reports whether an API key is present
func (p *OpenAIProvider) Configured() bool { return p.apiKey != "" }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature,omitempty"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Chat sends a chat completion request
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.apiKey == "" {
		return nil, errors.Wrapf(errors.ErrNoProviderConfigured, "%s API key not configured", p.name)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrapf(errors.ErrRateLimitExceeded, "%s: %v", p.name, err)
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	apiReq := openAIRequest{
		Model:       model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if apiReq.MaxTokens == 0 {
		apiReq.MaxTokens = 1500
	}
	if req.JSONMode {
		apiReq.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	for _, msg := range req.Messages {
		apiReq.Messages = append(apiReq.Messages, openAIMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %s request", p.name)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create HTTP request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	client := &http.Client{Timeout: p.timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "send %s request", p.name)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s response", p.name)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, errors.Wrapf(errors.ErrExternal, "%s API error (%d): %s - %s",
				p.name, resp.StatusCode, errResp.Error.Type, errResp.Error.Message)
		}
		return nil, errors.Wrapf(errors.ErrExternal, "%s API error (%d): %s",
			p.name, resp.StatusCode, string(respBody))
	}

	var apiResp openAIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s response", p.name)
	}

	if len(apiResp.Choices) == 0 {
		return nil, errors.Wrapf(errors.ErrExternal, "%s returned no choices", p.name)
	}

	return &ChatResponse{
		Model:   apiResp.Model,
		Content: apiResp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     apiResp.Usage.PromptTokens,
			CompletionTokens: apiResp.Usage.CompletionTokens,
			TotalTokens:      apiResp.Usage.TotalTokens,
		},
	}, nil
}
