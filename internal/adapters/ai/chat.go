package ai

import "context"

// ChatProvider is the single adapter boundary for generative-model calls.
// Agent logic never sees provider-specific request or response shapes, so a
// provider can be swapped without touching the agents.
type ChatProvider interface {
	// Name returns the provider identifier ("openai", "gemini", "groq")
	Name() string

	// Configured reports whether the provider has a usable API key
	Configured() bool

	// Chat sends a chat completion request
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	// JSONMode asks the provider for a JSON object response where supported
	JSONMode bool
}

// Message represents a single message in the conversation
type Message struct {
	Role    MessageRole
	Content string
}

// MessageRole defines the role of a message sender
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatResponse represents the response from a chat completion
type ChatResponse struct {
	Model   string
	Content string
	Usage   Usage
}

// Usage tracks token consumption
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
