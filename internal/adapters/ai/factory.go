package ai

import (
	"marketscope/internal/adapters/config"
	"marketscope/pkg/logger"
)

// Registry holds the configured chat providers. Agent code asks for a
// provider by role; unconfigured providers degrade the caller to its next
// fallback tier instead of failing.
type Registry struct {
	openai *OpenAIProvider
	gemini *GeminiProvider
	groq   *OpenAIProvider
	log    *logger.Logger
}

// NewRegistry builds providers from configuration. Missing keys are allowed.
func NewRegistry(cfg config.AIConfig) *Registry {
	r := &Registry{
		openai: NewOpenAIProvider(cfg.OpenAIKey, cfg.RequestTimeout, cfg.RequestsPerMin),
		gemini: NewGeminiProvider(cfg.GeminiKey, cfg.RequestTimeout),
		groq:   NewGroqProvider(cfg.GroqKey, cfg.RequestTimeout, cfg.RequestsPerMin),
		log:    logger.Get().With("component", "ai_registry"),
	}

	for _, p := range []ChatProvider{r.openai, r.gemini, r.groq} {
		if !p.Configured() {
			r.log.Warnf("Provider %s has no API key, its tier will be skipped", p.Name())
		}
	}

	return r
}

// Producer returns the provider used by producer agents (OpenAI in the
// reference deployment).
func (r *Registry) Producer() ChatProvider { return r.openai }

// Insight returns the provider used by the insight aggregator.
func (r *Registry) Insight() ChatProvider { return r.gemini }

// Assistant returns the chat assistant provider, preferring Groq for
// latency and falling back to whichever other provider has a key.
func (r *Registry) Assistant() ChatProvider {
	if r.groq.Configured() {
		return r.groq
	}
	if r.openai.Configured() {
		return r.openai
	}
	return r.gemini
}
