package llm

import (
	"context"
	"time"

	"github.com/okarpov/claimlens/internal/model"
)

// Provider is one reasoning engine in the cascade. All providers are called
// through this interface; the ordered provider slice drives cascade order,
// so no call site branches on the concrete provider.
type Provider interface {
	// Name returns the provider name used in stats, events, and config
	Name() string

	// Generate produces text for the prompt. Errors are treated as
	// retryable by the cascade executor.
	Generate(ctx context.Context, prompt string) (string, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Config holds one provider's client configuration
type Config struct {
	// Name: "openai", "anthropic", "gemini", "ollama"
	Name string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, proxies)
	BaseURL string

	// Timeout per Generate call
	Timeout time.Duration

	// MaxTokens bounds response length
	MaxTokens int

	// HTTP carries outbound proxy settings
	HTTP model.HTTPConfig
}

// ConfigFromModel converts a model.ProviderConfig into a client Config
func ConfigFromModel(pc model.ProviderConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Name:      pc.Name,
		Model:     pc.Model,
		APIKey:    pc.APIKey,
		BaseURL:   pc.BaseURL,
		Timeout:   pc.Timeout,
		MaxTokens: pc.MaxTokens,
		HTTP:      httpCfg,
	}
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 10 * time.Second
}

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1000
}

// systemPrompt frames every call: the engine classifies evidence support,
// it does not assert truth on its own authority.
const systemPrompt = "You are a fact verification assistant. You answer strictly in the requested JSON format and never invent evidence that was not provided."
