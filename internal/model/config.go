package model

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the complete claimlens configuration
type Config struct {
	Providers ProvidersConfig `yaml:"providers" validate:"required"`
	Search    SearchConfig    `yaml:"search"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Pipeline  PipelineConfig  `yaml:"pipeline" validate:"required"`
	Retry     RetryConfig     `yaml:"retry"`
	HTTP      HTTPConfig      `yaml:"http"`
	Store     StoreConfig     `yaml:"store"`
	Server    ServerConfig    `yaml:"server"`
}

// ProviderConfig configures one reasoning provider
type ProviderConfig struct {
	Name      string        `yaml:"name" validate:"required,oneof=openai anthropic gemini ollama"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"` // Usually injected from env, not the file
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateCap   int           `yaml:"rate_cap" validate:"gt=0"` // Max calls admitted per window
	RateWin   time.Duration `yaml:"rate_window" validate:"gt=0"`
	MaxTokens int           `yaml:"max_tokens"`
}

// ProvidersConfig lists configured providers and the two cascade orders
type ProvidersConfig struct {
	Available       []ProviderConfig `yaml:"available" validate:"min=1,dive"`
	ExtractionOrder []string         `yaml:"extraction_order"` // Cascade priority for extraction calls
	VerdictOrder    []string         `yaml:"verdict_order"`    // Cascade priority for verdict calls
}

// SearchConfig configures the web search collaborator. An empty APIKey
// disables web search entirely; lookups then yield empty result sets.
type SearchConfig struct {
	APIKey     string        `yaml:"api_key"`
	Endpoint   string        `yaml:"endpoint"`
	MaxResults int           `yaml:"max_results"`
	Timeout    time.Duration `yaml:"timeout"`
	EnrichTop  bool          `yaml:"enrich_top"` // Fetch visible text of the top hit
}

// KnowledgeConfig configures the knowledge-base lookups
type KnowledgeConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxEntities int           `yaml:"max_entities"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	HostRPS     float64       `yaml:"host_rps"` // Outbound per-host request rate
}

// PipelineConfig bounds orchestration behavior
type PipelineConfig struct {
	MaxConcurrentClaims int `yaml:"max_concurrent_claims" validate:"gt=0"`
	MinInputChars       int `yaml:"min_input_chars" validate:"gt=0"`
	MaxClaims           int `yaml:"max_claims"`
}

// RetryConfig bounds the retry/cascade executor
type RetryConfig struct {
	MaxRetries  int           `yaml:"max_retries" validate:"gt=0"`
	BackoffBase time.Duration `yaml:"backoff_base"`
}

// HTTPConfig holds shared outbound HTTP settings
type HTTPConfig struct {
	UserAgent  string `yaml:"user_agent"`
	HTTPProxy  string `yaml:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy"`
	NoProxy    string `yaml:"no_proxy"`
}

// StoreConfig configures run persistence
type StoreConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// ServerConfig configures the HTTP surface for the serve command
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Providers: ProvidersConfig{
			Available: []ProviderConfig{
				{Name: "openai", Model: "gpt-4o-mini", Timeout: 10 * time.Second, RateCap: 30, RateWin: time.Minute, MaxTokens: 1000},
				{Name: "anthropic", Model: "claude-3-5-haiku-20241022", Timeout: 10 * time.Second, RateCap: 20, RateWin: time.Minute, MaxTokens: 1000},
				{Name: "gemini", Model: "gemini-1.5-flash", Timeout: 10 * time.Second, RateCap: 15, RateWin: time.Minute, MaxTokens: 1000},
			},
			ExtractionOrder: []string{"openai", "anthropic", "gemini"},
			VerdictOrder:    []string{"anthropic", "openai", "gemini"},
		},
		Search: SearchConfig{
			Endpoint:   "https://google.serper.dev/search",
			MaxResults: 5,
			Timeout:    8 * time.Second,
		},
		Knowledge: KnowledgeConfig{
			BaseURL:     "https://en.wikipedia.org/api/rest_v1",
			Timeout:     8 * time.Second,
			MaxEntities: 3,
			CacheTTL:    15 * time.Minute,
			HostRPS:     4,
		},
		Pipeline: PipelineConfig{
			MaxConcurrentClaims: 5,
			MinInputChars:       50,
			MaxClaims:           20,
		},
		Retry: RetryConfig{
			MaxRetries:  3,
			BackoffBase: time.Second,
		},
		HTTP: HTTPConfig{
			UserAgent: "Claimlens/0.1 (+https://github.com/okarpov/claimlens)",
		},
		Store: StoreConfig{
			Path: "~/.claimlens/runs",
		},
		Server: ServerConfig{
			Addr: ":8085",
		},
	}
}

// Validate checks structural constraints on the configuration
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Provider returns the configuration for a named provider, if present
func (p *ProvidersConfig) Provider(name string) (ProviderConfig, bool) {
	for _, pc := range p.Available {
		if pc.Name == name {
			return pc, true
		}
	}
	return ProviderConfig{}, false
}
