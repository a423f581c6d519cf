package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config selects and configures the generation vendor.
type Config struct {
	// Provider is one of "anthropic", "openai", "gemini", "openrouter"
	// or "mock".
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call including its retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIConfig also covers self-hosted OpenAI-compatible gateways via
// BaseURL.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string // defaults to the public OpenRouter endpoint
}

// RetryConfig is an exponential backoff policy for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

func DefaultConfig() Config {
	return Config{
		Provider:   "anthropic",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 60 * time.Second,
	}
}

// envOverrides lists the ADAPTIQ_* variables ConfigFromEnv honours.
var envOverrides = []struct {
	name  string
	field func(*Config) *string
}{
	{"ADAPTIQ_LLM_PROVIDER", func(c *Config) *string { return &c.Provider }},
	{"ADAPTIQ_ANTHROPIC_API_KEY", func(c *Config) *string { return &c.Anthropic.APIKey }},
	{"ADAPTIQ_ANTHROPIC_MODEL", func(c *Config) *string { return &c.Anthropic.Model }},
	{"ADAPTIQ_ANTHROPIC_BASE_URL", func(c *Config) *string { return &c.Anthropic.BaseURL }},
	{"ADAPTIQ_OPENAI_API_KEY", func(c *Config) *string { return &c.OpenAI.APIKey }},
	{"ADAPTIQ_OPENAI_MODEL", func(c *Config) *string { return &c.OpenAI.Model }},
	{"ADAPTIQ_OPENAI_BASE_URL", func(c *Config) *string { return &c.OpenAI.BaseURL }},
	{"ADAPTIQ_GEMINI_API_KEY", func(c *Config) *string { return &c.Gemini.APIKey }},
	{"ADAPTIQ_GEMINI_MODEL", func(c *Config) *string { return &c.Gemini.Model }},
	{"ADAPTIQ_GEMINI_BASE_URL", func(c *Config) *string { return &c.Gemini.BaseURL }},
	{"ADAPTIQ_OPENROUTER_API_KEY", func(c *Config) *string { return &c.OpenRouter.APIKey }},
	{"ADAPTIQ_OPENROUTER_MODEL", func(c *Config) *string { return &c.OpenRouter.Model }},
	{"ADAPTIQ_OPENROUTER_BASE_URL", func(c *Config) *string { return &c.OpenRouter.BaseURL }},
}

// ConfigFromEnv starts from DiscoverConfig (or the defaults) and applies
// any ADAPTIQ_* overrides on top.
func ConfigFromEnv() Config {
	cfg, ok := DiscoverConfig()
	if !ok {
		cfg = DefaultConfig()
	}
	for _, o := range envOverrides {
		if v := os.Getenv(o.name); v != "" {
			*o.field(&cfg) = v
		}
	}
	if v := os.Getenv("ADAPTIQ_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	return cfg
}

// vendorKeys is the discovery order for the vendors' own key variables.
var vendorKeys = []struct {
	provider string
	env      string
	field    func(*Config) *string
}{
	{"gemini", "GEMINI_API_KEY", func(c *Config) *string { return &c.Gemini.APIKey }},
	{"openai", "OPENAI_API_KEY", func(c *Config) *string { return &c.OpenAI.APIKey }},
	{"anthropic", "ANTHROPIC_API_KEY", func(c *Config) *string { return &c.Anthropic.APIKey }},
	{"openrouter", "OPENROUTER_API_KEY", func(c *Config) *string { return &c.OpenRouter.APIKey }},
}

// DiscoverConfig selects the first vendor whose standard API key variable
// is set. It reports false when none is.
func DiscoverConfig() (Config, bool) {
	for _, v := range vendorKeys {
		if k := os.Getenv(v.env); k != "" {
			cfg := DefaultConfig()
			cfg.Provider = v.provider
			*v.field(&cfg) = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate reports a missing API key for the selected provider.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case "mock":
		return nil
	case "anthropic":
		key = c.Anthropic.APIKey
	case "openai":
		key = c.OpenAI.APIKey
	case "gemini":
		key = c.Gemini.APIKey
	case "openrouter":
		key = c.OpenRouter.APIKey
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("an API key is required for the %s provider (set ADAPTIQ_%s_API_KEY)", c.Provider, strings.ToUpper(c.Provider))
	}
	return nil
}
