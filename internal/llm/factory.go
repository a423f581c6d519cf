package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/store"
)

var providerCtors = map[string]func(context.Context, Config) (Provider, error){
	"anthropic": func(_ context.Context, c Config) (Provider, error) { return NewAnthropicProvider(c.Anthropic) },
	"openai":    func(_ context.Context, c Config) (Provider, error) { return NewOpenAIProvider(c.OpenAI) },
	"openrouter": func(_ context.Context, c Config) (Provider, error) {
		return NewOpenRouterProvider(c.OpenRouter)
	},
	"gemini": func(ctx context.Context, c Config) (Provider, error) { return NewGeminiProvider(ctx, c.Gemini) },
}

// NewProvider builds the configured vendor provider. Calls flow
// timeout -> retry -> event logging -> vendor, so every retry is its own
// event. The mock provider is returned bare.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, log *logger.Logger) (Provider, error) {
	if cfg.Provider == "mock" {
		return NewMockProvider(), nil
	}
	ctor, ok := providerCtors[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	base, err := ctor(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return withTimeout(WithRetry(WithLogging(base, cfg.Provider, events, log), cfg.Retry), cfg.Timeout), nil
}

// NewEmbedder builds the configured embedder with the same decoration as
// NewProvider. An empty provider selects the offline mock.
func NewEmbedder(ctx context.Context, cfg EmbedConfig, retry RetryConfig, events store.EventRepo, log *logger.Logger) (Embedder, error) {
	var (
		base Embedder
		err  error
	)
	switch cfg.Provider {
	case "":
		return nil, nil
	case "mock":
		return NewMockEmbedder(64), nil
	case "openai":
		base, err = NewOpenAIEmbedder(cfg)
	case "gemini":
		base, err = NewGeminiEmbedder(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s embedder: %w", cfg.Provider, err)
	}
	return WithEmbedRetry(WithEmbedLogging(base, cfg.Provider, events, log), retry), nil
}
