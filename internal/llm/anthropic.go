package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicBackend struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider builds a Provider on the Anthropic Messages API.
// Structured requests use the native JSON output format.
func NewAnthropicProvider(cfg AnthropicConfig) (Provider, error) {
	if err := requireKey("anthropic", cfg.APIKey); err != nil {
		return nil, err
	}
	// Retries belong to WithRetry so each one is logged as an event.
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := resolveModel(cfg.Model)
	return &vendorProvider{
		vendor: "anthropic",
		model:  model,
		b:      &anthropicBackend{client: anthropic.NewClient(opts...), model: model},
	}, nil
}

func (a *anthropicBackend) complete(ctx context.Context, req Request) (*completion, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(req.MaxTokens),
	}
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.Schema != nil {
		params.OutputConfig = anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{Schema: req.Schema.Definition},
		}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(apiErr.StatusCode, err)
		}
		return nil, classifyStatus(0, err)
	}

	c := &completion{
		model: string(msg.Model),
		stop:  StopEnd,
		usage: Usage{InputTokens: int(msg.Usage.InputTokens), OutputTokens: int(msg.Usage.OutputTokens)},
	}
	if msg.StopReason == anthropic.StopReasonMaxTokens {
		c.stop = StopMaxTokens
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			c.text = block.Text
			return c, nil
		}
	}
	return nil, &ErrInvalidResponse{Err: fmt.Errorf("anthropic response has no text block")}
}
