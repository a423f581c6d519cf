package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// openaiBackend speaks the chat completions API, which OpenRouter and
// other compatible gateways also serve.
type openaiBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider builds a Provider on OpenAI chat completions.
func NewOpenAIProvider(cfg OpenAIConfig) (Provider, error) {
	if err := requireKey("openai", cfg.APIKey); err != nil {
		return nil, err
	}
	return newChatProvider("openai", cfg.APIKey, cfg.BaseURL, resolveModel(cfg.Model)), nil
}

// NewOpenRouterProvider targets OpenRouter. Model names are vendor-prefixed
// OpenRouter IDs and are never aliased.
func NewOpenRouterProvider(cfg OpenRouterConfig) (Provider, error) {
	if err := requireKey("openrouter", cfg.APIKey); err != nil {
		return nil, err
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	return newChatProvider("openrouter", cfg.APIKey, baseURL, cfg.Model), nil
}

func newChatProvider(vendor, key, baseURL, model string) *vendorProvider {
	config := openai.DefaultConfig(key)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &vendorProvider{
		vendor: vendor,
		model:  model,
		b:      &openaiBackend{client: openai.NewClientWithConfig(config), model: model},
	}
}

func (o *openaiBackend) complete(ctx context.Context, req Request) (*completion, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:               o.model,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
	}
	if req.System != "" {
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	if req.Schema != nil {
		raw, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return nil, fmt.Errorf("marshal schema %s: %w", req.Schema.Name, err)
		}
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.Schema.Name,
				Description: req.Schema.Description,
				Schema:      json.RawMessage(raw),
				Strict:      true,
			},
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("chat completion returned no choices")}
	}

	choice := resp.Choices[0]
	c := &completion{
		text:  choice.Message.Content,
		model: resp.Model,
		stop:  StopEnd,
		usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}
	if choice.FinishReason == openai.FinishReasonLength {
		c.stop = StopMaxTokens
	}
	return c, nil
}

// classifyOpenAIError is shared with the embeddings client.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}
	return classifyStatus(0, err)
}
