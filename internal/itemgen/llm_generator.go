package itemgen

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/abhisek/adaptiq/internal/llm"
)

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

type batchOutput struct {
	Items []itemOutput `json:"items"`
}

type itemOutput struct {
	Question    string   `json:"question"`
	Choices     []string `json:"choices"`
	AnswerIndex int      `json:"answer_index"`
	Explanation string   `json:"explanation"`
}

// Generate requests one batch and validates every item in it.
func (g *LLMGenerator) Generate(ctx context.Context, req Request) ([]MCQ, error) {
	if req.Count <= 0 {
		return nil, nil
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeItemGen)

	resp, err := g.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(req, g.config)},
		},
		Schema:      BatchSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, &GenerationError{Reason: "provider error", Err: err}
	}

	var raw batchOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, &GenerationError{Reason: "malformed response", Err: err}
	}

	out := make([]MCQ, 0, len(raw.Items))
	stems := make(map[string]bool, len(raw.Items))
	for _, it := range raw.Items {
		q := MCQ{
			Question:     strings.TrimSpace(it.Question),
			Choices:      it.Choices,
			CorrectIndex: it.AnswerIndex,
			Explanation:  strings.TrimSpace(it.Explanation),
		}
		for _, v := range g.config.Validators {
			if verr := v.Validate(&q, req); verr != nil {
				return nil, &GenerationError{Reason: "invalid item", Err: verr}
			}
		}
		key := strings.ToLower(q.Question)
		if stems[key] {
			continue
		}
		stems[key] = true
		out = append(out, q)
	}

	if len(out) < req.Count {
		return nil, &GenerationError{Reason: "undersized batch", Want: req.Count, Got: len(out)}
	}
	return out, nil
}
