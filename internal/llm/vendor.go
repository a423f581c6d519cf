package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// completion is what a vendor backend returns before validation.
type completion struct {
	text  string
	usage Usage
	model string
	stop  string
}

// backend is one vendor SDK. Errors returned by complete are already
// classified.
type backend interface {
	complete(ctx context.Context, req Request) (*completion, error)
}

// vendorProvider adapts a backend to Provider, adding schema validation and
// truncation detection so the vendor files only deal with their SDK.
type vendorProvider struct {
	vendor string
	model  string
	b      backend
}

func (p *vendorProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	c, err := p.b.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	content := json.RawMessage(c.text)

	if req.Schema != nil {
		if c.stop == StopMaxTokens {
			return nil, &ErrMaxTokensExceeded{Content: content}
		}
		if err := validateResponse(req.Schema, content); err != nil {
			return nil, err
		}
	}

	model := c.model
	if model == "" {
		model = p.model
	}
	if c.usage.TotalTokens == 0 {
		c.usage.TotalTokens = c.usage.InputTokens + c.usage.OutputTokens
	}
	return &Response{Content: content, Usage: c.usage, Model: model, StopReason: c.stop}, nil
}

func (p *vendorProvider) ModelID() string { return p.model }

// Vendor names the SDK behind the provider.
func (p *vendorProvider) Vendor() string { return p.vendor }

// modelAliases lets configuration use short names. Anything else is
// passed to the vendor untouched.
var modelAliases = map[string]string{
	"claude-sonnet": "claude-sonnet-4-20250514",
	"claude-haiku":  "claude-haiku-4-5-20251001",
	"gpt-4o":        "gpt-4o",
	"gpt-4o-mini":   "gpt-4o-mini",
	"gemini-flash":  "gemini-2.0-flash",
	"gemini-pro":    "gemini-2.0-pro",
}

func resolveModel(name string) string {
	if id, ok := modelAliases[name]; ok {
		return id
	}
	return name
}

func requireKey(vendor, key string) error {
	if key == "" {
		return fmt.Errorf("%s API key is required", vendor)
	}
	return nil
}
