package itemgen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/adaptiq/internal/llm"
)

func testRequest(count int) Request {
	return Request{
		Topic:      "Corporate Finance",
		Subtopic:   "Cost of Capital",
		Difficulty: "medium",
		Count:      count,
	}
}

func batchJSON(items ...string) json.RawMessage {
	return json.RawMessage(`{"items":[` + strings.Join(items, ",") + `]}`)
}

func item(q string, answer int) string {
	b, _ := json.Marshal(map[string]any{
		"question":     q,
		"choices":      []string{"8%", "9%", "10%", "11%"},
		"answer_index": answer,
		"explanation":  "Weighted by market values.",
	})
	return string(b)
}

func TestGenerate_Valid(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: batchJSON(item("What is the WACC?", 2), item("What is the after-tax cost of debt?", 1), item("What is beta?", 0)),
	})
	gen := New(mock, DefaultConfig())

	items, err := gen.Generate(context.Background(), testRequest(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Question != "What is the WACC?" || items[0].CorrectIndex != 2 {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if len(items[1].Choices) != ChoiceCount {
		t.Errorf("expected %d choices, got %d", ChoiceCount, len(items[1].Choices))
	}

	req := mock.Calls[0]
	if req.Schema != BatchSchema {
		t.Error("expected batch schema on request")
	}
	if !strings.Contains(req.System, "finance instructor") {
		t.Error("system prompt missing role")
	}
	if !strings.Contains(req.Messages[0].Content, "Subtopic: Cost of Capital") {
		t.Errorf("user message missing subtopic: %s", req.Messages[0].Content)
	}
}

func TestGenerate_ExtraItemsKept(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: batchJSON(item("Q1?", 0), item("Q2?", 1), item("Q3?", 2)),
	})
	gen := New(mock, DefaultConfig())

	items, err := gen.Generate(context.Background(), testRequest(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("expected all 3 items, got %d", len(items))
	}
}

func TestGenerate_Undersized(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: batchJSON(item("Q1?", 0)),
	})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), testRequest(3))
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Want != 3 || genErr.Got != 1 {
		t.Errorf("Want/Got = %d/%d", genErr.Want, genErr.Got)
	}
}

func TestGenerate_DuplicateStemsCountOnce(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: batchJSON(item("Q1?", 0), item("q1?", 1)),
	})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), testRequest(2))
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Got != 1 {
		t.Fatalf("expected undersized GenerationError, got %v", err)
	}
}

func TestGenerate_Malformed(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"items": "nope"}`),
	})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), testRequest(1))
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Reason != "malformed response" {
		t.Errorf("Reason = %q", genErr.Reason)
	}
}

func TestGenerate_InvalidItemRejectsBatch(t *testing.T) {
	bad := `{"question":"Q?","choices":["a","b","c"],"answer_index":0,"explanation":""}`
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: batchJSON(item("Q1?", 0), bad),
	})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), testRequest(1))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected wrapped ValidationError, got %v", err)
	}
	if verr.Validator != "structural" {
		t.Errorf("Validator = %q", verr.Validator)
	}
}

func TestGenerate_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Err: &llm.ErrProviderUnavailable{Err: errors.New("down")},
	})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), testRequest(1))
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	var unavailable *llm.ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		t.Error("expected provider error to be unwrappable")
	}
}

func TestGenerate_ZeroCount(t *testing.T) {
	mock := llm.NewMockProvider()
	gen := New(mock, DefaultConfig())

	items, err := gen.Generate(context.Background(), testRequest(0))
	if err != nil || items != nil {
		t.Fatalf("expected no-op, got %v, %v", items, err)
	}
	if mock.CallCount() != 0 {
		t.Errorf("expected no provider calls, got %d", mock.CallCount())
	}
}
