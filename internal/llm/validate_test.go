package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"minimal", `{"question":"What is a bond?"}`, false},
		{"with enum", `{"question":"Q?","level":"advanced"}`, false},
		{"missing required", `{"level":"basic"}`, true},
		{"wrong type", `{"question":42}`, true},
		{"enum miss", `{"question":"Q?","level":"expert"}`, true},
		{"extra property", `{"question":"Q?","hint":"h"}`, true},
		{"not json", `{"question":`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(questionSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var invalid *ErrInvalidResponse
			if !errors.As(err, &invalid) || string(invalid.Content) != tt.raw {
				t.Errorf("expected ErrInvalidResponse carrying the content, got %T (%v)", err, err)
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`not json`)); err != nil {
		t.Fatalf("nil schema should accept anything, got %v", err)
	}
}

func TestValidateResponse_GoTypedDefinition(t *testing.T) {
	// Definitions built in Go use int and []string, not the float64 and
	// []any that decoding JSON would produce.
	schema := &Schema{
		Name: "choices-go-typed",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"choices": map[string]any{
					"type":     "array",
					"items":    map[string]any{"type": "string"},
					"minItems": 2,
					"maxItems": 2,
				},
			},
			"required": []string{"choices"},
		},
	}
	if err := validateResponse(schema, json.RawMessage(`{"choices":["a","b"]}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validateResponse(schema, json.RawMessage(`{"choices":["a"]}`)); err == nil {
		t.Fatal("minItems should be enforced")
	}
}
