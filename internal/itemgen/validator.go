package itemgen

import (
	"fmt"
	"strings"
)

// Validator checks a single generated item.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	Name() string
	Validate(q *MCQ, req Request) *ValidationError
}

// ValidationError describes why an item failed validation.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// StructuralValidator checks required fields, lengths and the answer index.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *MCQ, _ Request) *ValidationError {
	fail := func(msg string) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: msg}
	}
	switch {
	case strings.TrimSpace(q.Question) == "":
		return fail("question is empty")
	case len(q.Question) > 1000:
		return fail("question exceeds 1000 characters")
	case len(q.Choices) != ChoiceCount:
		return fail(fmt.Sprintf("expected %d choices, got %d", ChoiceCount, len(q.Choices)))
	case q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Choices):
		return fail(fmt.Sprintf("answer_index %d out of range", q.CorrectIndex))
	case len(q.Explanation) > 2000:
		return fail("explanation exceeds 2000 characters")
	}
	for i, c := range q.Choices {
		if strings.TrimSpace(c) == "" {
			return fail(fmt.Sprintf("choice %d is empty", i))
		}
	}
	return nil
}

// DistinctChoicesValidator rejects items with repeated options, which
// would make the correct index ambiguous.
type DistinctChoicesValidator struct{}

func (v *DistinctChoicesValidator) Name() string { return "distinct-choices" }

func (v *DistinctChoicesValidator) Validate(q *MCQ, _ Request) *ValidationError {
	seen := make(map[string]bool, len(q.Choices))
	for _, c := range q.Choices {
		key := strings.ToLower(strings.TrimSpace(c))
		if seen[key] {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("duplicate choice %q", c)}
		}
		seen[key] = true
	}
	return nil
}
