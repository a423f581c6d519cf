// Package itemgen generates multiple-choice assessment items with an LLM.
package itemgen

import (
	"context"
	"fmt"
)

// ChoiceCount is the number of options every generated item carries.
const ChoiceCount = 4

// MCQ is one generated multiple-choice item.
type MCQ struct {
	Question     string
	Choices      []string
	CorrectIndex int
	Explanation  string
}

// Request asks for Count new items for one cell.
type Request struct {
	Topic      string
	Subtopic   string
	Difficulty string
	Count      int

	// Avoid holds stems already served in the attempt so the model steers
	// away from them.
	Avoid []string
}

// Generator produces batches of items.
type Generator interface {
	// Generate returns at least req.Count validated items or a
	// *GenerationError. It never pads a short batch.
	Generate(ctx context.Context, req Request) ([]MCQ, error)
}

// GenerationError reports malformed or undersized generator output.
type GenerationError struct {
	Reason string
	Want   int
	Got    int
	Err    error
}

func (e *GenerationError) Error() string {
	msg := "item generation failed: " + e.Reason
	if e.Want > 0 {
		msg += fmt.Sprintf(" (wanted %d, got %d)", e.Want, e.Got)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
