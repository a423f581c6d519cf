package itemgen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a finance instructor writing assessment items.

Rules:
- Create precise multiple-choice questions with exactly 4 choices and exactly one correct answer.
- Every question must be self-contained and answerable without outside material.
- Questions in a batch must be semantically distinct: vary the stems, the numbers and the rationale.
- Distractors should reflect common mistakes, not random values.
- Match the requested difficulty.
- Do not repeat or paraphrase any question from the "already asked" list.`

// buildUserMessage constructs the user message for a batch request.
func buildUserMessage(req Request, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	fmt.Fprintf(&b, "Subtopic: %s\n", req.Subtopic)
	fmt.Fprintf(&b, "Difficulty: %s\n", req.Difficulty)
	fmt.Fprintf(&b, "Number of questions: %d\n", req.Count)

	b.WriteString("\nAlready asked:\n")
	b.WriteString(buildAvoid(req.Avoid, cfg.MaxAvoid))

	return b.String()
}

// buildAvoid formats prior stems for the prompt, keeping the most recent
// max entries. Returns "None" if there are none.
func buildAvoid(stems []string, max int) string {
	if len(stems) == 0 {
		return "None"
	}
	if max > 0 && len(stems) > max {
		stems = stems[len(stems)-max:]
	}

	var b strings.Builder
	for i, q := range stems {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
