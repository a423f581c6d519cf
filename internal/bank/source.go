package bank

import (
	"context"
	"fmt"
)

// Policy tags the selection variant an attempt runs under.
type Policy string

const (
	PolicyFixed    Policy = "fixed"
	PolicyAdaptive Policy = "adaptive"
)

// ParsePolicy validates a policy name. The empty string means fixed.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyFixed:
		return PolicyFixed, nil
	case PolicyAdaptive:
		return PolicyAdaptive, nil
	}
	return "", fmt.Errorf("unknown policy %q (want fixed or adaptive)", s)
}

// Selection is everything a Source needs to pick the next item.
type Selection struct {
	Topic      string
	Subtopic   string
	Difficulty string

	// Theta is the current ability estimate. Only the adaptive policy
	// reads it.
	Theta float64

	// Remaining is how many items the attempt still needs, including the
	// one being selected.
	Remaining int

	// Served lists the items already handed out in this attempt, in order.
	Served []Item
}

func (s Selection) servedIDs() map[string]bool {
	ids := make(map[string]bool, len(s.Served))
	for _, it := range s.Served {
		ids[it.ID] = true
	}
	return ids
}

func (s Selection) servedVectors() [][]float32 {
	vecs := make([][]float32, 0, len(s.Served))
	for _, it := range s.Served {
		if len(it.Embedding) > 0 {
			vecs = append(vecs, it.Embedding)
		}
	}
	return vecs
}

func (s Selection) servedQuestions() []string {
	qs := make([]string, len(s.Served))
	for i, it := range s.Served {
		qs[i] = it.Question
	}
	return qs
}

// Source supplies the next item for an attempt.
type Source interface {
	// Next returns ErrNotFound when no eligible item exists. Generation
	// failures are returned as *itemgen.GenerationError.
	Next(ctx context.Context, sel Selection) (*Item, error)
}

// Config tunes both selection policies.
type Config struct {
	// HardThreshold is the cosine similarity at or above which a candidate
	// counts as a duplicate of a served item.
	HardThreshold float64

	// SoftThreshold only drives curated-import warnings.
	SoftThreshold float64

	AdaptiveCandidates   int
	FixedCandidateFactor int
	MinGenerate          int

	// AdaptiveGenerationFallback lets the adaptive policy request new
	// items when its candidate set is empty.
	AdaptiveGenerationFallback bool
}

// DefaultConfig returns the stock thresholds and limits.
func DefaultConfig() Config {
	return Config{
		HardThreshold:        0.90,
		SoftThreshold:        0.86,
		AdaptiveCandidates:   200,
		FixedCandidateFactor: 3,
		MinGenerate:          3,
	}
}
