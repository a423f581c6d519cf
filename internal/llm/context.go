package llm

import "context"

type ctxKey int

const (
	purposeKey ctxKey = iota
	attemptKey
)

// WithPurpose labels the LLM calls made under ctx.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// WithAttempt ties the LLM calls made under ctx to a quiz attempt, so the
// event log can be filtered per attempt.
func WithAttempt(ctx context.Context, attemptID string) context.Context {
	return context.WithValue(ctx, attemptKey, attemptID)
}

// AttemptFrom returns "" outside an attempt.
func AttemptFrom(ctx context.Context) string {
	v, _ := ctx.Value(attemptKey).(string)
	return v
}
