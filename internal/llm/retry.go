package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

type retryProvider struct {
	Provider
	policy RetryConfig
}

// WithRetry retries transient Generate failures with jittered exponential
// backoff.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &retryProvider{Provider: p, policy: cfg}
}

func (r *retryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	return withBackoff(ctx, r.policy, func() (*Response, error) { return r.Provider.Generate(ctx, req) })
}

type retryEmbedder struct {
	Embedder
	policy RetryConfig
}

// WithEmbedRetry applies the same policy to an Embedder.
func WithEmbedRetry(e Embedder, cfg RetryConfig) Embedder {
	return &retryEmbedder{Embedder: e, policy: cfg}
}

func (r *retryEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return withBackoff(ctx, r.policy, func() ([][]float32, error) { return r.Embedder.Embed(ctx, texts) })
}

func withBackoff[T any](ctx context.Context, policy RetryConfig, call func() (T, error)) (T, error) {
	var (
		out     T
		err     error
		budget  = retryBudget{invalid: 1}
		retries = max(policy.MaxAttempts, 1)
	)
	for n := 0; n < retries; n++ {
		if out, err = call(); err == nil {
			return out, nil
		}
		if n == retries-1 || !budget.allows(err) {
			break
		}
		t := time.NewTimer(policy.wait(n, err))
		select {
		case <-ctx.Done():
			t.Stop()
			return out, ctx.Err()
		case <-t.C:
		}
	}
	return out, err
}

// retryBudget tracks per-class retry allowances within one call.
type retryBudget struct {
	invalid int
}

func (b *retryBudget) allows(err error) bool {
	var (
		truncated *ErrMaxTokensExceeded
		invalid   *ErrInvalidResponse
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.As(err, &truncated):
		return false
	case errors.As(err, &invalid):
		// A malformed answer is worth one more sample, not a loop.
		if b.invalid == 0 {
			return false
		}
		b.invalid--
		return true
	}
	return true
}

// wait is the pause before retry n+1, honouring a vendor Retry-After and
// adding up to 20% jitter either way.
func (c RetryConfig) wait(n int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	d := math.Min(float64(c.InitialWait)*math.Pow(c.Multiplier, float64(n)), float64(c.MaxWait))
	d *= 1 + 0.2*(2*rand.Float64()-1)
	return time.Duration(math.Max(d, 0))
}

type timeoutProvider struct {
	Provider
	limit time.Duration
}

// withTimeout bounds each Generate call. A non-positive limit disables it.
func withTimeout(p Provider, limit time.Duration) Provider {
	if limit <= 0 {
		return p
	}
	return &timeoutProvider{Provider: p, limit: limit}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.limit)
	defer cancel()
	return t.Provider.Generate(ctx, req)
}
