package llm

import (
	"context"
	"errors"
	"math"
	"testing"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + 1e-12)
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(32)
	a, err := e.Embed(context.Background(), []string{"What is the WACC?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := e.Embed(context.Background(), []string{"What is the WACC?"})
	if len(a[0]) != 32 {
		t.Fatalf("expected dim 32, got %d", len(a[0]))
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("vectors differ at %d", i)
		}
	}
	if e.Calls != 2 {
		t.Errorf("expected 2 calls, got %d", e.Calls)
	}
}

func TestMockEmbedder_CaseAndPunctuationInsensitive(t *testing.T) {
	e := NewMockEmbedder(64)
	vecs, _ := e.Embed(context.Background(), []string{
		"What is the cost of equity?",
		"what is the COST of equity",
		"Explain bond duration",
	})
	if c := cosine(vecs[0], vecs[1]); c < 0.999 {
		t.Errorf("expected near-identical vectors, cosine = %f", c)
	}
	if c := cosine(vecs[0], vecs[2]); c > 0.9 {
		t.Errorf("expected unrelated vectors, cosine = %f", c)
	}
}

func TestMockEmbedder_Pin(t *testing.T) {
	e := NewMockEmbedder(4)
	e.Pin("q1", []float32{1, 0, 0, 0})

	vecs, _ := e.Embed(context.Background(), []string{"q1", "q2"})
	if vecs[0][0] != 1 || vecs[0][1] != 0 {
		t.Errorf("pinned vector not returned: %v", vecs[0])
	}
	if len(vecs[1]) != 4 {
		t.Errorf("expected hashed vector for unpinned text, got %v", vecs[1])
	}
}

func TestMockEmbedder_Err(t *testing.T) {
	e := NewMockEmbedder(4)
	e.Err = errors.New("boom")
	if _, err := e.Embed(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error")
	}
}

type flakyEmbedder struct {
	fails int
	calls int
}

func (f *flakyEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.fails {
		return nil, &ErrProviderUnavailable{Err: errors.New("down")}
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func (f *flakyEmbedder) ModelID() string { return "flaky" }

func TestEmbedRetry_TransientThenSuccess(t *testing.T) {
	inner := &flakyEmbedder{fails: 1}
	e := WithEmbedRetry(inner, fastRetry)

	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vecs))
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 calls, got %d", inner.calls)
	}
	if e.ModelID() != "flaky" {
		t.Errorf("ModelID = %q", e.ModelID())
	}
}

func TestEmbedRetry_Exhausted(t *testing.T) {
	inner := &flakyEmbedder{fails: 10}
	e := WithEmbedRetry(inner, fastRetry)

	if _, err := e.Embed(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 calls, got %d", inner.calls)
	}
}

func TestEmbedConfigFromEnv_InfersProvider(t *testing.T) {
	t.Setenv("ADAPTIQ_EMBED_PROVIDER", "")
	t.Setenv("ADAPTIQ_EMBED_MODEL", "")
	t.Setenv("ADAPTIQ_EMBED_API_KEY", "")

	gen := DefaultConfig()
	gen.Gemini.APIKey = "g-key"
	cfg := EmbedConfigFromEnv(gen)
	if cfg.Provider != "gemini" || cfg.Model != "text-embedding-004" || cfg.APIKey != "g-key" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	gen = DefaultConfig()
	gen.Provider = "mock"
	cfg = EmbedConfigFromEnv(gen)
	if cfg.Provider != "mock" {
		t.Errorf("expected mock provider, got %q", cfg.Provider)
	}

	gen = DefaultConfig()
	cfg = EmbedConfigFromEnv(gen)
	if cfg.Provider != "" {
		t.Errorf("expected no embedder without keys, got %q", cfg.Provider)
	}
}
