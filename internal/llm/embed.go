package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"strings"
	"sync"
	"unicode"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Embedder turns texts into semantic vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ModelID() string
}

// EmbedConfig selects the embedding backend.
type EmbedConfig struct {
	// Provider is "openai", "gemini" or "mock". Empty means no embedder:
	// items are stored without vectors and skip the similarity gate.
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

const (
	defaultOpenAIEmbedModel = "text-embedding-3-small"
	defaultGeminiEmbedModel = "text-embedding-004"
)

// DefaultEmbedConfig returns a configuration without an embedder.
func DefaultEmbedConfig() EmbedConfig {
	return EmbedConfig{Model: defaultOpenAIEmbedModel}
}

// EmbedConfigFromEnv reads ADAPTIQ_EMBED_PROVIDER and ADAPTIQ_EMBED_MODEL.
// Without an explicit provider it follows whichever of OpenAI or Gemini
// has a key in the generation config, and the mock generator brings the
// mock embedder along.
func EmbedConfigFromEnv(gen Config) EmbedConfig {
	cfg := DefaultEmbedConfig()

	switch p := os.Getenv("ADAPTIQ_EMBED_PROVIDER"); {
	case p != "":
		cfg.Provider = p
	case gen.OpenAI.APIKey != "":
		cfg.Provider = "openai"
	case gen.Gemini.APIKey != "":
		cfg.Provider = "gemini"
	case gen.Provider == "mock":
		cfg.Provider = "mock"
	}

	switch cfg.Provider {
	case "openai":
		cfg.APIKey = gen.OpenAI.APIKey
		cfg.BaseURL = gen.OpenAI.BaseURL
	case "gemini":
		cfg.APIKey = gen.Gemini.APIKey
		cfg.Model = defaultGeminiEmbedModel
	}
	if k := os.Getenv("ADAPTIQ_EMBED_API_KEY"); k != "" {
		cfg.APIKey = k
	}
	if m := os.Getenv("ADAPTIQ_EMBED_MODEL"); m != "" {
		cfg.Model = m
	}
	return cfg
}

// OpenAIEmbedder implements Embedder with the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder creates an OpenAI embedder.
func NewOpenAIEmbedder(cfg EmbedConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required for embeddings")
	}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIEmbedModel
	}
	return &OpenAIEmbedder{client: openai.NewClientWithConfig(config), model: model}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, &ErrInvalidResponse{
			Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
		}
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, &ErrInvalidResponse{Err: fmt.Errorf("embedding index %d out of range", d.Index)}
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func (e *OpenAIEmbedder) ModelID() string {
	return e.model
}

// GeminiEmbedder implements Embedder with the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder creates a Gemini embedder.
func NewGeminiEmbedder(ctx context.Context, cfg EmbedConfig) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required for embeddings")
	}
	client, err := newGeminiClient(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiEmbedModel
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, classifyGeminiError(err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &ErrInvalidResponse{
			Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)),
		}
	}
	out := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}

func (e *GeminiEmbedder) ModelID() string {
	return e.model
}

// MockEmbedder is a deterministic offline Embedder. Texts are hashed into
// a bag-of-words vector so that rewordings share most of their mass.
// Fixed vectors can be pinned per text for tests.
type MockEmbedder struct {
	mu     sync.Mutex
	dim    int
	pinned map[string][]float32
	Err    error
	Calls  int
}

// NewMockEmbedder creates a MockEmbedder producing vectors of size dim.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{dim: dim, pinned: map[string][]float32{}}
}

// Pin makes Embed return vec for text.
func (m *MockEmbedder) Pin(text string, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinned[text] = vec
}

func (m *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := m.pinned[t]; ok {
			out[i] = v
			continue
		}
		out[i] = hashVector(t, m.dim)
	}
	return out, nil
}

func (m *MockEmbedder) ModelID() string {
	return "mock-embed"
}

func hashVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%uint32(dim)]++
	}
	var norm float64
	for _, x := range vec {
		norm += float64(x * x)
	}
	if norm == 0 {
		return vec
	}
	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec
}
