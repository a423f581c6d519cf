package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/store"
)

// recorder appends one llm_request_events row per call. A failed append is
// logged and swallowed so it never fails the call being recorded.
type recorder struct {
	vendor string
	repo   store.EventRepo
	log    *logger.Logger
}

func (r recorder) record(ctx context.Context, ev store.LLMRequestEventData, started time.Time, err error) {
	ev.Provider = r.vendor
	ev.Purpose = PurposeFrom(ctx)
	ev.AttemptID = AttemptFrom(ctx)
	ev.LatencyMs = time.Since(started).Milliseconds()
	ev.Success = err == nil
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	if appendErr := r.repo.AppendLLMRequest(ctx, ev); appendErr != nil {
		r.log.Warn("llm event not recorded", "kind", ev.Kind, "purpose", ev.Purpose, "error", appendErr)
		return
	}
	r.log.Debug("llm call",
		"kind", ev.Kind,
		"vendor", ev.Provider,
		"model", ev.Model,
		"purpose", ev.Purpose,
		"attempt_id", ev.AttemptID,
		"latency_ms", ev.LatencyMs,
		"ok", ev.Success)
}

type loggingProvider struct {
	Provider
	rec recorder
}

// WithLogging records every Generate call made through p under vendor.
func WithLogging(p Provider, vendor string, repo store.EventRepo, log *logger.Logger) Provider {
	return &loggingProvider{Provider: p, rec: recorder{vendor: vendor, repo: repo, log: log}}
}

func (l *loggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	started := time.Now()
	resp, err := l.Provider.Generate(ctx, req)

	ev := store.LLMRequestEventData{
		Kind:        store.LLMKindGenerate,
		Model:       l.ModelID(),
		RequestBody: transcribe(req),
	}
	var (
		invalid   *ErrInvalidResponse
		truncated *ErrMaxTokensExceeded
	)
	switch {
	case resp != nil:
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
	case errors.As(err, &invalid):
		ev.ResponseBody = string(invalid.Content)
	case errors.As(err, &truncated):
		ev.ResponseBody = string(truncated.Content)
	}
	l.rec.record(ctx, ev, started, err)
	return resp, err
}

type loggingEmbedder struct {
	Embedder
	rec recorder
}

// WithEmbedLogging records every Embed call made through e under vendor.
func WithEmbedLogging(e Embedder, vendor string, repo store.EventRepo, log *logger.Logger) Embedder {
	return &loggingEmbedder{Embedder: e, rec: recorder{vendor: vendor, repo: repo, log: log}}
}

func (l *loggingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	started := time.Now()
	vecs, err := l.Embedder.Embed(ctx, texts)

	ev := store.LLMRequestEventData{
		Kind:        store.LLMKindEmbed,
		Model:       l.ModelID(),
		RequestBody: strings.Join(texts, "\n---\n"),
	}
	if err == nil {
		ev.ResponseBody = fmt.Sprintf("%d vectors", len(vecs))
	}
	l.rec.record(ctx, ev, started, err)
	return vecs, err
}

// transcribe renders a request the way `adaptiq llm view` prints it.
func transcribe(req Request) string {
	var b strings.Builder
	section := func(title, body string) {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", title, body)
	}
	if req.System != "" {
		section("system", req.System)
	}
	for _, m := range req.Messages {
		section(string(m.Role), m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			section("schema: "+req.Schema.Name, string(def))
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
