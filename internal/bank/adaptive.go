package bank

import (
	"context"
	"fmt"

	"github.com/abhisek/adaptiq/internal/ability"
	"github.com/abhisek/adaptiq/internal/itemgen"
	"github.com/abhisek/adaptiq/internal/llm"
	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/store"
)

// AdaptivePolicy serves the bank item with the highest information at the
// learner's current ability estimate.
type AdaptivePolicy struct {
	repo   store.ItemRepo
	filler *filler
	cfg    Config
	log    *logger.Logger
}

// NewAdaptivePolicy creates the adaptive Source. The generator is only
// consulted when cfg.AdaptiveGenerationFallback is set.
func NewAdaptivePolicy(repo store.ItemRepo, gen itemgen.Generator, embedder llm.Embedder, cfg Config, log *logger.Logger) *AdaptivePolicy {
	p := &AdaptivePolicy{repo: repo, cfg: cfg, log: log}
	if cfg.AdaptiveGenerationFallback && gen != nil {
		p.filler = &filler{repo: repo, gen: gen, embedder: embedder, cfg: cfg, log: log}
	}
	return p
}

func (p *AdaptivePolicy) Next(ctx context.Context, sel Selection) (*Item, error) {
	exclude := sel.servedIDs()
	seen := sel.servedVectors()

	recs, err := p.repo.Scan(ctx, store.ItemFilter{
		Topic:      sel.Topic,
		Subtopic:   sel.Subtopic,
		Difficulty: sel.Difficulty,
		Limit:      p.cfg.AdaptiveCandidates,
	})
	if err != nil {
		return nil, fmt.Errorf("scan bank: %w", err)
	}

	var candidates []Item
	for _, rec := range recs {
		if exclude[rec.ItemID] {
			continue
		}
		if duplicate(p.log, rec.ItemID, rec.Embedding, seen, p.cfg.HardThreshold) {
			continue
		}
		candidates = append(candidates, FromRecord(rec))
	}

	if len(candidates) == 0 && p.filler != nil {
		p.log.Info("adaptive candidates exhausted, generating",
			"topic", sel.Topic, "subtopic", sel.Subtopic, "difficulty", sel.Difficulty)
		candidates, err = p.filler.fill(ctx, sel, 1, exclude, seen)
		if err != nil {
			return nil, err
		}
	}

	best := pickMostInformative(sel.Theta, candidates)
	if best < 0 {
		return nil, ErrNotFound
	}
	return &candidates[best], nil
}

func pickMostInformative(theta float64, items []Item) int {
	params := make([]ability.Params, len(items))
	for i, it := range items {
		params[i] = it.Params()
	}
	return ability.MostInformative(theta, params)
}
