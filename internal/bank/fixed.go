package bank

import (
	"context"
	"fmt"

	"github.com/abhisek/adaptiq/internal/itemgen"
	"github.com/abhisek/adaptiq/internal/llm"
	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/store"
)

// FixedPolicy serves items in bank order and generates new ones when the
// bank cannot cover the rest of the attempt.
type FixedPolicy struct {
	repo   store.ItemRepo
	filler *filler
	cfg    Config
	log    *logger.Logger
}

// NewFixedPolicy creates the non-adaptive Source. A nil generator makes
// the policy bank-only. A nil embedder stores generated items without
// vectors.
func NewFixedPolicy(repo store.ItemRepo, gen itemgen.Generator, embedder llm.Embedder, cfg Config, log *logger.Logger) *FixedPolicy {
	p := &FixedPolicy{repo: repo, cfg: cfg, log: log}
	if gen != nil {
		p.filler = &filler{repo: repo, gen: gen, embedder: embedder, cfg: cfg, log: log}
	}
	return p
}

func (p *FixedPolicy) Next(ctx context.Context, sel Selection) (*Item, error) {
	needed := max(sel.Remaining, 1)
	exclude := sel.servedIDs()
	seen := sel.servedVectors()

	recs, err := p.repo.Scan(ctx, store.ItemFilter{
		Topic:      sel.Topic,
		Subtopic:   sel.Subtopic,
		Difficulty: sel.Difficulty,
		Limit:      p.cfg.FixedCandidateFactor*needed + len(sel.Served),
	})
	if err != nil {
		return nil, fmt.Errorf("scan bank: %w", err)
	}

	var collected []Item
	for _, rec := range recs {
		if len(collected) >= needed {
			break
		}
		if exclude[rec.ItemID] {
			continue
		}
		if duplicate(p.log, rec.ItemID, rec.Embedding, seen, p.cfg.HardThreshold) {
			continue
		}
		exclude[rec.ItemID] = true
		if len(rec.Embedding) > 0 {
			seen = append(seen, rec.Embedding)
		}
		collected = append(collected, FromRecord(rec))
	}

	if len(collected) < needed && p.filler != nil {
		generated, err := p.filler.fill(ctx, sel, needed-len(collected), exclude, seen)
		if err != nil {
			return nil, err
		}
		collected = append(collected, generated...)
	}

	if len(collected) == 0 {
		return nil, ErrNotFound
	}
	return &collected[0], nil
}
