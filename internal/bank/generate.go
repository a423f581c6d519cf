package bank

import (
	"context"
	"fmt"

	"github.com/abhisek/adaptiq/internal/itemgen"
	"github.com/abhisek/adaptiq/internal/llm"
	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/similarity"
	"github.com/abhisek/adaptiq/internal/store"
)

// filler tops up a cell with freshly generated items.
type filler struct {
	repo     store.ItemRepo
	gen      itemgen.Generator
	embedder llm.Embedder
	cfg      Config
	log      *logger.Logger
}

// fill requests max(want, MinGenerate) items, drops any that duplicate an
// ID in exclude or sit too close to seen, and upserts the rest into the
// bank. Accepted items are returned in generation order.
func (f *filler) fill(ctx context.Context, sel Selection, want int, exclude map[string]bool, seen [][]float32) ([]Item, error) {
	count := max(want, f.cfg.MinGenerate)

	drafts, err := f.gen.Generate(ctx, itemgen.Request{
		Topic:      sel.Topic,
		Subtopic:   sel.Subtopic,
		Difficulty: sel.Difficulty,
		Count:      count,
		Avoid:      sel.servedQuestions(),
	})
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(drafts))
	for i, d := range drafts {
		texts[i] = d.Question
	}
	vecs, err := embed(ctx, f.embedder, texts)
	if err != nil {
		return nil, fmt.Errorf("embed generated items: %w", err)
	}

	accepted := make([]Item, 0, len(drafts))
	for i, d := range drafts {
		id := ItemID(d.Question)
		if exclude[id] {
			continue
		}
		if duplicate(f.log, id, vecs[i], seen, f.cfg.HardThreshold) {
			f.log.Debug("generated item rejected as duplicate", "item_id", id)
			continue
		}
		exclude[id] = true
		if len(vecs[i]) > 0 {
			seen = append(seen, vecs[i])
		}
		accepted = append(accepted, Item{
			ID:           id,
			Topic:        sel.Topic,
			Subtopic:     sel.Subtopic,
			Difficulty:   sel.Difficulty,
			Question:     d.Question,
			Choices:      d.Choices,
			CorrectIndex: d.CorrectIndex,
			Explanation:  d.Explanation,
			Embedding:    vecs[i],
			Source:       store.SourceGenerated,
		})
	}

	if len(accepted) > 0 {
		recs := make([]store.ItemRecord, len(accepted))
		for i, it := range accepted {
			recs[i] = it.Record()
		}
		n, err := f.repo.Upsert(ctx, recs...)
		if err != nil {
			return nil, fmt.Errorf("store generated items: %w", err)
		}
		f.log.Info("generated items banked",
			"topic", sel.Topic, "subtopic", sel.Subtopic, "difficulty", sel.Difficulty,
			"requested", count, "accepted", len(accepted), "new", n)
	}
	return accepted, nil
}

// embed returns one vector per text, or one nil vector per text when no
// embedder is configured.
func embed(ctx context.Context, e llm.Embedder, texts []string) ([][]float32, error) {
	if e == nil {
		return make([][]float32, len(texts)), nil
	}
	vecs, err := e.Embed(llm.WithPurpose(ctx, llm.PurposeItemEmbed), texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("expected %d vectors, got %d", len(texts), len(vecs))
	}
	return vecs, nil
}

// duplicate applies the similarity gate to one candidate. Served vectors
// of another size come from a different embedding model and are skipped
// with a warning.
func duplicate(log *logger.Logger, itemID string, vec []float32, seen [][]float32, threshold float64) bool {
	if n := similarity.Incomparable(vec, seen); n > 0 {
		log.Warn("embedding size differs from served items, not compared",
			"item_id", itemID, "dims", len(vec), "skipped", n)
	}
	return similarity.TooSimilar(vec, seen, threshold)
}
