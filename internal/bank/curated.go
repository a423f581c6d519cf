package bank

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/adaptiq/internal/itemgen"
	"github.com/abhisek/adaptiq/internal/llm"
	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/similarity"
	"github.com/abhisek/adaptiq/internal/store"
)

// CuratedItem is one hand-written item in a bank file.
type CuratedItem struct {
	Topic        string   `yaml:"topic"`
	Subtopic     string   `yaml:"subtopic"`
	Difficulty   string   `yaml:"difficulty"`
	Question     string   `yaml:"question"`
	Choices      []string `yaml:"choices"`
	CorrectIndex int      `yaml:"answer_index"`
	Explanation  string   `yaml:"explanation"`
	A            *float64 `yaml:"a,omitempty"`
	B            *float64 `yaml:"b,omitempty"`
}

type curatedFile struct {
	Items []CuratedItem `yaml:"items"`
}

// LoadCurated reads a YAML bank file of the form
//
//	items:
//	  - topic: Corporate Finance
//	    subtopic: NPV
//	    difficulty: easy
//	    question: ...
//	    choices: [..., ..., ..., ...]
//	    answer_index: 1
func LoadCurated(path string) ([]CuratedItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank file: %w", err)
	}
	var f curatedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse bank file: %w", err)
	}
	return f.Items, nil
}

// NearDuplicate flags an imported item that sits close to another item in
// the same cell.
type NearDuplicate struct {
	ItemID     string
	Question   string
	NearID     string
	Similarity float64
}

// ImportReport summarizes one import run.
type ImportReport struct {
	Added    int
	Existing int
	Warnings []NearDuplicate
}

// Importer validates, embeds and upserts curated items.
type Importer struct {
	repo       store.ItemRepo
	embedder   llm.Embedder
	validators []itemgen.Validator
	cfg        Config
	log        *logger.Logger
}

// NewImporter creates an Importer using the standard item validators.
func NewImporter(repo store.ItemRepo, embedder llm.Embedder, cfg Config, log *logger.Logger) *Importer {
	return &Importer{
		repo:       repo,
		embedder:   embedder,
		validators: itemgen.DefaultConfig().Validators,
		cfg:        cfg,
		log:        log,
	}
}

// Import validates every item before writing anything. Items closer than
// the soft threshold to another item in their cell are still imported but
// reported as warnings.
func (im *Importer) Import(ctx context.Context, items []CuratedItem) (*ImportReport, error) {
	var errs []error
	for i, c := range items {
		if c.Topic == "" || c.Subtopic == "" || c.Difficulty == "" {
			errs = append(errs, fmt.Errorf("item %d: topic, subtopic and difficulty are required", i))
			continue
		}
		q := itemgen.MCQ{Question: c.Question, Choices: c.Choices, CorrectIndex: c.CorrectIndex, Explanation: c.Explanation}
		for _, v := range im.validators {
			if verr := v.Validate(&q, itemgen.Request{}); verr != nil {
				errs = append(errs, fmt.Errorf("item %d: %w", i, verr))
				break
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &ImportReport{}, nil
	}

	texts := make([]string, len(items))
	for i, c := range items {
		texts[i] = c.Question
	}
	vecs, err := embed(ctx, im.embedder, texts)
	if err != nil {
		return nil, fmt.Errorf("embed curated items: %w", err)
	}

	report := &ImportReport{}
	cells := map[string][]Item{}
	recs := make([]store.ItemRecord, 0, len(items))
	for i, c := range items {
		it := Item{
			ID:           ItemID(c.Question),
			Topic:        c.Topic,
			Subtopic:     c.Subtopic,
			Difficulty:   c.Difficulty,
			Question:     c.Question,
			Choices:      c.Choices,
			CorrectIndex: c.CorrectIndex,
			Explanation:  c.Explanation,
			Embedding:    vecs[i],
			A:            c.A,
			B:            c.B,
			Source:       store.SourceCurated,
		}

		key := c.Topic + "\x00" + c.Subtopic + "\x00" + c.Difficulty
		peers, ok := cells[key]
		if !ok {
			existing, err := im.repo.Scan(ctx, store.ItemFilter{Topic: c.Topic, Subtopic: c.Subtopic, Difficulty: c.Difficulty})
			if err != nil {
				return nil, fmt.Errorf("scan bank: %w", err)
			}
			for _, rec := range existing {
				peers = append(peers, FromRecord(rec))
			}
		}
		if w, found := im.nearest(it, peers); found {
			report.Warnings = append(report.Warnings, w)
			im.log.Warn("curated item is close to an existing item",
				"item_id", w.ItemID, "near_id", w.NearID, "similarity", w.Similarity)
		}
		cells[key] = append(peers, it)
		recs = append(recs, it.Record())
	}

	n, err := im.repo.Upsert(ctx, recs...)
	if err != nil {
		return nil, fmt.Errorf("store curated items: %w", err)
	}
	report.Added = n
	report.Existing = len(recs) - n
	return report, nil
}

func (im *Importer) nearest(it Item, peers []Item) (NearDuplicate, bool) {
	best := NearDuplicate{ItemID: it.ID, Question: it.Question, Similarity: -1}
	for _, p := range peers {
		if p.ID == it.ID || !similarity.Comparable(it.Embedding, p.Embedding) {
			continue
		}
		if s := similarity.Cosine(it.Embedding, p.Embedding); s > best.Similarity {
			best.Similarity = s
			best.NearID = p.ID
		}
	}
	return best, best.NearID != "" && best.Similarity >= im.cfg.SoftThreshold
}
