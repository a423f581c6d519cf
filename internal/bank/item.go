// Package bank supplies assessment items for one (topic, subtopic,
// difficulty) cell, from the persisted item bank first and from the
// generation collaborator when the bank runs dry.
package bank

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/abhisek/adaptiq/internal/ability"
	"github.com/abhisek/adaptiq/internal/store"
)

// ErrNotFound is returned by a Source when no eligible item exists.
var ErrNotFound = errors.New("no eligible item available")

// idLength is the number of hex characters kept from the digest.
const idLength = 24

// Item is one assessment question as served to a learner. Served items are
// snapshots: later bank changes never alter an item already handed out.
type Item struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	Subtopic     string    `json:"subtopic"`
	Difficulty   string    `json:"difficulty"`
	Question     string    `json:"question"`
	Choices      []string  `json:"choices"`
	CorrectIndex int       `json:"correct_index"`
	Explanation  string    `json:"explanation,omitempty"`
	Embedding    []float32 `json:"embedding,omitempty"`
	A            *float64  `json:"a,omitempty"`
	B            *float64  `json:"b,omitempty"`
	Source       string    `json:"source,omitempty"`
}

// ItemID derives the stable identifier of a question stem. Case, leading
// and trailing space, and runs of internal whitespace do not affect it.
func ItemID(question string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])[:idLength]
}

// Params returns the item's ability-model parameters with defaults applied.
func (it Item) Params() ability.Params {
	return ability.Resolve(it.A, it.B)
}

// IsCorrect reports whether choice is the keyed answer. Out-of-range
// choices are simply incorrect.
func (it Item) IsCorrect(choice int) bool {
	return choice >= 0 && choice < len(it.Choices) && choice == it.CorrectIndex
}

// FromRecord converts a bank record.
func FromRecord(r store.ItemRecord) Item {
	return Item{
		ID:           r.ItemID,
		Topic:        r.Topic,
		Subtopic:     r.Subtopic,
		Difficulty:   r.Difficulty,
		Question:     r.Question,
		Choices:      r.Choices,
		CorrectIndex: r.CorrectIndex,
		Explanation:  r.Explanation,
		Embedding:    r.Embedding,
		A:            r.A,
		B:            r.B,
		Source:       r.Source,
	}
}

// Record converts the item to its bank record.
func (it Item) Record() store.ItemRecord {
	return store.ItemRecord{
		ItemID:       it.ID,
		Topic:        it.Topic,
		Subtopic:     it.Subtopic,
		Difficulty:   it.Difficulty,
		Question:     it.Question,
		Choices:      it.Choices,
		CorrectIndex: it.CorrectIndex,
		Explanation:  it.Explanation,
		Embedding:    it.Embedding,
		A:            it.A,
		B:            it.B,
		Source:       it.Source,
	}
}
