package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type itemRepo struct{ s *Store }

var itemColumns = []string{
	"item_id", "topic", "subtopic", "difficulty", "question", "choices",
	"correct_index", "explanation", "embedding", "param_a", "param_b",
	"source", "created_at",
}

func (r *itemRepo) Get(ctx context.Context, itemID string) (*ItemRecord, error) {
	b := r.s.builder()
	q := b.Select(itemColumns...).
		From(b.Table("items")).
		Where(entsql.EQ("item_id", itemID))

	items, err := r.scan(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

func (r *itemRepo) Scan(ctx context.Context, f ItemFilter) ([]ItemRecord, error) {
	b := r.s.builder()
	q := b.Select(itemColumns...).From(b.Table("items")).OrderBy(entsql.Asc("id"))

	var preds []*entsql.Predicate
	if f.Topic != "" {
		preds = append(preds, entsql.EQ("topic", f.Topic))
	}
	if f.Subtopic != "" {
		preds = append(preds, entsql.EQ("subtopic", f.Subtopic))
	}
	if f.Difficulty != "" {
		preds = append(preds, entsql.EQ("difficulty", f.Difficulty))
	}
	if len(preds) > 0 {
		q.Where(entsql.And(preds...))
	}
	if f.Limit > 0 {
		q.Limit(f.Limit)
	}
	return r.scan(ctx, q)
}

func (r *itemRepo) Upsert(ctx context.Context, items ...ItemRecord) (int, error) {
	inserted := 0
	err := r.s.inTx(ctx, func(tx *sql.Tx) error {
		for _, it := range items {
			choices, err := encodeJSON(it.Choices)
			if err != nil {
				return fmt.Errorf("encode choices: %w", err)
			}
			var emb any
			if len(it.Embedding) > 0 {
				s, err := encodeJSON(it.Embedding)
				if err != nil {
					return fmt.Errorf("encode embedding: %w", err)
				}
				emb = s
			}
			created := it.CreatedAt
			if created.IsZero() {
				created = time.Now()
			}
			source := it.Source
			if source == "" {
				source = SourceGenerated
			}

			ins := r.s.builder().Insert("items").
				Columns(itemColumns...).
				Values(it.ItemID, it.Topic, it.Subtopic, it.Difficulty, it.Question, choices,
					it.CorrectIndex, it.Explanation, emb, floatOrNil(it.A), floatOrNil(it.B),
					source, millis(created)).
				OnConflict(entsql.ConflictColumns("item_id"), entsql.DoNothing())
			res, err := exec(ctx, tx, ins)
			if err != nil {
				return fmt.Errorf("upsert item %s: %w", it.ItemID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *itemRepo) Cells(ctx context.Context) ([]CellCount, error) {
	b := r.s.builder()
	q := b.Select("topic", "subtopic", "difficulty", entsql.Count("*")).
		From(b.Table("items")).
		GroupBy("topic", "subtopic", "difficulty").
		OrderBy("topic", "subtopic", "difficulty")

	rows, err := query(ctx, r.s.db, q)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}
	defer rows.Close()

	var out []CellCount
	for rows.Next() {
		var c CellCount
		if err := rows.Scan(&c.Topic, &c.Subtopic, &c.Difficulty, &c.Items); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *itemRepo) scan(ctx context.Context, q *entsql.Selector) ([]ItemRecord, error) {
	rows, err := query(ctx, r.s.db, q)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var out []ItemRecord
	for rows.Next() {
		var (
			it        ItemRecord
			choices   string
			embedding sql.NullString
			a, b      sql.NullFloat64
			created   int64
		)
		if err := rows.Scan(&it.ItemID, &it.Topic, &it.Subtopic, &it.Difficulty, &it.Question,
			&choices, &it.CorrectIndex, &it.Explanation, &embedding, &a, &b, &it.Source, &created); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if err := json.Unmarshal([]byte(choices), &it.Choices); err != nil {
			return nil, fmt.Errorf("decode choices of %s: %w", it.ItemID, err)
		}
		if embedding.Valid && embedding.String != "" {
			if err := json.Unmarshal([]byte(embedding.String), &it.Embedding); err != nil {
				return nil, fmt.Errorf("decode embedding of %s: %w", it.ItemID, err)
			}
		}
		if a.Valid {
			it.A = &a.Float64
		}
		if b.Valid {
			it.B = &b.Float64
		}
		it.CreatedAt = fromMillis(created)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
