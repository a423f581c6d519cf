package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type progressRepo struct{ s *Store }

var progressColumns = []string{"learner_id", "topic", "subtopic", "attempts", "completed", "last_score", "updated_at"}

func (r *progressRepo) Get(ctx context.Context, learnerID, topic, subtopic string) (*ProgressRecord, error) {
	b := r.s.builder()
	q := b.Select(progressColumns...).From(b.Table("user_progress")).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.EQ("topic", topic),
			entsql.EQ("subtopic", subtopic),
		))
	recs, err := r.scan(ctx, q)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

func (r *progressRepo) List(ctx context.Context, learnerID string) ([]ProgressRecord, error) {
	b := r.s.builder()
	q := b.Select(progressColumns...).From(b.Table("user_progress")).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy("topic", "subtopic")
	return r.scan(ctx, q)
}

// Record is a single upsert so concurrent finishers on the same cell
// each add exactly one attempt.
func (r *progressRepo) Record(ctx context.Context, u ProgressUpdate) error {
	now := millis(time.Now())
	ins := r.s.builder().Insert("user_progress").
		Columns(progressColumns...).
		Values(u.LearnerID, u.Topic, u.Subtopic, 1, u.Passed, u.Score, now).
		OnConflict(
			entsql.ConflictColumns("learner_id", "topic", "subtopic"),
			entsql.ResolveWith(func(s *entsql.UpdateSet) {
				s.Add("attempts", 1)
				s.SetExcluded("last_score")
				s.SetExcluded("updated_at")
				if u.Passed {
					s.Set("completed", true)
				}
			}),
		)
	if _, err := exec(ctx, r.s.db, ins); err != nil {
		return fmt.Errorf("record progress: %w", err)
	}
	return nil
}

func (r *progressRepo) scan(ctx context.Context, q *entsql.Selector) ([]ProgressRecord, error) {
	rows, err := query(ctx, r.s.db, q)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	var out []ProgressRecord
	for rows.Next() {
		var (
			p       ProgressRecord
			updated int64
		)
		if err := rows.Scan(&p.LearnerID, &p.Topic, &p.Subtopic, &p.Attempts, &p.Completed, &p.LastScore, &updated); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		p.UpdatedAt = fromMillis(updated)
		out = append(out, p)
	}
	return out, rows.Err()
}
