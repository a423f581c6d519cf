package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type checkpointRepo struct{ s *Store }

func (r *checkpointRepo) Save(ctx context.Context, attemptID string, state []byte, phase string) error {
	ins := r.s.builder().Insert("checkpoints").
		Columns("attempt_id", "state", "phase", "updated_at", "abandoned").
		Values(attemptID, string(state), phase, millis(time.Now()), false).
		OnConflict(entsql.ConflictColumns("attempt_id"), entsql.ResolveWithNewValues())
	if _, err := exec(ctx, r.s.db, ins); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (r *checkpointRepo) Load(ctx context.Context, attemptID string) (*CheckpointRecord, error) {
	b := r.s.builder()
	q := b.Select("attempt_id", "state", "phase", "updated_at", "abandoned").
		From(b.Table("checkpoints")).
		Where(entsql.EQ("attempt_id", attemptID))
	rows, err := query(ctx, r.s.db, q)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var (
		rec     CheckpointRecord
		state   string
		updated int64
	)
	if err := rows.Scan(&rec.AttemptID, &state, &rec.Phase, &updated, &rec.Abandoned); err != nil {
		return nil, fmt.Errorf("scan checkpoint: %w", err)
	}
	rec.State = []byte(state)
	rec.UpdatedAt = fromMillis(updated)
	return &rec, nil
}

func (r *checkpointRepo) MarkAbandoned(ctx context.Context, cutoff time.Time, skip []string) (int, error) {
	preds := []*entsql.Predicate{
		entsql.LT("updated_at", millis(cutoff)),
		entsql.EQ("abandoned", false),
	}
	if len(skip) > 0 {
		args := make([]any, len(skip))
		for i, p := range skip {
			args[i] = p
		}
		preds = append(preds, entsql.NotIn("phase", args...))
	}
	upd := r.s.builder().Update("checkpoints").
		Set("abandoned", true).
		Where(entsql.And(preds...))
	res, err := exec(ctx, r.s.db, upd)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
