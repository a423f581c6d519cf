package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

type transcriptRepo struct{ s *Store }

var attemptColumns = []string{
	"attempt_id", "learner_id", "topic", "subtopic", "difficulty", "policy", "target",
	"served_count", "correct_count", "score", "pass_mark", "passed", "theta",
	"started_at", "finished_at", "progress_forwarded",
}

func (r *transcriptRepo) Save(ctx context.Context, t *TranscriptRecord) (bool, error) {
	created := false
	err := r.s.inTx(ctx, func(tx *sql.Tx) error {
		b := r.s.builder()
		ins := b.Insert("quiz_attempts").
			Columns(attemptColumns...).
			Values(t.AttemptID, t.LearnerID, t.Topic, t.Subtopic, t.Difficulty, t.Policy, t.Target,
				t.ServedCount, t.CorrectCount, t.Score, t.PassMark, t.Passed, floatOrNil(t.Theta),
				millis(t.StartedAt), millis(t.FinishedAt), false).
			OnConflict(entsql.ConflictColumns("attempt_id"), entsql.DoNothing())
		res, err := exec(ctx, tx, ins)
		if err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return nil
		}

		for _, resp := range t.Responses {
			choices, err := encodeJSON(resp.Choices)
			if err != nil {
				return fmt.Errorf("encode choices: %w", err)
			}
			var chosen, correct any
			if resp.ChosenIndex != nil {
				chosen = *resp.ChosenIndex
			}
			if resp.IsCorrect != nil {
				correct = *resp.IsCorrect
			}
			ins := b.Insert("attempt_responses").
				Columns("attempt_id", "position", "item_id", "question", "choices", "correct_index", "chosen_index", "is_correct").
				Values(t.AttemptID, resp.Position, resp.ItemID, resp.Question, choices, resp.CorrectIndex, chosen, correct)
			if _, err := exec(ctx, tx, ins); err != nil {
				return fmt.Errorf("insert response %d: %w", resp.Position, err)
			}
		}
		created = true
		return nil
	})
	return created, err
}

func (r *transcriptRepo) MarkForwarded(ctx context.Context, attemptID string) error {
	b := r.s.builder()
	upd := b.Update("quiz_attempts").
		Set("progress_forwarded", true).
		Where(entsql.EQ("attempt_id", attemptID))
	res, err := exec(ctx, r.s.db, upd)
	if err != nil {
		return fmt.Errorf("mark forwarded: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *transcriptRepo) Get(ctx context.Context, attemptID string) (*TranscriptRecord, error) {
	b := r.s.builder()
	q := b.Select(attemptColumns...).From(b.Table("quiz_attempts")).
		Where(entsql.EQ("attempt_id", attemptID))
	ts, err := r.scan(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(ts) == 0 {
		return nil, ErrNotFound
	}
	t := &ts[0]

	q = b.Select("position", "item_id", "question", "choices", "correct_index", "chosen_index", "is_correct").
		From(b.Table("attempt_responses")).
		Where(entsql.EQ("attempt_id", attemptID)).
		OrderBy("position")
	rows, err := query(ctx, r.s.db, q)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			resp    ResponseRecord
			choices string
			chosen  sql.NullInt64
			correct sql.NullBool
		)
		if err := rows.Scan(&resp.Position, &resp.ItemID, &resp.Question, &choices, &resp.CorrectIndex, &chosen, &correct); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if err := json.Unmarshal([]byte(choices), &resp.Choices); err != nil {
			return nil, fmt.Errorf("decode choices: %w", err)
		}
		if chosen.Valid {
			v := int(chosen.Int64)
			resp.ChosenIndex = &v
		}
		if correct.Valid {
			v := correct.Bool
			resp.IsCorrect = &v
		}
		t.Responses = append(t.Responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *transcriptRepo) ListByLearner(ctx context.Context, learnerID string, limit int) ([]TranscriptRecord, error) {
	b := r.s.builder()
	q := b.Select(attemptColumns...).From(b.Table("quiz_attempts")).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy(entsql.Desc("finished_at"))
	if limit > 0 {
		q.Limit(limit)
	}
	return r.scan(ctx, q)
}

func (r *transcriptRepo) scan(ctx context.Context, q *entsql.Selector) ([]TranscriptRecord, error) {
	rows, err := query(ctx, r.s.db, q)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []TranscriptRecord
	for rows.Next() {
		var (
			t                 TranscriptRecord
			theta             sql.NullFloat64
			started, finished int64
		)
		if err := rows.Scan(&t.AttemptID, &t.LearnerID, &t.Topic, &t.Subtopic, &t.Difficulty, &t.Policy,
			&t.Target, &t.ServedCount, &t.CorrectCount, &t.Score, &t.PassMark, &t.Passed, &theta,
			&started, &finished, &t.ProgressForwarded); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if theta.Valid {
			t.Theta = &theta.Float64
		}
		t.StartedAt = fromMillis(started)
		t.FinishedAt = fromMillis(finished)
		out = append(out, t)
	}
	return out, rows.Err()
}
