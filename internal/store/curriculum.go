package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

type curriculumRepo struct{ s *Store }

func (r *curriculumRepo) Seed(ctx context.Context, topics []TopicRecord, edges []EdgeRecord) error {
	return r.s.inTx(ctx, func(tx *sql.Tx) error {
		b := r.s.builder()
		for _, table := range []string{"prerequisites", "subtopics", "topics"} {
			if _, err := exec(ctx, tx, b.Delete(table)); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		for i, t := range topics {
			if _, err := exec(ctx, tx, b.Insert("topics").Columns("name", "position").Values(t.Name, i)); err != nil {
				return fmt.Errorf("insert topic %q: %w", t.Name, err)
			}
			for j, sub := range t.Subtopics {
				ins := b.Insert("subtopics").Columns("topic", "name", "position").Values(t.Name, sub, j)
				if _, err := exec(ctx, tx, ins); err != nil {
					return fmt.Errorf("insert subtopic %q/%q: %w", t.Name, sub, err)
				}
			}
		}
		for _, e := range edges {
			ins := b.Insert("prerequisites").
				Columns("prereq_topic", "prereq_subtopic", "target_topic", "target_subtopic").
				Values(e.PrereqTopic, e.PrereqSubtopic, e.TargetTopic, e.TargetSubtopic).
				OnConflict(entsql.ConflictColumns("prereq_topic", "prereq_subtopic", "target_topic", "target_subtopic"), entsql.DoNothing())
			if _, err := exec(ctx, tx, ins); err != nil {
				return fmt.Errorf("insert prerequisite: %w", err)
			}
		}
		return nil
	})
}

func (r *curriculumRepo) Topics(ctx context.Context) ([]TopicRecord, error) {
	b := r.s.builder()
	rows, err := query(ctx, r.s.db, b.Select("name").From(b.Table("topics")).OrderBy("position"))
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		names = append(names, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]TopicRecord, 0, len(names))
	for _, n := range names {
		subs, err := r.Subtopics(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, TopicRecord{Name: n, Subtopics: subs})
	}
	return out, nil
}

func (r *curriculumRepo) Subtopics(ctx context.Context, topic string) ([]string, error) {
	b := r.s.builder()
	q := b.Select("name").From(b.Table("subtopics")).
		Where(entsql.EQ("topic", topic)).
		OrderBy("position")
	rows, err := query(ctx, r.s.db, q)
	if err != nil {
		return nil, fmt.Errorf("query subtopics: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan subtopic: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *curriculumRepo) Edges(ctx context.Context) ([]EdgeRecord, error) {
	b := r.s.builder()
	q := b.Select("prereq_topic", "prereq_subtopic", "target_topic", "target_subtopic").
		From(b.Table("prerequisites")).
		OrderBy(entsql.Asc("id"))
	rows, err := query(ctx, r.s.db, q)
	if err != nil {
		return nil, fmt.Errorf("query prerequisites: %w", err)
	}
	defer rows.Close()

	var out []EdgeRecord
	for rows.Next() {
		var e EdgeRecord
		if err := rows.Scan(&e.PrereqTopic, &e.PrereqSubtopic, &e.TargetTopic, &e.TargetSubtopic); err != nil {
			return nil, fmt.Errorf("scan prerequisite: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
