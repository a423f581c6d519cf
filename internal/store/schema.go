package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
)

// schema is written once for both dialects; the type placeholders are
// filled in by migrate.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id {{serial}},
		item_id TEXT NOT NULL UNIQUE,
		topic TEXT NOT NULL,
		subtopic TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		question TEXT NOT NULL,
		choices TEXT NOT NULL,
		correct_index INTEGER NOT NULL,
		explanation TEXT NOT NULL DEFAULT '',
		embedding TEXT,
		param_a {{real}},
		param_b {{real}},
		source TEXT NOT NULL DEFAULT 'generated',
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS items_cell ON items (topic, subtopic, difficulty)`,

	`CREATE TABLE IF NOT EXISTS topics (
		name TEXT PRIMARY KEY,
		position INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subtopics (
		topic TEXT NOT NULL,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (topic, name)
	)`,
	`CREATE TABLE IF NOT EXISTS prerequisites (
		id {{serial}},
		prereq_topic TEXT NOT NULL,
		prereq_subtopic TEXT NOT NULL,
		target_topic TEXT NOT NULL,
		target_subtopic TEXT NOT NULL,
		UNIQUE (prereq_topic, prereq_subtopic, target_topic, target_subtopic)
	)`,

	`CREATE TABLE IF NOT EXISTS user_progress (
		learner_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		subtopic TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		completed {{bool}} NOT NULL DEFAULT {{false}},
		last_score {{real}} NOT NULL DEFAULT 0,
		updated_at BIGINT NOT NULL,
		PRIMARY KEY (learner_id, topic, subtopic)
	)`,

	`CREATE TABLE IF NOT EXISTS quiz_attempts (
		id {{serial}},
		attempt_id TEXT NOT NULL UNIQUE,
		learner_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		subtopic TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		policy TEXT NOT NULL,
		target INTEGER NOT NULL,
		served_count INTEGER NOT NULL,
		correct_count INTEGER NOT NULL,
		score {{real}} NOT NULL,
		pass_mark {{real}} NOT NULL,
		passed {{bool}} NOT NULL,
		theta {{real}},
		started_at BIGINT NOT NULL,
		finished_at BIGINT NOT NULL,
		progress_forwarded {{bool}} NOT NULL DEFAULT {{false}}
	)`,
	`CREATE INDEX IF NOT EXISTS quiz_attempts_learner ON quiz_attempts (learner_id)`,
	`CREATE TABLE IF NOT EXISTS attempt_responses (
		id {{serial}},
		attempt_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		item_id TEXT NOT NULL,
		question TEXT NOT NULL,
		choices TEXT NOT NULL,
		correct_index INTEGER NOT NULL,
		chosen_index INTEGER,
		is_correct {{bool}},
		UNIQUE (attempt_id, position)
	)`,

	`CREATE TABLE IF NOT EXISTS checkpoints (
		attempt_id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		phase TEXT NOT NULL,
		updated_at BIGINT NOT NULL,
		abandoned {{bool}} NOT NULL DEFAULT {{false}}
	)`,
	`CREATE INDEX IF NOT EXISTS checkpoints_updated ON checkpoints (updated_at)`,

	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id {{serial}},
		created_at BIGINT NOT NULL,
		kind TEXT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		attempt_id TEXT NOT NULL DEFAULT '',
		input_tokens INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		latency_ms BIGINT NOT NULL,
		success {{bool}} NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS llm_request_events_attempt ON llm_request_events (attempt_id)`,
}

// column is added to tables created before it existed. backfill runs once,
// right after the column is added.
type column struct {
	table, name, def string
	backfill         string
}

var columns = []column{
	// Attempts stored before the flag existed had their progress
	// forwarded in the same call.
	{"quiz_attempts", "progress_forwarded", "{{bool}} NOT NULL DEFAULT {{false}}",
		"UPDATE quiz_attempts SET progress_forwarded = {{true}}"},
}

func migrate(ctx context.Context, db *sql.DB, d string) error {
	var r *strings.Replacer
	switch d {
	case dialect.SQLite:
		r = strings.NewReplacer(
			"{{serial}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
			"{{real}}", "REAL",
			"{{bool}}", "INTEGER",
			"{{false}}", "0",
			"{{true}}", "1",
		)
	case dialect.Postgres:
		r = strings.NewReplacer(
			"{{serial}}", "BIGSERIAL PRIMARY KEY",
			"{{real}}", "DOUBLE PRECISION",
			"{{bool}}", "BOOLEAN",
			"{{false}}", "FALSE",
			"{{true}}", "TRUE",
		)
	default:
		return fmt.Errorf("unsupported dialect %q", d)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	for _, c := range columns {
		if err := addColumn(ctx, db, r, c); err != nil {
			return fmt.Errorf("migrate %s.%s: %w", c.table, c.name, err)
		}
	}
	return nil
}

func addColumn(ctx context.Context, db *sql.DB, r *strings.Replacer, c column) error {
	// Selecting the column fails when it is missing.
	if _, err := db.ExecContext(ctx, "SELECT "+c.name+" FROM "+c.table+" WHERE 1 = 0"); err == nil {
		return nil
	}
	if _, err := db.ExecContext(ctx, r.Replace("ALTER TABLE "+c.table+" ADD COLUMN "+c.name+" "+c.def)); err != nil {
		return err
	}
	if c.backfill == "" {
		return nil
	}
	_, err := db.ExecContext(ctx, r.Replace(c.backfill))
	return err
}
