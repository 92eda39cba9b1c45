package postgres

import (
	"context"

	"github.com/pkg/errors"
)

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS kid (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		birth_date TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT 'female',
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_kid_user ON kid (user_id, created_ts)`,
	`CREATE TABLE IF NOT EXISTS record (
		id SERIAL PRIMARY KEY,
		kid_id INTEGER NOT NULL,
		record_type TEXT NOT NULL,
		record_date TEXT NOT NULL,
		memo TEXT NOT NULL DEFAULT '',
		payload JSONB NOT NULL DEFAULT '{}',
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_record_kid_created ON record (kid_id, created_ts)`,
	`CREATE TABLE IF NOT EXISTS chat_session (
		id SERIAL PRIMARY KEY,
		uid TEXT NOT NULL UNIQUE,
		user_id INTEGER NOT NULL,
		persona TEXT NOT NULL,
		kid_id INTEGER,
		title TEXT NOT NULL DEFAULT '',
		question_snippet TEXT NOT NULL DEFAULT '',
		date_label TEXT NOT NULL DEFAULT '',
		created_ts BIGINT NOT NULL,
		updated_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_session_user ON chat_session (user_id, updated_ts)`,
	`CREATE TABLE IF NOT EXISTS chat_message (
		id SERIAL PRIMARY KEY,
		session_id INTEGER NOT NULL,
		sender TEXT NOT NULL,
		content TEXT NOT NULL,
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_message_session ON chat_message (session_id, id)`,
	`CREATE TABLE IF NOT EXISTS user_insight (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL,
		kid_id INTEGER NOT NULL,
		category TEXT NOT NULL,
		insight_text TEXT NOT NULL,
		generated_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_insight_key ON user_insight (user_id, kid_id, generated_ts)`,
	`CREATE TABLE IF NOT EXISTS document_chunk (
		id BIGSERIAL PRIMARY KEY,
		collection TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		embedding vector NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_document_chunk_collection ON document_chunk (collection)`,
}

// Migrate installs pgvector and creates every missing table.
func (d *DB) Migrate(ctx context.Context) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin migration")
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to apply postgres schema")
		}
	}
	return tx.Commit()
}
