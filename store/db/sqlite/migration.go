package sqlite

import (
	"context"

	"github.com/pkg/errors"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS kid (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		birth_date TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT 'female',
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_kid_user ON kid (user_id, created_ts)`,
	`CREATE TABLE IF NOT EXISTS record (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kid_id INTEGER NOT NULL,
		record_type TEXT NOT NULL,
		record_date TEXT NOT NULL,
		memo TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL DEFAULT '{}',
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_record_kid_created ON record (kid_id, created_ts)`,
	`CREATE TABLE IF NOT EXISTS chat_session (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
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
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		sender TEXT NOT NULL,
		content TEXT NOT NULL,
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_message_session ON chat_message (session_id, id)`,
	`CREATE TABLE IF NOT EXISTS user_insight (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		kid_id INTEGER NOT NULL,
		category TEXT NOT NULL,
		insight_text TEXT NOT NULL,
		generated_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_insight_key ON user_insight (user_id, kid_id, generated_ts)`,
	`CREATE TABLE IF NOT EXISTS document_chunk (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		collection TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		embedding BLOB NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_document_chunk_collection ON document_chunk (collection)`,
}

// Migrate creates every table that does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to apply sqlite schema")
		}
	}
	return nil
}
