package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/hrygo/todoc/store"
)

func (d *DB) CreateUserInsight(ctx context.Context, create *store.UserInsight) (*store.UserInsight, error) {
	stmt := `INSERT INTO user_insight (user_id, kid_id, category, insight_text, generated_ts) VALUES (?, ?, ?, ?, ?) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UserID,
		create.KidID,
		create.Category,
		create.InsightText,
		create.GeneratedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create user insight")
	}
	return create, nil
}

// GetLatestUserInsight returns nil when no insight matches.
func (d *DB) GetLatestUserInsight(ctx context.Context, find *store.FindUserInsight) (*store.UserInsight, error) {
	query := `SELECT id, user_id, kid_id, category, insight_text, generated_ts FROM user_insight
		WHERE user_id = ? AND kid_id = ? AND generated_ts >= ?
		ORDER BY generated_ts DESC, id DESC
		LIMIT 1`

	insight := &store.UserInsight{}
	err := d.db.QueryRowContext(ctx, query, find.UserID, find.KidID, find.GeneratedAfter).Scan(
		&insight.ID,
		&insight.UserID,
		&insight.KidID,
		&insight.Category,
		&insight.InsightText,
		&insight.GeneratedTs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest user insight")
	}
	return insight, nil
}
