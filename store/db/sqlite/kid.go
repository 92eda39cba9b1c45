package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/todoc/store"
)

func (d *DB) CreateKid(ctx context.Context, create *store.Kid) (*store.Kid, error) {
	stmt := `INSERT INTO kid (user_id, name, birth_date, gender, created_ts) VALUES (?, ?, ?, ?, ?) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UserID,
		create.Name,
		create.BirthDate,
		string(create.Gender),
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create kid")
	}
	return create, nil
}

func (d *DB) ListKids(ctx context.Context, find *store.FindKid) ([]*store.Kid, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}

	query := `SELECT id, user_id, name, birth_date, gender, created_ts FROM kid
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`
	if find.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list kids")
	}
	defer rows.Close()

	list := []*store.Kid{}
	for rows.Next() {
		kid := &store.Kid{}
		var gender string
		if err := rows.Scan(&kid.ID, &kid.UserID, &kid.Name, &kid.BirthDate, &gender, &kid.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan kid")
		}
		kid.Gender = store.Gender(gender)
		list = append(list, kid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
