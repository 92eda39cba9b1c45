package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/todoc/store"
)

func (d *DB) CreateRecord(ctx context.Context, create *store.Record) (*store.Record, error) {
	payload, err := create.MarshalDetail()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode record detail")
	}

	stmt := `INSERT INTO record (kid_id, record_type, record_date, memo, payload, created_ts)
		VALUES (` + placeholders(6) + `) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.KidID,
		string(create.Type),
		create.RecordDate,
		create.Memo,
		string(payload),
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create record")
	}
	return create, nil
}

func (d *DB) ListRecords(ctx context.Context, find *store.FindRecord) ([]*store.Record, error) {
	where, args := []string{"kid_id = $1"}, []any{find.KidID}
	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.Type != nil {
		where, args = append(where, "record_type = "+placeholder(len(args)+1)), append(args, string(*find.Type))
	}
	if find.CreatedAfter > 0 {
		where, args = append(where, "created_ts >= "+placeholder(len(args)+1)), append(args, find.CreatedAfter)
	}

	query := `SELECT id, kid_id, record_type, record_date, memo, payload, created_ts FROM record
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`
	if find.Limit > 0 {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list records")
	}
	defer rows.Close()

	list := []*store.Record{}
	for rows.Next() {
		record := &store.Record{}
		var recordType string
		var payload []byte
		if err := rows.Scan(&record.ID, &record.KidID, &recordType, &record.RecordDate, &record.Memo, &payload, &record.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan record")
		}
		record.Type = store.RecordType(recordType)
		if err := record.UnmarshalDetail(payload); err != nil {
			return nil, errors.Wrapf(err, "failed to decode record %d", record.ID)
		}
		list = append(list, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
