package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/todoc/store"
)

func (d *DB) CreateChatSession(ctx context.Context, create *store.ChatSession) (*store.ChatSession, error) {
	stmt := `INSERT INTO chat_session (uid, user_id, persona, kid_id, title, question_snippet, date_label, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.UserID,
		create.Persona,
		create.KidID,
		create.Title,
		create.QuestionSnippet,
		create.DateLabel,
		create.CreatedTs,
		create.UpdatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create chat session")
	}
	return create, nil
}

func (d *DB) ListChatSessions(ctx context.Context, find *store.FindChatSession) ([]*store.ChatSession, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}

	query := `SELECT id, uid, user_id, persona, kid_id, title, question_snippet, date_label, created_ts, updated_ts
		FROM chat_session
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC, id DESC`
	if find.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat sessions")
	}
	defer rows.Close()

	list := []*store.ChatSession{}
	for rows.Next() {
		s := &store.ChatSession{}
		var kidID sql.NullInt32
		if err := rows.Scan(&s.ID, &s.UID, &s.UserID, &s.Persona, &kidID, &s.Title, &s.QuestionSnippet, &s.DateLabel, &s.CreatedTs, &s.UpdatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat session")
		}
		if kidID.Valid {
			id := kidID.Int32
			s.KidID = &id
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) TouchChatSession(ctx context.Context, id int32, updatedTs int64) error {
	result, err := d.db.ExecContext(ctx, `UPDATE chat_session SET updated_ts = ? WHERE id = ?`, updatedTs, id)
	if err != nil {
		return errors.Wrap(err, "failed to touch chat session")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.Errorf("chat session %d not found", id)
	}
	return nil
}

func (d *DB) CreateChatMessage(ctx context.Context, create *store.ChatMessage) (*store.ChatMessage, error) {
	stmt := `INSERT INTO chat_message (session_id, sender, content, created_ts) VALUES (?, ?, ?, ?) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.SessionID,
		string(create.Sender),
		create.Content,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create chat message")
	}
	return create, nil
}

func (d *DB) ListChatMessages(ctx context.Context, find *store.FindChatMessage) ([]*store.ChatMessage, error) {
	query := `SELECT id, session_id, sender, content, created_ts FROM chat_message WHERE session_id = ?`
	args := []any{find.SessionID}
	if find.Last > 0 {
		// Newest N, re-ordered chronologically below.
		query = `SELECT id, session_id, sender, content, created_ts FROM (
			SELECT * FROM chat_message WHERE session_id = ? ORDER BY id DESC LIMIT ?
		)`
		args = append(args, find.Last)
	}
	query += " ORDER BY id ASC"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat messages")
	}
	defer rows.Close()

	list := []*store.ChatMessage{}
	for rows.Next() {
		m := &store.ChatMessage{}
		var sender string
		if err := rows.Scan(&m.ID, &m.SessionID, &sender, &m.Content, &m.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat message")
		}
		m.Sender = store.ChatSender(sender)
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
