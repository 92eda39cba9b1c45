package postgres

import (
	"context"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/todoc/store"
)

func (d *DB) CreateDocumentChunk(ctx context.Context, create *store.DocumentChunk) (*store.DocumentChunk, error) {
	if len(create.Embedding) == 0 {
		return nil, errors.New("empty embedding")
	}

	stmt := `INSERT INTO document_chunk (collection, source, content, embedding, model, created_ts)
		VALUES (` + placeholders(6) + `) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.Collection,
		create.Source,
		create.Content,
		pgvector.NewVector(create.Embedding),
		create.Model,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create document chunk")
	}
	return create, nil
}

// SearchDocumentChunks ranks chunks by cosine distance using the pgvector operator.
func (d *DB) SearchDocumentChunks(ctx context.Context, opts *store.DocumentSearchOptions) ([]*store.DocumentChunkWithScore, error) {
	if len(opts.Collections) == 0 || len(opts.Vector) == 0 {
		return []*store.DocumentChunkWithScore{}, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 4
	}

	query := `
		SELECT id, collection, source, content, embedding, model, created_ts,
			1 - (embedding <=> $1) AS similarity
		FROM document_chunk
		WHERE collection = ANY($2)
			AND 1 - (embedding <=> $1) >= $3
		ORDER BY embedding <=> $1
		LIMIT $4`

	rows, err := d.db.QueryContext(ctx, query,
		pgvector.NewVector(opts.Vector),
		pq.Array(opts.Collections),
		opts.MinScore,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search document chunks")
	}
	defer rows.Close()

	results := []*store.DocumentChunkWithScore{}
	for rows.Next() {
		chunk := &store.DocumentChunk{}
		var vector pgvector.Vector
		var score float32
		if err := rows.Scan(&chunk.ID, &chunk.Collection, &chunk.Source, &chunk.Content, &vector, &chunk.Model, &chunk.CreatedTs, &score); err != nil {
			return nil, errors.Wrap(err, "failed to scan document chunk")
		}
		chunk.Embedding = vector.Slice()
		results = append(results, &store.DocumentChunkWithScore{DocumentChunk: chunk, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
