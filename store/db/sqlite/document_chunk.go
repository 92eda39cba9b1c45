package sqlite

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/todoc/store"
)

// maxSearchCandidates bounds the rows loaded for application-layer ranking.
const maxSearchCandidates = 2000

// float32ArrayToBLOB encodes a vector as little-endian float32 bytes.
func float32ArrayToBLOB(vec []float32) ([]byte, error) {
	if len(vec) == 0 {
		return nil, errors.New("empty vector")
	}

	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf, nil
}

// blobToFloat32Array is the inverse of float32ArrayToBLOB.
func blobToFloat32Array(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("invalid BLOB length: %d", len(blob))
	}

	vec := make([]float32, len(blob)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}

func (d *DB) CreateDocumentChunk(ctx context.Context, create *store.DocumentChunk) (*store.DocumentChunk, error) {
	blob, err := float32ArrayToBLOB(create.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode embedding")
	}

	stmt := `INSERT INTO document_chunk (collection, source, content, embedding, model, created_ts)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.Collection,
		create.Source,
		create.Content,
		blob,
		create.Model,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create document chunk")
	}
	return create, nil
}

// SearchDocumentChunks ranks the candidate chunks by cosine similarity in Go.
func (d *DB) SearchDocumentChunks(ctx context.Context, opts *store.DocumentSearchOptions) ([]*store.DocumentChunkWithScore, error) {
	if len(opts.Collections) == 0 || len(opts.Vector) == 0 {
		return []*store.DocumentChunkWithScore{}, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 4
	}

	marks := make([]string, len(opts.Collections))
	args := make([]any, 0, len(opts.Collections)+1)
	for i, c := range opts.Collections {
		marks[i] = "?"
		args = append(args, c)
	}
	query := `SELECT id, collection, source, content, embedding, model, created_ts FROM document_chunk
		WHERE collection IN (` + strings.Join(marks, ", ") + `)
		ORDER BY id DESC
		LIMIT ?`
	args = append(args, maxSearchCandidates)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search document chunks")
	}
	defer rows.Close()

	results := []*store.DocumentChunkWithScore{}
	for rows.Next() {
		chunk := &store.DocumentChunk{}
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.Collection, &chunk.Source, &chunk.Content, &blob, &chunk.Model, &chunk.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan document chunk")
		}
		embedding, err := blobToFloat32Array(blob)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode embedding of chunk %d", chunk.ID)
		}
		chunk.Embedding = embedding

		score := cosineSimilarity(opts.Vector, embedding)
		if score < opts.MinScore {
			continue
		}
		results = append(results, &store.DocumentChunkWithScore{DocumentChunk: chunk, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct float32
	var normA float32
	var normB float32

	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
