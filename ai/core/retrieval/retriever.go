// Package retrieval searches the document corpus scoped to a persona's
// collections and loads new documents into it.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/todoc/ai/core/reranker"
	"github.com/hrygo/todoc/ai/persona"
	"github.com/hrygo/todoc/store"
)

// DefaultLimit is the number of snippets returned per search.
const DefaultLimit = 4

// ErrNoEmbedder is returned when the service was built without an embedder.
var ErrNoEmbedder = errors.New("retrieval: embedder not configured")

// Snippet is a retrieved passage.
type Snippet struct {
	Source string
	Text   string
	Score  float32
}

// Retriever finds passages relevant to a query for a persona.
type Retriever interface {
	Search(ctx context.Context, p persona.Persona, query string) ([]Snippet, error)
}

// Embedder turns text into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// ChunkStore persists and searches embedded document chunks.
type ChunkStore interface {
	CreateDocumentChunk(ctx context.Context, create *store.DocumentChunk) (*store.DocumentChunk, error)
	SearchDocumentChunks(ctx context.Context, opts *store.DocumentSearchOptions) ([]*store.DocumentChunkWithScore, error)
}

// Options tunes the search.
type Options struct {
	Limit    int
	MinScore float32
	// CandidateFactor widens the vector search when a reranker is enabled.
	CandidateFactor int
}

// Service implements Retriever over the store's document chunks.
type Service struct {
	embedder Embedder
	chunks   ChunkStore
	policies *persona.Store
	reranker reranker.Service
	opts     Options
}

// NewService creates a retrieval service. rr may be nil.
func NewService(embedder Embedder, chunks ChunkStore, policies *persona.Store, rr reranker.Service, opts Options) *Service {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.CandidateFactor <= 0 {
		opts.CandidateFactor = 3
	}
	if policies == nil {
		policies = persona.NewStore()
	}
	return &Service{
		embedder: embedder,
		chunks:   chunks,
		policies: policies,
		reranker: rr,
		opts:     opts,
	}
}

// Collections returns the collections searched for p.
func (s *Service) Collections(p persona.Persona) []string {
	collections := s.policies.Policy(p).Collections
	for _, c := range collections {
		if c == persona.CommonCollection {
			return collections
		}
	}
	return append(collections, persona.CommonCollection)
}

func (s *Service) rerankEnabled() bool {
	return s.reranker != nil && s.reranker.IsEnabled()
}

// Search returns at most Options.Limit snippets, best first.
func (s *Service) Search(ctx context.Context, p persona.Persona, query string) ([]Snippet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if s.embedder == nil || s.chunks == nil {
		return nil, ErrNoEmbedder
	}

	start := time.Now()
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	limit := s.opts.Limit
	if s.rerankEnabled() {
		limit *= s.opts.CandidateFactor
	}
	hits, err := s.chunks.SearchDocumentChunks(ctx, &store.DocumentSearchOptions{
		Collections: s.Collections(p),
		Vector:      vector,
		Limit:       limit,
		MinScore:    s.opts.MinScore,
	})
	if err != nil {
		return nil, fmt.Errorf("search document chunks: %w", err)
	}

	snippets := make([]Snippet, 0, len(hits))
	for _, h := range hits {
		snippets = append(snippets, Snippet{Source: h.Source, Text: h.Content, Score: h.Score})
	}
	if s.rerankEnabled() && len(snippets) > 1 {
		snippets = s.rerank(ctx, query, snippets)
	}
	if len(snippets) > s.opts.Limit {
		snippets = snippets[:s.opts.Limit]
	}

	slog.Debug("retrieval: search done",
		"persona", p,
		"hits", len(snippets),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return snippets, nil
}

// rerank reorders snippets, keeping the vector order when the reranker fails.
func (s *Service) rerank(ctx context.Context, query string, snippets []Snippet) []Snippet {
	docs := make([]string, len(snippets))
	for i, sn := range snippets {
		docs[i] = sn.Text
	}
	results, err := s.reranker.Rerank(ctx, query, docs, s.opts.Limit)
	if err != nil {
		slog.Warn("retrieval: rerank failed, keeping vector order", "error", err)
		return snippets
	}
	out := make([]Snippet, 0, len(results))
	for _, r := range results {
		sn := snippets[r.Index]
		sn.Score = r.Score
		out = append(out, sn)
	}
	return out
}

// Ingest splits text into chunks, embeds them and stores them under collection.
// It returns the number of chunks written.
func (s *Service) Ingest(ctx context.Context, collection, source, text string) (int, error) {
	if s.embedder == nil || s.chunks == nil {
		return 0, ErrNoEmbedder
	}
	if collection == "" {
		return 0, errors.New("retrieval: collection is required")
	}
	chunks := Chunk(text, DefaultChunkRunes)
	if len(chunks) == 0 {
		return 0, nil
	}

	written := 0
	for startIdx := 0; startIdx < len(chunks); startIdx += ingestBatchSize {
		batch := chunks[startIdx:min(startIdx+ingestBatchSize, len(chunks))]
		vectors, err := s.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return written, fmt.Errorf("embed chunks of %s: %w", source, err)
		}
		for i, content := range batch {
			if _, err := s.chunks.CreateDocumentChunk(ctx, &store.DocumentChunk{
				Collection: collection,
				Source:     source,
				Content:    content,
				Embedding:  vectors[i],
				Model:      s.embedder.Model(),
			}); err != nil {
				return written, fmt.Errorf("store chunk of %s: %w", source, err)
			}
			written++
		}
	}
	slog.Info("retrieval: document ingested", "collection", collection, "source", source, "chunks", written)
	return written, nil
}
