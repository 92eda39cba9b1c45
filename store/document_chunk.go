package store

// DocumentChunk is one embedded passage of the retrieval corpus.
type DocumentChunk struct {
	Collection string
	Source     string
	Content    string
	Embedding  []float32
	Model      string
	CreatedTs  int64
	ID         int64
}

// DocumentSearchOptions configures a vector similarity search.
type DocumentSearchOptions struct {
	Collections []string
	Vector      []float32
	Limit       int
	MinScore    float32
}

// DocumentChunkWithScore is a search hit with its cosine similarity.
type DocumentChunkWithScore struct {
	*DocumentChunk
	Score float32
}
