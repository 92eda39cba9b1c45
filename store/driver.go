package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the schema if it does not exist yet.
	Migrate(ctx context.Context) error

	// Kid model related methods.
	CreateKid(ctx context.Context, create *Kid) (*Kid, error)
	ListKids(ctx context.Context, find *FindKid) ([]*Kid, error)

	// Record model related methods.
	CreateRecord(ctx context.Context, create *Record) (*Record, error)
	ListRecords(ctx context.Context, find *FindRecord) ([]*Record, error)

	// ChatSession model related methods.
	CreateChatSession(ctx context.Context, create *ChatSession) (*ChatSession, error)
	ListChatSessions(ctx context.Context, find *FindChatSession) ([]*ChatSession, error)
	TouchChatSession(ctx context.Context, id int32, updatedTs int64) error
	CreateChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error)
	ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error)

	// UserInsight model related methods.
	CreateUserInsight(ctx context.Context, create *UserInsight) (*UserInsight, error)
	GetLatestUserInsight(ctx context.Context, find *FindUserInsight) (*UserInsight, error)

	// DocumentChunk model related methods.
	CreateDocumentChunk(ctx context.Context, create *DocumentChunk) (*DocumentChunk, error)
	SearchDocumentChunks(ctx context.Context, opts *DocumentSearchOptions) ([]*DocumentChunkWithScore, error)
}
