// Package storage defines the persistence contracts for knowledge bases,
// documents and chunks.
package storage

import (
	"context"

	"github.com/jackzampolin/kbase/internal/types"
)

// KnowledgeBaseRepository persists knowledge bases.
type KnowledgeBaseRepository interface {
	// CreateKnowledgeBase stores a new knowledge base.
	// Returns ErrDuplicateKey if the ID is taken.
	CreateKnowledgeBase(ctx context.Context, kb *types.KnowledgeBase) error

	// GetKnowledgeBase returns ErrNotFound if the ID is unknown.
	GetKnowledgeBase(ctx context.Context, id string) (*types.KnowledgeBase, error)

	// ListKnowledgeBases returns all knowledge bases ordered by creation time.
	ListKnowledgeBases(ctx context.Context) ([]*types.KnowledgeBase, error)

	// UpdateKnowledgeBase overwrites an existing knowledge base.
	UpdateKnowledgeBase(ctx context.Context, kb *types.KnowledgeBase) error

	// DeleteKnowledgeBase removes a knowledge base. Returns ErrNotEmpty
	// while any document is still filed under it.
	DeleteKnowledgeBase(ctx context.Context, id string) error
}

// DocumentRepository persists documents.
type DocumentRepository interface {
	// CreateDocument stores a new document.
	CreateDocument(ctx context.Context, doc *types.Document) error

	// GetDocument returns ErrNotFound if the ID is unknown.
	GetDocument(ctx context.Context, id string) (*types.Document, error)

	// ListDocuments returns the documents of a knowledge base ordered by
	// upload time.
	ListDocuments(ctx context.Context, kbID string) ([]*types.Document, error)

	// ListDocumentsByStatus returns all documents in any of the statuses.
	ListDocumentsByStatus(ctx context.Context, statuses ...types.Status) ([]*types.Document, error)

	// UpdateDocument reads the document, applies fn and writes the result in
	// a single transaction. If fn returns an error nothing is written.
	UpdateDocument(ctx context.Context, id string, fn func(doc *types.Document) error) (*types.Document, error)

	// DeleteDocument removes the document record.
	DeleteDocument(ctx context.Context, id string) error
}

// ChunkRepository persists chunk text. Chunks of a document are ordered by
// chunk ID.
type ChunkRepository interface {
	// PutChunk writes or replaces a single chunk.
	PutChunk(ctx context.Context, docID string, chunkID int, text string) error

	// ListChunks returns up to limit chunks, skipping the first offset,
	// in chunk ID order.
	ListChunks(ctx context.Context, docID string, offset, limit int) ([]StoredChunk, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context, docID string) (int, error)

	// DeleteChunksFrom removes every chunk with ID >= from and returns how
	// many were removed.
	DeleteChunksFrom(ctx context.Context, docID string, from int) (int, error)
}

// StoredChunk is a chunk as persisted.
type StoredChunk struct {
	ChunkID int
	Text    string
}
