// Package vectorstore defines the C4 vector store contract and its
// adapters: an in-memory implementation for tests and small corpora, and a
// Weaviate-backed implementation for production use.
package vectorstore

import (
	"context"

	"github.com/arete-go/retrieval/schema"
)

// VectorStore is the storage and query surface the dense retriever (C5)
// runs against. Implementations must treat Insert of an existing id as a
// replace, and Search* must never return more than query.Limit matches.
type VectorStore interface {
	// Insert stores a single passage with its embedding.
	Insert(ctx context.Context, passage schema.Passage) error
	// BatchInsert stores many passages in one call; implementations should
	// make this more efficient than a loop of Insert where possible.
	BatchInsert(ctx context.Context, passages []schema.Passage) error
	// Fetch retrieves a single passage by id.
	Fetch(ctx context.Context, passageID string) (schema.Passage, bool, error)
	// Delete removes a passage by id. Deleting an unknown id is not an error.
	Delete(ctx context.Context, passageID string) error
	// SearchNearVector returns the passages whose stored embedding is
	// closest to query.Embedding, filtered and limited per query.
	SearchNearVector(ctx context.Context, query schema.VectorStoreQuery) ([]schema.VectorStoreMatch, error)
	// SearchNearText embeds query.Text and searches the same way as
	// SearchNearVector. An adapter with no embedding capability of its own
	// returns an error, or (ChromemStore) uses a precomputed query.Embedding.
	SearchNearText(ctx context.Context, query schema.VectorStoreQuery) ([]schema.VectorStoreMatch, error)
}
