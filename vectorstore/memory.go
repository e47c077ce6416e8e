package vectorstore

import (
	"context"
	"errors"
	"sync"

	"github.com/arete-go/retrieval/embedding"
	"github.com/arete-go/retrieval/schema"
)

// MemoryStore is an in-memory VectorStore, useful for tests and small
// corpora. Similarity is exact cosine similarity over every stored
// embedding — it does not build an approximate index.
type MemoryStore struct {
	mu       sync.RWMutex
	passages map[string]schema.Passage
	embedder embedding.EmbeddingModel
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithEmbedder attaches an embedding model so SearchNearText can embed the
// query text itself. Without one, SearchNearText returns an error.
func WithEmbedder(e embedding.EmbeddingModel) MemoryOption {
	return func(s *MemoryStore) { s.embedder = e }
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{passages: make(map[string]schema.Passage)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert implements VectorStore.
func (s *MemoryStore) Insert(_ context.Context, passage schema.Passage) error {
	if passage.ID == "" {
		return errors.New("vectorstore: passage id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passages[passage.ID] = passage
	return nil
}

// BatchInsert implements VectorStore.
func (s *MemoryStore) BatchInsert(ctx context.Context, passages []schema.Passage) error {
	for _, p := range passages {
		if err := s.Insert(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Fetch implements VectorStore.
func (s *MemoryStore) Fetch(_ context.Context, passageID string) (schema.Passage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.passages[passageID]
	return p, ok, nil
}

// Delete implements VectorStore.
func (s *MemoryStore) Delete(_ context.Context, passageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.passages, passageID)
	return nil
}

// SearchNearVector implements VectorStore using exact cosine similarity,
// filtered by query.Filter and query.MinCertainty, sorted descending,
// truncated to query.Limit.
func (s *MemoryStore) SearchNearVector(_ context.Context, query schema.VectorStoreQuery) ([]schema.VectorStoreMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]schema.VectorStoreMatch, 0, len(s.passages))
	for id, p := range s.passages {
		if len(p.Embedding) == 0 || !query.Filter.Matches(p) {
			continue
		}
		certainty, err := embedding.Similarity(query.Embedding, p.Embedding, embedding.SimilarityTypeCosine)
		if err != nil || certainty < query.MinCertainty {
			continue
		}
		matches = append(matches, schema.VectorStoreMatch{PassageID: id, Certainty: certainty, Passage: p})
	}

	sortMatchesDescending(matches)
	if query.Limit > 0 && query.Limit < len(matches) {
		matches = matches[:query.Limit]
	}
	return matches, nil
}

// SearchNearText implements VectorStore by embedding query.Text with the
// attached embedder and delegating to SearchNearVector.
func (s *MemoryStore) SearchNearText(ctx context.Context, query schema.VectorStoreQuery) ([]schema.VectorStoreMatch, error) {
	if s.embedder == nil {
		return nil, errors.New("vectorstore: no embedder configured for SearchNearText")
	}
	vec, err := s.embedder.GetQueryEmbedding(ctx, query.Text)
	if err != nil {
		return nil, err
	}
	query.Embedding = vec
	return s.SearchNearVector(ctx, query)
}

func sortMatchesDescending(matches []schema.VectorStoreMatch) {
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Certainty > matches[j-1].Certainty; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
}

var _ VectorStore = (*MemoryStore)(nil)
