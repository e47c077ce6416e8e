package vectorstore

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"

	"github.com/arete-go/retrieval/schema"
)

// ChromemStore is a VectorStore backed by chromem-go, this lineage's
// pure-Go embedded vector store. Unlike WeaviateStore it needs no separate
// server process, making it the adapter of choice for single-binary
// deployments that still want persistence.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromemStore opens (or creates) a chromem collection. If persistPath is
// empty the store is in-memory only; embeddings are supplied explicitly by
// callers (Insert/BatchInsert), so no embedding function is registered on
// the collection.
func NewChromemStore(persistPath, collectionName string) (*ChromemStore, error) {
	var db *chromem.DB
	if persistPath != "" {
		var err error
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("vectorstore: open chromem db at %s: %w", persistPath, err)
		}
	} else {
		db = chromem.NewDB()
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: get or create chromem collection %s: %w", collectionName, err)
	}
	return &ChromemStore{db: db, collection: collection}, nil
}

func chromemMetadata(p schema.Passage) map[string]string {
	meta := map[string]string{
		"document_id": p.DocumentID,
		"kind":        string(p.Kind),
	}
	for k, v := range p.Metadata {
		meta[k] = fmt.Sprintf("%v", v)
	}
	return meta
}

func passageFromChromemDoc(doc chromem.Document) schema.Passage {
	p := schema.Passage{
		ID:   doc.ID,
		Text: doc.Content,
		Kind: schema.PassageKind(doc.Metadata["kind"]),
	}
	p.DocumentID = doc.Metadata["document_id"]
	if len(doc.Embedding) > 0 {
		p.Embedding = make([]float64, len(doc.Embedding))
		for i, f := range doc.Embedding {
			p.Embedding[i] = float64(f)
		}
	}
	return p
}

// Insert implements VectorStore.
func (s *ChromemStore) Insert(ctx context.Context, passage schema.Passage) error {
	return s.BatchInsert(ctx, []schema.Passage{passage})
}

// BatchInsert implements VectorStore.
func (s *ChromemStore) BatchInsert(ctx context.Context, passages []schema.Passage) error {
	docs := make([]chromem.Document, len(passages))
	for i, p := range passages {
		if len(p.Embedding) == 0 {
			return fmt.Errorf("vectorstore: passage %s has no embedding", p.ID)
		}
		embedding32 := make([]float32, len(p.Embedding))
		for j, v := range p.Embedding {
			embedding32[j] = float32(v)
		}
		docs[i] = chromem.Document{
			ID:        p.ID,
			Content:   p.Text,
			Metadata:  chromemMetadata(p),
			Embedding: embedding32,
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("vectorstore: chromem add documents: %w", err)
	}
	return nil
}

// Fetch implements VectorStore.
func (s *ChromemStore) Fetch(_ context.Context, passageID string) (schema.Passage, bool, error) {
	doc, err := s.collection.GetByID(context.Background(), passageID)
	if err != nil {
		return schema.Passage{}, false, nil
	}
	return passageFromChromemDoc(doc), true, nil
}

// Delete implements VectorStore.
func (s *ChromemStore) Delete(ctx context.Context, passageID string) error {
	if err := s.collection.Delete(ctx, nil, nil, passageID); err != nil {
		return fmt.Errorf("vectorstore: chromem delete %s: %w", passageID, err)
	}
	return nil
}

// SearchNearVector implements VectorStore via chromem's cosine-similarity
// query, filtered client-side to apply the PassageFilter chromem's own
// where-metadata matching doesn't directly express (kind/document-id sets).
func (s *ChromemStore) SearchNearVector(ctx context.Context, query schema.VectorStoreQuery) ([]schema.VectorStoreMatch, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}
	nResults := limit
	if count := s.collection.Count(); count < nResults {
		nResults = count
	}
	if nResults == 0 {
		return nil, nil
	}

	embedding32 := make([]float32, len(query.Embedding))
	for i, v := range query.Embedding {
		embedding32[i] = float32(v)
	}

	results, err := s.collection.QueryEmbedding(ctx, embedding32, nResults, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: chromem query: %w", err)
	}

	matches := make([]schema.VectorStoreMatch, 0, len(results))
	for _, r := range results {
		p := passageFromChromemDoc(chromem.Document{ID: r.ID, Content: r.Content, Metadata: r.Metadata, Embedding: r.Embedding})
		certainty := float64(r.Similarity)
		if certainty < query.MinCertainty || !query.Filter.Matches(p) {
			continue
		}
		matches = append(matches, schema.VectorStoreMatch{PassageID: r.ID, Certainty: certainty, Passage: p})
	}
	sortMatchesDescending(matches)
	if query.Limit > 0 && query.Limit < len(matches) {
		matches = matches[:query.Limit]
	}
	return matches, nil
}

// SearchNearText does not embed query.Text: there is no vectorizer attached
// to the collection, so it requires a pre-computed query.Embedding and
// otherwise searches exactly like SearchNearVector.
func (s *ChromemStore) SearchNearText(ctx context.Context, query schema.VectorStoreQuery) ([]schema.VectorStoreMatch, error) {
	if len(query.Embedding) == 0 {
		return nil, fmt.Errorf("vectorstore: chromem SearchNearText requires a precomputed embedding")
	}
	return s.SearchNearVector(ctx, query)
}

var _ VectorStore = (*ChromemStore)(nil)
