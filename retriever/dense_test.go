package retriever_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arete-go/retrieval/retriever"
	"github.com/arete-go/retrieval/schema"
	"github.com/arete-go/retrieval/vectorstore"
)

type stubEmbedder struct {
	vector []float64
}

func (e *stubEmbedder) GetTextEmbedding(_ context.Context, _ string) ([]float64, error) {
	return e.vector, nil
}

func (e *stubEmbedder) GetQueryEmbedding(_ context.Context, _ string) ([]float64, error) {
	return e.vector, nil
}

type failingEmbedder struct{}

func (failingEmbedder) GetTextEmbedding(context.Context, string) ([]float64, error) {
	return nil, fmt.Errorf("embedding service unavailable")
}
func (failingEmbedder) GetQueryEmbedding(context.Context, string) ([]float64, error) {
	return nil, fmt.Errorf("embedding service unavailable")
}

func TestDenseRetrieverSearchRanksByCertainty(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	require.NoError(t, store.BatchInsert(ctx, []schema.Passage{
		{ID: "p1", Text: "short text", Embedding: []float64{1, 0}},
		{ID: "p2", Text: "other text entirely", Embedding: []float64{0, 1}},
	}))

	r := retriever.NewDenseRetriever(store, &stubEmbedder{vector: []float64{1, 0}}, retriever.WithEnhanceScores(false))
	results, err := r.Search(ctx, "query", retriever.SearchOptions{Limit: 10})
	require.NoError(t, err)
	// p2 is orthogonal to the query (certainty 0), which still passes the
	// zero MinCertainty and MinRelevance, so it ranks second.
	require.Len(t, results, 2)
	assert.Equal(t, "p1", results[0].Passage.ID)
	assert.Equal(t, "dense", results[0].Metadata["retrieval_method"])
}

func TestDenseRetrieverRejectsEmptyQuery(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	r := retriever.NewDenseRetriever(store, &stubEmbedder{vector: []float64{1}})

	_, err := r.Search(ctx, "   ", retriever.SearchOptions{Limit: 10})
	require.Error(t, err)
}

func TestDenseRetrieverSearchWrapsEmbedderFailure(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	r := retriever.NewDenseRetriever(store, failingEmbedder{})

	_, err := r.Search(ctx, "a real query", retriever.SearchOptions{Limit: 10})
	require.Error(t, err)
	var retrErr *retriever.RetrievalError
	require.ErrorAs(t, err, &retrErr)
	assert.Equal(t, "embed_query", retrErr.Stage)
}

func TestDenseRetrieverBatchSearchDegradesOnFailure(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	r := retriever.NewDenseRetriever(store, &stubEmbedder{vector: []float64{1}})

	out := r.BatchSearch(ctx, []string{"ok query", "   "}, retriever.SearchOptions{Limit: 10})
	assert.Empty(t, out["   "])
	assert.NotNil(t, out["ok query"])
}

func TestDenseRetrieverMetricsAccumulate(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	require.NoError(t, store.Insert(ctx, schema.Passage{ID: "p1", Text: "x", Embedding: []float64{1}}))
	r := retriever.NewDenseRetriever(store, &stubEmbedder{vector: []float64{1}}, retriever.WithEnhanceScores(false))

	_, err := r.Search(ctx, "query", retriever.SearchOptions{Limit: 10})
	require.NoError(t, err)

	m := r.Metrics()
	assert.Equal(t, 1, m.Queries)
	assert.Equal(t, 1, m.TotalResults)
}
