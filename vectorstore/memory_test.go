package vectorstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arete-go/retrieval/schema"
	"github.com/arete-go/retrieval/vectorstore"
)

func TestMemoryStoreInsertAndFetch(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()

	err := store.Insert(ctx, schema.Passage{ID: "p1", Text: "hello", Embedding: []float64{1, 0, 0}})
	require.NoError(t, err)

	p, ok, err := store.Fetch(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", p.Text)
}

func TestMemoryStoreSearchNearVectorRanksByCosine(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()

	require.NoError(t, store.BatchInsert(ctx, []schema.Passage{
		{ID: "p1", Embedding: []float64{1, 0, 0}},
		{ID: "p2", Embedding: []float64{0, 1, 0}},
		{ID: "p3", Embedding: []float64{0.9, 0.1, 0}},
	}))

	matches, err := store.SearchNearVector(ctx, schema.VectorStoreQuery{
		Embedding: []float64{1, 0, 0},
		Limit:     2,
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "p1", matches[0].PassageID)
	assert.Equal(t, "p3", matches[1].PassageID)
}

func TestMemoryStoreSearchNearVectorFiltersByMinCertainty(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	require.NoError(t, store.BatchInsert(ctx, []schema.Passage{
		{ID: "p1", Embedding: []float64{1, 0, 0}},
		{ID: "p2", Embedding: []float64{-1, 0, 0}},
	}))

	matches, err := store.SearchNearVector(ctx, schema.VectorStoreQuery{
		Embedding:    []float64{1, 0, 0},
		Limit:        10,
		MinCertainty: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "p1", matches[0].PassageID)
}

func TestMemoryStoreSearchNearTextWithoutEmbedderErrors(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	_, err := store.SearchNearText(context.Background(), schema.VectorStoreQuery{Text: "x"})
	assert.Error(t, err)
}

func TestMemoryStoreDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	require.NoError(t, store.Delete(ctx, "missing"))

	require.NoError(t, store.Insert(ctx, schema.Passage{ID: "p1", Embedding: []float64{1}}))
	require.NoError(t, store.Delete(ctx, "p1"))
	_, ok, err := store.Fetch(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}
