package vectorstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arete-go/retrieval/schema"
	"github.com/arete-go/retrieval/vectorstore"
)

func TestChromemStoreInsertAndSearchNearVector(t *testing.T) {
	store, err := vectorstore.NewChromemStore("", "test-passages")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.BatchInsert(ctx, []schema.Passage{
		{ID: "p1", Text: "virtue and justice", DocumentID: "d1", Embedding: []float64{1, 0}},
		{ID: "p2", Text: "unrelated passage", DocumentID: "d1", Embedding: []float64{0, 1}},
	}))

	matches, err := store.SearchNearVector(ctx, schema.VectorStoreQuery{
		Embedding: []float64{1, 0},
		Limit:     2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "p1", matches[0].PassageID)
}

func TestChromemStoreFetchMissingReturnsNotFound(t *testing.T) {
	store, err := vectorstore.NewChromemStore("", "test-passages-2")
	require.NoError(t, err)

	_, found, err := store.Fetch(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}
