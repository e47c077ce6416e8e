package graph_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arete-go/retrieval/graph"
	"github.com/arete-go/retrieval/schema"
)

// failingStore satisfies graph.GraphStore with every method but Query
// erroring, to exercise Traversal's GraphTraversalError wrapping.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([][]string, error) { return nil, nil }
func (failingStore) GetRelMap(context.Context, []string, int, int) (map[string][][]string, error) {
	return nil, nil
}
func (failingStore) UpsertTriplet(context.Context, string, string, string) error { return nil }
func (failingStore) Delete(context.Context, string, string, string) error       { return nil }
func (failingStore) GetSchema(context.Context, bool) (string, error)            { return "", nil }
func (failingStore) Query(context.Context, string, map[string]interface{}) (interface{}, error) {
	return nil, fmt.Errorf("store unavailable")
}
func (failingStore) Persist(context.Context, string) error            { return nil }
func (failingStore) GetAllSubjects(context.Context) ([]string, error) { return nil, nil }

func TestTraversalEnrichRaisesScoreForMentionedEntity(t *testing.T) {
	store := seedStore(t)
	trav := graph.New(store, graph.DefaultConfig())

	results := []schema.SearchResult{
		{Passage: schema.Passage{ID: "p1", Text: "Plato founded the Academy in Athens"}, RelevanceScore: 0.5},
		{Passage: schema.Passage{ID: "p2", Text: "unrelated passage about nothing"}, RelevanceScore: 0.6},
	}

	out, entities, err := trav.Enrich(context.Background(), "What did Plato teach?", results)
	require.NoError(t, err)
	assert.NotEmpty(t, entities)

	var p1 *schema.SearchResult
	for i := range out {
		if out[i].Passage.ID == "p1" {
			p1 = &out[i]
		}
	}
	require.NotNil(t, p1)
	assert.True(t, p1.FinalScore() > 0.5)
	assert.Equal(t, true, p1.Metadata["graph_enhanced"])
}

func TestTraversalEnrichNoEntitiesReturnsUnchanged(t *testing.T) {
	store := seedStore(t)
	trav := graph.New(store, graph.DefaultConfig())

	results := []schema.SearchResult{
		{Passage: schema.Passage{ID: "p1", Text: "nothing relevant here"}, RelevanceScore: 0.5},
	}
	out, entities, err := trav.Enrich(context.Background(), "nothing relevant here", results)
	require.NoError(t, err)
	assert.Empty(t, entities)
	assert.Equal(t, results, out)
}

func TestTraversalEnrichCachesQueryResults(t *testing.T) {
	store := seedStore(t)
	trav := graph.New(store, graph.DefaultConfig())

	results := []schema.SearchResult{
		{Passage: schema.Passage{ID: "p1", Text: "Plato wrote dialogues"}, RelevanceScore: 0.4},
	}

	_, _, err := trav.Enrich(context.Background(), "Plato", results)
	require.NoError(t, err)
	_, _, err = trav.Enrich(context.Background(), "Plato", results)
	require.NoError(t, err)
}

func TestTraversalEnrichWrapsStoreFailure(t *testing.T) {
	trav := graph.New(failingStore{}, graph.DefaultConfig())
	results := []schema.SearchResult{
		{Passage: schema.Passage{ID: "p1", Text: "Plato wrote dialogues"}, RelevanceScore: 0.4},
	}
	_, _, err := trav.Enrich(context.Background(), "Plato", results)
	require.Error(t, err)
	var travErr *graph.GraphTraversalError
	assert.ErrorAs(t, err, &travErr)
}
