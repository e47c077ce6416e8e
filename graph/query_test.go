package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arete-go/retrieval/graph"
	"github.com/arete-go/retrieval/schema"
)

func entity(name string, kind schema.EntityKind, confidence float64) schema.Entity {
	return schema.Entity{Name: name, CanonicalForm: name, Kind: kind, Confidence: confidence}
}

func TestGenerateQueriesSingleEntity(t *testing.T) {
	entities := []schema.Entity{entity("plato", schema.EntityKindPerson, 0.8)}
	queries := graph.GenerateQueries(entities, graph.DefaultQueryConfig())

	require.Len(t, queries, 2)
	assert.Equal(t, graph.ShapeSingleEntityLookup, queries[0].Shape)
	assert.Equal(t, graph.ShapeRelationshipScan, queries[1].Shape)
	assert.Equal(t, 1, queries[0].Complexity)
	assert.Equal(t, 3, queries[1].Complexity)
}

func TestGenerateQueriesAddsPathShapeForTwoEntities(t *testing.T) {
	entities := []schema.Entity{
		entity("plato", schema.EntityKindPerson, 0.8),
		entity("aristotle", schema.EntityKindPerson, 0.8),
	}
	queries := graph.GenerateQueries(entities, graph.DefaultQueryConfig())

	var sawPath bool
	for _, q := range queries {
		if q.Shape == graph.ShapePathBetweenEntities {
			sawPath = true
			assert.Equal(t, 5, q.Complexity)
		}
	}
	assert.True(t, sawPath)
}

func TestGenerateQueriesAddsDeepMultiHopForThreeOrMoreEntities(t *testing.T) {
	entities := []schema.Entity{
		entity("plato", schema.EntityKindPerson, 0.8),
		entity("aristotle", schema.EntityKindPerson, 0.8),
		entity("athens", schema.EntityKindPlace, 0.8),
	}
	cfg := graph.DefaultQueryConfig()
	cfg.MaxComplexity = 10
	queries := graph.GenerateQueries(entities, cfg)

	var sawDeep bool
	for _, q := range queries {
		if q.Shape == graph.ShapeDeepMultiHop {
			sawDeep = true
		}
	}
	assert.True(t, sawDeep)
}

func TestGenerateQueriesDowngradesOverComplexQuery(t *testing.T) {
	entities := []schema.Entity{
		entity("plato", schema.EntityKindPerson, 0.8),
		entity("aristotle", schema.EntityKindPerson, 0.8),
		entity("socrates", schema.EntityKindPerson, 0.8),
		entity("athens", schema.EntityKindPlace, 0.8),
	}
	cfg := graph.DefaultQueryConfig() // MaxComplexity 8
	queries := graph.GenerateQueries(entities, cfg)

	for _, q := range queries {
		if q.Shape == graph.ShapeDeepMultiHop {
			// complexity(4,4,1) = 1+4+8+5 = 18, capped at 10, still > 8 -> downgraded
			assert.LessOrEqual(t, q.Complexity, 1)
			assert.Equal(t, `MATCH (e:Entity {canonical_form: $name}) RETURN e`, q.Cypher)
		}
	}
}
