package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arete-go/retrieval/graph"
	"github.com/arete-go/retrieval/schema"
)

func TestDetectEntitiesTagsEachKind(t *testing.T) {
	entities := graph.DetectEntities("Aristotle discusses virtue in the Republic, written near Athens")

	byForm := make(map[string]schema.Entity)
	for _, e := range entities {
		byForm[e.CanonicalForm] = e
	}

	require.Contains(t, byForm, "aristotle")
	assert.Equal(t, schema.EntityKindPerson, byForm["aristotle"].Kind)

	require.Contains(t, byForm, "virtue")
	assert.Equal(t, schema.EntityKindConcept, byForm["virtue"].Kind)

	require.Contains(t, byForm, "republic")
	assert.Equal(t, schema.EntityKindWork, byForm["republic"].Kind)

	require.Contains(t, byForm, "athens")
	assert.Equal(t, schema.EntityKindPlace, byForm["athens"].Kind)
}

func TestDetectEntitiesResolvesOverlapToHighestConfidence(t *testing.T) {
	entities := graph.DetectEntities("Aristotle's Metaphysics explores metaphysics as a concept")

	var metaphysics *schema.Entity
	for i := range entities {
		if entities[i].CanonicalForm == "metaphysics" {
			metaphysics = &entities[i]
		}
	}
	require.NotNil(t, metaphysics)
	assert.Equal(t, schema.EntityKindWork, metaphysics.Kind)
	assert.Equal(t, 0.9, metaphysics.Confidence)
}

func TestDetectEntitiesEmptyQuery(t *testing.T) {
	assert.Empty(t, graph.DetectEntities("nothing relevant here"))
}
