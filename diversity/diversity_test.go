package diversity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arete-go/retrieval/diversity"
	"github.com/arete-go/retrieval/schema"
)

func result(id string, score float64, vec []float64, text string) schema.SearchResult {
	return schema.SearchResult{
		Passage:        schema.Passage{ID: id, Text: text, Embedding: vec},
		RelevanceScore: score,
	}
}

func TestMMRPrefersDiverseOverRedundant(t *testing.T) {
	ranked := []schema.SearchResult{
		result("p1", 0.95, []float64{1, 0}, "virtue and justice"),
		result("p2", 0.9, []float64{0.99, 0.01}, "virtue and justice too"),
		result("p3", 0.6, []float64{0, 1}, "an unrelated topic"),
	}

	cfg := diversity.DefaultConfig()
	cfg.MaxResults = 2
	cfg.SimilarityThreshold = 0.99
	sel := diversity.New(cfg)
	out := sel.Select(ranked)

	require.Len(t, out, 2)
	assert.Equal(t, "p1", out[0].Passage.ID)
	assert.Equal(t, "p3", out[1].Passage.ID)
}

func TestClusteringPicksHighestRelevancePerCluster(t *testing.T) {
	ranked := []schema.SearchResult{
		result("p1", 0.9, []float64{1, 0}, "a"),
		result("p2", 0.5, []float64{1, 0.01}, "b"),
		result("p3", 0.8, []float64{0, 1}, "c"),
		result("p4", 0.3, []float64{0.01, 1}, "d"),
	}

	cfg := diversity.DefaultConfig()
	cfg.Method = diversity.MethodClustering
	cfg.NumClusters = 2
	cfg.MinClusterSize = 2
	sel := diversity.New(cfg)
	out := sel.Select(ranked)

	ids := make(map[string]bool)
	for _, r := range out {
		ids[r.Passage.ID] = true
	}
	assert.True(t, ids["p1"] || ids["p3"])
}

func TestSemanticDistanceUsesFixedWeighting(t *testing.T) {
	ranked := []schema.SearchResult{
		result("p1", 1.0, []float64{1, 0}, "x"),
		result("p2", 1.0, []float64{0, 1}, "y"),
	}
	cfg := diversity.DefaultConfig()
	cfg.Method = diversity.MethodSemanticDistance
	cfg.SimilarityThreshold = 0.99
	sel := diversity.New(cfg)
	out := sel.Select(ranked)
	require.Len(t, out, 2)
	assert.InDelta(t, 0.5*1.0+0.5*1.0, out[1].DiversityScore, 0.01)
}

func TestHybridDedupesByID(t *testing.T) {
	ranked := []schema.SearchResult{
		result("p1", 0.9, []float64{1, 0}, "virtue"),
		result("p2", 0.8, []float64{0, 1}, "justice"),
		result("p3", 0.7, []float64{0.5, 0.5}, "wisdom"),
	}
	cfg := diversity.DefaultConfig()
	cfg.Method = diversity.MethodHybrid
	sel := diversity.New(cfg)
	out := sel.Select(ranked)

	seen := make(map[string]bool)
	for _, r := range out {
		assert.False(t, seen[r.Passage.ID])
		seen[r.Passage.ID] = true
	}
}

func TestValidateConfigRejectsLambdaOutOfRange(t *testing.T) {
	cfg := diversity.DefaultConfig()
	cfg.Lambda = 1.5
	err := diversity.ValidateConfig(cfg)
	require.Error(t, err)
	var divErr *diversity.DiversityError
	assert.ErrorAs(t, err, &divErr)
}

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	require.NoError(t, diversity.ValidateConfig(diversity.DefaultConfig()))
}
