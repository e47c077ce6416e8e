package retriever_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arete-go/retrieval/retriever"
	"github.com/arete-go/retrieval/schema"
)

func sr(id string, score float64) schema.SearchResult {
	return schema.SearchResult{Passage: schema.Passage{ID: id}, RelevanceScore: score}
}

func TestWeightedAverageFusionCombinesBothSides(t *testing.T) {
	dense := []schema.SearchResult{sr("p1", 0.8), sr("p2", 0.4)}
	sparse := []schema.SearchResult{sr("p1", 0.2), sr("p3", 0.9)}

	cfg := retriever.DefaultHybridConfig()
	fused := retriever.Fuse(dense, sparse, cfg)

	byID := make(map[string]schema.FusedResult)
	for _, f := range fused {
		byID[f.Passage.ID] = f
	}
	require.Contains(t, byID, "p1")
	assert.InDelta(t, 0.5, byID["p1"].FinalScore(), 0.001)
	assert.Equal(t, "hybrid", byID["p1"].Metadata["retrieval_method"])
}

func TestReciprocalRankFusionSumsInverseRanks(t *testing.T) {
	dense := []schema.SearchResult{sr("p1", 0.9), sr("p2", 0.5)}
	sparse := []schema.SearchResult{sr("p2", 0.9), sr("p1", 0.1)}

	cfg := retriever.DefaultHybridConfig()
	cfg.Strategy = retriever.StrategyReciprocalRankFusion
	cfg.FusionK = 60
	fused := retriever.Fuse(dense, sparse, cfg)

	byID := make(map[string]schema.FusedResult)
	for _, f := range fused {
		byID[f.Passage.ID] = f
	}
	expected := 1.0/61 + 1.0/62
	assert.InDelta(t, expected, byID["p1"].FinalScore(), 0.0001)
}

func TestInterleavedFusionAlternatesStartingWithDense(t *testing.T) {
	dense := []schema.SearchResult{sr("p1", 0.9), sr("p2", 0.5)}
	sparse := []schema.SearchResult{sr("p3", 0.8), sr("p4", 0.7)}

	cfg := retriever.DefaultHybridConfig()
	cfg.Strategy = retriever.StrategyInterleaved
	fused := retriever.Fuse(dense, sparse, cfg)

	require.Len(t, fused, 4)
	assert.Equal(t, "p1", fused[0].Passage.ID)
	assert.Equal(t, "p3", fused[1].Passage.ID)
	assert.Equal(t, "p2", fused[2].Passage.ID)
	assert.Equal(t, "p4", fused[3].Passage.ID)
}

func TestScoreThresholdFusionPrioritizesDenseThenSparse(t *testing.T) {
	dense := []schema.SearchResult{sr("p1", 0.9), sr("p2", 0.2)}
	sparse := []schema.SearchResult{sr("p3", 0.85), sr("p2", 0.3)}

	cfg := retriever.DefaultHybridConfig()
	cfg.Strategy = retriever.StrategyScoreThreshold
	cfg.MinDenseScore = 0.6
	cfg.MinSparseScore = 0.6

	fused := retriever.Fuse(dense, sparse, cfg)
	byID := make(map[string]schema.FusedResult)
	for _, f := range fused {
		byID[f.Passage.ID] = f
	}
	assert.Equal(t, "dense_priority", byID["p1"].Metadata["fusion_pass"])
	assert.Equal(t, "sparse_priority", byID["p3"].Metadata["fusion_pass"])
	assert.Equal(t, "weighted_remaining", byID["p2"].Metadata["fusion_pass"])
}

func TestFuseFiltersByMinRelevance(t *testing.T) {
	dense := []schema.SearchResult{sr("p1", 0.9), sr("p2", 0.05)}
	cfg := retriever.DefaultHybridConfig()
	cfg.MinRelevance = 0.3
	fused := retriever.Fuse(dense, nil, cfg)
	require.Len(t, fused, 1)
	assert.Equal(t, "p1", fused[0].Passage.ID)
}

func TestValidateHybridConfigRejectsWeightsNotSummingToOne(t *testing.T) {
	cfg := retriever.DefaultHybridConfig()
	cfg.DenseWeight = 0.6
	cfg.SparseWeight = 0.6
	err := retriever.ValidateHybridConfig(cfg)
	require.Error(t, err)
	var fusionErr *retriever.FusionError
	assert.ErrorAs(t, err, &fusionErr)
}

func TestValidateHybridConfigAcceptsDefaults(t *testing.T) {
	require.NoError(t, retriever.ValidateHybridConfig(retriever.DefaultHybridConfig()))
}
