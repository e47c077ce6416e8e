package rerank_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arete-go/retrieval/llm"
	"github.com/arete-go/retrieval/rerank"
	"github.com/arete-go/retrieval/schema"
)

type stubLLM struct {
	response string
}

func (l *stubLLM) Complete(_ context.Context, _ string) (string, error) { return l.response, nil }
func (l *stubLLM) Chat(_ context.Context, _ []llm.ChatMessage) (string, error) {
	return l.response, nil
}
func (l *stubLLM) Stream(_ context.Context, _ string) (<-chan string, error) { return nil, nil }

func candidates(n int) []schema.SearchResult {
	out := make([]schema.SearchResult, n)
	for i := 0; i < n; i++ {
		out[i] = schema.SearchResult{
			Passage:        schema.Passage{ID: fmt.Sprintf("p%d", i+1), Text: fmt.Sprintf("passage %d text", i+1)},
			RelevanceScore: 0.5,
		}
	}
	return out
}

func TestRerankerCrossEncoderParsesRelevanceLines(t *testing.T) {
	response := "Doc: 1, Relevance: 9\nDoc: 2, Relevance: 3\n"
	cfg := rerank.DefaultConfig()
	cfg.Composition = rerank.CompositionRerankOnly
	r := rerank.New(cfg, rerank.WithLLM(&stubLLM{response: response}))

	results, err := r.Rerank(context.Background(), "query", candidates(2))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "p1", results[0].Passage.ID)
	assert.InDelta(t, 0.9, results[0].RerankScore, 0.001)
}

func TestRerankerDomainBoostsApply(t *testing.T) {
	response := "Doc: 1, Relevance: 5\n"
	cfg := rerank.DefaultConfig()
	cfg.Composition = rerank.CompositionRerankOnly
	r := rerank.New(cfg, rerank.WithLLM(&stubLLM{response: response}))

	c := candidates(1)
	c[0].Passage.Text = "a treatise on virtue and justice by Plato"

	results, err := r.Rerank(context.Background(), "query", c)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.65, results[0].RerankScore, 0.001)
}

func TestRerankerScoreThresholdFiltersAndTopKTruncates(t *testing.T) {
	response := "Doc: 1, Relevance: 9\nDoc: 2, Relevance: 1\n"
	cfg := rerank.DefaultConfig()
	cfg.Composition = rerank.CompositionRerankOnly
	cfg.ScoreThreshold = 0.5
	cfg.TopK = 1
	r := rerank.New(cfg, rerank.WithLLM(&stubLLM{response: response}))

	results, err := r.Rerank(context.Background(), "query", candidates(2))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].Passage.ID)
}

func TestRerankerWeightedCompositionDefault(t *testing.T) {
	response := "Doc: 1, Relevance: 10\n"
	cfg := rerank.DefaultConfig()
	r := rerank.New(cfg, rerank.WithLLM(&stubLLM{response: response}))

	c := candidates(1)
	c[0].RelevanceScore = 0.2
	results, err := r.Rerank(context.Background(), "query", c)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.2*0.3+1.0*0.7, results[0].FinalScore(), 0.001)
}

func TestRerankerCrossEncoderWithoutLLMReturnsRerankingError(t *testing.T) {
	r := rerank.New(rerank.DefaultConfig())
	_, err := r.Rerank(context.Background(), "query", candidates(1))
	require.Error(t, err)
	var rerankErr *rerank.RerankingError
	assert.ErrorAs(t, err, &rerankErr)
	assert.Equal(t, rerank.MethodCrossEncoder, rerankErr.Method)
}
