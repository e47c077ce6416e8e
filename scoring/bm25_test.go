package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arete-go/retrieval/index"
	"github.com/arete-go/retrieval/schema"
	"github.com/arete-go/retrieval/scoring"
)

func buildIndex() *index.InvertedIndex {
	idx := index.New()
	idx.Add(schema.Passage{ID: "p1", Text: "virtue is the excellence of character and the mean between extremes"})
	idx.Add(schema.Passage{ID: "p2", Text: "justice concerns fairness in the distribution of goods"})
	idx.Add(schema.Passage{ID: "p3", Text: "virtue and wisdom are linked in the practical reasoning of phronesis"})
	return idx
}

func TestBM25ScorerRanksExactTermMatchHigher(t *testing.T) {
	idx := buildIndex()
	scorer := scoring.NewBM25Scorer(idx)

	// "excellence" occurs only in p1, so its IDF is positive; "virtue" occurs
	// in two of the three passages, which makes its IDF negative and clamps
	// every score for it to 0.
	terms := idx.Tokenize("excellence")
	p1, _ := idx.Passage("p1")
	p2, _ := idx.Passage("p2")

	scoreP1 := scorer.Score(terms, p1)
	scoreP2 := scorer.Score(terms, p2)

	assert.Greater(t, scoreP1, scoreP2)
	assert.Equal(t, 0.0, scoreP2)
}

func TestBM25ScorerScoreIsBounded(t *testing.T) {
	idx := buildIndex()
	scorer := scoring.NewBM25Scorer(idx)
	terms := idx.Tokenize("virtue wisdom justice")

	for _, id := range []string{"p1", "p2", "p3"} {
		p, _ := idx.Passage(id)
		score := scorer.Score(terms, p)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestBM25IDFRewardsRarerTerms(t *testing.T) {
	idx := index.New()
	idx.Add(schema.Passage{ID: "p1", Text: "common common common rare term here"})
	idx.Add(schema.Passage{ID: "p2", Text: "common words appear everywhere"})
	idx.Add(schema.Passage{ID: "p3", Text: "common phrases again and again"})
	scorer := scoring.NewBM25Scorer(idx)

	commonTerms := idx.Tokenize("common")
	rareTerms := idx.Tokenize("rare")

	p1, _ := idx.Passage("p1")
	commonScore := scorer.Score(commonTerms, p1)
	rareScore := scorer.Score(rareTerms, p1)

	assert.Greater(t, rareScore, commonScore)
}

func TestBM25ScorerSearchOnlyScansCandidates(t *testing.T) {
	idx := buildIndex()
	scorer := scoring.NewBM25Scorer(idx)

	results := scorer.Search("phronesis", 10, 0, nil)
	require.Len(t, results, 1)
	assert.Equal(t, "p3", results[0].Passage.ID)
	assert.Equal(t, 1, results[0].RankingPosition)
	assert.Equal(t, "sparse", results[0].Metadata["retrieval_method"])
}

func TestBM25ScorerAlgorithmName(t *testing.T) {
	scorer := scoring.NewBM25Scorer(index.New())
	assert.Equal(t, "bm25", scorer.AlgorithmName())
}

func TestBM25PlusScorerAlgorithmName(t *testing.T) {
	scorer := scoring.NewBM25PlusScorer(index.New(), 1.0)
	assert.Equal(t, "bm25plus", scorer.AlgorithmName())
}
