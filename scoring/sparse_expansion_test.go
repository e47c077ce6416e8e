package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arete-go/retrieval/index"
	"github.com/arete-go/retrieval/schema"
	"github.com/arete-go/retrieval/scoring"
)

func TestSparseExpansionScorerMatchesExpandedTerm(t *testing.T) {
	idx := index.New()
	idx.Add(schema.Passage{ID: "p1", Text: "excellence of character is central to virtue"})
	idx.Add(schema.Passage{ID: "p2", Text: "the weather today is mild and calm"})

	scorer := scoring.NewSparseExpansionScorer(idx)
	terms := idx.Tokenize("virtue")

	p1, _ := idx.Passage("p1")
	p2, _ := idx.Passage("p2")

	scoreP1 := scorer.Score(terms, p1)
	scoreP2 := scorer.Score(terms, p2)

	assert.Greater(t, scoreP1, 0.0)
	assert.Equal(t, 0.0, scoreP2)
}

func TestSparseExpansionScorerGlossaryBoost(t *testing.T) {
	idx := index.New()
	idx.Add(schema.Passage{ID: "p1", Text: "virtue appears here"})
	idx.Add(schema.Passage{ID: "p2", Text: "ordinary appears here"})
	// A third passage holding both terms gives each df=2, keeping both
	// scores below the clamp at 1.
	idx.Add(schema.Passage{ID: "p3", Text: "virtue and ordinary together"})

	scorer := scoring.NewSparseExpansionScorer(idx)

	p1, _ := idx.Passage("p1")
	p2, _ := idx.Passage("p2")

	scoreGlossary := scorer.Score(idx.Tokenize("virtue"), p1)
	scoreOrdinary := scorer.Score(idx.Tokenize("ordinary"), p2)

	assert.Greater(t, scoreGlossary, scoreOrdinary)
}

func TestSparseExpansionScorerSearchIncludesExpandedCandidates(t *testing.T) {
	idx := index.New()
	idx.Add(schema.Passage{ID: "p1", Text: "a treatise on excellence and character alone"})
	scorer := scoring.NewSparseExpansionScorer(idx)

	results := scorer.Search("virtue", 10, 0, nil)
	assert.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].Passage.ID)
}

func TestSparseExpansionScorerCustomExpansionTable(t *testing.T) {
	idx := index.New()
	idx.Add(schema.Passage{ID: "p1", Text: "custom synonym appears here"})

	scorer := scoring.NewSparseExpansionScorer(idx,
		scoring.WithExpansionTable(map[string][]string{"query": {"synonym"}}),
		scoring.WithExpansionFactor(2.0),
	)

	results := scorer.Search("query", 10, 0, nil)
	assert.Len(t, results, 1)
}

func TestSparseExpansionScorerAlgorithmName(t *testing.T) {
	scorer := scoring.NewSparseExpansionScorer(index.New())
	assert.Equal(t, "sparse_expansion", scorer.AlgorithmName())
}
