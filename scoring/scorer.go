// Package scoring implements the sparse scorers (C2 BM25, C3
// sparse-with-expansion) that run against an index.InvertedIndex.
package scoring

import "github.com/arete-go/retrieval/schema"

// Scorer is the capability set every sparse scoring strategy implements,
// modeling the source's duck-typed "anything with a score method" as an
// explicit, tagged interface: {score, build_index, algorithm_name}.
type Scorer interface {
	// Score returns a [0,1] relevance score for a passage against a set of
	// already-tokenized query terms.
	Score(queryTerms []string, passage schema.Passage) float64
	// AlgorithmName identifies the scoring strategy, for metrics/logging.
	AlgorithmName() string
}

// SparseSearcher is the capability both BM25Scorer and SparseExpansionScorer
// implement: a full sparse-retrieval pass over an index, not just a single
// passage's score.
type SparseSearcher interface {
	Scorer
	Search(query string, limit int, minRelevance float64, filter *schema.PassageFilter) []schema.SearchResult
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
