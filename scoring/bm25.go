package scoring

import (
	"math"
	"sort"

	"github.com/arete-go/retrieval/index"
	"github.com/arete-go/retrieval/schema"
)

// BM25Scorer scores passages against query terms using the BM25 ranking
// function over an InvertedIndex's collection statistics. Unlike a
// smoothed variant, the IDF term here carries no "+1" addition — matching
// the exact formula this scorer is specified against.
type BM25Scorer struct {
	idx *index.InvertedIndex
	k1  float64
	b   float64
}

// Option configures a BM25Scorer.
type Option func(*BM25Scorer)

// WithK1 overrides the term-frequency saturation parameter (default 1.2).
func WithK1(k1 float64) Option {
	return func(s *BM25Scorer) { s.k1 = k1 }
}

// WithB overrides the length-normalization parameter (default 0.75).
func WithB(b float64) Option {
	return func(s *BM25Scorer) { s.b = b }
}

// NewBM25Scorer constructs a BM25Scorer bound to an index.
func NewBM25Scorer(idx *index.InvertedIndex, opts ...Option) *BM25Scorer {
	s := &BM25Scorer{idx: idx, k1: 1.2, b: 0.75}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score implements Scorer. It returns the raw BM25 score divided by
// max(len(queryTerms), 1) and clamped to [0,1] — a deliberate simplification
// over proper score calibration; callers must not compare absolute scores
// across different queries.
func (s *BM25Scorer) Score(queryTerms []string, passage schema.Passage) float64 {
	n := s.idx.TotalDocuments()
	avgdl := s.idx.AverageDocumentLength()
	if avgdl == 0 {
		avgdl = 1
	}
	docLen := float64(s.idx.PassageLength(passage.ID))

	var raw float64
	for _, term := range queryTerms {
		df := s.idx.DF(term)
		tf := s.idx.TF(term, passage.ID)
		if df == 0 || tf == 0 {
			continue
		}

		idf := math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5))
		numerator := float64(tf) * (s.k1 + 1)
		denominator := float64(tf) + s.k1*(1-s.b+s.b*(docLen/avgdl))
		raw += idf * (numerator / denominator)
	}

	divisor := len(queryTerms)
	if divisor < 1 {
		divisor = 1
	}
	return clamp01(raw / float64(divisor))
}

// AlgorithmName implements Scorer.
func (s *BM25Scorer) AlgorithmName() string { return "bm25" }

// Search ranks every passage referenced by the postings of any query term
// (never the full collection), applies filters, sorts descending by score,
// and truncates to limit/min_relevance.
func (s *BM25Scorer) Search(query string, limit int, minRelevance float64, filter *schema.PassageFilter) []schema.SearchResult {
	terms := s.idx.Tokenize(query)
	candidateIDs := s.idx.CandidateIDs(terms)

	results := make([]schema.SearchResult, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		passage, ok := s.idx.Passage(id)
		if !ok || !filter.Matches(passage) {
			continue
		}
		score := s.Score(terms, passage)
		if score < minRelevance {
			continue
		}
		results = append(results, schema.SearchResult{
			Passage:        passage,
			RelevanceScore: score,
			Query:          query,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	if limit >= 0 && limit < len(results) {
		results = results[:limit]
	}
	for i := range results {
		results[i].RankingPosition = i + 1
		results[i].EnsureMetadata()["retrieval_method"] = "sparse"
	}
	return results
}

var _ Scorer = (*BM25Scorer)(nil)

// BM25PlusScorer is the delta-shifted BM25+ variant, an alternate
// algorithm_name implementation of the same Scorer contract, carried for
// symmetry with scoring-library lineages in this module's dependency stack.
// It is not wired into the default pipeline.
type BM25PlusScorer struct {
	*BM25Scorer
	delta float64
}

// NewBM25PlusScorer constructs a BM25PlusScorer.
func NewBM25PlusScorer(idx *index.InvertedIndex, delta float64, opts ...Option) *BM25PlusScorer {
	return &BM25PlusScorer{BM25Scorer: NewBM25Scorer(idx, opts...), delta: delta}
}

// Score overrides BM25Scorer.Score with the delta-shifted formula.
func (s *BM25PlusScorer) Score(queryTerms []string, passage schema.Passage) float64 {
	n := s.idx.TotalDocuments()
	avgdl := s.idx.AverageDocumentLength()
	if avgdl == 0 {
		avgdl = 1
	}
	docLen := float64(s.idx.PassageLength(passage.ID))

	var raw float64
	for _, term := range queryTerms {
		df := s.idx.DF(term)
		tf := s.idx.TF(term, passage.ID)
		if df == 0 || tf == 0 {
			continue
		}
		idf := math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5))
		numerator := float64(tf) * (s.k1 + 1)
		denominator := float64(tf) + s.k1*(1-s.b+s.b*(docLen/avgdl))
		raw += idf * ((numerator / denominator) + s.delta)
	}

	divisor := len(queryTerms)
	if divisor < 1 {
		divisor = 1
	}
	return clamp01(raw / float64(divisor))
}

// AlgorithmName implements Scorer.
func (s *BM25PlusScorer) AlgorithmName() string { return "bm25plus" }

var _ Scorer = (*BM25PlusScorer)(nil)
