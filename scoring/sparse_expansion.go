package scoring

import (
	"math"
	"sort"

	"github.com/arete-go/retrieval/index"
	"github.com/arete-go/retrieval/schema"
)

// glossaryBoost is the fixed importance multiplier applied to a curated set
// of philosophical terms before they enter the term-importance weighting.
// This list is independent of the dense retriever's and the re-ranker's own
// glossaries — each stage is tuned separately.
var glossaryBoost = map[string]float64{
	"virtue":      1.5,
	"justice":     1.5,
	"wisdom":      1.5,
	"eudaimonia":  1.5,
	"phronesis":   1.5,
	"dharma":      1.5,
	"arete":       1.5,
	"soul":        1.5,
	"form":        1.5,
	"substance":   1.5,
	"categorical": 1.5,
}

// expansionCooccurrence maps a term to the terms it expands a query with,
// modeling a static co-occurrence table rather than a learned one.
var expansionCooccurrence = map[string][]string{
	"virtue":     {"excellence", "character"},
	"justice":    {"fairness", "law"},
	"wisdom":     {"knowledge", "understanding"},
	"eudaimonia": {"flourishing", "happiness"},
	"soul":       {"psyche", "mind"},
	"form":       {"idea", "essence"},
}

// SparseExpansionScorer scores passages using term-importance weighting over
// glossary terms plus a co-occurrence expansion of the query before scoring.
type SparseExpansionScorer struct {
	idx              *index.InvertedIndex
	expansionFactor  float64
	expansionTable   map[string][]string
	glossary         map[string]float64
}

// ExpansionOption configures a SparseExpansionScorer.
type ExpansionOption func(*SparseExpansionScorer)

// WithExpansionFactor overrides the default 1.5 divisor applied to the
// contribution of terms added by query expansion.
func WithExpansionFactor(factor float64) ExpansionOption {
	return func(s *SparseExpansionScorer) { s.expansionFactor = factor }
}

// WithExpansionTable overrides the built-in co-occurrence table.
func WithExpansionTable(table map[string][]string) ExpansionOption {
	return func(s *SparseExpansionScorer) { s.expansionTable = table }
}

// NewSparseExpansionScorer constructs a SparseExpansionScorer bound to an
// index.
func NewSparseExpansionScorer(idx *index.InvertedIndex, opts ...ExpansionOption) *SparseExpansionScorer {
	s := &SparseExpansionScorer{
		idx:             idx,
		expansionFactor: 1.5,
		expansionTable:  expansionCooccurrence,
		glossary:        glossaryBoost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// termImportance returns df-inverse weighting scaled by the glossary boost,
// if any: 1/(1+ln(df)), times 1.5 for glossary terms.
func (s *SparseExpansionScorer) termImportance(term string) float64 {
	df := s.idx.DF(term)
	if df == 0 {
		return 0
	}
	weight := 1 / (1 + math.Log(float64(df)))
	if boost, ok := s.glossary[term]; ok {
		weight *= boost
	}
	return weight
}

// expand returns the original terms plus any co-occurrence expansions,
// each expansion term tagged as such so its contribution can be scaled by
// expansionFactor separately from the original query terms.
func (s *SparseExpansionScorer) expand(queryTerms []string) (original []string, expanded []string) {
	seen := make(map[string]bool, len(queryTerms))
	for _, t := range queryTerms {
		if !seen[t] {
			seen[t] = true
			original = append(original, t)
		}
	}
	for _, t := range queryTerms {
		for _, exp := range s.expansionTable[t] {
			if !seen[exp] {
				seen[exp] = true
				expanded = append(expanded, exp)
			}
		}
	}
	return original, expanded
}

// Score implements Scorer: a weighted sum of term-importance across the
// original query terms plus its co-occurrence expansion (scaled down by
// expansionFactor), normalized by max(len(queryTerms), 1) and clamped.
func (s *SparseExpansionScorer) Score(queryTerms []string, passage schema.Passage) float64 {
	original, expanded := s.expand(queryTerms)

	var raw float64
	for _, term := range original {
		tf := s.idx.TF(term, passage.ID)
		if tf == 0 {
			continue
		}
		raw += s.termImportance(term) * float64(tf)
	}
	for _, term := range expanded {
		tf := s.idx.TF(term, passage.ID)
		if tf == 0 {
			continue
		}
		raw += s.termImportance(term) * float64(tf) / s.expansionFactor
	}

	divisor := len(queryTerms)
	if divisor < 1 {
		divisor = 1
	}
	return clamp01(raw / float64(divisor))
}

// AlgorithmName implements Scorer.
func (s *SparseExpansionScorer) AlgorithmName() string { return "sparse_expansion" }

// Search ranks passages referenced by the postings of the original or
// expanded query terms, applies filters, sorts descending, and truncates.
func (s *SparseExpansionScorer) Search(query string, limit int, minRelevance float64, filter *schema.PassageFilter) []schema.SearchResult {
	terms := s.idx.Tokenize(query)
	original, expanded := s.expand(terms)

	allTerms := make([]string, 0, len(original)+len(expanded))
	allTerms = append(allTerms, original...)
	allTerms = append(allTerms, expanded...)
	candidateIDs := s.idx.CandidateIDs(allTerms)

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

var _ Scorer = (*SparseExpansionScorer)(nil)
