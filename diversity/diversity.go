// Package diversity implements the diversity selector (C8): MMR,
// k-means clustering, greedy semantic-distance, and a hybrid of all three.
package diversity

import (
	"fmt"
	"math"

	"github.com/arete-go/retrieval/embedding"
	"github.com/arete-go/retrieval/schema"
)

// Method selects a diversification strategy.
type Method string

const (
	MethodMMR              Method = "mmr"
	MethodClustering       Method = "clustering"
	MethodSemanticDistance Method = "semantic_distance"
	MethodHybrid           Method = "hybrid"
)

// conceptTerms is this stage's own ~20-term philosophical-concept list,
// used for topical-diversity scoring.
var conceptTerms = []string{
	"virtue", "ethics", "justice", "wisdom", "knowledge", "truth", "good",
	"soul", "reason", "morality", "duty", "happiness", "freedom", "being",
	"form", "substance", "logic", "dialectic", "essence", "causation",
}

// Config configures a Selector.
type Config struct {
	Method              Method
	Lambda              float64
	SimilarityThreshold float64
	NumClusters         int
	MinClusterSize      int
	MaxResults          int
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		Method:              MethodMMR,
		Lambda:              0.7,
		SimilarityThreshold: 0.85,
		NumClusters:         5,
		MinClusterSize:      2,
		MaxResults:          50,
	}
}

// DiversityError reports an out-of-range Config value caught at
// construction time rather than mid-selection.
type DiversityError struct {
	Cause error
}

func (e *DiversityError) Error() string {
	return fmt.Sprintf("diversity: invalid config: %v", e.Cause)
}

func (e *DiversityError) Unwrap() error { return e.Cause }

// ValidateConfig checks the range invariants New's caller is expected to
// uphold, returning a DiversityError describing the first violation found.
func ValidateConfig(cfg Config) error {
	if cfg.Lambda < 0 || cfg.Lambda > 1 {
		return &DiversityError{Cause: fmt.Errorf("lambda (%v) must be in [0,1]", cfg.Lambda)}
	}
	if cfg.SimilarityThreshold < 0 || cfg.SimilarityThreshold > 1 {
		return &DiversityError{Cause: fmt.Errorf("similarity_threshold (%v) must be in [0,1]", cfg.SimilarityThreshold)}
	}
	if cfg.NumClusters < 1 {
		return &DiversityError{Cause: fmt.Errorf("num_clusters (%v) must be positive", cfg.NumClusters)}
	}
	if cfg.MinClusterSize < 1 {
		return &DiversityError{Cause: fmt.Errorf("min_cluster_size (%v) must be positive", cfg.MinClusterSize)}
	}
	return nil
}

// Selector implements C8.
type Selector struct {
	cfg Config
}

// New constructs a Selector.
func New(cfg Config) *Selector {
	return &Selector{cfg: cfg}
}

// Select diversifies ranked per cfg.Method.
func (s *Selector) Select(ranked []schema.SearchResult) []schema.DiversifiedResult {
	switch s.cfg.Method {
	case MethodClustering:
		return s.selectClustering(ranked)
	case MethodSemanticDistance:
		return s.selectSemanticDistance(ranked)
	case MethodHybrid:
		return s.selectHybrid(ranked)
	default:
		return s.selectMMR(ranked)
	}
}

func clampSim(sim float64) float64 {
	if sim < 0 {
		return 0
	}
	return sim
}

func similarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	sim, err := embedding.CosineSimilarity(a, b)
	if err != nil {
		return 0
	}
	return clampSim(sim)
}

func distance(a, b []float64) float64 {
	return 1 - similarity(a, b)
}

func minDistanceToSet(candidate []float64, set [][]float64) float64 {
	if len(set) == 0 {
		return 1
	}
	min := math.Inf(1)
	for _, s := range set {
		d := distance(candidate, s)
		if d < min {
			min = d
		}
	}
	return min
}

// averagePairwiseSimilarity is the reported diversity_score formula: 1 minus
// the average pairwise similarity across the selected set. Deliberately
// distinct from the min-distance formula MMR uses to drive selection.
func averagePairwiseSimilarity(vectors [][]float64) float64 {
	if len(vectors) < 2 {
		return 1
	}
	var sum float64
	var count int
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sum += similarity(vectors[i], vectors[j])
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return 1 - sum/float64(count)
}

// selectMMR implements the MMR strategy: min-distance-to-selected drives
// the selection criterion; average pairwise similarity (over 1) drives the
// reported diversity_score.
func (s *Selector) selectMMR(ranked []schema.SearchResult) []schema.DiversifiedResult {
	if len(ranked) == 0 {
		return nil
	}
	stopDistance := 1 - s.cfg.SimilarityThreshold

	selected := []schema.SearchResult{ranked[0]}
	selectedVecs := [][]float64{ranked[0].Passage.Embedding}
	remaining := append([]schema.SearchResult(nil), ranked[1:]...)

	for len(selected) < s.cfg.MaxResults && len(remaining) > 0 {
		bestIdx := -1
		bestScore := math.Inf(-1)
		bestDistance := 0.0

		for i, cand := range remaining {
			minDist := minDistanceToSet(cand.Passage.Embedding, selectedVecs)
			mmrScore := s.cfg.Lambda*cand.FinalScore() + (1-s.cfg.Lambda)*minDist
			if mmrScore > bestScore {
				bestScore = mmrScore
				bestIdx = i
				bestDistance = minDist
			}
		}

		if bestIdx == -1 || bestDistance < stopDistance {
			break
		}

		chosen := remaining[bestIdx]
		selected = append(selected, chosen)
		selectedVecs = append(selectedVecs, chosen.Passage.Embedding)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	diversityScore := averagePairwiseSimilarity(selectedVecs)
	out := make([]schema.DiversifiedResult, len(selected))
	for i, r := range selected {
		out[i] = schema.DiversifiedResult{
			SearchResult:     r,
			DiversityScore:   diversityScore,
			Uniqueness:       diversityScore,
			TopicalDiversity: topicalDiversity(r.Passage.Text, selected),
			SemanticNovelty:  minDistanceToSet(r.Passage.Embedding, without(selectedVecs, r.Passage.Embedding)),
		}
	}
	return out
}

func without(vecs [][]float64, v []float64) [][]float64 {
	out := make([][]float64, 0, len(vecs))
	skipped := false
	for _, vec := range vecs {
		if !skipped && sameVector(vec, v) {
			skipped = true
			continue
		}
		out = append(out, vec)
	}
	return out
}

func sameVector(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// topicalDiversity counts concept terms in text; fraction not appearing in
// other passages, boosted by a 0.5 base, capped at 1.0; defaults to 0.5 when
// the passage has no concept terms at all.
func topicalDiversity(text string, pool []schema.SearchResult) float64 {
	terms := presentConceptTerms(text)
	if len(terms) == 0 {
		return 0.5
	}

	var uniqueCount int
	for _, term := range terms {
		appearsElsewhere := false
		for _, other := range pool {
			if other.Passage.Text == text {
				continue
			}
			if containsTerm(other.Passage.Text, term) {
				appearsElsewhere = true
				break
			}
		}
		if !appearsElsewhere {
			uniqueCount++
		}
	}

	fraction := float64(uniqueCount) / float64(len(terms))
	score := 0.5 + fraction
	if score > 1 {
		score = 1
	}
	return score
}

func presentConceptTerms(text string) []string {
	var present []string
	for _, t := range conceptTerms {
		if containsTerm(text, t) {
			present = append(present, t)
		}
	}
	return present
}

func containsTerm(text, term string) bool {
	return indexFold(text, term) >= 0
}

func indexFold(haystack, needle string) int {
	h := []rune(haystack)
	n := []rune(needle)
	if len(n) == 0 || len(n) > len(h) {
		return -1
	}
	for i := 0; i+len(n) <= len(h); i++ {
		match := true
		for j := range n {
			if toLowerRune(h[i+j]) != toLowerRune(n[j]) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func toLowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// selectSemanticDistance implements the greedy strategy with a fixed
// 0.5*relevance + 0.5*novelty combined score.
func (s *Selector) selectSemanticDistance(ranked []schema.SearchResult) []schema.DiversifiedResult {
	if len(ranked) == 0 {
		return nil
	}
	stopDistance := 1 - s.cfg.SimilarityThreshold

	selected := []schema.SearchResult{ranked[0]}
	selectedVecs := [][]float64{ranked[0].Passage.Embedding}
	remaining := append([]schema.SearchResult(nil), ranked[1:]...)

	for len(selected) < s.cfg.MaxResults && len(remaining) > 0 {
		bestIdx := -1
		bestNovelty := math.Inf(-1)

		for i, cand := range remaining {
			novelty := minDistanceToSet(cand.Passage.Embedding, selectedVecs)
			if novelty > bestNovelty {
				bestNovelty = novelty
				bestIdx = i
			}
		}

		if bestIdx == -1 || bestNovelty < stopDistance {
			break
		}

		chosen := remaining[bestIdx]
		selected = append(selected, chosen)
		selectedVecs = append(selectedVecs, chosen.Passage.Embedding)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	out := make([]schema.DiversifiedResult, len(selected))
	for i, r := range selected {
		novelty := minDistanceToSet(r.Passage.Embedding, without(selectedVecs, r.Passage.Embedding))
		combined := 0.5*r.FinalScore() + 0.5*novelty
		out[i] = schema.DiversifiedResult{
			SearchResult:     r,
			DiversityScore:   combined,
			Uniqueness:       novelty,
			SemanticNovelty:  novelty,
			TopicalDiversity: topicalDiversity(r.Passage.Text, selected),
		}
	}
	return out
}
