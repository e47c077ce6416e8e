package retriever

import (
	"fmt"
	"math"
	"sort"

	"github.com/arete-go/retrieval/schema"
)

// HybridStrategy selects one of the four fusion algorithms.
type HybridStrategy string

const (
	StrategyWeightedAverage      HybridStrategy = "weighted_average"
	StrategyReciprocalRankFusion HybridStrategy = "reciprocal_rank_fusion"
	StrategyInterleaved          HybridStrategy = "interleaved"
	StrategyScoreThreshold       HybridStrategy = "score_threshold"
)

// HybridConfig configures fusion.
type HybridConfig struct {
	Strategy      HybridStrategy
	DenseWeight   float64
	SparseWeight  float64
	MinDenseScore float64
	MinSparseScore float64
	FusionK       int
	MinRelevance  float64
}

// DefaultHybridConfig returns the spec's documented defaults.
func DefaultHybridConfig() HybridConfig {
	return HybridConfig{
		Strategy:     StrategyWeightedAverage,
		DenseWeight:  0.5,
		SparseWeight: 0.5,
		FusionK:      60,
	}
}

// FusionError reports an invalid HybridConfig: an unrecognized strategy or
// a dense/sparse weight pair that doesn't sum to 1.
type FusionError struct {
	Cause error
}

func (e *FusionError) Error() string {
	return fmt.Sprintf("fusion: invalid config: %v", e.Cause)
}

func (e *FusionError) Unwrap() error { return e.Cause }

// ValidateHybridConfig checks the weight-pair and strategy invariants Fuse
// assumes, returning a FusionError describing the first violation found.
func ValidateHybridConfig(cfg HybridConfig) error {
	switch cfg.Strategy {
	case StrategyWeightedAverage, StrategyReciprocalRankFusion, StrategyInterleaved, StrategyScoreThreshold:
	default:
		return &FusionError{Cause: fmt.Errorf("unknown strategy %q", cfg.Strategy)}
	}
	if math.Abs(cfg.DenseWeight+cfg.SparseWeight-1.0) > 1e-3 {
		return &FusionError{Cause: fmt.Errorf("dense_weight (%v) + sparse_weight (%v) must sum to 1", cfg.DenseWeight, cfg.SparseWeight)}
	}
	return nil
}

type fusionEntry struct {
	result     schema.SearchResult
	denseRank  int
	sparseRank int
}

func indexByID(results []schema.SearchResult) map[string]int {
	byID := make(map[string]int, len(results))
	for i, r := range results {
		byID[r.Passage.ID] = i + 1 // 1-based rank
	}
	return byID
}

// Fuse merges dense and sparse ranked lists per cfg.Strategy, filters by
// cfg.MinRelevance, sorts descending, and assigns ranking positions.
func Fuse(dense, sparse []schema.SearchResult, cfg HybridConfig) []schema.FusedResult {
	var merged map[string]*fusionEntry
	switch cfg.Strategy {
	case StrategyReciprocalRankFusion:
		merged = reciprocalRankFusion(dense, sparse, cfg)
	case StrategyInterleaved:
		return interleavedFusion(dense, sparse, cfg)
	case StrategyScoreThreshold:
		merged = scoreThresholdFusion(dense, sparse, cfg)
	default:
		merged = weightedAverageFusion(dense, sparse, cfg)
	}

	out := make([]schema.FusedResult, 0, len(merged))
	for _, entry := range merged {
		out = append(out, schema.FusedResult{
			SearchResult:   entry.result,
			DenseRank:      entry.denseRank,
			SparseRank:     entry.sparseRank,
			FusionStrategy: string(cfg.Strategy),
		})
	}
	return finalizeFusion(out, cfg)
}

func finalizeFusion(out []schema.FusedResult, cfg HybridConfig) []schema.FusedResult {
	filtered := out[:0]
	for _, r := range out {
		if r.FinalScore() >= cfg.MinRelevance {
			filtered = append(filtered, r)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].FinalScore() > filtered[j].FinalScore()
	})
	for i := range filtered {
		filtered[i].RankingPosition = i + 1
		filtered[i].EnsureMetadata()["retrieval_method"] = "hybrid"
		filtered[i].Metadata["hybrid_strategy"] = string(cfg.Strategy)
	}
	return filtered
}

// weightedAverageFusion combines per-id scores: dense*w_d + sparse*w_s, an
// absent side contributing 0. The base metadata/text comes from the dense
// result when present, else the sparse one.
func weightedAverageFusion(dense, sparse []schema.SearchResult, cfg HybridConfig) map[string]*fusionEntry {
	denseByID := make(map[string]schema.SearchResult, len(dense))
	for _, r := range dense {
		denseByID[r.Passage.ID] = r
	}
	sparseByID := make(map[string]schema.SearchResult, len(sparse))
	for _, r := range sparse {
		sparseByID[r.Passage.ID] = r
	}
	denseRanks := indexByID(dense)
	sparseRanks := indexByID(sparse)

	ids := unionIDs(dense, sparse)
	merged := make(map[string]*fusionEntry, len(ids))
	for _, id := range ids {
		d, hasDense := denseByID[id]
		s, hasSparse := sparseByID[id]

		base := s
		if hasDense {
			base = d
		}

		score := 0.0
		if hasDense {
			score += d.FinalScore() * cfg.DenseWeight
		}
		if hasSparse {
			score += s.FinalScore() * cfg.SparseWeight
		}
		base.SetEnhancedScore(score)

		merged[id] = &fusionEntry{result: base, denseRank: denseRanks[id], sparseRank: sparseRanks[id]}
	}
	return merged
}

// reciprocalRankFusion sums 1/(k+rank) over whichever sides contain the id.
// When both sides contain it, the metadata base is whichever side's own
// final_score was higher — a tiebreak unrelated to the RRF score itself.
func reciprocalRankFusion(dense, sparse []schema.SearchResult, cfg HybridConfig) map[string]*fusionEntry {
	denseByID := make(map[string]schema.SearchResult, len(dense))
	for _, r := range dense {
		denseByID[r.Passage.ID] = r
	}
	sparseByID := make(map[string]schema.SearchResult, len(sparse))
	for _, r := range sparse {
		sparseByID[r.Passage.ID] = r
	}
	denseRanks := indexByID(dense)
	sparseRanks := indexByID(sparse)

	ids := unionIDs(dense, sparse)
	merged := make(map[string]*fusionEntry, len(ids))
	k := float64(cfg.FusionK)
	for _, id := range ids {
		d, hasDense := denseByID[id]
		s, hasSparse := sparseByID[id]

		var rrf float64
		if hasDense {
			rrf += 1 / (k + float64(denseRanks[id]))
		}
		if hasSparse {
			rrf += 1 / (k + float64(sparseRanks[id]))
		}

		base := d
		if hasDense && hasSparse {
			if s.FinalScore() > d.FinalScore() {
				base = s
			}
		} else if hasSparse {
			base = s
		}
		base.SetEnhancedScore(rrf)

		merged[id] = &fusionEntry{result: base, denseRank: denseRanks[id], sparseRank: sparseRanks[id]}
	}
	return merged
}

// interleavedFusion alternates dense/sparse starting with dense, skipping
// ids already selected; the fused score and metadata are inherited from
// whichever source supplied that entry.
func interleavedFusion(dense, sparse []schema.SearchResult, cfg HybridConfig) []schema.FusedResult {
	denseRanks := indexByID(dense)
	sparseRanks := indexByID(sparse)

	seen := make(map[string]bool)
	var out []schema.FusedResult
	i, j := 0, 0
	takeDense := true
	for i < len(dense) || j < len(sparse) {
		if takeDense {
			for i < len(dense) && seen[dense[i].Passage.ID] {
				i++
			}
			if i < len(dense) {
				r := dense[i]
				seen[r.Passage.ID] = true
				out = append(out, schema.FusedResult{
					SearchResult:   r,
					DenseRank:      denseRanks[r.Passage.ID],
					SparseRank:     sparseRanks[r.Passage.ID],
					FusionStrategy: string(StrategyInterleaved),
				})
				i++
			}
		} else {
			for j < len(sparse) && seen[sparse[j].Passage.ID] {
				j++
			}
			if j < len(sparse) {
				r := sparse[j]
				seen[r.Passage.ID] = true
				out = append(out, schema.FusedResult{
					SearchResult:   r,
					DenseRank:      denseRanks[r.Passage.ID],
					SparseRank:     sparseRanks[r.Passage.ID],
					FusionStrategy: string(StrategyInterleaved),
				})
				j++
			}
		}
		takeDense = !takeDense
		if i >= len(dense) && j >= len(sparse) {
			break
		}
	}

	for idx := range out {
		out[idx].RankingPosition = idx + 1
		out[idx].EnsureMetadata()["retrieval_method"] = "hybrid"
		out[idx].Metadata["hybrid_strategy"] = string(StrategyInterleaved)
		out[idx].Metadata["interleaved_position"] = idx + 1
	}
	return out
}

// scoreThresholdFusion runs three passes: dense above min_dense_score
// (tagged dense_priority), then sparse above min_sparse_score not already
// included (sparse_priority), then weighted-average fusion over whatever
// remains on both sides (weighted_remaining).
func scoreThresholdFusion(dense, sparse []schema.SearchResult, cfg HybridConfig) map[string]*fusionEntry {
	denseRanks := indexByID(dense)
	sparseRanks := indexByID(sparse)

	merged := make(map[string]*fusionEntry)
	included := make(map[string]bool)

	var remainingDense, remainingSparse []schema.SearchResult

	for _, r := range dense {
		if r.FinalScore() >= cfg.MinDenseScore {
			res := r
			res.EnsureMetadata()["fusion_pass"] = "dense_priority"
			merged[r.Passage.ID] = &fusionEntry{result: res, denseRank: denseRanks[r.Passage.ID], sparseRank: sparseRanks[r.Passage.ID]}
			included[r.Passage.ID] = true
		} else {
			remainingDense = append(remainingDense, r)
		}
	}

	for _, r := range sparse {
		if included[r.Passage.ID] {
			continue
		}
		if r.FinalScore() >= cfg.MinSparseScore {
			res := r
			res.EnsureMetadata()["fusion_pass"] = "sparse_priority"
			merged[r.Passage.ID] = &fusionEntry{result: res, denseRank: denseRanks[r.Passage.ID], sparseRank: sparseRanks[r.Passage.ID]}
			included[r.Passage.ID] = true
		} else {
			remainingSparse = append(remainingSparse, r)
		}
	}

	weighted := weightedAverageFusion(remainingDense, remainingSparse, cfg)
	for id, entry := range weighted {
		if included[id] {
			continue
		}
		entry.result.EnsureMetadata()["fusion_pass"] = "weighted_remaining"
		merged[id] = entry
	}

	return merged
}

func unionIDs(dense, sparse []schema.SearchResult) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range dense {
		if !seen[r.Passage.ID] {
			seen[r.Passage.ID] = true
			ids = append(ids, r.Passage.ID)
		}
	}
	for _, r := range sparse {
		if !seen[r.Passage.ID] {
			seen[r.Passage.ID] = true
			ids = append(ids, r.Passage.ID)
		}
	}
	return ids
}
