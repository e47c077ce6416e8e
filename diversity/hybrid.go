package diversity

import (
	"sort"

	"github.com/arete-go/retrieval/schema"
)

// selectHybrid runs MMR, Clustering, and SemanticDistance, deduplicates by
// passage id keeping the highest diversity score, recomputes topical and
// semantic-novelty metrics against the deduplicated pool, and sorts by a
// balanced 0.7*relevance + 0.3*diversity score.
func (s *Selector) selectHybrid(ranked []schema.SearchResult) []schema.DiversifiedResult {
	mmr := s.selectMMR(ranked)
	clustering := s.selectClustering(ranked)
	semantic := s.selectSemanticDistance(ranked)

	best := make(map[string]schema.DiversifiedResult)
	for _, set := range [][]schema.DiversifiedResult{mmr, clustering, semantic} {
		for _, r := range set {
			id := r.Passage.ID
			if existing, ok := best[id]; !ok || r.DiversityScore > existing.DiversityScore {
				best[id] = r
			}
		}
	}

	pool := make([]schema.SearchResult, 0, len(best))
	for _, r := range best {
		pool = append(pool, r.SearchResult)
	}

	vectors := make([][]float64, 0, len(pool))
	for _, r := range pool {
		vectors = append(vectors, r.Passage.Embedding)
	}

	out := make([]schema.DiversifiedResult, 0, len(best))
	for _, r := range best {
		novelty := minDistanceToSet(r.Passage.Embedding, without(vectors, r.Passage.Embedding))
		r.SemanticNovelty = novelty
		r.Uniqueness = novelty
		r.TopicalDiversity = topicalDiversity(r.Passage.Text, pool)
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		scoreI := 0.7*out[i].FinalScore() + 0.3*out[i].DiversityScore
		scoreJ := 0.7*out[j].FinalScore() + 0.3*out[j].DiversityScore
		return scoreI > scoreJ
	})

	if len(out) > s.cfg.MaxResults {
		out = out[:s.cfg.MaxResults]
	}
	return out
}
