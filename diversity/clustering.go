package diversity

import (
	"math"

	"github.com/arete-go/retrieval/schema"
)

// kmeans runs a fixed-iteration Lloyd's-algorithm k-means over vectors,
// returning the cluster assignment for each vector. Seeded deterministically
// (first k vectors as initial centroids) since this module avoids
// Math.random()-style nondeterminism in favor of reproducible results.
func kmeans(vectors [][]float64, k int, iterations int) []int {
	n := len(vectors)
	if k <= 0 || n == 0 {
		return make([]int, n)
	}
	if k > n {
		k = n
	}
	dim := len(vectors[0])

	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), vectors[i]...)
	}

	assignments := make([]int, n)
	for iter := 0; iter < iterations; iter++ {
		changed := false
		for i, v := range vectors {
			best := 0
			bestDist := math.Inf(1)
			for c, centroid := range centroids {
				d := squaredEuclidean(v, centroid)
				if d < bestDist {
					bestDist = d
					best = c
				}
			}
			if assignments[i] != best {
				changed = true
			}
			assignments[i] = best
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, dim)
		}
		for i, v := range vectors {
			c := assignments[i]
			counts[c]++
			for d := 0; d < dim && d < len(v); d++ {
				sums[c][d] += v[d]
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for d := 0; d < dim; d++ {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}

		if !changed {
			break
		}
	}

	return assignments
}

func squaredEuclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		if i >= len(b) {
			break
		}
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

func centroidOf(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	centroid := make([]float64, dim)
	for _, v := range vectors {
		for d := 0; d < dim && d < len(v); d++ {
			centroid[d] += v[d]
		}
	}
	for d := range centroid {
		centroid[d] /= float64(len(vectors))
	}
	return centroid
}

// selectClustering implements the Clustering strategy: k-means with
// k=min(num_clusters, |results|); for each cluster of size >= min_cluster_size,
// pick the highest-relevance member; diversity_score ~ 0.9 - 0.3*distance_to_centroid.
func (s *Selector) selectClustering(ranked []schema.SearchResult) []schema.DiversifiedResult {
	if len(ranked) == 0 {
		return nil
	}

	vectors := make([][]float64, len(ranked))
	for i, r := range ranked {
		vectors[i] = r.Passage.Embedding
	}

	k := s.cfg.NumClusters
	if k > len(ranked) {
		k = len(ranked)
	}
	assignments := kmeans(vectors, k, 25)

	clusters := make(map[int][]int) // cluster id -> indices into ranked
	for i, c := range assignments {
		clusters[c] = append(clusters[c], i)
	}

	var out []schema.DiversifiedResult
	for clusterID, members := range clusters {
		if len(members) < s.cfg.MinClusterSize {
			continue
		}

		best := members[0]
		for _, idx := range members[1:] {
			if ranked[idx].FinalScore() > ranked[best].FinalScore() {
				best = idx
			}
		}

		memberVecs := make([][]float64, len(members))
		for i, idx := range members {
			memberVecs[i] = vectors[idx]
		}
		centroid := centroidOf(memberVecs)
		dist := distance(vectors[best], centroid)

		out = append(out, schema.DiversifiedResult{
			SearchResult:     ranked[best],
			DiversityScore:   0.9 - 0.3*dist,
			ClusterID:        clusterID,
			CentroidDistance: dist,
			Uniqueness:       0.9 - 0.3*dist,
			TopicalDiversity: topicalDiversity(ranked[best].Passage.Text, ranked),
		})

		if len(out) >= s.cfg.MaxResults {
			break
		}
	}

	return out
}
