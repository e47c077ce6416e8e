// Package retriever implements the dense retriever (C5) and hybrid fusion
// (C6) stages of the pipeline.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/arete-go/retrieval/embedding"
	"github.com/arete-go/retrieval/schema"
	"github.com/arete-go/retrieval/vectorstore"
)

// denseGlossary is the dense retriever's own curated philosophical-term
// list, independent of the sparse-expansion scorer's and the re-ranker's.
var denseGlossary = []string{
	"virtue", "justice", "wisdom", "knowledge", "truth", "eudaimonia",
	"arete", "phronesis", "sophia", "episteme", "soul", "form", "substance",
	"essence", "ethics", "logic", "metaphysics", "dialectic",
}

// Scorer is the optional caller-supplied composition function applied after
// built-in score enhancement.
type Scorer func(passage schema.Passage, baseScore float64, query string) float64

// Metrics is the running-average accessor C5 exposes.
type Metrics struct {
	Queries        int
	TotalResults   int
	AverageScore   float64
	AverageLatency time.Duration
}

// DenseRetriever wraps a VectorStore and an embedding model, applying query
// preprocessing, optional multiplicative score enhancement, and ranking.
type DenseRetriever struct {
	store    vectorstore.VectorStore
	embedder embedding.EmbeddingModel
	logger   *slog.Logger

	enhanceScores bool
	scorer        Scorer

	mu             sync.Mutex
	queries        int
	totalResults   int
	sumScore       float64
	sumLatency     time.Duration
}

// Option configures a DenseRetriever.
type Option func(*DenseRetriever)

// WithEnhanceScores turns on the multiplicative score-enhancement pass.
func WithEnhanceScores(enabled bool) Option {
	return func(r *DenseRetriever) { r.enhanceScores = enabled }
}

// WithScorer attaches a caller-supplied score composition function, run
// after built-in enhancement.
func WithScorer(s Scorer) Option {
	return func(r *DenseRetriever) { r.scorer = s }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *DenseRetriever) { r.logger = logger }
}

// NewDenseRetriever constructs a DenseRetriever.
func NewDenseRetriever(store vectorstore.VectorStore, embedder embedding.EmbeddingModel, opts ...Option) *DenseRetriever {
	r := &DenseRetriever{
		store:         store,
		embedder:      embedder,
		logger:        slog.Default(),
		enhanceScores: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// QueryProcessingError reports a query that became empty after preprocessing.
type QueryProcessingError struct {
	Query string
}

func (e *QueryProcessingError) Error() string {
	return fmt.Sprintf("retriever: query %q is empty after preprocessing", e.Query)
}

// RetrievalError reports a failure in one stage of dense retrieval (query
// embedding or the vector-store search itself).
type RetrievalError struct {
	Stage string
	Cause error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retriever: %s failed: %v", e.Stage, e.Cause)
}

func (e *RetrievalError) Unwrap() error { return e.Cause }

// preprocessQuery trims, NFKC-normalizes, and collapses whitespace runs,
// preserving Greek/Devanagari/Hebrew/Arabic ranges unchanged. No stop-word
// removal happens at query time — that is the indexer's concern, not the
// query's.
func preprocessQuery(q string) string {
	normalized := norm.NFKC.String(strings.TrimSpace(q))

	var b strings.Builder
	lastWasSpace := false
	for _, r := range normalized {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func containsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

func containsGreek(s string) bool {
	for _, r := range s {
		if (r >= 0x0370 && r <= 0x03FF) || (r >= 0x1F00 && r <= 0x1FFF) {
			return true
		}
	}
	return false
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

// enhance applies the three multiplicative boosts in spec order, then
// clamps to [0,1].
func enhance(query string, passage schema.Passage, base float64) float64 {
	score := base
	if containsAny(query, denseGlossary) && containsAny(passage.Text, denseGlossary) {
		score *= 1.10
	}
	if containsGreek(query) && containsGreek(passage.Text) {
		score *= 1.15
	}
	if wordCount(passage.Text) > 100 {
		score *= 1.05
	}
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// SearchOptions configures a single Search call.
type SearchOptions struct {
	Limit          int
	MinRelevance   float64
	Filter         *schema.PassageFilter
	ExpandContext  bool
}

// Search preprocesses the query, embeds it, queries the vector store,
// enhances scores, filters, ranks, and renumbers positions.
func (r *DenseRetriever) Search(ctx context.Context, query string, opts SearchOptions) ([]schema.SearchResult, error) {
	start := time.Now()
	processed := preprocessQuery(query)
	if processed == "" {
		return nil, &QueryProcessingError{Query: query}
	}

	vec, err := r.embedder.GetQueryEmbedding(ctx, processed)
	if err != nil {
		return nil, &RetrievalError{Stage: "embed_query", Cause: err}
	}

	matches, err := r.store.SearchNearVector(ctx, schema.VectorStoreQuery{
		Embedding:    vec,
		Limit:        opts.Limit,
		MinCertainty: 0,
		Filter:       opts.Filter,
	})
	if err != nil {
		return nil, &RetrievalError{Stage: "vector_search", Cause: err}
	}

	results := make([]schema.SearchResult, 0, len(matches))
	for _, m := range matches {
		score := m.Certainty
		if r.enhanceScores {
			score = enhance(processed, m.Passage, score)
		}
		if r.scorer != nil {
			score = r.scorer(m.Passage, score, processed)
		}
		if score < opts.MinRelevance {
			continue
		}
		res := schema.SearchResult{Passage: m.Passage, RelevanceScore: score, Query: processed}
		if opts.ExpandContext {
			res.EnsureMetadata()["context_expansion_requested"] = true
		}
		res.EnsureMetadata()["retrieval_method"] = "dense"
		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore() > results[j].FinalScore()
	})
	if opts.Limit > 0 && opts.Limit < len(results) {
		results = results[:opts.Limit]
	}
	for i := range results {
		results[i].RankingPosition = i + 1
	}

	r.recordMetrics(results, time.Since(start))
	r.logger.Debug("dense search", "query", processed, "results", len(results))
	return results, nil
}

// BatchSearch runs Search for every query; a failing query contributes an
// empty slice rather than aborting the batch.
func (r *DenseRetriever) BatchSearch(ctx context.Context, queries []string, opts SearchOptions) map[string][]schema.SearchResult {
	out := make(map[string][]schema.SearchResult, len(queries))
	for _, q := range queries {
		results, err := r.Search(ctx, q, opts)
		if err != nil {
			r.logger.Warn("batch search query failed", "query", q, "cause", err)
			out[q] = []schema.SearchResult{}
			continue
		}
		out[q] = results
	}
	return out
}

func (r *DenseRetriever) recordMetrics(results []schema.SearchResult, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	r.totalResults += len(results)
	for _, res := range results {
		r.sumScore += res.FinalScore()
	}
	r.sumLatency += latency
}

// Metrics returns the running totals accessor.
func (r *DenseRetriever) Metrics() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := Metrics{Queries: r.queries, TotalResults: r.totalResults}
	if r.totalResults > 0 {
		m.AverageScore = r.sumScore / float64(r.totalResults)
	}
	if r.queries > 0 {
		m.AverageLatency = r.sumLatency / time.Duration(r.queries)
	}
	return m
}
