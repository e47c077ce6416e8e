// Package rerank implements the re-ranker (C7): cross-encoder, semantic,
// hybrid, and listwise-falls-back-to-cross-encoder scoring methods over a
// candidate list, with domain boosts and a TTL result cache.
package rerank

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/arete-go/retrieval/cache"
	"github.com/arete-go/retrieval/embedding"
	"github.com/arete-go/retrieval/llm"
	"github.com/arete-go/retrieval/schema"
)

// Method selects a rerank strategy.
type Method string

const (
	MethodCrossEncoder       Method = "cross_encoder"
	MethodSemanticSimilarity Method = "semantic_similarity"
	MethodHybrid             Method = "hybrid"
	MethodListwise           Method = "listwise"
)

// FinalComposition selects how the rerank score is combined with the
// original relevance score for the outer, caller-visible final score.
type FinalComposition string

const (
	CompositionRelevanceOnly FinalComposition = "relevance_only"
	CompositionRerankOnly    FinalComposition = "rerank_only"
	CompositionWeighted      FinalComposition = "weighted"
)

// RerankingError reports that a rerank method's scoring pass failed (an LLM
// call, an embedding call, or a sub-method it delegates to).
type RerankingError struct {
	Method Method
	Cause  error
}

func (e *RerankingError) Error() string {
	return fmt.Sprintf("rerank: %s scoring failed: %v", e.Method, e.Cause)
}

func (e *RerankingError) Unwrap() error { return e.Cause }

// conceptTerms is the re-ranker's own ~17-term philosophical-concept list,
// independent of C3's and C5's glossaries.
var conceptTerms = []string{
	"virtue", "ethics", "justice", "wisdom", "knowledge", "truth", "good",
	"soul", "reason", "morality", "duty", "happiness", "freedom", "being",
	"form", "substance", "logic",
}

// classicalAuthors is the re-ranker's own ~10-term classical-authors list.
var classicalAuthors = []string{
	"plato", "aristotle", "socrates", "epicurus", "seneca", "confucius",
	"kant", "hume", "descartes", "spinoza",
}

const choiceSelectPrompt = `Score how relevant each passage is to the question, on a scale from 0 to 10.
Respond with one line per passage in the exact form:
Doc: <number>, Relevance: <score>

%s
Question: %s
Answer:
`

var docLinePattern = regexp.MustCompile(`(?i)Doc(?:ument)?[:\s]*(\d+)[,\s]*Relevance[:\s]*(\d+(?:\.\d+)?)`)

// Config configures a Reranker.
type Config struct {
	Method            Method
	MaxCandidates     int
	TopK              int
	BatchSize         int
	ScoreThreshold    float64
	Composition       FinalComposition
	OriginalWeight    float64
	RerankWeight      float64
	CacheTTL          time.Duration
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		Method:         MethodCrossEncoder,
		MaxCandidates:  50,
		TopK:           20,
		BatchSize:      8,
		ScoreThreshold: 0,
		Composition:    CompositionWeighted,
		OriginalWeight: 0.3,
		RerankWeight:   0.7,
		CacheTTL:       300 * time.Second,
	}
}

// Reranker implements C7.
type Reranker struct {
	cfg      Config
	llmModel llm.LLM
	embedder embedding.EmbeddingModel
	cache    cache.Cache
	logger   *slog.Logger
}

// Option configures a Reranker.
type Option func(*Reranker)

// WithLLM sets the pairwise-relevance scorer used by CrossEncoder/Hybrid.
func WithLLM(model llm.LLM) Option {
	return func(r *Reranker) { r.llmModel = model }
}

// WithEmbedder sets the embedding model used by SemanticSimilarity/Hybrid.
func WithEmbedder(e embedding.EmbeddingModel) Option {
	return func(r *Reranker) { r.embedder = e }
}

// WithCache overrides the default in-memory cache.
func WithCache(c cache.Cache) Option {
	return func(r *Reranker) { r.cache = c }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reranker) { r.logger = logger }
}

// New constructs a Reranker.
func New(cfg Config, opts ...Option) *Reranker {
	r := &Reranker{cfg: cfg, cache: cache.NewMemoryCache(), logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rerank scores up to cfg.MaxCandidates candidates against query, applies
// domain boosts, filters by score_threshold, composes the outer final
// score, sorts descending, and truncates to cfg.TopK.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []schema.SearchResult) ([]schema.RerankedResult, error) {
	if len(candidates) > r.cfg.MaxCandidates {
		candidates = candidates[:r.cfg.MaxCandidates]
	}

	cacheKey := r.buildCacheKey(query, candidates)
	if cached, ok := r.lookupCache(cacheKey); ok {
		if len(cached) > r.cfg.TopK {
			cached = cached[:r.cfg.TopK]
		}
		return cached, nil
	}

	method := r.cfg.Method
	if method == MethodListwise {
		r.logger.Warn("listwise rerank not implemented, falling back to cross_encoder", "query", query)
		method = MethodCrossEncoder
	}

	var rerankScores []float64
	var err error
	switch method {
	case MethodSemanticSimilarity:
		rerankScores, err = r.semanticSimilarityScores(ctx, query, candidates)
	case MethodHybrid:
		rerankScores, err = r.hybridScores(ctx, query, candidates)
	default:
		rerankScores, err = r.crossEncoderScores(ctx, query, candidates)
	}
	if err != nil {
		return nil, &RerankingError{Method: method, Cause: err}
	}

	results := make([]schema.RerankedResult, len(candidates))
	for i, c := range candidates {
		rerankScore := applyDomainBoosts(c.Passage.Text, rerankScores[i])
		results[i] = schema.RerankedResult{
			SearchResult: c,
			RerankScore:  rerankScore,
			OriginalRank: c.RankingPosition,
		}
		results[i].SetEnhancedScore(r.composeFinalScore(c.FinalScore(), rerankScore))
	}

	filtered := results[:0]
	for _, rr := range results {
		if rr.RerankScore >= r.cfg.ScoreThreshold {
			filtered = append(filtered, rr)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].RerankScore > filtered[j].RerankScore
	})
	for i := range filtered {
		filtered[i].RankingPosition = i + 1
	}

	r.storeCache(cacheKey, filtered)

	if len(filtered) > r.cfg.TopK {
		filtered = filtered[:r.cfg.TopK]
	}
	return filtered, nil
}

func applyDomainBoosts(text string, score float64) float64 {
	lower := strings.ToLower(text)
	if containsAny(lower, conceptTerms) {
		score += 0.10
	}
	if containsAny(lower, classicalAuthors) {
		score += 0.05
	}
	if score > 1 {
		score = 1
	}
	return score
}

func containsAny(lower string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

func (r *Reranker) composeFinalScore(original, rerank float64) float64 {
	switch r.cfg.Composition {
	case CompositionRelevanceOnly:
		return original
	case CompositionRerankOnly:
		return rerank
	default:
		return original*r.cfg.OriginalWeight + rerank*r.cfg.RerankWeight
	}
}

// crossEncoderScores feeds (query, passage.text) pairs through the LLM in
// batches of cfg.BatchSize and parses a "Doc: N, Relevance: M" line per
// passage, normalizing the 0-10 relevance scale to [0,1].
func (r *Reranker) crossEncoderScores(ctx context.Context, query string, candidates []schema.SearchResult) ([]float64, error) {
	if r.llmModel == nil {
		return nil, fmt.Errorf("cross_encoder rerank requires an LLM")
	}

	scores := make([]float64, len(candidates))
	for start := 0; start < len(candidates); start += r.cfg.BatchSize {
		end := start + r.cfg.BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		var doc strings.Builder
		for i, c := range batch {
			doc.WriteString(fmt.Sprintf("Document %d:\n%s\n\n", i+1, c.Passage.Text))
		}
		prompt := fmt.Sprintf(choiceSelectPrompt, doc.String(), query)

		response, err := r.llmModel.Complete(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("cross encoder llm call: %w", err)
		}

		parsed := parseRelevanceLines(response, len(batch))
		for i := range batch {
			scores[start+i] = parsed[i]
		}
	}
	return scores, nil
}

func parseRelevanceLines(response string, n int) []float64 {
	out := make([]float64, n)
	for _, line := range strings.Split(response, "\n") {
		m := docLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 || idx > n {
			continue
		}
		relevance, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		out[idx-1] = clamp01(relevance / 10)
	}
	return out
}

// semanticSimilarityScores embeds the query once and, for any candidate
// lacking a stored embedding, embeds its text on demand.
func (r *Reranker) semanticSimilarityScores(ctx context.Context, query string, candidates []schema.SearchResult) ([]float64, error) {
	if r.embedder == nil {
		return nil, fmt.Errorf("semantic_similarity rerank requires an embedder")
	}
	queryVec, err := r.embedder.GetQueryEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		vec := c.Passage.Embedding
		if len(vec) == 0 {
			vec, err = r.embedder.GetTextEmbedding(ctx, c.Passage.Text)
			if err != nil {
				return nil, fmt.Errorf("embed passage %s: %w", c.Passage.ID, err)
			}
		}
		sim, err := embedding.Similarity(queryVec, vec, embedding.SimilarityTypeCosine)
		if err != nil {
			continue
		}
		scores[i] = clamp01(sim)
	}
	return scores, nil
}

// hybridScores blends cross-encoder and semantic-similarity scores with a
// fixed 0.7/0.3 weighting internal to this method, distinct from the outer
// configurable composition.
func (r *Reranker) hybridScores(ctx context.Context, query string, candidates []schema.SearchResult) ([]float64, error) {
	cross, err := r.crossEncoderScores(ctx, query, candidates)
	if err != nil {
		return nil, err
	}
	semantic, err := r.semanticSimilarityScores(ctx, query, candidates)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(candidates))
	for i := range candidates {
		out[i] = clamp01(0.7*cross[i] + 0.3*semantic[i])
	}
	return out, nil
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

func (r *Reranker) buildCacheKey(query string, candidates []schema.SearchResult) string {
	n := 10
	if len(candidates) < n {
		n = len(candidates)
	}
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = candidates[i].Passage.ID
	}
	return cache.Key(query, string(r.cfg.Method), cache.JoinIDs(ids))
}
