// Package orchestrator implements the top-level search surface (C10): it
// dispatches a query to dense, sparse, hybrid, and graph-enriched retrieval,
// then runs the optional reranking and diversification stages, and keeps a
// roll-up of its own searches (query count, average latency, method usage).
// It does not collect the metrics of the components it wires together.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/arete-go/retrieval/cache"
	"github.com/arete-go/retrieval/diversity"
	"github.com/arete-go/retrieval/graph"
	"github.com/arete-go/retrieval/rerank"
	"github.com/arete-go/retrieval/retriever"
	"github.com/arete-go/retrieval/schema"
	"github.com/arete-go/retrieval/scoring"
)

// Method is one of the five retrieval strategies search() dispatches to.
type Method string

const (
	MethodDense               Method = "dense"
	MethodSparse              Method = "sparse"
	MethodHybrid              Method = "hybrid"
	MethodGraph               Method = "graph"
	MethodGraphEnhancedHybrid Method = "graph_enhanced_hybrid"
)

// RetrievalRepositoryError reports that every sub-retriever a method needed
// failed; a partial failure in hybrid mode degrades instead of erroring.
type RetrievalRepositoryError struct {
	Method Method
	Cause  error
}

func (e *RetrievalRepositoryError) Error() string {
	return fmt.Sprintf("orchestrator: %s retrieval failed: %v", e.Method, e.Cause)
}

func (e *RetrievalRepositoryError) Unwrap() error { return e.Cause }

// SearchRequest is the input to Orchestrator.Search.
type SearchRequest struct {
	Query        string
	Method       Method
	Limit        int
	MinRelevance float64
	DocumentIDs  []string
	Kinds        []schema.PassageKind
	HybridConfig *retriever.HybridConfig
	Rerank       bool
	Diversify    bool
}

// MethodUsage counts how many times each method has been invoked.
type MethodUsage map[Method]int

// Metrics is the top-level roll-up Orchestrator.Metrics reports.
type Metrics struct {
	Queries        int
	AverageLatency time.Duration
	CacheHits      int
	CacheMisses    int
	MethodUsage    MethodUsage
}

// Orchestrator wires together the dense retriever, the optional sparse
// searcher, hybrid fusion, optional graph traversal, and the optional
// reranking/diversification stages behind a single search surface.
type Orchestrator struct {
	dense     *retriever.DenseRetriever
	sparse    scoring.SparseSearcher
	traversal *graph.Traversal
	reranker  *rerank.Reranker
	diversity *diversity.Selector
	cache     cache.Cache
	logger    *slog.Logger

	defaultHybrid retriever.HybridConfig

	mu          sync.Mutex
	queries     int
	sumLatency  time.Duration
	cacheHits   int
	cacheMisses int
	methodUsage MethodUsage
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSparse attaches a sparse searcher (C2/C3), enabling the Sparse and
// Hybrid methods.
func WithSparse(s scoring.SparseSearcher) Option {
	return func(o *Orchestrator) { o.sparse = s }
}

// WithGraph attaches a graph traversal stage, enabling the Graph and
// GraphEnhancedHybrid methods.
func WithGraph(t *graph.Traversal) Option {
	return func(o *Orchestrator) { o.traversal = t }
}

// WithReranker attaches C7 as a post-processing stage, run for searches whose
// request sets Rerank.
func WithReranker(r *rerank.Reranker) Option {
	return func(o *Orchestrator) { o.reranker = r }
}

// WithDiversity attaches C8 as a post-processing stage, run for searches
// whose request sets Diversify.
func WithDiversity(s *diversity.Selector) Option {
	return func(o *Orchestrator) { o.diversity = s }
}

// WithCache overrides the cache the Orchestrator holds (by default an
// in-memory cache soft-capped at 200 entries). Search neither reads nor
// writes it, so the CacheHits and CacheMisses fields of Metrics stay zero.
func WithCache(c cache.Cache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithDefaultHybridConfig overrides the hybrid fusion config used when a
// SearchRequest doesn't supply its own.
func WithDefaultHybridConfig(cfg retriever.HybridConfig) Option {
	return func(o *Orchestrator) { o.defaultHybrid = cfg }
}

// New constructs an Orchestrator around a mandatory dense retriever.
func New(dense *retriever.DenseRetriever, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		dense:         dense,
		logger:        slog.Default(),
		defaultHybrid: retriever.DefaultHybridConfig(),
		methodUsage:   make(MethodUsage),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.cache == nil {
		o.cache = cache.NewMemoryCache(cache.WithSoftCap(200, 40))
	}
	return o
}

// Search dispatches req.Method, applies optional graph enrichment,
// reranking, and diversification, and rolls up metrics.
func (o *Orchestrator) Search(ctx context.Context, req SearchRequest) ([]schema.SearchResult, error) {
	start := time.Now()
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	filter := buildFilter(req)

	results, err := o.dispatch(ctx, req, limit, filter)
	if err != nil {
		return nil, err
	}

	if req.Method == MethodGraph || req.Method == MethodGraphEnhancedHybrid {
		if o.traversal != nil {
			enriched, _, enrichErr := o.traversal.Enrich(ctx, req.Query, results)
			if enrichErr != nil {
				o.logger.Warn("graph enrichment failed", "error", enrichErr)
			} else {
				results = enriched
			}
		}
	}

	if req.Rerank && o.reranker != nil {
		reranked, rerankErr := o.reranker.Rerank(ctx, req.Query, results)
		if rerankErr != nil {
			o.logger.Warn("reranking failed", "error", rerankErr)
		} else {
			results = fromReranked(reranked)
		}
	}

	if req.Diversify && o.diversity != nil {
		diversified := o.diversity.Select(results)
		results = fromDiversified(diversified)
	}

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	o.recordMetrics(req.Method, time.Since(start))
	return results, nil
}

func buildFilter(req SearchRequest) *schema.PassageFilter {
	if len(req.DocumentIDs) == 0 && len(req.Kinds) == 0 {
		return nil
	}
	return &schema.PassageFilter{DocumentIDs: req.DocumentIDs, Kinds: req.Kinds}
}

func (o *Orchestrator) dispatch(ctx context.Context, req SearchRequest, limit int, filter *schema.PassageFilter) ([]schema.SearchResult, error) {
	switch req.Method {
	case MethodDense:
		return o.searchDense(ctx, req, limit, filter)
	case MethodSparse:
		return o.searchSparse(req, limit, filter)
	case MethodHybrid, MethodGraphEnhancedHybrid:
		return o.searchHybrid(ctx, req, limit, filter)
	case MethodGraph:
		return o.searchDense(ctx, req, limit, filter)
	default:
		return nil, fmt.Errorf("orchestrator: unknown method %q", req.Method)
	}
}

func (o *Orchestrator) searchDense(ctx context.Context, req SearchRequest, limit int, filter *schema.PassageFilter) ([]schema.SearchResult, error) {
	results, err := o.dense.Search(ctx, req.Query, retriever.SearchOptions{
		Limit:        limit,
		MinRelevance: req.MinRelevance,
		Filter:       filter,
	})
	if err != nil {
		return nil, &RetrievalRepositoryError{Method: req.Method, Cause: err}
	}
	return results, nil
}

func (o *Orchestrator) searchSparse(req SearchRequest, limit int, filter *schema.PassageFilter) ([]schema.SearchResult, error) {
	if o.sparse == nil {
		return nil, &RetrievalRepositoryError{Method: req.Method, Cause: fmt.Errorf("no sparse searcher configured")}
	}
	return o.sparse.Search(req.Query, limit, req.MinRelevance, filter), nil
}

// searchHybrid requests 2*limit from each sub-retriever in parallel, fuses
// the two result sets, and degrades to whichever side succeeded if one
// fails, tagging those results with metadata hybrid_degraded=true; total
// failure surfaces a RetrievalRepositoryError.
func (o *Orchestrator) searchHybrid(ctx context.Context, req SearchRequest, limit int, filter *schema.PassageFilter) ([]schema.SearchResult, error) {
	fanout := 2 * limit

	var wg sync.WaitGroup
	var dense []schema.SearchResult
	var denseErr error
	var sparse []schema.SearchResult
	var sparseErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		dense, denseErr = o.dense.Search(ctx, req.Query, retriever.SearchOptions{
			Limit:        fanout,
			MinRelevance: 0,
			Filter:       filter,
		})
	}()

	if o.sparse != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sparse = o.sparse.Search(req.Query, fanout, 0, filter)
		}()
	} else {
		sparseErr = fmt.Errorf("no sparse searcher configured")
	}

	wg.Wait()

	if denseErr != nil && sparseErr != nil {
		return nil, &RetrievalRepositoryError{Method: req.Method, Cause: fmt.Errorf("dense: %v, sparse: %v", denseErr, sparseErr)}
	}
	if denseErr != nil {
		o.logger.Warn("dense side of hybrid search failed, degrading to sparse", "error", denseErr)
		out := applyMinRelevance(sparse, req.MinRelevance)
		for i := range out {
			out[i].EnsureMetadata()["hybrid_degraded"] = true
		}
		return truncate(out, limit), nil
	}
	if sparseErr != nil {
		o.logger.Warn("sparse side of hybrid search failed, degrading to dense", "error", sparseErr)
		out := applyMinRelevance(dense, req.MinRelevance)
		for i := range out {
			out[i].EnsureMetadata()["hybrid_degraded"] = true
		}
		return truncate(out, limit), nil
	}

	cfg := o.defaultHybrid
	if req.HybridConfig != nil {
		cfg = *req.HybridConfig
	}
	cfg.MinRelevance = req.MinRelevance

	fused := retriever.Fuse(dense, sparse, cfg)
	return truncate(fromFused(fused), limit), nil
}

func applyMinRelevance(results []schema.SearchResult, minRelevance float64) []schema.SearchResult {
	out := results[:0]
	for _, r := range results {
		if r.FinalScore() >= minRelevance {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FinalScore() > out[j].FinalScore() })
	for i := range out {
		out[i].RankingPosition = i + 1
	}
	return out
}

func truncate(results []schema.SearchResult, limit int) []schema.SearchResult {
	if limit > 0 && limit < len(results) {
		return results[:limit]
	}
	return results
}

func fromFused(fused []schema.FusedResult) []schema.SearchResult {
	out := make([]schema.SearchResult, len(fused))
	for i, f := range fused {
		out[i] = f.SearchResult
	}
	return out
}

func fromReranked(reranked []schema.RerankedResult) []schema.SearchResult {
	out := make([]schema.SearchResult, len(reranked))
	for i, r := range reranked {
		out[i] = r.SearchResult
	}
	return out
}

func fromDiversified(diversified []schema.DiversifiedResult) []schema.SearchResult {
	out := make([]schema.SearchResult, len(diversified))
	for i, d := range diversified {
		out[i] = d.SearchResult
	}
	return out
}

func (o *Orchestrator) recordMetrics(method Method, latency time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queries++
	o.sumLatency += latency
	o.methodUsage[method]++
}

// Metrics returns the top-level roll-up across every call to Search.
func (o *Orchestrator) Metrics() Metrics {
	o.mu.Lock()
	defer o.mu.Unlock()
	usage := make(MethodUsage, len(o.methodUsage))
	for k, v := range o.methodUsage {
		usage[k] = v
	}
	m := Metrics{Queries: o.queries, CacheHits: o.cacheHits, CacheMisses: o.cacheMisses, MethodUsage: usage}
	if o.queries > 0 {
		m.AverageLatency = o.sumLatency / time.Duration(o.queries)
	}
	return m
}
