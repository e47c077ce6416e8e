package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/arete-go/retrieval/cache"
	"github.com/arete-go/retrieval/schema"
)

// Config bounds a Traversal's query complexity, per-query timeout, and
// result cache.
type Config struct {
	Query        QueryConfig
	QueryTimeout time.Duration
	CacheTTL     time.Duration
	CacheSoftCap int
	CacheEvictN  int
}

// DefaultConfig returns the spec's documented defaults: a 30s per-query
// timeout and a 300s TTL cache soft-capped at 100 entries.
func DefaultConfig() Config {
	return Config{
		Query:        DefaultQueryConfig(),
		QueryTimeout: 30 * time.Second,
		CacheTTL:     300 * time.Second,
		CacheSoftCap: 100,
		CacheEvictN:  20,
	}
}

// Traversal detects entities in a query, generates and executes graph
// queries against a GraphStore, caches their results, and uses them to
// enhance a passage ranking's scores.
type Traversal struct {
	store  GraphStore
	cache  cache.Cache
	cfg    Config
	logger *slog.Logger
}

// Option configures a Traversal.
type Option func(*Traversal)

// WithCache overrides the result cache (defaults to an in-memory cache
// soft-capped at cfg.CacheSoftCap entries).
func WithCache(c cache.Cache) Option {
	return func(t *Traversal) { t.cache = c }
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Traversal) { t.logger = logger }
}

// New creates a Traversal over the given GraphStore.
func New(store GraphStore, cfg Config, opts ...Option) *Traversal {
	t := &Traversal{
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.cache == nil {
		t.cache = cache.NewMemoryCache(cache.WithSoftCap(t.cfg.CacheSoftCap, t.cfg.CacheEvictN))
	}
	return t
}

// GraphTraversalError reports that executing a generated query against the
// GraphStore failed or timed out.
type GraphTraversalError struct {
	Shape QueryShape
	Cause error
}

func (e *GraphTraversalError) Error() string {
	return fmt.Sprintf("graph: %s query failed: %v", e.Shape, e.Cause)
}

func (e *GraphTraversalError) Unwrap() error { return e.Cause }

// entityStats accumulates what graph execution learned about one entity:
// how many relationships it participates in and, if it was one end of a
// path query, that path's hop count.
type entityStats struct {
	entity            schema.Entity
	relationshipCount int
	pathLength        int
}

// Enrich detects entities in query, executes the graph queries they imply,
// and raises the score of any result whose passage text mentions one of
// them. It returns the re-sorted results and the entities detected. When
// every generated query fails, it returns results unchanged together with
// the last query's GraphTraversalError.
func (t *Traversal) Enrich(ctx context.Context, query string, results []schema.SearchResult) ([]schema.SearchResult, []schema.Entity, error) {
	entities := DetectEntities(query)
	if len(entities) == 0 {
		return results, nil, nil
	}

	queries := GenerateQueries(entities, t.cfg.Query)
	stats := make(map[string]*entityStats, len(entities))
	for _, e := range entities {
		stats[e.CanonicalForm] = &entityStats{entity: e}
	}

	var lastErr error
	succeeded := 0
	for _, q := range queries {
		qr, err := t.execute(ctx, q)
		if err != nil {
			t.logger.Warn("graph query failed", "shape", q.Shape, "error", err)
			lastErr = err
			continue
		}
		succeeded++
		t.applyQueryResult(q, qr, stats)
	}
	if succeeded == 0 && lastErr != nil {
		return results, entities, lastErr
	}

	enhanced := enhancePassages(results, stats)
	return enhanced, entities, nil
}

// execute runs a generated query against the store, serving from cache when
// available and imposing cfg.QueryTimeout via real context cancellation.
func (t *Traversal) execute(ctx context.Context, q GeneratedQuery) (QueryResult, error) {
	key := cache.Key(q.Cypher, serializeParams(q.Params))
	if cached, ok := t.cache.Get(key); ok {
		var qr QueryResult
		if err := json.Unmarshal(cached, &qr); err == nil {
			return qr, nil
		}
	}

	qctx, cancel := context.WithTimeout(ctx, t.cfg.QueryTimeout)
	defer cancel()

	raw, err := t.store.Query(qctx, q.Cypher, q.Params)
	if err != nil {
		return QueryResult{}, &GraphTraversalError{Shape: q.Shape, Cause: err}
	}

	qr, ok := raw.(QueryResult)
	if !ok {
		return QueryResult{}, &GraphTraversalError{Shape: q.Shape, Cause: fmt.Errorf("unexpected query result type %T", raw)}
	}

	if encoded, err := json.Marshal(qr); err == nil {
		t.cache.Set(key, encoded, t.cfg.CacheTTL)
	}
	return qr, nil
}

// applyQueryResult folds one query's triplets into the per-entity stats the
// enhanced-score formula consumes.
func (t *Traversal) applyQueryResult(q GeneratedQuery, qr QueryResult, stats map[string]*entityStats) {
	switch q.Shape {
	case ShapeSingleEntityLookup:
		name, _ := q.Params["name"].(string)
		if s, ok := stats[name]; ok {
			if len(qr.Triplets) > s.relationshipCount {
				s.relationshipCount = len(qr.Triplets)
			}
		}
	case ShapeRelationshipScan:
		name, _ := q.Params["name"].(string)
		if s, ok := stats[name]; ok {
			s.relationshipCount = len(qr.Triplets)
		}
	case ShapePathBetweenEntities:
		a, _ := q.Params["a"].(string)
		b, _ := q.Params["b"].(string)
		if len(qr.Triplets) == 0 {
			return
		}
		if s, ok := stats[a]; ok {
			s.pathLength = len(qr.Triplets)
		}
		if s, ok := stats[b]; ok {
			s.pathLength = len(qr.Triplets)
		}
	case ShapeDeepMultiHop:
		counts := make(map[string]int)
		for _, tr := range qr.Triplets {
			counts[tr.Subject]++
		}
		for name, count := range counts {
			if s, ok := stats[name]; ok && count > s.relationshipCount {
				s.relationshipCount = count
			}
		}
	}
}

// enhancePassages raises the score of any result whose passage text
// mentions a detected entity, using the formula:
//
//	min(1, base + 0.1*min(relationship_count,3) + 0.2*graph_confidence - 0.1*max(0,path_length-1))
//
// and tags the result graph_enhanced before re-sorting by final score.
func enhancePassages(results []schema.SearchResult, stats map[string]*entityStats) []schema.SearchResult {
	out := make([]schema.SearchResult, len(results))
	copy(out, results)

	for i := range out {
		text := strings.ToLower(out[i].Passage.Text)
		var best *entityStats
		for _, s := range stats {
			if strings.Contains(text, s.entity.CanonicalForm) {
				if best == nil || s.relationshipCount > best.relationshipCount {
					best = s
				}
			}
		}
		if best == nil {
			continue
		}

		base := out[i].FinalScore()
		relTerm := 0.1 * minInt(best.relationshipCount, 3)
		confTerm := 0.2 * best.entity.Confidence
		pathPenalty := 0.0
		if best.pathLength > 1 {
			pathPenalty = 0.1 * float64(best.pathLength-1)
		}
		score := base + relTerm + confTerm - pathPenalty
		if score > 1 {
			score = 1
		}
		out[i].SetEnhancedScore(score)
		out[i].EnsureMetadata()["graph_enhanced"] = true
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalScore() > out[j].FinalScore()
	})
	for i := range out {
		out[i].RankingPosition = i + 1
	}
	return out
}

func minInt(a, b int) float64 {
	if a < b {
		return float64(a)
	}
	return float64(b)
}

// serializeParams builds a deterministic string encoding of a query's
// params for cache-key purposes.
func serializeParams(params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v;", k, params[k])
	}
	return b.String()
}
