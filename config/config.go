// Package config aggregates every tunable option across the retrieval
// pipeline (BM25, hybrid fusion, reranking, diversity, graph traversal, and
// the global relevance threshold) behind one functional-options
// constructor, with a struct-tag-driven environment-variable loader layered
// on top for process-level deployment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/arete-go/retrieval/diversity"
	"github.com/arete-go/retrieval/graph"
	"github.com/arete-go/retrieval/rerank"
	"github.com/arete-go/retrieval/retriever"
	"github.com/arete-go/retrieval/validation"
)

// BM25Params tunes the sparse scorer (C2/C3).
type BM25Params struct {
	K1 float64 `env:"BM25_K1" envDefault:"1.2" validate:"min=0,max=3"`
	B  float64 `env:"BM25_B" envDefault:"0.75" validate:"min=0,max=1"`
}

// Config is the single aggregate of every option in the configuration
// surface, constructed via New and its With* options, then optionally
// overridden field-by-field from the process environment via FromEnv.
type Config struct {
	BM25 BM25Params

	Hybrid retriever.HybridConfig

	Rerank rerank.Config

	Diversity diversity.Config

	Graph graph.Config

	// MinRelevance is the global filter threshold applied ahead of any
	// method-specific threshold.
	MinRelevance float64 `env:"RETRIEVAL_MIN_RELEVANCE" envDefault:"0"`
}

// Option configures a Config.
type Option func(*Config)

// WithBM25Params overrides BM25 tuning.
func WithBM25Params(p BM25Params) Option {
	return func(c *Config) { c.BM25 = p }
}

// WithHybridStrategy overrides the hybrid fusion config wholesale (strategy,
// weights, and RRF constant travel together since they're only meaningful
// in combination).
func WithHybridStrategy(h retriever.HybridConfig) Option {
	return func(c *Config) { c.Hybrid = h }
}

// WithRerankMethod overrides the reranker config.
func WithRerankMethod(r rerank.Config) Option {
	return func(c *Config) { c.Rerank = r }
}

// WithDiversityMethod overrides the diversity-selection config.
func WithDiversityMethod(d diversity.Config) Option {
	return func(c *Config) { c.Diversity = d }
}

// WithGraphLimits overrides the graph-traversal config.
func WithGraphLimits(g graph.Config) Option {
	return func(c *Config) { c.Graph = g }
}

// WithMinRelevance overrides the global relevance floor.
func WithMinRelevance(v float64) Option {
	return func(c *Config) { c.MinRelevance = v }
}

// New builds a Config starting from every component's documented defaults,
// then applies opts, then validates the result.
func New(opts ...Option) (Config, error) {
	c := Config{
		BM25:      BM25Params{K1: 1.2, B: 0.75},
		Hybrid:    retriever.DefaultHybridConfig(),
		Rerank:    rerank.DefaultConfig(),
		Diversity: diversity.DefaultConfig(),
		Graph:     graph.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := validation.Struct(c.BM25); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := retriever.ValidateHybridConfig(c.Hybrid); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := diversity.ValidateConfig(c.Diversity); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// FromEnv layers environment-variable overrides (struct-tagged `env:"..."`)
// on top of an already-built Config, for process-level deployment where
// command-line or service callers want every field overridable without
// hand-written flag parsing.
func FromEnv(c Config) (Config, error) {
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("config: parsing env vars: %w", err)
	}
	if err := validation.Struct(c.BM25); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return c, nil
}
