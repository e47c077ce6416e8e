// Package metrics exports the orchestrator's query roll-up as Prometheus
// gauges/counters, for processes that keep a long-lived Orchestrator around
// (a server, not the one-shot CLI).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arete-go/retrieval/orchestrator"
)

var (
	queriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "retrieval",
		Name:      "queries_total",
		Help:      "Total number of searches served by the orchestrator.",
	})

	averageLatencySeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "retrieval",
		Name:      "average_latency_seconds",
		Help:      "Average search latency across every query served so far.",
	})

	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "retrieval",
		Name:      "cache_hits_total",
		Help:      "Total result-cache hits.",
	})

	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "retrieval",
		Name:      "cache_misses_total",
		Help:      "Total result-cache misses.",
	})

	methodUsageTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "retrieval",
		Name:      "method_usage_total",
		Help:      "Query count by retrieval method.",
	}, []string{"method"})
)

// Observe snapshots an Orchestrator's Metrics() roll-up into the package's
// Prometheus collectors. Counters only move forward, so Observe tracks the
// last-seen totals and adds the delta rather than setting absolute values;
// callers typically run it on a ticker against a single long-lived
// Orchestrator.
type Observer struct {
	lastQueries    int
	lastCacheHits  int
	lastCacheMiss  int
	lastMethodUses orchestrator.MethodUsage
}

// NewObserver returns an Observer with a zeroed baseline.
func NewObserver() *Observer {
	return &Observer{lastMethodUses: make(orchestrator.MethodUsage)}
}

// Observe records the delta between o's last snapshot and m into the
// package-level collectors.
func (o *Observer) Observe(m orchestrator.Metrics) {
	if d := m.Queries - o.lastQueries; d > 0 {
		queriesTotal.Add(float64(d))
	}
	o.lastQueries = m.Queries

	averageLatencySeconds.Set(m.AverageLatency.Seconds())

	if d := m.CacheHits - o.lastCacheHits; d > 0 {
		cacheHitsTotal.Add(float64(d))
	}
	o.lastCacheHits = m.CacheHits

	if d := m.CacheMisses - o.lastCacheMiss; d > 0 {
		cacheMissesTotal.Add(float64(d))
	}
	o.lastCacheMiss = m.CacheMisses

	for method, count := range m.MethodUsage {
		d := count - o.lastMethodUses[method]
		if d > 0 {
			methodUsageTotal.WithLabelValues(string(method)).Add(float64(d))
		}
	}
	o.lastMethodUses = m.MethodUsage
}
