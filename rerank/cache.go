package rerank

import (
	"encoding/json"

	"github.com/arete-go/retrieval/schema"
)

func (r *Reranker) lookupCache(key string) ([]schema.RerankedResult, bool) {
	raw, ok := r.cache.Get(key)
	if !ok {
		return nil, false
	}
	var results []schema.RerankedResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false
	}
	return results, true
}

func (r *Reranker) storeCache(key string, results []schema.RerankedResult) {
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	r.cache.Set(key, raw, r.cfg.CacheTTL)
}
