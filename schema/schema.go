// Package schema defines the data model shared by every retrieval component:
// passages, documents, graph entities, and the result types each pipeline
// stage produces.
package schema

// PassageKind tags the granularity a passage was chunked at. Kind filtering
// lets a caller restrict retrieval to, say, paragraph-level passages only.
type PassageKind string

const (
	PassageKindParagraph PassageKind = "paragraph"
	PassageKindSentence  PassageKind = "sentence"
	PassageKindSection   PassageKind = "section"
)

// Passage is the atomic retrieval unit: a chunk of text belonging to a
// Document, optionally carrying a precomputed embedding.
type Passage struct {
	ID         string                 `json:"id"`
	DocumentID string                 `json:"document_id"`
	Text       string                 `json:"text"`
	Position   int                    `json:"position"`
	CharStart  int                    `json:"char_start"`
	CharEnd    int                    `json:"char_end"`
	WordCount  int                    `json:"word_count"`
	Kind       PassageKind            `json:"kind,omitempty"`
	Embedding  []float64              `json:"embedding,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Document groups passages under a shared identifier. The core only ever
// consumes the id and a small metadata bag.
type Document struct {
	ID       string                 `json:"id"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// EntityKind is one of the four knowledge-graph node kinds the entity
// detector recognizes.
type EntityKind string

const (
	EntityKindPerson  EntityKind = "person"
	EntityKindConcept EntityKind = "concept"
	EntityKindWork    EntityKind = "work"
	EntityKindPlace   EntityKind = "place"
)

// Entity is a named concept/person/work/place detected in a query or
// resolved from the graph store, used only for graph enrichment.
type Entity struct {
	Name          string     `json:"name"`
	CanonicalForm string     `json:"canonical_form"`
	Kind          EntityKind `json:"kind"`
	Confidence    float64    `json:"confidence"`
	Aliases       []string   `json:"aliases,omitempty"`
}

// PassageFilter restricts retrieval to a document-id set and/or kind set.
// A nil or empty field means "no restriction on that dimension".
type PassageFilter struct {
	DocumentIDs []string      `json:"document_ids,omitempty"`
	Kinds       []PassageKind `json:"kinds,omitempty"`
}

// Matches reports whether a passage satisfies the filter.
func (f *PassageFilter) Matches(p Passage) bool {
	if f == nil {
		return true
	}
	if len(f.DocumentIDs) > 0 && !containsString(f.DocumentIDs, p.DocumentID) {
		return false
	}
	if len(f.Kinds) > 0 && !containsKind(f.Kinds, p.Kind) {
		return false
	}
	return true
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsKind(list []PassageKind, v PassageKind) bool {
	for _, k := range list {
		if k == v {
			return true
		}
	}
	return false
}

// SearchResult is a passage plus retrieval provenance: the base relevance
// score, the query it was found for, an optional enhanced score, its
// 1-based ranking position, and a free metadata bag.
type SearchResult struct {
	Passage         Passage                `json:"passage"`
	RelevanceScore  float64                `json:"relevance_score"`
	Query           string                 `json:"query"`
	EnhancedScore   *float64               `json:"enhanced_score,omitempty"`
	RankingPosition int                    `json:"ranking_position"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// FinalScore is the enhanced score if present, else the base relevance score.
func (r SearchResult) FinalScore() float64 {
	if r.EnhancedScore != nil {
		return *r.EnhancedScore
	}
	return r.RelevanceScore
}

// SetEnhancedScore sets the enhanced score, clamping to [0,1].
func (r *SearchResult) SetEnhancedScore(score float64) {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	r.EnhancedScore = &score
}

// EnsureMetadata lazily allocates the metadata map and returns it.
func (r *SearchResult) EnsureMetadata() map[string]interface{} {
	if r.Metadata == nil {
		r.Metadata = make(map[string]interface{})
	}
	return r.Metadata
}

// FusedResult extends SearchResult with per-side pre-fusion ranks and the
// strategy that produced the combined score.
type FusedResult struct {
	SearchResult
	DenseRank      int    `json:"dense_rank,omitempty"`
	SparseRank     int    `json:"sparse_rank,omitempty"`
	FusionStrategy string `json:"fusion_strategy"`
}

// RerankedResult extends SearchResult with the second-pass score and the
// rank it held before reranking.
type RerankedResult struct {
	SearchResult
	RerankScore  float64 `json:"rerank_score"`
	OriginalRank int     `json:"original_rank"`
}

// DiversifiedResult extends SearchResult with the fields a diversity
// selector reports alongside its final choice of subset.
type DiversifiedResult struct {
	SearchResult
	DiversityScore   float64 `json:"diversity_score"`
	ClusterID        int     `json:"cluster_id,omitempty"`
	CentroidDistance float64 `json:"centroid_distance,omitempty"`
	Uniqueness       float64 `json:"uniqueness"`
	TopicalDiversity float64 `json:"topical_diversity"`
	SemanticNovelty  float64 `json:"semantic_novelty"`
}

// VectorStoreQuery is the request shape C4 search operations accept.
type VectorStoreQuery struct {
	Embedding    []float64      `json:"embedding,omitempty"`
	Text         string         `json:"text,omitempty"`
	Limit        int            `json:"limit"`
	MinCertainty float64        `json:"min_certainty"`
	Filter       *PassageFilter `json:"filter,omitempty"`
}

// VectorStoreMatch is one hit returned by a near-vector/near-text search.
type VectorStoreMatch struct {
	PassageID string  `json:"passage_id"`
	Certainty float64 `json:"certainty"`
	Passage   Passage `json:"passage"`
}
